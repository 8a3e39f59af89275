package routes

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/janisto/hello-service/internal/http/health"
	"github.com/janisto/hello-service/internal/http/v1/hello"
)

// Register wires all HTTP routes into the provided API router.
func Register(api huma.API) {
	health.Register(api)
	hello.Register(api)
}
