package health

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// Path is the route of the health check.
const Path = "/health"

// Data is the payload for the health endpoint.
type Data struct {
	Status string `json:"status" doc:"Service health" example:"healthy"`
}

// Output wraps Data for huma.
type Output struct {
	Body Data
}

// Register adds the health check to api.
func Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "get-health",
		Method:      http.MethodGet,
		Path:        Path,
		Summary:     "Health check",
		Tags:        []string{"health"},
	}, handler)
}

func handler(context.Context, *struct{}) (*Output, error) {
	return &Output{Body: Data{Status: "healthy"}}, nil
}
