package hello

import (
	"context"
	"encoding/json"
	"net/http"
	"reflect"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	applog "github.com/janisto/hello-service/internal/platform/logging"
	"github.com/janisto/hello-service/internal/platform/respond"
)

// Register wires the greeting route into the provided API router.
func Register(api huma.API) {
	register(api, json.Marshal)
}

func register(api huma.API, marshal func(any) ([]byte, error)) {
	huma.Register(api, operation(api), func(ctx context.Context, _ *struct{}) (*Output, error) {
		body, err := marshal(Greeting{Message: Message})
		if err != nil {
			applog.LogError(ctx, "unhandled exception in "+Path, err)
			return &Output{
				Status:      http.StatusInternalServerError,
				ContentType: contentTypeJSON,
				Body:        respond.FaultBody(),
			}, nil
		}
		return &Output{Status: http.StatusOK, ContentType: contentTypeJSON, Body: body}, nil
	})
}

// operation documents the JSON payloads explicitly since the handler returns raw bytes.
func operation(api huma.API) huma.Operation {
	registry := api.OpenAPI().Components.Schemas
	jsonContent := func(t reflect.Type, hint string) map[string]*huma.MediaType {
		return map[string]*huma.MediaType{
			contentTypeJSON: {Schema: registry.Schema(t, true, hint)},
		}
	}

	return huma.Operation{
		OperationID:   "post-test-hello",
		Method:        http.MethodPost,
		Path:          Path,
		Summary:       "Return a fixed greeting",
		Description:   "Ignores the request body and always answers with the same greeting.",
		Tags:          []string{"hello"},
		DefaultStatus: http.StatusOK,
		Metadata:      map[string]any{MetadataFixedContentType: contentTypeJSON},
		Responses: map[string]*huma.Response{
			strconv.Itoa(http.StatusOK): {
				Description: "Greeting",
				Content:     jsonContent(reflect.TypeFor[Greeting](), "Greeting"),
			},
			strconv.Itoa(http.StatusInternalServerError): {
				Description: "Internal fault",
				Content:     jsonContent(reflect.TypeFor[respond.FaultEnvelope](), "FaultEnvelope"),
			},
		},
	}
}
