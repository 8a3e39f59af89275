package respond

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"

	"go.uber.org/zap"

	applog "github.com/janisto/hello-service/internal/platform/logging"
)

const (
	// FaultCode is the error code of every internal fault response.
	FaultCode = "INTERNAL_SERVER_ERROR"
	// FaultMessage is the client-facing message of every internal fault response.
	FaultMessage = "An unexpected error occurred"

	contentTypeJSON = "application/json"
)

// ErrorBody describes an error in a predictable structured format.
type ErrorBody struct {
	Code    string `json:"code"    doc:"Machine readable error code" example:"INTERNAL_SERVER_ERROR"`
	Message string `json:"message" doc:"Human readable message"      example:"An unexpected error occurred"`
}

// FaultEnvelope is the response body for internal faults.
type FaultEnvelope struct {
	Error ErrorBody `json:"error"`
}

var faultBody = mustMarshal(FaultEnvelope{Error: ErrorBody{Code: FaultCode, Message: FaultMessage}})

func mustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

// FaultBody returns the serialized fault envelope:
// {"error":{"code":"INTERNAL_SERVER_ERROR","message":"An unexpected error occurred"}}
func FaultBody() []byte {
	return slices.Clone(faultBody)
}

// Fault is a huma.StatusError that always renders as the fault envelope with
// status 500 and content type application/json. The cause is kept for logging
// and errors.Is/As, never serialized.
type Fault struct {
	FaultEnvelope
	cause error
}

// NewFault wraps cause in a Fault.
func NewFault(cause error) *Fault {
	return &Fault{
		FaultEnvelope: FaultEnvelope{Error: ErrorBody{Code: FaultCode, Message: FaultMessage}},
		cause:         cause,
	}
}

func (f *Fault) Error() string {
	if f.cause != nil {
		return FaultMessage + ": " + f.cause.Error()
	}
	return FaultMessage
}

func (f *Fault) Unwrap() error {
	return f.cause
}

// GetStatus implements huma.StatusError.
func (f *Fault) GetStatus() int {
	return http.StatusInternalServerError
}

// ContentType implements huma.ContentTypeFilter; faults are never negotiated.
func (f *Fault) ContentType(string) string {
	return contentTypeJSON
}

// writeFault logs err and writes the fault envelope with status 500. The log
// entry carries the correlation ID so the client-facing fault can be traced.
func writeFault(w http.ResponseWriter, r *http.Request, err error, fields ...zap.Field) {
	if err == nil {
		err = errors.New("unknown fault")
	}
	fields = append(fields, zap.String("method", r.Method), zap.String("path", r.URL.Path))
	if traceID := applog.TraceIDFromContext(r.Context()); traceID != "" {
		fields = append(fields, zap.String("traceId", traceID))
	}
	applog.LogError(r.Context(), "unhandled exception in "+r.URL.Path, err, fields...)

	h := w.Header()
	h.Set("Content-Type", contentTypeJSON)
	h.Del("Content-Length")
	w.WriteHeader(http.StatusInternalServerError)
	if _, werr := w.Write(faultBody); werr != nil {
		applog.LogError(r.Context(), "failed to write fault response", werr)
	}
}

func logFault(ctx context.Context, msg string, errs []error) {
	if msg == "" {
		msg = "internal server error"
	}
	applog.LogError(ctx, msg, errors.Join(errs...), zap.Int("status", http.StatusInternalServerError))
}
