// Package hello serves the fixed greeting as an HTTP Cloud Function.
package hello

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var faultBody = []byte(`{"error":{"code":"INTERNAL_SERVER_ERROR","message":"An unexpected error occurred"}}`)

// errorLog writes to stderr so faults land in the function's error stream.
var errorLog = zap.New(zapcore.NewCore(
	zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
	zapcore.Lock(os.Stderr),
	zapcore.ErrorLevel,
))

func init() {
	functions.HTTP("Hello", helloHandler)
}

// Response is the greeting payload.
type Response struct {
	Message string `json:"message"`
}

func helloHandler(w http.ResponseWriter, r *http.Request) {
	serve(w, r, json.Marshal)
}

// serve ignores the request body and writes the greeting, or the fault body when
// encoding fails.
func serve(w http.ResponseWriter, r *http.Request, marshal func(any) ([]byte, error)) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	body, err := marshal(Response{Message: "hello world"})
	if err != nil {
		errorLog.Error("unhandled exception in /test/hello", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write(faultBody)
		return
	}
	_, _ = w.Write(body)
}
