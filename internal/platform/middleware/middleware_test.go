package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func containsHeader(headerValue, target string) bool {
	for part := range strings.SplitSeq(headerValue, ",") {
		if strings.EqualFold(strings.TrimSpace(part), target) {
			return true
		}
	}
	return false
}

func TestCORSAllowsAnyOriginByDefault(t *testing.T) {
	called := false
	h := CORS()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "http://localhost/test/hello", nil)
	req.Header.Set("Origin", "http://example.com")
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)

	if !called {
		t.Fatal("expected downstream handler to be called for POST request")
	}
	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected Access-Control-Allow-Origin '*', got %q", got)
	}
	exposed := resp.Header().Get("Access-Control-Expose-Headers")
	for _, name := range []string{"Link", "X-Request-Id"} {
		if !containsHeader(exposed, name) {
			t.Fatalf("expected Access-Control-Expose-Headers to contain %q, got %q", name, exposed)
		}
	}
}

func TestCORSPreflightAllowsAnyRequestHeader(t *testing.T) {
	called := false
	h := CORS()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "http://localhost/test/hello", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type, X-Custom-Thing, traceparent")
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)

	if called {
		t.Fatal("expected preflight to be answered without calling downstream handler")
	}
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200 for preflight, got %d", resp.Code)
	}
	if got := resp.Header().Get("Access-Control-Allow-Methods"); !containsHeader(got, http.MethodPost) {
		t.Fatalf("expected Access-Control-Allow-Methods to contain POST, got %q", got)
	}
	allowHeaders := resp.Header().Get("Access-Control-Allow-Headers")
	for _, name := range []string{"Content-Type", "X-Custom-Thing", "traceparent"} {
		if !containsHeader(allowHeaders, name) {
			t.Fatalf("expected Access-Control-Allow-Headers to contain %q, got %q", name, allowHeaders)
		}
	}
}

func TestCORSRestrictedOrigins(t *testing.T) {
	h := CORS("https://app.example")(okHandler())

	tests := []struct {
		origin string
		want   string
	}{
		{"https://app.example", "https://app.example"},
		{"https://evil.example", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "http://localhost/test/hello", nil)
		req.Header.Set("Origin", tt.origin)
		resp := httptest.NewRecorder()
		h.ServeHTTP(resp, req)

		if got := resp.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
			t.Errorf("origin %s: expected Access-Control-Allow-Origin %q, got %q", tt.origin, tt.want, got)
		}
	}
}

func TestRequestIDGeneratesUUIDv4(t *testing.T) {
	var ctxID string
	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = chimiddleware.GetReqID(r.Context())
	}))

	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/test/hello", nil))

	headerID := resp.Header().Get(chimiddleware.RequestIDHeader)
	parsed, err := uuid.Parse(headerID)
	if err != nil {
		t.Fatalf("expected UUID request ID, got %q: %v", headerID, err)
	}
	if parsed.Version() != 4 {
		t.Fatalf("expected UUIDv4, got version %d", parsed.Version())
	}
	if ctxID != headerID {
		t.Fatalf("expected context ID %q to match header %q", ctxID, headerID)
	}
}

func TestRequestIDPreservesValidIncomingHeader(t *testing.T) {
	var ctxID string
	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = chimiddleware.GetReqID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/test/hello", nil)
	req.Header.Set(chimiddleware.RequestIDHeader, "client-id-42")
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)

	if ctxID != "client-id-42" {
		t.Fatalf("expected incoming request ID to be reused, got %q", ctxID)
	}
	if got := resp.Header().Get(chimiddleware.RequestIDHeader); got != "client-id-42" {
		t.Fatalf("expected response header to echo request ID, got %q", got)
	}
}

func TestRequestIDReplacesInvalidHeaders(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"newline injection", "abc\ninjected"},
		{"tab", "abc\tdef"},
		{"delete char", "abc\x7f"},
		{"high byte", "caf\xc3\xa9"},
		{"too long", strings.Repeat("a", maxRequestIDLength+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := RequestID()(okHandler())
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(chimiddleware.RequestIDHeader, tt.value)
			resp := httptest.NewRecorder()
			h.ServeHTTP(resp, req)

			got := resp.Header().Get(chimiddleware.RequestIDHeader)
			if got == tt.value {
				t.Fatalf("expected invalid request ID to be replaced")
			}
			if _, err := uuid.Parse(got); err != nil {
				t.Fatalf("expected generated UUID, got %q", got)
			}
		})
	}
}

func TestIsValidRequestIDBoundaries(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"", false},
		{" ", true},
		{"~", true},
		{"\x1f", false},
		{strings.Repeat("x", maxRequestIDLength), true},
		{strings.Repeat("x", maxRequestIDLength+1), false},
		{"00-ab42124a3c573678d4d8b21ba52df3bf-d21f7bc17caa5aba-01", true},
	}
	for _, tt := range tests {
		if got := isValidRequestID(tt.id); got != tt.want {
			t.Errorf("isValidRequestID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestSecurityMiddlewareSetsHeaders(t *testing.T) {
	resp := httptest.NewRecorder()
	Security()(okHandler()).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/test/hello", nil))

	tests := []struct {
		header string
		want   string
	}{
		{"Cache-Control", "no-store"},
		{"Content-Security-Policy", "frame-ancestors 'none'"},
		{"Cross-Origin-Opener-Policy", "same-origin"},
		{"Cross-Origin-Resource-Policy", "same-origin"},
		{
			"Permissions-Policy",
			"accelerometer=(), camera=(), geolocation=(), gyroscope=(), magnetometer=(), microphone=(), payment=(), usb=()",
		},
		{"Referrer-Policy", "strict-origin-when-cross-origin"},
		{"X-Content-Type-Options", "nosniff"},
		{"X-Frame-Options", "DENY"},
	}
	for _, tt := range tests {
		if got := resp.Header().Get(tt.header); got != tt.want {
			t.Errorf("%s: expected %q, got %q", tt.header, tt.want, got)
		}
	}
}

func TestSecurityMiddlewareSkipsExcludedPaths(t *testing.T) {
	h := Security("/api-docs", "/openapi")(okHandler())

	tests := []struct {
		path        string
		wantHeaders bool
	}{
		{"/api-docs", false},
		{"/api-docs/", false},
		{"/openapi.json", false},
		{"/test/hello", true},
		{"/health", true},
	}
	for _, tt := range tests {
		resp := httptest.NewRecorder()
		h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, tt.path, nil))

		hasHeaders := resp.Header().Get("X-Content-Type-Options") == "nosniff"
		if hasHeaders != tt.wantHeaders {
			t.Errorf("%s: expected headers=%v, got headers=%v", tt.path, tt.wantHeaders, hasHeaders)
		}
	}
}

func TestVaryMiddlewareSetsHeader(t *testing.T) {
	h := Vary()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-Custom", "value")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("test body"))
	}))

	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health", nil))

	if got := resp.Header().Get("Vary"); got != "Accept" {
		t.Fatalf("expected Vary: Accept, got %q", got)
	}
	if resp.Code != http.StatusCreated || resp.Body.String() != "test body" {
		t.Fatalf("expected downstream response to be preserved, got %d %q", resp.Code, resp.Body.String())
	}
	if resp.Header().Get("X-Custom") != "value" {
		t.Fatal("expected X-Custom header to be preserved")
	}
}
