package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/janisto/hello-service/internal/config"
	"github.com/janisto/hello-service/internal/http/v1/hello"
	"github.com/janisto/hello-service/internal/http/v1/routes"
	applog "github.com/janisto/hello-service/internal/platform/logging"
	"github.com/janisto/hello-service/internal/platform/metrics"
	appmiddleware "github.com/janisto/hello-service/internal/platform/middleware"
	"github.com/janisto/hello-service/internal/platform/respond"
)

// Version can be overridden at build time: -ldflags "-X main.Version=1.2.3"
var Version = "dev"

const (
	docsPath    = "/api-docs"
	metricsPath = "/metrics"
)

func main() {
	defer func() {
		if err := applog.Sync(); err != nil {
			applog.LogError(context.Background(), "logger sync error", err)
		}
	}()
	if err := applog.Err(); err != nil {
		applog.LogError(context.Background(), "logger init error", err)
	}

	if err := run(); err != nil {
		applog.LogError(context.Background(), "server failed", err)
		_ = applog.Sync()
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := applog.SetLevel(cfg.LogLevel); err != nil {
		return err
	}
	applog.LogInfo(context.Background(), "configuration loaded",
		zap.String("environment", cfg.Environment),
		zap.Stringer("logLevel", applog.Level()),
		zap.Bool("metrics", cfg.MetricsEnabled),
	)
	respond.Install()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	srv := newServer(cfg, newHandler(cfg, reg))
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", srv.Addr, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return serve(ctx, srv, ln, cfg.ShutdownTimeout)
}

// newHandler builds the router with the full middleware chain and all routes.
func newHandler(cfg *config.Config, reg *prometheus.Registry) http.Handler {
	router := chi.NewRouter()
	router.NotFound(respond.NotFoundHandler())
	router.MethodNotAllowed(respond.MethodNotAllowedHandler())

	stack := []func(http.Handler) http.Handler{
		appmiddleware.Security(docsPath),
		appmiddleware.Vary(),
		appmiddleware.CORS(cfg.CORSAllowedOrigins...),
		appmiddleware.RequestID(),
		// RealIP trusts X-Forwarded-For; only run behind a trusted proxy such as Cloud Run.
		chimiddleware.RealIP,
		chimiddleware.RequestSize(cfg.MaxBodyBytes),
		applog.RequestLogger(cfg.ProjectID),
		applog.AccessLogger(),
	}
	var httpMetrics *metrics.HTTP
	if cfg.MetricsEnabled {
		httpMetrics = metrics.New(reg)
		stack = append(stack, httpMetrics.Middleware())
	}
	stack = append(stack, respond.Recoverer())
	router.Use(stack...)

	if httpMetrics != nil {
		router.Method(http.MethodGet, metricsPath, httpMetrics.Handler())
	}

	api := humachi.New(router, apiConfig(cfg))
	api.OpenAPI().OnAddOperation = append(api.OpenAPI().OnAddOperation, addCBORContent)
	routes.Register(api)

	return router
}

// apiConfig serves the OpenAPI document, docs UI and schemas only in development.
func apiConfig(cfg *config.Config) huma.Config {
	hc := huma.DefaultConfig("Hello Service API", Version)
	if cfg.IsDevelopment() {
		hc.DocsPath = docsPath
		return hc
	}
	hc.DocsPath = ""
	hc.OpenAPIPath = ""
	hc.SchemasPath = ""
	// DefaultConfig installs the $schema link transformer through a create hook;
	// both go so responses never link to the unserved schemas route.
	hc.Transformers = nil
	hc.CreateHooks = nil
	return hc
}

// addCBORContent documents CBOR alongside JSON for negotiated responses.
func addCBORContent(_ *huma.OpenAPI, op *huma.Operation) {
	if _, fixed := op.Metadata[hello.MetadataFixedContentType]; fixed {
		return
	}
	if op.RequestBody != nil && op.RequestBody.Content != nil {
		if jsonContent, ok := op.RequestBody.Content["application/json"]; ok {
			op.RequestBody.Content["application/cbor"] = jsonContent
		}
	}
	for _, resp := range op.Responses {
		if resp.Content == nil {
			continue
		}
		if jsonContent, ok := resp.Content["application/json"]; ok {
			resp.Content["application/cbor"] = jsonContent
		}
	}
}

func newServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    64 << 10, // 64 KB
	}
}

// serve runs srv on ln until ctx is done, then drains in-flight requests
// within shutdownTimeout.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, shutdownTimeout time.Duration) error {
	listenErr := make(chan error, 1)
	go func() {
		applog.LogInfo(context.Background(), "server listening",
			zap.String("addr", ln.Addr().String()),
			zap.String("version", Version),
		)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
		applog.LogInfo(context.Background(), "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	applog.LogInfo(context.Background(), "server exited")
	return nil
}
