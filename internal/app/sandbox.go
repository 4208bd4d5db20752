package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/utafrali/EcommerceGo/storefront/internal/config"
	"github.com/utafrali/EcommerceGo/storefront/internal/sandbox"
	"github.com/utafrali/EcommerceGo/storefront/pkg/health"
	"github.com/utafrali/EcommerceGo/storefront/pkg/tracing"
)

// Sandbox serves the in-memory e-commerce API for local development.
type Sandbox struct {
	logger         *slog.Logger
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewSandbox builds the sandbox API server on cfg.SandboxHTTPPort.
func NewSandbox(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Sandbox, error) {
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    sandbox.ServiceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	store := sandbox.NewStore()

	healthHandler := health.NewHandler()
	healthHandler.Register("catalog", func(context.Context) error {
		if len(store.Products()) == 0 {
			return errors.New("catalog is empty")
		}
		return nil
	})

	return &Sandbox{
		logger: logger,
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.SandboxHTTPPort),
			Handler:           sandbox.NewRouter(store, healthHandler, logger),
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
			ReadHeaderTimeout: 10 * time.Second,
		},
		tracerShutdown: tracerShutdown,
	}, nil
}

// Addr is the listen address of the sandbox server.
func (s *Sandbox) Addr() string {
	return s.httpServer.Addr
}

// Run starts the HTTP server and blocks until the context is canceled.
func (s *Sandbox) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("starting sandbox API server",
			slog.String("addr", s.httpServer.Addr),
			slog.String("base_path", sandbox.BasePath),
		)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return s.Shutdown()
}

// Shutdown drains in-flight requests, then flushes pending spans.
func (s *Sandbox) Shutdown() error {
	s.logger.Info("shutting down sandbox...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := s.httpServer.Shutdown(httpCtx); err != nil {
		s.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer tracerCancel()
	if err := s.tracerShutdown(tracerCtx); err != nil {
		s.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	s.logger.Info("sandbox shutdown complete")
	return errors.Join(errs...)
}
