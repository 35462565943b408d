package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"git.home.luguber.info/inful/tailzen/internal/convert"
	derrors "git.home.luguber.info/inful/tailzen/internal/foundation/errors"
	"git.home.luguber.info/inful/tailzen/internal/metrics"
	smw "git.home.luguber.info/inful/tailzen/internal/server/middleware"
	"git.home.luguber.info/inful/tailzen/internal/source"
)

const (
	defaultRequestTimeout = 2 * time.Minute
	shutdownTimeout       = 10 * time.Second
	maxRequestBody        = 64 << 10
)

// Converter is the conversion entry point the API needs.
type Converter interface {
	Convert(ctx context.Context, ref source.RepositoryRef) (convert.Result, error)
}

// Options configures the HTTP API.
type Options struct {
	Address string
	// RequestTimeout bounds a single conversion.
	RequestTimeout time.Duration
	// Registry is served on /metrics when non-nil.
	Registry *prometheus.Registry
	Logger   *slog.Logger
	// Now is used for uptime reporting.
	Now func() time.Time
}

// Server wires handlers, middleware and the underlying http.Server.
type Server struct {
	converter    Converter
	opts         Options
	logger       *slog.Logger
	errorAdapter *derrors.HTTPErrorAdapter
	started      time.Time
	httpServer   *http.Server
}

// New constructs the API server. It does not start listening.
func New(converter Converter, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Server{
		converter:    converter,
		opts:         opts,
		logger:       opts.Logger,
		errorAdapter: derrors.NewHTTPErrorAdapter(opts.Logger),
		started:      opts.Now(),
	}
	s.httpServer = &http.Server{
		Addr:              opts.Address,
		Handler:           h2c.NewHandler(s.Handler(), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/convert", s.handleConvert)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.opts.Registry != nil {
		mux.Handle("GET /metrics", metrics.HTTPHandler(s.opts.Registry))
	}
	return smw.Chain(s.logger, s.errorAdapter)(mux)
}

// Start listens on the configured address and serves until ctx is done,
// then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.opts.Address)
	if err != nil {
		return derrors.NetworkError("failed to bind API address").
			WithCause(err).
			WithContext("address", s.opts.Address).
			Fatal().
			Build()
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("API server started", slog.String("address", ln.Addr().String()))
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return derrors.RuntimeError("API server shutdown failed").WithCause(err).Build()
	}
	s.logger.Info("API server stopped")
	return nil
}
