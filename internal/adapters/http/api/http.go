// Package api exposes the detection service over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/vigil/internal/app"
	"github.com/okian/vigil/internal/domain/ensemble"
	"github.com/okian/vigil/internal/domain/model"
	"github.com/okian/vigil/pkg/logger"
	"github.com/okian/vigil/pkg/metrics"
)

const defaultAddr = ":9090"

// Dependencies is what the handlers need from the application layer.
type Dependencies interface {
	Score(ctx context.Context, txn model.Transaction) (model.ScoringResult, error)
	ScoreBatch(ctx context.Context, txns []model.Transaction) ([]app.BatchItem, error)
	Enqueue(txn model.Transaction) error
	Stats(ctx context.Context) model.Stats
	Reconfigure(cfg ensemble.Config) error
	EnsembleConfig() ensemble.Config
}

// Server hosts the HTTP surface.
type Server struct {
	deps Dependencies
	addr string
	srv  *http.Server
	log  logger.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(s *Server) {
		if addr != "" {
			s.addr = addr
		}
	}
}

// NewServer builds the server and its routes.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps: deps,
		addr: defaultAddr,
		log:  logger.Named("api"),
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /score", s.withMetrics("/score", s.handleScore))
	mux.HandleFunc("POST /score/batch", s.withMetrics("/score/batch", s.handleScoreBatch))
	mux.HandleFunc("POST /transactions", s.withMetrics("/transactions", s.handleSubmit))
	mux.HandleFunc("GET /stats", s.withMetrics("/stats", s.handleStats))
	mux.HandleFunc("GET /config", s.withMetrics("/config", s.handleGetConfig))
	mux.HandleFunc("PUT /config", s.withMetrics("/config", s.handlePutConfig))
	mux.HandleFunc("GET /healthz", s.withMetrics("/healthz", s.handleHealth))
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))

	s.srv = &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Start serves until Stop is called. It returns when the listener closes.
func (s *Server) Start() error {
	s.log.Info(context.Background(), "http server listening", logger.String("addr", s.addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
