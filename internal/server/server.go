// internal/server/server.go
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"finregx-backend/internal/common/config"
	stderrors "finregx-backend/internal/common/errors"
	"finregx-backend/internal/common/logger"
	"finregx-backend/internal/notify"
	"finregx-backend/internal/pipeline"
	"finregx-backend/internal/store"
)

// Server exposes the assessment API. Uploads run the pipeline synchronously
// inside the request, so the write timeout must stay above the pipeline
// deadline.
type Server struct {
	cfg      *config.Config
	log      logger.Logger
	store    *store.AssessmentStore
	docs     *store.DocumentStore
	runner   *pipeline.Runner
	notifier *notify.Notifier
	errs     *stderrors.ErrorHandler

	httpServer *http.Server
}

func New(cfg *config.Config, log logger.Logger, assessments *store.AssessmentStore, docs *store.DocumentStore, runner *pipeline.Runner, notifier *notify.Notifier) *Server {
	s := &Server{
		cfg:      cfg,
		log:      log,
		store:    assessments,
		docs:     docs,
		runner:   runner,
		notifier: notifier,
		errs:     stderrors.NewErrorHandler(log),
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      s.routes(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Millisecond,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/", s.handleIndex)
	mux.HandleFunc("POST /api/assessments", s.handleCreate)
	mux.HandleFunc("GET /api/assessments", s.handleList)
	mux.HandleFunc("GET /api/assessments/{id}", s.handleGet)
	mux.HandleFunc("POST /api/assessments/{id}/upload", s.handleUpload)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}

// Handler returns the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	s.log.Info("http server listening", map[string]interface{}{
		"addr": s.httpServer.Addr,
	})
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
