// Package server exposes a [pipeline.Session] over HTTP.
//
// Routes:
//
//	GET  /pedigree     current document (JSON)
//	PUT  /pedigree     replace the document
//	POST /operations   apply one operation or a batch
//	GET  /layout       computed coordinates and connectors
//	GET  /risks        risk map per individual
//	GET  /report       plain-text risk report
//	GET  /render       DOT or SVG drawing (?format=svg&labels=1&risks=1)
//	GET  /documents    stored document IDs (when a store is configured)
//	GET  /healthz      liveness and build info
//	GET  /metrics      Prometheus metrics (when configured)
//
// Rejected operations answer 409 for structural preconditions, 404 for
// unknown individuals and 400 for invalid input, with a {code, message}
// body. The session is unchanged after any rejection.
package server

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/pedigree/pkg/config"
	"github.com/matzehuels/pedigree/pkg/pipeline"
	"github.com/matzehuels/pedigree/pkg/store"
)

// DefaultMaxBodyBytes caps request bodies.
const DefaultMaxBodyBytes = 4 << 20

// Options configures a [Server].
type Options struct {
	// Store and Document, when both set, persist the session after every
	// successful change.
	Store    store.Store
	Document string

	// Metrics is served on /metrics when non-nil.
	Metrics http.Handler

	Logger       *log.Logger
	MaxBodyBytes int64

	// Now stamps reports. Defaults to time.Now.
	Now func() time.Time
}

// Server is the HTTP API over one session.
type Server struct {
	session *pipeline.Session
	opts    Options
	router  chi.Router
}

// New builds the router for session.
func New(session *pipeline.Session, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if opts.MaxBodyBytes == 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Server{session: session, opts: opts}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.opts.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequestSize(s.opts.MaxBodyBytes))
		r.Get("/pedigree", s.handleGetPedigree)
		r.Put("/pedigree", s.handlePutPedigree)
		r.Post("/operations", s.handleOperations)
		r.Get("/layout", s.handleLayout)
		r.Get("/risks", s.handleRisks)
		r.Get("/report", s.handleReport)
		r.Get("/render", s.handleRender)
		r.Get("/documents", s.handleDocuments)
	})
	return r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Restore loads the configured document from the store into the session.
// A missing document leaves the session empty.
func (s *Server) Restore(ctx context.Context) error {
	if s.opts.Store == nil || s.opts.Document == "" {
		return nil
	}
	p, err := store.Load(ctx, s.opts.Store, s.opts.Document)
	if stderrors.Is(err, store.ErrNotFound) {
		s.opts.Logger.Info("starting with an empty pedigree", "document", s.opts.Document)
		return nil
	}
	if err != nil {
		return err
	}
	if _, err := s.session.Load(ctx, p); err != nil {
		return err
	}
	s.opts.Logger.Info("restored document", "document", s.opts.Document, "individuals", p.Len())
	return nil
}

// persist saves the session to the store. It reports whether it did.
func (s *Server) persist(ctx context.Context) bool {
	if s.opts.Store == nil || s.opts.Document == "" {
		return false
	}
	if err := store.Save(ctx, s.opts.Store, s.opts.Document, s.session.Snapshot()); err != nil {
		s.opts.Logger.Error("save failed", "document", s.opts.Document, "err", err)
		return false
	}
	return true
}

// ListenAndServe serves until ctx is cancelled, then shuts down
// gracefully within cfg.ShutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, cfg config.ServerConfig) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      s,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.opts.Logger.Info("listening", "addr", cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	s.opts.Logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

// logRequests logs one line per request at debug level, and at warn
// level for server errors.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		logf := s.opts.Logger.Debug
		if ww.Status() >= http.StatusInternalServerError {
			logf = s.opts.Logger.Warn
		}
		logf("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
