// Package server exposes reconciliation over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cleared-dev/rollcheck/internal/errors"
	"github.com/cleared-dev/rollcheck/internal/logging"
	"github.com/cleared-dev/rollcheck/internal/pipeline"
)

// DefaultMaxUploadBytes caps a request body, JSON or multipart.
const DefaultMaxUploadBytes = 32 << 20

// Options configures a Server.
type Options struct {
	Pipeline           *pipeline.Pipeline
	RateLimitPerMinute int // 0 disables rate limiting
	MaxUploadBytes     int64
	Logger             *zerolog.Logger
}

// Server serves the reconciliation API.
type Server struct {
	pipeline  *pipeline.Pipeline
	rateLimit int
	maxUpload int64
	log       zerolog.Logger
}

// New creates a Server.
func New(opts Options) *Server {
	log := logging.Default()
	if opts.Logger != nil {
		log = opts.Logger
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	return &Server{
		pipeline:  opts.Pipeline,
		rateLimit: opts.RateLimitPerMinute,
		maxUpload: opts.MaxUploadBytes,
		log:       *log,
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.log))
	if s.rateLimit > 0 {
		r.Use(httprate.LimitByIP(s.rateLimit, time.Minute))
	}
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		render.JSON(w, req, map[string]any{"ok": true})
	})

	r.Route("/v1/reconcile", func(r chi.Router) {
		r.Post("/", s.handleReconcile)
		r.Post("/documents", s.handleDocuments)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Info().Str("addr", addr).Msg("rollcheck api listening")

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info().Msg("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func requestLogger(base zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-ID")
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", id)

			l := base.With().Str("request_id", id).Logger()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r.WithContext(logging.WithLogger(r.Context(), &l)))

			l.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("elapsed", time.Since(start)).
				Msg("request")
		})
	}
}
