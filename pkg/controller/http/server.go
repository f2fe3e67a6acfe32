package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/caseops-lab/argus/pkg/usecase"
	"github.com/caseops-lab/argus/pkg/utils/logging"
)

// Pinger reports backend reachability for the health endpoint
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	router  *chi.Mux
	uc      *usecase.UseCases
	pinger  Pinger
	version string
}

type Options func(*Server)

// WithPinger attaches a backend reachability check to GET /health
func WithPinger(p Pinger) Options {
	return func(s *Server) {
		s.pinger = p
	}
}

// WithVersion sets the build version reported by the service info endpoint
func WithVersion(v string) Options {
	return func(s *Server) {
		s.version = v
	}
}

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router:  r,
		uc:      uc,
		version: "dev",
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleServiceInfo)
	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Post("/insights", s.handleGenerateInsights)
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
