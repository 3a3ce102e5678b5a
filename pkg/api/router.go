package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/nodeio/pkg/observability"
	"github.com/matzehuels/nodeio/pkg/pipeline"
)

// MaxBodyBytes bounds request bodies.
const MaxBodyBytes = 32 << 20

// NewRouter returns the API handler backed by runner.
func NewRouter(runner *pipeline.Runner) http.Handler {
	s := &server{runner: runner}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(observe)

	r.Get("/healthz", s.health)
	r.Route("/v1", func(r chi.Router) {
		r.Use(limitBody(MaxBodyBytes))
		r.Post("/inspect", s.inspect)
		r.Post("/validate", s.validate)
		r.Post("/render", s.render)
	})
	return r
}

type server struct {
	runner *pipeline.Runner
}

// observe reports every request to the server hooks.
func observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		observability.Server().OnRequest(r.Context(), r.Method, r.URL.Path)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		observability.Server().OnResponse(r.Context(), r.Method, r.URL.Path, status, time.Since(start))
	})
}

func limitBody(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, n)
			next.ServeHTTP(w, r)
		})
	}
}
