// Package httpapi is the HTTP transport over internal/executor and
// internal/operations: a chi router exposing the endpoints from
// spec.md §6, JSON request/response bodies, request-id and access-log
// middleware, and the status-code mapping from spec.md §7.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/lirsacc/crible/internal/executor"
	"github.com/lirsacc/crible/internal/metrics"
)

// Server wires an Executor into an http.Handler.
type Server struct {
	ex  *executor.Executor
	log *logrus.Logger
}

// New builds the router. It mounts every endpoint from spec.md §6 plus
// the supplemented POST /query/bitmap handler.
func New(ex *executor.Executor, log *logrus.Logger) http.Handler {
	s := &Server{ex: ex, log: log}

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(requestID)
	r.Use(s.accessLog)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	}))

	r.Get("/", s.handleHome)
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	r.Post("/query", s.handleQuery)
	r.Post("/query/bitmap", s.handleQueryBitmap)
	r.Post("/count", s.handleCount)
	r.Get("/stats", s.handleStats)
	r.Post("/set", s.handleSet)
	r.Post("/set-many", s.handleSetMany)
	r.Post("/unset", s.handleUnset)
	r.Post("/unset-many", s.handleUnsetMany)
	r.Post("/get-bit", s.handleGetBit)
	r.Post("/set-bit", s.handleSetBit)
	r.Post("/delete-bits", s.handleDeleteBits)

	return r
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("Crible Server"))
}

const writeTimeout = 30 * time.Second
