// Package httpapi assembles the HTTP surface: public health and metrics
// routes, and the authenticated API routes contributed by each package.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flosslyDevs/ToothMatch/internal/auth"
	"github.com/flosslyDevs/ToothMatch/internal/logger"
	"github.com/flosslyDevs/ToothMatch/internal/metrics"
)

// RouteRegistrar mounts routes on a mux.
type RouteRegistrar interface {
	RegisterRoutes(mux *http.ServeMux)
}

// Options describes the service for /health.
type Options struct {
	Service string
	Version string
}

// New returns the root handler. Every route other than /health and /metrics
// requires an identity from authn.
func New(authn *auth.Authenticator, log logger.Logger, opts Options, registrars ...RouteRegistrar) http.Handler {
	api := http.NewServeMux()
	for _, r := range registrars {
		r.RegisterRoutes(api)
	}

	root := http.NewServeMux()
	root.HandleFunc("GET /health", healthHandler(opts))
	root.Handle("GET /metrics", promhttp.Handler())
	root.Handle("/", requireIdentity(authn, api))

	return recoverer(log, instrument(log, root))
}

func healthHandler(opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status":  "ok",
			"service": opts.Service,
			"version": opts.Version,
		})
	}
}

// ─── Middleware ──────────────────────────────────────────────────────────────

// requireIdentity authenticates the request and stores the identity on its
// context. Failures are answered with 401.
func requireIdentity(authn *auth.Authenticator, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := authn.Authenticate(r)
		if err != nil {
			msg := "Invalid or expired token"
			if errors.Is(err, auth.ErrMissingToken) {
				msg = "No token provided"
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"message": msg, "code": "NOT_AUTHENTICATED"})
			return
		}
		inner := r.WithContext(auth.WithIdentity(r.Context(), id))
		next.ServeHTTP(w, inner)
		// expose the matched API pattern to instrument
		r.Pattern = inner.Pattern
	})
}

// instrument records request duration by route pattern and logs each request.
func instrument(log logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Observe(elapsed.Seconds())

		fields := map[string]interface{}{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": elapsed.String(),
		}
		if rec.status >= http.StatusInternalServerError {
			log.Warn("http request", fields)
		} else {
			log.Debug("http request", fields)
		}
	})
}

func recoverer(log logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				if p == http.ErrAbortHandler {
					panic(p)
				}
				log.Error("panic serving request", map[string]interface{}{
					"path":  r.URL.Path,
					"panic": fmt.Sprint(p),
					"stack": string(debug.Stack()),
				})
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(map[string]string{"message": "internal server error", "code": "INTERNAL_ERROR"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if !s.wroteHeader {
		s.status = code
		s.wroteHeader = true
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	s.wroteHeader = true
	return s.ResponseWriter.Write(b)
}

func (s *statusRecorder) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }
