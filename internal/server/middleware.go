package server

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"blog/internal/logger"
	"blog/internal/metrics"
)

const requestIDHeader = "X-Request-ID"

type ctxKey int

const (
	requestIDKey ctxKey = iota
	usernameKey
)

// requestID tags each request with the client's X-Request-ID or a new one.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func requestLogger(r *http.Request) *slog.Logger {
	id, _ := r.Context().Value(requestIDKey).(string)
	return logger.WithRequestID(id)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Unwrap() http.ResponseWriter {
	return rec.ResponseWriter
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		requestLogger(r).Debug("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

// instrument must wrap the mux directly: the mux fills in r.Pattern, which
// is used as the route label.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		timer := metrics.NewTimer()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		if route == "GET /metrics" {
			return
		}
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		timer.ObserveDuration(metrics.HTTPRequestDuration.WithLabelValues(r.Method, route))
	})
}

// requireAdmin lets requests with a valid session cookie through and
// rotates the cookie when it is due. Others get 401 on API paths and a
// redirect to the login page elsewhere.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil {
			s.unauthorized(w, r)
			return
		}
		claims, err := s.Auth.Tokens.Verify(cookie.Value)
		if err != nil {
			s.unauthorized(w, r)
			return
		}
		if s.Auth.Rotator != nil {
			fresh, rotated, err := s.Auth.Rotator.Rotate(cookie.Value, claims)
			if err != nil {
				s.serverError(w, r, err)
				return
			}
			if rotated {
				s.setSessionCookie(w, fresh)
				metrics.TokenRotations.Inc()
			}
		}
		next(w, r.WithContext(context.WithValue(r.Context(), usernameKey, claims.Username)))
	}
}

func (s *Server) unauthorized(w http.ResponseWriter, r *http.Request) {
	if isAPI(r) {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
}

func isAPI(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/admin/api/")
}

func currentUser(r *http.Request) string {
	name, _ := r.Context().Value(usernameKey).(string)
	return name
}
