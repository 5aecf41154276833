package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// observe logs and counts every routed request.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		if s.metrics != nil {
			s.metrics.RequestServed(route, rec.status)
		}
		s.logger.Info("request",
			"method", r.Method,
			"route", route,
			"principal", r.Header.Get(PrincipalHeader),
			"status", rec.status,
			"duration", s.now().Sub(start),
			"remote_addr", r.RemoteAddr,
		)
	})
}

// throttle applies the per-caller rate limit. Anonymous requests are keyed
// by remote address.
func (s *Server) throttle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(PrincipalHeader)
		if key == "" {
			key = r.RemoteAddr
		}
		if !s.limiter.allow(key, s.now()) {
			if s.metrics != nil {
				s.metrics.RequestLimited()
			}
			writeError(w, http.StatusTooManyRequests, errorBody{
				Code:    "RATE_LIMITED",
				Message: "too many requests",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
