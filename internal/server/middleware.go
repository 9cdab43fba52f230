package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/pagoda/internal/common"
)

// middleware decorates a handler.
type middleware func(http.Handler) http.Handler

// chain applies mws so that the first one listed sees the request first.
func chain(h http.Handler, mws ...middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// applyMiddleware wraps the API mux with the server's standard stack.
func applyMiddleware(handler http.Handler, logger *common.Logger) http.Handler {
	return chain(handler,
		correlationIDMiddleware,
		recoveryMiddleware(logger),
		corsMiddleware,
		loggingMiddleware(logger),
	)
}

// statusRecorder remembers the status and body size a handler produced.
type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	n, err := s.ResponseWriter.Write(b)
	s.size += n
	return n, err
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// recoveryMiddleware turns a handler panic into a 500 envelope carrying the
// correlation ID so the client can quote it.
func recoveryMiddleware(logger *common.Logger) middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				ref := common.CorrelationIDFromContext(r.Context())
				logger.Error().
					Str("panic", fmt.Sprint(rec)).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Str("correlation_id", ref).
					Msg("Handler panicked")
				msg := "Internal server error"
				if ref != "" {
					msg += " (ref " + ref + ")"
				}
				WriteError(w, http.StatusInternalServerError, msg)
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// corsMiddleware opens the API to the mini-program and browser clients and
// answers preflight requests directly.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID, X-Correlation-ID")
		h.Set("Access-Control-Expose-Headers", "X-Correlation-ID")

		if r.Method == http.MethodOptions {
			h.Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// correlationIDMiddleware takes X-Request-ID or X-Correlation-ID from the
// client, or mints a short one, and echoes it back.
func correlationIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := firstHeader(r, "X-Request-ID", "X-Correlation-ID")
		if id == "" {
			id = uuid.NewString()[:8]
		}
		w.Header().Set("X-Correlation-ID", id)
		next.ServeHTTP(w, r.WithContext(common.WithCorrelationID(r.Context(), id)))
	})
}

func firstHeader(r *http.Request, names ...string) string {
	for _, name := range names {
		if v := r.Header.Get(name); v != "" {
			return v
		}
	}
	return ""
}

// loggingMiddleware writes one line per request. Server errors log at error
// level, client errors at info, the rest at debug. Uploads also record the
// declared body size.
func loggingMiddleware(logger *common.Logger) middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			event := logger.Debug()
			switch {
			case rec.status >= 500:
				event = logger.Error()
			case rec.status >= 400:
				event = logger.Info()
			}
			if r.ContentLength > 0 {
				event = event.Int64("upload_bytes", r.ContentLength)
			}
			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("query", r.URL.RawQuery).
				Int("status", rec.status).
				Int("bytes", rec.size).
				Dur("duration", time.Since(start)).
				Str("correlation_id", common.CorrelationIDFromContext(r.Context())).
				Msg("HTTP request")
		})
	}
}
