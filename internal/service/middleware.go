package service

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/law-makers/parscrape/internal/engine"
	"github.com/law-makers/parscrape/internal/reqctx"
)

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// withRequestID attaches a request context and echoes its id back.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := reqctx.WithRequestContext(r.Context(), r.Header.Get(reqctx.HeaderName))
		w.Header().Set(reqctx.HeaderName, reqctx.GetRequestContext(ctx).RequestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// withAccessLog logs one line per request with the request-scoped logger.
func withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		logger := reqctx.Logger(r.Context())
		event := logger.Info()
		if rec.status >= http.StatusInternalServerError {
			event = logger.Warn()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Int("bytes", rec.bytes).
			Dur("duration", time.Since(start)).
			Str("remote", r.RemoteAddr).
			Msg("HTTP request")
	})
}

// withRecovery turns a handler panic into a 500 response.
func withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				reqctx.Logger(r.Context()).Error().
					Interface("panic", v).
					Bytes("stack", debug.Stack()).
					Msg("Handler panicked")
				writeError(w, &Error{
					Status: http.StatusInternalServerError,
					Code:   engine.ErrCodeInternal,
					Detail: "Internal server error",
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
