// Package reqctx carries per-request identity through a context: an id, a
// start time and a zerolog logger tagged with that id.
package reqctx

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type key int

const requestKey key = 0

// HeaderName is the HTTP header used to propagate request ids.
const HeaderName = "X-Request-ID"

// RequestContext identifies one request.
type RequestContext struct {
	RequestID string
	StartTime time.Time
}

// WithRequestContext attaches a request context to ctx. An empty id is
// replaced by a new UUID. The context also gets a logger carrying the id,
// retrievable with zerolog.Ctx.
func WithRequestContext(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.NewString()
	}
	rc := &RequestContext{RequestID: id, StartTime: time.Now()}
	ctx = context.WithValue(ctx, requestKey, rc)

	logger := log.Logger.With().Str("request_id", id).Logger()
	return logger.WithContext(ctx)
}

// GetRequestContext returns the request context, or a placeholder when ctx
// carries none.
func GetRequestContext(ctx context.Context) *RequestContext {
	if rc, ok := ctx.Value(requestKey).(*RequestContext); ok {
		return rc
	}
	return &RequestContext{RequestID: "unknown", StartTime: time.Now()}
}

// Logger returns the request-scoped logger, falling back to the global one.
func Logger(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		return &log.Logger
	}
	return l
}

// Elapsed returns the time since the request started.
func Elapsed(ctx context.Context) time.Duration {
	return time.Since(GetRequestContext(ctx).StartTime)
}

// RequestError wraps an error with request context
type RequestError struct {
	RequestID string
	Err       error
}

// Error implements the error interface
func (e *RequestError) Error() string {
	return fmt.Sprintf("[%s] %v", e.RequestID, e.Err)
}

// Unwrap returns the underlying error
func (e *RequestError) Unwrap() error {
	return e.Err
}

// NewRequestError creates a new RequestError from context
func NewRequestError(ctx context.Context, err error) error {
	return &RequestError{
		RequestID: GetRequestContext(ctx).RequestID,
		Err:       err,
	}
}
