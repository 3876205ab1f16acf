package context

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// TraceContext identifies a request across logs and spans.
type TraceContext struct {
	TraceID   string
	SpanID    string
	RequestID string
}

type traceKey struct{}

// NewTraceContext takes the ids of an active span. Without a recording
// tracer it falls back to the caller supplied trace id, then to random ids.
func NewTraceContext(sc trace.SpanContext, requestID, fallbackTraceID string) *TraceContext {
	tc := &TraceContext{RequestID: requestID}
	if sc.IsValid() {
		tc.TraceID = sc.TraceID().String()
		tc.SpanID = sc.SpanID().String()
		return tc
	}
	tc.TraceID = fallbackTraceID
	if tc.TraceID == "" {
		tc.TraceID = uuid.NewString()
	}
	tc.SpanID = uuid.NewString()[:16]
	return tc
}

// WithTrace stores the trace ids on ctx.
func WithTrace(ctx context.Context, tc *TraceContext) context.Context {
	return context.WithValue(ctx, traceKey{}, tc)
}

// GetTrace returns the trace ids, or nil outside a request.
func GetTrace(ctx context.Context) *TraceContext {
	tc, _ := ctx.Value(traceKey{}).(*TraceContext)
	return tc
}

// LogFields returns the key/value pairs that tie a log line to its request
// and owner.
func LogFields(ctx context.Context) []any {
	var kv []any
	if tc := GetTrace(ctx); tc != nil {
		kv = append(kv, "trace_id", tc.TraceID, "request_id", tc.RequestID)
	}
	if u := GetUser(ctx); u != nil {
		kv = append(kv, "user_id", u.UserID, "owner_id", GetOwnerID(ctx))
	}
	return kv
}
