package logging

import (
	"context"
	"log/slog"
	"sync"
)

// Context keys for common log fields.
type contextKey string

const (
	// RequestIDKey is the context key for request IDs.
	RequestIDKey contextKey = "request_id"

	// UserKey is the context key for the authenticated user.
	UserKey contextKey = "user"

	// SessionKey is the context key for session identifiers.
	SessionKey contextKey = "session"
)

// contextFields lists the keys copied from a context into log records, in
// output order.
var contextFields = []contextKey{RequestIDKey, UserKey, SessionKey}

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	annotate(ctx, RequestIDKey, requestID)
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	return getString(ctx, RequestIDKey)
}

// WithUser adds a user name to the context.
func WithUser(ctx context.Context, user string) context.Context {
	annotate(ctx, UserKey, user)
	return context.WithValue(ctx, UserKey, user)
}

// GetUser retrieves the user name from the context.
func GetUser(ctx context.Context) string {
	return getString(ctx, UserKey)
}

// WithSession adds a session identifier to the context. Only a short prefix
// should be stored; the full token is a credential.
func WithSession(ctx context.Context, session string) context.Context {
	annotate(ctx, SessionKey, session)
	return context.WithValue(ctx, SessionKey, session)
}

// GetSession retrieves the session identifier from the context.
func GetSession(ctx context.Context) string {
	return getString(ctx, SessionKey)
}

func getString(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// Annotations records the context fields set further down a handler chain,
// so that a middleware logging after the handler returns can include them.
type Annotations struct {
	mu     sync.Mutex
	fields map[contextKey]string
}

type annotationsKey struct{}

// WithAnnotations returns ctx carrying a new Annotations. Fields later added
// with WithRequestID, WithUser or WithSession on a derived context are
// recorded in it.
func WithAnnotations(ctx context.Context) (context.Context, *Annotations) {
	a := &Annotations{fields: make(map[contextKey]string)}
	return context.WithValue(ctx, annotationsKey{}, a), a
}

// Context returns ctx with every recorded field applied.
func (a *Annotations) Context(ctx context.Context) context.Context {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, key := range contextFields {
		if v, ok := a.fields[key]; ok {
			ctx = context.WithValue(ctx, key, v)
		}
	}
	return ctx
}

func annotate(ctx context.Context, key contextKey, value string) {
	if ctx == nil {
		return
	}
	a, ok := ctx.Value(annotationsKey{}).(*Annotations)
	if !ok {
		return
	}
	a.mu.Lock()
	a.fields[key] = value
	a.mu.Unlock()
}

// ContextHandler adds request-scoped context fields to each record.
type ContextHandler struct {
	next slog.Handler
}

// NewContextHandler wraps next.
func NewContextHandler(next slog.Handler) *ContextHandler {
	return &ContextHandler{next: next}
}

// Enabled implements slog.Handler.
func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *ContextHandler) Handle(ctx context.Context, rec slog.Record) error {
	for _, key := range contextFields {
		if v := getString(ctx, key); v != "" {
			rec.AddAttrs(slog.String(string(key), v))
		}
	}
	return h.next.Handle(ctx, rec)
}

// WithAttrs implements slog.Handler.
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{next: h.next.WithAttrs(attrs)}
}

// WithGroup implements slog.Handler.
func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{next: h.next.WithGroup(name)}
}
