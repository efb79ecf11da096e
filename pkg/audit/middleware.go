package audit

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// IdentityFunc resolves the authenticated actor for a request. It is
// supplied by the application's auth layer; this package performs no
// authentication of its own.
type IdentityFunc func(r *http.Request) (actorID, email, role, sessionID string)

// contextKey is the type for context keys
type contextKey string

const auditContextKey contextKey = "audit_context"

// WithContext attaches an audit context to a request context
func WithContext(ctx context.Context, c Context) context.Context {
	return context.WithValue(ctx, auditContextKey, c)
}

// ContextFrom retrieves the audit context from a request context, or a
// zero Context when none was attached.
func ContextFrom(ctx context.Context) Context {
	if c, ok := ctx.Value(auditContextKey).(Context); ok {
		return c
	}
	return Context{}
}

// Middleware assembles an audit Context from each HTTP request and stores
// it on the request context, where mutating handlers pick it up when they
// wrap their persistence calls with WithAudit.
type Middleware struct {
	identity IdentityFunc
	source   Source
}

// NewMiddleware creates audit context middleware. identity may be nil for
// unauthenticated surfaces; source tags the channel requests arrive on.
func NewMiddleware(identity IdentityFunc, source Source) *Middleware {
	if source == "" {
		source = SourceWeb
	}
	return &Middleware{
		identity: identity,
		source:   source,
	}
}

// Handler wraps next with audit context capture
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := Context{
			IPAddress: clientIP(r),
			UserAgent: r.UserAgent(),
			RequestID: requestID(r),
			Source:    m.source,
		}

		if m.identity != nil {
			c.ActorID, c.ActorEmail, c.ActorRole, c.SessionID = m.identity(r)
		}

		next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), c)))
	})
}

// clientIP extracts the client IP, preferring proxy headers
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// First hop is the original client
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

// requestID takes the caller-supplied correlation id or generates one
func requestID(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	return uuid.NewString()
}
