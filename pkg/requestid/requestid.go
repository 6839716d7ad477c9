package requestid

import (
	"context"
	"net/http"
	"strings"
)

// Header carries the request identifier in both directions.
const Header = "X-Request-Id"

type ctxKey struct{}

// WithContext stores id on ctx.
func WithContext(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identifier stored by WithContext, or "".
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxKey{}).(string); ok {
		return v
	}
	return ""
}

// FromRequest prefers the propagated context value and falls back to the
// inbound header.
func FromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	if id := FromContext(r.Context()); id != "" {
		return id
	}
	return strings.TrimSpace(r.Header.Get(Header))
}
