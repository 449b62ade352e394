// Package middleware holds the HTTP middleware specific to the rentals site.
package middleware

import (
	"context"
	"net/http"
)

type ctxKey string

const ctxKeyIsHTMX ctxKey = "is_htmx"

// HTMX marks requests issued by htmx so handlers can answer with fragments.
func HTMX(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		is := r.Header.Get("HX-Request") == "true"
		if is {
			w.Header().Add("Vary", "HX-Request")
		}
		next.ServeHTTP(w, r.WithContext(WithHTMX(r.Context(), is)))
	})
}

// WithHTMX marks ctx as belonging to an htmx request.
func WithHTMX(ctx context.Context, is bool) context.Context {
	return context.WithValue(ctx, ctxKeyIsHTMX, is)
}

// IsHTMX reports whether the request came from htmx.
func IsHTMX(ctx context.Context) bool {
	v, _ := ctx.Value(ctxKeyIsHTMX).(bool)
	return v
}
