package httpx

import (
	"context"
	"net/http"
	"strings"
)

// APIPathPrefix marks the machine-facing namespace. Requests under it always
// receive structured (JSON) error shapes, even when the Accept header asks
// for HTML by mistake.
const APIPathPrefix = "/api/"

// contentPreferenceKey is an unexported context key type for the resolved
// content preference.
type contentPreferenceKey struct{}

// ContentNegotiation returns a middleware that resolves the client's content
// preference once per request and stores it in the context, decoupling
// downstream error shaping from header parsing.
func ContentNegotiation() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			structured := prefersStructuredData(r)
			ctx := context.WithValue(r.Context(), contentPreferenceKey{}, structured)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrefersStructuredData reports whether the request wants machine-readable
// (JSON) responses rather than HTML pages.
func PrefersStructuredData(r *http.Request) bool {
	if val := r.Context().Value(contentPreferenceKey{}); val != nil {
		if structured, ok := val.(bool); ok {
			return structured
		}
	}
	// Fallback to direct detection if middleware wasn't used
	return prefersStructuredData(r)
}

// prefersStructuredData determines the content preference based on:
// 1. Path namespace - API routes always want structured data
// 2. Accept header - only clients declaring text/html want pages.
//
// A missing Accept header counts as structured: HTML is rendered only for
// a stated HTML preference, and real browsers always state one.
func prefersStructuredData(r *http.Request) bool {
	if IsAPIRequest(r) {
		return true
	}
	return !strings.Contains(r.Header.Get("Accept"), "text/html")
}

// IsAPIRequest reports whether the request path is under the API namespace.
func IsAPIRequest(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, APIPathPrefix)
}
