package httpx

import (
	"context"

	domainauth "github.com/pantrykit/pantry-ui-api/internal/domain/auth"
)

type sessionContextKey struct{}

// sessionCookieName is the cookie carrying the opaque session identifier.
const sessionCookieName = "session_id"

// SetSessionInContext stores a session in the request context. A nil
// session stores nothing.
func SetSessionInContext(ctx context.Context, session *domainauth.Session) context.Context {
	if session == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionContextKey{}, session)
}

// GetUserSessionFromContext retrieves the session placed in the context by
// the session middleware. Returns nil when the request is anonymous.
func GetUserSessionFromContext(ctx context.Context) *domainauth.Session {
	session, _ := ctx.Value(sessionContextKey{}).(*domainauth.Session)
	return session
}
