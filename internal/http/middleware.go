package httpx

import (
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	domainauth "github.com/pantrykit/pantry-ui-api/internal/domain/auth"
	"github.com/pantrykit/pantry-ui-api/internal/domain/guard"
	"github.com/pantrykit/pantry-ui-api/internal/observability/statsd"
)

// LoginPath is where denied browser navigations are redirected. The login
// handler reads the guard's message and returnUrl query parameters.
const LoginPath = "/auth/login"

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Flush implements http.Flusher so SSE endpoints keep streaming through the
// logging wrapper.
func (w *respWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// RequestMetrics returns a middleware that emits per-request count and
// timing metrics tagged with method and status.
func RequestMetrics(sink statsd.Sink) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &respWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			tags := map[string]string{
				"method": r.Method,
				"status": strconv.Itoa(ww.status),
			}
			sink.Count("http.request", 1, tags)
			sink.Timing("http.request_duration", time.Since(start), tags)
		})
	}
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSession returns a middleware that gates a route on an
// authenticated session. Denials follow the content preference: browsers
// are redirected to the login page with the guard's message and the
// original destination preserved; API callers get a JSON 401.
func RequireSession(authSvc AuthServiceInterface) func(http.Handler) http.Handler {
	return requireNavigation(authSvc, "")
}

// RequireResource returns a middleware that gates a route on both an
// authenticated session and the resource's role policy. It evaluates the
// same guard decision function as RequireSession; there is no second
// authorization code path with weaker rules.
func RequireResource(authSvc AuthServiceInterface, resource domainauth.Resource) func(http.Handler) http.Handler {
	return requireNavigation(authSvc, resource)
}

func requireNavigation(authSvc AuthServiceInterface, resource domainauth.Resource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := getSessionFromRequest(r, authSvc)

			state := domainauth.SignedOut()
			if session != nil {
				state = domainauth.SignedIn(session.User())
			}

			intent := guard.NavigationIntent{
				TargetPath:       safeReturnPath(r.URL.RequestURI()),
				RequiredResource: resource,
			}

			decision := guard.Evaluate(intent, state)
			if !decision.Allowed {
				denyNavigation(w, r, denyParams{Decision: decision, HasSession: session != nil})
				return
			}

			ctx := SetSessionInContext(r.Context(), session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// denyParams groups the inputs for writing a guard denial.
type denyParams struct {
	Decision   guard.Decision
	HasSession bool
}

// denyNavigation writes a guard denial: a redirect carrying the reason and
// return URL for page requests, a shaped JSON error for API callers.
func denyNavigation(w http.ResponseWriter, r *http.Request, p denyParams) {
	if !PrefersStructuredData(r) {
		http.Redirect(w, r, p.Decision.RedirectURL(LoginPath), http.StatusSeeOther)
		return
	}

	code := http.StatusUnauthorized
	errCode := "authentication_required"
	if p.HasSession {
		code = http.StatusForbidden
		errCode = "insufficient_permissions"
	}
	WriteJSON(w, code, map[string]string{
		"error":   errCode,
		"message": p.Decision.Message,
	})
}

// OptionalSession returns a middleware that adds the session to the request
// context when present, without gating the route.
func OptionalSession(authSvc AuthServiceInterface) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if session := getSessionFromRequest(r, authSvc); session != nil {
				r = r.WithContext(SetSessionInContext(r.Context(), session))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// getSessionFromRequest retrieves and validates a session from the request.
func getSessionFromRequest(r *http.Request, authSvc AuthServiceInterface) *domainauth.Session {
	sessionCookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return nil
	}

	session, err := authSvc.GetSession(r.Context(), sessionCookie.Value)
	if err != nil {
		return nil
	}

	return session
}

// safeReturnPath ensures the preserved destination is a same-origin
// relative path starting with "/". Returns "" when invalid, which the guard
// treats as "no prior destination".
func safeReturnPath(candidate string) string {
	if candidate == "" {
		return ""
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return ""
	}
	return candidate
}
