package httpx

import (
	"bytes"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// ErrorView carries the inputs for the HTML error page.
type ErrorView struct {
	Message       string
	ReturnHref    string
	ReturnText    string
	UserID        string // may be empty
	RequestedPath string // set for 404 only
}

// errorTemplate is the single error page. Kept inline: the boundary owns no
// other templates and the view inputs are fixed.
var errorTemplate = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>PantryKit - Error</title>
</head>
<body>
<main class="error-page">
<h1>Something needs attention</h1>
<p class="error-message">{{.Message}}</p>
{{if .RequestedPath}}<p class="requested-path">Requested: <code>{{.RequestedPath}}</code></p>{{end}}
<p><a href="{{.ReturnHref}}">{{.ReturnText}}</a></p>
</main>
</body>
</html>
`))

// newErrorView builds an ErrorView for the request with the given message
// and a derived return link.
func newErrorView(r *http.Request, message string) ErrorView {
	userID := recoverableUserID(r)
	view := ErrorView{
		Message: message,
		UserID:  userID,
	}
	if userID != "" {
		view.ReturnHref = "/u/" + url.PathEscape(userID)
		view.ReturnText = "Back to your dashboard"
	} else {
		view.ReturnHref = "/auth/login"
		view.ReturnText = "Go to sign in"
	}
	return view
}

// recoverableUserID extracts a user identifier from the request's observable
// fields: query, form body, then a trusted referer. The derivation is pure
// and total: malformed input degrades to the empty string (login link),
// never a panic.
func recoverableUserID(r *http.Request) string {
	if id := sanitizeUserID(r.URL.Query().Get("userId")); id != "" {
		return id
	}

	// PostFormValue parses the body lazily; parse errors leave the form
	// empty, which degrades to the next source.
	if id := sanitizeUserID(r.PostFormValue("userId")); id != "" {
		return id
	}

	return userIDFromReferer(r)
}

// userIDFromReferer pulls a userId from the Referer header, but only when
// the referer belongs to the same registrable domain as the request host.
// A cross-site referer is never trusted as a navigation hint.
func userIDFromReferer(r *http.Request) string {
	raw := r.Header.Get("Referer")
	if raw == "" {
		return ""
	}

	ref, err := url.Parse(raw)
	if err != nil || ref.Host == "" {
		return ""
	}

	if !sameRegistrableDomain(ref.Hostname(), requestHostname(r)) {
		return ""
	}

	return sanitizeUserID(ref.Query().Get("userId"))
}

// sameRegistrableDomain compares hosts by their effective TLD plus one, so
// app.pantrykit.example and www.pantrykit.example trust each other while
// attacker.example does not. Hosts without a derivable registrable domain
// (e.g. localhost, bare IPs) must match exactly.
func sameRegistrableDomain(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	if a == b {
		return true
	}

	domA, errA := publicsuffix.EffectiveTLDPlusOne(a)
	domB, errB := publicsuffix.EffectiveTLDPlusOne(b)
	if errA != nil || errB != nil {
		return false
	}
	return domA == domB
}

// requestHostname returns the request's host without any port.
func requestHostname(r *http.Request) string {
	host := r.Host
	if host == "" {
		return ""
	}
	if u, err := url.Parse("//" + host); err == nil && u.Hostname() != "" {
		return u.Hostname()
	}
	return host
}

// sanitizeUserID accepts only identifiers that are safe to embed in a path:
// letters, digits, dash, underscore, dot. Anything else is treated as absent.
func sanitizeUserID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || len(id) > 128 {
		return ""
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_' || c == '.':
		default:
			return ""
		}
	}
	return id
}

// writeErrorView renders the error template with the given status code.
func writeErrorView(w http.ResponseWriter, r *http.Request, status int, view ErrorView, logger *slog.Logger) {
	var buf bytes.Buffer
	if err := errorTemplate.Execute(&buf, view); err != nil {
		logger.ErrorContext(r.Context(), "failed to render error view", "error", err)
		http.Error(w, http.StatusText(status), status)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		logger.ErrorContext(r.Context(), "failed to write error view", "error", err)
	}
}
