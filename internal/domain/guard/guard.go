// Package guard decides whether a navigation attempt may proceed.
// It is pure: decisions depend only on the intent and the session snapshot,
// never on I/O or shared state, so evaluating the same inputs twice always
// yields the same result.
package guard

import (
	"net/url"

	domainauth "github.com/pantrykit/pantry-ui-api/internal/domain/auth"
)

// Messages carried on redirect decisions. The two are deliberately distinct
// so the login UI can show the right prompt.
const (
	MsgAuthenticationRequired = "Please sign in to continue"
	MsgAuthorizationDenied    = "You do not have permission to view this page"
)

// DefaultLandingPath is used as the post-login destination when the intent
// had no target path.
const DefaultLandingPath = "/"

// NavigationIntent describes a single navigation attempt. Created
// transiently per attempt and never persisted.
type NavigationIntent struct {
	// TargetPath is the destination the user was heading to.
	TargetPath string
	// RequiredResource gates the destination on a resource policy check
	// when non-empty.
	RequiredResource domainauth.Resource
}

// Decision is the outcome of evaluating a navigation intent.
// The zero value is a deny-by-redirect with no message; use Evaluate to
// obtain meaningful decisions.
type Decision struct {
	Allowed bool
	// Message is a human-readable reason, set only on redirects.
	Message string
	// ReturnURL preserves the original destination so the consumer can
	// navigate back after authenticating. Empty when no prior destination
	// existed.
	ReturnURL string
}

// Evaluate admits or redirects a navigation attempt given the current
// session snapshot. It never mutates session state.
func Evaluate(intent NavigationIntent, state domainauth.SessionState) Decision {
	if !state.Authenticated() {
		return Decision{
			Message:   MsgAuthenticationRequired,
			ReturnURL: intent.TargetPath,
		}
	}

	if intent.RequiredResource != "" && !domainauth.CanAccessResource(state.User.Role, intent.RequiredResource) {
		return Decision{
			Message:   MsgAuthorizationDenied,
			ReturnURL: intent.TargetPath,
		}
	}

	return Decision{Allowed: true}
}

// RedirectURL builds the login redirect target for a deny decision:
// loginPath?message=...&returnUrl=... with both values URL-encoded.
// returnUrl is omitted when no original destination existed.
func (d Decision) RedirectURL(loginPath string) string {
	q := url.Values{}
	q.Set("message", d.Message)
	if d.ReturnURL != "" {
		q.Set("returnUrl", d.ReturnURL)
	}
	return loginPath + "?" + q.Encode()
}

// ReturnTo resolves the preserved destination, falling back to the default
// landing page when none existed.
func (d Decision) ReturnTo() string {
	if d.ReturnURL == "" {
		return DefaultLandingPath
	}
	return d.ReturnURL
}
