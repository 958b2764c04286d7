package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantrykit/pantry-ui-api/internal/adapters/authroles"
	domainauth "github.com/pantrykit/pantry-ui-api/internal/domain/auth"
	mockauth "github.com/pantrykit/pantry-ui-api/internal/mocks/auth"
	"github.com/pantrykit/pantry-ui-api/internal/service"
)

// newLoginFixture wires real AuthService orchestration over in-memory
// doubles, so handler tests cover the full flow from query parameter to
// persisted session record.
func newLoginFixture(t *testing.T) (*AuthHandlers, *mockauth.MockAuthProvider, *mockauth.MemorySessionRecords) {
	t.Helper()
	provider := mockauth.NewMockAuthProvider()
	records := mockauth.NewMemorySessionRecords()
	svc := service.NewAuthService(service.AuthServiceOptions{
		Provider: provider,
		Sessions: records,
		Roles: authroles.StaticRoleMapper{
			AdminGroup:   "admins",
			ManagerGroup: "managers",
			ChefGroup:    "chefs",
		},
	})
	return &AuthHandlers{Svc: svc, Logger: discardLogger()}, provider, records
}

func cookieByName(t *testing.T, cookies []*http.Cookie, name string) *http.Cookie {
	t.Helper()
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

func TestLoginSetsCookiesAndRedirectsToProvider(t *testing.T) {
	h, _, _ := newLoginFixture(t)

	r := httptest.NewRequest(http.MethodGet, "/auth/login?returnUrl=/inventory-dashboard", nil)
	w := httptest.NewRecorder()
	h.Login(w, r)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://mock-idp/auth", w.Header().Get("Location"))

	cookies := w.Result().Cookies()
	state := cookieByName(t, cookies, "oauth_state")
	nonce := cookieByName(t, cookies, "oauth_nonce")
	ret := cookieByName(t, cookies, "post_login_return")

	assert.Equal(t, "state-1", state.Value)
	assert.Equal(t, "nonce-1", nonce.Value)
	assert.Equal(t, "/inventory-dashboard", ret.Value)
	for _, c := range []*http.Cookie{state, nonce, ret} {
		assert.True(t, c.HttpOnly, "%s must be HttpOnly", c.Name)
		assert.Equal(t, 600, c.MaxAge, "%s expiry", c.Name)
	}
}

func TestLoginRejectsAbsoluteReturnURL(t *testing.T) {
	h, _, _ := newLoginFixture(t)

	r := httptest.NewRequest(http.MethodGet, "/auth/login?returnUrl=https://attacker.example/", nil)
	w := httptest.NewRecorder()
	h.Login(w, r)

	ret := cookieByName(t, w.Result().Cookies(), "post_login_return")
	assert.Equal(t, "/", ret.Value)
}

func TestCallbackValidatesParameters(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		cookies  map[string]string
		wantCode int
		wantErr  string
	}{
		{
			name:     "missing code",
			target:   "/auth/callback?state=state-1",
			wantCode: http.StatusBadRequest,
			wantErr:  "missing_code",
		},
		{
			name:     "missing state",
			target:   "/auth/callback?code=c-1",
			wantCode: http.StatusBadRequest,
			wantErr:  "missing_state",
		},
		{
			name:     "state does not match cookie",
			target:   "/auth/callback?code=c-1&state=forged",
			cookies:  map[string]string{"oauth_state": "state-1", "oauth_nonce": "nonce-1"},
			wantCode: http.StatusBadRequest,
			wantErr:  "invalid_state",
		},
		{
			name:     "missing nonce cookie",
			target:   "/auth/callback?code=c-1&state=state-1",
			cookies:  map[string]string{"oauth_state": "state-1"},
			wantCode: http.StatusBadRequest,
			wantErr:  "missing_nonce",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, _ := newLoginFixture(t)

			r := httptest.NewRequest(http.MethodGet, tt.target, nil)
			for name, val := range tt.cookies {
				r.AddCookie(&http.Cookie{Name: name, Value: val})
			}
			w := httptest.NewRecorder()
			h.Callback(w, r)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantErr)
		})
	}
}

func TestLoginRoundTripPreservesDestination(t *testing.T) {
	h, _, records := newLoginFixture(t)

	// Step 1: denied navigation lands on the login endpoint with the
	// original destination.
	r := httptest.NewRequest(http.MethodGet, "/auth/login?returnUrl=/inventory-dashboard&message=Please+sign+in+to+continue", nil)
	w := httptest.NewRecorder()
	h.Login(w, r)
	require.Equal(t, http.StatusFound, w.Code)
	loginCookies := w.Result().Cookies()

	// Step 2: the provider redirects back with code and state; the browser
	// presents the cookies set at step 1.
	r = httptest.NewRequest(http.MethodGet, "/auth/callback?code=c-1&state=state-1", nil)
	for _, c := range loginCookies {
		r.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
	w = httptest.NewRecorder()
	h.Callback(w, r)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/inventory-dashboard", w.Header().Get("Location"))

	callbackCookies := w.Result().Cookies()
	session := cookieByName(t, callbackCookies, "session_id")
	assert.NotEmpty(t, session.Value)
	assert.Positive(t, session.MaxAge)

	// Temporary cookies are cleared.
	for _, name := range []string{"oauth_state", "oauth_nonce", "post_login_return"} {
		c := cookieByName(t, callbackCookies, name)
		assert.Negative(t, c.MaxAge, "%s must be cleared", name)
	}

	// The server-side record exists and carries the mapped role.
	stored, err := records.Get(r.Context(), session.Value)
	require.NoError(t, err)
	assert.Equal(t, "mock-user-1", stored.UserID)
	assert.Equal(t, domainauth.RoleChef, stored.Role)
}

func TestCallbackRejectsAbsolutePostLoginReturn(t *testing.T) {
	h, _, _ := newLoginFixture(t)

	r := httptest.NewRequest(http.MethodGet, "/auth/callback?code=c-1&state=state-1", nil)
	r.AddCookie(&http.Cookie{Name: "oauth_state", Value: "state-1"})
	r.AddCookie(&http.Cookie{Name: "oauth_nonce", Value: "nonce-1"})
	r.AddCookie(&http.Cookie{Name: "post_login_return", Value: "https://attacker.example/"})
	w := httptest.NewRecorder()
	h.Callback(w, r)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestLogoutClearsSessionAndCookie(t *testing.T) {
	h, _, records := newLoginFixture(t)
	ctx := httptest.NewRequest(http.MethodPost, "/auth/logout", nil).Context()
	require.NoError(t, records.Save(ctx, domainauth.Session{
		ID:        "sess-1",
		UserID:    "u-100",
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	r := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	r.Header.Set("Accept", "application/json")
	r.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-1"})
	w := httptest.NewRecorder()
	h.Logout(w, r)

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "/", body["redirect_to"])

	cleared := cookieByName(t, w.Result().Cookies(), "session_id")
	assert.Negative(t, cleared.MaxAge)

	_, err := records.Get(r.Context(), "sess-1")
	assert.ErrorIs(t, err, mockauth.ErrNotFound)
}

func TestLogoutBrowserRedirectsHome(t *testing.T) {
	h, _, _ := newLoginFixture(t)

	r := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	r.Header.Set("Accept", "text/html")
	w := httptest.NewRecorder()
	h.Logout(w, r)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestStatusAnonymous(t *testing.T) {
	h, _, _ := newLoginFixture(t)

	w := httptest.NewRecorder()
	h.Status(w, httptest.NewRequest(http.MethodGet, "/auth/status", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Authenticated bool             `json:"authenticated"`
		User          *domainauth.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Authenticated)
	assert.Nil(t, body.User)
}

func TestStatusSignedIn(t *testing.T) {
	h, _, records := newLoginFixture(t)
	r := httptest.NewRequest(http.MethodGet, "/auth/status", nil)
	require.NoError(t, records.Save(r.Context(), domainauth.Session{
		ID:        "sess-1",
		UserID:    "u-100",
		Fullname:  "Julia West",
		Role:      domainauth.RoleChef,
		ExpiresAt: time.Now().Add(time.Hour),
	}))
	r.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-1"})

	w := httptest.NewRecorder()
	h.Status(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Authenticated bool            `json:"authenticated"`
		User          domainauth.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Authenticated)
	assert.Equal(t, "u-100", body.User.ID)
	assert.Equal(t, domainauth.RoleChef, body.User.Role)
	assert.True(t, body.User.LoggedIn)
}

func TestStatusExpiredSessionClearsCookie(t *testing.T) {
	h, _, records := newLoginFixture(t)
	r := httptest.NewRequest(http.MethodGet, "/auth/status", nil)
	require.NoError(t, records.Save(r.Context(), domainauth.Session{
		ID:        "sess-old",
		UserID:    "u-100",
		ExpiresAt: time.Now().Add(-time.Minute),
	}))
	r.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-old"})

	w := httptest.NewRecorder()
	h.Status(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"authenticated":false`)

	cleared := cookieByName(t, w.Result().Cookies(), "session_id")
	assert.Negative(t, cleared.MaxAge)
}

func TestLoginRedirectCarriesEncodedQuery(t *testing.T) {
	// The deny redirect built by the middleware must round-trip through
	// the login handler's parsing.
	h, _, _ := newLoginFixture(t)

	target := "/auth/login?" + url.Values{
		"message":   {"Please sign in to continue"},
		"returnUrl": {"/recipes?sort=name&page=2"},
	}.Encode()
	r := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	h.Login(w, r)

	require.Equal(t, http.StatusFound, w.Code)
	ret := cookieByName(t, w.Result().Cookies(), "post_login_return")
	assert.Equal(t, "/recipes?sort=name&page=2", ret.Value)
}
