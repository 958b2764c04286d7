package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	domainauth "github.com/pantrykit/pantry-ui-api/internal/domain/auth"
)

func TestPagesRenderAnonymously(t *testing.T) {
	h := &PageHandlers{Logger: discardLogger()}

	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{"home", h.Home, "PantryKit"},
		{"recipes", h.Recipes, "Your Recipes"},
		{"inventory", h.InventoryDashboard, "Inventory Dashboard"},
		{"user home", h.UserHome, "Your Dashboard"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.handler(w, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
			assert.Contains(t, w.Body.String(), tt.want)
			assert.NotContains(t, w.Body.String(), "Signed in as")
		})
	}
}

func TestPagesShowSignedInUser(t *testing.T) {
	h := &PageHandlers{Logger: discardLogger()}

	session := &domainauth.Session{
		ID:        "sess-1",
		UserID:    "u-100",
		Fullname:  "Julia West",
		Role:      domainauth.RoleChef,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(SetSessionInContext(context.Background(), session))

	w := httptest.NewRecorder()
	h.Home(w, r)

	assert.Contains(t, w.Body.String(), "Signed in as Julia West (chef)")
}

func TestHealthHandler(t *testing.T) {
	w := httptest.NewRecorder()
	healthHandler(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = httptest.NewRecorder()
	healthHandler(w, httptest.NewRequest(http.MethodHead, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}
