package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrefersStructuredData(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		accept string
		want   bool
	}{
		{"api path wins regardless of accept", "/api/stats", "text/html", true},
		{"api path without accept", "/api/stats", "", true},
		{"browser accept on page route", "/recipes", "text/html,application/xhtml+xml;q=0.9", false},
		{"json accept on page route", "/recipes", "application/json", true},
		{"no accept on page route is structured", "/recipes", "", true},
		{"wildcard without html is structured", "/recipes", "*/*", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.accept != "" {
				r.Header.Set("Accept", tt.accept)
			}
			assert.Equal(t, tt.want, PrefersStructuredData(r))
		})
	}
}

func TestContentNegotiationResolvesOncePerRequest(t *testing.T) {
	var inHandler bool
	handler := ContentNegotiation()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inHandler = PrefersStructuredData(r)
		// Mutating the header after resolution must not change the verdict.
		r.Header.Set("Accept", "application/json")
		assert.Equal(t, inHandler, PrefersStructuredData(r))
	}))

	r := httptest.NewRequest(http.MethodGet, "/recipes", nil)
	r.Header.Set("Accept", "text/html")
	handler.ServeHTTP(httptest.NewRecorder(), r)

	assert.False(t, inHandler)
}

func TestIsAPIRequest(t *testing.T) {
	assert.True(t, IsAPIRequest(httptest.NewRequest(http.MethodGet, "/api/stats", nil)))
	assert.True(t, IsAPIRequest(httptest.NewRequest(http.MethodGet, "/api/stats/stream", nil)))
	assert.False(t, IsAPIRequest(httptest.NewRequest(http.MethodGet, "/recipes", nil)))
	assert.False(t, IsAPIRequest(httptest.NewRequest(http.MethodGet, "/apiary", nil)))
}
