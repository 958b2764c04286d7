package devauth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantrykit/pantry-ui-api/internal/ports"
)

func devConfig() Config {
	return Config{
		UserID:   "dev-user",
		Fullname: "Dev User",
		Email:    "dev@example.com",
		Groups:   []string{"chefs"},
	}
}

func TestNewProviderValidation(t *testing.T) {
	_, err := NewProvider(Config{Email: "dev@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UserID is required")

	_, err = NewProvider(Config{UserID: "dev-user"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Email is required")
}

func TestNewProviderDefaultsFullnameToUserID(t *testing.T) {
	p, err := NewProvider(Config{UserID: "dev-user", Email: "dev@example.com"})
	require.NoError(t, err)

	ident, err := p.Exchange(context.Background(), ports.ExchangeInput{})
	require.NoError(t, err)
	assert.Equal(t, "dev-user", ident.Fullname)
}

func TestBeginReturnsLocalCallbackWithFreshState(t *testing.T) {
	p, err := NewProvider(devConfig())
	require.NoError(t, err)

	authURL, state, nonce, err := p.Begin(context.Background(), ports.BeginInput{ReturnURL: "/recipes"})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(authURL, "/auth/callback?code=dev&state="), "got %q", authURL)
	assert.Contains(t, authURL, state)
	assert.Len(t, state, 24)
	assert.Len(t, nonce, 24)

	_, state2, nonce2, err := p.Begin(context.Background(), ports.BeginInput{})
	require.NoError(t, err)
	assert.NotEqual(t, state, state2)
	assert.NotEqual(t, nonce, nonce2)
}

func TestExchangeReturnsConfiguredIdentity(t *testing.T) {
	p, err := NewProvider(devConfig())
	require.NoError(t, err)

	ident, err := p.Exchange(context.Background(), ports.ExchangeInput{Code: "dev"})
	require.NoError(t, err)

	assert.Equal(t, "dev-user", ident.UserID)
	assert.Equal(t, "Dev User", ident.Fullname)
	assert.Equal(t, "dev@example.com", ident.Email)
	assert.Equal(t, []string{"chefs"}, ident.Groups)
	assert.True(t, ident.ExpiresAt.After(time.Now()))
}

func TestExchangeRefreshesNearExpiry(t *testing.T) {
	cfg := devConfig()
	cfg.SessionDuration = time.Minute
	p, err := NewProvider(cfg)
	require.NoError(t, err)

	// Initial expiry is within the refresh window, so exchanging again
	// must push it out by the configured duration.
	ident, err := p.Exchange(context.Background(), ports.ExchangeInput{})
	require.NoError(t, err)
	assert.True(t, ident.ExpiresAt.After(time.Now().Add(30*time.Second)))
}

func TestGroupsAreCopiedAtConstruction(t *testing.T) {
	cfg := devConfig()
	p, err := NewProvider(cfg)
	require.NoError(t, err)

	cfg.Groups[0] = "mutated"

	ident, err := p.Exchange(context.Background(), ports.ExchangeInput{})
	require.NoError(t, err)
	assert.Equal(t, []string{"chefs"}, ident.Groups)
}
