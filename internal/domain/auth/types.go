package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import (
	"strings"
	"time"
)

// Role represents an application's authorization role.
// It is a closed enum: anything outside the known constants parses to
// RoleUnknown, which every policy check denies.
type Role string

const (
	RoleChef    Role = "chef"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
	// RoleUnknown is the explicit deny-all role for unrecognized or
	// malformed role values. It is never persisted intentionally.
	RoleUnknown Role = "unknown"
)

// ParseRole maps an arbitrary string to a Role. Mixed-case or padded
// variants of valid roles normalize to the matching constant; everything
// else is RoleUnknown.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleChef:
		return RoleChef
	case RoleManager:
		return RoleManager
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleUnknown
	}
}

// Known reports whether the role is one of the defined application roles.
func (r Role) Known() bool {
	return r == RoleChef || r == RoleManager || r == RoleAdmin
}

// Resource identifies a protected resource type.
type Resource string

const (
	ResourceRecipe    Resource = "recipe"
	ResourceInventory Resource = "inventory"
)

// User is the authenticated principal as seen by the session boundary.
// It is owned by the authentication provider; this package never mutates it.
type User struct {
	ID       string `json:"user_id"`
	Fullname string `json:"fullname"`
	Role     Role   `json:"role"`
	LoggedIn bool   `json:"is_logged_in"`
}

// SessionState is the current client-runtime session: a User or absent.
// The zero value is the absent state.
type SessionState struct {
	User *User
}

// SignedIn returns a SessionState holding the given user.
func SignedIn(u User) SessionState { return SessionState{User: &u} }

// SignedOut returns the absent SessionState.
func SignedOut() SessionState { return SessionState{} }

// Authenticated reports whether the state holds an actively logged-in user.
func (s SessionState) Authenticated() bool {
	return s.User != nil && s.User.LoggedIn
}

// Session is the server-side record persisted for an authenticated user.
// ID is an opaque session identifier (random URL-safe string).
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Fullname  string    `json:"fullname"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// User projects the server-side record into the boundary's User shape.
func (s Session) User() User {
	return User{
		ID:       s.UserID,
		Fullname: s.Fullname,
		Role:     s.Role,
		LoggedIn: true,
	}
}

// Identity represents the authenticated principal returned by an IdP.
// Adapters map provider-specific claims into this shape.
type Identity struct {
	UserID    string // stable user identifier (e.g., sub)
	Fullname  string
	Email     string
	Groups    []string
	ExpiresAt time.Time // absolute expiry from IdP token
}
