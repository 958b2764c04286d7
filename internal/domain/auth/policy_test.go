package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanAccessResource(t *testing.T) {
	tests := []struct {
		name     string
		role     Role
		resource Resource
		allowed  bool
	}{
		{name: "chef can access recipes", role: RoleChef, resource: ResourceRecipe, allowed: true},
		{name: "manager cannot access recipes", role: RoleManager, resource: ResourceRecipe, allowed: false},
		{name: "admin cannot access recipes", role: RoleAdmin, resource: ResourceRecipe, allowed: false},
		{name: "chef can access inventory", role: RoleChef, resource: ResourceInventory, allowed: true},
		{name: "manager can access inventory", role: RoleManager, resource: ResourceInventory, allowed: true},
		{name: "admin can access inventory", role: RoleAdmin, resource: ResourceInventory, allowed: true},
		{name: "unknown role denied recipes", role: RoleUnknown, resource: ResourceRecipe, allowed: false},
		{name: "unknown role denied inventory", role: RoleUnknown, resource: ResourceInventory, allowed: false},
		{name: "unmapped role string denied", role: Role("root"), resource: ResourceInventory, allowed: false},
		{name: "unknown resource denied", role: RoleAdmin, resource: Resource("secrets"), allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanAccessResource(tt.role, tt.resource))
		})
	}
}

func TestRequiredRoles(t *testing.T) {
	assert.Equal(t, []Role{RoleChef}, RequiredRoles(ResourceRecipe))
	assert.Equal(t, []Role{RoleChef, RoleManager, RoleAdmin}, RequiredRoles(ResourceInventory))
	assert.Empty(t, RequiredRoles(Resource("secrets")))
}

func TestOwned(t *testing.T) {
	assert.True(t, Owned(ResourceRecipe))
	assert.False(t, Owned(ResourceInventory))
}

func TestCanModify(t *testing.T) {
	chef := User{ID: "chef-1", Role: RoleChef, LoggedIn: true}
	otherChef := User{ID: "chef-2", Role: RoleChef, LoggedIn: true}
	admin := User{ID: "admin-1", Role: RoleAdmin, LoggedIn: true}
	manager := User{ID: "mgr-1", Role: RoleManager, LoggedIn: true}

	tests := []struct {
		name     string
		user     User
		resource Resource
		owner    string
		allowed  bool
	}{
		{name: "chef modifies own recipe", user: chef, resource: ResourceRecipe, owner: "chef-1", allowed: true},
		{name: "chef cannot modify another chef's recipe", user: chef, resource: ResourceRecipe, owner: "chef-2", allowed: false},
		{name: "other chef owns it", user: otherChef, resource: ResourceRecipe, owner: "chef-2", allowed: true},
		{name: "admin role does not override recipe ownership", user: admin, resource: ResourceRecipe, owner: "chef-1", allowed: false},
		{name: "manager denied recipes entirely", user: manager, resource: ResourceRecipe, owner: "mgr-1", allowed: false},
		{name: "chef modifies shared inventory", user: chef, resource: ResourceInventory, owner: "", allowed: true},
		{name: "manager modifies shared inventory", user: manager, resource: ResourceInventory, owner: "", allowed: true},
		{name: "admin modifies shared inventory", user: admin, resource: ResourceInventory, owner: "", allowed: true},
		{name: "unknown role denied inventory", user: User{ID: "x", Role: RoleUnknown}, resource: ResourceInventory, owner: "", allowed: false},
		{name: "empty user id never owns", user: User{ID: "", Role: RoleChef}, resource: ResourceRecipe, owner: "", allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanModify(tt.user, tt.resource, tt.owner))
		})
	}
}
