package auth

// Authorization rules for protected resources. These are pure predicates:
// value inputs, boolean outputs, no I/O and no shared state. Route-level
// middleware and handler-level ownership checks both go through this file so
// there is exactly one authorization code path.

// resourceRoles maps each resource to the set of roles allowed to access it.
var resourceRoles = map[Resource]map[Role]bool{
	ResourceRecipe: {
		RoleChef: true,
	},
	ResourceInventory: {
		RoleChef:    true,
		RoleManager: true,
		RoleAdmin:   true,
	},
}

// CanAccessResource reports whether the role may access the resource.
// Unknown roles and unknown resources are always denied.
func CanAccessResource(role Role, resource Resource) bool {
	return resourceRoles[resource][role]
}

// RequiredRoles returns the roles permitted for a resource, in a stable
// order. Useful for error messages and route documentation.
func RequiredRoles(resource Resource) []Role {
	allowed := resourceRoles[resource]
	var roles []Role
	for _, r := range []Role{RoleChef, RoleManager, RoleAdmin} {
		if allowed[r] {
			roles = append(roles, r)
		}
	}
	return roles
}

// Owned reports whether items of the resource type carry per-item ownership.
// Inventory is shared and has no owner beyond the role requirement.
func Owned(resource Resource) bool {
	return resource == ResourceRecipe
}

// CanModify reports whether the user may modify an item of the given
// resource type owned by ownerUserID. The user must be authorized for the
// resource, and for owned resource types must be the owner; no role
// overrides ownership.
func CanModify(user User, resource Resource, ownerUserID string) bool {
	if !CanAccessResource(user.Role, resource) {
		return false
	}
	if !Owned(resource) {
		return true
	}
	return user.ID != "" && user.ID == ownerUserID
}
