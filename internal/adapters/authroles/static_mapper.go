package authroles

import (
	domainauth "github.com/pantrykit/pantry-ui-api/internal/domain/auth"
)

// StaticRoleMapper maps IdP groups to application roles by simple string
// membership. Admin wins over manager wins over chef; a user in none of the
// configured groups maps to RoleUnknown, which every policy check denies.
type StaticRoleMapper struct {
	AdminGroup   string
	ManagerGroup string
	ChefGroup    string
}

func (m StaticRoleMapper) Map(groups []string) domainauth.Role {
	has := func(want string) bool {
		if want == "" {
			return false
		}
		for _, g := range groups {
			if g == want {
				return true
			}
		}
		return false
	}

	switch {
	case has(m.AdminGroup):
		return domainauth.RoleAdmin
	case has(m.ManagerGroup):
		return domainauth.RoleManager
	case has(m.ChefGroup):
		return domainauth.RoleChef
	default:
		return domainauth.RoleUnknown
	}
}
