package policy

import (
	"context"

	"github.com/diewo77/go-dealership/gate"
	"github.com/diewo77/go-dealership/internal/models"
)

// Resource types used in permissions.
const (
	ResourceInventory      = "inventory"
	ResourceClassification = "classification"
	ResourceFavorite       = "favorite"
	ResourceAccount        = "account"
)

var (
	clientProfile = gate.NewStaticProfile(string(models.AccountClient),
		gate.All(ResourceFavorite),
		gate.NewPermission(ResourceAccount, gate.ActionView),
		gate.NewPermission(ResourceAccount, gate.ActionUpdate),
	)
	employeeProfile = clientProfile.Extend(string(models.AccountEmployee),
		gate.All(ResourceInventory),
		gate.All(ResourceClassification),
	)
	adminProfile = gate.NewStaticProfile(string(models.AccountAdmin), gate.PermissionSuperAdmin)
)

// Profiles lists the role profiles by account type.
func Profiles() map[string]gate.Profile {
	return map[string]gate.Profile{
		clientProfile.Name():   clientProfile,
		employeeProfile.Name(): employeeProfile,
		adminProfile.Name():    adminProfile,
	}
}

// RoleResolver maps a subject to the profile of its role. Unknown roles
// have no profile.
func RoleResolver() gate.ProfileResolver[Subject] {
	profiles := Profiles()
	return gate.ResolverFunc[Subject](func(_ context.Context, s Subject) (gate.Profile, error) {
		return profiles[s.Role], nil
	})
}
