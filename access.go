package biocard

type Access byte

const (
	AccessUndefined Access = 0
	AccessForbidden Access = 1
	AccessAllowed   Access = 2
)

func (a Access) merge(b Access) Access {
	switch {
	case a == AccessUndefined:
		return b
	case b == AccessUndefined:
		return a
	default:
		return b
	}
}

type PermissionName string

const (
	PermissionAdminDashboard   PermissionName = "admin.dashboard"
	PermissionModerateProfiles PermissionName = "profiles.moderate"
)

type RoleId string

type Role struct {
	Id          RoleId
	Permissions map[PermissionName]bool
}

var (
	RoleIdModerator RoleId = "moderator"
	RoleIdAdmin     RoleId = "admin"
)

var AllRoles map[RoleId]Role = mapRolesById(
	Role{
		Id: RoleIdAdmin,
		Permissions: map[PermissionName]bool{
			PermissionAdminDashboard:   true,
			PermissionModerateProfiles: true,
		},
	},
	Role{
		Id: RoleIdModerator,
		Permissions: map[PermissionName]bool{
			PermissionModerateProfiles: true,
		},
	},
)

func mapRolesById(roles ...Role) map[RoleId]Role {
	rolesMap := make(map[RoleId]Role)
	for _, role := range roles {
		if _, ok := rolesMap[role.Id]; ok {
			panic("Duplicated role id: `" + role.Id + "`!")
		}
		rolesMap[role.Id] = role
	}
	return rolesMap
}

// RolesByIds maps stored role ids to known roles, skipping unknown ids.
func RolesByIds(ids []RoleId) Roles {
	roles := make(Roles, 0, len(ids))
	for _, id := range ids {
		if role, ok := AllRoles[id]; ok {
			roles = append(roles, role)
		}
	}
	return roles
}

func (role Role) Access(name PermissionName) Access {
	hasPermission, ok := role.Permissions[name]
	switch {
	case !ok:
		return AccessUndefined
	case hasPermission:
		return AccessAllowed
	default:
		return AccessForbidden
	}
}

type Roles []Role

func (roles Roles) Access(permission PermissionName) Access {
	access := AccessUndefined
	for _, role := range roles {
		access = access.merge(role.Access(permission))
	}
	return access
}

func (roles Roles) Ids() []RoleId {
	ids := make([]RoleId, len(roles))
	for i, r := range roles {
		ids[i] = r.Id
	}
	return ids
}
