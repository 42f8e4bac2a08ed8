package service

import "context"

// RoleStore is the persistence boundary for role-permission bindings.
type RoleStore interface {
	PermissionIDs(ctx context.Context, roleID uint64) ([]uint64, error)
	ReplacePermissions(ctx context.Context, roleID uint64, adds, removes []uint64) error
}

// RoleService reconciles a role's stored permission set against a
// desired one.
type RoleService struct {
	roles RoleStore
}

// NewRoleService constructs a RoleService.
func NewRoleService(roles RoleStore) *RoleService {
	if roles == nil {
		panic("nil RoleStore passed to NewRoleService")
	}
	return &RoleService{roles: roles}
}

// ReconcilePermissions computes the grants and revocations needed to
// move a role from the current permission set to the desired one:
// adds = desired − current, removes = current − desired.  A nil desired
// set is treated as empty, so passing nil revokes everything instead of
// failing on the input.
func ReconcilePermissions(current, desired []uint64) (adds, removes []uint64) {
	curSet := make(map[uint64]struct{}, len(current))
	for _, id := range current {
		curSet[id] = struct{}{}
	}
	desSet := make(map[uint64]struct{}, len(desired))
	for _, id := range desired {
		desSet[id] = struct{}{}
		if _, ok := curSet[id]; !ok {
			adds = append(adds, id)
		}
	}
	for _, id := range current {
		if _, ok := desSet[id]; !ok {
			removes = append(removes, id)
		}
	}
	return adds, removes
}

// SetPermissions makes the role's stored permission set equal to the
// desired one, applying only the computed difference.
func (s *RoleService) SetPermissions(ctx context.Context, roleID uint64, desired []uint64) error {
	current, err := s.roles.PermissionIDs(ctx, roleID)
	if err != nil {
		return err
	}
	adds, removes := ReconcilePermissions(current, desired)
	if len(adds) == 0 && len(removes) == 0 {
		return nil
	}
	return s.roles.ReplacePermissions(ctx, roleID, adds, removes)
}
