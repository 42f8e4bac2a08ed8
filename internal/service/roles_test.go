package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRoleStore struct {
	perms    map[uint64][]uint64
	replaced int
}

func (f *fakeRoleStore) PermissionIDs(_ context.Context, roleID uint64) ([]uint64, error) {
	return f.perms[roleID], nil
}

func (f *fakeRoleStore) ReplacePermissions(_ context.Context, roleID uint64, adds, removes []uint64) error {
	f.replaced++
	rm := make(map[uint64]struct{}, len(removes))
	for _, id := range removes {
		rm[id] = struct{}{}
	}
	var next []uint64
	for _, id := range f.perms[roleID] {
		if _, gone := rm[id]; !gone {
			next = append(next, id)
		}
	}
	f.perms[roleID] = append(next, adds...)
	return nil
}

func TestReconcilePermissions(t *testing.T) {
	adds, removes := ReconcilePermissions([]uint64{1, 2, 3}, []uint64{2, 3, 4})
	assert.Equal(t, []uint64{4}, adds)
	assert.Equal(t, []uint64{1}, removes)

	adds, removes = ReconcilePermissions([]uint64{1, 2}, []uint64{1, 2})
	assert.Empty(t, adds)
	assert.Empty(t, removes)

	// Nil desired means revoke everything, not fail.
	adds, removes = ReconcilePermissions([]uint64{5, 6}, nil)
	assert.Empty(t, adds)
	assert.Equal(t, []uint64{5, 6}, removes)

	adds, removes = ReconcilePermissions(nil, []uint64{7})
	assert.Equal(t, []uint64{7}, adds)
	assert.Empty(t, removes)
}

func TestSetPermissionsAppliesOnlyTheDifference(t *testing.T) {
	store := &fakeRoleStore{perms: map[uint64][]uint64{1: {1, 2, 3}}}
	svc := NewRoleService(store)
	ctx := context.Background()

	require.NoError(t, svc.SetPermissions(ctx, 1, []uint64{2, 3, 4}))
	assert.Equal(t, 1, store.replaced)
	assert.ElementsMatch(t, []uint64{2, 3, 4}, store.perms[1])

	// Desired equals stored: no write at all.
	require.NoError(t, svc.SetPermissions(ctx, 1, []uint64{2, 3, 4}))
	assert.Equal(t, 1, store.replaced)

	require.NoError(t, svc.SetPermissions(ctx, 1, nil))
	assert.Equal(t, 2, store.replaced)
	assert.Empty(t, store.perms[1])
}
