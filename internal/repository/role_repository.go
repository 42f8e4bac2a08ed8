package repository

import (
	"context"
	"database/sql"
	"strings"
)

// RoleRepo provides data access to the role_permissions binding table.
// It satisfies service.RoleStore.
type RoleRepo struct{ db *sql.DB }

// NewRoleRepo returns a RoleRepo bound to the given database.
func NewRoleRepo(db *sql.DB) *RoleRepo { return &RoleRepo{db: db} }

// PermissionIDs returns the permission IDs currently granted to a role.
func (r *RoleRepo) PermissionIDs(ctx context.Context, roleID uint64) ([]uint64, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT permission_id FROM role_permissions WHERE role_id=?", roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ReplacePermissions applies a computed permission diff in a single
// transaction: the listed grants are inserted and the listed
// revocations deleted, or neither happens.
func (r *RoleRepo) ReplacePermissions(ctx context.Context, roleID uint64, adds, removes []uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if len(adds) > 0 {
		query := "INSERT INTO role_permissions (role_id, permission_id) VALUES "
		args := make([]interface{}, 0, len(adds)*2)
		for i, id := range adds {
			if i > 0 {
				query += ","
			}
			query += "(?, ?)"
			args = append(args, roleID, id)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	if len(removes) > 0 {
		placeholders := make([]string, len(removes))
		args := make([]interface{}, 0, len(removes)+1)
		args = append(args, roleID)
		for i, id := range removes {
			placeholders[i] = "?"
			args = append(args, id)
		}
		query := "DELETE FROM role_permissions WHERE role_id=? AND permission_id IN (" +
			strings.Join(placeholders, ",") + ")"
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
