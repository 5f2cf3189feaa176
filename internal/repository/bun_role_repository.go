package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/terraconstructs/rmcs/internal/db/models"
	"github.com/uptrace/bun"
)

// BunRoleRepository implements RoleRepository using Bun ORM
type BunRoleRepository struct {
	db bun.IDB
}

// NewBunRoleRepository creates a new Bun-based role repository
func NewBunRoleRepository(db bun.IDB) *BunRoleRepository {
	return &BunRoleRepository{db: db}
}

// Create inserts a new role
func (r *BunRoleRepository) Create(ctx context.Context, role *models.Role) error {
	_, err := r.db.NewInsert().
		Model(role).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create role: %w", err)
	}
	return nil
}

// GetByName retrieves a role of an Api by name
func (r *BunRoleRepository) GetByName(ctx context.Context, apiID, name string) (*models.Role, error) {
	role := new(models.Role)
	err := r.db.NewSelect().
		Model(role).
		Where("api_id = ?", apiID).
		Where("name = ?", name).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("role %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("get role by name: %w", err)
	}
	return role, nil
}

// AssignProcedure permits a role to call a procedure. Existing links are kept.
func (r *BunRoleRepository) AssignProcedure(ctx context.Context, roleID, procedureID string) error {
	_, err := r.db.NewInsert().
		Model(&models.RoleProcedure{RoleID: roleID, ProcedureID: procedureID}).
		On("CONFLICT DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("assign procedure to role: %w", err)
	}
	return nil
}

// AssignToUser grants a role to a user. Existing grants are kept.
func (r *BunRoleRepository) AssignToUser(ctx context.Context, userID, roleID string) error {
	_, err := r.db.NewInsert().
		Model(&models.UserRole{UserID: userID, RoleID: roleID}).
		On("CONFLICT DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("assign role to user: %w", err)
	}
	return nil
}

// ListGrantsForUser joins user_roles, roles and apis for one user
func (r *BunRoleRepository) ListGrantsForUser(ctx context.Context, userID string) ([]models.RoleGrant, error) {
	var grants []models.RoleGrant
	err := r.db.NewSelect().
		TableExpr("user_roles AS ur").
		ColumnExpr("r.api_id AS api_id").
		ColumnExpr("r.id AS role_id").
		ColumnExpr("r.name AS role").
		ColumnExpr("r.multi AS multi").
		ColumnExpr("r.ip_lock AS ip_lock").
		ColumnExpr("r.access_duration AS access_duration").
		ColumnExpr("r.refresh_duration AS refresh_duration").
		ColumnExpr("a.access_key AS access_key").
		Join("JOIN roles AS r ON r.id = ur.role_id").
		Join("JOIN apis AS a ON a.id = r.api_id").
		Where("ur.user_id = ?", userID).
		OrderExpr("a.name ASC, r.name ASC").
		Scan(ctx, &grants)
	if err != nil {
		return nil, fmt.Errorf("list role grants: %w", err)
	}
	return grants, nil
}
