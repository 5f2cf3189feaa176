package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/terraconstructs/rmcs/internal/db/models"
	"github.com/uptrace/bun"
)

// BunProcedureRepository implements ProcedureRepository using Bun ORM
type BunProcedureRepository struct {
	db bun.IDB
}

// NewBunProcedureRepository creates a new Bun-based procedure repository
func NewBunProcedureRepository(db bun.IDB) *BunProcedureRepository {
	return &BunProcedureRepository{db: db}
}

// Create inserts a new procedure
func (r *BunProcedureRepository) Create(ctx context.Context, procedure *models.Procedure) error {
	_, err := r.db.NewInsert().
		Model(procedure).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create procedure: %w", err)
	}
	return nil
}

// GetByName retrieves a procedure of an Api by name
func (r *BunProcedureRepository) GetByName(ctx context.Context, apiID, name string) (*models.Procedure, error) {
	procedure := new(models.Procedure)
	err := r.db.NewSelect().
		Model(procedure).
		Where("api_id = ?", apiID).
		Where("name = ?", name).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("procedure %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("get procedure: %w", err)
	}
	return procedure, nil
}

// ListAccess returns the procedure/role pairs of an Api
func (r *BunProcedureRepository) ListAccess(ctx context.Context, apiID string) ([]models.ProcedureAccess, error) {
	var rows []models.ProcedureAccess
	err := r.db.NewSelect().
		TableExpr("procedures AS p").
		ColumnExpr("p.name AS procedure").
		ColumnExpr("COALESCE(r.name, '') AS role").
		Join("LEFT JOIN role_procedures AS rp ON rp.procedure_id = p.id").
		Join("LEFT JOIN roles AS r ON r.id = rp.role_id").
		Where("p.api_id = ?", apiID).
		OrderExpr("p.name ASC, r.name ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("list procedure access: %w", err)
	}
	return rows, nil
}
