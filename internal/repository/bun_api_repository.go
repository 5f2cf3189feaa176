package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/terraconstructs/rmcs/internal/db/models"
	"github.com/uptrace/bun"
)

// BunApiRepository implements ApiRepository using Bun ORM
type BunApiRepository struct {
	db bun.IDB
}

// NewBunApiRepository creates a new Bun-based Api repository
func NewBunApiRepository(db bun.IDB) *BunApiRepository {
	return &BunApiRepository{db: db}
}

// Create inserts a new Api
func (r *BunApiRepository) Create(ctx context.Context, api *models.Api) error {
	now := time.Now().UTC()
	if api.CreatedAt.IsZero() {
		api.CreatedAt = now
	}
	api.UpdatedAt = now

	_, err := r.db.NewInsert().
		Model(api).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create api: %w", err)
	}
	return nil
}

// GetByID retrieves an Api by ID
func (r *BunApiRepository) GetByID(ctx context.Context, id string) (*models.Api, error) {
	api := new(models.Api)
	err := r.db.NewSelect().
		Model(api).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("api %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get api: %w", err)
	}
	return api, nil
}

// GetByName retrieves an Api by its unique name
func (r *BunApiRepository) GetByName(ctx context.Context, name string) (*models.Api, error) {
	api := new(models.Api)
	err := r.db.NewSelect().
		Model(api).
		Where("name = ?", name).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("api %q: %w", name, ErrNotFound)
		}
		return nil, fmt.Errorf("get api by name: %w", err)
	}
	return api, nil
}

// List returns all Apis ordered by name
func (r *BunApiRepository) List(ctx context.Context) ([]models.Api, error) {
	var apis []models.Api
	err := r.db.NewSelect().
		Model(&apis).
		Order("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list apis: %w", err)
	}
	return apis, nil
}

// UpdateAccessKey replaces the signing key of an Api
func (r *BunApiRepository) UpdateAccessKey(ctx context.Context, id string, key []byte) error {
	res, err := r.db.NewUpdate().
		Model((*models.Api)(nil)).
		Set("access_key = ?", key).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update api access key: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("api %s: %w", id, ErrNotFound)
	}
	return nil
}
