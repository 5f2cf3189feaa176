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

// BunSessionRepository implements SessionRepository using Bun ORM
type BunSessionRepository struct {
	db bun.IDB
}

// NewBunSessionRepository creates a new Bun-based session repository
func NewBunSessionRepository(db bun.IDB) *BunSessionRepository {
	return &BunSessionRepository{db: db}
}

// CreateBatch inserts the sessions of one login inside a single transaction
func (r *BunSessionRepository) CreateBatch(ctx context.Context, sessions []*models.Session) (int, error) {
	if len(sessions) == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	for _, s := range sessions {
		if s.CreatedAt.IsZero() {
			s.CreatedAt = now
		}
	}

	created := 0
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().
			Model(&sessions).
			Returning("access_id").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("insert sessions: %w", err)
		}
		for _, s := range sessions {
			if s.AccessID != 0 {
				created++
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("create sessions: %w", err)
	}
	return created, nil
}

// GetByAccessID retrieves a session by its numeric token id
func (r *BunSessionRepository) GetByAccessID(ctx context.Context, accessID int32) (*models.Session, error) {
	session := new(models.Session)
	err := r.db.NewSelect().
		Model(session).
		Where("access_id = ?", accessID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session %d: %w", accessID, ErrNotFound)
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

// ListByAuthTokenHash retrieves every session created by one login
func (r *BunSessionRepository) ListByAuthTokenHash(ctx context.Context, authTokenHash string) ([]models.Session, error) {
	var sessions []models.Session
	err := r.db.NewSelect().
		Model(&sessions).
		Where("auth_token_hash = ?", authTokenHash).
		Order("access_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("get sessions by auth token: %w", err)
	}
	return sessions, nil
}

// ListByUser retrieves all sessions for a user
func (r *BunSessionRepository) ListByUser(ctx context.Context, userID string) ([]models.Session, error) {
	var sessions []models.Session
	err := r.db.NewSelect().
		Model(&sessions).
		Where("user_id = ?", userID).
		Order("access_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("get user sessions: %w", err)
	}
	return sessions, nil
}

// RotateRefreshToken performs a compare-and-swap of the refresh token hash
func (r *BunSessionRepository) RotateRefreshToken(ctx context.Context, accessID int32, oldHash, newHash string) (bool, error) {
	res, err := r.db.NewUpdate().
		Model((*models.Session)(nil)).
		Set("refresh_token_hash = ?", newHash).
		Where("access_id = ?", accessID).
		Where("refresh_token_hash = ?", oldHash).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("rotate refresh token: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check rows affected: %w", err)
	}
	return rows == 1, nil
}

// DeleteByUser removes every session of a user
func (r *BunSessionRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.NewDelete().
		Model((*models.Session)(nil)).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete user sessions: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check rows affected: %w", err)
	}
	return rows, nil
}

// DeleteByAuthTokenHash removes the session batch of one login owned by userID
func (r *BunSessionRepository) DeleteByAuthTokenHash(ctx context.Context, authTokenHash, userID string) (int64, error) {
	res, err := r.db.NewDelete().
		Model((*models.Session)(nil)).
		Where("auth_token_hash = ?", authTokenHash).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete sessions by auth token: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check rows affected: %w", err)
	}
	return rows, nil
}
