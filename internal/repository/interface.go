package repository

import (
	"context"
	"errors"

	"github.com/terraconstructs/rmcs/internal/db/models"
)

// ErrNotFound is returned (wrapped) when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ApiRepository exposes persistence operations for Api identities.
type ApiRepository interface {
	Create(ctx context.Context, api *models.Api) error
	GetByID(ctx context.Context, id string) (*models.Api, error)
	GetByName(ctx context.Context, name string) (*models.Api, error)
	List(ctx context.Context) ([]models.Api, error)
	// UpdateAccessKey replaces the Api's access key.
	UpdateAccessKey(ctx context.Context, id string, key []byte) error
}

// ProcedureRepository exposes persistence operations for Api procedures.
type ProcedureRepository interface {
	Create(ctx context.Context, procedure *models.Procedure) error
	GetByName(ctx context.Context, apiID, name string) (*models.Procedure, error)
	// ListAccess returns one row per (procedure, permitted role) of the Api.
	// Procedures without any role are returned once with an empty role.
	ListAccess(ctx context.Context, apiID string) ([]models.ProcedureAccess, error)
}

// RoleRepository exposes persistence operations for roles and their links.
type RoleRepository interface {
	Create(ctx context.Context, role *models.Role) error
	GetByName(ctx context.Context, apiID, name string) (*models.Role, error)
	AssignProcedure(ctx context.Context, roleID, procedureID string) error
	AssignToUser(ctx context.Context, userID, roleID string) error
	// ListGrantsForUser resolves every role granted to the user together with
	// the current access key of the role's Api.
	ListGrantsForUser(ctx context.Context, userID string) ([]models.RoleGrant, error)
}

// UserRepository exposes persistence operations for User identities.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByName(ctx context.Context, name string) (*models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// SessionRepository exposes persistence operations for login sessions.
type SessionRepository interface {
	// CreateBatch inserts all sessions in one transaction and fills in their
	// AccessID. It returns the number of rows written.
	CreateBatch(ctx context.Context, sessions []*models.Session) (int, error)
	GetByAccessID(ctx context.Context, accessID int32) (*models.Session, error)
	ListByAuthTokenHash(ctx context.Context, authTokenHash string) ([]models.Session, error)
	ListByUser(ctx context.Context, userID string) ([]models.Session, error)
	// RotateRefreshToken swaps the stored refresh token hash only if it still
	// equals oldHash. It reports whether a row was updated.
	RotateRefreshToken(ctx context.Context, accessID int32, oldHash, newHash string) (bool, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
	DeleteByAuthTokenHash(ctx context.Context, authTokenHash, userID string) (int64, error)
}
