package server

import (
	"context"

	"github.com/terraconstructs/rmcs/internal/auth"
	"github.com/terraconstructs/rmcs/internal/db/models"
	"github.com/terraconstructs/rmcs/internal/services/iam"
)

// iamAuthService defines the exact IAM methods used by server handlers.
// The assertion below proves iam.Service satisfies it at compile time.
type iamAuthService interface {
	// Login flows
	LoginKey(flow auth.Flow) ([]byte, error)
	ApiLogin(ctx context.Context, apiID, encryptedPassword string, callerKey []byte) (*iam.ApiLoginResult, error)
	UserLogin(ctx context.Context, name, encryptedPassword, clientIP string) (*iam.UserLoginResult, error)
	Refresh(ctx context.Context, apiID, accessToken, refreshToken, clientIP string) (*iam.RefreshResult, error)
	Logout(ctx context.Context, userID, authToken string) error

	// Identity management
	ReadUser(ctx context.Context, userID string) (*models.User, error)
	ListUserSessions(ctx context.Context, userID string) ([]models.Session, error)
	ChangeUserPassword(ctx context.Context, userID, encryptedPassword string) error

	// Access data
	ReadApi(ctx context.Context, apiID string) (*models.Api, error)
	AccessTable(ctx context.Context, apiID string) (map[string][]string, error)
	ListUserRoleGrants(ctx context.Context, userID string) ([]models.RoleGrant, error)
}

var _ iamAuthService = iam.Service(nil)
