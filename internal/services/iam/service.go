package iam

import (
	"context"

	"github.com/terraconstructs/rmcs/internal/auth"
	"github.com/terraconstructs/rmcs/internal/db/models"
)

// Service is the facade the RPC layer talks to.
type Service interface {
	// Login flows
	LoginKey(flow auth.Flow) ([]byte, error)
	ApiLogin(ctx context.Context, apiID, encryptedPassword string, callerKey []byte) (*ApiLoginResult, error)
	UserLogin(ctx context.Context, name, encryptedPassword, clientIP string) (*UserLoginResult, error)
	Refresh(ctx context.Context, apiID, accessToken, refreshToken, clientIP string) (*RefreshResult, error)
	Logout(ctx context.Context, userID, authToken string) error

	// Identity management
	IdentityFor(ctx context.Context, authToken string) (string, error)
	ReadUser(ctx context.Context, userID string) (*models.User, error)
	ListUserSessions(ctx context.Context, userID string) ([]models.Session, error)
	ChangeUserPassword(ctx context.Context, userID, encryptedPassword string) error

	// Access data
	ReadApi(ctx context.Context, apiID string) (*models.Api, error)
	AccessTable(ctx context.Context, apiID string) (map[string][]string, error)
	ListUserRoleGrants(ctx context.Context, userID string) ([]models.RoleGrant, error)
}

// ApiLoginResult carries the sealed signing keys and the cleartext access
// table of an Api. RootKey and AccessKey are JWE compact strings sealed to
// the caller's public key.
type ApiLoginResult struct {
	RootKey   string
	AccessKey string
	Access    map[string][]string
}

// UserToken is the token pair minted for one role grant.
type UserToken struct {
	ApiID        string
	Role         string
	AccessToken  string
	RefreshToken string
}

// UserLoginResult is returned by a successful user login. AuthToken
// identifies the whole session batch and is used for logout and identity
// checks.
type UserLoginResult struct {
	UserID    string
	AuthToken string
	Tokens    []UserToken
}

// RefreshResult is returned by a successful refresh.
type RefreshResult struct {
	AccessToken  string
	RefreshToken string
}
