package iam

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/terraconstructs/rmcs/internal/auth"
	"github.com/terraconstructs/rmcs/internal/db/models"
	"github.com/terraconstructs/rmcs/internal/repository"
)

// iamService implements the Service interface.
type iamService struct {
	apis       repository.ApiRepository
	procedures repository.ProcedureRepository
	roles      repository.RoleRepository
	users      repository.UserRepository
	sessions   *SessionStore

	apiCache *ApiCache
	keys     *auth.KeyStore
	root     *auth.Root

	onKeyRotated []func(apiID string, key []byte)
	now          func() time.Time
	seal         func(pub any, plaintext []byte) (string, error)
}

// IAMServiceDependencies contains all dependencies for IAM service construction.
type IAMServiceDependencies struct {
	Apis       repository.ApiRepository
	Procedures repository.ProcedureRepository
	Roles      repository.RoleRepository
	Users      repository.UserRepository
	Sessions   repository.SessionRepository

	Keys *auth.KeyStore
	Root *auth.Root

	// OnKeyRotated is called after an Api login replaced the Api's access key.
	OnKeyRotated []func(apiID string, key []byte)
}

// IAMServiceConfig contains configuration for IAM service construction.
type IAMServiceConfig struct {
	// ApiCacheTTL bounds how long Api records are cached on the refresh path.
	ApiCacheTTL time.Duration
}

// NewIAMService creates a new IAM service with all dependencies.
func NewIAMService(deps IAMServiceDependencies, cfg IAMServiceConfig) (Service, error) {
	return newIAMService(deps, cfg)
}

func newIAMService(deps IAMServiceDependencies, cfg IAMServiceConfig) (*iamService, error) {
	switch {
	case deps.Apis == nil, deps.Procedures == nil, deps.Roles == nil, deps.Users == nil, deps.Sessions == nil:
		return nil, fmt.Errorf("iam: all repositories are required")
	case deps.Keys == nil:
		return nil, fmt.Errorf("iam: transport key store is required")
	case deps.Root == nil:
		return nil, fmt.Errorf("iam: root identity is required")
	}

	s := &iamService{
		apis:         deps.Apis,
		procedures:   deps.Procedures,
		roles:        deps.Roles,
		users:        deps.Users,
		sessions:     NewSessionStore(deps.Sessions),
		apiCache:     NewApiCache(deps.Apis, cfg.ApiCacheTTL),
		keys:         deps.Keys,
		root:         deps.Root,
		onKeyRotated: deps.OnKeyRotated,
		now:          time.Now,
		seal:         auth.SealTo,
	}
	s.onKeyRotated = append(s.onKeyRotated, func(apiID string, _ []byte) {
		s.apiCache.Invalidate(apiID)
	})
	return s, nil
}

// LoginKey returns the public transport key of the flow.
func (s *iamService) LoginKey(flow auth.Flow) ([]byte, error) {
	return s.keys.PublicKey(flow)
}

// IdentityFor resolves the identity that owns an auth token.
func (s *iamService) IdentityFor(ctx context.Context, authToken string) (string, error) {
	return s.sessions.IdentityFor(ctx, authToken)
}

// ReadUser returns a user record. The root identity is synthesized.
func (s *iamService) ReadUser(ctx context.Context, userID string) (*models.User, error) {
	if auth.IsRootID(userID) {
		return &models.User{ID: auth.RootID.String(), Name: auth.RootName}, nil
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, storageOr(err)
	}
	return user, nil
}

// ListUserSessions returns the sessions of a user.
func (s *iamService) ListUserSessions(ctx context.Context, userID string) ([]models.Session, error) {
	return s.sessions.List(ctx, userID)
}

// ChangeUserPassword replaces a user's password. The new password arrives
// sealed to the user flow transport key.
func (s *iamService) ChangeUserPassword(ctx context.Context, userID, encryptedPassword string) error {
	if auth.IsRootID(userID) {
		return fmt.Errorf("%w: root password is process configuration", ErrIdentityMismatch)
	}
	plain, err := s.keys.Decrypt(auth.FlowUser, encryptedPassword)
	if err != nil {
		return err
	}
	hash, err := auth.HashPassword(string(plain))
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return storageOr(err)
	}
	return nil
}

// ReadApi returns an Api record.
func (s *iamService) ReadApi(ctx context.Context, apiID string) (*models.Api, error) {
	api, err := s.apis.GetByID(ctx, apiID)
	if err != nil {
		return nil, storageOr(err)
	}
	return api, nil
}

// AccessTable returns the procedure → roles table of an Api.
func (s *iamService) AccessTable(ctx context.Context, apiID string) (map[string][]string, error) {
	rows, err := s.procedures.ListAccess(ctx, apiID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return AccessTableFromRows(rows), nil
}

// ListUserRoleGrants returns the role grants of a user. Access keys are
// stripped.
func (s *iamService) ListUserRoleGrants(ctx context.Context, userID string) ([]models.RoleGrant, error) {
	if auth.IsRootID(userID) {
		g := s.rootGrant()
		g.AccessKey = nil
		return []models.RoleGrant{g}, nil
	}
	grants, err := s.roles.ListGrantsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	for i := range grants {
		grants[i].AccessKey = nil
	}
	return grants, nil
}

// rootGrant is the single implicit grant of the root identity.
func (s *iamService) rootGrant() models.RoleGrant {
	return models.RoleGrant{
		ApiID:           auth.RootID.String(),
		Role:            auth.RootName,
		Multi:           true,
		IPLock:          false,
		AccessDuration:  int32(s.root.AccessDuration() / time.Second),
		RefreshDuration: int32(s.root.RefreshDuration() / time.Second),
		AccessKey:       s.root.Key(),
	}
}

// storageOr keeps not-found errors distinguishable and marks the rest as
// storage failures.
func storageOr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStorage, err)
}
