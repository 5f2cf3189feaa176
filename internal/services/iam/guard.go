package iam

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync/atomic"

	"github.com/terraconstructs/rmcs/internal/auth"
	"github.com/terraconstructs/rmcs/internal/repository"
	"github.com/terraconstructs/rmcs/internal/telemetry"
)

// Guard authorizes RPCs of one Api against its AccessMap. The access key is
// held behind an atomic pointer so an Api login served by the same process
// can swap it without locking readers.
type Guard struct {
	apiID   string
	access  *AccessMap
	rootKey []byte
	key     atomic.Pointer[[]byte]
}

// NewGuard creates a guard for apiID. A nil access map disables
// authorization entirely.
func NewGuard(apiID string, access *AccessMap, accessKey, rootKey []byte) *Guard {
	g := &Guard{
		apiID:   apiID,
		access:  access,
		rootKey: append([]byte(nil), rootKey...),
	}
	g.SetAccessKey(accessKey)
	return g
}

// NewUnsecuredGuard returns a guard that allows every call.
func NewUnsecuredGuard() *Guard {
	return NewGuard("", nil, nil, nil)
}

// LoadGuard builds the guard of apiID from the auth store.
func LoadGuard(ctx context.Context, apis repository.ApiRepository, procedures repository.ProcedureRepository, apiID string, rootKey []byte) (*Guard, error) {
	api, err := apis.GetByID(ctx, apiID)
	if err != nil {
		return nil, fmt.Errorf("load guarded api: %w", err)
	}
	rows, err := procedures.ListAccess(ctx, api.ID)
	if err != nil {
		return nil, fmt.Errorf("load access map: %w", err)
	}
	access, err := NewAccessMap(AccessTableFromRows(rows))
	if err != nil {
		return nil, err
	}
	return NewGuard(api.ID, access, api.AccessKey, rootKey), nil
}

// Secured reports whether the guard enforces an access map.
func (g *Guard) Secured() bool { return g.access != nil }

// SetAccessKey replaces the access key used to verify tokens.
func (g *Guard) SetAccessKey(key []byte) {
	k := append([]byte(nil), key...)
	g.key.Store(&k)
}

// OnKeyRotated follows access key rotations of the guarded Api.
func (g *Guard) OnKeyRotated(apiID string, key []byte) {
	if apiID == g.apiID {
		g.SetAccessKey(key)
	}
}

// Authorize checks that the bearer token on ctx may call procedure.
func (g *Guard) Authorize(ctx context.Context, procedure string) error {
	if g.access == nil {
		return nil
	}

	bearer, ok := auth.GetBearerFromContext(ctx)
	if !ok {
		telemetry.RecordAuthorization(ctx, procedure, false)
		return fmt.Errorf("%w: missing bearer token", ErrUnauthenticated)
	}

	claims, err := g.decode(bearer)
	if err != nil {
		telemetry.RecordAuthorization(ctx, procedure, false)
		return err
	}

	if err := g.access.Permits(claims.Subject, procedure); err != nil {
		log.Printf("authorization denied: role=%s procedure=%s: %v", claims.Subject, procedure, err)
		telemetry.RecordAuthorization(ctx, procedure, false)
		return err
	}
	telemetry.RecordAuthorization(ctx, procedure, true)
	return nil
}

// decode verifies the token with the Api key, then once with the root key.
func (g *Guard) decode(bearer string) (*auth.Claims, error) {
	var key []byte
	if k := g.key.Load(); k != nil {
		key = *k
	}
	claims, err := auth.ParseToken(bearer, key, true)
	if err == nil {
		return claims, nil
	}
	if claims, rootErr := auth.ParseToken(bearer, g.rootKey, true); rootErr == nil {
		return claims, nil
	}
	return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
}

// IdentityResolver resolves the identity owning an auth token.
type IdentityResolver interface {
	IdentityFor(ctx context.Context, authToken string) (string, error)
}

// IdentityGuard authorizes identity management calls: the caller's session
// must belong to the target identity, or to root.
type IdentityGuard struct {
	identities IdentityResolver
}

// NewIdentityGuard creates an identity guard backed by the session store.
func NewIdentityGuard(identities IdentityResolver) *IdentityGuard {
	return &IdentityGuard{identities: identities}
}

// Authorize checks the bearer auth token on ctx against targetID.
func (g *IdentityGuard) Authorize(ctx context.Context, targetID string) error {
	bearer, ok := auth.GetBearerFromContext(ctx)
	if !ok {
		return fmt.Errorf("%w: missing bearer token", ErrUnauthenticated)
	}

	owner, err := g.identities.IdentityFor(ctx, bearer)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return fmt.Errorf("%w: %w", ErrUnauthenticated, err)
		}
		return err
	}

	if auth.IsRootID(owner) || strings.EqualFold(owner, targetID) {
		return nil
	}
	log.Printf("identity guard denied: session owner %s, target %s", owner, targetID)
	return ErrIdentityMismatch
}
