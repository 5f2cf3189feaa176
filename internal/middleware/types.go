package middleware

import (
	"context"

	"github.com/terraconstructs/rmcs/internal/services/iam"
)

// ProcedureAuthorizer decides whether the bearer on ctx may call procedure.
type ProcedureAuthorizer interface {
	Authorize(ctx context.Context, procedure string) error
}

// IdentityAuthorizer decides whether the bearer on ctx may act on the
// identity targetID.
type IdentityAuthorizer interface {
	Authorize(ctx context.Context, targetID string) error
}

// AuthzDependencies provides the guards used by the authorization layer.
type AuthzDependencies struct {
	// Guard checks role access for resource procedures.
	Guard ProcedureAuthorizer
	// Identity checks ownership for identity management procedures.
	Identity IdentityAuthorizer
}

var (
	_ ProcedureAuthorizer = (*iam.Guard)(nil)
	_ IdentityAuthorizer  = (*iam.IdentityGuard)(nil)
)
