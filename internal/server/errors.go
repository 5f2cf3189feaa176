package server

import (
	"errors"
	"log"

	"connectrpc.com/connect"

	"github.com/terraconstructs/rmcs/internal/middleware"
	"github.com/terraconstructs/rmcs/internal/repository"
	"github.com/terraconstructs/rmcs/internal/services/iam"
)

// ErrInvalidCredentials is the only credential failure clients ever see.
// Which check failed (decryption, unknown name, wrong password) stays in the
// server log.
var ErrInvalidCredentials = errors.New("invalid credentials")

// mapServiceError converts IAM errors to Connect errors.
func mapServiceError(err error) error {
	switch {
	case iam.IsCredentialError(err):
		log.Printf("credential check failed: %v", err)
		return connect.NewError(connect.CodeUnauthenticated, ErrInvalidCredentials)
	case errors.Is(err, iam.ErrKeyImport):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, iam.ErrTokenInvalid),
		errors.Is(err, iam.ErrTokenExpired),
		errors.Is(err, iam.ErrRefreshMismatch),
		errors.Is(err, iam.ErrIPMismatch),
		errors.Is(err, iam.ErrSessionExpired),
		errors.Is(err, iam.ErrSessionNotFound),
		errors.Is(err, iam.ErrUnauthenticated):
		return connect.NewError(connect.CodeUnauthenticated, err)
	case errors.Is(err, repository.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, iam.ErrNoRoleGrant),
		errors.Is(err, iam.ErrIdentityMismatch),
		errors.Is(err, iam.ErrRoleNotPermitted),
		errors.Is(err, iam.ErrUnknownProcedure):
		return middleware.AuthzError(err)
	default:
		// Issuance and storage failures; details stay server side.
		log.Printf("internal error: %v", err)
		return connect.NewError(connect.CodeInternal, errors.New("internal error"))
	}
}
