package iam

import (
	"errors"

	"github.com/terraconstructs/rmcs/internal/auth"
)

// Transport and credential errors are shared with the auth package so that
// callers can match either.
var (
	ErrKeyImport        = auth.ErrKeyImport
	ErrDecrypt          = auth.ErrDecrypt
	ErrPasswordMismatch = auth.ErrPasswordMismatch
	ErrTokenInvalid     = auth.ErrTokenInvalid
	ErrTokenExpired     = auth.ErrTokenExpired
)

var (
	// ErrUnknownIdentity indicates the login name or Api id does not exist.
	ErrUnknownIdentity = errors.New("unknown identity")

	// ErrRefreshMismatch indicates the presented refresh token is not the stored one.
	ErrRefreshMismatch = errors.New("refresh token mismatch")
	// ErrIPMismatch indicates a refresh from an address other than the bound one.
	ErrIPMismatch = errors.New("client address mismatch")
	// ErrSessionExpired indicates a refresh after the session's expiry.
	ErrSessionExpired = errors.New("session expired")

	// ErrSessionNotFound indicates no session matches the token id or auth token.
	ErrSessionNotFound = errors.New("session not found")
	// ErrIssuanceMismatch indicates fewer tokens were minted than role grants exist.
	ErrIssuanceMismatch = errors.New("token issuance mismatch")
	// ErrNoRoleGrant indicates the identity holds no role grant.
	ErrNoRoleGrant = errors.New("no role grant")

	// ErrUnauthenticated indicates a missing or unverifiable bearer token.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrUnknownProcedure indicates the procedure is absent from the access map.
	ErrUnknownProcedure = errors.New("unknown procedure")
	// ErrRoleNotPermitted indicates the caller's role lacks access rights.
	ErrRoleNotPermitted = errors.New("role has no access rights to procedure")
	// ErrIdentityMismatch indicates the caller's session belongs to another identity.
	ErrIdentityMismatch = errors.New("identity mismatch")

	// ErrStorage wraps failures of the backing store.
	ErrStorage = errors.New("storage failure")
)

// IsCredentialError reports whether err must be presented to clients as the
// generic "invalid credentials" status.
func IsCredentialError(err error) bool {
	return errors.Is(err, ErrDecrypt) ||
		errors.Is(err, ErrPasswordMismatch) ||
		errors.Is(err, ErrUnknownIdentity) ||
		errors.Is(err, auth.ErrInvalidHash)
}
