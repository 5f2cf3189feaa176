package iam

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/terraconstructs/rmcs/internal/auth"
	"github.com/terraconstructs/rmcs/internal/db/models"
	"github.com/terraconstructs/rmcs/internal/repository"
)

// IssuedSession is one freshly created session. RefreshToken is the only
// copy of the plaintext refresh token; the store keeps its hash.
type IssuedSession struct {
	TokenID      int32
	RefreshToken string
}

// SessionStore applies the session lifecycle rules on top of a
// SessionRepository.
type SessionStore struct {
	sessions repository.SessionRepository
	now      func() time.Time
}

// NewSessionStore wraps a session repository.
func NewSessionStore(sessions repository.SessionRepository) *SessionStore {
	return &SessionStore{sessions: sessions, now: time.Now}
}

// CreateSessions creates count sessions for one login in a single
// transaction. All sessions share the returned auth token. A nil ip leaves
// the sessions unbound.
func (s *SessionStore) CreateSessions(ctx context.Context, userID string, expiresAt time.Time, ip *string, count int) (string, []IssuedSession, error) {
	if count <= 0 {
		return "", nil, ErrNoRoleGrant
	}

	authToken, authHash, err := auth.GenerateBearerToken()
	if err != nil {
		return "", nil, err
	}

	rows := make([]*models.Session, count)
	issued := make([]IssuedSession, count)
	for i := range rows {
		refresh, refreshHash, err := auth.GenerateBearerToken()
		if err != nil {
			return "", nil, err
		}
		rows[i] = &models.Session{
			UserID:           userID,
			AuthTokenHash:    authHash,
			RefreshTokenHash: refreshHash,
			ExpiresAt:        expiresAt.UTC(),
			IP:               ip,
		}
		issued[i].RefreshToken = refresh
	}

	created, err := s.sessions.CreateBatch(ctx, rows)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if created != count {
		return "", nil, fmt.Errorf("%w: created %d of %d sessions", ErrIssuanceMismatch, created, count)
	}
	for i, row := range rows {
		issued[i].TokenID = row.AccessID
	}
	return authToken, issued, nil
}

// Refresh rotates the refresh token of session tokenID. The presented token
// must equal the stored one and, when the session is bound to an address,
// ip must equal it. Token id and expiry are preserved.
func (s *SessionStore) Refresh(ctx context.Context, tokenID int32, presented, ip string) (string, error) {
	session, err := s.sessions.GetByAccessID(ctx, tokenID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", fmt.Errorf("%w: token id %d", ErrSessionNotFound, tokenID)
		}
		return "", fmt.Errorf("%w: %w", ErrStorage, err)
	}

	presentedHash := auth.HashBearerToken(presented)
	if subtle.ConstantTimeCompare([]byte(presentedHash), []byte(session.RefreshTokenHash)) != 1 {
		return "", ErrRefreshMismatch
	}
	if session.IP != nil && *session.IP != ip {
		return "", ErrIPMismatch
	}
	if !s.now().Before(session.ExpiresAt) {
		return "", ErrSessionExpired
	}

	next, nextHash, err := auth.GenerateBearerToken()
	if err != nil {
		return "", err
	}
	swapped, err := s.sessions.RotateRefreshToken(ctx, tokenID, session.RefreshTokenHash, nextHash)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if !swapped {
		// A concurrent refresh consumed the token first.
		return "", ErrRefreshMismatch
	}
	return next, nil
}

// EvictAll deletes every session of userID.
func (s *SessionStore) EvictAll(ctx context.Context, userID string) error {
	if _, err := s.sessions.DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return nil
}

// Revoke deletes the session batch created by the login that issued
// authToken, after checking it belongs to userID.
func (s *SessionStore) Revoke(ctx context.Context, authToken, userID string) error {
	owner, err := s.IdentityFor(ctx, authToken)
	if err != nil {
		return err
	}
	if owner != userID {
		return ErrIdentityMismatch
	}

	n, err := s.sessions.DeleteByAuthTokenHash(ctx, auth.HashBearerToken(authToken), userID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// IdentityFor returns the identity that owns the sessions of authToken.
func (s *SessionStore) IdentityFor(ctx context.Context, authToken string) (string, error) {
	if authToken == "" {
		return "", ErrSessionNotFound
	}
	sessions, err := s.sessions.ListByAuthTokenHash(ctx, auth.HashBearerToken(authToken))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if len(sessions) == 0 {
		return "", ErrSessionNotFound
	}
	owner := sessions[0].UserID
	for _, session := range sessions[1:] {
		if session.UserID != owner {
			return "", ErrIdentityMismatch
		}
	}
	return owner, nil
}

// List returns the sessions of userID.
func (s *SessionStore) List(ctx context.Context, userID string) ([]models.Session, error) {
	sessions, err := s.sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return sessions, nil
}
