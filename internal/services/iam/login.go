package iam

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/terraconstructs/rmcs/internal/auth"
	"github.com/terraconstructs/rmcs/internal/db/models"
	"github.com/terraconstructs/rmcs/internal/repository"
	"github.com/terraconstructs/rmcs/internal/telemetry"
)

const tracerName = "rmcsapi/services/iam"

type loginState int

const (
	stateAwaitingKeyRequest loginState = iota
	stateKeyIssued
	stateCredentialSubmitted
	stateVerified
	stateTokensMinted
	stateResponseSent
)

func (s loginState) String() string {
	switch s {
	case stateAwaitingKeyRequest:
		return "awaiting_key_request"
	case stateKeyIssued:
		return "key_issued"
	case stateCredentialSubmitted:
		return "credential_submitted"
	case stateVerified:
		return "verified"
	case stateTokensMinted:
		return "tokens_minted"
	case stateResponseSent:
		return "response_sent"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// loginFlow tracks one login attempt. Every failure is logged with the state
// it happened in; the error itself is returned unchanged.
type loginFlow struct {
	ctx   context.Context
	name  string
	state loginState
	span  trace.Span
}

func (s *iamService) startFlow(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, *loginFlow) {
	attrs = append(attrs, attribute.String(telemetry.AttrLoginFlow, name))
	ctx, span := telemetry.StartSpan(ctx, tracerName, "iam."+name, attrs...)
	// The transport key was requested before the login RPC arrived.
	f := &loginFlow{ctx: ctx, name: name, state: stateKeyIssued, span: span}
	f.advance(stateCredentialSubmitted)
	return ctx, f
}

func (f *loginFlow) advance(next loginState) {
	f.state = next
	telemetry.AddEvent(f.span, "login.state", attribute.String(telemetry.AttrLoginState, next.String()))
}

func (f *loginFlow) fail(err error) error {
	log.Printf("%s failed in state %s: %v", f.name, f.state, err)
	telemetry.RecordError(f.span, err)
	telemetry.RecordLogin(f.ctx, f.name, err)
	f.span.End()
	return err
}

func (f *loginFlow) done() {
	f.advance(stateResponseSent)
	telemetry.RecordLogin(f.ctx, f.name, nil)
	f.span.End()
}

// ApiLogin authenticates an Api, rotates its access key and returns the root
// and access keys sealed to callerKey together with the Api's access table.
func (s *iamService) ApiLogin(ctx context.Context, apiID, encryptedPassword string, callerKey []byte) (*ApiLoginResult, error) {
	ctx, flow := s.startFlow(ctx, "api_login", attribute.String(telemetry.AttrApiID, apiID))

	// Unknown ids still go through decryption so both paths cost the same.
	plain, err := s.keys.Decrypt(auth.FlowAPI, encryptedPassword)
	if err != nil {
		return nil, flow.fail(err)
	}
	api, err := s.apis.GetByID(ctx, apiID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, flow.fail(fmt.Errorf("%w: api %s", ErrUnknownIdentity, apiID))
		}
		return nil, flow.fail(fmt.Errorf("%w: %w", ErrStorage, err))
	}
	if err := auth.VerifyPassword(string(plain), api.PasswordHash); err != nil {
		return nil, flow.fail(err)
	}
	flow.advance(stateVerified)

	pub, err := auth.ImportPublicKey(callerKey)
	if err != nil {
		return nil, flow.fail(err)
	}

	// Both keys are sealed before the rotation is persisted; a failed seal
	// leaves the current key and its tokens in place.
	newKey, err := auth.GenerateAccessKey()
	if err != nil {
		return nil, flow.fail(err)
	}
	sealedRoot, err := s.seal(pub, s.root.Key())
	if err != nil {
		return nil, flow.fail(err)
	}
	sealedAccess, err := s.seal(pub, newKey)
	if err != nil {
		return nil, flow.fail(err)
	}

	if err := s.apis.UpdateAccessKey(ctx, api.ID, newKey); err != nil {
		return nil, flow.fail(fmt.Errorf("%w: %w", ErrStorage, err))
	}
	for _, hook := range s.onKeyRotated {
		hook(api.ID, newKey)
	}
	flow.advance(stateTokensMinted)

	table, err := s.AccessTable(ctx, api.ID)
	if err != nil {
		return nil, flow.fail(err)
	}

	flow.done()
	log.Printf("api login: api=%s procedures=%d", api.ID, len(table))
	return &ApiLoginResult{RootKey: sealedRoot, AccessKey: sealedAccess, Access: table}, nil
}

// UserLogin authenticates a user (or root) and mints one access token per
// role grant, all backed by one session batch.
func (s *iamService) UserLogin(ctx context.Context, name, encryptedPassword, clientIP string) (*UserLoginResult, error) {
	ctx, flow := s.startFlow(ctx, "user_login")

	userID, grants, err := s.verifyUser(ctx, name, encryptedPassword)
	if err != nil {
		return nil, flow.fail(err)
	}
	flow.advance(stateVerified)
	flow.span.SetAttributes(attribute.String(telemetry.AttrUserID, userID))

	if len(grants) == 0 {
		return nil, flow.fail(fmt.Errorf("%w: user %s", ErrNoRoleGrant, userID))
	}

	policy := sessionPolicyFor(grants)
	if !policy.multi {
		if err := s.sessions.EvictAll(ctx, userID); err != nil {
			return nil, flow.fail(err)
		}
	}
	var ip *string
	if policy.ipLock {
		bound := clientIP
		ip = &bound
	}

	authToken, issued, err := s.sessions.CreateSessions(ctx, userID, s.now().Add(policy.sessionDuration), ip, len(grants))
	if err != nil {
		return nil, flow.fail(err)
	}

	tokens := make([]UserToken, 0, len(grants))
	for i, grant := range grants {
		access, err := auth.IssueToken(issued[i].TokenID, grant.Role, seconds(grant.AccessDuration), grant.AccessKey)
		if err != nil {
			log.Printf("user login: mint token for role %s of api %s: %v", grant.Role, grant.ApiID, err)
			continue
		}
		tokens = append(tokens, UserToken{
			ApiID:        grant.ApiID,
			Role:         grant.Role,
			AccessToken:  access,
			RefreshToken: issued[i].RefreshToken,
		})
	}
	if len(tokens) != len(grants) {
		if err := s.sessions.Revoke(ctx, authToken, userID); err != nil {
			log.Printf("user login: discard partial session batch: %v", err)
		}
		return nil, flow.fail(fmt.Errorf("%w: minted %d of %d", ErrIssuanceMismatch, len(tokens), len(grants)))
	}
	flow.advance(stateTokensMinted)

	flow.done()
	return &UserLoginResult{UserID: userID, AuthToken: authToken, Tokens: tokens}, nil
}

// verifyUser resolves the identity, opens the password and checks it.
// Unknown names still go through decryption so both paths cost the same.
func (s *iamService) verifyUser(ctx context.Context, name, encryptedPassword string) (string, []models.RoleGrant, error) {
	if auth.IsRootName(name) {
		plain, err := s.keys.Decrypt(auth.FlowUser, encryptedPassword)
		if err != nil {
			return "", nil, err
		}
		if err := s.root.VerifyPassword(ctx, plain); err != nil {
			return "", nil, err
		}
		return auth.RootID.String(), []models.RoleGrant{s.rootGrant()}, nil
	}

	user, lookupErr := s.users.GetByName(ctx, name)
	if lookupErr != nil && !errors.Is(lookupErr, repository.ErrNotFound) {
		return "", nil, fmt.Errorf("%w: %w", ErrStorage, lookupErr)
	}

	plain, err := s.keys.Decrypt(auth.FlowUser, encryptedPassword)
	if err != nil {
		return "", nil, err
	}
	if lookupErr != nil {
		return "", nil, fmt.Errorf("%w: user %q", ErrUnknownIdentity, name)
	}
	if err := auth.VerifyPassword(string(plain), user.PasswordHash); err != nil {
		return "", nil, err
	}

	grants, err := s.roles.ListGrantsForUser(ctx, user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return user.ID, grants, nil
}

type sessionPolicy struct {
	multi           bool
	ipLock          bool
	sessionDuration time.Duration
}

// sessionPolicyFor folds the grants of one identity into one policy: multi
// only if every grant allows it, ip lock if any grant asks for it, and the
// shortest refresh duration.
func sessionPolicyFor(grants []models.RoleGrant) sessionPolicy {
	p := sessionPolicy{multi: true}
	for i, g := range grants {
		if !g.Multi {
			p.multi = false
		}
		if g.IPLock {
			p.ipLock = true
		}
		d := seconds(g.RefreshDuration)
		if i == 0 || d < p.sessionDuration {
			p.sessionDuration = d
		}
	}
	return p
}

// Refresh exchanges a (possibly expired) access token and its refresh token
// for a new pair. The new access token keeps the original lifetime and key.
func (s *iamService) Refresh(ctx context.Context, apiID, accessToken, refreshToken, clientIP string) (*RefreshResult, error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "iam.refresh", attribute.String(telemetry.AttrApiID, apiID))
	defer span.End()

	key := s.signingKeyFor(ctx, apiID)
	claims, err := auth.ParseToken(accessToken, key, false)
	if err != nil {
		log.Printf("refresh: decode access token for api %s: %v", apiID, err)
		telemetry.RecordError(span, err)
		return nil, err
	}

	next, err := s.sessions.Refresh(ctx, claims.TokenID, refreshToken, clientIP)
	if err != nil {
		log.Printf("refresh: session %d: %v", claims.TokenID, err)
		telemetry.RecordError(span, err)
		return nil, err
	}

	access, err := auth.IssueToken(claims.TokenID, claims.Subject, claims.Lifetime(), key)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return &RefreshResult{AccessToken: access, RefreshToken: next}, nil
}

// signingKeyFor returns the Api's current access key, or the root key for
// the root sentinel and for Apis that cannot be loaded.
func (s *iamService) signingKeyFor(ctx context.Context, apiID string) []byte {
	if auth.IsRootID(apiID) {
		return s.root.Key()
	}
	api, err := s.apiCache.Get(ctx, apiID)
	if err != nil {
		log.Printf("refresh: load api %s, falling back to root key: %v", apiID, err)
		return s.root.Key()
	}
	return api.AccessKey
}

// Logout deletes the session batch of authToken, which must belong to userID.
func (s *iamService) Logout(ctx context.Context, userID, authToken string) error {
	if err := s.sessions.Revoke(ctx, authToken, userID); err != nil {
		log.Printf("logout: user %s: %v", userID, err)
		return err
	}
	return nil
}

func seconds(n int32) time.Duration {
	return time.Duration(n) * time.Second
}
