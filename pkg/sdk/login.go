package sdk

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"fmt"

	"connectrpc.com/connect"

	authv1 "github.com/terraconstructs/rmcs/api/auth/v1"
	"github.com/terraconstructs/rmcs/internal/auth"
	"github.com/terraconstructs/rmcs/internal/services/iam"
)

// ApiCredentials are the opened results of an Api login.
type ApiCredentials struct {
	ApiID string
	// RootKey verifies root-signed tokens.
	RootKey []byte
	// AccessKey verifies tokens minted for the Api's roles.
	AccessKey []byte
	// Access is the procedure → roles table of the Api.
	Access map[string][]string
}

// NewGuard builds the authorization guard of a resource service from its
// login credentials.
func (c *ApiCredentials) NewGuard() (*iam.Guard, error) {
	access, err := iam.NewAccessMap(c.Access)
	if err != nil {
		return nil, err
	}
	return iam.NewGuard(c.ApiID, access, c.AccessKey, c.RootKey), nil
}

// Token is the token pair of one role grant.
type Token struct {
	ApiID        string
	Role         string
	AccessToken  string
	RefreshToken string
}

// UserSession is the result of a user login.
type UserSession struct {
	UserID    string
	AuthToken string
	Tokens    []Token
}

// Token returns the token of the given Api and role.
func (s *UserSession) Token(apiID, role string) (Token, bool) {
	for _, t := range s.Tokens {
		if t.ApiID == apiID && t.Role == role {
			return t, true
		}
	}
	return Token{}, false
}

// seal fetches the transport key of flow and seals plaintext to it.
func (c *Client) seal(ctx context.Context, flow, plaintext string) (string, error) {
	var (
		resp *connect.Response[authv1.LoginKeyResponse]
		err  error
	)
	switch flow {
	case authv1.FlowAPI:
		resp, err = c.auth.ApiLoginKey(ctx, connect.NewRequest(&authv1.LoginKeyRequest{}))
	case authv1.FlowUser:
		resp, err = c.auth.UserLoginKey(ctx, connect.NewRequest(&authv1.LoginKeyRequest{}))
	default:
		return "", fmt.Errorf("unknown login flow %q", flow)
	}
	if err != nil {
		return "", fmt.Errorf("fetch %s login key: %w", flow, err)
	}

	pub, err := auth.ImportPublicKey(resp.Msg.PublicKey)
	if err != nil {
		return "", err
	}
	return auth.SealTo(pub, []byte(plaintext))
}

// ApiLogin logs an Api in. A fresh P-256 key pair receives the sealed
// signing keys; its private half never leaves this call.
func (c *Client) ApiLogin(ctx context.Context, apiID, password string) (*ApiCredentials, error) {
	sealed, err := c.seal(ctx, authv1.FlowAPI, password)
	if err != nil {
		return nil, err
	}

	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate login key pair: %w", err)
	}
	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("encode login public key: %w", err)
	}

	resp, err := c.auth.ApiLogin(ctx, connect.NewRequest(&authv1.ApiLoginRequest{
		ApiId:     apiID,
		Password:  sealed,
		PublicKey: der,
	}))
	if err != nil {
		return nil, err
	}

	rootKey, err := auth.Open(priv, resp.Msg.RootKey)
	if err != nil {
		return nil, fmt.Errorf("open root key: %w", err)
	}
	accessKey, err := auth.Open(priv, resp.Msg.AccessKey)
	if err != nil {
		return nil, fmt.Errorf("open access key: %w", err)
	}

	return &ApiCredentials{
		ApiID:     apiID,
		RootKey:   rootKey,
		AccessKey: accessKey,
		Access:    resp.Msg.Access,
	}, nil
}

// UserLogin logs a user (or root) in.
func (c *Client) UserLogin(ctx context.Context, name, password string) (*UserSession, error) {
	sealed, err := c.seal(ctx, authv1.FlowUser, password)
	if err != nil {
		return nil, err
	}

	resp, err := c.auth.UserLogin(ctx, connect.NewRequest(&authv1.UserLoginRequest{
		Name:     name,
		Password: sealed,
	}))
	if err != nil {
		return nil, err
	}

	session := &UserSession{UserID: resp.Msg.UserId, AuthToken: resp.Msg.AuthToken}
	for _, t := range resp.Msg.Tokens {
		session.Tokens = append(session.Tokens, Token{
			ApiID:        t.ApiId,
			Role:         t.Role,
			AccessToken:  t.AccessToken,
			RefreshToken: t.RefreshToken,
		})
	}
	return session, nil
}

// Refresh exchanges a token pair for a new one. The returned token keeps
// the Api and role of t.
func (c *Client) Refresh(ctx context.Context, t Token) (Token, error) {
	resp, err := c.auth.UserRefresh(ctx, connect.NewRequest(&authv1.UserRefreshRequest{
		ApiId:        t.ApiID,
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
	}))
	if err != nil {
		return Token{}, err
	}
	t.AccessToken = resp.Msg.AccessToken
	t.RefreshToken = resp.Msg.RefreshToken
	return t, nil
}

// Logout ends every session created by the login of s.
func (c *Client) Logout(ctx context.Context, s *UserSession) error {
	_, err := c.auth.UserLogout(ctx, connect.NewRequest(&authv1.UserLogoutRequest{
		UserId:    s.UserID,
		AuthToken: s.AuthToken,
	}))
	return err
}
