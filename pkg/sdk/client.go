// Package sdk is the client side of the RMCS login protocol. It fetches
// transport keys, seals passwords, performs Api and user logins and opens
// the sealed signing keys an Api login returns.
package sdk

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	authv1 "github.com/terraconstructs/rmcs/api/auth/v1"
	"github.com/terraconstructs/rmcs/api/auth/v1/authv1connect"
)

// Client provides a high-level interface to the RMCS auth server.
// It wraps the Connect RPC clients with ergonomic methods.
type Client struct {
	auth     authv1connect.AuthServiceClient
	identity authv1connect.IdentityServiceClient
	access   authv1connect.AccessServiceClient
	baseURL  string
}

// ClientOptions configures SDK client construction.
type ClientOptions struct {
	HTTPClient *http.Client
}

// ClientOption mutates ClientOptions.
type ClientOption func(*ClientOptions)

// WithHTTPClient overrides the HTTP client used for RPC calls.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(opts *ClientOptions) {
		opts.HTTPClient = client
	}
}

// NewClient creates a client for the auth server at baseURL.
// An http.Client is created automatically when one is not supplied.
func NewClient(baseURL string, optFns ...ClientOption) *Client {
	opts := ClientOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Client{
		auth:     authv1connect.NewAuthServiceClient(opts.HTTPClient, baseURL),
		identity: authv1connect.NewIdentityServiceClient(opts.HTTPClient, baseURL),
		access:   authv1connect.NewAccessServiceClient(opts.HTTPClient, baseURL),
		baseURL:  baseURL,
	}
}

// BaseURL returns the server address the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

func withBearer[T any](msg *T, token string) *connect.Request[T] {
	req := connect.NewRequest(msg)
	if token != "" {
		req.Header().Set("Authorization", "Bearer "+token)
	}
	return req
}

// ReadUser returns a user record. authToken is the auth token of a login of
// that user (or of root).
func (c *Client) ReadUser(ctx context.Context, authToken, userID string) (*authv1.User, error) {
	resp, err := c.identity.ReadUser(ctx, withBearer(&authv1.ReadUserRequest{UserId: userID}, authToken))
	if err != nil {
		return nil, err
	}
	return resp.Msg.User, nil
}

// ListUserSessions returns the sessions of a user.
func (c *Client) ListUserSessions(ctx context.Context, authToken, userID string) ([]authv1.Session, error) {
	resp, err := c.identity.ListUserSessions(ctx, withBearer(&authv1.ListUserSessionsRequest{UserId: userID}, authToken))
	if err != nil {
		return nil, err
	}
	return resp.Msg.Sessions, nil
}

// ChangeUserPassword seals newPassword to the user flow key and replaces
// the user's password.
func (c *Client) ChangeUserPassword(ctx context.Context, authToken, userID, newPassword string) error {
	sealed, err := c.seal(ctx, authv1.FlowUser, newPassword)
	if err != nil {
		return err
	}
	_, err = c.identity.ChangeUserPassword(ctx, withBearer(&authv1.ChangeUserPasswordRequest{UserId: userID, Password: sealed}, authToken))
	return err
}

// ReadApi returns an Api record. accessToken must carry a role the auth
// server permits for the call.
func (c *Client) ReadApi(ctx context.Context, accessToken, apiID string) (*authv1.Api, error) {
	resp, err := c.access.ReadApi(ctx, withBearer(&authv1.ReadApiRequest{ApiId: apiID}, accessToken))
	if err != nil {
		return nil, err
	}
	return resp.Msg.Api, nil
}

// ListProcedureAccess returns the procedure → roles table of an Api.
func (c *Client) ListProcedureAccess(ctx context.Context, accessToken, apiID string) (map[string][]string, error) {
	resp, err := c.access.ListProcedureAccess(ctx, withBearer(&authv1.ListProcedureAccessRequest{ApiId: apiID}, accessToken))
	if err != nil {
		return nil, err
	}
	return resp.Msg.Access, nil
}

// ListUserRoleGrants returns the role grants of a user.
func (c *Client) ListUserRoleGrants(ctx context.Context, accessToken, userID string) ([]authv1.RoleGrant, error) {
	resp, err := c.access.ListUserRoleGrants(ctx, withBearer(&authv1.ListUserRoleGrantsRequest{UserId: userID}, accessToken))
	if err != nil {
		return nil, err
	}
	return resp.Msg.Grants, nil
}
