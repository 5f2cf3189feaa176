package server

import (
	"context"
	"fmt"

	"connectrpc.com/connect"

	authv1 "github.com/terraconstructs/rmcs/api/auth/v1"
	"github.com/terraconstructs/rmcs/api/auth/v1/authv1connect"
	"github.com/terraconstructs/rmcs/internal/auth"
)

// AuthServiceHandler wires the login flows to the rmcs.auth.v1.AuthService
// contract. All of its procedures are public.
type AuthServiceHandler struct {
	service iamAuthService
}

var _ authv1connect.AuthServiceHandler = (*AuthServiceHandler)(nil)

// NewAuthServiceHandler constructs a handler backed by the IAM service.
func NewAuthServiceHandler(service iamAuthService) *AuthServiceHandler {
	return &AuthServiceHandler{service: service}
}

// ApiLoginKey returns the public transport key of the Api login flow.
func (h *AuthServiceHandler) ApiLoginKey(
	_ context.Context,
	_ *connect.Request[authv1.LoginKeyRequest],
) (*connect.Response[authv1.LoginKeyResponse], error) {
	return h.loginKey(auth.FlowAPI)
}

// UserLoginKey returns the public transport key of the user login flow.
func (h *AuthServiceHandler) UserLoginKey(
	_ context.Context,
	_ *connect.Request[authv1.LoginKeyRequest],
) (*connect.Response[authv1.LoginKeyResponse], error) {
	return h.loginKey(auth.FlowUser)
}

func (h *AuthServiceHandler) loginKey(flow auth.Flow) (*connect.Response[authv1.LoginKeyResponse], error) {
	der, err := h.service.LoginKey(flow)
	if err != nil {
		return nil, mapServiceError(err)
	}
	return connect.NewResponse(&authv1.LoginKeyResponse{PublicKey: der}), nil
}

// ApiLogin authenticates an Api and returns its sealed signing keys.
func (h *AuthServiceHandler) ApiLogin(
	ctx context.Context,
	req *connect.Request[authv1.ApiLoginRequest],
) (*connect.Response[authv1.ApiLoginResponse], error) {
	if req.Msg.ApiId == "" || req.Msg.Password == "" || len(req.Msg.PublicKey) == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("api_id, password and public_key are required"))
	}

	res, err := h.service.ApiLogin(ctx, req.Msg.ApiId, req.Msg.Password, req.Msg.PublicKey)
	if err != nil {
		return nil, mapServiceError(err)
	}
	return connect.NewResponse(&authv1.ApiLoginResponse{
		RootKey:   res.RootKey,
		AccessKey: res.AccessKey,
		Access:    res.Access,
	}), nil
}

// UserLogin authenticates a user and returns one token pair per role grant.
func (h *AuthServiceHandler) UserLogin(
	ctx context.Context,
	req *connect.Request[authv1.UserLoginRequest],
) (*connect.Response[authv1.UserLoginResponse], error) {
	if req.Msg.Name == "" || req.Msg.Password == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("name and password are required"))
	}

	res, err := h.service.UserLogin(ctx, req.Msg.Name, req.Msg.Password, auth.GetClientIPFromContext(ctx))
	if err != nil {
		return nil, mapServiceError(err)
	}

	tokens := make([]authv1.UserToken, 0, len(res.Tokens))
	for _, t := range res.Tokens {
		tokens = append(tokens, authv1.UserToken{
			ApiId:        t.ApiID,
			Role:         t.Role,
			AccessToken:  t.AccessToken,
			RefreshToken: t.RefreshToken,
		})
	}
	return connect.NewResponse(&authv1.UserLoginResponse{
		UserId:    res.UserID,
		AuthToken: res.AuthToken,
		Tokens:    tokens,
	}), nil
}

// UserRefresh rotates a refresh token and reissues the access token.
func (h *AuthServiceHandler) UserRefresh(
	ctx context.Context,
	req *connect.Request[authv1.UserRefreshRequest],
) (*connect.Response[authv1.UserRefreshResponse], error) {
	if req.Msg.AccessToken == "" || req.Msg.RefreshToken == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("access_token and refresh_token are required"))
	}

	res, err := h.service.Refresh(ctx, req.Msg.ApiId, req.Msg.AccessToken, req.Msg.RefreshToken, auth.GetClientIPFromContext(ctx))
	if err != nil {
		return nil, mapServiceError(err)
	}
	return connect.NewResponse(&authv1.UserRefreshResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
	}), nil
}

// UserLogout deletes the session batch of the given auth token.
func (h *AuthServiceHandler) UserLogout(
	ctx context.Context,
	req *connect.Request[authv1.UserLogoutRequest],
) (*connect.Response[authv1.UserLogoutResponse], error) {
	authToken := req.Msg.AuthToken
	if authToken == "" {
		authToken, _ = auth.GetBearerFromContext(ctx)
	}
	if req.Msg.UserId == "" || authToken == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("user_id and auth_token are required"))
	}

	if err := h.service.Logout(ctx, req.Msg.UserId, authToken); err != nil {
		return nil, mapServiceError(err)
	}
	return connect.NewResponse(&authv1.UserLogoutResponse{}), nil
}
