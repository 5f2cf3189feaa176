// Package authv1connect wires the rmcs.auth.v1 services to Connect. It is
// written by hand in the shape of connect-go output, over the JSON codec in
// codec.go.
package authv1connect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	authv1 "github.com/terraconstructs/rmcs/api/auth/v1"
)

const (
	// AuthServiceName is the fully-qualified name of the AuthService service.
	AuthServiceName = "rmcs.auth.v1.AuthService"
	// IdentityServiceName is the fully-qualified name of the IdentityService service.
	IdentityServiceName = "rmcs.auth.v1.IdentityService"
	// AccessServiceName is the fully-qualified name of the AccessService service.
	AccessServiceName = "rmcs.auth.v1.AccessService"
)

// Procedure paths, in the form "/<service>/<method>".
const (
	AuthServiceApiLoginKeyProcedure            = "/rmcs.auth.v1.AuthService/ApiLoginKey"
	AuthServiceApiLoginProcedure               = "/rmcs.auth.v1.AuthService/ApiLogin"
	AuthServiceUserLoginKeyProcedure           = "/rmcs.auth.v1.AuthService/UserLoginKey"
	AuthServiceUserLoginProcedure              = "/rmcs.auth.v1.AuthService/UserLogin"
	AuthServiceUserRefreshProcedure            = "/rmcs.auth.v1.AuthService/UserRefresh"
	AuthServiceUserLogoutProcedure             = "/rmcs.auth.v1.AuthService/UserLogout"
	IdentityServiceReadUserProcedure           = "/rmcs.auth.v1.IdentityService/ReadUser"
	IdentityServiceListUserSessionsProcedure   = "/rmcs.auth.v1.IdentityService/ListUserSessions"
	IdentityServiceChangeUserPasswordProcedure = "/rmcs.auth.v1.IdentityService/ChangeUserPassword"
	AccessServiceReadApiProcedure              = "/rmcs.auth.v1.AccessService/ReadApi"
	AccessServiceListProcedureAccessProcedure  = "/rmcs.auth.v1.AccessService/ListProcedureAccess"
	AccessServiceListUserRoleGrantsProcedure   = "/rmcs.auth.v1.AccessService/ListUserRoleGrants"
)

// AuthServiceClient is a client for the rmcs.auth.v1.AuthService service.
type AuthServiceClient interface {
	ApiLoginKey(context.Context, *connect.Request[authv1.LoginKeyRequest]) (*connect.Response[authv1.LoginKeyResponse], error)
	ApiLogin(context.Context, *connect.Request[authv1.ApiLoginRequest]) (*connect.Response[authv1.ApiLoginResponse], error)
	UserLoginKey(context.Context, *connect.Request[authv1.LoginKeyRequest]) (*connect.Response[authv1.LoginKeyResponse], error)
	UserLogin(context.Context, *connect.Request[authv1.UserLoginRequest]) (*connect.Response[authv1.UserLoginResponse], error)
	UserRefresh(context.Context, *connect.Request[authv1.UserRefreshRequest]) (*connect.Response[authv1.UserRefreshResponse], error)
	UserLogout(context.Context, *connect.Request[authv1.UserLogoutRequest]) (*connect.Response[authv1.UserLogoutResponse], error)
}

// NewAuthServiceClient constructs a client for the rmcs.auth.v1.AuthService
// service. The baseURL is the scheme and host of the server, optionally with
// a path prefix.
func NewAuthServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) AuthServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &authServiceClient{
		apiLoginKey:  connect.NewClient[authv1.LoginKeyRequest, authv1.LoginKeyResponse](httpClient, baseURL+AuthServiceApiLoginKeyProcedure, opts...),
		apiLogin:     connect.NewClient[authv1.ApiLoginRequest, authv1.ApiLoginResponse](httpClient, baseURL+AuthServiceApiLoginProcedure, opts...),
		userLoginKey: connect.NewClient[authv1.LoginKeyRequest, authv1.LoginKeyResponse](httpClient, baseURL+AuthServiceUserLoginKeyProcedure, opts...),
		userLogin:    connect.NewClient[authv1.UserLoginRequest, authv1.UserLoginResponse](httpClient, baseURL+AuthServiceUserLoginProcedure, opts...),
		userRefresh:  connect.NewClient[authv1.UserRefreshRequest, authv1.UserRefreshResponse](httpClient, baseURL+AuthServiceUserRefreshProcedure, opts...),
		userLogout:   connect.NewClient[authv1.UserLogoutRequest, authv1.UserLogoutResponse](httpClient, baseURL+AuthServiceUserLogoutProcedure, opts...),
	}
}

type authServiceClient struct {
	apiLoginKey  *connect.Client[authv1.LoginKeyRequest, authv1.LoginKeyResponse]
	apiLogin     *connect.Client[authv1.ApiLoginRequest, authv1.ApiLoginResponse]
	userLoginKey *connect.Client[authv1.LoginKeyRequest, authv1.LoginKeyResponse]
	userLogin    *connect.Client[authv1.UserLoginRequest, authv1.UserLoginResponse]
	userRefresh  *connect.Client[authv1.UserRefreshRequest, authv1.UserRefreshResponse]
	userLogout   *connect.Client[authv1.UserLogoutRequest, authv1.UserLogoutResponse]
}

func (c *authServiceClient) ApiLoginKey(ctx context.Context, req *connect.Request[authv1.LoginKeyRequest]) (*connect.Response[authv1.LoginKeyResponse], error) {
	return c.apiLoginKey.CallUnary(ctx, req)
}

func (c *authServiceClient) ApiLogin(ctx context.Context, req *connect.Request[authv1.ApiLoginRequest]) (*connect.Response[authv1.ApiLoginResponse], error) {
	return c.apiLogin.CallUnary(ctx, req)
}

func (c *authServiceClient) UserLoginKey(ctx context.Context, req *connect.Request[authv1.LoginKeyRequest]) (*connect.Response[authv1.LoginKeyResponse], error) {
	return c.userLoginKey.CallUnary(ctx, req)
}

func (c *authServiceClient) UserLogin(ctx context.Context, req *connect.Request[authv1.UserLoginRequest]) (*connect.Response[authv1.UserLoginResponse], error) {
	return c.userLogin.CallUnary(ctx, req)
}

func (c *authServiceClient) UserRefresh(ctx context.Context, req *connect.Request[authv1.UserRefreshRequest]) (*connect.Response[authv1.UserRefreshResponse], error) {
	return c.userRefresh.CallUnary(ctx, req)
}

func (c *authServiceClient) UserLogout(ctx context.Context, req *connect.Request[authv1.UserLogoutRequest]) (*connect.Response[authv1.UserLogoutResponse], error) {
	return c.userLogout.CallUnary(ctx, req)
}

// AuthServiceHandler is an implementation of the rmcs.auth.v1.AuthService service.
type AuthServiceHandler interface {
	ApiLoginKey(context.Context, *connect.Request[authv1.LoginKeyRequest]) (*connect.Response[authv1.LoginKeyResponse], error)
	ApiLogin(context.Context, *connect.Request[authv1.ApiLoginRequest]) (*connect.Response[authv1.ApiLoginResponse], error)
	UserLoginKey(context.Context, *connect.Request[authv1.LoginKeyRequest]) (*connect.Response[authv1.LoginKeyResponse], error)
	UserLogin(context.Context, *connect.Request[authv1.UserLoginRequest]) (*connect.Response[authv1.UserLoginResponse], error)
	UserRefresh(context.Context, *connect.Request[authv1.UserRefreshRequest]) (*connect.Response[authv1.UserRefreshResponse], error)
	UserLogout(context.Context, *connect.Request[authv1.UserLogoutRequest]) (*connect.Response[authv1.UserLogoutResponse], error)
}

// NewAuthServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself.
func NewAuthServiceHandler(svc AuthServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(AuthServiceApiLoginKeyProcedure, connect.NewUnaryHandler(AuthServiceApiLoginKeyProcedure, svc.ApiLoginKey, opts...))
	mux.Handle(AuthServiceApiLoginProcedure, connect.NewUnaryHandler(AuthServiceApiLoginProcedure, svc.ApiLogin, opts...))
	mux.Handle(AuthServiceUserLoginKeyProcedure, connect.NewUnaryHandler(AuthServiceUserLoginKeyProcedure, svc.UserLoginKey, opts...))
	mux.Handle(AuthServiceUserLoginProcedure, connect.NewUnaryHandler(AuthServiceUserLoginProcedure, svc.UserLogin, opts...))
	mux.Handle(AuthServiceUserRefreshProcedure, connect.NewUnaryHandler(AuthServiceUserRefreshProcedure, svc.UserRefresh, opts...))
	mux.Handle(AuthServiceUserLogoutProcedure, connect.NewUnaryHandler(AuthServiceUserLogoutProcedure, svc.UserLogout, opts...))
	return "/" + AuthServiceName + "/", mux
}

// IdentityServiceClient is a client for the rmcs.auth.v1.IdentityService service.
type IdentityServiceClient interface {
	ReadUser(context.Context, *connect.Request[authv1.ReadUserRequest]) (*connect.Response[authv1.ReadUserResponse], error)
	ListUserSessions(context.Context, *connect.Request[authv1.ListUserSessionsRequest]) (*connect.Response[authv1.ListUserSessionsResponse], error)
	ChangeUserPassword(context.Context, *connect.Request[authv1.ChangeUserPasswordRequest]) (*connect.Response[authv1.ChangeUserPasswordResponse], error)
}

// NewIdentityServiceClient constructs a client for the
// rmcs.auth.v1.IdentityService service.
func NewIdentityServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) IdentityServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &identityServiceClient{
		readUser:           connect.NewClient[authv1.ReadUserRequest, authv1.ReadUserResponse](httpClient, baseURL+IdentityServiceReadUserProcedure, opts...),
		listUserSessions:   connect.NewClient[authv1.ListUserSessionsRequest, authv1.ListUserSessionsResponse](httpClient, baseURL+IdentityServiceListUserSessionsProcedure, opts...),
		changeUserPassword: connect.NewClient[authv1.ChangeUserPasswordRequest, authv1.ChangeUserPasswordResponse](httpClient, baseURL+IdentityServiceChangeUserPasswordProcedure, opts...),
	}
}

type identityServiceClient struct {
	readUser           *connect.Client[authv1.ReadUserRequest, authv1.ReadUserResponse]
	listUserSessions   *connect.Client[authv1.ListUserSessionsRequest, authv1.ListUserSessionsResponse]
	changeUserPassword *connect.Client[authv1.ChangeUserPasswordRequest, authv1.ChangeUserPasswordResponse]
}

func (c *identityServiceClient) ReadUser(ctx context.Context, req *connect.Request[authv1.ReadUserRequest]) (*connect.Response[authv1.ReadUserResponse], error) {
	return c.readUser.CallUnary(ctx, req)
}

func (c *identityServiceClient) ListUserSessions(ctx context.Context, req *connect.Request[authv1.ListUserSessionsRequest]) (*connect.Response[authv1.ListUserSessionsResponse], error) {
	return c.listUserSessions.CallUnary(ctx, req)
}

func (c *identityServiceClient) ChangeUserPassword(ctx context.Context, req *connect.Request[authv1.ChangeUserPasswordRequest]) (*connect.Response[authv1.ChangeUserPasswordResponse], error) {
	return c.changeUserPassword.CallUnary(ctx, req)
}

// IdentityServiceHandler is an implementation of the
// rmcs.auth.v1.IdentityService service.
type IdentityServiceHandler interface {
	ReadUser(context.Context, *connect.Request[authv1.ReadUserRequest]) (*connect.Response[authv1.ReadUserResponse], error)
	ListUserSessions(context.Context, *connect.Request[authv1.ListUserSessionsRequest]) (*connect.Response[authv1.ListUserSessionsResponse], error)
	ChangeUserPassword(context.Context, *connect.Request[authv1.ChangeUserPasswordRequest]) (*connect.Response[authv1.ChangeUserPasswordResponse], error)
}

// NewIdentityServiceHandler builds an HTTP handler from the service
// implementation.
func NewIdentityServiceHandler(svc IdentityServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(IdentityServiceReadUserProcedure, connect.NewUnaryHandler(IdentityServiceReadUserProcedure, svc.ReadUser, opts...))
	mux.Handle(IdentityServiceListUserSessionsProcedure, connect.NewUnaryHandler(IdentityServiceListUserSessionsProcedure, svc.ListUserSessions, opts...))
	mux.Handle(IdentityServiceChangeUserPasswordProcedure, connect.NewUnaryHandler(IdentityServiceChangeUserPasswordProcedure, svc.ChangeUserPassword, opts...))
	return "/" + IdentityServiceName + "/", mux
}

// AccessServiceClient is a client for the rmcs.auth.v1.AccessService service.
type AccessServiceClient interface {
	ReadApi(context.Context, *connect.Request[authv1.ReadApiRequest]) (*connect.Response[authv1.ReadApiResponse], error)
	ListProcedureAccess(context.Context, *connect.Request[authv1.ListProcedureAccessRequest]) (*connect.Response[authv1.ListProcedureAccessResponse], error)
	ListUserRoleGrants(context.Context, *connect.Request[authv1.ListUserRoleGrantsRequest]) (*connect.Response[authv1.ListUserRoleGrantsResponse], error)
}

// NewAccessServiceClient constructs a client for the
// rmcs.auth.v1.AccessService service.
func NewAccessServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) AccessServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &accessServiceClient{
		readApi:             connect.NewClient[authv1.ReadApiRequest, authv1.ReadApiResponse](httpClient, baseURL+AccessServiceReadApiProcedure, opts...),
		listProcedureAccess: connect.NewClient[authv1.ListProcedureAccessRequest, authv1.ListProcedureAccessResponse](httpClient, baseURL+AccessServiceListProcedureAccessProcedure, opts...),
		listUserRoleGrants:  connect.NewClient[authv1.ListUserRoleGrantsRequest, authv1.ListUserRoleGrantsResponse](httpClient, baseURL+AccessServiceListUserRoleGrantsProcedure, opts...),
	}
}

type accessServiceClient struct {
	readApi             *connect.Client[authv1.ReadApiRequest, authv1.ReadApiResponse]
	listProcedureAccess *connect.Client[authv1.ListProcedureAccessRequest, authv1.ListProcedureAccessResponse]
	listUserRoleGrants  *connect.Client[authv1.ListUserRoleGrantsRequest, authv1.ListUserRoleGrantsResponse]
}

func (c *accessServiceClient) ReadApi(ctx context.Context, req *connect.Request[authv1.ReadApiRequest]) (*connect.Response[authv1.ReadApiResponse], error) {
	return c.readApi.CallUnary(ctx, req)
}

func (c *accessServiceClient) ListProcedureAccess(ctx context.Context, req *connect.Request[authv1.ListProcedureAccessRequest]) (*connect.Response[authv1.ListProcedureAccessResponse], error) {
	return c.listProcedureAccess.CallUnary(ctx, req)
}

func (c *accessServiceClient) ListUserRoleGrants(ctx context.Context, req *connect.Request[authv1.ListUserRoleGrantsRequest]) (*connect.Response[authv1.ListUserRoleGrantsResponse], error) {
	return c.listUserRoleGrants.CallUnary(ctx, req)
}

// AccessServiceHandler is an implementation of the
// rmcs.auth.v1.AccessService service.
type AccessServiceHandler interface {
	ReadApi(context.Context, *connect.Request[authv1.ReadApiRequest]) (*connect.Response[authv1.ReadApiResponse], error)
	ListProcedureAccess(context.Context, *connect.Request[authv1.ListProcedureAccessRequest]) (*connect.Response[authv1.ListProcedureAccessResponse], error)
	ListUserRoleGrants(context.Context, *connect.Request[authv1.ListUserRoleGrantsRequest]) (*connect.Response[authv1.ListUserRoleGrantsResponse], error)
}

// NewAccessServiceHandler builds an HTTP handler from the service
// implementation.
func NewAccessServiceHandler(svc AccessServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(AccessServiceReadApiProcedure, connect.NewUnaryHandler(AccessServiceReadApiProcedure, svc.ReadApi, opts...))
	mux.Handle(AccessServiceListProcedureAccessProcedure, connect.NewUnaryHandler(AccessServiceListProcedureAccessProcedure, svc.ListProcedureAccess, opts...))
	mux.Handle(AccessServiceListUserRoleGrantsProcedure, connect.NewUnaryHandler(AccessServiceListUserRoleGrantsProcedure, svc.ListUserRoleGrants, opts...))
	return "/" + AccessServiceName + "/", mux
}
