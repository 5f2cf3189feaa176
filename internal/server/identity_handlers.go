package server

import (
	"context"
	"fmt"

	"connectrpc.com/connect"

	authv1 "github.com/terraconstructs/rmcs/api/auth/v1"
	"github.com/terraconstructs/rmcs/api/auth/v1/authv1connect"
)

// IdentityServiceHandler serves identity management. Ownership is checked
// by the authorization interceptor before any method runs.
type IdentityServiceHandler struct {
	service iamAuthService
}

var _ authv1connect.IdentityServiceHandler = (*IdentityServiceHandler)(nil)

func NewIdentityServiceHandler(service iamAuthService) *IdentityServiceHandler {
	return &IdentityServiceHandler{service: service}
}

func (h *IdentityServiceHandler) ReadUser(
	ctx context.Context,
	req *connect.Request[authv1.ReadUserRequest],
) (*connect.Response[authv1.ReadUserResponse], error) {
	user, err := h.service.ReadUser(ctx, req.Msg.UserId)
	if err != nil {
		return nil, mapServiceError(err)
	}
	return connect.NewResponse(&authv1.ReadUserResponse{User: &authv1.User{
		Id:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Phone: user.Phone,
	}}), nil
}

func (h *IdentityServiceHandler) ListUserSessions(
	ctx context.Context,
	req *connect.Request[authv1.ListUserSessionsRequest],
) (*connect.Response[authv1.ListUserSessionsResponse], error) {
	sessions, err := h.service.ListUserSessions(ctx, req.Msg.UserId)
	if err != nil {
		return nil, mapServiceError(err)
	}

	out := make([]authv1.Session, 0, len(sessions))
	for _, s := range sessions {
		session := authv1.Session{
			TokenId:   s.AccessID,
			ExpiresAt: s.ExpiresAt,
			CreatedAt: s.CreatedAt,
		}
		if s.IP != nil {
			session.Ip = *s.IP
		}
		out = append(out, session)
	}
	return connect.NewResponse(&authv1.ListUserSessionsResponse{Sessions: out}), nil
}

func (h *IdentityServiceHandler) ChangeUserPassword(
	ctx context.Context,
	req *connect.Request[authv1.ChangeUserPasswordRequest],
) (*connect.Response[authv1.ChangeUserPasswordResponse], error) {
	if req.Msg.Password == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("password is required"))
	}
	if err := h.service.ChangeUserPassword(ctx, req.Msg.UserId, req.Msg.Password); err != nil {
		return nil, mapServiceError(err)
	}
	return connect.NewResponse(&authv1.ChangeUserPasswordResponse{}), nil
}
