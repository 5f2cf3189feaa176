package server

import (
	"context"

	"connectrpc.com/connect"

	authv1 "github.com/terraconstructs/rmcs/api/auth/v1"
	"github.com/terraconstructs/rmcs/api/auth/v1/authv1connect"
)

// AccessServiceHandler exposes Api and role grant data to callers whose
// role is permitted by the auth server's own access map.
type AccessServiceHandler struct {
	service iamAuthService
}

var _ authv1connect.AccessServiceHandler = (*AccessServiceHandler)(nil)

func NewAccessServiceHandler(service iamAuthService) *AccessServiceHandler {
	return &AccessServiceHandler{service: service}
}

func (h *AccessServiceHandler) ReadApi(
	ctx context.Context,
	req *connect.Request[authv1.ReadApiRequest],
) (*connect.Response[authv1.ReadApiResponse], error) {
	api, err := h.service.ReadApi(ctx, req.Msg.ApiId)
	if err != nil {
		return nil, mapServiceError(err)
	}
	return connect.NewResponse(&authv1.ReadApiResponse{Api: &authv1.Api{
		Id:          api.ID,
		Name:        api.Name,
		Address:     api.Address,
		Category:    api.Category,
		Description: api.Description,
	}}), nil
}

func (h *AccessServiceHandler) ListProcedureAccess(
	ctx context.Context,
	req *connect.Request[authv1.ListProcedureAccessRequest],
) (*connect.Response[authv1.ListProcedureAccessResponse], error) {
	table, err := h.service.AccessTable(ctx, req.Msg.ApiId)
	if err != nil {
		return nil, mapServiceError(err)
	}
	return connect.NewResponse(&authv1.ListProcedureAccessResponse{Access: table}), nil
}

func (h *AccessServiceHandler) ListUserRoleGrants(
	ctx context.Context,
	req *connect.Request[authv1.ListUserRoleGrantsRequest],
) (*connect.Response[authv1.ListUserRoleGrantsResponse], error) {
	grants, err := h.service.ListUserRoleGrants(ctx, req.Msg.UserId)
	if err != nil {
		return nil, mapServiceError(err)
	}

	out := make([]authv1.RoleGrant, 0, len(grants))
	for _, g := range grants {
		out = append(out, authv1.RoleGrant{
			ApiId:           g.ApiID,
			Role:            g.Role,
			Multi:           g.Multi,
			IpLock:          g.IPLock,
			AccessDuration:  g.AccessDuration,
			RefreshDuration: g.RefreshDuration,
		})
	}
	return connect.NewResponse(&authv1.ListUserRoleGrantsResponse{Grants: out}), nil
}
