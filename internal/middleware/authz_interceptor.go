package middleware

import (
	"context"
	"errors"
	"fmt"
	"log"

	"connectrpc.com/connect"

	"github.com/terraconstructs/rmcs/api/auth/v1/authv1connect"
	"github.com/terraconstructs/rmcs/internal/services/iam"
)

// identityTarget is implemented by requests of identity procedures.
type identityTarget interface {
	GetUserId() string
}

// NewAuthzInterceptor creates a Connect UnaryInterceptor that runs the guard
// matching each procedure before the handler. Login procedures are public,
// identity procedures go through the identity guard and everything else
// through the role guard.
func NewAuthzInterceptor(deps AuthzDependencies) connect.UnaryInterceptorFunc {
	return connect.UnaryInterceptorFunc(func(next connect.UnaryFunc) connect.UnaryFunc {
		return connect.UnaryFunc(func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			procedure := req.Spec().Procedure

			var err error
			switch procedure {
			case authv1connect.AuthServiceApiLoginKeyProcedure,
				authv1connect.AuthServiceApiLoginProcedure,
				authv1connect.AuthServiceUserLoginKeyProcedure,
				authv1connect.AuthServiceUserLoginProcedure,
				authv1connect.AuthServiceUserRefreshProcedure,
				authv1connect.AuthServiceUserLogoutProcedure:
				return next(ctx, req)

			case authv1connect.IdentityServiceReadUserProcedure,
				authv1connect.IdentityServiceListUserSessionsProcedure,
				authv1connect.IdentityServiceChangeUserPasswordProcedure:
				target, ok := req.Any().(identityTarget)
				if !ok {
					return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("request of %s carries no user id", procedure))
				}
				if deps.Identity == nil {
					return nil, connect.NewError(connect.CodePermissionDenied, fmt.Errorf("identity guard not configured"))
				}
				err = deps.Identity.Authorize(ctx, target.GetUserId())

			default:
				if deps.Guard == nil {
					return nil, connect.NewError(connect.CodePermissionDenied, fmt.Errorf("no guard configured for %s", procedure))
				}
				err = deps.Guard.Authorize(ctx, procedure)
			}

			if err != nil {
				log.Printf("authorization failed for %s: %v", procedure, err)
				return nil, AuthzError(err)
			}
			return next(ctx, req)
		})
	})
}

// AuthzError converts a guard error to a Connect error. A missing or
// unverifiable token is Unauthenticated; everything else is PermissionDenied.
func AuthzError(err error) *connect.Error {
	switch {
	case errors.Is(err, iam.ErrUnauthenticated),
		errors.Is(err, iam.ErrTokenExpired),
		errors.Is(err, iam.ErrTokenInvalid):
		return connect.NewError(connect.CodeUnauthenticated, err)
	case errors.Is(err, iam.ErrStorage):
		return connect.NewError(connect.CodeInternal, errors.New("authorization unavailable"))
	default:
		return connect.NewError(connect.CodePermissionDenied, err)
	}
}
