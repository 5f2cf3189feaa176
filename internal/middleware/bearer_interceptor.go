package middleware

import (
	"context"

	"connectrpc.com/connect"

	"github.com/terraconstructs/rmcs/internal/auth"
)

// NewBearerInterceptor creates a Connect interceptor that places the
// Authorization bearer token and the peer address in the context.
//
// Flow:
// 1. Record the peer host (proxy headers only count when the router trusts them)
// 2. Extract Authorization: Bearer header, if any
// 3. Continue; verification happens in the authorization interceptor
func NewBearerInterceptor() connect.UnaryInterceptorFunc {
	return connect.UnaryInterceptorFunc(func(next connect.UnaryFunc) connect.UnaryFunc {
		return connect.UnaryFunc(func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			ctx = auth.SetClientIPContext(ctx, hostOf(req.Peer().Addr))
			if token, ok := bearerFromHeader(req.Header().Get("Authorization")); ok {
				ctx = auth.SetBearerContext(ctx, token)
			}
			return next(ctx, req)
		})
	})
}
