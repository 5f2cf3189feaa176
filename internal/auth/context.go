package auth

import "context"

type bearerContextKey struct{}

// SetBearerContext stores the raw bearer token of the request on the context.
func SetBearerContext(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerContextKey{}, token)
}

// GetBearerFromContext returns the bearer token attached by the transport
// interceptor.
func GetBearerFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(bearerContextKey{}).(string)
	return token, ok && token != ""
}

type clientIPContextKey struct{}

// SetClientIPContext stores the caller's network address on the context.
func SetClientIPContext(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// GetClientIPFromContext returns the caller address, if any.
func GetClientIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}
