package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/terraconstructs/rmcs/internal/auth"
)

const bearerPrefix = "Bearer "

// bearerFromHeader returns the token of an "Authorization: Bearer <token>"
// header value.
func bearerFromHeader(header string) (string, bool) {
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	return token, token != ""
}

// hostOf strips the port from a remote address.
func hostOf(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

// Bearer attaches the bearer token and the client address of plain HTTP
// requests to the request context. It never rejects a request; that is the
// authorization layer's job.
func Bearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := auth.SetClientIPContext(r.Context(), hostOf(r.RemoteAddr))
		if token, ok := bearerFromHeader(r.Header.Get("Authorization")); ok {
			ctx = auth.SetBearerContext(ctx, token)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
