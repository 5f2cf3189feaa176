package middleware

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/terraconstructs/rmcs/internal/services/iam"
)

// NewAuthzMiddleware constructs a chi middleware that runs guard for plain
// HTTP routes of a resource service. The request path is the procedure name,
// so Connect handlers mounted under the middleware are guarded by the same
// access map entries as through the interceptor. Paths listed in public skip
// the guard. Bearer must run first.
func NewAuthzMiddleware(guard ProcedureAuthorizer, public ...string) (func(http.Handler) http.Handler, error) {
	if guard == nil {
		return nil, errors.New("authz middleware requires a guard")
	}
	skip := make(map[string]bool, len(public))
	for _, p := range public {
		skip[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			procedure := r.URL.Path
			if skip[procedure] {
				next.ServeHTTP(w, r)
				return
			}

			if err := guard.Authorize(r.Context(), procedure); err != nil {
				log.Printf("authorization failed for %s: %v", procedure, err)
				switch {
				case errors.Is(err, iam.ErrUnauthenticated), errors.Is(err, iam.ErrTokenExpired), errors.Is(err, iam.ErrTokenInvalid):
					unauthenticated(w)
				case errors.Is(err, iam.ErrUnknownProcedure):
					http.NotFound(w, r)
				default:
					http.Error(w, "forbidden", http.StatusForbidden)
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}, nil
}

// DenyAll rejects every request with 403. It stands in for a missing guard.
func DenyAll(http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("authorization failed for %s: no guard configured", r.URL.Path)
		http.Error(w, "forbidden", http.StatusForbidden)
	})
}

func unauthenticated(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="rmcs"`)
	http.Error(w, strings.ToLower(http.StatusText(http.StatusUnauthorized)), http.StatusUnauthorized)
}
