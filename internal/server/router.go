package server

import (
	"log"
	"net/http"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/terraconstructs/rmcs/api/auth/v1/authv1connect"
	rmcsmiddleware "github.com/terraconstructs/rmcs/internal/middleware"
	"github.com/terraconstructs/rmcs/internal/services/iam"
)

// RouterOptions controls the construction of the HTTP router.
// The zero value is valid; sensible defaults are applied where fields are not set.
type RouterOptions struct {
	// IAMService backs the auth, identity and access services. When nil no
	// Connect handlers are mounted.
	IAMService iam.Service

	// Guard authorizes AccessService calls, ExtraRoutes and any procedure not
	// known to the router. When nil, those calls are denied; use
	// iam.NewUnsecuredGuard to allow them.
	Guard *iam.Guard

	// TrustProxyHeaders takes the client address from X-Forwarded-For /
	// X-Real-IP. Enable it only behind a proxy that overwrites those headers;
	// otherwise clients choose the address their ip_lock sessions bind to.
	TrustProxyHeaders bool

	// CORSOptions customises the access-control configuration. When nil,
	// DefaultCORSOptions() is applied.
	CORSOptions *cors.Options

	// Middleware are appended after the default middleware stack
	// (RequestID, RealIP when TrustProxyHeaders is set, Logger, Recoverer).
	Middleware []func(http.Handler) http.Handler

	// ConnectInterceptors run after the bearer and authorization interceptors.
	ConnectInterceptors []connect.Interceptor

	// HealthHandler overrides the default /health handler.
	HealthHandler http.HandlerFunc

	// ExtraRoutes can register additional endpoints after the built-in
	// handlers. They are guarded by Guard with the request path as the
	// procedure name.
	ExtraRoutes func(chi.Router)
}

// DefaultCORSOptions returns the shared development CORS policy.
func DefaultCORSOptions() cors.Options {
	return cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173",
			"http://127.0.0.1:5173",
		},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{
			"Content-Type",
			"Connect-Protocol-Version",
			"Connect-Timeout-Ms",
			"Connect-Protocol",
			"Connect-Content-Encoding",
			"Grpc-Timeout",
			"X-Grpc-Web",
			"X-User-Agent",
			"Authorization",
		},
		ExposedHeaders: []string{
			"Connect-Protocol-Version",
			"Connect-Content-Encoding",
			"Connect-Protocol",
			"Grpc-Status",
			"Grpc-Message",
			"Grpc-Status-Details-Bin",
		},
		AllowCredentials: false,
		MaxAge:           300,
	}
}

func defaultHealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// NewRouter assembles a chi.Router with shared middleware, CORS policy, and
// the auth services mounted.
func NewRouter(opts RouterOptions) chi.Router {
	r := chi.NewRouter()

	// Baseline middleware shared across entrypoints.
	r.Use(middleware.RequestID)
	if opts.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	corsCfg := DefaultCORSOptions()
	if opts.CORSOptions != nil {
		corsCfg = *opts.CORSOptions
	}
	r.Use(cors.Handler(corsCfg))

	for _, mw := range opts.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}

	if opts.IAMService != nil {
		MountConnectHandlers(r, opts)
	} else {
		log.Println("WARNING: IAM service not configured, auth RPCs are not mounted")
	}

	healthHandler := opts.HealthHandler
	if healthHandler == nil {
		healthHandler = defaultHealthHandler
	}
	r.Get("/health", healthHandler)

	if opts.ExtraRoutes != nil {
		r.Group(func(g chi.Router) {
			g.Use(rmcsmiddleware.Bearer)
			g.Use(extraRoutesAuthz(opts.Guard))
			opts.ExtraRoutes(g)
		})
	}

	return r
}

// extraRoutesAuthz guards ExtraRoutes with guard, denying every request when
// no guard is configured.
func extraRoutesAuthz(guard *iam.Guard) func(http.Handler) http.Handler {
	if guard == nil {
		log.Println("WARNING: no guard configured, extra routes deny every request")
		return rmcsmiddleware.DenyAll
	}
	authz, err := rmcsmiddleware.NewAuthzMiddleware(guard)
	if err != nil {
		log.Printf("WARNING: extra routes deny every request: %v", err)
		return rmcsmiddleware.DenyAll
	}
	return authz
}

// NewH2CHandler wraps the shared router with an h2c server to provide HTTP/2 over
// cleartext, matching the expectations of Connect clients during development.
func NewH2CHandler(opts RouterOptions) http.Handler {
	return h2c.NewHandler(NewRouter(opts), &http2.Server{})
}

// MountConnectHandlers mounts the auth, identity and access services with
// the bearer and authorization interceptors in front of them.
func MountConnectHandlers(r chi.Router, opts RouterOptions) {
	deps := rmcsmiddleware.AuthzDependencies{
		Identity: iam.NewIdentityGuard(opts.IAMService),
	}
	if opts.Guard != nil {
		deps.Guard = opts.Guard
	}

	interceptors := []connect.Interceptor{
		rmcsmiddleware.NewBearerInterceptor(),
		rmcsmiddleware.NewAuthzInterceptor(deps),
	}
	interceptors = append(interceptors, opts.ConnectInterceptors...)
	handlerOpts := connect.WithInterceptors(interceptors...)

	path, handler := authv1connect.NewAuthServiceHandler(NewAuthServiceHandler(opts.IAMService), handlerOpts)
	r.Mount(path, handler)
	path, handler = authv1connect.NewIdentityServiceHandler(NewIdentityServiceHandler(opts.IAMService), handlerOpts)
	r.Mount(path, handler)
	path, handler = authv1connect.NewAccessServiceHandler(NewAccessServiceHandler(opts.IAMService), handlerOpts)
	r.Mount(path, handler)
}
