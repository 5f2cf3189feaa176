package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"

	"github.com/terraconstructs/rmcs/internal/auth"
	"github.com/terraconstructs/rmcs/internal/db/bunx"
	"github.com/terraconstructs/rmcs/internal/migrations"
	"github.com/terraconstructs/rmcs/internal/repository"
	"github.com/terraconstructs/rmcs/internal/seed"
	"github.com/terraconstructs/rmcs/internal/services/iam"
	"github.com/terraconstructs/rmcs/pkg/sdk"
)

const (
	authAPIID    = "0193a5f0-0000-7000-8000-000000000001"
	readDevice   = "/rmcs.device.v1.DeviceService/ReadDevice"
	updateDevice = "/rmcs.device.v1.DeviceService/UpdateDevice"
)

const seedDoc = `
apis:
  - id: ` + authAPIID + `
    name: rmcs-auth
    password: auth-secret
    procedures:
      - name: /rmcs.auth.v1.AccessService/ReadApi
      - name: /rmcs.auth.v1.AccessService/ListProcedureAccess
      - name: /rmcs.auth.v1.AccessService/ListUserRoleGrants
    roles:
      - name: admin
        multi: true
        access_duration: 15m
        refresh_duration: 24h
        procedures:
          - /rmcs.auth.v1.AccessService/ReadApi
          - /rmcs.auth.v1.AccessService/ListProcedureAccess
          - /rmcs.auth.v1.AccessService/ListUserRoleGrants
  - name: resource
    password: resource-secret
    procedures:
      - name: /rmcs.device.v1.DeviceService/ReadDevice
      - name: /rmcs.device.v1.DeviceService/UpdateDevice
    roles:
      - name: viewer
        multi: true
        access_duration: 5m
        refresh_duration: 1h
        procedures: [/rmcs.device.v1.DeviceService/ReadDevice]
      - name: operator
        ip_lock: true
        access_duration: 5m
        refresh_duration: 1h
        procedures: [/rmcs.device.v1.DeviceService/UpdateDevice]
users:
  - name: alice
    password: alice-secret
    roles:
      - {api: resource, role: viewer}
  - name: bob
    password: bob-secret
    roles:
      - {api: rmcs-auth, role: admin}
  - name: dave
    password: dave-secret
    roles:
      - {api: resource, role: operator}
`

var testRootKey = []byte("0123456789abcdef0123456789abcdef")

type testEnv struct {
	client *sdk.Client
	server *httptest.Server
	guard  *iam.Guard
	seeded *seed.Result
}

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := bunx.NewDB(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	t.Cleanup(func() { _ = bunx.Close(db) })

	ctx := context.Background()
	migrator := migrate.NewMigrator(db, migrations.Migrations)
	require.NoError(t, migrator.Init(ctx))
	_, err = migrator.Migrate(ctx)
	require.NoError(t, err)
	return db
}

func newTestEnv(t *testing.T, opts ...func(*RouterOptions)) *testEnv {
	t.Helper()
	ctx := context.Background()
	db := setupTestDB(t)

	file, err := seed.Parse([]byte(seedDoc))
	require.NoError(t, err)
	seeded, err := seed.Apply(ctx, db, file)
	require.NoError(t, err)

	apis := repository.NewBunApiRepository(db)
	procedures := repository.NewBunProcedureRepository(db)
	guard, err := iam.LoadGuard(ctx, apis, procedures, authAPIID, testRootKey)
	require.NoError(t, err)

	svc, err := iam.NewIAMService(iam.IAMServiceDependencies{
		Apis:         apis,
		Procedures:   procedures,
		Roles:        repository.NewBunRoleRepository(db),
		Users:        repository.NewBunUserRepository(db),
		Sessions:     repository.NewBunSessionRepository(db),
		Keys:         auth.NewKeyStore(),
		Root:         auth.NewRoot("root-secret", testRootKey, 5*time.Minute, time.Hour),
		OnKeyRotated: []func(string, []byte){guard.OnKeyRotated},
	}, iam.IAMServiceConfig{ApiCacheTTL: time.Minute})
	require.NoError(t, err)

	routerOpts := RouterOptions{IAMService: svc, Guard: guard}
	for _, opt := range opts {
		opt(&routerOpts)
	}
	srv := httptest.NewServer(NewRouter(routerOpts))
	t.Cleanup(srv.Close)

	return &testEnv{
		client: sdk.NewClient(srv.URL, sdk.WithHTTPClient(srv.Client())),
		server: srv,
		guard:  guard,
		seeded: seeded,
	}
}

func bearerCtx(token string) context.Context {
	return auth.SetBearerContext(context.Background(), token)
}

func requireCode(t *testing.T, err error, code connect.Code) *connect.Error {
	t.Helper()
	var cerr *connect.Error
	require.True(t, errors.As(err, &cerr), "expected connect error, got %v", err)
	assert.Equal(t, code, cerr.Code(), cerr.Message())
	return cerr
}

func TestApiLoginBuildsWorkingGuard(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	resourceID := env.seeded.Apis["resource"]

	creds, err := env.client.ApiLogin(ctx, resourceID, "resource-secret")
	require.NoError(t, err)
	assert.Equal(t, testRootKey, creds.RootKey)
	assert.Len(t, creds.AccessKey, auth.AccessKeyLength)
	assert.Equal(t, []string{"viewer"}, creds.Access[readDevice])

	guard, err := creds.NewGuard()
	require.NoError(t, err)

	alice, err := env.client.UserLogin(ctx, "alice", "alice-secret")
	require.NoError(t, err)
	viewer, ok := alice.Token(resourceID, "viewer")
	require.True(t, ok)

	assert.NoError(t, guard.Authorize(bearerCtx(viewer.AccessToken), readDevice))
	assert.ErrorIs(t, guard.Authorize(bearerCtx(viewer.AccessToken), updateDevice), iam.ErrRoleNotPermitted)

	// A second Api login rotates the key and strands the old guard.
	_, err = env.client.ApiLogin(ctx, resourceID, "resource-secret")
	require.NoError(t, err)
	alice, err = env.client.UserLogin(ctx, "alice", "alice-secret")
	require.NoError(t, err)
	viewer, _ = alice.Token(resourceID, "viewer")
	assert.ErrorIs(t, guard.Authorize(bearerCtx(viewer.AccessToken), readDevice), iam.ErrUnauthenticated)
}

func TestLoginFailuresAreOpaque(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.client.UserLogin(ctx, "alice", "wrong")
	cerr := requireCode(t, err, connect.CodeUnauthenticated)
	assert.Equal(t, ErrInvalidCredentials.Error(), cerr.Message())

	_, err = env.client.UserLogin(ctx, "nobody", "alice-secret")
	cerr = requireCode(t, err, connect.CodeUnauthenticated)
	assert.Equal(t, ErrInvalidCredentials.Error(), cerr.Message())

	_, err = env.client.ApiLogin(ctx, env.seeded.Apis["resource"], "wrong")
	cerr = requireCode(t, err, connect.CodeUnauthenticated)
	assert.Equal(t, ErrInvalidCredentials.Error(), cerr.Message())
}

func TestRefreshAndLogout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice, err := env.client.UserLogin(ctx, "alice", "alice-secret")
	require.NoError(t, err)
	viewer, ok := alice.Token(env.seeded.Apis["resource"], "viewer")
	require.True(t, ok)

	next, err := env.client.Refresh(ctx, viewer)
	require.NoError(t, err)
	assert.NotEqual(t, viewer.RefreshToken, next.RefreshToken)

	_, err = env.client.Refresh(ctx, viewer)
	requireCode(t, err, connect.CodeUnauthenticated)

	sessions, err := env.client.ListUserSessions(ctx, alice.AuthToken, alice.UserID)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)

	require.NoError(t, env.client.Logout(ctx, alice))
	_, err = env.client.Refresh(ctx, next)
	requireCode(t, err, connect.CodeUnauthenticated)
}

func TestIdentityService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice, err := env.client.UserLogin(ctx, "alice", "alice-secret")
	require.NoError(t, err)

	user, err := env.client.ReadUser(ctx, alice.AuthToken, alice.UserID)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Name)

	_, err = env.client.ReadUser(ctx, alice.AuthToken, env.seeded.Users["bob"])
	requireCode(t, err, connect.CodePermissionDenied)

	_, err = env.client.ReadUser(ctx, "", alice.UserID)
	requireCode(t, err, connect.CodeUnauthenticated)

	require.NoError(t, env.client.ChangeUserPassword(ctx, alice.AuthToken, alice.UserID, "new-secret"))
	_, err = env.client.UserLogin(ctx, "alice", "new-secret")
	assert.NoError(t, err)
}

func TestAccessService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	resourceID := env.seeded.Apis["resource"]

	bob, err := env.client.UserLogin(ctx, "bob", "bob-secret")
	require.NoError(t, err)
	admin, ok := bob.Token(authAPIID, "admin")
	require.True(t, ok)

	table, err := env.client.ListProcedureAccess(ctx, admin.AccessToken, resourceID)
	require.NoError(t, err)
	assert.Equal(t, []string{"viewer"}, table[readDevice])

	api, err := env.client.ReadApi(ctx, admin.AccessToken, resourceID)
	require.NoError(t, err)
	assert.Equal(t, "resource", api.Name)

	grants, err := env.client.ListUserRoleGrants(ctx, admin.AccessToken, env.seeded.Users["alice"])
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.Equal(t, "viewer", grants[0].Role)

	_, err = env.client.ReadApi(ctx, admin.AccessToken, "0193a5f0-0000-7000-8000-00000000ffff")
	requireCode(t, err, connect.CodeNotFound)

	// Resource tokens are signed with another Api's key.
	alice, err := env.client.UserLogin(ctx, "alice", "alice-secret")
	require.NoError(t, err)
	viewer, _ := alice.Token(resourceID, "viewer")
	_, err = env.client.ReadApi(ctx, viewer.AccessToken, resourceID)
	requireCode(t, err, connect.CodeUnauthenticated)

	// Root reaches everything.
	root, err := env.client.UserLogin(ctx, auth.RootName, "root-secret")
	require.NoError(t, err)
	require.Len(t, root.Tokens, 1)
	_, err = env.client.ReadApi(ctx, root.Tokens[0].AccessToken, resourceID)
	assert.NoError(t, err)
}

func TestAuthApiLoginRotatesServerGuard(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	bob, err := env.client.UserLogin(ctx, "bob", "bob-secret")
	require.NoError(t, err)
	admin, _ := bob.Token(authAPIID, "admin")
	_, err = env.client.ReadApi(ctx, admin.AccessToken, authAPIID)
	require.NoError(t, err)

	_, err = env.client.ApiLogin(ctx, authAPIID, "auth-secret")
	require.NoError(t, err)

	_, err = env.client.ReadApi(ctx, admin.AccessToken, authAPIID)
	requireCode(t, err, connect.CodeUnauthenticated)

	bob, err = env.client.UserLogin(ctx, "bob", "bob-secret")
	require.NoError(t, err)
	admin, _ = bob.Token(authAPIID, "admin")
	_, err = env.client.ReadApi(ctx, admin.AccessToken, authAPIID)
	assert.NoError(t, err)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.server.Client().Get(env.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
}

func TestExtraRoutesAreGuarded(t *testing.T) {
	key := []byte("resource-access-key-0123456789ab")
	access, err := iam.NewAccessMap(map[string][]string{"/custom/ping": {"viewer"}})
	require.NoError(t, err)
	guard := iam.NewGuard("resource", access, key, testRootKey)

	ok := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }
	srv := httptest.NewServer(NewRouter(RouterOptions{
		Guard: guard,
		ExtraRoutes: func(r chi.Router) {
			r.Get("/custom/ping", ok)
			r.Get("/custom/other", ok)
		},
	}))
	t.Cleanup(srv.Close)

	token := func(role string, secret []byte) string {
		tok, err := auth.IssueToken(1, role, time.Minute, secret)
		require.NoError(t, err)
		return tok
	}

	tests := []struct {
		name   string
		path   string
		bearer string
		want   int
	}{
		{name: "no bearer", path: "/custom/ping", want: http.StatusUnauthorized},
		{name: "permitted role", path: "/custom/ping", bearer: token("viewer", key), want: http.StatusOK},
		{name: "other role", path: "/custom/ping", bearer: token("auditor", key), want: http.StatusForbidden},
		{name: "wrong key", path: "/custom/ping", bearer: token("viewer", []byte("wrong")), want: http.StatusUnauthorized},
		{name: "root token", path: "/custom/other", bearer: token(auth.RootName, testRootKey), want: http.StatusOK},
		{name: "unknown procedure", path: "/custom/other", bearer: token("viewer", key), want: http.StatusNotFound},
		{name: "health stays public", path: "/health", want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, srv.URL+tt.path, nil)
			require.NoError(t, err)
			if tt.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+tt.bearer)
			}
			resp, err := srv.Client().Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestExtraRoutesDeniedWithoutGuard(t *testing.T) {
	srv := httptest.NewServer(NewRouter(RouterOptions{
		ExtraRoutes: func(r chi.Router) {
			r.Get("/rmcs.device.v1.DeviceService/DeleteDevice", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
		},
	}))
	t.Cleanup(srv.Close)

	rootToken, err := auth.IssueToken(1, auth.RootName, time.Minute, testRootKey)
	require.NoError(t, err)

	for name, bearer := range map[string]string{"no bearer": "", "root token": rootToken} {
		t.Run(name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, srv.URL+"/rmcs.device.v1.DeviceService/DeleteDevice", nil)
			require.NoError(t, err)
			if bearer != "" {
				req.Header.Set("Authorization", "Bearer "+bearer)
			}
			resp, err := srv.Client().Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		})
	}
}

func TestExtraRoutesAllowedWithUnsecuredGuard(t *testing.T) {
	srv := httptest.NewServer(NewRouter(RouterOptions{
		Guard: iam.NewUnsecuredGuard(),
		ExtraRoutes: func(r chi.Router) {
			r.Get("/custom/ping", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
		},
	}))
	t.Cleanup(srv.Close)

	resp, err := srv.Client().Get(srv.URL + "/custom/ping")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// headerTransport adds fixed headers to every request.
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (h headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range h.headers {
		req.Header.Set(k, v)
	}
	return h.base.RoundTrip(req)
}

func clientFrom(t *testing.T, env *testEnv, localIP string, headers map[string]string) *sdk.Client {
	t.Helper()
	base := &http.Transport{}
	if localIP != "" {
		dialer := &net.Dialer{LocalAddr: &net.TCPAddr{IP: net.ParseIP(localIP)}}
		base.DialContext = dialer.DialContext
	}
	t.Cleanup(base.CloseIdleConnections)
	httpClient := &http.Client{Transport: headerTransport{base: base, headers: headers}}
	return sdk.NewClient(env.server.URL, sdk.WithHTTPClient(httpClient))
}

func TestIPLockIgnoresForwardedHeaders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	resourceID := env.seeded.Apis["resource"]

	forged := map[string]string{"X-Real-IP": "203.0.113.7", "X-Forwarded-For": "203.0.113.7"}
	dave, err := clientFrom(t, env, "", forged).UserLogin(ctx, "dave", "dave-secret")
	require.NoError(t, err)
	operator, ok := dave.Token(resourceID, "operator")
	require.True(t, ok)

	sessions, err := env.client.ListUserSessions(ctx, dave.AuthToken, dave.UserID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "127.0.0.1", sessions[0].Ip)

	// The session is bound to the real peer address, not the header.
	operator, err = env.client.Refresh(ctx, operator)
	require.NoError(t, err)

	if runtime.GOOS != "linux" {
		t.Skip("dialing from 127.0.0.2 needs the linux loopback range")
	}
	spoofer := clientFrom(t, env, "127.0.0.2", map[string]string{"X-Real-IP": "127.0.0.1", "X-Forwarded-For": "127.0.0.1"})
	_, err = spoofer.Refresh(ctx, operator)
	requireCode(t, err, connect.CodeUnauthenticated)
}

func TestIPLockTrustsProxyHeadersWhenEnabled(t *testing.T) {
	env := newTestEnv(t, func(o *RouterOptions) { o.TrustProxyHeaders = true })
	ctx := context.Background()
	resourceID := env.seeded.Apis["resource"]

	proxied := clientFrom(t, env, "", map[string]string{"X-Real-IP": "203.0.113.7"})
	dave, err := proxied.UserLogin(ctx, "dave", "dave-secret")
	require.NoError(t, err)
	operator, ok := dave.Token(resourceID, "operator")
	require.True(t, ok)

	sessions, err := env.client.ListUserSessions(ctx, dave.AuthToken, dave.UserID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "203.0.113.7", sessions[0].Ip)

	_, err = env.client.Refresh(ctx, operator)
	requireCode(t, err, connect.CodeUnauthenticated)

	_, err = proxied.Refresh(ctx, operator)
	assert.NoError(t, err)
}
