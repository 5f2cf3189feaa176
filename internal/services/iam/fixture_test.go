package iam

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/terraconstructs/rmcs/internal/auth"
	"github.com/terraconstructs/rmcs/internal/db/models"
)

const (
	resourceAPIID = "0193a5f0-0000-7000-8000-000000000001"
	otherAPIID    = "0193a5f0-0000-7000-8000-000000000002"
	viewerRoleID  = "0193a5f0-0000-7000-8000-0000000000a1"
	operatorID    = "0193a5f0-0000-7000-8000-0000000000a2"
	auditorID     = "0193a5f0-0000-7000-8000-0000000000a3"
	aliceID       = "0193a5f0-0000-7000-8000-0000000000b1"
	bobID         = "0193a5f0-0000-7000-8000-0000000000b2"
	carolID       = "0193a5f0-0000-7000-8000-0000000000b3"

	readDevice   = "/rmcs.device.v1.DeviceService/ReadDevice"
	updateDevice = "/rmcs.device.v1.DeviceService/UpdateDevice"
	deleteDevice = "/rmcs.device.v1.DeviceService/DeleteDevice"

	apiPassword  = "resource-secret"
	userPassword = "correct horse battery staple"
	rootPassword = "root-secret"
)

var rootKey = []byte("0123456789abcdef0123456789abcdef")

type fixture struct {
	store *memoryStore
	keys  *auth.KeyStore
	root  *auth.Root
	svc   *iamService
}

// newFixture seeds two Apis:
//
//	resource: viewer (multi, 300s/3600s) may ReadDevice,
//	          operator (single, ip lock, 60s/600s) may ReadDevice and UpdateDevice,
//	          DeleteDevice is registered but granted to no role.
//	other:    auditor (multi, 120s/1800s), no procedures.
//
// alice holds viewer, bob holds viewer and operator, carol holds viewer and
// auditor.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := newMemoryStore()

	apiHash, err := auth.HashPassword(apiPassword)
	require.NoError(t, err)
	userHash, err := auth.HashPassword(userPassword)
	require.NoError(t, err)

	apis := memApis{store}
	require.NoError(t, apis.Create(ctx, &models.Api{ID: resourceAPIID, Name: "resource", PasswordHash: apiHash, AccessKey: []byte("resource-access-key-resource-key")}))
	require.NoError(t, apis.Create(ctx, &models.Api{ID: otherAPIID, Name: "other", PasswordHash: apiHash, AccessKey: []byte("other-access-key-other-access-ke")}))

	procedures := memProcedures{store}
	for i, name := range []string{readDevice, updateDevice, deleteDevice} {
		require.NoError(t, procedures.Create(ctx, &models.Procedure{ID: procedureID(i), ApiID: resourceAPIID, Name: name}))
	}

	roles := memRoles{store}
	require.NoError(t, roles.Create(ctx, &models.Role{ID: viewerRoleID, ApiID: resourceAPIID, Name: "viewer", Multi: true, AccessDuration: 300, RefreshDuration: 3600}))
	require.NoError(t, roles.Create(ctx, &models.Role{ID: operatorID, ApiID: resourceAPIID, Name: "operator", IPLock: true, AccessDuration: 60, RefreshDuration: 600}))
	require.NoError(t, roles.Create(ctx, &models.Role{ID: auditorID, ApiID: otherAPIID, Name: "auditor", Multi: true, AccessDuration: 120, RefreshDuration: 1800}))
	require.NoError(t, roles.AssignProcedure(ctx, viewerRoleID, procedureID(0)))
	require.NoError(t, roles.AssignProcedure(ctx, operatorID, procedureID(0)))
	require.NoError(t, roles.AssignProcedure(ctx, operatorID, procedureID(1)))

	users := memUsers{store}
	for id, name := range map[string]string{aliceID: "alice", bobID: "bob", carolID: "carol"} {
		require.NoError(t, users.Create(ctx, &models.User{ID: id, Name: name, PasswordHash: userHash}))
	}
	require.NoError(t, roles.AssignToUser(ctx, aliceID, viewerRoleID))
	require.NoError(t, roles.AssignToUser(ctx, bobID, viewerRoleID))
	require.NoError(t, roles.AssignToUser(ctx, bobID, operatorID))
	require.NoError(t, roles.AssignToUser(ctx, carolID, viewerRoleID))
	require.NoError(t, roles.AssignToUser(ctx, carolID, auditorID))

	keys := auth.NewKeyStore()
	root := auth.NewRoot(rootPassword, rootKey, 5*time.Minute, time.Hour)

	svc, err := newIAMService(IAMServiceDependencies{
		Apis:       apis,
		Procedures: procedures,
		Roles:      roles,
		Users:      users,
		Sessions:   memSessions{store},
		Keys:       keys,
		Root:       root,
	}, IAMServiceConfig{ApiCacheTTL: time.Minute})
	require.NoError(t, err)

	return &fixture{store: store, keys: keys, root: root, svc: svc}
}

func procedureID(i int) string {
	return "0193a5f0-0000-7000-8000-0000000000c" + string(rune('0'+i))
}

// seal encrypts plaintext to the server's transport key of flow.
func (f *fixture) seal(t *testing.T, flow auth.Flow, plaintext string) string {
	t.Helper()
	der, err := f.keys.PublicKey(flow)
	require.NoError(t, err)
	pub, err := auth.ImportPublicKey(der)
	require.NoError(t, err)
	sealed, err := auth.SealTo(pub, []byte(plaintext))
	require.NoError(t, err)
	return sealed
}

func (f *fixture) accessKey(t *testing.T, apiID string) []byte {
	t.Helper()
	api, err := memApis{f.store}.GetByID(context.Background(), apiID)
	require.NoError(t, err)
	return api.AccessKey
}

func (f *fixture) login(t *testing.T, name, ip string) *UserLoginResult {
	t.Helper()
	res, err := f.svc.UserLogin(context.Background(), name, f.seal(t, auth.FlowUser, userPassword), ip)
	require.NoError(t, err)
	return res
}

func tokenFor(t *testing.T, res *UserLoginResult, role string) UserToken {
	t.Helper()
	for _, tok := range res.Tokens {
		if tok.Role == role {
			return tok
		}
	}
	t.Fatalf("no token for role %s", role)
	return UserToken{}
}

func callerKeyPair(t *testing.T) (*ecdsa.PrivateKey, []byte) {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)
	return priv, der
}

func bearer(token string) context.Context {
	return auth.SetBearerContext(context.Background(), token)
}
