package seed

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"

	"github.com/terraconstructs/rmcs/internal/auth"
	"github.com/terraconstructs/rmcs/internal/db/bunx"
	"github.com/terraconstructs/rmcs/internal/migrations"
	"github.com/terraconstructs/rmcs/internal/repository"
)

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

func TestLoadFile(t *testing.T) {
	f, err := LoadFile("testdata/seed.yaml")
	require.NoError(t, err)

	require.Len(t, f.Apis, 2)
	assert.Equal(t, "0193a5f0-0000-7000-8000-000000000001", f.Apis[0].ID)
	resource := f.Apis[1]
	assert.Equal(t, "http://localhost:9002", resource.Address)
	require.Len(t, resource.Roles, 2)
	assert.Equal(t, 5*time.Minute, resource.Roles[0].AccessDuration)
	assert.Equal(t, time.Hour, resource.Roles[0].RefreshDuration)
	assert.True(t, resource.Roles[1].IPLock)
	assert.False(t, resource.Roles[1].Multi)

	require.Len(t, f.Users, 2)
	assert.Equal(t, []Grant{{Api: "resource", Role: "viewer"}}, f.Users[0].Roles)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name:    "unknown field",
			doc:     "apis:\n  - name: a\n    password: p\n    colour: red\n",
			wantErr: "colour",
		},
		{
			name:    "bad duration",
			doc:     "apis:\n  - name: a\n    password: p\n    roles:\n      - name: r\n        access_duration: soon\n",
			wantErr: "decode seed",
		},
		{
			name:    "refresh shorter than access",
			doc:     "apis:\n  - name: a\n    password: p\n    roles:\n      - name: r\n        access_duration: 1h\n        refresh_duration: 1m\n",
			wantErr: "refresh_duration",
		},
		{
			name:    "undeclared procedure",
			doc:     "apis:\n  - name: a\n    password: p\n    roles:\n      - name: r\n        access_duration: 1m\n        refresh_duration: 1h\n        procedures: [/x/Y]\n",
			wantErr: "unknown procedure",
		},
		{
			name:    "reserved user",
			doc:     "users:\n  - name: root\n    password: p\n",
			wantErr: "reserved",
		},
		{
			name:    "unknown grant",
			doc:     "users:\n  - name: alice\n    password: p\n    roles:\n      - {api: a, role: r}\n",
			wantErr: "unknown role",
		},
		{
			name:    "not yaml",
			doc:     "apis: [",
			wantErr: "parse seed yaml",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestApply(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	f, err := LoadFile("testdata/seed.yaml")
	require.NoError(t, err)

	res, err := Apply(ctx, db, f)
	require.NoError(t, err)
	assert.Equal(t, "0193a5f0-0000-7000-8000-000000000001", res.Apis["rmcs-auth"])
	require.Contains(t, res.Apis, "resource")
	require.Contains(t, res.Users, "bob")

	api, err := repository.NewBunApiRepository(db).GetByID(ctx, res.Apis["resource"])
	require.NoError(t, err)
	assert.Len(t, api.AccessKey, auth.AccessKeyLength)
	assert.NoError(t, auth.VerifyPassword("resource-secret", api.PasswordHash))

	user, err := repository.NewBunUserRepository(db).GetByName(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NoError(t, auth.VerifyPassword("alice-secret", user.PasswordHash))

	grants, err := repository.NewBunRoleRepository(db).ListGrantsForUser(ctx, res.Users["bob"])
	require.NoError(t, err)
	assert.Len(t, grants, 3)

	access, err := repository.NewBunProcedureRepository(db).ListAccess(ctx, res.Apis["resource"])
	require.NoError(t, err)
	assert.Len(t, access, 3)

	// A second run finds everything in place.
	again, err := Apply(ctx, db, f)
	require.NoError(t, err)
	assert.Equal(t, res, again)

	grants, err = repository.NewBunRoleRepository(db).ListGrantsForUser(ctx, res.Users["bob"])
	require.NoError(t, err)
	assert.Len(t, grants, 3)

	reloaded, err := repository.NewBunApiRepository(db).GetByID(ctx, res.Apis["resource"])
	require.NoError(t, err)
	assert.Equal(t, api.AccessKey, reloaded.AccessKey, "existing apis keep their key")
}
