package migrations

import (
	"context"
	"fmt"

	"github.com/terraconstructs/rmcs/internal/db/models"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(up_20251101090000, down_20251101090000)
}

var authTables = []struct {
	name  string
	model any
}{
	{"apis", (*models.Api)(nil)},
	{"procedures", (*models.Procedure)(nil)},
	{"roles", (*models.Role)(nil)},
	{"role_procedures", (*models.RoleProcedure)(nil)},
	{"users", (*models.User)(nil)},
	{"user_roles", (*models.UserRole)(nil)},
	{"sessions", (*models.Session)(nil)},
}

// up_20251101090000 creates the identity, role and session tables
func up_20251101090000(ctx context.Context, db *bun.DB) error {
	for _, t := range authTables {
		fmt.Printf(" [up] creating %s table...", t.name)
		if _, err := db.NewCreateTable().Model(t.model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to create %s table: %w", t.name, err)
		}
		fmt.Println(" OK")
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_procedures_api_id ON procedures(api_id)`,
		`CREATE INDEX IF NOT EXISTS idx_roles_api_id ON roles(api_id)`,
		`CREATE INDEX IF NOT EXISTS idx_role_procedures_procedure_id ON role_procedures(procedure_id)`,
		`CREATE INDEX IF NOT EXISTS idx_user_roles_role_id ON user_roles(role_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_auth_token_hash ON sessions(auth_token_hash)`,
	}
	fmt.Print(" [up] creating indexes...")
	for _, stmt := range indexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	fmt.Println(" OK")

	// SQLite cannot add constraints after table creation; foreign keys are
	// enforced on PostgreSQL only.
	if IsPostgreSQL(db) {
		fks := []string{
			`ALTER TABLE procedures ADD CONSTRAINT fk_procedures_api FOREIGN KEY (api_id) REFERENCES apis(id) ON DELETE CASCADE`,
			`ALTER TABLE roles ADD CONSTRAINT fk_roles_api FOREIGN KEY (api_id) REFERENCES apis(id) ON DELETE CASCADE`,
			`ALTER TABLE role_procedures ADD CONSTRAINT fk_role_procedures_role FOREIGN KEY (role_id) REFERENCES roles(id) ON DELETE CASCADE`,
			`ALTER TABLE role_procedures ADD CONSTRAINT fk_role_procedures_procedure FOREIGN KEY (procedure_id) REFERENCES procedures(id) ON DELETE CASCADE`,
			`ALTER TABLE user_roles ADD CONSTRAINT fk_user_roles_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE`,
			`ALTER TABLE user_roles ADD CONSTRAINT fk_user_roles_role FOREIGN KEY (role_id) REFERENCES roles(id) ON DELETE CASCADE`,
		}
		fmt.Print(" [up] adding foreign keys...")
		for _, stmt := range fks {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to add foreign key: %w", err)
			}
		}
		fmt.Println(" OK")
	}

	return nil
}

// down_20251101090000 drops the tables in reverse dependency order
func down_20251101090000(ctx context.Context, db *bun.DB) error {
	for i := len(authTables) - 1; i >= 0; i-- {
		t := authTables[i]
		fmt.Printf(" [down] dropping %s table...", t.name)
		if _, err := db.NewDropTable().Model(t.model).IfExists().Cascade().Exec(ctx); err != nil {
			return fmt.Errorf("failed to drop %s table: %w", t.name, err)
		}
		fmt.Println(" OK")
	}
	return nil
}
