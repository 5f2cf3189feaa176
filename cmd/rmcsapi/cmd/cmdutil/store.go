package cmdutil

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/uptrace/bun"

	"github.com/terraconstructs/rmcs/internal/config"
	"github.com/terraconstructs/rmcs/internal/db/bunx"
	"github.com/terraconstructs/rmcs/internal/repository"
)

var current *config.Config

// SetConfig records the configuration loaded by the root command.
func SetConfig(cfg *config.Config) { current = cfg }

// Config returns the configuration loaded by the root command.
func Config() *config.Config { return current }

// Store bundles the repositories with their underlying DB connection so
// commands can reuse the connection when necessary.
type Store struct {
	DB         *bun.DB
	Apis       *repository.BunApiRepository
	Procedures *repository.BunProcedureRepository
	Roles      *repository.BunRoleRepository
	Users      *repository.BunUserRepository
	Sessions   *repository.BunSessionRepository
}

// Close releases the underlying database connection.
func (s *Store) Close() {
	if s == nil || s.DB == nil {
		return
	}
	bunx.Close(s.DB)
}

// OpenStore connects to the configured database and wires the repositories.
func OpenStore(cfg *config.Config) (*Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	db, err := bunx.NewDB(cfg.DatabaseURL, bunx.Options{MaxOpenConns: cfg.MaxDBConnections})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &Store{
		DB:         db,
		Apis:       repository.NewBunApiRepository(db),
		Procedures: repository.NewBunProcedureRepository(db),
		Roles:      repository.NewBunRoleRepository(db),
		Users:      repository.NewBunUserRepository(db),
		Sessions:   repository.NewBunSessionRepository(db),
	}, nil
}

// ReadPassword returns flagValue, or the first line of in when fromStdin is set.
func ReadPassword(in io.Reader, flagValue string, fromStdin bool) (string, error) {
	password := flagValue
	if fromStdin {
		scanner := bufio.NewScanner(in)
		if scanner.Scan() {
			password = strings.TrimRight(scanner.Text(), "\r")
		}
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
	}
	if password == "" {
		return "", fmt.Errorf("password is required (use --password or --stdin)")
	}
	return password, nil
}
