// Package seed loads Apis, procedures, roles and users from a YAML file into
// the auth store.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/uptrace/bun"
	"gopkg.in/yaml.v3"

	"github.com/terraconstructs/rmcs/internal/auth"
	"github.com/terraconstructs/rmcs/internal/db/bunx"
	"github.com/terraconstructs/rmcs/internal/db/models"
	"github.com/terraconstructs/rmcs/internal/repository"
)

// File is the decoded seed document.
type File struct {
	Apis  []Api  `mapstructure:"apis"`
	Users []User `mapstructure:"users"`
}

type Api struct {
	ID          string      `mapstructure:"id"`
	Name        string      `mapstructure:"name"`
	Password    string      `mapstructure:"password"`
	Address     string      `mapstructure:"address"`
	Category    string      `mapstructure:"category"`
	Description string      `mapstructure:"description"`
	Procedures  []Procedure `mapstructure:"procedures"`
	Roles       []Role      `mapstructure:"roles"`
}

type Procedure struct {
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
}

// Role durations accept Go duration strings such as "15m" or "24h".
type Role struct {
	Name            string        `mapstructure:"name"`
	Multi           bool          `mapstructure:"multi"`
	IPLock          bool          `mapstructure:"ip_lock"`
	AccessDuration  time.Duration `mapstructure:"access_duration"`
	RefreshDuration time.Duration `mapstructure:"refresh_duration"`
	Procedures      []string      `mapstructure:"procedures"`
}

type User struct {
	ID       string  `mapstructure:"id"`
	Name     string  `mapstructure:"name"`
	Password string  `mapstructure:"password"`
	Email    string  `mapstructure:"email"`
	Phone    string  `mapstructure:"phone"`
	Roles    []Grant `mapstructure:"roles"`
}

// Grant names a role by its Api and role name.
type Grant struct {
	Api  string `mapstructure:"api"`
	Role string `mapstructure:"role"`
}

// Result maps seeded names to their ids.
type Result struct {
	Apis  map[string]string
	Users map[string]string
}

// LoadFile reads and parses a seed file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML seed document.
func Parse(data []byte) (*File, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse seed yaml: %w", err)
	}

	var file File
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
		ErrorUnused: true,
		Result:      &file,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	if err := file.Validate(); err != nil {
		return nil, err
	}
	return &file, nil
}

// Validate checks references and durations.
func (f *File) Validate() error {
	var errs []error
	roles := make(map[[2]string]bool)
	apis := make(map[string]bool)

	for _, api := range f.Apis {
		if api.Name == "" || api.Password == "" {
			errs = append(errs, fmt.Errorf("api %q: name and password are required", api.Name))
		}
		if apis[api.Name] {
			errs = append(errs, fmt.Errorf("api %q: duplicate name", api.Name))
		}
		apis[api.Name] = true

		procedures := make(map[string]bool, len(api.Procedures))
		for _, p := range api.Procedures {
			procedures[p.Name] = true
		}
		for _, role := range api.Roles {
			if auth.IsRootName(role.Name) {
				errs = append(errs, fmt.Errorf("api %q: role name %q is reserved", api.Name, role.Name))
			}
			if role.AccessDuration < time.Second || role.RefreshDuration < role.AccessDuration {
				errs = append(errs, fmt.Errorf("api %q role %q: need access_duration >= 1s and refresh_duration >= access_duration", api.Name, role.Name))
			}
			for _, p := range role.Procedures {
				if !procedures[p] {
					errs = append(errs, fmt.Errorf("api %q role %q: unknown procedure %q", api.Name, role.Name, p))
				}
			}
			roles[[2]string{api.Name, role.Name}] = true
		}
	}

	for _, user := range f.Users {
		if user.Name == "" || user.Password == "" {
			errs = append(errs, fmt.Errorf("user %q: name and password are required", user.Name))
		}
		if auth.IsRootName(user.Name) {
			errs = append(errs, fmt.Errorf("user name %q is reserved", user.Name))
		}
		for _, g := range user.Roles {
			if !roles[[2]string{g.Api, g.Role}] {
				errs = append(errs, fmt.Errorf("user %q: unknown role %s/%s", user.Name, g.Api, g.Role))
			}
		}
	}
	return errors.Join(errs...)
}

// Apply writes the seed in one transaction. Existing records (matched by
// name) are kept as they are; only missing records and links are added.
func Apply(ctx context.Context, db *bun.DB, f *File) (*Result, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	res := &Result{Apis: map[string]string{}, Users: map[string]string{}}
	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		s := seeder{
			apis:       repository.NewBunApiRepository(tx),
			procedures: repository.NewBunProcedureRepository(tx),
			roles:      repository.NewBunRoleRepository(tx),
			users:      repository.NewBunUserRepository(tx),
			roleIDs:    map[[2]string]string{},
		}
		for _, api := range f.Apis {
			id, err := s.api(ctx, api)
			if err != nil {
				return fmt.Errorf("seed api %s: %w", api.Name, err)
			}
			res.Apis[api.Name] = id
		}
		for _, user := range f.Users {
			id, err := s.user(ctx, user)
			if err != nil {
				return fmt.Errorf("seed user %s: %w", user.Name, err)
			}
			res.Users[user.Name] = id
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

type seeder struct {
	apis       repository.ApiRepository
	procedures repository.ProcedureRepository
	roles      repository.RoleRepository
	users      repository.UserRepository
	roleIDs    map[[2]string]string
}

func (s *seeder) api(ctx context.Context, in Api) (string, error) {
	api, err := s.apis.GetByName(ctx, in.Name)
	switch {
	case err == nil:
		log.Printf("seed: api %s exists (%s)", in.Name, api.ID)
	case errors.Is(err, repository.ErrNotFound):
		hash, err := auth.HashPassword(in.Password)
		if err != nil {
			return "", err
		}
		key, err := auth.GenerateAccessKey()
		if err != nil {
			return "", err
		}
		api = &models.Api{
			ID:           in.ID,
			Name:         in.Name,
			Address:      in.Address,
			Category:     in.Category,
			Description:  in.Description,
			PasswordHash: hash,
			AccessKey:    key,
		}
		if api.ID == "" {
			api.ID = bunx.NewUUIDv7()
		}
		if err := s.apis.Create(ctx, api); err != nil {
			return "", err
		}
		log.Printf("seed: created api %s (%s)", in.Name, api.ID)
	default:
		return "", err
	}

	procedureIDs := make(map[string]string, len(in.Procedures))
	for _, p := range in.Procedures {
		proc, err := s.procedures.GetByName(ctx, api.ID, p.Name)
		if errors.Is(err, repository.ErrNotFound) {
			proc = &models.Procedure{ID: bunx.NewUUIDv7(), ApiID: api.ID, Name: p.Name, Description: p.Description}
			err = s.procedures.Create(ctx, proc)
		}
		if err != nil {
			return "", fmt.Errorf("procedure %s: %w", p.Name, err)
		}
		procedureIDs[p.Name] = proc.ID
	}

	for _, r := range in.Roles {
		role, err := s.roles.GetByName(ctx, api.ID, r.Name)
		if errors.Is(err, repository.ErrNotFound) {
			role = &models.Role{
				ID:              bunx.NewUUIDv7(),
				ApiID:           api.ID,
				Name:            r.Name,
				Multi:           r.Multi,
				IPLock:          r.IPLock,
				AccessDuration:  int32(r.AccessDuration / time.Second),
				RefreshDuration: int32(r.RefreshDuration / time.Second),
			}
			err = s.roles.Create(ctx, role)
		}
		if err != nil {
			return "", fmt.Errorf("role %s: %w", r.Name, err)
		}
		s.roleIDs[[2]string{in.Name, r.Name}] = role.ID

		for _, p := range r.Procedures {
			if err := s.roles.AssignProcedure(ctx, role.ID, procedureIDs[p]); err != nil {
				return "", fmt.Errorf("role %s procedure %s: %w", r.Name, p, err)
			}
		}
	}
	return api.ID, nil
}

func (s *seeder) user(ctx context.Context, in User) (string, error) {
	user, err := s.users.GetByName(ctx, in.Name)
	if errors.Is(err, repository.ErrNotFound) {
		hash, hashErr := auth.HashPassword(in.Password)
		if hashErr != nil {
			return "", hashErr
		}
		user = &models.User{ID: in.ID, Name: in.Name, Email: in.Email, Phone: in.Phone, PasswordHash: hash}
		if user.ID == "" {
			user.ID = bunx.NewUUIDv7()
		}
		err = s.users.Create(ctx, user)
		if err == nil {
			log.Printf("seed: created user %s (%s)", in.Name, user.ID)
		}
	}
	if err != nil {
		return "", err
	}

	for _, g := range in.Roles {
		roleID, ok := s.roleIDs[[2]string{g.Api, g.Role}]
		if !ok {
			return "", fmt.Errorf("role %s/%s is not part of this seed", g.Api, g.Role)
		}
		if err := s.roles.AssignToUser(ctx, user.ID, roleID); err != nil {
			return "", fmt.Errorf("grant %s/%s: %w", g.Api, g.Role, err)
		}
	}
	return user.ID, nil
}
