package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/terraconstructs/rmcs/cmd/rmcsapi/cmd/cmdutil"
	"github.com/terraconstructs/rmcs/internal/auth"
	"github.com/terraconstructs/rmcs/internal/db/bunx"
	"github.com/terraconstructs/rmcs/internal/db/models"
	"github.com/terraconstructs/rmcs/internal/repository"
)

var (
	nameFlag     string
	emailFlag    string
	phoneFlag    string
	passwordFlag string
	grantsInput  []string
	stdinFlag    bool
)

// grantRef names a role by its Api and role names.
type grantRef struct {
	api  string
	role string
}

func parseGrants(values []string) ([]grantRef, error) {
	refs := make([]grantRef, 0, len(values))
	for _, v := range values {
		api, role, ok := strings.Cut(v, "/")
		if !ok || api == "" || role == "" {
			return nil, fmt.Errorf("invalid grant %q: want <api-name>/<role-name>", v)
		}
		refs = append(refs, grantRef{api: api, role: role})
	}
	return refs, nil
}

// resolveGrants looks up the role ids of refs.
func resolveGrants(ctx context.Context, apis repository.ApiRepository, roles repository.RoleRepository, refs []grantRef) ([]string, error) {
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		api, err := apis.GetByName(ctx, ref.api)
		if err != nil {
			return nil, fmt.Errorf("api %q: %w", ref.api, err)
		}
		role, err := roles.GetByName(ctx, api.ID, ref.role)
		if err != nil {
			return nil, fmt.Errorf("role %s/%s: %w", ref.api, ref.role, err)
		}
		ids = append(ids, role.ID)
	}
	return ids, nil
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new user",
	RunE: func(cmd *cobra.Command, args []string) error {
		if nameFlag == "" {
			return fmt.Errorf("--name flag is required")
		}
		if auth.IsRootName(nameFlag) {
			return fmt.Errorf("user name %q is reserved", nameFlag)
		}
		if emailFlag != "" {
			if _, err := mail.ParseAddress(emailFlag); err != nil {
				return fmt.Errorf("invalid email format: %w", err)
			}
		}
		refs, err := parseGrants(grantsInput)
		if err != nil {
			return err
		}

		if stdinFlag {
			fmt.Print("Enter password: ")
		}
		password, err := cmdutil.ReadPassword(os.Stdin, passwordFlag, stdinFlag)
		if err != nil {
			return err
		}

		store, err := cmdutil.OpenStore(cmdutil.Config())
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := cmd.Context()
		roleIDs, err := resolveGrants(ctx, store.Apis, store.Roles, refs)
		if err != nil {
			return err
		}

		if _, err := store.Users.GetByName(ctx, nameFlag); err == nil {
			return fmt.Errorf("user %q already exists", nameFlag)
		} else if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("failed to check name uniqueness: %w", err)
		}

		hash, err := auth.HashPassword(password)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		user := &models.User{
			ID:           bunx.NewUUIDv7(),
			Name:         nameFlag,
			Email:        emailFlag,
			Phone:        phoneFlag,
			PasswordHash: hash,
		}
		if err := store.Users.Create(ctx, user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		for i, roleID := range roleIDs {
			if err := store.Roles.AssignToUser(ctx, user.ID, roleID); err != nil {
				return fmt.Errorf("failed to grant %s/%s: %w", refs[i].api, refs[i].role, err)
			}
		}

		fmt.Println("User created successfully!")
		fmt.Println("----------------------------------------")
		fmt.Printf("User ID: %s\n", user.ID)
		fmt.Printf("Name: %s\n", user.Name)
		if len(grantsInput) > 0 {
			fmt.Printf("Grants: %s\n", strings.Join(grantsInput, ", "))
		}
		fmt.Println("----------------------------------------")
		return nil
	},
}
