package users

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/terraconstructs/rmcs/cmd/rmcsapi/cmd/cmdutil"
)

var grantCmd = &cobra.Command{
	Use:   "grant [name]",
	Short: "Grant roles to an existing user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		refs, err := parseGrants(grantsInput)
		if err != nil {
			return err
		}
		if len(refs) == 0 {
			return fmt.Errorf("at least one --grant must be specified")
		}

		store, err := cmdutil.OpenStore(cmdutil.Config())
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := cmd.Context()
		user, err := store.Users.GetByName(ctx, args[0])
		if err != nil {
			return fmt.Errorf("user %q: %w", args[0], err)
		}
		roleIDs, err := resolveGrants(ctx, store.Apis, store.Roles, refs)
		if err != nil {
			return err
		}
		for i, roleID := range roleIDs {
			if err := store.Roles.AssignToUser(ctx, user.ID, roleID); err != nil {
				return fmt.Errorf("failed to grant %s/%s: %w", refs[i].api, refs[i].role, err)
			}
			fmt.Printf("✓ Granted %s/%s to %s\n", refs[i].api, refs[i].role, user.Name)
		}
		return nil
	},
}
