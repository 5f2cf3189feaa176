package users

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/terraconstructs/rmcs/cmd/rmcsapi/cmd/cmdutil"
	"github.com/terraconstructs/rmcs/internal/auth"
)

var passwordCmd = &cobra.Command{
	Use:   "password [name]",
	Short: "Reset a user's password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if stdinFlag {
			fmt.Print("Enter new password: ")
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
		user, err := store.Users.GetByName(ctx, args[0])
		if err != nil {
			return fmt.Errorf("user %q: %w", args[0], err)
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		if err := store.Users.UpdatePassword(ctx, user.ID, hash); err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}

		fmt.Printf("Password updated for %s (%s)\n", user.Name, user.ID)
		return nil
	},
}
