package users

import "github.com/spf13/cobra"

// UsersCmd is the parent command for user management operations
var UsersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage RMCS users",
	Long:  `Commands for managing users directly against the auth database.`,
}

func init() {
	createCmd.Flags().StringVar(&nameFlag, "name", "", "Login name of the user (required)")
	createCmd.Flags().StringVar(&emailFlag, "email", "", "Email address of the user")
	createCmd.Flags().StringVar(&phoneFlag, "phone", "", "Phone number of the user")
	createCmd.Flags().StringVar(&passwordFlag, "password", "", "Password for the user (use --stdin to avoid shell history)")
	createCmd.Flags().StringSliceVar(&grantsInput, "grant", []string{}, "Role grant as <api-name>/<role-name> (repeatable)")
	createCmd.Flags().BoolVar(&stdinFlag, "stdin", false, "Read password from stdin instead of --password flag")

	passwordCmd.Flags().StringVar(&passwordFlag, "password", "", "New password (use --stdin to avoid shell history)")
	passwordCmd.Flags().BoolVar(&stdinFlag, "stdin", false, "Read password from stdin instead of --password flag")

	grantCmd.Flags().StringSliceVar(&grantsInput, "grant", []string{}, "Role grant as <api-name>/<role-name> (repeatable)")

	UsersCmd.AddCommand(createCmd)
	UsersCmd.AddCommand(passwordCmd)
	UsersCmd.AddCommand(grantCmd)
}
