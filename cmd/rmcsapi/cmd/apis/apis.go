package apis

import "github.com/spf13/cobra"

// ApisCmd is the parent command for Api identity management
var ApisCmd = &cobra.Command{
	Use:     "api",
	Aliases: []string{"apis"},
	Short:   "Manage Api identities",
	Long: `Commands for managing the Api identities that log in to RMCS.
Procedures and roles are provisioned with "rmcsapi seed".`,
}

func init() {
	createCmd.Flags().StringVar(&nameFlag, "name", "", "Unique name of the Api (required)")
	createCmd.Flags().StringVar(&addressFlag, "address", "", "Network address of the Api")
	createCmd.Flags().StringVar(&categoryFlag, "category", "", "Free-form category")
	createCmd.Flags().StringVar(&descriptionFlag, "description", "", "Free-form description")
	createCmd.Flags().StringVar(&passwordFlag, "password", "", "Api password (use --stdin to avoid shell history)")
	createCmd.Flags().BoolVar(&stdinFlag, "stdin", false, "Read password from stdin instead of --password flag")

	ApisCmd.AddCommand(createCmd)
	ApisCmd.AddCommand(listCmd)
	ApisCmd.AddCommand(accessCmd)
}
