package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/terraconstructs/rmcs/internal/db/bunx"
	"github.com/terraconstructs/rmcs/internal/seed"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Provision Apis, procedures, roles and users from a YAML file",
	Long: `Applies a seed file in one transaction. Records that already exist
(matched by name) are left untouched, so the command can be re-run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if seedFile == "" {
			return fmt.Errorf("--file flag is required")
		}
		file, err := seed.LoadFile(seedFile)
		if err != nil {
			return err
		}

		db, err := bunx.NewDB(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer bunx.Close(db)

		res, err := seed.Apply(cmd.Context(), db, file)
		if err != nil {
			return fmt.Errorf("seed failed: %w", err)
		}

		printIDs("Apis", res.Apis)
		printIDs("Users", res.Users)
		return nil
	},
}

func printIDs(title string, ids map[string]string) {
	if len(ids) == 0 {
		return
	}
	names := make([]string, 0, len(ids))
	for name := range ids {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Printf("%s:\n", title)
	for _, name := range names {
		fmt.Printf("  %s: %s\n", name, ids[name])
	}
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "Path to the seed YAML file")
	rootCmd.AddCommand(seedCmd)
}
