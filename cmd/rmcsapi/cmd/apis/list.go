package apis

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/terraconstructs/rmcs/cmd/rmcsapi/cmd/cmdutil"
	"github.com/terraconstructs/rmcs/internal/services/iam"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered Apis",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := cmdutil.OpenStore(cmdutil.Config())
		if err != nil {
			return err
		}
		defer store.Close()

		apis, err := store.Apis.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list apis: %w", err)
		}
		if len(apis) == 0 {
			fmt.Println("No apis registered.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tADDRESS")
		for _, api := range apis {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", api.ID, api.Name, api.Category, api.Address)
		}
		return w.Flush()
	},
}

var accessCmd = &cobra.Command{
	Use:   "access [name]",
	Short: "Show the procedure access map of an Api",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := cmdutil.OpenStore(cmdutil.Config())
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := cmd.Context()
		api, err := store.Apis.GetByName(ctx, args[0])
		if err != nil {
			return fmt.Errorf("api %q: %w", args[0], err)
		}
		rows, err := store.Procedures.ListAccess(ctx, api.ID)
		if err != nil {
			return fmt.Errorf("failed to load access map: %w", err)
		}
		fmt.Print(formatAccessTable(iam.AccessTableFromRows(rows)))
		return nil
	},
}

func formatAccessTable(table map[string][]string) string {
	procedures := make([]string, 0, len(table))
	for p := range table {
		procedures = append(procedures, p)
	}
	sort.Strings(procedures)

	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PROCEDURE\tROLES")
	for _, p := range procedures {
		roles := strings.Join(table[p], ",")
		if roles == "" {
			roles = "-"
		}
		fmt.Fprintf(w, "%s\t%s\n", p, roles)
	}
	w.Flush()
	return b.String()
}
