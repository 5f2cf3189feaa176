package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/terraconstructs/rmcs/cmd/rmcsapi/cmd/apis"
	"github.com/terraconstructs/rmcs/cmd/rmcsapi/cmd/cmdutil"
	"github.com/terraconstructs/rmcs/cmd/rmcsapi/cmd/users"
	"github.com/terraconstructs/rmcs/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "rmcsapi",
	Short: "RMCS authentication and authorization server",
	Long: `rmcsapi serves the RMCS login, session and access services over Connect RPC.
It also carries the administrative commands for the auth database.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		applyFlagOverrides(cmd, cfg)
		cmdutil.SetConfig(cfg)
		return nil
	},
}

// applyFlagOverrides lets explicitly set flags win over the environment.
func applyFlagOverrides(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("db-url") {
		c.DatabaseURL, _ = flags.GetString("db-url")
	}
	if flags.Changed("server-addr") {
		c.ServerAddr, _ = flags.GetString("server-addr")
	}
	if flags.Changed("api-id") {
		c.APIID, _ = flags.GetString("api-id")
	}
	if flags.Changed("trust-proxy-headers") {
		c.TrustProxyHeaders, _ = flags.GetBool("trust-proxy-headers")
	}
	if flags.Changed("debug") {
		c.Debug, _ = flags.GetBool("debug")
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().String("db-url", "", "Database connection URL (env: DATABASE_URL)")
	rootCmd.PersistentFlags().String("server-addr", "", "Server bind address (env: SERVER_ADDR)")
	rootCmd.PersistentFlags().String("api-id", "", "Api whose access map guards this instance (env: API_ID)")
	rootCmd.PersistentFlags().Bool("trust-proxy-headers", false, "Take client addresses from X-Forwarded-For/X-Real-IP (env: TRUST_PROXY_HEADERS)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging (env: DEBUG)")

	rootCmd.AddCommand(users.UsersCmd)
	rootCmd.AddCommand(apis.ApisCmd)
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
