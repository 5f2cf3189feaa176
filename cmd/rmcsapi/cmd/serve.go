package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/terraconstructs/rmcs/internal/auth"
	"github.com/terraconstructs/rmcs/internal/config"
	"github.com/terraconstructs/rmcs/internal/db/bunx"
	"github.com/terraconstructs/rmcs/internal/repository"
	"github.com/terraconstructs/rmcs/internal/server"
	"github.com/terraconstructs/rmcs/internal/services/iam"
	"github.com/terraconstructs/rmcs/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the RMCS auth server",
	Long:  `Starts the HTTP server with the Connect RPC auth, identity and access services.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		shutdownTelemetry, err := telemetry.Init(ctx, cfg.Observability)
		if err != nil {
			return fmt.Errorf("failed to initialize telemetry: %w", err)
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTelemetry(sctx); err != nil {
				log.Printf("Warning: telemetry shutdown: %v", err)
			}
		}()

		db, err := bunx.NewDB(cfg.DatabaseURL, bunx.Options{MaxOpenConns: cfg.MaxDBConnections})
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer bunx.Close(db)

		log.Printf("Connected to database (%s)", bunx.DetectDatabaseType(cfg.DatabaseURL))

		apiRepo := repository.NewBunApiRepository(db)
		procedureRepo := repository.NewBunProcedureRepository(db)
		roleRepo := repository.NewBunRoleRepository(db)
		userRepo := repository.NewBunUserRepository(db)
		sessionRepo := repository.NewBunSessionRepository(db)

		root := newRoot(cfg)
		if !cfg.RootEnabled() {
			log.Printf("Root login disabled (ROOT_PASSWORD or ROOT_KEY not set)")
		}

		guard, err := loadGuard(ctx, cfg, apiRepo, procedureRepo, root)
		if err != nil {
			return err
		}

		var onKeyRotated []func(string, []byte)
		if guard.Secured() {
			onKeyRotated = append(onKeyRotated, guard.OnKeyRotated)
		}

		iamService, err := iam.NewIAMService(
			iam.IAMServiceDependencies{
				Apis:         apiRepo,
				Procedures:   procedureRepo,
				Roles:        roleRepo,
				Users:        userRepo,
				Sessions:     sessionRepo,
				Keys:         auth.NewKeyStore(),
				Root:         root,
				OnKeyRotated: onKeyRotated,
			},
			iam.IAMServiceConfig{ApiCacheTTL: cfg.ApiCacheTTL},
		)
		if err != nil {
			return fmt.Errorf("create IAM service: %w", err)
		}

		healthHandler := func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			fmt.Fprintf(w, `{"status":"ok","secured":%t,"root_enabled":%t}`, guard.Secured(), cfg.RootEnabled())
		}

		handler := server.NewH2CHandler(server.RouterOptions{
			IAMService:        iamService,
			Guard:             guard,
			TrustProxyHeaders: cfg.TrustProxyHeaders,
			HealthHandler:     healthHandler,
		})

		srv := &http.Server{
			Addr:         cfg.ServerAddr,
			Handler:      handler,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			log.Printf("Starting server on %s", cfg.ServerAddr)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			log.Printf("Received signal %v, shutting down gracefully", sig)

			sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := srv.Shutdown(sctx); err != nil {
				srv.Close()
				return fmt.Errorf("graceful shutdown failed: %w", err)
			}

			log.Printf("Server stopped")
			return nil
		}
	},
}

func newRoot(c *config.Config) *auth.Root {
	if !c.RootEnabled() {
		return auth.NewRoot("", nil, c.Root.AccessDuration, c.Root.RefreshDuration)
	}
	return auth.NewRoot(c.Root.Password, []byte(c.Root.Key), c.Root.AccessDuration, c.Root.RefreshDuration)
}

// loadGuard builds the guard of the configured Api. Without API_ID the
// guarded services run unsecured.
func loadGuard(ctx context.Context, c *config.Config, apis repository.ApiRepository, procedures repository.ProcedureRepository, root *auth.Root) (*iam.Guard, error) {
	if c.APIID == "" {
		log.Printf("WARNING: API_ID not set, access and custom procedures run unsecured")
		return iam.NewUnsecuredGuard(), nil
	}
	guard, err := iam.LoadGuard(ctx, apis, procedures, c.APIID, root.Key())
	if err != nil {
		return nil, fmt.Errorf("load guard for api %s: %w", c.APIID, err)
	}
	if c.Debug {
		log.Printf("Guard loaded for api %s", c.APIID)
	}
	return guard, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
