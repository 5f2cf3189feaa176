package apis

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/terraconstructs/rmcs/cmd/rmcsapi/cmd/cmdutil"
	"github.com/terraconstructs/rmcs/internal/auth"
	"github.com/terraconstructs/rmcs/internal/db/bunx"
	"github.com/terraconstructs/rmcs/internal/db/models"
	"github.com/terraconstructs/rmcs/internal/repository"
)

var (
	nameFlag        string
	addressFlag     string
	categoryFlag    string
	descriptionFlag string
	passwordFlag    string
	stdinFlag       bool
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a new Api identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		if nameFlag == "" {
			return fmt.Errorf("--name flag is required")
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
		if _, err := store.Apis.GetByName(ctx, nameFlag); err == nil {
			return fmt.Errorf("api %q already exists", nameFlag)
		} else if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("failed to check name uniqueness: %w", err)
		}

		hash, err := auth.HashPassword(password)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		key, err := auth.GenerateAccessKey()
		if err != nil {
			return err
		}
		api := &models.Api{
			ID:           bunx.NewUUIDv7(),
			Name:         nameFlag,
			Address:      addressFlag,
			Category:     categoryFlag,
			Description:  descriptionFlag,
			PasswordHash: hash,
			AccessKey:    key,
		}
		if err := store.Apis.Create(ctx, api); err != nil {
			return fmt.Errorf("failed to create api: %w", err)
		}

		fmt.Println("Api created successfully!")
		fmt.Println("----------------------------------------")
		fmt.Printf("Api ID: %s\n", api.ID)
		fmt.Printf("Name: %s\n", api.Name)
		fmt.Println("----------------------------------------")
		fmt.Println("Set API_ID to this id on the Api's rmcs instance.")
		return nil
	},
}
