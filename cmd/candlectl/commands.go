package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/candlecraft/storefront/internal/app"
	"github.com/candlecraft/storefront/internal/catalog"
	"github.com/candlecraft/storefront/internal/domain"
)

func newCreateAdminCmd() *cobra.Command {
	var data domain.SignupData

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		Example: `  candlectl create-admin --phone 9876543210 --username owner \
    --name "Store Owner" --email owner@example.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			data.Password = os.Getenv("ADMIN_PASSWORD")
			if data.Password == "" {
				return fmt.Errorf("ADMIN_PASSWORD must be set")
			}

			a, err := app.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			user, err := a.Auth.CreateAdmin(cmd.Context(), data)
			if err != nil {
				return fmt.Errorf("failed to create admin: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Admin created successfully!\n\n")
			fmt.Fprintf(out, "User ID:  %s\n", user.ID)
			fmt.Fprintf(out, "Username: %s\n", user.Username)
			fmt.Fprintf(out, "Phone:    %s\n", user.PhoneNumber)
			fmt.Fprintf(out, "\nSign in with login type \"username\" or \"phone\".\n")
			return nil
		},
	}

	cmd.Flags().StringVar(&data.PhoneNumber, "phone", "", "10-digit mobile number")
	cmd.Flags().StringVar(&data.Username, "username", "", "login username")
	cmd.Flags().StringVar(&data.FullName, "name", "", "full name")
	cmd.Flags().StringVar(&data.Email, "email", "", "email address (optional)")
	_ = cmd.MarkFlagRequired("phone")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newImportProductsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-products <catalog.yaml>",
		Short: "Create or update products from a YAML catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			products, err := catalog.Load(args[0])
			if err != nil {
				return err
			}

			a, err := app.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			created, updated, err := a.Products.Import(cmd.Context(), products)
			if err != nil {
				return fmt.Errorf("import stopped after %d created, %d updated: %w", created, updated, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d products (%d created, %d updated)\n",
				created+updated, created, updated)
			return nil
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			// opening the repositories applies the schema
			_, db, err := app.OpenRepositories(cmd.Context(), cfg.Database, logger)
			if err != nil {
				return err
			}
			if db != nil {
				defer db.Close()
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
			return nil
		},
	}
}
