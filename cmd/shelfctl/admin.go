package main

import (
	"context"
	"fmt"
	"os"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/shelfwise/shelfwise-server/internal/domain"
	"github.com/shelfwise/shelfwise-server/internal/service"
)

var (
	userName     string
	userEmail    string
	userRole     string
	userPassword string
)

func init() {
	createUserCmd.Flags().StringVar(&userName, "name", "", "display name (required)")
	createUserCmd.Flags().StringVar(&userEmail, "email", "", "login email (required)")
	createUserCmd.Flags().StringVar(&userRole, "role", string(domain.RoleAdmin), "student, teacher or admin")
	createUserCmd.Flags().StringVar(&userPassword, "password", "", "password; defaults to $SHELFWISE_PASSWORD")
	_ = createUserCmd.MarkFlagRequired("name")
	_ = createUserCmd.MarkFlagRequired("email")

	rootCmd.AddCommand(reindexCmd)
	rootCmd.AddCommand(createUserCmd)
}

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the search index from the database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withContainer(cmd, func(ctx context.Context, injector *do.RootScope) error {
			n, err := do.MustInvoke[*service.BookService](injector).ReindexAll(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d books\n", n)
			return nil
		})
	},
}

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create an account with any role",
	Long: `Create an account directly in the database. This is the only way to
create admin accounts: registration through the API always yields students.

Examples:
  SHELFWISE_PASSWORD=s3cretpass shelfctl create-user --name Ada --email ada@example.com
  shelfctl create-user --name Tom --email tom@example.com --role teacher --password changeme123`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		password := userPassword
		if password == "" {
			password = os.Getenv("SHELFWISE_PASSWORD")
		}
		if password == "" {
			return fmt.Errorf("a password is required: pass --password or set SHELFWISE_PASSWORD")
		}

		return withContainer(cmd, func(ctx context.Context, injector *do.RootScope) error {
			user, err := do.MustInvoke[*service.AuthService](injector).CreateUser(ctx, service.RegisterRequest{
				Name:     userName,
				Email:    userEmail,
				Password: password,
				Role:     domain.Role(userRole),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s (%s)\n", user.Role, user.Email, user.ID)
			return nil
		})
	},
}
