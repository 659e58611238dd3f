// Command catalog-admin prepares credentials for the catalog admin routes.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"ProductStore/internal/auth"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "catalog-admin",
		Short:        "Admin credential helpers for the catalog service",
		SilenceUsage: true,
	}
	root.AddCommand(hashCmd(), tokenCmd())
	return root
}

func hashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash for CATALOG_ADMIN_PASSWORDHASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashPassword(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return err
		},
	}
}

func tokenCmd() *cobra.Command {
	var (
		secret string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an admin bearer token without going through /admin/login",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if secret == "" {
				secret = os.Getenv("CATALOG_ADMIN_JWTSECRET")
			}
			if secret == "" {
				return fmt.Errorf("--secret or CATALOG_ADMIN_JWTSECRET is required")
			}

			tok, err := auth.NewTokenMaker(secret).New("admin", auth.RoleAdmin, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return err
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "JWT signing secret")
	cmd.Flags().DurationVar(&ttl, "ttl", 15*time.Minute, "token lifetime")
	return cmd
}
