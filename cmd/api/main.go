// cmd/api/main.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "api",
		Short: "Storefront cart and checkout API",
		Long: `Storefront backend: product catalog, session carts and checkout.

Running without a subcommand is the same as "api serve".`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	var emailTo string
	emailTest := &cobra.Command{
		Use:   "email-test",
		Short: "Send a test email through the configured SMTP relay",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEmailTest(cmd.Context(), emailTo)
		},
	}
	emailTest.Flags().StringVar(&emailTo, "to", "", "Recipient address")
	_ = emailTest.MarkFlagRequired("to")

	cmd.AddCommand(
		emailTest,
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Run database migrations and create indexes",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMigrate(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Insert the demo catalog when no products exist",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runSeed(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("storefront-backend version %s\n", version())
			},
		},
	)

	return cmd
}

func version() string {
	if v := os.Getenv("APP_VERSION"); v != "" {
		return v
	}
	return "dev"
}
