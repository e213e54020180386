package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tribe-inc/tribe/internal/interfaces/cli/migrate"
	"github.com/tribe-inc/tribe/internal/interfaces/cli/payments"
	"github.com/tribe-inc/tribe/internal/interfaces/cli/server"
	"github.com/tribe-inc/tribe/internal/shared/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "tribe",
		Short:   "Tribe - community payments and entitlements",
		Long:    `Tribe runs the payment, webhook settlement, entitlement and referral API for paid communities.`,
		Version: version.Get().String(),
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
		payments.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
