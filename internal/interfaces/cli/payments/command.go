// Package payments holds operator commands for the payment pipeline.
package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tribe-inc/tribe/internal/application/payment/statuspoller"
	paymentUsecases "github.com/tribe-inc/tribe/internal/application/payment/usecases"
	"github.com/tribe-inc/tribe/internal/infrastructure/config"
	"github.com/tribe-inc/tribe/internal/infrastructure/database"
	"github.com/tribe-inc/tribe/internal/infrastructure/payment/yookassa"
	"github.com/tribe-inc/tribe/internal/infrastructure/repository"
	shareddb "github.com/tribe-inc/tribe/internal/shared/db"
	"github.com/tribe-inc/tribe/internal/shared/logger"
)

var (
	env        string
	configPath string

	serverURL   string
	token       string
	interval    time.Duration
	maxAttempts int
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payments",
		Short: "Payment pipeline tools",
	}

	cmd.PersistentFlags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")

	cmd.AddCommand(
		newAwaitCommand(),
		newExpireCommand(),
	)

	return cmd
}

func newAwaitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "await <transaction-id>",
		Short: "Wait for a transaction to settle",
		Long: `Poll a running server until the transaction is paid or failed, or the attempt
budget runs out. The token must belong to the user who owns the transaction.`,
		Args: cobra.ExactArgs(1),
		RunE: runAwait,
	}

	cmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "Base URL of the server")
	cmd.Flags().StringVar(&token, "token", os.Getenv("TRIBE_TOKEN"), "Bearer token of the paying user (default $TRIBE_TOKEN)")
	cmd.Flags().DurationVar(&interval, "interval", statuspoller.DefaultInterval, "Delay between status checks")
	cmd.Flags().IntVar(&maxAttempts, "attempts", statuspoller.DefaultMaxAttempts, "Maximum number of status checks")

	return cmd
}

func newExpireCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "expire",
		Short: "Fail pending transactions older than the configured TTL",
		Long: `Run one pass of the pending-transaction expiry job against the configured database.
Transactions with a processor payment are checked with the processor first: captured
payments are settled, canceled ones failed, open ones left pending.`,
		RunE: runExpire,
	}
}

func runAwait(cmd *cobra.Command, args []string) error {
	if token == "" {
		return fmt.Errorf("a bearer token is required (--token or TRIBE_TOKEN)")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := NewStatusClient(serverURL, token, 10*time.Second)
	poller := statuspoller.New(client, interval, maxAttempts, logger.NewLogger().Named("await"))

	outcome, err := poller.Await(ctx, args[0])
	if err != nil {
		return fmt.Errorf("wait interrupted after %d attempts: %w", outcome.Attempts, err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(outcome); err != nil {
		return err
	}

	if outcome.State != statuspoller.StateSucceeded {
		return fmt.Errorf("transaction %s did not settle: %s", args[0], outcome)
	}
	return nil
}

func runExpire(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(env, configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger, cfg.Server.Mode); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger().Named("expire")

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	db := database.Get()
	transactionRepo := repository.NewTransactionRepository(db, log)
	reconciler := paymentUsecases.NewHandleProcessorNotificationUseCase(
		transactionRepo,
		repository.NewMembershipRepository(db),
		repository.NewCommunityRepository(db),
		repository.NewProfileRepository(db),
		yookassa.NewClient(cfg.Payment.YooKassa, log.Named("yookassa")),
		shareddb.NewTransactionManager(db),
		cfg.Payment.YooKassa.Timeout,
		log,
	)
	uc := paymentUsecases.NewExpirePendingTransactionsUseCase(transactionRepo, reconciler, cfg.Payment.PendingTTL, log)

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	expired, err := uc.Execute(ctx)
	if err != nil {
		return fmt.Errorf("failed to expire pending transactions: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Failed %d stale pending transaction(s) older than %s\n", expired, cfg.Payment.PendingTTL)
	return nil
}
