package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/seat-desk-api/internal/app"
	"github.com/noah-isme/seat-desk-api/pkg/config"
	"github.com/noah-isme/seat-desk-api/pkg/logger"
)

// env carries what every subcommand needs; it is filled in PersistentPreRunE.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	e := &env{}
	root := &cobra.Command{
		Use:           "seatctl",
		Short:         "Administer the seat desk outside the HTTP API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			log, err := logger.New(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			e.cfg = cfg
			e.logger = log.Named("seatctl")
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if e.logger != nil {
				_ = e.logger.Sync()
			}
		},
	}
	root.AddCommand(
		newMigrateCmd(e),
		newCleanupCmd(e),
		newExportCmd(e),
		newImportCmd(e),
		newRemindCmd(e),
		newConsumeLedgerCmd(e),
	)
	return root
}

// withApp wires the services for one command run.
func (e *env) withApp(ctx context.Context, fn func(a *app.App) error) error {
	a, err := app.New(ctx, e.cfg, e.logger)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}
