package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/seat-desk-api/internal/app"
	"github.com/noah-isme/seat-desk-api/internal/models"
	"github.com/noah-isme/seat-desk-api/internal/service"
	"github.com/noah-isme/seat-desk-api/pkg/config"
	"github.com/noah-isme/seat-desk-api/pkg/database"
	"github.com/noah-isme/seat-desk-api/pkg/messaging"
)

func newMigrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status|redo|version|reset]",
		Short:     "Run database migrations for the sql roster backend",
		Args:      cobra.RangeArgs(0, 2),
		ValidArgs: []string{"up", "down", "status", "redo", "version", "reset"},
		RunE: func(cmd *cobra.Command, args []string) error {
			command := "up"
			if len(args) > 0 {
				command = args[0]
			}
			if e.cfg.Roster.Backend != config.RosterBackendSQL {
				e.logger.Warn("ROSTER_BACKEND is not sql; the migrated schema will not be used by the api", zap.String("backend", e.cfg.Roster.Backend))
			}
			db, err := database.Open(e.cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := database.Migrate(cmd.Context(), db, command, args[min(1, len(args)):]...); err != nil {
				return err
			}
			e.logger.Info("migration finished", zap.String("command", command), zap.String("driver", e.cfg.Database.Driver))
			return nil
		},
	}
}

func newCleanupCmd(e *env) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Purge inactive members whose plan ended before the retention period",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return e.withApp(cmd.Context(), func(a *app.App) error {
				removed, err := a.Seats.CleanupInactive(cmd.Context(), time.Duration(days)*24*time.Hour)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d inactive member(s)\n", removed)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "retention-days", 0, "override INACTIVE_RETENTION (days)")
	return cmd
}

func newExportCmd(e *env) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a full JSON backup",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return e.withApp(cmd.Context(), func(a *app.App) error {
				snapshot, err := a.Backups.Export(cmd.Context())
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if out != "" && out != "-" {
					f, err := os.Create(out)
					if err != nil {
						return fmt.Errorf("create %s: %w", out, err)
					}
					defer f.Close()
					w = f
				}
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(snapshot)
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "-", "output file, - for stdout")
	return cmd
}

func newImportCmd(e *env) *cobra.Command {
	var in string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace every record with a JSON backup",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var r io.Reader = cmd.InOrStdin()
			if in != "" && in != "-" {
				f, err := os.Open(in)
				if err != nil {
					return fmt.Errorf("open %s: %w", in, err)
				}
				defer f.Close()
				r = f
			}
			var snapshot models.Snapshot
			if err := json.NewDecoder(r).Decode(&snapshot); err != nil {
				return fmt.Errorf("decode backup: %w", err)
			}
			return e.withApp(cmd.Context(), func(a *app.App) error {
				if err := a.Backups.Import(cmd.Context(), &snapshot); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d member(s), %d transaction(s)\n", len(snapshot.Students), len(snapshot.Transactions))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "-", "backup file, - for stdin")
	return cmd
}

func newRemindCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "remind",
		Short: "Email members whose plan ends within the expiry window",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return e.withApp(cmd.Context(), func(a *app.App) error {
				a.Queue.Start(cmd.Context())
				queued, err := a.Reminders.EnqueueReminders(cmd.Context())
				if err != nil {
					return err
				}
				if err := a.Queue.Drain(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "sent %d reminder(s)\n", queued)
				return nil
			})
		},
	}
}

func newConsumeLedgerCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "consume-ledger",
		Short: "Append published transaction events to the ledger log until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !e.cfg.AMQP.Enabled {
				return fmt.Errorf("AMQP_ENABLED is false; nothing publishes transaction events")
			}
			ledger, err := service.NewLedgerLog(e.cfg.AMQP.LogPath, e.logger.Named("ledger"))
			if err != nil {
				return err
			}
			consumer := messaging.NewConsumer(e.cfg.AMQP.URL, e.cfg.AMQP.Queue, e.logger.Named("amqp"))
			e.logger.Info("consuming transaction events", zap.String("queue", e.cfg.AMQP.Queue), zap.String("log", e.cfg.AMQP.LogPath))
			return consumer.Run(cmd.Context(), ledger.Handle)
		},
	}
}
