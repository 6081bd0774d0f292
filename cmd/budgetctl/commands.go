package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"budgetwise/internal/config"
	"budgetwise/internal/scheduler"
	"budgetwise/internal/server"
	"budgetwise/internal/services"
	"budgetwise/internal/validator"
)

func migrateCmd(d deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, closeFn, err := d.openMigrator()
			if err != nil {
				return err
			}
			defer closeFn()

			if err := m.RunMigrations(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied successfully")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down [N]",
		Short: "Roll back the last N migrations (default 1)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				steps = n
			}

			m, closeFn, err := d.openMigrator()
			if err != nil {
				return err
			}
			defer closeFn()

			if err := m.RollbackMigrations(steps); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rolled back %d migration(s)\n", steps)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, closeFn, err := d.openMigrator()
			if err != nil {
				return err
			}
			defer closeFn()

			version, dirty, err := m.MigrationVersion()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Version: %d, Dirty: %v\n", version, dirty)
			return nil
		},
	})

	return cmd
}

func checkGoalsCmd(d deps, v *viper.Viper) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "check-goals",
		Short: "Run the goal notification check once",
		Long: `Evaluate every incomplete saving goal and emit the deadline, overdue,
reminder and milestone notifications that are due. The report is printed
as JSON.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			today := d.now()
			if date != "" {
				parsed, err := time.Parse(validator.DateLayout, date)
				if err != nil {
					return fmt.Errorf("invalid --date %q, expected YYYY-MM-DD", date)
				}
				today = parsed
			}

			notifications, closeFn, err := openNotifications(d)
			if err != nil {
				return err
			}
			defer closeFn()

			ctx := cmd.Context()
			if timeout := v.GetDuration("timeout"); timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			report, err := notifications.CheckAllGoals(ctx, today)
			if err != nil {
				return fmt.Errorf("goal check failed: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "evaluation date (YYYY-MM-DD, default today in UTC)")
	cmd.Flags().Duration("timeout", 0, "abort the check after this long (default GOAL_CHECK_TIMEOUT)")
	_ = v.BindPFlag("timeout", cmd.Flags().Lookup("timeout"))
	return cmd
}

func recalculateCmd(d deps) *cobra.Command {
	var (
		userID string
		year   int
		month  int
	)

	cmd := &cobra.Command{
		Use:   "recalculate",
		Short: "Recalculate a user's monthly budget from the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if userID == "" {
				return errors.New("--user is required")
			}

			db, closeFn, err := d.openDB()
			if err != nil {
				return err
			}
			defer closeFn()

			budgets := services.NewBudgetService(db, services.NewAlertService(db))
			summary, err := budgets.Summary(userID, year, month)
			if err != nil {
				return err
			}

			b := summary.Budget
			fmt.Fprintf(cmd.OutOrStdout(), "Budget %04d-%02d: spent %s of %s, %d active alert(s)\n",
				b.Year, b.Month, b.SpentSoFar.StringFixed(2), b.TotalBudget.StringFixed(2), len(summary.ActiveAlerts))
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user ID")
	cmd.Flags().IntVar(&year, "year", 0, "budget year (default current)")
	cmd.Flags().IntVar(&month, "month", 0, "budget month 1-12 (default current)")
	return cmd
}

func scheduleCmd(d deps, v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the goal notification check on a cron schedule until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			spec := v.GetString("cron")
			if spec == "" {
				return errors.New("no schedule configured: pass --cron or set NOTIFICATION_CRON")
			}

			notifications, closeFn, err := openNotifications(d)
			if err != nil {
				return err
			}
			defer closeFn()

			sched, err := scheduler.New(spec, notifications, v.GetDuration("timeout"))
			if err != nil {
				return err
			}
			return sched.Run(cmd.Context())
		},
	}

	cmd.Flags().String("cron", "", "cron spec, e.g. \"0 9 * * *\" or \"@daily\" (default NOTIFICATION_CRON)")
	_ = v.BindPFlag("cron", cmd.Flags().Lookup("cron"))
	return cmd
}

// openNotifications opens the database and the configured delivery channels.
func openNotifications(d deps) (services.NotificationServicer, func(), error) {
	db, closeDB, err := d.openDB()
	if err != nil {
		return nil, nil, err
	}

	dispatcher, closeDispatcher, err := server.NewDispatcher(config.Get())
	if err != nil {
		closeDB()
		return nil, nil, err
	}

	return services.NewNotificationService(db, dispatcher), func() {
		closeDispatcher()
		closeDB()
	}, nil
}
