// Command budgetctl runs BudgetWise maintenance tasks outside the API
// process: schema migrations, the goal notification check and budget
// recalculation.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gorm.io/gorm"

	"budgetwise/internal/config"
	"budgetwise/internal/database"
	"budgetwise/internal/logger"
)

// migrator is the schema control surface of database.Manager.
type migrator interface {
	RunMigrations() error
	RollbackMigrations(steps int) error
	MigrationVersion() (uint, bool, error)
}

// deps are the resources commands open lazily, swapped out in tests.
type deps struct {
	openMigrator func() (migrator, func(), error)
	openDB       func() (*gorm.DB, func(), error)
	now          func() time.Time
}

func defaultDeps() deps {
	return deps{
		openMigrator: func() (migrator, func(), error) {
			m, err := openManager()
			if err != nil {
				return nil, nil, err
			}
			return m, func() { _ = m.Close() }, nil
		},
		openDB: func() (*gorm.DB, func(), error) {
			m, err := openManager()
			if err != nil {
				return nil, nil, err
			}
			return m.DB(), func() { _ = m.Close() }, nil
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

func openManager() (*database.Manager, error) {
	return database.NewManager(database.NewConfig(config.Get()))
}

func newRootCmd(d deps) *cobra.Command {
	v := viper.New()
	var cfgFile string

	root := &cobra.Command{
		Use:           "budgetctl",
		Short:         "BudgetWise maintenance commands",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(v, cfgFile)
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./budgetctl.yaml)")

	root.AddCommand(migrateCmd(d))
	root.AddCommand(checkGoalsCmd(d, v))
	root.AddCommand(recalculateCmd(d))
	root.AddCommand(scheduleCmd(d, v))
	return root
}

// initConfig loads the application config from the environment and layers
// the optional budgetctl file and BUDGETWISE_* variables on top for the
// CLI-only settings.
func initConfig(v *viper.Viper, cfgFile string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("budgetctl")
		v.SetConfigType("yaml")
	}
	v.SetEnvPrefix("BUDGETWISE")
	v.AutomaticEnv()

	v.SetDefault("cron", cfg.NotificationCron)
	v.SetDefault("timeout", cfg.GoalCheckTimeout)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(defaultDeps()).ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
