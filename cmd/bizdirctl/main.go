// Command bizdirctl runs operational tasks against the directory database.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/devrev/bizdir/internal/config"
	"github.com/devrev/bizdir/internal/logging"
	"github.com/devrev/bizdir/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	timeout    time.Duration
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "bizdirctl",
	Short: "Operate the business directory",
	Long: `bizdirctl runs maintenance tasks for the business directory.

It reads the same configuration as the server (config file, .env and
BIZDIR_* environment variables).`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "operation timeout")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(refreshPromotionsCmd)
	rootCmd.AddCommand(seedCategoriesCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(createUserCmd)
	rootCmd.AddCommand(setRoleCmd)
	rootCmd.AddCommand(reportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// env is what every database-backed subcommand needs.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *store.PostgresStore
}

func (e *env) Close() {
	if e.store != nil {
		e.store.Close()
	}
	_ = e.logger.Sync()
}

func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Level, "console")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, logger, nil
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}
	pg, err := store.NewPostgresStore(ctx, store.PostgresConfig{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		Database: cfg.Database.Database,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		SSLMode:  cfg.Database.SSLMode,
		MaxConns: 2,
		MinConns: 1,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return &env{cfg: cfg, logger: logger, store: pg}, nil
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}
