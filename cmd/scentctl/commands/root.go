package commands

import (
	"fmt"
	"os"

	"github.com/scentboard/scentboard/internal/config"
	"github.com/scentboard/scentboard/internal/repository"
	"github.com/scentboard/scentboard/pkg/cache"
	"github.com/scentboard/scentboard/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "scentctl",
	Short: "Operator tooling for Scentboard",
	Long: `scentctl runs maintenance tasks against the Scentboard database and cache.

Commands:
  migrate             - Create or update the database schema
  trending rebuild    - Recompute trending scores from recent engagement
  trending top        - Show the highest ranked posts`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (defaults to CONFIG_PATH or configs/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}
	return config.LoadConfig()
}

func newLogger(cfg *config.Config) *logger.Logger {
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	return logger.New(os.Stderr, level)
}

func openDatabase(cfg *config.Config) (*repository.Database, error) {
	if verbose {
		cfg.Database.LogQueries = true
	}
	return repository.NewDatabase(&cfg.Database)
}

func openCache(cfg *config.Config) *cache.RedisClient {
	return cache.NewRedisClient(
		cfg.Redis.Addr(),
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Redis.PoolSize,
		cfg.Redis.MinIdleConns,
	)
}
