package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long: `Apply the schema for every table. Existing data is kept; new tables,
columns and indexes are added.

Examples:
  scentctl migrate
  scentctl migrate --config configs/production.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.AutoMigrate(); err != nil {
		return err
	}

	log.WithField("database", cfg.Database.DBName).Info("Schema migrated")
	fmt.Fprintln(cmd.OutOrStdout(), "✓ schema up to date")
	return nil
}
