// Package cli defines the cobra command tree for estatehub-manage, the
// maintenance tool run next to the API server.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"estatehub_backend/pkg/config"
	"estatehub_backend/pkg/database"
	"estatehub_backend/pkg/logging"
)

var (
	flagFormat   string
	flagDBDriver string
	flagDBURL    string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "estatehub-manage",
		Short:         "Maintenance commands for the EstateHub backend",
		Long:          "Run migrations, load reference data, repair listing prices and create administrator accounts.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagDBDriver, "db-driver", "", "database driver (default: DB_DRIVER)")
	root.PersistentFlags().StringVar(&flagDBURL, "db-url", "", "database URL (default: DATABASE_URL)")

	root.AddCommand(
		newMigrateCmd(),
		newSeedCmd(),
		newCleanPricesCmd(),
		newCreateSuperuserCmd(),
	)
	return root
}

// loadConfig reads the environment and applies the database flags on top.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flagDBDriver != "" {
		cfg.Database.Driver = flagDBDriver
	}
	if flagDBURL != "" {
		cfg.Database.URL = flagDBURL
	}
	logging.Setup(cfg.Logging, cfg.Server.Env)
	return cfg, nil
}

func openDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func closeDB(cmd *cobra.Command, db *gorm.DB) {
	if err := database.Close(db); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: closing database: %v\n", err)
	}
}

func isJSON() bool {
	return flagFormat == "json"
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
