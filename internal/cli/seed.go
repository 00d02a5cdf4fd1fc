package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"estatehub_backend/internal/model"
	"estatehub_backend/pkg/database"
	"estatehub_backend/pkg/seed"
)

func newSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load reference data (categories, property types, amenities, locations)",
		Long:  "Insert missing reference rows. Without --file the built-in data set is used. Existing rows are kept.",
		Args:  cobra.NoArgs,
		RunE:  runSeed,
	}
	cmd.Flags().String("file", "", "YAML seed document")
	return cmd
}

func runSeed(cmd *cobra.Command, args []string) error {
	var raw []byte
	if path, _ := cmd.Flags().GetString("file"); path != "" {
		var err error
		raw, err = os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read seed file: %w", err)
		}
	}
	data, err := seed.Parse(raw)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer closeDB(cmd, db)

	if err := database.Migrate(db, model.All()...); err != nil {
		return err
	}
	res, err := seed.Run(db, data)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), res)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d categories, %d property types, %d amenities, %d locations\n",
		res.Categories, res.PropertyTypes, res.Amenities, res.Locations)
	return nil
}
