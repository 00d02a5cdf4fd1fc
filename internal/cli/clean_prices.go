package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"estatehub_backend/internal/catalog"
)

func newCleanPricesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean-prices",
		Short: "Repair listing prices stored in minor units or as junk",
		Long: "Whole-number prices above the threshold are divided by 100; prices that are " +
			"missing or do not parse are set to 0.",
		Args: cobra.NoArgs,
		RunE: runCleanPrices,
	}
	cmd.Flags().Bool("dry-run", false, "report changes without writing them")
	cmd.Flags().Int64("threshold", 0, "rescale threshold (default: PRICE_RESCALE_THRESHOLD)")
	return cmd
}

func runCleanPrices(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	threshold, _ := cmd.Flags().GetInt64("threshold")
	if threshold < 0 {
		return fmt.Errorf("threshold must be positive, got %d", threshold)
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

	svc := catalog.NewService(db, nil, cfg.Catalog.PriceRescaleThreshold)
	report, err := svc.NormalizePrices(cmd.Context(), catalog.PriceOptions{DryRun: dryRun, Threshold: threshold})
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(cmd.OutOrStdout(), report)
	}
	out := cmd.OutOrStdout()
	for _, c := range report.Changes {
		fmt.Fprintf(out, "#%d  %s -> %s  (%s)\n", c.ListingID, c.From, c.To, c.Reason)
	}
	verb := "Updated"
	if report.DryRun {
		verb = "Would update"
	}
	fmt.Fprintf(out, "%s %d prices (%d rescaled, %d reset) of %d scanned, %d failed\n",
		verb, report.Rescaled+report.Reset, report.Rescaled, report.Reset, report.Scanned, report.Failed)
	return nil
}
