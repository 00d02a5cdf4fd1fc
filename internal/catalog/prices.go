package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"estatehub_backend/internal/model"
	"estatehub_backend/pkg/metrics"
)

type PriceOptions struct {
	// Threshold overrides the configured rescale threshold when positive.
	Threshold int64
	DryRun    bool
}

// PriceChange is one row NormalizePrices rewrote (or would rewrite).
type PriceChange struct {
	ListingID uint   `json:"listing_id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Reason    string `json:"reason"`
}

type PriceReport struct {
	Scanned  int           `json:"scanned"`
	Rescaled int           `json:"rescaled"`
	Reset    int           `json:"reset"`
	Failed   int           `json:"failed"`
	DryRun   bool          `json:"dry_run"`
	Changes  []PriceChange `json:"changes"`
}

const (
	reasonRescaled = "rescaled"
	reasonReset    = "reset"
)

// classifyPrice decides what to do with one stored price. Whole numbers
// above threshold were entered in minor units and are divided by 100;
// values that do not parse become zero.
func classifyPrice(raw sql.NullString, threshold decimal.Decimal) (decimal.Decimal, string) {
	if !raw.Valid {
		return decimal.Zero, reasonReset
	}
	s := strings.TrimSpace(raw.String)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, reasonReset
	}
	if d.IsZero() {
		return d, ""
	}
	if d.Equal(d.Truncate(0)) && d.GreaterThan(threshold) {
		return d.Div(decimal.NewFromInt(100)).Round(2), reasonRescaled
	}
	return d, ""
}

// NormalizePrices repairs listing prices in place. Each row is updated on
// its own so one failure does not stop the run; failures are counted.
func (s *Service) NormalizePrices(ctx context.Context, opts PriceOptions) (*PriceReport, error) {
	threshold := s.priceThreshold
	if opts.Threshold > 0 {
		threshold = opts.Threshold
	}
	limit := decimal.NewFromInt(threshold)

	rows, err := s.db.WithContext(ctx).Model(&model.Listing{}).Unscoped().
		Select("id", "price").Order("id").Rows()
	if err != nil {
		return nil, fmt.Errorf("scan prices: %w", err)
	}

	report := &PriceReport{DryRun: opts.DryRun, Changes: []PriceChange{}}
	for rows.Next() {
		var id uint
		var raw sql.NullString
		if err := rows.Scan(&id, &raw); err != nil {
			report.Scanned++
			report.Failed++
			s.logger.Warn().Err(err).Msg("unreadable price row")
			continue
		}
		report.Scanned++

		next, reason := classifyPrice(raw, limit)
		if reason == "" {
			continue
		}
		report.Changes = append(report.Changes, PriceChange{
			ListingID: id,
			From:      raw.String,
			To:        next.StringFixed(2),
			Reason:    reason,
		})
	}
	closeErr := rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan prices: %w", err)
	}
	if closeErr != nil {
		return nil, fmt.Errorf("scan prices: %w", closeErr)
	}

	for _, c := range report.Changes {
		if !opts.DryRun {
			to, _ := decimal.NewFromString(c.To)
			err := s.db.WithContext(ctx).Model(&model.Listing{}).Unscoped().
				Where("id = ?", c.ListingID).
				UpdateColumn("price", to).Error
			if err != nil {
				report.Failed++
				metrics.Get().PricesNormalized.WithLabelValues("failed").Inc()
				s.logger.Error().Err(err).Uint("listing_id", c.ListingID).Msg("price update failed")
				continue
			}
			metrics.Get().PricesNormalized.WithLabelValues(c.Reason).Inc()
		}
		if c.Reason == reasonRescaled {
			report.Rescaled++
		} else {
			report.Reset++
		}
	}

	s.logger.Info().
		Int("scanned", report.Scanned).
		Int("rescaled", report.Rescaled).
		Int("reset", report.Reset).
		Int("failed", report.Failed).
		Bool("dry_run", opts.DryRun).
		Msg("price normalization finished")
	return report, nil
}
