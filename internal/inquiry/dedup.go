package inquiry

import (
	"fmt"

	"gorm.io/gorm"

	"estatehub_backend/pkg/database"
)

// Deduplicator collapses inquiries sharing (listing, submitter, subject,
// message) to the most recent one: latest created_at, then highest id.
// base is a query on inquiries already narrowed to the caller's scope.
type Deduplicator interface {
	LatestIDs(base *gorm.DB) ([]uint, error)
}

const groupOrder = "inquiries.listing_id, inquiries.user_id, inquiries.subject, inquiries.message, " +
	"inquiries.created_at DESC, inquiries.id DESC"

// NewDeduplicator picks the native backend when the engine has DISTINCT ON.
func NewDeduplicator(db *gorm.DB) Deduplicator {
	if database.SupportsDistinctOn(db) {
		return DistinctOn{}
	}
	return OrderedScan{}
}

// DistinctOn lets the database keep the first row of each group.
type DistinctOn struct{}

func (DistinctOn) LatestIDs(base *gorm.DB) ([]uint, error) {
	var ids []uint
	err := base.
		Select("DISTINCT ON (inquiries.listing_id, inquiries.user_id, inquiries.subject, inquiries.message) inquiries.id").
		Order(groupOrder).
		Scan(&ids).Error
	if err != nil {
		return nil, fmt.Errorf("distinct inquiries: %w", err)
	}
	return ids, nil
}

// OrderedScan reads rows sorted by group then recency and keeps the first
// row of every group. Works on any engine.
type OrderedScan struct{}

type groupKey struct {
	listingID uint
	userID    uint
	subject   string
	message   string
}

func (OrderedScan) LatestIDs(base *gorm.DB) ([]uint, error) {
	rows, err := base.
		Select("inquiries.id, inquiries.listing_id, inquiries.user_id, inquiries.subject, inquiries.message").
		Order(groupOrder).
		Rows()
	if err != nil {
		return nil, fmt.Errorf("scan inquiries: %w", err)
	}
	defer rows.Close()

	var (
		ids  []uint
		prev groupKey
		seen bool
	)
	for rows.Next() {
		var id uint
		var k groupKey
		if err := rows.Scan(&id, &k.listingID, &k.userID, &k.subject, &k.message); err != nil {
			return nil, fmt.Errorf("scan inquiries: %w", err)
		}
		if seen && k == prev {
			continue
		}
		ids = append(ids, id)
		prev, seen = k, true
	}
	return ids, rows.Err()
}
