// Package catalog owns listings, their images, the reference data they point
// at, and the price repair job.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"estatehub_backend/internal/model"
	"estatehub_backend/pkg/apperror"
	"estatehub_backend/pkg/logging"
	"estatehub_backend/pkg/storage"
)

// DefaultPriceThreshold is the largest integer price left untouched by
// NormalizePrices.
const DefaultPriceThreshold int64 = 1_000_000

type Service struct {
	db             *gorm.DB
	store          storage.Store
	logger         zerolog.Logger
	priceThreshold int64
}

func NewService(db *gorm.DB, store storage.Store, priceThreshold int64) *Service {
	if priceThreshold <= 0 {
		priceThreshold = DefaultPriceThreshold
	}
	return &Service{
		db:             db,
		store:          store,
		logger:         logging.NewLogger("catalog"),
		priceThreshold: priceThreshold,
	}
}

// AttachImageURLs resolves the public URL of every image of every listing.
func AttachImageURLs(store storage.Store, listings []model.Listing) {
	for i := range listings {
		attachListingURLs(store, &listings[i])
	}
}

func attachListingURLs(store storage.Store, l *model.Listing) {
	for j := range l.Images {
		l.Images[j].URL = store.URL(l.Images[j].ImageKey)
	}
}

// canCreate: administrators, or agents that are active and verified.
func canCreate(actor *model.User) bool {
	if actor == nil {
		return false
	}
	return actor.IsAdmin() || (actor.Agent != nil && actor.Agent.CanPublish())
}

// canManage: administrators any listing, agents only their own.
func canManage(actor *model.User, l *model.Listing) bool {
	if actor == nil {
		return false
	}
	if actor.IsAdmin() {
		return true
	}
	return actor.Agent != nil && l.AgentID != nil && *l.AgentID == actor.Agent.ID
}

// loadManaged fetches a listing by slug and checks the actor may edit it.
func (s *Service) loadManaged(ctx context.Context, actor *model.User, slug string) (*model.Listing, error) {
	var l model.Listing
	err := s.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order, id") }).
		Where("slug = ?", slug).
		First(&l).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Listing not found")
		}
		return nil, fmt.Errorf("load listing: %w", err)
	}
	if !canManage(actor, &l) {
		return nil, apperror.Forbidden("You do not have permission to edit this listing.")
	}
	return &l, nil
}
