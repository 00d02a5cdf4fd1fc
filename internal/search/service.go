// Package search serves the read-only public pages: home, global search
// and the static legal pages.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"estatehub_backend/internal/catalog"
	"estatehub_backend/internal/model"
	"estatehub_backend/pkg/apperror"
	"estatehub_backend/pkg/database"
	"estatehub_backend/pkg/metrics"
	"estatehub_backend/pkg/storage"
)

const (
	homeListings   = 6
	homeCategories = 8
	homeAgents     = 4

	searchListings   = 10
	searchAgents     = 10
	searchCategories = 5
)

type Service struct {
	db    *gorm.DB
	store storage.Store
}

func NewService(db *gorm.DB, store storage.Store) *Service {
	return &Service{db: db, store: store}
}

type Home struct {
	FeaturedListings []model.Listing  `json:"featured_listings"`
	Categories       []model.Category `json:"categories"`
	FeaturedAgents   []model.Agent    `json:"featured_agents"`
}

func (s *Service) Home(ctx context.Context) (*Home, error) {
	h := &Home{
		FeaturedListings: []model.Listing{},
		Categories:       []model.Category{},
		FeaturedAgents:   []model.Agent{},
	}
	db := s.db.WithContext(ctx)

	err := db.Preload("Images", "is_main = ?", true).
		Preload("Location").
		Where("is_featured = ? AND is_published = ? AND status = ?", true, true, model.ListingAvailable).
		Order("created_at DESC").
		Limit(homeListings).
		Find(&h.FeaturedListings).Error
	if err != nil {
		return nil, fmt.Errorf("featured listings: %w", err)
	}
	catalog.AttachImageURLs(s.store, h.FeaturedListings)

	if err := db.Order("name").Limit(homeCategories).Find(&h.Categories).Error; err != nil {
		return nil, fmt.Errorf("home categories: %w", err)
	}

	err = db.Preload("User").
		Where("is_featured = ? AND verification_status = ?", true, model.VerificationVerified).
		Order("rating DESC").
		Limit(homeAgents).
		Find(&h.FeaturedAgents).Error
	if err != nil {
		return nil, fmt.Errorf("featured agents: %w", err)
	}
	return h, nil
}

type Results struct {
	Query      string           `json:"query"`
	Listings   []model.Listing  `json:"listings"`
	Agents     []model.Agent    `json:"agents"`
	Categories []model.Category `json:"categories"`
}

// ErrEmptyQuery is returned for a blank search; callers send the visitor
// back to the home page.
var ErrEmptyQuery = errors.New("empty search query")

// Search matches query as a case-insensitive substring across listings,
// agents and categories.
func (s *Service) Search(ctx context.Context, query string) (*Results, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	metrics.Get().SearchesPerformed.Inc()

	r := &Results{
		Query:      query,
		Listings:   []model.Listing{},
		Agents:     []model.Agent{},
		Categories: []model.Category{},
	}
	db := s.db.WithContext(ctx)

	listings := db.Model(&model.Listing{}).
		Joins("LEFT JOIN locations ON locations.id = listings.location_id").
		Joins("LEFT JOIN categories ON categories.id = listings.category_id").
		Where("listings.is_active = ? AND listings.status = ?", true, model.ListingAvailable)
	err := database.ContainsAny(listings, query,
		"listings.title", "listings.description", "locations.name", "locations.city", "categories.name").
		Preload("Images", "is_main = ?", true).
		Preload("Location").
		Preload("Category").
		Order("listings.created_at DESC").
		Limit(searchListings).
		Find(&r.Listings).Error
	if err != nil {
		return nil, fmt.Errorf("search listings: %w", err)
	}
	catalog.AttachImageURLs(s.store, r.Listings)

	agents := db.Model(&model.Agent{}).
		Joins("JOIN users ON users.id = agents.user_id").
		Where("agents.verification_status = ?", model.VerificationVerified)
	err = database.ContainsAny(agents, query,
		"users.first_name", "users.last_name", "agents.agency_name", "agents.specialization").
		Preload("User").
		Order("agents.rating DESC").
		Limit(searchAgents).
		Find(&r.Agents).Error
	if err != nil {
		return nil, fmt.Errorf("search agents: %w", err)
	}

	err = database.ContainsAny(db.Model(&model.Category{}), query, "name", "description").
		Order("name").
		Limit(searchCategories).
		Find(&r.Categories).Error
	if err != nil {
		return nil, fmt.Errorf("search categories: %w", err)
	}
	return r, nil
}

type Page struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

var legalPages = map[string]string{
	"licensing": "Licensing",
	"terms":     "Terms of Service",
	"privacy":   "Privacy Policy",
	"legal":     "Legal Information",
}

// LegalPage looks up one of the static legal pages by slug.
func LegalPage(slug string) (*Page, error) {
	title, ok := legalPages[slug]
	if !ok {
		return nil, apperror.NotFound("Page not found")
	}
	return &Page{Slug: slug, Title: title}, nil
}
