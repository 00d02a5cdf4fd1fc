package catalog

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"estatehub_backend/internal/model"
	"estatehub_backend/pkg/apperror"
	"estatehub_backend/pkg/database"
	"estatehub_backend/pkg/metrics"
	"estatehub_backend/pkg/pagination"
	"estatehub_backend/pkg/utils/validation"
)

const (
	relatedLimit   = 4
	slugAttempts   = 5
	maxPriceDigits = 10 // decimal(12,2)
)

// ListingInput is the listing form shared by create and update.
type ListingInput struct {
	Title          string     `json:"title" form:"title" validate:"required,max=255"`
	Description    string     `json:"description" form:"description" validate:"required"`
	Price          NumberText `json:"price" form:"price"`
	CategoryID     uint       `json:"category_id" form:"category_id" validate:"required"`
	LocationID     uint       `json:"location_id" form:"location_id" validate:"required"`
	PropertyTypeID *uint      `json:"property_type_id" form:"property_type_id"`
	Status         string     `json:"status" form:"status" validate:"omitempty,oneof=available pending sold"`

	Bedrooms     *int       `json:"bedrooms" form:"bedrooms" validate:"omitempty,gte=0,lte=1000"`
	Bathrooms    NumberText `json:"bathrooms" form:"bathrooms"`
	SquareFeet   *int       `json:"square_feet" form:"square_feet" validate:"omitempty,gte=0"`
	LotSize      NumberText `json:"lot_size" form:"lot_size"`
	YearBuilt    *int       `json:"year_built" form:"year_built" validate:"omitempty,gte=1600,lte=2200"`
	GarageSpaces *int       `json:"garage_spaces" form:"garage_spaces" validate:"omitempty,gte=0,lte=1000"`

	AgentLocation string `json:"agent_location" form:"agent_location" validate:"max=500"`
	AmenityIDs    []uint `json:"amenities" form:"amenities"`
	// IsFeatured is honoured for administrators only.
	IsFeatured bool `json:"is_featured" form:"is_featured"`
	// ImagesToDelete lists image ids to drop on update.
	ImagesToDelete []uint `json:"images_to_delete" form:"images_to_delete"`
}

// parsed holds the numeric fields of a ListingInput after validation.
type parsed struct {
	price     decimal.Decimal
	bathrooms decimal.NullDecimal
	lotSize   decimal.NullDecimal
}

func parseOptionalDecimal(field, raw string, maxWhole int, fields map[string]string) decimal.NullDecimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		fields[field] = "Enter a valid non-negative number."
		return decimal.NullDecimal{}
	}
	if len(d.Truncate(0).Abs().String()) > maxWhole {
		fields[field] = fmt.Sprintf("Ensure that there are no more than %d digits before the decimal point.", maxWhole)
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// check validates the input and resolves its foreign keys.
func (s *Service) check(tx *gorm.DB, in *ListingInput) (*parsed, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	fields := map[string]string{}
	p := &parsed{price: decimal.Zero}

	if raw := in.Price.String(); raw != "" {
		d, err := decimal.NewFromString(raw)
		switch {
		case err != nil, d.IsNegative():
			fields["price"] = "Price must be a valid positive number."
		case len(d.Truncate(0).String()) > maxPriceDigits:
			fields["price"] = "Ensure that there are no more than 10 digits before the decimal point."
		default:
			p.price = d.Round(2)
		}
	}
	p.bathrooms = parseOptionalDecimal("bathrooms", in.Bathrooms.String(), 2, fields)
	p.lotSize = parseOptionalDecimal("lot_size", in.LotSize.String(), 6, fields)

	refs := []struct {
		field, table string
		id           *uint
	}{
		{"category_id", "categories", &in.CategoryID},
		{"location_id", "locations", &in.LocationID},
		{"property_type_id", "property_types", in.PropertyTypeID},
	}
	for _, ref := range refs {
		if ref.id == nil {
			continue
		}
		var n int64
		if err := tx.Table(ref.table).Where("id = ?", *ref.id).Count(&n).Error; err != nil {
			return nil, fmt.Errorf("check %s: %w", ref.field, err)
		}
		if n == 0 {
			fields[ref.field] = "Select a valid choice."
		}
	}
	if len(in.AmenityIDs) > 0 {
		var n int64
		if err := tx.Model(&model.Amenity{}).Where("id IN ?", in.AmenityIDs).Count(&n).Error; err != nil {
			return nil, err
		}
		if int(n) != len(dedupe(in.AmenityIDs)) {
			fields["amenities"] = "Select valid choices."
		}
	}

	if len(fields) > 0 {
		return nil, &apperror.ValidationError{Fields: fields}
	}
	return p, nil
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func (in *ListingInput) apply(l *model.Listing, p *parsed, admin bool) {
	l.Title = strings.TrimSpace(in.Title)
	l.Description = in.Description
	l.Price = p.price
	l.CategoryID = &in.CategoryID
	l.LocationID = &in.LocationID
	l.PropertyTypeID = in.PropertyTypeID
	if in.Status != "" {
		l.Status = model.ListingStatus(in.Status)
	}
	l.Bedrooms = in.Bedrooms
	l.Bathrooms = p.bathrooms
	l.SquareFeet = in.SquareFeet
	l.LotSize = p.lotSize
	l.YearBuilt = in.YearBuilt
	l.GarageSpaces = in.GarageSpaces
	l.AgentLocation = strings.TrimSpace(in.AgentLocation)
	if admin {
		l.IsFeatured = in.IsFeatured
	}
}

func amenityRows(ids []uint) []model.Amenity {
	ids = dedupe(ids)
	rows := make([]model.Amenity, len(ids))
	for i, id := range ids {
		rows[i] = model.Amenity{ID: id}
	}
	return rows
}

// insertWithUniqueSlug creates l, retrying with a fresh slug when a
// concurrent writer takes the same one first. Each attempt runs in a
// savepoint so a conflict does not abort the outer transaction.
func insertWithUniqueSlug(tx *gorm.DB, l *model.Listing) error {
	var err error
	for attempt := 0; attempt < slugAttempts; attempt++ {
		l.Slug = ""
		err = tx.Transaction(func(sp *gorm.DB) error {
			return sp.Omit(clause.Associations).Create(l).Error
		})
		if err == nil || !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
		l.ID = 0
	}
	return fmt.Errorf("could not allocate a unique slug: %w", err)
}

// Create publishes a new listing owned by the actor, storing any uploaded
// images. The first image becomes the main one.
func (s *Service) Create(ctx context.Context, actor *model.User, in ListingInput, images []*multipart.FileHeader) (*model.Listing, error) {
	if !canCreate(actor) {
		return nil, apperror.Forbidden("Only active and verified agents or admins can create listings.")
	}
	if err := validation.ValidateImages("images", images); err != nil {
		return nil, err
	}

	l := &model.Listing{
		Status:      model.ListingAvailable,
		IsActive:    true,
		IsPublished: true,
		UserID:      &actor.ID,
	}
	if actor.Agent != nil {
		l.AgentID = &actor.Agent.ID
	}

	var stored []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := s.check(tx, &in)
		if err != nil {
			return err
		}
		in.apply(l, p, actor.IsAdmin())

		if err := insertWithUniqueSlug(tx, l); err != nil {
			return fmt.Errorf("create listing: %w", err)
		}
		if len(in.AmenityIDs) > 0 {
			if err := tx.Model(l).Association("Amenities").Replace(amenityRows(in.AmenityIDs)); err != nil {
				return fmt.Errorf("set amenities: %w", err)
			}
		}

		l.Images, stored, err = s.storeImages(ctx, tx, l, images, 0, false)
		return err
	})
	if err != nil {
		s.discard(ctx, stored)
		return nil, err
	}

	if actor.Agent != nil {
		err := s.db.WithContext(ctx).Model(&model.Agent{}).Where("id = ?", actor.Agent.ID).
			UpdateColumn("total_listings", gorm.Expr("total_listings + 1")).Error
		if err != nil {
			s.logger.Warn().Err(err).Uint("agent_id", actor.Agent.ID).Msg("could not count agent listing")
		}
	}
	metrics.Get().ListingsCreated.Inc()
	s.logger.Info().Uint("listing_id", l.ID).Str("slug", l.Slug).Uint("actor_id", actor.ID).Msg("listing created")

	attachListingURLs(s.store, l)
	return l, nil
}

// Update edits a listing in place. The slug never changes. New images are
// appended and become main only when the listing has no main image.
func (s *Service) Update(ctx context.Context, actor *model.User, slug string, in ListingInput, images []*multipart.FileHeader) (*model.Listing, error) {
	l, err := s.loadManaged(ctx, actor, slug)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateImages("images", images); err != nil {
		return nil, err
	}

	var stored, removed []string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := s.check(tx, &in)
		if err != nil {
			return err
		}
		in.apply(l, p, actor.IsAdmin())

		err = tx.Model(l).Omit(clause.Associations).Select(
			"title", "description", "price", "category_id", "location_id", "property_type_id",
			"status", "bedrooms", "bathrooms", "square_feet", "lot_size", "year_built",
			"garage_spaces", "agent_location", "is_featured",
		).Updates(l).Error
		if err != nil {
			return fmt.Errorf("update listing: %w", err)
		}
		if err := tx.Model(l).Association("Amenities").Replace(amenityRows(in.AmenityIDs)); err != nil {
			return fmt.Errorf("set amenities: %w", err)
		}

		hasMain := false
		nextOrder := 0
		keep := l.Images[:0]
		drop := make(map[uint]bool, len(in.ImagesToDelete))
		for _, id := range in.ImagesToDelete {
			drop[id] = true
		}
		for _, img := range l.Images {
			if drop[img.ID] {
				removed = append(removed, img.ImageKey)
				continue
			}
			keep = append(keep, img)
			hasMain = hasMain || img.IsMain
			if img.SortOrder >= nextOrder {
				nextOrder = img.SortOrder + 1
			}
		}
		if len(in.ImagesToDelete) > 0 {
			if err := tx.Where("listing_id = ? AND id IN ?", l.ID, in.ImagesToDelete).Delete(&model.ListingImage{}).Error; err != nil {
				return fmt.Errorf("delete images: %w", err)
			}
		}

		added, keys, err := s.storeImages(ctx, tx, l, images, nextOrder, hasMain)
		stored = keys
		if err != nil {
			return err
		}
		if !hasMain && len(added) == 0 && len(keep) > 0 {
			if err := promoteFirst(tx, l.ID); err != nil {
				return fmt.Errorf("promote image: %w", err)
			}
		}
		l.Images = append(keep, added...)
		return nil
	})
	if err != nil {
		s.discard(ctx, stored)
		return nil, err
	}
	s.discard(ctx, removed)

	return s.reload(ctx, l.ID)
}

func (s *Service) reload(ctx context.Context, id uint) (*model.Listing, error) {
	var l model.Listing
	err := s.db.WithContext(ctx).
		Preload("Agent.User").
		Preload("Category").
		Preload("Location").
		Preload("PropertyType").
		Preload("Amenities").
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order, id") }).
		First(&l, id).Error
	if err != nil {
		return nil, err
	}
	attachListingURLs(s.store, &l)
	return &l, nil
}

type ListFilter struct {
	Query        string `query:"query"`
	Category     string `query:"category"`
	Location     string `query:"location"`
	PropertyType string `query:"property_type"`
	MinPrice     string `query:"min_price"`
	MaxPrice     string `query:"max_price"`
	MinBedrooms  string `query:"min_bedrooms"`
	MinBathrooms string `query:"min_bathrooms"`
	Page         string `query:"page"`
}

type ListPage struct {
	Listings []model.Listing `json:"listings"`
	Page     pagination.Page `json:"pagination"`
}

func parseID(raw string) (uint, bool) {
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// List returns published, available listings newest first. Filters that do
// not parse are ignored.
func (s *Service) List(ctx context.Context, f ListFilter) (*ListPage, error) {
	q := s.db.WithContext(ctx).Model(&model.Listing{}).
		Where("listings.is_published = ? AND listings.status = ?", true, model.ListingAvailable)

	if term := strings.TrimSpace(f.Query); term != "" {
		q = database.ContainsAny(q, term, "listings.title", "listings.description")
	}
	if id, ok := parseID(f.Category); ok {
		q = q.Where("listings.category_id = ?", id)
	}
	if id, ok := parseID(f.Location); ok {
		q = q.Where("listings.location_id = ?", id)
	}
	if id, ok := parseID(f.PropertyType); ok {
		q = q.Where("listings.property_type_id = ?", id)
	}
	if d, err := decimal.NewFromString(strings.TrimSpace(f.MinPrice)); err == nil {
		q = q.Where("listings.price >= ?", d.InexactFloat64())
	}
	if d, err := decimal.NewFromString(strings.TrimSpace(f.MaxPrice)); err == nil {
		q = q.Where("listings.price <= ?", d.InexactFloat64())
	}
	if n, err := strconv.Atoi(strings.TrimSpace(f.MinBedrooms)); err == nil {
		q = q.Where("listings.bedrooms >= ?", n)
	}
	if d, err := decimal.NewFromString(strings.TrimSpace(f.MinBathrooms)); err == nil {
		q = q.Where("listings.bathrooms >= ?", d.InexactFloat64())
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count listings: %w", err)
	}
	page := pagination.Resolve(f.Page, pagination.DefaultPageSize, total)

	var listings []model.Listing
	err := q.Scopes(page.Scope).
		Preload("Images", "is_main = ?", true).
		Preload("Category").
		Preload("Location").
		Order("listings.created_at DESC").
		Order("listings.id DESC").
		Find(&listings).Error
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	AttachImageURLs(s.store, listings)
	return &ListPage{Listings: listings, Page: page}, nil
}

type Detail struct {
	Listing *model.Listing  `json:"listing"`
	Related []model.Listing `json:"related_listings"`
}

// Get opens a published listing, counting the view, and picks up to four
// related listings from the same category.
func (s *Service) Get(ctx context.Context, slug string) (*Detail, error) {
	var l model.Listing
	err := s.db.WithContext(ctx).Where("slug = ? AND is_published = ?", slug, true).First(&l).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Listing not found")
		}
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(&model.Listing{}).Where("id = ?", l.ID).
		UpdateColumn("views_count", gorm.Expr("views_count + 1")).Error; err != nil {
		return nil, fmt.Errorf("count view: %w", err)
	}
	metrics.Get().ListingViews.Inc()

	full, err := s.reload(ctx, l.ID)
	if err != nil {
		return nil, err
	}

	related := []model.Listing{}
	if full.CategoryID != nil {
		err = s.db.WithContext(ctx).
			Preload("Images", "is_main = ?", true).
			Where("category_id = ? AND is_published = ? AND status = ? AND id <> ?",
				*full.CategoryID, true, model.ListingAvailable, full.ID).
			Order("created_at DESC").
			Limit(relatedLimit).
			Find(&related).Error
		if err != nil {
			return nil, fmt.Errorf("related listings: %w", err)
		}
		AttachImageURLs(s.store, related)
	}
	return &Detail{Listing: full, Related: related}, nil
}
