package model

import (
	"fmt"
	"time"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ListingStatus string

const (
	ListingAvailable ListingStatus = "available"
	ListingPending   ListingStatus = "pending"
	ListingSold      ListingStatus = "sold"
)

func (s ListingStatus) Valid() bool {
	switch s {
	case ListingAvailable, ListingPending, ListingSold:
		return true
	}
	return false
}

type Listing struct {
	gorm.Model
	UserID         *uint `json:"user_id" gorm:"index"`
	AgentID        *uint `json:"agent_id" gorm:"index"`
	CategoryID     *uint `json:"category_id" gorm:"index"`
	LocationID     *uint `json:"location_id" gorm:"index"`
	PropertyTypeID *uint `json:"property_type_id" gorm:"index"`

	Title       string          `json:"title" gorm:"size:255;not null"`
	Slug        string          `json:"slug" gorm:"<-:create;size:255;uniqueIndex;not null"`
	Description string          `json:"description" gorm:"type:text;not null"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null;default:0"`

	Bedrooms     *int                `json:"bedrooms"`
	Bathrooms    decimal.NullDecimal `json:"bathrooms" gorm:"type:decimal(3,1)"`
	SquareFeet   *int                `json:"square_feet"`
	LotSize      decimal.NullDecimal `json:"lot_size" gorm:"type:decimal(8,2)"`
	YearBuilt    *int                `json:"year_built"`
	GarageSpaces *int                `json:"garage_spaces"`

	// AgentLocation is free text awaiting normalization into LocationID.
	AgentLocation string `json:"agent_location" gorm:"size:500;not null;default:''"`

	IsFeatured  bool          `json:"is_featured" gorm:"index"`
	IsActive    bool          `json:"is_active" gorm:"index"`
	Status      ListingStatus `json:"status" gorm:"size:20;not null;default:'available';index"`
	IsPublished bool          `json:"is_published" gorm:"index"`
	ViewsCount  int64         `json:"views_count" gorm:"not null;default:0"`

	User         *User          `json:"-" gorm:"foreignKey:UserID"`
	Agent        *Agent         `json:"agent,omitempty" gorm:"foreignKey:AgentID"`
	Category     *Category      `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	Location     *Location      `json:"location,omitempty" gorm:"foreignKey:LocationID"`
	PropertyType *PropertyType  `json:"property_type,omitempty" gorm:"foreignKey:PropertyTypeID"`
	Amenities    []Amenity      `json:"amenities" gorm:"many2many:listing_amenities"`
	Images       []ListingImage `json:"images" gorm:"foreignKey:ListingID;constraint:OnDelete:CASCADE"`
}

// IsPubliclyVisible reports whether anonymous callers may open the listing.
func (l *Listing) IsPubliclyVisible() bool {
	return l.IsPublished
}

// MainImage returns the cover image, or nil when none is flagged.
func (l *Listing) MainImage() *ListingImage {
	for i := range l.Images {
		if l.Images[i].IsMain {
			return &l.Images[i]
		}
	}
	return nil
}

// BeforeCreate derives a unique slug from the title when none is set.
func (l *Listing) BeforeCreate(tx *gorm.DB) error {
	if l.Slug != "" {
		return nil
	}
	s, err := UniqueSlug(tx.Session(&gorm.Session{NewDB: true}), l.Title)
	if err != nil {
		return err
	}
	l.Slug = s
	return nil
}

// UniqueSlug returns slug.Make(title), or the first free "<slug>-N" when
// taken. Soft-deleted listings keep their slugs reserved.
func UniqueSlug(db *gorm.DB, title string) (string, error) {
	base := slug.Make(title)
	if base == "" {
		base = "listing"
	}

	candidate := base
	for n := 1; ; n++ {
		var count int64
		if err := db.Unscoped().Model(&Listing{}).Where("slug = ?", candidate).Count(&count).Error; err != nil {
			return "", fmt.Errorf("check slug %q: %w", candidate, err)
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}

type ListingImage struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ListingID uint      `json:"listing_id" gorm:"not null;index;uniqueIndex:idx_listing_main_image,where:is_main"`
	ImageKey  string    `json:"-" gorm:"size:500;not null;default:''"`
	AltText   string    `json:"alt_text" gorm:"size:255"`
	IsMain    bool      `json:"is_main"`
	SortOrder int       `json:"sort_order" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`

	URL string `json:"url" gorm:"-"`
}
