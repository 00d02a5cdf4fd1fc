package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"estatehub_backend/internal/model"
	"estatehub_backend/pkg/apperror"
	"estatehub_backend/pkg/database"
	"estatehub_backend/pkg/pagination"
	"estatehub_backend/pkg/utils/validation"
)

type AdminFilter struct {
	Query     string `query:"q"`
	Status    string `query:"status"`
	Published string `query:"published"`
	// PendingLocation limits the list to listings with unreviewed
	// agent_location text.
	PendingLocation bool   `query:"pending_location"`
	Page            string `query:"page"`
}

// AdminList shows every listing, published or not, to administrators.
func (s *Service) AdminList(ctx context.Context, actor *model.User, f AdminFilter) (*ListPage, error) {
	if actor == nil || !actor.IsAdmin() {
		return nil, apperror.Forbidden("Administrator access required")
	}

	q := s.db.WithContext(ctx).Model(&model.Listing{})
	if term := strings.TrimSpace(f.Query); term != "" {
		q = database.ContainsAny(q, term, "title", "description")
	}
	if st := model.ListingStatus(f.Status); st.Valid() {
		q = q.Where("status = ?", st)
	}
	if b, err := strconv.ParseBool(f.Published); err == nil {
		q = q.Where("is_published = ?", b)
	}
	if f.PendingLocation {
		q = q.Where("agent_location <> ''")
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count listings: %w", err)
	}
	page := pagination.Resolve(f.Page, pagination.DefaultPageSize, total)

	var listings []model.Listing
	err := q.Scopes(page.Scope).
		Preload("Agent.User").
		Preload("Category").
		Preload("Location").
		Order("created_at DESC").
		Find(&listings).Error
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	return &ListPage{Listings: listings, Page: page}, nil
}

type ModerateInput struct {
	IsPublished *bool   `json:"is_published"`
	IsFeatured  *bool   `json:"is_featured"`
	IsActive    *bool   `json:"is_active"`
	Status      *string `json:"status" validate:"omitempty,oneof=available pending sold"`
}

// Moderate flips the publication flags and status of any listing.
func (s *Service) Moderate(ctx context.Context, actor *model.User, id uint, in ModerateInput) (*model.Listing, error) {
	if actor == nil || !actor.IsAdmin() {
		return nil, apperror.Forbidden("Administrator access required")
	}

	updates := map[string]interface{}{}
	if in.IsPublished != nil {
		updates["is_published"] = *in.IsPublished
	}
	if in.IsFeatured != nil {
		updates["is_featured"] = *in.IsFeatured
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if in.Status != nil {
		st := model.ListingStatus(*in.Status)
		if !st.Valid() {
			return nil, apperror.Field("status", "Select a valid choice.")
		}
		updates["status"] = st
	}

	if err := s.exists(ctx, id); err != nil {
		return nil, err
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&model.Listing{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("moderate listing: %w", err)
		}
		s.logger.Info().Uint("listing_id", id).Uint("actor_id", actor.ID).Interface("changes", updates).Msg("listing moderated")
	}
	return s.reload(ctx, id)
}

func (s *Service) exists(ctx context.Context, id uint) error {
	var n int64
	if err := s.db.WithContext(ctx).Model(&model.Listing{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return apperror.NotFound("Listing not found")
	}
	return nil
}

// LocationAssignment resolves free-text agent_location into a Location,
// either an existing one or a new one.
type LocationAssignment struct {
	LocationID *uint           `json:"location_id"`
	Location   *model.Location `json:"location"`
}

// AssignLocation replaces a listing's agent_location text with a proper
// Location reference and clears the text.
func (s *Service) AssignLocation(ctx context.Context, actor *model.User, id uint, in LocationAssignment) (*model.Listing, error) {
	if actor == nil || !actor.IsAdmin() {
		return nil, apperror.Forbidden("Administrator access required")
	}
	if in.LocationID == nil && in.Location == nil {
		return nil, apperror.Field("location_id", "Choose an existing location or describe a new one.")
	}
	if err := s.exists(ctx, id); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var loc model.Location
		if in.LocationID != nil {
			if err := tx.First(&loc, *in.LocationID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperror.Field("location_id", "Select a valid choice.")
				}
				return err
			}
		} else {
			loc = *in.Location
			loc.ID = 0
			if err := validation.Struct(&loc); err != nil {
				return err
			}
			err := tx.Where(model.Location{Name: loc.Name, City: loc.City, State: loc.State}).
				FirstOrCreate(&loc).Error
			if err != nil {
				return fmt.Errorf("create location: %w", err)
			}
		}

		return tx.Model(&model.Listing{}).Where("id = ?", id).Updates(map[string]interface{}{
			"location_id":    loc.ID,
			"agent_location": "",
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, id)
}
