// Package inquiry handles customer messages about listings: submission,
// the agent's reply, and the de-duplicated dashboard feed.
package inquiry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"estatehub_backend/internal/model"
	"estatehub_backend/pkg/apperror"
	"estatehub_backend/pkg/logging"
	"estatehub_backend/pkg/metrics"
	"estatehub_backend/pkg/utils/validation"
)

type Service struct {
	db       *gorm.DB
	notifier Notifier
	dedup    Deduplicator
	logger   zerolog.Logger
}

func NewService(db *gorm.DB, notifier Notifier) *Service {
	return &Service{
		db:       db,
		notifier: notifier,
		dedup:    NewDeduplicator(db),
		logger:   logging.NewLogger("inquiry"),
	}
}

type CreateInput struct {
	Subject string `json:"subject" form:"subject" validate:"max=200"`
	Message string `json:"message" form:"message" validate:"required"`
	Email   string `json:"email" form:"email" validate:"omitempty,email"`
	Phone   string `json:"phone" form:"phone" validate:"max=20"`
}

// Create records an inquiry on an active listing and notifies both the
// submitter and the listing's agent.
func (s *Service) Create(ctx context.Context, actor *model.User, listingSlug string, in CreateInput) (*model.Inquiry, error) {
	if actor == nil {
		return nil, apperror.Unauthorized("Authentication required")
	}
	in.Subject = strings.TrimSpace(in.Subject)
	in.Message = strings.TrimSpace(in.Message)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}

	var listing model.Listing
	err := s.db.WithContext(ctx).
		Preload("Agent.User").
		Preload("User").
		Where("slug = ? AND is_active = ?", listingSlug, true).
		First(&listing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Listing not found")
		}
		return nil, err
	}

	inq := &model.Inquiry{
		UserID:    actor.ID,
		ListingID: listing.ID,
		Subject:   in.Subject,
		Message:   in.Message,
		Email:     in.Email,
		Phone:     in.Phone,
		Status:    model.InquiryNew,
	}
	if err := s.db.WithContext(ctx).Omit("User", "Listing").Create(inq).Error; err != nil {
		return nil, fmt.Errorf("create inquiry: %w", err)
	}
	inq.User = *actor
	inq.Listing = listing

	metrics.Get().InquiriesCreated.Inc()
	s.logger.Info().Uint("inquiry_id", inq.ID).Uint("listing_id", listing.ID).Uint("user_id", actor.ID).Msg("inquiry created")

	s.notifier.InquiryCreated(inq, agentEmail(&listing))
	return inq, nil
}

// agentEmail is the listing agent's address, falling back to the owner's.
func agentEmail(l *model.Listing) string {
	if l.Agent != nil && l.Agent.User.Email != "" {
		return l.Agent.User.Email
	}
	if l.User != nil {
		return l.User.Email
	}
	return ""
}

// ListOwn returns the caller's inquiries, newest first.
func (s *Service) ListOwn(ctx context.Context, actor *model.User) ([]model.Inquiry, error) {
	inquiries := []model.Inquiry{}
	err := s.db.WithContext(ctx).
		Preload("Listing").
		Where("user_id = ?", actor.ID).
		Order("created_at DESC, id DESC").
		Find(&inquiries).Error
	if err != nil {
		return nil, fmt.Errorf("list inquiries: %w", err)
	}
	return inquiries, nil
}

func (s *Service) load(ctx context.Context, id uint) (*model.Inquiry, error) {
	var inq model.Inquiry
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("Listing.Agent.User").
		First(&inq, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Inquiry not found")
		}
		return nil, err
	}
	return &inq, nil
}

// ownsListing: the actor is the agent the inquiry's listing belongs to.
func ownsListing(actor *model.User, inq *model.Inquiry) bool {
	return actor != nil && actor.Agent != nil &&
		inq.Listing.AgentID != nil && *inq.Listing.AgentID == actor.Agent.ID
}

// Get opens one inquiry for its submitter, the owning agent or an admin.
// The owning agent reading a new inquiry marks it read.
func (s *Service) Get(ctx context.Context, actor *model.User, id uint) (*model.Inquiry, error) {
	inq, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	owner := ownsListing(actor, inq)
	if !owner && inq.UserID != actor.ID && !actor.IsAdmin() {
		return nil, apperror.Forbidden("You do not have permission to view this inquiry.")
	}

	if owner && inq.Status == model.InquiryNew {
		res := s.db.WithContext(ctx).Model(&model.Inquiry{}).
			Where("id = ? AND status = ?", inq.ID, model.InquiryNew).
			Update("status", model.InquiryRead)
		if res.Error != nil {
			return nil, fmt.Errorf("mark inquiry read: %w", res.Error)
		}
		inq.Status = model.InquiryRead
	}
	return inq, nil
}

type RespondInput struct {
	Response string `json:"response" form:"response" validate:"required"`
}

// Respond records the agent's answer and emails it to the submitter.
func (s *Service) Respond(ctx context.Context, actor *model.User, id uint, in RespondInput) (*model.Inquiry, error) {
	in.Response = strings.TrimSpace(in.Response)
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	inq, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ownsListing(actor, inq) {
		return nil, apperror.Forbidden("You do not have permission to respond to this inquiry.")
	}

	now := time.Now()
	err = s.db.WithContext(ctx).Model(&model.Inquiry{}).Where("id = ?", inq.ID).Updates(map[string]interface{}{
		"response":     in.Response,
		"status":       model.InquiryResponded,
		"responded_at": now,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("respond to inquiry: %w", err)
	}
	inq.Response = in.Response
	inq.Status = model.InquiryResponded
	inq.RespondedAt = &now

	metrics.Get().InquiryResponses.Inc()
	s.logger.Info().Uint("inquiry_id", inq.ID).Uint("agent_id", actor.Agent.ID).Msg("inquiry responded")

	s.notifier.InquiryResponded(inq)
	return inq, nil
}

type StatusInput struct {
	Status string `json:"status" form:"status" validate:"required,oneof=read closed"`
}

// UpdateStatus lets the owning agent mark an inquiry read or closed.
func (s *Service) UpdateStatus(ctx context.Context, actor *model.User, id uint, in StatusInput) (*model.Inquiry, error) {
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}
	inq, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ownsListing(actor, inq) {
		return nil, apperror.Forbidden("You do not have permission to update this inquiry.")
	}

	status := model.InquiryStatus(in.Status)
	if err := s.db.WithContext(ctx).Model(inq).Omit("User", "Listing").Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("update inquiry status: %w", err)
	}
	inq.Status = status
	return inq, nil
}

// Feed is the dashboard inquiry list: inquiries on the caller's listings,
// or every inquiry for a superuser, with duplicates collapsed to the
// latest. Newest first.
func (s *Service) Feed(ctx context.Context, actor *model.User) ([]model.Inquiry, error) {
	inquiries := []model.Inquiry{}

	base := s.db.WithContext(ctx).Model(&model.Inquiry{})
	switch {
	case actor.IsSuperuser:
	case actor.Agent != nil:
		base = base.Joins("JOIN listings ON listings.id = inquiries.listing_id").
			Where("listings.agent_id = ?", actor.Agent.ID)
	default:
		return inquiries, nil
	}

	ids, err := s.dedup.LatestIDs(base)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return inquiries, nil
	}

	err = s.db.WithContext(ctx).
		Preload("User").
		Preload("Listing").
		Where("id IN ?", ids).
		Order("created_at DESC, id DESC").
		Find(&inquiries).Error
	if err != nil {
		return nil, fmt.Errorf("load inquiry feed: %w", err)
	}
	return inquiries, nil
}
