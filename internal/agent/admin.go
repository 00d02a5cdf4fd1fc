package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"estatehub_backend/internal/model"
	"estatehub_backend/pkg/apperror"
	"estatehub_backend/pkg/database"
	"estatehub_backend/pkg/pagination"
)

type AdminFilter struct {
	Query  string `query:"q"`
	Status string `query:"verification_status"`
	Page   string `query:"page"`
}

// AdminList shows every agent record to superusers. Other staff get an
// empty page.
func (s *Service) AdminList(ctx context.Context, actor *model.User, f AdminFilter) (*ListPage, error) {
	if actor == nil || !actor.IsAdmin() {
		return nil, apperror.Forbidden("Administrator access required")
	}
	if !actor.IsSuperuser {
		return &ListPage{Agents: []model.Agent{}, Page: pagination.Resolve("", pagination.DefaultPageSize, 0)}, nil
	}

	q := s.db.WithContext(ctx).Model(&model.Agent{}).
		Joins("JOIN users ON users.id = agents.user_id")
	if term := strings.TrimSpace(f.Query); term != "" {
		q = database.ContainsAny(q, term, "users.email", "users.username", "agents.agency_name", "agents.license_number")
	}
	if st := model.VerificationStatus(f.Status); st.Valid() {
		q = q.Where("agents.verification_status = ?", st)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count agents: %w", err)
	}
	page := pagination.Resolve(f.Page, pagination.DefaultPageSize, total)

	agents := []model.Agent{}
	err := q.Scopes(page.Scope).Preload("User").Order("agents.created_at DESC").Find(&agents).Error
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	return &ListPage{Agents: agents, Page: page}, nil
}

type AdminUpdateInput struct {
	VerificationStatus *string `json:"verification_status"`
	IsFeatured         *bool   `json:"is_featured"`
	IsActive           *bool   `json:"is_active"`
}

// AdminUpdate changes verification, featured and active flags.
func (s *Service) AdminUpdate(ctx context.Context, actor *model.User, id uint, in AdminUpdateInput) (*model.Agent, error) {
	if actor == nil || !actor.IsSuperuser {
		return nil, apperror.Forbidden("Superuser access required")
	}

	updates := map[string]interface{}{}
	if in.VerificationStatus != nil {
		st := model.VerificationStatus(*in.VerificationStatus)
		if !st.Valid() {
			return nil, apperror.Field("verification_status", "Select a valid choice.")
		}
		updates["verification_status"] = st
	}
	if in.IsFeatured != nil {
		updates["is_featured"] = *in.IsFeatured
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}

	var a model.Agent
	if err := s.db.WithContext(ctx).First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Agent not found")
		}
		return nil, err
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&a).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("update agent: %w", err)
		}
		s.logger.Info().Uint("agent_id", a.ID).Uint("actor_id", actor.ID).Interface("changes", updates).Msg("agent updated")
	}
	if err := s.db.WithContext(ctx).Preload("User").First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}
