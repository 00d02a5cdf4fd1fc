package account

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"estatehub_backend/internal/model"
	"estatehub_backend/pkg/apperror"
	"estatehub_backend/pkg/database"
	"estatehub_backend/pkg/pagination"
)

type UserFilter struct {
	Query string `query:"q"`
	Page  string `query:"page"`
}

type UserPage struct {
	Users []model.User    `json:"users"`
	Page  pagination.Page `json:"pagination"`
}

// ListUsers is the administrator account list, searchable by email,
// username and name.
func (s *Service) ListUsers(ctx context.Context, actor *model.User, f UserFilter) (*UserPage, error) {
	if !actor.IsAdmin() {
		return nil, apperror.Forbidden("Administrator access required")
	}

	q := s.db.WithContext(ctx).Model(&model.User{})
	if term := strings.TrimSpace(f.Query); term != "" {
		q = database.ContainsAny(q, term, "email", "username", "first_name", "last_name")
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	page := pagination.Resolve(f.Page, pagination.DefaultPageSize, total)

	var users []model.User
	if err := q.Scopes(page.Scope).Preload("Agent").Order("id DESC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return &UserPage{Users: users, Page: page}, nil
}

type UserFlagsInput struct {
	IsActive    *bool `json:"is_active"`
	IsStaff     *bool `json:"is_staff"`
	IsSuperuser *bool `json:"is_superuser"`
}

// UpdateUserFlags toggles account flags. Superuser only; a superuser cannot
// revoke their own superuser or active flag.
func (s *Service) UpdateUserFlags(ctx context.Context, actor *model.User, userID uint, in UserFlagsInput) (*model.User, error) {
	if !actor.IsSuperuser {
		return nil, apperror.Forbidden("Superuser access required")
	}
	if actor.ID == userID && ((in.IsSuperuser != nil && !*in.IsSuperuser) || (in.IsActive != nil && !*in.IsActive)) {
		return nil, apperror.Field("user", "You cannot remove your own superuser or active status.")
	}

	var user model.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if in.IsStaff != nil {
		updates["is_staff"] = *in.IsStaff
	}
	if in.IsSuperuser != nil {
		updates["is_superuser"] = *in.IsSuperuser
	}
	if len(updates) == 0 {
		return &user, nil
	}

	if err := s.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update user flags: %w", err)
	}
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, err
	}
	s.logger.Info().Uint("actor_id", actor.ID).Uint("user_id", userID).Interface("changes", updates).Msg("user flags updated")
	return &user, nil
}
