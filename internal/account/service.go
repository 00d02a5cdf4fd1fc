// Package account handles registration, login, profiles and the
// administrator user screens.
package account

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"estatehub_backend/internal/model"
	"estatehub_backend/pkg/apperror"
	"estatehub_backend/pkg/logging"
	"estatehub_backend/pkg/storage"
	imageutil "estatehub_backend/pkg/utils/image"
	"estatehub_backend/pkg/utils/jwt"
	"estatehub_backend/pkg/utils/validation"
)

type Service struct {
	db     *gorm.DB
	tokens *jwt.Issuer
	store  storage.Store
	logger zerolog.Logger
}

func NewService(db *gorm.DB, tokens *jwt.Issuer, store storage.Store) *Service {
	return &Service{db: db, tokens: tokens, store: store, logger: logging.NewLogger("account")}
}

type RegisterInput struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Username  string `json:"username" validate:"required,min=3,max=150"`
	Password  string `json:"password" validate:"required,min=8,max=128"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`

	// set by the transport, recorded in the login history
	IP     string `json:"-"`
	Device string `json:"-"`
}

// Session is what a successful register or login hands back.
type Session struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// HashPassword bcrypts a plain-text password.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CheckAvailable reports a field error when email or username is taken.
// Empty values are skipped.
func CheckAvailable(tx *gorm.DB, email, username string) error {
	fields := map[string]string{}
	if email != "" {
		var n int64
		if err := tx.Model(&model.User{}).Unscoped().Where("email = ?", normalizeEmail(email)).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			fields["email"] = "A user with that email already exists."
		}
	}
	if username != "" {
		var n int64
		if err := tx.Model(&model.User{}).Unscoped().Where("username = ?", strings.TrimSpace(username)).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			fields["username"] = "A user with that username already exists."
		}
	}
	if len(fields) > 0 {
		return &apperror.ValidationError{Fields: fields}
	}
	return nil
}

func (s *Service) createUser(ctx context.Context, in RegisterInput, mutate func(*model.User)) (*model.User, error) {
	in.Email = normalizeEmail(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	hashed, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:     in.Email,
		Username:  in.Username,
		Password:  hashed,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		IsActive:  true,
	}
	if mutate != nil {
		mutate(user)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := CheckAvailable(tx, user.Email, user.Username); err != nil {
			return err
		}
		if err := tx.Create(user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperror.Field("email", "A user with that email or username already exists.")
			}
			return fmt.Errorf("create user: %w", err)
		}
		return tx.Create(&model.Profile{UserID: user.ID}).Error
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Register creates an active customer account and signs it in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	user, err := s.createUser(ctx, in, nil)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	s.logger.Info().Uint("user_id", user.ID).Msg("account registered")
	return &Session{Token: token, User: user}, nil
}

// CreateSuperuser creates a staff superuser account.
func (s *Service) CreateSuperuser(ctx context.Context, in RegisterInput) (*model.User, error) {
	return s.createUser(ctx, in, func(u *model.User) {
		u.IsStaff = true
		u.IsSuperuser = true
	})
}

// Login checks credentials against the email-keyed account.
func (s *Service) Login(ctx context.Context, in LoginInput) (*Session, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	var user model.User
	err := s.db.WithContext(ctx).Where("email = ?", in.Email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Unauthorized("Invalid credentials")
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)) != nil || !user.IsActive {
		return nil, apperror.Unauthorized("Invalid credentials")
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	entry := model.LoginHistory{UserID: user.ID, IP: in.IP, Device: truncate(in.Device, 255)}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		s.logger.Warn().Err(err).Uint("user_id", user.ID).Msg("could not record login")
	}
	return &Session{Token: token, User: &user}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// LoginHistoryLimit caps how many sign-ins RecentLogins returns.
const LoginHistoryLimit = 10

// RecentLogins lists the account's latest sign-ins, newest first.
func (s *Service) RecentLogins(ctx context.Context, user *model.User) ([]model.LoginHistory, error) {
	logins := []model.LoginHistory{}
	err := s.db.WithContext(ctx).
		Where("user_id = ?", user.ID).
		Order("created_at DESC, id DESC").
		Limit(LoginHistoryLimit).
		Find(&logins).Error
	if err != nil {
		return nil, fmt.Errorf("list logins: %w", err)
	}
	return logins, nil
}

// Authenticate resolves a bearer token to an active account with its agent
// record loaded.
func (s *Service) Authenticate(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, apperror.Unauthorized("Invalid or expired token")
	}

	var user model.User
	err = s.db.WithContext(ctx).Preload("Agent").First(&user, claims.UserID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Unauthorized("Invalid or expired token")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperror.Unauthorized("Account is disabled")
	}
	return &user, nil
}

// Me returns the account with profile and agent record.
func (s *Service) Me(ctx context.Context, userID uint) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Preload("Agent").First(&user, userID).Error; err != nil {
		return nil, err
	}
	profile, err := s.GetProfile(ctx, &user)
	if err != nil {
		return nil, err
	}
	user.Profile = profile
	return &user, nil
}

// GetProfile returns the user's profile, creating an empty one on first use.
func (s *Service) GetProfile(ctx context.Context, user *model.User) (*model.Profile, error) {
	var profile model.Profile
	err := s.db.WithContext(ctx).
		Where(model.Profile{UserID: user.ID}).
		FirstOrCreate(&profile).Error
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	profile.AvatarURL = s.store.URL(profile.AvatarKey)
	return &profile, nil
}

type ProfileInput struct {
	FirstName   string `json:"first_name" validate:"max=150"`
	LastName    string `json:"last_name" validate:"max=150"`
	PhoneNumber string `json:"phone_number" validate:"max=20"`
	Address     string `json:"address" validate:"max=500"`
	City        string `json:"city" validate:"max=100"`
	State       string `json:"state" validate:"max=100"`
	Country     string `json:"country" validate:"max=100"`
	ZipCode     string `json:"zip_code" validate:"max=20"`
	Bio         string `json:"bio" validate:"max=2000"`
}

// UpdateProfile replaces the user's name and contact details.
func (s *Service) UpdateProfile(ctx context.Context, user *model.User, in ProfileInput) (*model.Profile, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if _, err := s.GetProfile(ctx, user); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
			"first_name": strings.TrimSpace(in.FirstName),
			"last_name":  strings.TrimSpace(in.LastName),
		}).Error; err != nil {
			return err
		}
		return tx.Model(&model.Profile{}).Where("user_id = ?", user.ID).Updates(map[string]interface{}{
			"phone_number": in.PhoneNumber,
			"address":      in.Address,
			"city":         in.City,
			"state":        in.State,
			"country":      in.Country,
			"zip_code":     in.ZipCode,
			"bio":          in.Bio,
		}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	user.FirstName = strings.TrimSpace(in.FirstName)
	user.LastName = strings.TrimSpace(in.LastName)
	return s.GetProfile(ctx, user)
}

// UploadAvatar stores a re-encoded avatar and swaps it onto the profile.
// The previous file is removed best-effort.
func (s *Service) UploadAvatar(ctx context.Context, user *model.User, file *multipart.FileHeader) (*model.Profile, error) {
	if err := validation.ValidateImage(file); err != nil {
		return nil, apperror.Field("avatar", err.Error())
	}
	profile, err := s.GetProfile(ctx, user)
	if err != nil {
		return nil, err
	}

	processed, err := imageutil.ProcessFile(file)
	if err != nil {
		return nil, apperror.Field("avatar", "Upload a valid image.")
	}

	key := storage.AvatarKey(user.Username, "avatar"+processed.Ext)
	if err := s.store.Put(ctx, key, processed.Body, processed.ContentType); err != nil {
		return nil, fmt.Errorf("store avatar: %w", err)
	}

	oldKey := profile.AvatarKey
	if err := s.db.WithContext(ctx).Model(profile).Update("avatar_key", key).Error; err != nil {
		_ = s.store.Delete(ctx, key)
		return nil, fmt.Errorf("save avatar: %w", err)
	}
	if oldKey != "" {
		if err := s.store.Delete(ctx, oldKey); err != nil {
			s.logger.Warn().Err(err).Str("key", oldKey).Msg("could not remove old avatar")
		}
	}

	profile.AvatarKey = key
	profile.AvatarURL = s.store.URL(key)
	return profile, nil
}
