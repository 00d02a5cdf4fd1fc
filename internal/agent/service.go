// Package agent is the agent registry: creation by administrators,
// verification, public directory, ratings and the agent dashboard.
package agent

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"estatehub_backend/internal/account"
	"estatehub_backend/internal/catalog"
	"estatehub_backend/internal/model"
	"estatehub_backend/pkg/apperror"
	"estatehub_backend/pkg/database"
	"estatehub_backend/pkg/logging"
	"estatehub_backend/pkg/metrics"
	"estatehub_backend/pkg/pagination"
	"estatehub_backend/pkg/storage"
	"estatehub_backend/pkg/utils/validation"
)

// TempPasswordLength is the length of generated first-login passwords.
const TempPasswordLength = 10

// no easily confused characters (l, 1, I, O, 0)
const passwordAlphabet = "abcdefghjkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// InquiryFeed supplies the de-duplicated inquiry list shown on the dashboard.
type InquiryFeed interface {
	Feed(ctx context.Context, actor *model.User) ([]model.Inquiry, error)
}

type Service struct {
	db     *gorm.DB
	store  storage.Store
	feed   InquiryFeed
	logger zerolog.Logger
}

func NewService(db *gorm.DB, store storage.Store, feed InquiryFeed) *Service {
	return &Service{db: db, store: store, feed: feed, logger: logging.NewLogger("agent")}
}

// GeneratePassword returns a random password of n characters.
func GeneratePassword(n int) (string, error) {
	max := big.NewInt(int64(len(passwordAlphabet)))
	buf := make([]byte, n)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate password: %w", err)
		}
		buf[i] = passwordAlphabet[idx.Int64()]
	}
	return string(buf), nil
}

type CreateInput struct {
	// UserID selects an existing account. When nil, Email and Username
	// describe a new one.
	UserID    *uint  `json:"user_id"`
	Email     string `json:"email" validate:"omitempty,email,max=254"`
	Username  string `json:"username" validate:"omitempty,min=3,max=150"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`

	AgencyName         string                   `json:"agency_name" validate:"required,max=200"`
	LicenseNumber      string                   `json:"license_number" validate:"required,max=100"`
	YearsOfExperience  int                      `json:"years_of_experience" validate:"gte=0,lte=100"`
	Specialization     string                   `json:"specialization" validate:"max=200"`
	Description        string                   `json:"description"`
	OfficeAddress      string                   `json:"office_address"`
	Website            string                   `json:"website" validate:"omitempty,url"`
	Social             model.SocialLinks        `json:"social"`
	VerificationStatus model.VerificationStatus `json:"verification_status" validate:"omitempty,oneof=pending verified rejected"`
	IsFeatured         bool                     `json:"is_featured"`
}

type CreateResult struct {
	Agent *model.Agent `json:"agent"`
	// TempPassword is set only when a new account was created. It is not
	// stored anywhere in plain text.
	TempPassword string `json:"temp_password,omitempty"`
}

// Create registers an agent, optionally creating its account, in one
// transaction.
func (s *Service) Create(ctx context.Context, actor *model.User, in CreateInput) (*CreateResult, error) {
	if actor == nil || !actor.IsAdmin() {
		return nil, apperror.Forbidden("Only administrators can create agents")
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if in.UserID == nil {
		fields := map[string]string{}
		if strings.TrimSpace(in.Email) == "" {
			fields["email"] = "Email is required when creating a new user."
		}
		if strings.TrimSpace(in.Username) == "" {
			fields["username"] = "Username is required when creating a new user."
		}
		if len(fields) > 0 {
			return nil, &apperror.ValidationError{Fields: fields}
		}
	}

	status := in.VerificationStatus
	if status == "" {
		status = model.VerificationPending
	}

	result := &CreateResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user model.User
		if in.UserID != nil {
			if err := tx.First(&user, *in.UserID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperror.Field("user_id", "Select a valid user.")
				}
				return err
			}
			var n int64
			if err := tx.Model(&model.Agent{}).Unscoped().Where("user_id = ?", user.ID).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return apperror.Field("user_id", "This user already has an agent profile.")
			}
		} else {
			if err := account.CheckAvailable(tx, in.Email, in.Username); err != nil {
				return err
			}
			password, err := GeneratePassword(TempPasswordLength)
			if err != nil {
				return err
			}
			hashed, err := account.HashPassword(password)
			if err != nil {
				return err
			}
			user = model.User{
				Email:     in.Email,
				Username:  strings.TrimSpace(in.Username),
				Password:  hashed,
				FirstName: strings.TrimSpace(in.FirstName),
				LastName:  strings.TrimSpace(in.LastName),
				IsActive:  true,
			}
			if err := tx.Create(&user).Error; err != nil {
				return fmt.Errorf("create agent user: %w", err)
			}
			result.TempPassword = password
		}

		var n int64
		if err := tx.Model(&model.Agent{}).Unscoped().Where("license_number = ?", strings.TrimSpace(in.LicenseNumber)).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return apperror.Field("license_number", "Agent with this license number already exists.")
		}

		a := &model.Agent{
			UserID:             user.ID,
			AgencyName:         strings.TrimSpace(in.AgencyName),
			LicenseNumber:      strings.TrimSpace(in.LicenseNumber),
			YearsOfExperience:  in.YearsOfExperience,
			Specialization:     in.Specialization,
			Description:        in.Description,
			OfficeAddress:      in.OfficeAddress,
			Website:            in.Website,
			Social:             datatypes.NewJSONType(in.Social),
			VerificationStatus: status,
			IsFeatured:         in.IsFeatured,
			IsActive:           true,
		}
		if err := tx.Omit(clause.Associations).Create(a).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperror.Field("license_number", "Agent with this license number already exists.")
			}
			return fmt.Errorf("create agent: %w", err)
		}
		a.User = user
		result.Agent = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.Get().AgentsCreated.Inc()
	s.logger.Info().
		Uint("agent_id", result.Agent.ID).
		Uint("actor_id", actor.ID).
		Bool("new_user", result.TempPassword != "").
		Msg("agent created")
	return result, nil
}

type ListFilter struct {
	Query          string `query:"query"`
	AgencyName     string `query:"agency_name"`
	Specialization string `query:"specialization"`
	MinRating      string `query:"min_rating"`
	MaxRating      string `query:"max_rating"`
	MinExperience  string `query:"min_experience"`
	MaxExperience  string `query:"max_experience"`
	Page           string `query:"page"`
}

type ListPage struct {
	Agents []model.Agent   `json:"agents"`
	Page   pagination.Page `json:"pagination"`
}

const statusOrder = "CASE agents.verification_status WHEN 'verified' THEN 0 WHEN 'pending' THEN 1 ELSE 2 END"

// List is the agent directory. Anonymous and non-staff callers only see
// active verified agents. Unparseable numeric filters are ignored.
func (s *Service) List(ctx context.Context, actor *model.User, f ListFilter) (*ListPage, error) {
	q := s.db.WithContext(ctx).Model(&model.Agent{}).
		Joins("JOIN users ON users.id = agents.user_id AND users.deleted_at IS NULL")

	if actor == nil || !actor.IsAdmin() {
		q = q.Where("agents.verification_status = ? AND agents.is_active = ?", model.VerificationVerified, true)
	}
	if term := strings.TrimSpace(f.Query); term != "" {
		q = database.ContainsAny(q, term, "users.username", "agents.agency_name", "agents.specialization")
	}
	if term := strings.TrimSpace(f.AgencyName); term != "" {
		q = database.ContainsAny(q, term, "agents.agency_name")
	}
	if term := strings.TrimSpace(f.Specialization); term != "" {
		q = database.ContainsAny(q, term, "agents.specialization")
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(f.MinRating), 64); err == nil {
		q = q.Where("agents.rating >= ?", v)
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(f.MaxRating), 64); err == nil {
		q = q.Where("agents.rating <= ?", v)
	}
	if v, err := strconv.Atoi(strings.TrimSpace(f.MinExperience)); err == nil {
		q = q.Where("agents.years_of_experience >= ?", v)
	}
	if v, err := strconv.Atoi(strings.TrimSpace(f.MaxExperience)); err == nil {
		q = q.Where("agents.years_of_experience <= ?", v)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count agents: %w", err)
	}
	page := pagination.Resolve(f.Page, pagination.DefaultPageSize, total)

	var agents []model.Agent
	err := q.Scopes(page.Scope).
		Preload("User").
		Order(statusOrder).
		Order("agents.rating DESC").
		Order("agents.id").
		Find(&agents).Error
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	return &ListPage{Agents: agents, Page: page}, nil
}

type Detail struct {
	Agent    *model.Agent    `json:"agent"`
	Listings []model.Listing `json:"listings"`
}

// Get returns a verified agent with its available, published listings.
func (s *Service) Get(ctx context.Context, id uint) (*Detail, error) {
	var a model.Agent
	err := s.db.WithContext(ctx).Preload("User").
		Where("verification_status = ?", model.VerificationVerified).
		First(&a, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Agent not found")
		}
		return nil, err
	}

	var listings []model.Listing
	err = s.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order, id") }).
		Preload("Category").
		Preload("Location").
		Where("agent_id = ? AND status = ? AND is_published = ?", a.ID, model.ListingAvailable, true).
		Order("created_at DESC").
		Find(&listings).Error
	if err != nil {
		return nil, fmt.Errorf("load agent listings: %w", err)
	}
	catalog.AttachImageURLs(s.store, listings)
	return &Detail{Agent: &a, Listings: listings}, nil
}

type RateInput struct {
	Score   int    `json:"score" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

type RateResult struct {
	Rating      model.Rating    `json:"rating"`
	AgentRating decimal.Decimal `json:"agent_rating"`
}

// Rate stores the caller's score for an agent, replacing any earlier one,
// and refreshes the agent's average in the same transaction.
func (s *Service) Rate(ctx context.Context, actor *model.User, agentID uint, in RateInput) (*RateResult, error) {
	if actor == nil {
		return nil, apperror.Unauthorized("Authentication required")
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	res := &RateResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var a model.Agent
		if err := tx.Select("id").First(&a, agentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("Agent not found")
			}
			return err
		}

		r := model.Rating{AgentID: agentID, UserID: actor.ID, Score: in.Score, Comment: in.Comment}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "agent_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"score", "comment", "updated_at"}),
		}).Create(&r).Error
		if err != nil {
			return fmt.Errorf("upsert rating: %w", err)
		}

		avg, err := recomputeRating(tx, agentID)
		if err != nil {
			return err
		}

		if err := tx.Where("agent_id = ? AND user_id = ?", agentID, actor.ID).First(&res.Rating).Error; err != nil {
			return err
		}
		res.AgentRating = avg
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.Get().RatingsSubmitted.Inc()
	return res, nil
}

// recomputeRating stores AVG(score) of the agent's ratings, rounded to two
// places, on the agent row.
func recomputeRating(tx *gorm.DB, agentID uint) (decimal.Decimal, error) {
	var avg struct{ Avg float64 }
	if err := tx.Model(&model.Rating{}).
		Select("COALESCE(AVG(score), 0) AS avg").
		Where("agent_id = ?", agentID).
		Scan(&avg).Error; err != nil {
		return decimal.Zero, fmt.Errorf("average rating: %w", err)
	}

	rating := decimal.NewFromFloat(avg.Avg).Round(2)
	if err := tx.Model(&model.Agent{}).Where("id = ?", agentID).Update("rating", rating).Error; err != nil {
		return decimal.Zero, fmt.Errorf("store rating: %w", err)
	}
	return rating, nil
}

// Deactivate clears the agent's active flag. Listings are left as they are.
func (s *Service) Deactivate(ctx context.Context, actor *model.User, id uint) (*model.Agent, error) {
	if actor == nil || !actor.IsAdmin() {
		return nil, apperror.Forbidden("Only administrators can deactivate agents")
	}

	var a model.Agent
	if err := s.db.WithContext(ctx).First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Agent not found")
		}
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&a).Update("is_active", false).Error; err != nil {
		return nil, fmt.Errorf("deactivate agent: %w", err)
	}
	a.IsActive = false
	s.logger.Info().Uint("agent_id", a.ID).Uint("actor_id", actor.ID).Msg("agent deactivated")
	return &a, nil
}

type ProfileInput struct {
	AgencyName        string            `json:"agency_name" validate:"required,max=200"`
	YearsOfExperience int               `json:"years_of_experience" validate:"gte=0,lte=100"`
	Specialization    string            `json:"specialization" validate:"max=200"`
	Description       string            `json:"description"`
	OfficeAddress     string            `json:"office_address"`
	Website           string            `json:"website" validate:"omitempty,url"`
	Social            model.SocialLinks `json:"social"`
}

// UpdateOwnProfile lets an agent edit its agency and contact details.
// License, verification, rating and featured flag stay with administrators.
func (s *Service) UpdateOwnProfile(ctx context.Context, actor *model.User, in ProfileInput) (*model.Agent, error) {
	if actor == nil || actor.Agent == nil {
		return nil, apperror.Forbidden("You are not registered as an agent")
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	var a model.Agent
	if err := s.db.WithContext(ctx).First(&a, actor.Agent.ID).Error; err != nil {
		return nil, err
	}
	err := s.db.WithContext(ctx).Model(&a).Select(
		"agency_name", "years_of_experience", "specialization", "description",
		"office_address", "website", "social",
	).Updates(model.Agent{
		AgencyName:        strings.TrimSpace(in.AgencyName),
		YearsOfExperience: in.YearsOfExperience,
		Specialization:    in.Specialization,
		Description:       in.Description,
		OfficeAddress:     in.OfficeAddress,
		Website:           in.Website,
		Social:            datatypes.NewJSONType(in.Social),
	}).Error
	if err != nil {
		return nil, fmt.Errorf("update agent profile: %w", err)
	}
	if err := s.db.WithContext(ctx).Preload("User").First(&a, a.ID).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

type Dashboard struct {
	Agent               *model.Agent    `json:"agent,omitempty"`
	Listings            []model.Listing `json:"listings"`
	ActiveListingsCount int             `json:"active_listings_count"`
	Inquiries           []model.Inquiry `json:"inquiries"`
	NewInquiriesCount   int             `json:"new_inquiries_count"`
}

// Dashboard collects an agent's listings and inquiry feed. Superusers
// without an agent record get the global feed.
func (s *Service) Dashboard(ctx context.Context, actor *model.User) (*Dashboard, error) {
	if actor == nil || (actor.Agent == nil && !actor.IsSuperuser) {
		return nil, apperror.Forbidden("You are not registered as an agent")
	}

	d := &Dashboard{}
	q := s.db.WithContext(ctx).Preload("Images").Preload("Category")
	if actor.Agent != nil {
		var a model.Agent
		if err := s.db.WithContext(ctx).Preload("User").First(&a, actor.Agent.ID).Error; err != nil {
			return nil, err
		}
		d.Agent = &a
		q = q.Where("agent_id = ? OR user_id = ?", a.ID, actor.ID)
	} else {
		q = q.Where("user_id = ?", actor.ID)
	}
	if err := q.Order("created_at DESC").Find(&d.Listings).Error; err != nil {
		return nil, fmt.Errorf("load dashboard listings: %w", err)
	}
	catalog.AttachImageURLs(s.store, d.Listings)
	for _, l := range d.Listings {
		if l.Status == model.ListingAvailable {
			d.ActiveListingsCount++
		}
	}

	inquiries, err := s.feed.Feed(ctx, actor)
	if err != nil {
		return nil, err
	}
	d.Inquiries = inquiries
	for _, inq := range inquiries {
		if inq.Status == model.InquiryNew {
			d.NewInquiriesCount++
		}
	}
	return d, nil
}
