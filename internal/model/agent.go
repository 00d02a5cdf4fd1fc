package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationRejected VerificationStatus = "rejected"
)

func (s VerificationStatus) Valid() bool {
	switch s {
	case VerificationPending, VerificationVerified, VerificationRejected:
		return true
	}
	return false
}

type SocialLinks struct {
	Facebook  string `json:"facebook,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
	Instagram string `json:"instagram,omitempty"`
}

type Agent struct {
	gorm.Model
	UserID             uint                            `json:"user_id" gorm:"uniqueIndex;not null"`
	AgencyName         string                          `json:"agency_name" gorm:"size:200;not null"`
	LicenseNumber      string                          `json:"license_number" gorm:"size:100;uniqueIndex;not null"`
	YearsOfExperience  int                             `json:"years_of_experience" gorm:"not null;default:0"`
	Specialization     string                          `json:"specialization" gorm:"size:200"`
	Description        string                          `json:"description" gorm:"type:text"`
	OfficeAddress      string                          `json:"office_address" gorm:"type:text"`
	Website            string                          `json:"website"`
	Social             datatypes.JSONType[SocialLinks] `json:"social"`
	VerificationStatus VerificationStatus              `json:"verification_status" gorm:"size:20;not null;default:'pending';index"`
	Rating             decimal.Decimal                 `json:"rating" gorm:"type:decimal(3,2);not null;default:0"`
	TotalListings      int                             `json:"total_listings" gorm:"not null;default:0"`
	TotalSales         int                             `json:"total_sales" gorm:"not null;default:0"`
	IsFeatured         bool                            `json:"is_featured"`
	IsActive           bool                            `json:"is_active"`

	User    User     `json:"user" gorm:"foreignKey:UserID"`
	Ratings []Rating `json:"-" gorm:"foreignKey:AgentID"`
}

func (a *Agent) IsVerified() bool {
	return a.VerificationStatus == VerificationVerified
}

// CanPublish reports whether the agent may create listings.
func (a *Agent) CanPublish() bool {
	return a.IsActive && a.IsVerified()
}

func (a *Agent) ContactEmail() string {
	return a.User.Email
}

// Rating is one account's score for an agent. (agent_id, user_id) is unique;
// resubmitting overwrites.
type Rating struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	AgentID   uint      `json:"agent_id" gorm:"not null;uniqueIndex:idx_rating_agent_user"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_rating_agent_user"`
	Score     int       `json:"score" gorm:"not null"`
	Comment   string    `json:"comment" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
