package model

import (
	"strings"

	"gorm.io/gorm"
)

// User is the account record. Email is the login key.
type User struct {
	gorm.Model
	Email       string `json:"email" gorm:"uniqueIndex;not null"`
	Username    string `json:"username" gorm:"uniqueIndex;not null"`
	Password    string `json:"-" gorm:"not null"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	IsStaff     bool   `json:"is_staff"`
	IsSuperuser bool   `json:"is_superuser"`
	IsActive    bool   `json:"is_active"`

	Profile *Profile `json:"profile,omitempty" gorm:"foreignKey:UserID"`
	Agent   *Agent   `json:"agent,omitempty" gorm:"foreignKey:UserID"`
}

func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	return nil
}

// IsAdmin reports whether the account may act as an administrator.
func (u *User) IsAdmin() bool {
	return u.IsStaff || u.IsSuperuser
}

func (u *User) GetFullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// DisplayName falls back to the email when no name is set.
func (u *User) DisplayName() string {
	if name := u.GetFullName(); name != "" {
		return name
	}
	return u.Email
}

func (u *User) GetPublicProfile() map[string]interface{} {
	return map[string]interface{}{
		"id":           u.ID,
		"email":        u.Email,
		"username":     u.Username,
		"full_name":    u.GetFullName(),
		"is_staff":     u.IsStaff,
		"is_superuser": u.IsSuperuser,
		"is_agent":     u.Agent != nil,
		"created_at":   u.CreatedAt,
	}
}

// Profile holds contact details. One per user, created on first access.
type Profile struct {
	gorm.Model
	UserID      uint   `json:"user_id" gorm:"uniqueIndex;not null"`
	PhoneNumber string `json:"phone_number" gorm:"size:20"`
	Address     string `json:"address"`
	City        string `json:"city" gorm:"size:100"`
	State       string `json:"state" gorm:"size:100"`
	Country     string `json:"country" gorm:"size:100"`
	ZipCode     string `json:"zip_code" gorm:"size:20"`
	Bio         string `json:"bio" gorm:"type:text"`
	AvatarKey   string `json:"-"`

	AvatarURL string `json:"avatar_url" gorm:"-"`
}
