package model

import "time"

type InquiryStatus string

const (
	InquiryNew       InquiryStatus = "new"
	InquiryRead      InquiryStatus = "read"
	InquiryResponded InquiryStatus = "responded"
	InquiryClosed    InquiryStatus = "closed"
)

func (s InquiryStatus) Valid() bool {
	switch s {
	case InquiryNew, InquiryRead, InquiryResponded, InquiryClosed:
		return true
	}
	return false
}

type Inquiry struct {
	ID          uint          `json:"id" gorm:"primaryKey"`
	UserID      uint          `json:"user_id" gorm:"not null;index"`
	ListingID   uint          `json:"listing_id" gorm:"not null;index"`
	Subject     string        `json:"subject" gorm:"size:200"`
	Message     string        `json:"message" gorm:"type:text;not null"`
	Email       string        `json:"email"`
	Phone       string        `json:"phone" gorm:"size:20"`
	Status      InquiryStatus `json:"status" gorm:"size:20;not null;default:'new';index"`
	Response    string        `json:"response" gorm:"type:text"`
	RespondedAt *time.Time    `json:"responded_at"`
	CreatedAt   time.Time     `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time     `json:"updated_at"`

	User    User    `json:"user" gorm:"foreignKey:UserID"`
	Listing Listing `json:"listing" gorm:"foreignKey:ListingID"`
}

// ReplyTo is the address notifications about this inquiry go to.
func (i *Inquiry) ReplyTo() string {
	if i.Email != "" {
		return i.Email
	}
	return i.User.Email
}

func (i *Inquiry) DisplaySubject() string {
	if i.Subject != "" {
		return i.Subject
	}
	return "General Inquiry"
}
