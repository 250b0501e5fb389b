package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Testimonial is a customer quote shown on the storefront
type Testimonial struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Location  string    `gorm:"type:varchar(255)" json:"location"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Rating    int       `gorm:"not null" json:"rating"`
	Image     string    `gorm:"type:varchar(500)" json:"image"`
	IsVisible bool      `gorm:"not null;index" json:"isVisible"`
	SortOrder int       `gorm:"not null" json:"order"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (t *Testimonial) BeforeCreate(tx *gorm.DB) error {
	assignID(&t.ID)
	return nil
}

// EmailTemplate is a reusable broadcast subject/body pair
type EmailTemplate struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Subject   string    `gorm:"type:varchar(255);not null" json:"subject"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (t *EmailTemplate) BeforeCreate(tx *gorm.DB) error {
	assignID(&t.ID)
	return nil
}

// Email batch outcomes
const (
	EmailStatusSent    = "sent"
	EmailStatusPartial = "partial"
	EmailStatusFailed  = "failed"
)

// Broadcast audiences
const (
	AudienceNewsletter = "newsletter"
	AudienceRoles      = "roles"
	AudienceAll        = "all"
)

// EmailFailure is one recipient that could not be reached
type EmailFailure struct {
	Email string `json:"email"`
	Error string `json:"error"`
}

// EmailLog records the outcome of one broadcast batch
type EmailLog struct {
	ID             uuid.UUID                         `gorm:"type:uuid;primaryKey" json:"id"`
	SentBy         *uuid.UUID                        `gorm:"type:uuid;index" json:"sentBy"`
	Subject        string                            `gorm:"type:varchar(255);not null" json:"subject"`
	Audience       string                            `gorm:"type:varchar(20);not null" json:"audience"`
	RecipientCount int                               `gorm:"not null" json:"recipientCount"`
	SentCount      int                               `gorm:"not null" json:"sentCount"`
	FailedCount    int                               `gorm:"not null" json:"failedCount"`
	Status         string                            `gorm:"type:varchar(10);not null" json:"status"`
	Errors         datatypes.JSONSlice[EmailFailure] `json:"errors"`
	CreatedAt      time.Time                         `gorm:"index" json:"createdAt"`
}

func (l *EmailLog) BeforeCreate(tx *gorm.DB) error {
	assignID(&l.ID)
	return nil
}

// NewsletterSubscriber is an address opted in to marketing email
type NewsletterSubscriber struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email          string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	IsActive       bool       `gorm:"not null" json:"isActive"`
	UnsubscribedAt *time.Time `json:"unsubscribedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func (s *NewsletterSubscriber) BeforeCreate(tx *gorm.DB) error {
	assignID(&s.ID)
	return nil
}
