package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Conversation statuses
const (
	ConversationOpen   = "open"
	ConversationClosed = "closed"
)

// Conversation is a support thread between one customer and the staff.
// UnreadAdmin and UnreadUser are independent read markers, one per side.
type Conversation struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index" json:"userId"`
	User        *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Subject     string    `gorm:"type:varchar(255);not null" json:"subject"`
	Status      string    `gorm:"type:varchar(10);not null;index" json:"status"`
	UnreadAdmin bool      `gorm:"not null" json:"unreadAdmin"`
	UnreadUser  bool      `gorm:"not null" json:"unreadUser"`
	Messages    []Message `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `gorm:"index" json:"updatedAt"`
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	assignID(&c.ID)
	return nil
}

// Message is one entry of a Conversation. IsFromAdmin is fixed at send time.
type Message struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID uuid.UUID  `gorm:"type:uuid;not null;index" json:"conversationId"`
	SenderID       uuid.UUID  `gorm:"type:uuid;not null" json:"senderId"`
	Sender         *User      `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Content        string     `gorm:"type:text;not null" json:"content"`
	IsFromAdmin    bool       `gorm:"not null" json:"isFromAdmin"`
	EditedAt       *time.Time `json:"editedAt"`
	CreatedAt      time.Time  `gorm:"index" json:"createdAt"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	assignID(&m.ID)
	return nil
}
