package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TurnRoleUser      = "user"
	TurnRoleAssistant = "assistant"
)

type Conversation struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index:idx_conversation_user_module" json:"user_id"`
	User      *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	ModuleID  uuid.UUID      `gorm:"type:uuid;not null;index:idx_conversation_user_module" json:"module_id"`
	Module    *Module        `gorm:"constraint:OnDelete:CASCADE;foreignKey:ModuleID;references:ID" json:"module,omitempty"`
	Title     string         `gorm:"not null;default:'New Conversation';column:title" json:"title"`
	IsActive  bool           `gorm:"not null;default:true;column:is_active" json:"is_active"`
	Finalized bool           `gorm:"not null;default:false;column:finalized" json:"finalized"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now();index" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Conversation) TableName() string { return "conversation" }

type Message struct {
	ID             uuid.UUID     `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ConversationID uuid.UUID     `gorm:"type:uuid;not null;index" json:"conversation_id"`
	Conversation   *Conversation `gorm:"constraint:OnDelete:CASCADE;foreignKey:ConversationID;references:ID" json:"conversation,omitempty"`
	Role           string        `gorm:"not null;column:role" json:"role"`
	Content        string        `gorm:"type:text;not null;column:content" json:"content"`
	CreatedAt      time.Time     `gorm:"not null;default:now();index" json:"created_at"`
}

func (Message) TableName() string { return "message" }
