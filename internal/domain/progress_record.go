package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MasteryNovice       = "novice"
	MasteryBeginner     = "beginner"
	MasteryIntermediate = "intermediate"
	MasteryAdvanced     = "advanced"
)

// ProgressRecord tracks per-module progress. One row per (user, module),
// created lazily on first interaction and overwritten on later updates.
type ProgressRecord struct {
	ID                   uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID               uuid.UUID      `gorm:"type:uuid;not null;index:idx_progress_user_module,unique" json:"user_id"`
	User                 *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	ModuleID             uuid.UUID      `gorm:"type:uuid;not null;index:idx_progress_user_module,unique" json:"module_id"`
	Module               *Module        `gorm:"constraint:OnDelete:CASCADE;foreignKey:ModuleID;references:ID" json:"module,omitempty"`
	CompletionPercentage float64        `gorm:"not null;default:0;column:completion_percentage" json:"completion_percentage"`
	MasteryLevel         string         `gorm:"not null;default:'novice';column:mastery_level" json:"mastery_level"`
	TotalConversations   int            `gorm:"not null;default:0;column:total_conversations" json:"total_conversations"`
	TotalMessages        int            `gorm:"not null;default:0;column:total_messages" json:"total_messages"`
	TimeSpentMinutes     int            `gorm:"not null;default:0;column:time_spent_minutes" json:"time_spent_minutes"`
	QuestionsAsked       int            `gorm:"not null;default:0;column:questions_asked" json:"questions_asked"`
	InsightsGained       int            `gorm:"not null;default:0;column:insights_gained" json:"insights_gained"`
	ConnectionsMade      int            `gorm:"not null;default:0;column:connections_made" json:"connections_made"`
	CreatedAt            time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt            time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ProgressRecord) TableName() string { return "progress_record" }
