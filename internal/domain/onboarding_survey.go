package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	StyleVisual      = "visual"
	StyleAuditory    = "auditory"
	StyleKinesthetic = "kinesthetic"
	StyleReading     = "reading"
	StyleMixed       = "mixed"

	PaceSlow     = "slow"
	PaceModerate = "moderate"
	PaceFast     = "fast"
)

// OnboardingSurvey is the stored source for the derived learner profile.
// Goals is a JSON array of strings, order meaningful.
type OnboardingSurvey struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID        uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	User          *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	LearningStyle string         `gorm:"column:learning_style" json:"learning_style"`
	PreferredPace string         `gorm:"column:preferred_pace" json:"preferred_pace"`
	Background    string         `gorm:"type:text;column:background" json:"background"`
	Goals         datatypes.JSON `gorm:"type:jsonb;column:goals" json:"goals"`
	CreatedAt     time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (OnboardingSurvey) TableName() string { return "onboarding_survey" }
