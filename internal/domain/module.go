package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	IntensityLow      = "low"
	IntensityModerate = "moderate"
	IntensityHigh     = "high"
)

// Module is a teaching unit with its Socratic configuration. Objectives is a
// JSON array of strings, order meaningful.
type Module struct {
	ID                uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Title             string         `gorm:"not null;column:title" json:"title"`
	Description       string         `gorm:"type:text;column:description" json:"description"`
	Objectives        datatypes.JSON `gorm:"type:jsonb;column:objectives" json:"objectives"`
	SystemPrompt      string         `gorm:"type:text;column:system_prompt" json:"system_prompt"`
	ModulePrompt      string         `gorm:"type:text;column:module_prompt" json:"module_prompt"`
	SocraticIntensity string         `gorm:"not null;default:'moderate';column:socratic_intensity" json:"socratic_intensity"`
	DifficultyLevel   string         `gorm:"not null;default:'intermediate';column:difficulty_level" json:"difficulty_level"`
	EstimatedDuration int            `gorm:"not null;default:0;column:estimated_duration" json:"estimated_duration"` // minutes
	IsActive          bool           `gorm:"not null;default:true;column:is_active" json:"is_active"`
	CreatedAt         time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Module) TableName() string { return "module" }
