package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InsightSummary is one learning-insight row per (user, module), upserted by
// the persister. Confidence and RetentionStrength are clamped to [0,1] at the
// write boundary.
type InsightSummary struct {
	ID                uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID            uuid.UUID      `gorm:"type:uuid;not null;index:idx_insight_user_module,unique" json:"user_id"`
	User              *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	ModuleID          uuid.UUID      `gorm:"type:uuid;not null;index:idx_insight_user_module,unique" json:"module_id"`
	Module            *Module        `gorm:"constraint:OnDelete:CASCADE;foreignKey:ModuleID;references:ID" json:"module,omitempty"`
	WhatLearned       string         `gorm:"type:text;not null;column:what_learned" json:"what_learned"`
	HowLearned        string         `gorm:"type:text;column:how_learned" json:"how_learned"`
	ConnectionsMade   string         `gorm:"type:text;column:connections_made" json:"connections_made"`
	Confidence        float64        `gorm:"not null;default:0.5;column:confidence" json:"confidence"`
	RetentionStrength float64        `gorm:"not null;default:0.8;column:retention_strength" json:"retention_strength"`
	LastAccessed      time.Time      `gorm:"column:last_accessed" json:"last_accessed"`
	CreatedAt         time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (InsightSummary) TableName() string { return "insight_summary" }
