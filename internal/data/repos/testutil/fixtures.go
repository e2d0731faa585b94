package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	types "github.com/harvlabs/harv-backend/internal/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:       uuid.New(),
		Email:    email,
		Password: "pw",
		Name:     "A B",
		Role:     types.RoleStudent,
		IsActive: true,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedSurvey(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, style, pace string) *types.OnboardingSurvey {
	tb.Helper()
	s := &types.OnboardingSurvey{
		ID:            uuid.New(),
		UserID:        userID,
		LearningStyle: style,
		PreferredPace: pace,
		Background:    "some prior exposure",
		Goals:         datatypes.JSON([]byte(`["improve communication skills"]`)),
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed survey: %v", err)
	}
	return s
}

func SeedModule(tb testing.TB, ctx context.Context, tx *gorm.DB, title string) *types.Module {
	tb.Helper()
	m := &types.Module{
		ID:                uuid.New(),
		Title:             title,
		Description:       "module about " + title,
		Objectives:        datatypes.JSON([]byte(`["objective one","objective two"]`)),
		SystemPrompt:      "Use Socratic questioning to guide student discovery",
		ModulePrompt:      "Focus on understanding through guided questions",
		SocraticIntensity: types.IntensityModerate,
		DifficultyLevel:   types.MasteryIntermediate,
		EstimatedDuration: 45,
		IsActive:          true,
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed module: %v", err)
	}
	return m
}

func SeedConversation(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, moduleID uuid.UUID, updatedAt time.Time) *types.Conversation {
	tb.Helper()
	c := &types.Conversation{
		ID:       uuid.New(),
		UserID:   userID,
		ModuleID: moduleID,
		Title:    "New Conversation",
		IsActive: true,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed conversation: %v", err)
	}
	if !updatedAt.IsZero() {
		if err := tx.WithContext(ctx).
			Model(&types.Conversation{}).
			Where("id = ?", c.ID).
			Update("updated_at", updatedAt).Error; err != nil {
			tb.Fatalf("seed conversation updated_at: %v", err)
		}
		c.UpdatedAt = updatedAt
	}
	return c
}

func SeedMessage(tb testing.TB, ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, role, content string, createdAt time.Time) *types.Message {
	tb.Helper()
	m := &types.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed message: %v", err)
	}
	if !createdAt.IsZero() {
		if err := tx.WithContext(ctx).
			Model(&types.Message{}).
			Where("id = ?", m.ID).
			Update("created_at", createdAt).Error; err != nil {
			tb.Fatalf("seed message created_at: %v", err)
		}
		m.CreatedAt = createdAt
	}
	return m
}

func SeedProgress(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, moduleID uuid.UUID, mastery string, insights, questions, connections int) *types.ProgressRecord {
	tb.Helper()
	p := &types.ProgressRecord{
		ID:              uuid.New(),
		UserID:          userID,
		ModuleID:        moduleID,
		MasteryLevel:    mastery,
		InsightsGained:  insights,
		QuestionsAsked:  questions,
		ConnectionsMade: connections,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed progress: %v", err)
	}
	return p
}

func SeedInsight(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, moduleID uuid.UUID, whatLearned string, confidence float64) *types.InsightSummary {
	tb.Helper()
	s := &types.InsightSummary{
		ID:                uuid.New(),
		UserID:            userID,
		ModuleID:          moduleID,
		WhatLearned:       whatLearned,
		HowLearned:        "guided questioning",
		ConnectionsMade:   "linked to earlier module",
		Confidence:        confidence,
		RetentionStrength: 0.8,
		LastAccessed:      time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed insight: %v", err)
	}
	return s
}
