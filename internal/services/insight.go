package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/harvlabs/harv-backend/internal/data/repos"
	types "github.com/harvlabs/harv-backend/internal/domain"
	"github.com/harvlabs/harv-backend/internal/observability"
	"github.com/harvlabs/harv-backend/internal/platform/logger"
)

// Completion formula weights. Completion saturates at 100.
const (
	completionPerConversation = 20.0
	completionConversationCap = 30.0
	completionPerMessage      = 2.0
	completionMessageCap      = 25.0
	completionPerInsight      = 15.0
	completionInsightCap      = 30.0
	completionPerTwoMinutes   = 0.5
	completionTimeCap         = 15.0
)

// Mastery thresholds over completion percentage.
const (
	masteryAdvancedAt     = 80.0
	masteryIntermediateAt = 50.0
	masteryBeginnerAt     = 20.0
)

// InsightService persists learning insights and recomputes per-module
// progress. Both writes are idempotent upserts keyed by (user, module).
type InsightService struct {
	log      *logger.Logger
	insights repos.InsightSummaryRepo
	progress repos.ProgressRecordRepo
	metrics  *observability.Metrics
}

func NewInsightService(baseLog *logger.Logger, insights repos.InsightSummaryRepo, progress repos.ProgressRecordRepo, metrics *observability.Metrics) *InsightService {
	return &InsightService{
		log:      baseLog.With("service", "InsightService"),
		insights: insights,
		progress: progress,
		metrics:  metrics,
	}
}

type SaveInsightInput struct {
	UserID          uuid.UUID
	ModuleID        uuid.UUID
	WhatLearned     string
	HowLearned      string
	ConnectionsMade string
	Confidence      float64
}

// SaveInsight upserts the learner's insight row for the module. Confidence is
// clamped to [0,1]; retention strength is reset to 0.9 on every save since a
// fresh insight is by definition recently accessed.
func (s *InsightService) SaveInsight(ctx context.Context, tx *gorm.DB, in SaveInsightInput) (*types.InsightSummary, error) {
	if in.WhatLearned == "" {
		return nil, fmt.Errorf("what_learned required")
	}

	now := time.Now().UTC()
	row := &types.InsightSummary{
		UserID:            in.UserID,
		ModuleID:          in.ModuleID,
		WhatLearned:       in.WhatLearned,
		HowLearned:        in.HowLearned,
		ConnectionsMade:   in.ConnectionsMade,
		Confidence:        clamp01(in.Confidence),
		RetentionStrength: 0.9,
		LastAccessed:      now,
		UpdatedAt:         now,
	}
	if err := s.insights.Upsert(ctx, tx, row); err != nil {
		s.metrics.ObservePersistFailure()
		s.log.Error("insight upsert failed",
			"user_id", in.UserID.String(),
			"module_id", in.ModuleID.String(),
			"error", err,
		)
		return nil, fmt.Errorf("save insight: %w", err)
	}
	return row, nil
}

type UpdateProgressInput struct {
	UserID        uuid.UUID
	ModuleID      uuid.UUID
	Conversations int
	Messages      int
	Insights      int
	TimeMinutes   int

	QuestionsAsked  int
	InsightsGained  int
	ConnectionsMade int
}

// UpdateProgress recomputes completion and mastery from the interaction
// counts and upserts the progress row. Negative counts are treated as zero.
func (s *InsightService) UpdateProgress(ctx context.Context, tx *gorm.DB, in UpdateProgressInput) (*types.ProgressRecord, error) {
	conversations := nonNegative(in.Conversations)
	messages := nonNegative(in.Messages)
	insights := nonNegative(in.Insights)
	minutes := nonNegative(in.TimeMinutes)

	completion := computeCompletion(conversations, messages, insights, minutes)
	row := &types.ProgressRecord{
		UserID:               in.UserID,
		ModuleID:             in.ModuleID,
		CompletionPercentage: completion,
		MasteryLevel:         masteryFor(completion),
		TotalConversations:   conversations,
		TotalMessages:        messages,
		TimeSpentMinutes:     minutes,
		QuestionsAsked:       nonNegative(in.QuestionsAsked),
		InsightsGained:       nonNegative(in.InsightsGained),
		ConnectionsMade:      nonNegative(in.ConnectionsMade),
		UpdatedAt:            time.Now().UTC(),
	}
	if err := s.progress.Upsert(ctx, tx, row); err != nil {
		s.metrics.ObservePersistFailure()
		s.log.Error("progress upsert failed",
			"user_id", in.UserID.String(),
			"module_id", in.ModuleID.String(),
			"error", err,
		)
		return nil, fmt.Errorf("update progress: %w", err)
	}
	return row, nil
}

// computeCompletion is the canonical completion formula:
//
//	min(min(conversations*20, 30) + min(messages*2, 25)
//	  + min(insights*15, 30) + min(minutes/2, 15), 100)
func computeCompletion(conversations, messages, insights, minutes int) float64 {
	total := capAt(float64(conversations)*completionPerConversation, completionConversationCap) +
		capAt(float64(messages)*completionPerMessage, completionMessageCap) +
		capAt(float64(insights)*completionPerInsight, completionInsightCap) +
		capAt(float64(minutes)*completionPerTwoMinutes, completionTimeCap)
	return capAt(total, 100)
}

// masteryFor maps completion onto the mastery ladder.
func masteryFor(completion float64) string {
	switch {
	case completion >= masteryAdvancedAt:
		return types.MasteryAdvanced
	case completion >= masteryIntermediateAt:
		return types.MasteryIntermediate
	case completion >= masteryBeginnerAt:
		return types.MasteryBeginner
	default:
		return types.MasteryNovice
	}
}

func capAt(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	return v
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
