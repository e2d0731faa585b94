package learning

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/harvlabs/harv-backend/internal/domain"
	"github.com/harvlabs/harv-backend/internal/platform/logger"
)

type InsightSummaryRepo interface {
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.InsightSummary, error)
	GetByUserIDOrderByConfidence(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.InsightSummary, error)
	GetByUserAndModule(ctx context.Context, tx *gorm.DB, userID, moduleID uuid.UUID) (*types.InsightSummary, error)
	Upsert(ctx context.Context, tx *gorm.DB, row *types.InsightSummary) error
}

type insightSummaryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInsightSummaryRepo(db *gorm.DB, baseLog *logger.Logger) InsightSummaryRepo {
	repoLog := baseLog.With("repo", "InsightSummaryRepo")
	return &insightSummaryRepo{db: db, log: repoLog}
}

func (r *insightSummaryRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.InsightSummary, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.InsightSummary
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *insightSummaryRepo) GetByUserIDOrderByConfidence(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.InsightSummary, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.InsightSummary
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("confidence DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *insightSummaryRepo) GetByUserAndModule(ctx context.Context, tx *gorm.DB, userID, moduleID uuid.UUID) (*types.InsightSummary, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row types.InsightSummary
	err := transaction.WithContext(ctx).
		Where("user_id = ? AND module_id = ?", userID, moduleID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Upsert keeps exactly one row per (user_id, module_id); a conflicting write
// overwrites the insight fields with the new values (last write wins).
func (r *insightSummaryRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.InsightSummary) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if row == nil {
		return nil
	}

	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "module_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"what_learned",
				"how_learned",
				"connections_made",
				"confidence",
				"retention_strength",
				"last_accessed",
				"updated_at",
			}),
		}).
		Create(row).Error
}
