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

type ProgressRecordRepo interface {
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.ProgressRecord, error)
	GetByUserAndModule(ctx context.Context, tx *gorm.DB, userID, moduleID uuid.UUID) (*types.ProgressRecord, error)
	Upsert(ctx context.Context, tx *gorm.DB, row *types.ProgressRecord) error
}

type progressRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProgressRecordRepo(db *gorm.DB, baseLog *logger.Logger) ProgressRecordRepo {
	repoLog := baseLog.With("repo", "ProgressRecordRepo")
	return &progressRecordRepo{db: db, log: repoLog}
}

// GetByUserID returns the user's progress rows, most recently updated first.
// limit <= 0 means no limit.
func (r *progressRecordRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.ProgressRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	query := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var results []*types.ProgressRecord
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *progressRecordRepo) GetByUserAndModule(ctx context.Context, tx *gorm.DB, userID, moduleID uuid.UUID) (*types.ProgressRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row types.ProgressRecord
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

// Upsert keeps one row per (user_id, module_id), overwriting the computed
// fields on conflict (last write wins).
func (r *progressRecordRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.ProgressRecord) error {
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
				"completion_percentage",
				"mastery_level",
				"total_conversations",
				"total_messages",
				"time_spent_minutes",
				"questions_asked",
				"insights_gained",
				"connections_made",
				"updated_at",
			}),
		}).
		Create(row).Error
}
