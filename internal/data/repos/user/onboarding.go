package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/harvlabs/harv-backend/internal/domain"
	"github.com/harvlabs/harv-backend/internal/platform/logger"
)

type OnboardingSurveyRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.OnboardingSurvey) ([]*types.OnboardingSurvey, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.OnboardingSurvey, error)
	Update(ctx context.Context, tx *gorm.DB, row *types.OnboardingSurvey) error
}

type onboardingSurveyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOnboardingSurveyRepo(db *gorm.DB, baseLog *logger.Logger) OnboardingSurveyRepo {
	repoLog := baseLog.With("repo", "OnboardingSurveyRepo")
	return &onboardingSurveyRepo{db: db, log: repoLog}
}

func (r *onboardingSurveyRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.OnboardingSurvey) ([]*types.OnboardingSurvey, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(rows) == 0 {
		return []*types.OnboardingSurvey{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetByUserID returns nil without error when the user has not onboarded yet.
func (r *onboardingSurveyRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.OnboardingSurvey, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row types.OnboardingSurvey
	err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *onboardingSurveyRepo) Update(ctx context.Context, tx *gorm.DB, row *types.OnboardingSurvey) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if row == nil {
		return nil
	}

	return transaction.WithContext(ctx).Save(row).Error
}
