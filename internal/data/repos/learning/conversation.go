package learning

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/harvlabs/harv-backend/internal/domain"
	"github.com/harvlabs/harv-backend/internal/platform/logger"
)

type ConversationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.Conversation) ([]*types.Conversation, error)
	GetOwned(ctx context.Context, tx *gorm.DB, id, userID, moduleID uuid.UUID) (*types.Conversation, error)
	GetLatestForUserModule(ctx context.Context, tx *gorm.DB, userID, moduleID uuid.UUID) (*types.Conversation, error)
	GetByUserExcludingModule(ctx context.Context, tx *gorm.DB, userID, excludeModuleID uuid.UUID) ([]*types.Conversation, error)
	CountByUserAndModule(ctx context.Context, tx *gorm.DB, userID, moduleID uuid.UUID) (int64, error)
	Touch(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type conversationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConversationRepo(db *gorm.DB, baseLog *logger.Logger) ConversationRepo {
	repoLog := baseLog.With("repo", "ConversationRepo")
	return &conversationRepo{db: db, log: repoLog}
}

func (r *conversationRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Conversation) ([]*types.Conversation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(rows) == 0 {
		return []*types.Conversation{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetOwned returns the conversation only when it belongs to the given user
// and module; nil without error otherwise.
func (r *conversationRepo) GetOwned(ctx context.Context, tx *gorm.DB, id, userID, moduleID uuid.UUID) (*types.Conversation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row types.Conversation
	err := transaction.WithContext(ctx).
		Where("id = ? AND user_id = ? AND module_id = ?", id, userID, moduleID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *conversationRepo) GetLatestForUserModule(ctx context.Context, tx *gorm.DB, userID, moduleID uuid.UUID) (*types.Conversation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row types.Conversation
	err := transaction.WithContext(ctx).
		Where("user_id = ? AND module_id = ?", userID, moduleID).
		Order("updated_at DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// GetByUserExcludingModule returns the user's conversations in every other
// module, most recently updated first, id descending as the tie-break.
func (r *conversationRepo) GetByUserExcludingModule(ctx context.Context, tx *gorm.DB, userID, excludeModuleID uuid.UUID) ([]*types.Conversation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Conversation
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND module_id <> ?", userID, excludeModuleID).
		Order("updated_at DESC, id DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *conversationRepo) CountByUserAndModule(ctx context.Context, tx *gorm.DB, userID, moduleID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Conversation{}).
		Where("user_id = ? AND module_id = ?", userID, moduleID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *conversationRepo) Touch(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&types.Conversation{}).
		Where("id = ?", id).
		Update("updated_at", time.Now().UTC()).Error
}
