package learning

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/harvlabs/harv-backend/internal/domain"
	"github.com/harvlabs/harv-backend/internal/platform/logger"
)

type MessageRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.Message) ([]*types.Message, error)
	GetRecentByConversationID(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, limit int) ([]*types.Message, error)
	CountByConversationID(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) (int64, error)
	CountByConversationIDs(ctx context.Context, tx *gorm.DB, conversationIDs []uuid.UUID) (map[uuid.UUID]int64, error)
	CountByUserAndModule(ctx context.Context, tx *gorm.DB, userID, moduleID uuid.UUID) (int64, error)
}

type messageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMessageRepo(db *gorm.DB, baseLog *logger.Logger) MessageRepo {
	repoLog := baseLog.With("repo", "MessageRepo")
	return &messageRepo{db: db, log: repoLog}
}

func (r *messageRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Message) ([]*types.Message, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(rows) == 0 {
		return []*types.Message{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetRecentByConversationID returns the last `limit` messages in
// chronological order (most recent last).
func (r *messageRepo) GetRecentByConversationID(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID, limit int) ([]*types.Message, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Message
	if limit <= 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(results)-1; i < j; i, j = i+1, j-1 {
		results[i], results[j] = results[j], results[i]
	}
	return results, nil
}

func (r *messageRepo) CountByConversationID(ctx context.Context, tx *gorm.DB, conversationID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Message{}).
		Where("conversation_id = ?", conversationID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *messageRepo) CountByConversationIDs(ctx context.Context, tx *gorm.DB, conversationIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	counts := make(map[uuid.UUID]int64, len(conversationIDs))
	if len(conversationIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		ConversationID uuid.UUID
		N              int64
	}
	if err := transaction.WithContext(ctx).
		Model(&types.Message{}).
		Select("conversation_id, COUNT(*) AS n").
		Where("conversation_id IN ?", conversationIDs).
		Group("conversation_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.ConversationID] = row.N
	}
	return counts, nil
}

// CountByUserAndModule counts every message the user has exchanged in the
// module, across all of its conversations.
func (r *messageRepo) CountByUserAndModule(ctx context.Context, tx *gorm.DB, userID, moduleID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Message{}).
		Joins("JOIN conversation ON conversation.id = message.conversation_id").
		Where("conversation.user_id = ? AND conversation.module_id = ?", userID, moduleID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
