package repos

import (
	"gorm.io/gorm"

	"github.com/harvlabs/harv-backend/internal/data/repos/learning"
	"github.com/harvlabs/harv-backend/internal/data/repos/user"
	"github.com/harvlabs/harv-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type OnboardingSurveyRepo = user.OnboardingSurveyRepo

type ModuleRepo = learning.ModuleRepo
type ConversationRepo = learning.ConversationRepo
type MessageRepo = learning.MessageRepo
type InsightSummaryRepo = learning.InsightSummaryRepo
type ProgressRecordRepo = learning.ProgressRecordRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }
func NewOnboardingSurveyRepo(db *gorm.DB, baseLog *logger.Logger) OnboardingSurveyRepo {
	return user.NewOnboardingSurveyRepo(db, baseLog)
}

func NewModuleRepo(db *gorm.DB, baseLog *logger.Logger) ModuleRepo {
	return learning.NewModuleRepo(db, baseLog)
}
func NewConversationRepo(db *gorm.DB, baseLog *logger.Logger) ConversationRepo {
	return learning.NewConversationRepo(db, baseLog)
}
func NewMessageRepo(db *gorm.DB, baseLog *logger.Logger) MessageRepo {
	return learning.NewMessageRepo(db, baseLog)
}
func NewInsightSummaryRepo(db *gorm.DB, baseLog *logger.Logger) InsightSummaryRepo {
	return learning.NewInsightSummaryRepo(db, baseLog)
}
func NewProgressRecordRepo(db *gorm.DB, baseLog *logger.Logger) ProgressRecordRepo {
	return learning.NewProgressRecordRepo(db, baseLog)
}
