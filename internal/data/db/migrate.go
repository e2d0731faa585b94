package db

import (
	types "github.com/harvlabs/harv-backend/internal/domain"
)

func (s *PostgresService) AutoMigrateAll() error {
	return s.db.AutoMigrate(
		&types.User{},
		&types.OnboardingSurvey{},
		&types.Module{},
		&types.Conversation{},
		&types.Message{},
		&types.InsightSummary{},
		&types.ProgressRecord{},
	)
}
