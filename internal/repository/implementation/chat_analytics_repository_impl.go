package implementation

import (
	"context"
	"errors"

	"market-assist-be/internal/entity"
	"market-assist-be/internal/mapper"
	"market-assist-be/internal/model"
	"market-assist-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChatAnalyticsRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewChatAnalyticsRepository(db *gorm.DB) contract.ChatAnalyticsRepository {
	return &ChatAnalyticsRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *ChatAnalyticsRepositoryImpl) Upsert(ctx context.Context, record *entity.ChatAnalytics) error {
	if record.Id == uuid.Nil {
		record.Id = uuid.New()
	}
	m := r.mapper.ChatAnalyticsToModel(record)

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "chat_session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_messages",
			"assistant_messages",
			"avg_response_time_ms",
			"resolved",
			"escalated",
			"topics",
			"actions",
			"updated_at",
		}),
	}).Create(m).Error
	if err != nil {
		return err
	}
	*record = *r.mapper.ChatAnalyticsToEntity(m)
	return nil
}

func (r *ChatAnalyticsRepositoryImpl) FindBySession(ctx context.Context, sessionId uuid.UUID) (*entity.ChatAnalytics, error) {
	var m model.ChatAnalytics
	err := r.db.WithContext(ctx).Where("chat_session_id = ?", sessionId).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ChatAnalyticsToEntity(&m), nil
}
