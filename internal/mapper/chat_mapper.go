package mapper

import (
	"encoding/json"
	"time"

	"market-assist-be/internal/entity"
	"market-assist-be/internal/model"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

// Session Mappers

func (m *ChatMapper) ChatSessionToEntity(s *model.ChatSession) *entity.ChatSession {
	if s == nil {
		return nil
	}

	var owner entity.Owner
	if s.UserId != nil {
		owner = entity.NewAuthenticatedOwner(*s.UserId)
	} else {
		owner = entity.NewAnonymousOwner(s.AnonymousId)
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	return &entity.ChatSession{
		Id:                 s.Id,
		Owner:              owner,
		Context:            map[string]interface{}(s.Context),
		SatisfactionRating: s.SatisfactionRating,
		Feedback:           s.Feedback,
		Active:             s.Active,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          updatedAt,
		ClosedAt:           s.ClosedAt,
	}
}

func (m *ChatMapper) ChatSessionToModel(s *entity.ChatSession) *model.ChatSession {
	if s == nil {
		return nil
	}

	var userId *uuid.UUID
	var anonId string
	if id, ok := s.Owner.UserId(); ok {
		v := id
		userId = &v
	}
	if id, ok := s.Owner.AnonymousId(); ok {
		anonId = id
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	return &model.ChatSession{
		Id:                 s.Id,
		UserId:             userId,
		AnonymousId:        anonId,
		Context:            datatypes.JSONMap(s.Context),
		SatisfactionRating: s.SatisfactionRating,
		Feedback:           s.Feedback,
		Active:             s.Active,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          updatedAt,
		ClosedAt:           s.ClosedAt,
	}
}

// Message Mappers

func (m *ChatMapper) ChatMessageToEntity(msg *model.ChatMessage) *entity.ChatMessage {
	if msg == nil {
		return nil
	}

	sender, err := entity.ParseSenderKind(msg.Sender)
	if err != nil {
		sender = entity.SenderSystem
	}

	return &entity.ChatMessage{
		Id:               msg.Id,
		ChatSessionId:    msg.ChatSessionId,
		Sender:           sender,
		Content:          msg.Content,
		Metadata:         map[string]interface{}(msg.Metadata),
		Cached:           msg.Cached,
		ProcessingTimeMs: msg.ProcessingTimeMs,
		CreatedAt:        msg.CreatedAt,
	}
}

func (m *ChatMapper) ChatMessageToModel(msg *entity.ChatMessage) *model.ChatMessage {
	if msg == nil {
		return nil
	}

	return &model.ChatMessage{
		Id:               msg.Id,
		ChatSessionId:    msg.ChatSessionId,
		Sender:           string(msg.Sender),
		Content:          msg.Content,
		Metadata:         datatypes.JSONMap(msg.Metadata),
		Cached:           msg.Cached,
		ProcessingTimeMs: msg.ProcessingTimeMs,
		CreatedAt:        msg.CreatedAt,
	}
}

// Analytics Mappers

func (m *ChatMapper) ChatAnalyticsToEntity(a *model.ChatAnalytics) *entity.ChatAnalytics {
	if a == nil {
		return nil
	}

	var topics []string
	if len(a.Topics) > 0 {
		_ = json.Unmarshal(a.Topics, &topics)
	}
	var actions []entity.AnalyticsAction
	if len(a.Actions) > 0 {
		_ = json.Unmarshal(a.Actions, &actions)
	}

	var updatedAt *time.Time
	if !a.UpdatedAt.IsZero() {
		t := a.UpdatedAt
		updatedAt = &t
	}

	return &entity.ChatAnalytics{
		Id:                a.Id,
		ChatSessionId:     a.ChatSessionId,
		UserMessages:      a.UserMessages,
		AssistantMessages: a.AssistantMessages,
		AvgResponseTimeMs: a.AvgResponseTimeMs,
		Resolved:          a.Resolved,
		Escalated:         a.Escalated,
		Topics:            topics,
		Actions:           actions,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         updatedAt,
	}
}

func (m *ChatMapper) ChatAnalyticsToModel(a *entity.ChatAnalytics) *model.ChatAnalytics {
	if a == nil {
		return nil
	}

	topics, _ := json.Marshal(a.Topics)
	actions, _ := json.Marshal(a.Actions)

	var updatedAt time.Time
	if a.UpdatedAt != nil {
		updatedAt = *a.UpdatedAt
	}

	return &model.ChatAnalytics{
		Id:                a.Id,
		ChatSessionId:     a.ChatSessionId,
		UserMessages:      a.UserMessages,
		AssistantMessages: a.AssistantMessages,
		AvgResponseTimeMs: a.AvgResponseTimeMs,
		Resolved:          a.Resolved,
		Escalated:         a.Escalated,
		Topics:            datatypes.JSON(topics),
		Actions:           datatypes.JSON(actions),
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         updatedAt,
	}
}
