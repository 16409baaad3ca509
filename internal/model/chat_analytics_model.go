package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ChatAnalytics struct {
	Id                uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChatSessionId     uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex"` // one record per session
	UserMessages      int            `gorm:"not null;default:0"`
	AssistantMessages int            `gorm:"not null;default:0"`
	AvgResponseTimeMs float64        `gorm:"not null;default:0"`
	Resolved          bool           `gorm:"not null;default:false"`
	Escalated         bool           `gorm:"not null;default:false"`
	Topics            datatypes.JSON `gorm:"type:jsonb"`
	Actions           datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt         time.Time      `gorm:"autoCreateTime"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime"`
}

func (ChatAnalytics) TableName() string {
	return "chat_analytics"
}
