package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ChatMessage struct {
	Id               uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChatSessionId    uuid.UUID         `gorm:"type:uuid;not null;index"`
	Sender           string            `gorm:"type:varchar(20);not null"`
	Content          string            `gorm:"type:text;not null"`
	Metadata         datatypes.JSONMap `gorm:"type:jsonb"`
	Cached           bool              `gorm:"not null;default:false"`
	ProcessingTimeMs int64             `gorm:"not null;default:0"`
	CreatedAt        time.Time         `gorm:"autoCreateTime;index"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
