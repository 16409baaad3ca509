package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ChatSession struct {
	Id                 uuid.UUID          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId             *uuid.UUID         `gorm:"type:uuid;index"` // nil for anonymous sessions
	AnonymousId        string             `gorm:"type:varchar(64);index"`
	Context            datatypes.JSONMap  `gorm:"type:jsonb"`
	SatisfactionRating *int               `gorm:"type:smallint"`
	Feedback           string             `gorm:"type:text"`
	Active             bool               `gorm:"not null;default:true;index"`
	CreatedAt          time.Time          `gorm:"autoCreateTime"`
	UpdatedAt          time.Time          `gorm:"autoUpdateTime"`
	ClosedAt           *time.Time
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}
