package dto

import (
	"time"

	"github.com/google/uuid"
)

type SessionSummaryResponse struct {
	Id                 uuid.UUID              `json:"id"`
	Context            map[string]interface{} `json:"context,omitempty"`
	SatisfactionRating *int                   `json:"satisfaction_rating,omitempty"`
	CreatedAt          time.Time              `json:"created_at"`
	UpdatedAt          *time.Time             `json:"updated_at"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Cache    string `json:"cache"`
}
