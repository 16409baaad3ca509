package entity

import (
	"time"

	"github.com/google/uuid"
)

// AnalyticsAction is one structured event recorded during a conversation
// (escalations, rating submissions, fallbacks served, ...).
type AnalyticsAction struct {
	Type       string                 `json:"type"`
	OccurredAt time.Time              `json:"occurred_at"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

// ChatAnalytics is the one-per-session usage record. Flushes overwrite the
// counters with absolute values, so repeating a flush is harmless.
type ChatAnalytics struct {
	Id                uuid.UUID
	ChatSessionId     uuid.UUID
	UserMessages      int
	AssistantMessages int
	AvgResponseTimeMs float64
	Resolved          bool
	Escalated         bool
	Topics            []string
	Actions           []AnalyticsAction
	CreatedAt         time.Time
	UpdatedAt         *time.Time
}
