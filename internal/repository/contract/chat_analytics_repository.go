package contract

import (
	"context"

	"market-assist-be/internal/entity"

	"github.com/google/uuid"
)

type ChatAnalyticsRepository interface {
	// Upsert writes the record keyed by session id, overwriting counters on
	// conflict. Repeated flushes with the same data are idempotent.
	Upsert(ctx context.Context, record *entity.ChatAnalytics) error
	FindBySession(ctx context.Context, sessionId uuid.UUID) (*entity.ChatAnalytics, error)
}
