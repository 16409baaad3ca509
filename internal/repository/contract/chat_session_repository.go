package contract

import (
	"context"
	"time"

	"market-assist-be/internal/entity"
	"market-assist-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ChatSessionRepository interface {
	Create(ctx context.Context, session *entity.ChatSession) error
	Update(ctx context.Context, session *entity.ChatSession) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// MarkInactiveBefore closes every active session last touched before the
	// cutoff and returns their ids so caches can be invalidated.
	MarkInactiveBefore(ctx context.Context, cutoff time.Time, closedAt time.Time) ([]uuid.UUID, error)
}
