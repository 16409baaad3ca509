package assistant

import (
	"context"
	"testing"
	"time"

	"market-assist-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAnalyticsRepo records every upsert.
type fakeAnalyticsRepo struct {
	upserts []*entity.ChatAnalytics
}

func (f *fakeAnalyticsRepo) Upsert(ctx context.Context, record *entity.ChatAnalytics) error {
	f.upserts = append(f.upserts, record)
	return nil
}

func (f *fakeAnalyticsRepo) FindBySession(ctx context.Context, sessionId uuid.UUID) (*entity.ChatAnalytics, error) {
	if len(f.upserts) == 0 {
		return nil, nil
	}
	return f.upserts[len(f.upserts)-1], nil
}

func TestTrackerSnapshot(t *testing.T) {
	tracker := NewAnalyticsTracker(&fakeAnalyticsRepo{}, uuid.New())

	tracker.RecordUserMessage()
	tracker.RecordUserMessage()
	tracker.RecordAssistantMessage(100 * time.Millisecond)
	tracker.RecordAssistantMessage(300 * time.Millisecond)
	tracker.RecordTopic(IntentService)
	tracker.RecordTopic(IntentService) // deduplicated
	tracker.RecordTopic(IntentComplaint)
	tracker.MarkEscalated()

	snap := tracker.Snapshot()
	assert.Equal(t, 2, snap.UserMessages)
	assert.Equal(t, 2, snap.AssistantMessages)
	assert.Equal(t, float64(200), snap.AvgResponseTimeMs)
	assert.Equal(t, []string{"service", "complaint"}, snap.Topics)
	assert.True(t, snap.Escalated)
	assert.False(t, snap.Resolved)
}

func TestTrackerFlushIdempotent(t *testing.T) {
	repo := &fakeAnalyticsRepo{}
	sessionId := uuid.New()
	tracker := NewAnalyticsTracker(repo, sessionId)

	tracker.RecordUserMessage()
	tracker.RecordAssistantMessage(50 * time.Millisecond)

	require.NoError(t, tracker.Flush(context.Background()))
	require.NoError(t, tracker.Flush(context.Background()))

	// Counters are absolute: flushing twice writes the same numbers twice.
	require.Len(t, repo.upserts, 2)
	assert.Equal(t, repo.upserts[0].UserMessages, repo.upserts[1].UserMessages)
	assert.Equal(t, repo.upserts[0].AssistantMessages, repo.upserts[1].AssistantMessages)
	assert.Equal(t, repo.upserts[0].AvgResponseTimeMs, repo.upserts[1].AvgResponseTimeMs)
	assert.Equal(t, sessionId, repo.upserts[0].ChatSessionId)
}

func TestTrackerLifetimeMean(t *testing.T) {
	repo := &fakeAnalyticsRepo{}
	tracker := NewAnalyticsTracker(repo, uuid.New())

	tracker.RecordAssistantMessage(100 * time.Millisecond)
	require.NoError(t, tracker.Flush(context.Background()))

	// The average spans the whole connection, not the span since last flush.
	tracker.RecordAssistantMessage(300 * time.Millisecond)
	require.NoError(t, tracker.Flush(context.Background()))

	require.Len(t, repo.upserts, 2)
	assert.Equal(t, float64(100), repo.upserts[0].AvgResponseTimeMs)
	assert.Equal(t, float64(200), repo.upserts[1].AvgResponseTimeMs)
}

func TestTrackerUnboundFlushIsNoop(t *testing.T) {
	repo := &fakeAnalyticsRepo{}
	tracker := NewAnalyticsTracker(repo, uuid.Nil)

	tracker.RecordUserMessage()
	require.NoError(t, tracker.Flush(context.Background()))
	assert.Empty(t, repo.upserts)

	// Binding a session later makes the accumulated state flushable.
	sessionId := uuid.New()
	tracker.Rebind(sessionId)
	require.NoError(t, tracker.Flush(context.Background()))
	require.Len(t, repo.upserts, 1)
	assert.Equal(t, sessionId, repo.upserts[0].ChatSessionId)
	assert.Equal(t, 1, repo.upserts[0].UserMessages)
}
