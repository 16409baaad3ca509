package assistant

import (
	"context"
	"sync"
	"time"

	"market-assist-be/internal/entity"
	"market-assist-be/internal/repository/contract"

	"github.com/google/uuid"
)

// AnalyticsTracker accumulates usage for one connection and flushes it as the
// session's analytics record. Counters are absolute, so flushing twice in a
// row writes the same record twice (idempotent); the response-time average
// covers the whole connection lifetime, not the span since the last flush.
type AnalyticsTracker struct {
	repo      contract.ChatAnalyticsRepository
	sessionId uuid.UUID

	mu                sync.Mutex
	userMessages      int
	assistantMessages int
	responseTimeSumMs int64
	responseSamples   int
	escalated         bool
	resolved          bool
	topics            []string
	topicSeen         map[string]bool
	actions           []entity.AnalyticsAction
}

func NewAnalyticsTracker(repo contract.ChatAnalyticsRepository, sessionId uuid.UUID) *AnalyticsTracker {
	return &AnalyticsTracker{
		repo:      repo,
		sessionId: sessionId,
		topicSeen: make(map[string]bool),
	}
}

// Rebind points the tracker at another session after an in-connection session
// switch; accumulated state belongs to the connection and carries over.
func (t *AnalyticsTracker) Rebind(sessionId uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessionId = sessionId
}

func (t *AnalyticsTracker) RecordUserMessage() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.userMessages++
}

func (t *AnalyticsTracker) RecordAssistantMessage(responseTime time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.assistantMessages++
	t.responseTimeSumMs += responseTime.Milliseconds()
	t.responseSamples++
}

func (t *AnalyticsTracker) RecordTopic(tag IntentTag) {
	t.mu.Lock()
	defer t.mu.Unlock()
	topic := string(tag)
	if !t.topicSeen[topic] {
		t.topicSeen[topic] = true
		t.topics = append(t.topics, topic)
	}
}

func (t *AnalyticsTracker) RecordAction(actionType string, details map[string]interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.actions = append(t.actions, entity.AnalyticsAction{
		Type:       actionType,
		OccurredAt: time.Now(),
		Details:    details,
	})
}

func (t *AnalyticsTracker) MarkEscalated() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.escalated = true
}

func (t *AnalyticsTracker) MarkResolved() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resolved = true
}

// Snapshot builds the absolute record the flush writes.
func (t *AnalyticsTracker) Snapshot() *entity.ChatAnalytics {
	t.mu.Lock()
	defer t.mu.Unlock()

	avg := float64(0)
	if t.responseSamples > 0 {
		avg = float64(t.responseTimeSumMs) / float64(t.responseSamples)
	}

	topics := make([]string, len(t.topics))
	copy(topics, t.topics)
	actions := make([]entity.AnalyticsAction, len(t.actions))
	copy(actions, t.actions)

	now := time.Now()
	return &entity.ChatAnalytics{
		ChatSessionId:     t.sessionId,
		UserMessages:      t.userMessages,
		AssistantMessages: t.assistantMessages,
		AvgResponseTimeMs: avg,
		Resolved:          t.resolved,
		Escalated:         t.escalated,
		Topics:            topics,
		Actions:           actions,
		UpdatedAt:         &now,
	}
}

// Flush upserts the record for the bound session. No-op when the connection
// never initialized a session.
func (t *AnalyticsTracker) Flush(ctx context.Context) error {
	t.mu.Lock()
	bound := t.sessionId != uuid.Nil
	t.mu.Unlock()
	if !bound {
		return nil
	}
	return t.repo.Upsert(ctx, t.Snapshot())
}
