package service

import (
	"encoding/json"
	"time"

	"market-assist-be/internal/pkg/logger"
	"market-assist-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// TelemetryTopic is the in-process bus topic the connection handlers publish
// on and the alert monitor consumes from.
const TelemetryTopic = "ASSISTANT_TELEMETRY"

// ITelemetryService publishes conversational telemetry onto the event bus.
// Publishing is fire-and-forget; a broken bus never blocks a reply.
type ITelemetryService interface {
	MessageHandled(sessionId uuid.UUID, latency time.Duration, fallback, cached bool)
	MessageFailed(sessionId uuid.UUID, reason string)
	EscalationRaised(sessionId uuid.UUID, category string)
	RatingSubmitted(sessionId uuid.UUID, rating int)
	AnalyticsFlushed(sessionId uuid.UUID, escalated bool, avgResponseMs float64)
}

type telemetryService struct {
	publisher message.Publisher
	logger    logger.ILogger
}

func NewTelemetryService(publisher message.Publisher, log logger.ILogger) ITelemetryService {
	return &telemetryService{
		publisher: publisher,
		logger:    log,
	}
}

func (s *telemetryService) publish(event events.BaseEvent) {
	payload, err := json.Marshal(map[string]interface{}{
		"type":        event.EventType(),
		"data":        event.Payload(),
		"occurred_at": event.Timestamp(),
	})
	if err != nil {
		s.logger.Error("Telemetry", "Failed to marshal event", map[string]interface{}{"error": err.Error()})
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := s.publisher.Publish(TelemetryTopic, msg); err != nil {
		s.logger.Warn("Telemetry", "Failed to publish event", map[string]interface{}{
			"type":  event.EventType(),
			"error": err.Error(),
		})
	}
}

func (s *telemetryService) MessageHandled(sessionId uuid.UUID, latency time.Duration, fallback, cached bool) {
	s.publish(events.New(events.TypeMessageHandled, map[string]interface{}{
		"session_id": sessionId.String(),
		"latency_ms": latency.Milliseconds(),
		"fallback":   fallback,
		"cached":     cached,
	}))
}

func (s *telemetryService) MessageFailed(sessionId uuid.UUID, reason string) {
	s.publish(events.New(events.TypeMessageFailed, map[string]interface{}{
		"session_id": sessionId.String(),
		"reason":     reason,
	}))
}

func (s *telemetryService) EscalationRaised(sessionId uuid.UUID, category string) {
	s.publish(events.New(events.TypeChatEscalated, map[string]interface{}{
		"session_id": sessionId.String(),
		"category":   category,
	}))
}

func (s *telemetryService) RatingSubmitted(sessionId uuid.UUID, rating int) {
	s.publish(events.New(events.TypeRatingSubmitted, map[string]interface{}{
		"session_id": sessionId.String(),
		"rating":     rating,
	}))
}

func (s *telemetryService) AnalyticsFlushed(sessionId uuid.UUID, escalated bool, avgResponseMs float64) {
	s.publish(events.New(events.TypeAnalyticsFlushed, map[string]interface{}{
		"session_id":      sessionId.String(),
		"escalated":       escalated,
		"avg_response_ms": avgResponseMs,
	}))
}
