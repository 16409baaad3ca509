package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"market-assist-be/internal/config"
	"market-assist-be/internal/pkg/logger"
	"market-assist-be/internal/pkg/mailer"
	"market-assist-be/pkg/events"
	pktNats "market-assist-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
)

// alertCooldown keeps a breached threshold from paging every few seconds.
const alertCooldown = 15 * time.Minute

// IAlertService consumes telemetry and raises operational alerts when
// thresholds are breached.
type IAlertService interface {
	Consume(ctx context.Context) error
}

type alertService struct {
	subscriber message.Subscriber
	mailer     mailer.IAlertMailer
	natsPub    *pktNats.Publisher
	cfg        config.AlertConfig
	logger     logger.ILogger

	mu         sync.Mutex
	handled    []messageOutcome // rolling window, newest last
	escalated  int
	lastAlert  map[string]time.Time
	ratingSum  int
	ratingSeen int
}

type messageOutcome struct {
	failed    bool
	fallback  bool
	latencyMs int64
	escalated bool
}

func NewAlertService(
	subscriber message.Subscriber,
	alertMailer mailer.IAlertMailer,
	natsPub *pktNats.Publisher,
	cfg config.AlertConfig,
	log logger.ILogger,
) IAlertService {
	return &alertService{
		subscriber: subscriber,
		mailer:     alertMailer,
		natsPub:    natsPub,
		cfg:        cfg,
		logger:     log,
		lastAlert:  make(map[string]time.Time),
	}
}

func (s *alertService) Consume(ctx context.Context) error {
	messages, err := s.subscriber.Subscribe(ctx, TelemetryTopic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			s.processMessage(ctx, msg)
		}
	}()

	return nil
}

type telemetryEnvelope struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

func (s *alertService) processMessage(ctx context.Context, msg *message.Message) {
	var envelope telemetryEnvelope
	if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
		s.logger.Warn("Alerts", "Failed to unmarshal telemetry event", map[string]interface{}{"error": err.Error()})
		msg.Ack()
		return
	}

	switch envelope.Type {
	case events.TypeMessageHandled:
		latency, _ := envelope.Data["latency_ms"].(float64)
		fallback, _ := envelope.Data["fallback"].(bool)
		s.record(messageOutcome{fallback: fallback, latencyMs: int64(latency)})
	case events.TypeMessageFailed:
		s.record(messageOutcome{failed: true})
	case events.TypeChatEscalated:
		s.record(messageOutcome{escalated: true})
	case events.TypeRatingSubmitted:
		if rating, ok := envelope.Data["rating"].(float64); ok {
			s.recordRating(int(rating))
		}
	}

	s.evaluate(ctx)
	msg.Ack()
}

func (s *alertService) record(outcome messageOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.handled = append(s.handled, outcome)
	if len(s.handled) > s.cfg.EvaluationWindowSize {
		dropped := s.handled[0]
		s.handled = s.handled[1:]
		if dropped.escalated {
			s.escalated--
		}
	}
	if outcome.escalated {
		s.escalated++
	}
}

func (s *alertService) recordRating(rating int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ratingSum += rating
	s.ratingSeen++
}

func (s *alertService) evaluate(ctx context.Context) {
	s.mu.Lock()
	window := len(s.handled)
	if window < s.cfg.EvaluationWindowSize {
		s.mu.Unlock()
		return
	}

	var failed, latencySum int64
	var latencySamples int64
	for _, o := range s.handled {
		if o.failed || o.fallback {
			failed++
		}
		if o.latencyMs > 0 {
			latencySum += o.latencyMs
			latencySamples++
		}
	}
	escalated := s.escalated
	ratingAvg := float64(0)
	if s.ratingSeen > 0 {
		ratingAvg = float64(s.ratingSum) / float64(s.ratingSeen)
	}
	ratingSeen := s.ratingSeen
	s.mu.Unlock()

	errorRate := float64(failed) / float64(window)
	if errorRate > s.cfg.ErrorRateThreshold {
		s.raise(ctx, "error_rate", mailer.SeverityCritical,
			fmt.Sprintf("Assistant error/fallback rate is %.0f%% over the last %d messages.", errorRate*100, window))
	}

	if latencySamples > 0 {
		avgLatency := latencySum / latencySamples
		if avgLatency > int64(s.cfg.LatencyThresholdMs) {
			s.raise(ctx, "latency", mailer.SeverityWarning,
				fmt.Sprintf("Mean assistant response time is %dms over the last %d messages.", avgLatency, window))
		}
	}

	escalationRate := float64(escalated) / float64(window)
	if escalationRate > s.cfg.EscalationRateLimit {
		s.raise(ctx, "escalation_rate", mailer.SeverityWarning,
			fmt.Sprintf("%.0f%% of recent conversations escalated to human support.", escalationRate*100))
	}

	if ratingSeen >= 5 && ratingAvg < s.cfg.SatisfactionMinimum {
		s.raise(ctx, "satisfaction", mailer.SeverityWarning,
			fmt.Sprintf("Average satisfaction rating dropped to %.1f.", ratingAvg))
	}
}

func (s *alertService) raise(ctx context.Context, alertType, severity, body string) {
	s.mu.Lock()
	if last, ok := s.lastAlert[alertType]; ok && time.Since(last) < alertCooldown {
		s.mu.Unlock()
		return
	}
	s.lastAlert[alertType] = time.Now()
	s.mu.Unlock()

	subject := fmt.Sprintf("Assistant alert: %s", alertType)
	s.logger.Warn("Alerts", subject, map[string]interface{}{"body": body, "severity": severity})

	if err := s.mailer.Notify(subject, body, severity); err != nil {
		s.logger.Error("Alerts", "Failed to send alert email", map[string]interface{}{"error": err.Error()})
	}

	if s.natsPub != nil {
		event := events.New("ALERT_RAISED", map[string]interface{}{
			"alert_type": alertType,
			"severity":   severity,
			"body":       body,
		})
		if err := s.natsPub.Publish(ctx, event); err != nil {
			s.logger.Warn("Alerts", "Failed to publish alert to NATS", map[string]interface{}{"error": err.Error()})
		}
	}
}
