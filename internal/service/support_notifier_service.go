package service

import (
	"context"
	"fmt"

	"market-assist-be/internal/pkg/logger"
	"market-assist-be/internal/pkg/mailer"
	"market-assist-be/pkg/events"
	pktNats "market-assist-be/pkg/nats"
)

// SupportNotifierService listens for escalation events on the NATS bus and
// forwards them to the support team. Escalations fan out over NATS so the
// notifier also picks up events raised by other instances.
type SupportNotifierService struct {
	subscriber *pktNats.Subscriber
	mailer     mailer.IAlertMailer
	logger     logger.ILogger
}

func NewSupportNotifierService(sub *pktNats.Subscriber, alertMailer mailer.IAlertMailer, log logger.ILogger) *SupportNotifierService {
	return &SupportNotifierService{
		subscriber: sub,
		mailer:     alertMailer,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (s *SupportNotifierService) Start() {
	err := s.subscriber.Subscribe("events."+events.TypeChatEscalated, "support-notifier", s.handleEvent)
	if err != nil {
		s.logger.Error("SupportNotifier", "Failed to start escalation subscriber", map[string]interface{}{"error": err})
		return
	}
	s.logger.Info("SupportNotifier", "Support notifier started, listening for escalations", nil)
}

func (s *SupportNotifierService) handleEvent(ctx context.Context, event events.Event) error {
	payload := event.Payload()
	sessionId, _ := payload["session_id"].(string)
	category, _ := payload["category"].(string)
	excerpt, _ := payload["excerpt"].(string)

	s.logger.Info("SupportNotifier", "Escalation received", map[string]interface{}{
		"session_id": sessionId,
		"category":   category,
	})

	body := fmt.Sprintf(
		"A conversation was escalated to human support.<br>Session: %s<br>Category: %s<br>Last message: %q",
		sessionId, category, excerpt,
	)

	if err := s.mailer.Notify("Conversa escalada para atendimento humano", body, mailer.SeverityInfo); err != nil {
		s.logger.Warn("SupportNotifier", "Failed to email support about escalation", map[string]interface{}{"error": err.Error()})
	}

	// Mail failures should not requeue the event forever.
	return nil
}
