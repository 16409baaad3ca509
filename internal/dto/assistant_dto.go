package dto

import (
	"time"

	"github.com/google/uuid"
)

// Inbound event types accepted over the assistant websocket.
const (
	EventSessionInit        = "session_init"
	EventMessage            = "message"
	EventTyping             = "typing"
	EventSatisfactionRating = "satisfaction_rating"
	EventSessionClose       = "session_close"
)

// Outbound event types emitted over the assistant websocket.
const (
	EventConnectionEstablished   = "connection_established"
	EventSessionInitialized      = "session_initialized"
	EventAssistantMessage        = "message"
	EventTypingIndicator         = "typing_indicator"
	EventEscalation              = "escalation"
	EventRateLimitError          = "rate_limit_error"
	EventSatisfactionRatingSaved = "satisfaction_rating_saved"
	EventSessionClosed           = "session_closed"
	EventError                   = "error"
)

// Every frame is a flat JSON object discriminated by its "type" field; there
// is no envelope. FrameHead reads just the discriminator so the dispatcher can
// pick the concrete event struct for a second unmarshal of the same bytes.
type FrameHead struct {
	Type string `json:"type"`
}

// --- Inbound events ---

type SessionInitEvent struct {
	SessionId *uuid.UUID             `json:"session_id,omitempty"`
	Context   map[string]interface{} `json:"context,omitempty"`
}

type MessageEvent struct {
	Content string `json:"content"`
}

type TypingEvent struct {
	IsTyping bool `json:"is_typing"`
}

type SatisfactionRatingEvent struct {
	Rating   int    `json:"rating" validate:"required,min=1,max=5"`
	Feedback string `json:"feedback,omitempty" validate:"max=2000"`
}

// --- Outbound events ---

// OutboundEvent is implemented by every server frame.
type OutboundEvent interface {
	EventType() string
}

// eventBase embeds the discriminator; constructors below fill it in so no
// frame ever leaves without a type.
type eventBase struct {
	Type string `json:"type"`
}

func (b eventBase) EventType() string { return b.Type }

type ConnectionEstablishedEvent struct {
	eventBase
	Message      string `json:"message"`
	ConnectionId string `json:"connection_id"`
}

func NewConnectionEstablishedEvent(message, connectionId string) ConnectionEstablishedEvent {
	return ConnectionEstablishedEvent{
		eventBase:    eventBase{Type: EventConnectionEstablished},
		Message:      message,
		ConnectionId: connectionId,
	}
}

type HistoryEntry struct {
	MessageId uuid.UUID `json:"message_id"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type SessionInitializedEvent struct {
	eventBase
	SessionId uuid.UUID      `json:"session_id"`
	Resumed   bool           `json:"resumed"`
	History   []HistoryEntry `json:"history"`
}

func NewSessionInitializedEvent(sessionId uuid.UUID, resumed bool, history []HistoryEntry) SessionInitializedEvent {
	if history == nil {
		history = []HistoryEntry{}
	}
	return SessionInitializedEvent{
		eventBase: eventBase{Type: EventSessionInitialized},
		SessionId: sessionId,
		Resumed:   resumed,
		History:   history,
	}
}

type AssistantMessageEvent struct {
	eventBase
	MessageId uuid.UUID `json:"message_id"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Intent    string    `json:"intent,omitempty"`
	Cached    bool      `json:"cached"`
	Timestamp time.Time `json:"timestamp"`
}

func NewAssistantMessageEvent(messageId uuid.UUID, sender, content, intent string, cached bool, timestamp time.Time) AssistantMessageEvent {
	return AssistantMessageEvent{
		eventBase: eventBase{Type: EventAssistantMessage},
		MessageId: messageId,
		Sender:    sender,
		Content:   content,
		Intent:    intent,
		Cached:    cached,
		Timestamp: timestamp,
	}
}

type TypingIndicatorEvent struct {
	eventBase
	Sender   string `json:"sender"`
	IsTyping bool   `json:"is_typing"`
}

func NewTypingIndicatorEvent(sender string, isTyping bool) TypingIndicatorEvent {
	return TypingIndicatorEvent{
		eventBase: eventBase{Type: EventTypingIndicator},
		Sender:    sender,
		IsTyping:  isTyping,
	}
}

type EscalationEvent struct {
	eventBase
	Message     string   `json:"message"`
	Category    string   `json:"category"`
	Actions     []string `json:"actions"`
	ContactInfo string   `json:"contact_info"`
}

func NewEscalationEvent(message, category string, actions []string, contactInfo string) EscalationEvent {
	return EscalationEvent{
		eventBase:   eventBase{Type: EventEscalation},
		Message:     message,
		Category:    category,
		Actions:     actions,
		ContactInfo: contactInfo,
	}
}

type RateLimitErrorEvent struct {
	eventBase
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"` // seconds
}

func NewRateLimitErrorEvent(message string, retryAfter int) RateLimitErrorEvent {
	return RateLimitErrorEvent{
		eventBase:  eventBase{Type: EventRateLimitError},
		Message:    message,
		RetryAfter: retryAfter,
	}
}

type SatisfactionRatingSavedEvent struct {
	eventBase
	SessionId uuid.UUID `json:"session_id"`
	Rating    int       `json:"rating"`
}

func NewSatisfactionRatingSavedEvent(sessionId uuid.UUID, rating int) SatisfactionRatingSavedEvent {
	return SatisfactionRatingSavedEvent{
		eventBase: eventBase{Type: EventSatisfactionRatingSaved},
		SessionId: sessionId,
		Rating:    rating,
	}
}

type SessionClosedEvent struct {
	eventBase
	SessionId uuid.UUID `json:"session_id"`
}

func NewSessionClosedEvent(sessionId uuid.UUID) SessionClosedEvent {
	return SessionClosedEvent{
		eventBase: eventBase{Type: EventSessionClosed},
		SessionId: sessionId,
	}
}

type ErrorEvent struct {
	eventBase
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewErrorEvent(code, message string) ErrorEvent {
	return ErrorEvent{
		eventBase: eventBase{Type: EventError},
		Code:      code,
		Message:   message,
	}
}
