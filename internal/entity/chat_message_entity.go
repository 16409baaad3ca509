package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SenderKind is the closed set of message authors.
type SenderKind string

const (
	SenderUser      SenderKind = "user"
	SenderAssistant SenderKind = "assistant"
	SenderSystem    SenderKind = "system"
)

// ParseSenderKind rejects unknown senders at construction instead of letting
// arbitrary strings reach the store.
func ParseSenderKind(s string) (SenderKind, error) {
	switch SenderKind(s) {
	case SenderUser, SenderAssistant, SenderSystem:
		return SenderKind(s), nil
	}
	return "", fmt.Errorf("unknown sender kind %q", s)
}

// ChatMessage is immutable once persisted.
type ChatMessage struct {
	Id               uuid.UUID
	ChatSessionId    uuid.UUID
	Sender           SenderKind
	Content          string
	Metadata         map[string]interface{}
	Cached           bool
	ProcessingTimeMs int64
	CreatedAt        time.Time
}
