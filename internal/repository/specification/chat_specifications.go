package specification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByChatSessionID struct {
	ChatSessionID uuid.UUID
}

func (s ByChatSessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chat_session_id = ?", s.ChatSessionID)
}

// ActiveOnly keeps sessions that have not been closed.
type ActiveOnly struct{}

func (s ActiveOnly) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("active = ?", true)
}

// OwnedByUser filters sessions of an authenticated owner.
type OwnedByUser struct {
	UserID uuid.UUID
}

func (s OwnedByUser) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}

// OwnedByAnonymous filters sessions of an anonymous owner.
type OwnedByAnonymous struct {
	AnonymousID string
}

func (s OwnedByAnonymous) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("anonymous_id = ?", s.AnonymousID)
}

// InactiveSince keeps sessions whose last update is older than the cutoff.
type InactiveSince struct {
	Cutoff time.Time
}

func (s InactiveSince) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("updated_at < ?", s.Cutoff)
}
