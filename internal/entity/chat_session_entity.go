package entity

import (
	"time"

	"github.com/google/uuid"
)

// ChatSession is one logical multi-turn conversation. Once closed it is never
// reopened; a reconnecting client that wants a fresh conversation gets a new id.
type ChatSession struct {
	Id                 uuid.UUID
	Owner              Owner
	Context            map[string]interface{}
	SatisfactionRating *int
	Feedback           string
	Active             bool
	CreatedAt          time.Time
	UpdatedAt          *time.Time
	ClosedAt           *time.Time
}

// Clone returns an independent copy. The context map and pointer fields are
// duplicated, so a caller can mutate the clone while another connection holds
// the original.
func (s *ChatSession) Clone() *ChatSession {
	clone := *s
	if s.Context != nil {
		clone.Context = make(map[string]interface{}, len(s.Context))
		for k, v := range s.Context {
			clone.Context[k] = v
		}
	}
	if s.SatisfactionRating != nil {
		rating := *s.SatisfactionRating
		clone.SatisfactionRating = &rating
	}
	if s.UpdatedAt != nil {
		updated := *s.UpdatedAt
		clone.UpdatedAt = &updated
	}
	if s.ClosedAt != nil {
		closed := *s.ClosedAt
		clone.ClosedAt = &closed
	}
	return &clone
}

// MergeContext applies a shallow merge, new keys win. Never replaces the map
// wholesale so concurrent connections at worst interleave writes.
func (s *ChatSession) MergeContext(patch map[string]interface{}) {
	if len(patch) == 0 {
		return
	}
	if s.Context == nil {
		s.Context = make(map[string]interface{}, len(patch))
	}
	for k, v := range patch {
		s.Context[k] = v
	}
}

// Category reads the user category out of the session context ("cliente" when absent).
func (s *ChatSession) Category() string {
	if s.Context != nil {
		if v, ok := s.Context["user_category"].(string); ok && v != "" {
			return v
		}
	}
	return "cliente"
}

// CurrentPage reads the page the user is browsing, if the client reported one.
func (s *ChatSession) CurrentPage() string {
	if s.Context != nil {
		if v, ok := s.Context["current_page"].(string); ok {
			return v
		}
	}
	return ""
}
