package memory

import (
	"time"

	"market-assist-be/internal/entity"

	"github.com/patrickmn/go-cache"
)

// SessionCache is the in-process read-through cache in front of the session
// store. It is never authoritative: every mutation path must Delete the entry
// before returning so reads after a write hit the store.
type SessionCache struct {
	cache *cache.Cache
}

func NewSessionCache(ttl time.Duration) *SessionCache {
	c := cache.New(ttl, 10*time.Minute)
	return &SessionCache{
		cache: c,
	}
}

// Save stores a snapshot. The caller keeps mutating its own copy; the cached
// one is frozen until invalidated.
func (r *SessionCache) Save(session *entity.ChatSession) {
	r.cache.Set(session.Id.String(), session.Clone(), cache.DefaultExpiration)
}

// Get hands out an independent copy. Two connections reading the same session
// must never share one struct: a shared Context map is a concurrent-write
// panic waiting for a second tab.
func (r *SessionCache) Get(sessionID string) (*entity.ChatSession, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*entity.ChatSession).Clone(), true
	}
	return nil, false
}

func (r *SessionCache) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}
