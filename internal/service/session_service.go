package service

import (
	"context"
	"fmt"
	"time"

	"market-assist-be/internal/entity"
	"market-assist-be/internal/pkg/logger"
	"market-assist-be/internal/repository/contract"
	"market-assist-be/internal/repository/memory"
	"market-assist-be/internal/repository/specification"

	"github.com/google/uuid"
)

// SessionError reports a missing, closed or expired session.
type SessionError struct {
	SessionId uuid.UUID
	Reason    string
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("session %s: %s", e.SessionId, e.Reason)
}

// ISessionService manages conversation session lifecycle. Reads go through the
// in-process cache; every mutation invalidates the cached entry before
// returning, so a read after a write always sees the store.
type ISessionService interface {
	Create(ctx context.Context, owner entity.Owner, context map[string]interface{}) (*entity.ChatSession, error)
	Get(ctx context.Context, sessionId uuid.UUID) (*entity.ChatSession, error)
	GetOrCreate(ctx context.Context, owner entity.Owner, sessionId *uuid.UUID, context map[string]interface{}) (*entity.ChatSession, bool, error)
	UpdateContext(ctx context.Context, session *entity.ChatSession, patch map[string]interface{}) error
	SetSatisfaction(ctx context.Context, sessionId uuid.UUID, rating int, feedback string) error
	Touch(ctx context.Context, sessionId uuid.UUID) error
	Close(ctx context.Context, sessionId uuid.UUID) error
	ListActive(ctx context.Context, owner entity.Owner) ([]*entity.ChatSession, error)
	ReapStale(ctx context.Context, olderThan time.Duration) (int, error)
}

type sessionService struct {
	sessions contract.ChatSessionRepository
	cache    *memory.SessionCache
	logger   logger.ILogger
}

func NewSessionService(
	sessions contract.ChatSessionRepository,
	cache *memory.SessionCache,
	log logger.ILogger,
) ISessionService {
	return &sessionService{
		sessions: sessions,
		cache:    cache,
		logger:   log,
	}
}

func (s *sessionService) Create(ctx context.Context, owner entity.Owner, sessionContext map[string]interface{}) (*entity.ChatSession, error) {
	if sessionContext == nil {
		sessionContext = map[string]interface{}{}
	}
	session := &entity.ChatSession{
		Id:        uuid.New(),
		Owner:     owner,
		Context:   sessionContext,
		Active:    true,
		CreatedAt: time.Now(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	s.cache.Save(session)
	return session, nil
}

// Get returns the session only while it is active.
func (s *sessionService) Get(ctx context.Context, sessionId uuid.UUID) (*entity.ChatSession, error) {
	if cached, found := s.cache.Get(sessionId.String()); found {
		if !cached.Active {
			return nil, &SessionError{SessionId: sessionId, Reason: "closed"}
		}
		return cached, nil
	}

	session, err := s.sessions.FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, &SessionError{SessionId: sessionId, Reason: "not found"}
	}
	if !session.Active {
		return nil, &SessionError{SessionId: sessionId, Reason: "closed"}
	}

	s.cache.Save(session)
	return session, nil
}

// GetOrCreate resolves the requested session or transparently creates a fresh
// one when it is missing or closed. The bool reports whether a new session was
// created. Context is merged either way.
func (s *sessionService) GetOrCreate(ctx context.Context, owner entity.Owner, sessionId *uuid.UUID, patch map[string]interface{}) (*entity.ChatSession, bool, error) {
	if sessionId != nil {
		session, err := s.Get(ctx, *sessionId)
		if err == nil {
			if len(patch) > 0 {
				if err := s.UpdateContext(ctx, session, patch); err != nil {
					return nil, false, err
				}
			}
			return session, false, nil
		}
		if _, recoverable := err.(*SessionError); !recoverable {
			return nil, false, err
		}
		s.logger.Info("Session", "Requested session unavailable, creating fresh one", map[string]interface{}{
			"requested_id": sessionId.String(),
		})
	}

	session, err := s.Create(ctx, owner, patch)
	if err != nil {
		return nil, false, err
	}
	return session, true, nil
}

func (s *sessionService) UpdateContext(ctx context.Context, session *entity.ChatSession, patch map[string]interface{}) error {
	session.MergeContext(patch)
	now := time.Now()
	session.UpdatedAt = &now

	s.cache.Delete(session.Id.String())
	return s.sessions.Update(ctx, session)
}

func (s *sessionService) SetSatisfaction(ctx context.Context, sessionId uuid.UUID, rating int, feedback string) error {
	session, err := s.Get(ctx, sessionId)
	if err != nil {
		return err
	}
	session.SatisfactionRating = &rating
	session.Feedback = feedback
	now := time.Now()
	session.UpdatedAt = &now

	s.cache.Delete(sessionId.String())
	return s.sessions.Update(ctx, session)
}

// Touch bumps the session's activity clock so the reaper leaves it alone.
func (s *sessionService) Touch(ctx context.Context, sessionId uuid.UUID) error {
	session, err := s.Get(ctx, sessionId)
	if err != nil {
		return err
	}
	now := time.Now()
	session.UpdatedAt = &now

	s.cache.Delete(sessionId.String())
	return s.sessions.Update(ctx, session)
}

// Close marks the session inactive. Closed sessions never reopen; active only
// ever transitions true to false.
func (s *sessionService) Close(ctx context.Context, sessionId uuid.UUID) error {
	session, err := s.Get(ctx, sessionId)
	if err != nil {
		return err
	}
	now := time.Now()
	session.Active = false
	session.ClosedAt = &now
	session.UpdatedAt = &now

	s.cache.Delete(sessionId.String())
	return s.sessions.Update(ctx, session)
}

func (s *sessionService) ListActive(ctx context.Context, owner entity.Owner) ([]*entity.ChatSession, error) {
	specs := []specification.Specification{
		specification.ActiveOnly{},
		specification.OrderBy{Field: "created_at", Desc: true},
	}
	if userId, ok := owner.UserId(); ok {
		specs = append(specs, specification.OwnedByUser{UserID: userId})
	} else if anonId, ok := owner.AnonymousId(); ok {
		specs = append(specs, specification.OwnedByAnonymous{AnonymousID: anonId})
	}
	return s.sessions.FindAll(ctx, specs...)
}

// ReapStale closes sessions idle past the threshold and drops their cache
// entries. Runs from the periodic background job, not per request.
func (s *sessionService) ReapStale(ctx context.Context, olderThan time.Duration) (int, error) {
	now := time.Now()
	cutoff := now.Add(-olderThan)

	ids, err := s.sessions.MarkInactiveBefore(ctx, cutoff, now)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		s.cache.Delete(id.String())
	}
	return len(ids), nil
}
