package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"market-assist-be/internal/entity"
	"market-assist-be/internal/repository/memory"
	"market-assist-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

// fakeSessionRepo keeps sessions in a map and interprets the specifications
// the service actually uses. Like the real store it is safe for concurrent
// callers and hands out independent rows.
type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*entity.ChatSession
	updates  int
	finds    int
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[uuid.UUID]*entity.ChatSession)}
}

func (f *fakeSessionRepo) Create(_ context.Context, session *entity.ChatSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[session.Id] = session.Clone()
	return nil
}

func (f *fakeSessionRepo) Update(_ context.Context, session *entity.ChatSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sessions[session.Id]; !ok {
		return errors.New("not found")
	}
	f.sessions[session.Id] = session.Clone()
	f.updates++
	return nil
}

func (f *fakeSessionRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finds++
	for _, spec := range specs {
		if byID, ok := spec.(specification.ByID); ok {
			if s, found := f.sessions[byID.ID]; found {
				return s.Clone(), nil
			}
			return nil, nil
		}
	}
	return nil, nil
}

func (f *fakeSessionRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.ChatSession
	for _, s := range f.sessions {
		if matches(s, specs) {
			out = append(out, s.Clone())
		}
	}
	return out, nil
}

func matches(s *entity.ChatSession, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch sp := spec.(type) {
		case specification.ActiveOnly:
			if !s.Active {
				return false
			}
		case specification.OwnedByUser:
			userId, ok := s.Owner.UserId()
			if !ok || userId != sp.UserID {
				return false
			}
		case specification.OwnedByAnonymous:
			anonId, ok := s.Owner.AnonymousId()
			if !ok || anonId != sp.AnonymousID {
				return false
			}
		}
	}
	return true
}

func (f *fakeSessionRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := f.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

func (f *fakeSessionRepo) MarkInactiveBefore(_ context.Context, cutoff time.Time, closedAt time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, s := range f.sessions {
		stamp := s.CreatedAt
		if s.UpdatedAt != nil {
			stamp = *s.UpdatedAt
		}
		if s.Active && stamp.Before(cutoff) {
			s.Active = false
			closed := closedAt
			s.ClosedAt = &closed
			ids = append(ids, s.Id)
		}
	}
	return ids, nil
}

func newTestService(repo *fakeSessionRepo) ISessionService {
	return NewSessionService(repo, memory.NewSessionCache(time.Minute), nopLogger{})
}

func TestGetOrCreateFreshSession(t *testing.T) {
	repo := newFakeSessionRepo()
	svc := newTestService(repo)
	owner := entity.NewAnonymousOwner("anon-1")

	session, created, err := svc.GetOrCreate(context.Background(), owner, nil, map[string]interface{}{"page": "/busca"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, session.Active)
	assert.Equal(t, "/busca", session.Context["page"])
}

func TestGetOrCreateResumesExisting(t *testing.T) {
	repo := newFakeSessionRepo()
	svc := newTestService(repo)
	owner := entity.NewAnonymousOwner("anon-1")

	first, _, err := svc.GetOrCreate(context.Background(), owner, nil, nil)
	require.NoError(t, err)

	second, created, err := svc.GetOrCreate(context.Background(), owner, &first.Id, nil)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.Id, second.Id)
}

func TestGetOrCreateRecoversFromClosedSession(t *testing.T) {
	repo := newFakeSessionRepo()
	svc := newTestService(repo)
	owner := entity.NewAnonymousOwner("anon-1")

	first, _, err := svc.GetOrCreate(context.Background(), owner, nil, nil)
	require.NoError(t, err)
	require.NoError(t, svc.Close(context.Background(), first.Id))

	second, created, err := svc.GetOrCreate(context.Background(), owner, &first.Id, nil)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.Id, second.Id)
}

func TestGetUnknownSession(t *testing.T) {
	svc := newTestService(newFakeSessionRepo())

	_, err := svc.Get(context.Background(), uuid.New())
	var sessionErr *SessionError
	require.ErrorAs(t, err, &sessionErr)
	assert.Equal(t, "not found", sessionErr.Reason)
}

func TestReadYourWrites(t *testing.T) {
	repo := newFakeSessionRepo()
	svc := newTestService(repo)
	owner := entity.NewAnonymousOwner("anon-1")

	session, err := svc.Create(context.Background(), owner, nil)
	require.NoError(t, err)

	rating := 4
	require.NoError(t, svc.SetSatisfaction(context.Background(), session.Id, rating, "bom atendimento"))

	// The mutation invalidated the cache, so this read reflects the store.
	reloaded, err := svc.Get(context.Background(), session.Id)
	require.NoError(t, err)
	require.NotNil(t, reloaded.SatisfactionRating)
	assert.Equal(t, rating, *reloaded.SatisfactionRating)
	assert.Equal(t, "bom atendimento", reloaded.Feedback)
}

func TestGetServesFromCache(t *testing.T) {
	repo := newFakeSessionRepo()
	svc := newTestService(repo)

	session, err := svc.Create(context.Background(), entity.NewAnonymousOwner("anon-1"), nil)
	require.NoError(t, err)

	before := repo.finds
	_, err = svc.Get(context.Background(), session.Id)
	require.NoError(t, err)
	assert.Equal(t, before, repo.finds, "cached read must not hit the store")
}

func TestGetReturnsIndependentSessions(t *testing.T) {
	repo := newFakeSessionRepo()
	svc := newTestService(repo)

	session, err := svc.Create(context.Background(), entity.NewAnonymousOwner("anon-1"), map[string]interface{}{"user_category": "cliente"})
	require.NoError(t, err)

	first, err := svc.Get(context.Background(), session.Id)
	require.NoError(t, err)
	second, err := svc.Get(context.Background(), session.Id)
	require.NoError(t, err)

	require.NotSame(t, first, second, "two connections must not share one session struct")

	// Each tab patching its own copy never writes the other's map; the store
	// settles on last-write-wins.
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s, err := svc.Get(context.Background(), session.Id)
			if err != nil {
				return
			}
			_ = svc.UpdateContext(context.Background(), s, map[string]interface{}{
				fmt.Sprintf("tab_%d", n): true,
			})
		}(i)
	}
	wg.Wait()

	reloaded, err := svc.Get(context.Background(), session.Id)
	require.NoError(t, err)
	assert.Equal(t, "cliente", reloaded.Context["user_category"])
}

func TestCloseIsTerminal(t *testing.T) {
	repo := newFakeSessionRepo()
	svc := newTestService(repo)

	session, err := svc.Create(context.Background(), entity.NewAnonymousOwner("anon-1"), nil)
	require.NoError(t, err)
	require.NoError(t, svc.Close(context.Background(), session.Id))

	_, err = svc.Get(context.Background(), session.Id)
	var sessionErr *SessionError
	require.ErrorAs(t, err, &sessionErr)
	assert.Equal(t, "closed", sessionErr.Reason)

	// Closing again fails the same way instead of reopening.
	err = svc.Close(context.Background(), session.Id)
	require.ErrorAs(t, err, &sessionErr)
}

func TestListActiveFiltersByOwner(t *testing.T) {
	repo := newFakeSessionRepo()
	svc := newTestService(repo)
	alice := entity.NewAuthenticatedOwner(uuid.New())
	visitor := entity.NewAnonymousOwner("anon-9")

	_, err := svc.Create(context.Background(), alice, nil)
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), visitor, nil)
	require.NoError(t, err)

	mine, err := svc.ListActive(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	userId, _ := mine[0].Owner.UserId()
	aliceId, _ := alice.UserId()
	assert.Equal(t, aliceId, userId)
}

func TestReapStale(t *testing.T) {
	repo := newFakeSessionRepo()
	svc := newTestService(repo)

	stale, err := svc.Create(context.Background(), entity.NewAnonymousOwner("anon-old"), nil)
	require.NoError(t, err)
	old := time.Now().Add(-48 * time.Hour)
	repo.sessions[stale.Id].CreatedAt = old
	repo.sessions[stale.Id].UpdatedAt = &old

	fresh, err := svc.Create(context.Background(), entity.NewAnonymousOwner("anon-new"), nil)
	require.NoError(t, err)

	reaped, err := svc.ReapStale(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, reaped)

	// The reaped session is also gone from the cache.
	_, err = svc.Get(context.Background(), stale.Id)
	var sessionErr *SessionError
	require.ErrorAs(t, err, &sessionErr)

	_, err = svc.Get(context.Background(), fresh.Id)
	assert.NoError(t, err)
}
