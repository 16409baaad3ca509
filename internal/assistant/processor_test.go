package assistant

import (
	"context"
	"errors"
	"testing"
	"time"

	"market-assist-be/internal/entity"
	"market-assist-be/pkg/cache"
	"market-assist-be/pkg/llm"

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

// fakeProvider scripts the generation backend.
type fakeProvider struct {
	reply string
	err   error
	calls int
}

func (f *fakeProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}})
}

func newTestSession() *entity.ChatSession {
	return &entity.ChatSession{
		Id:      uuid.New(),
		Owner:   entity.NewAnonymousOwner("anon-test"),
		Context: map[string]interface{}{},
		Active:  true,
	}
}

func TestProcessCachesGeneratedReply(t *testing.T) {
	provider := &fakeProvider{reply: "Você encontra eletricistas na categoria Reformas."}
	cacheSvc := cache.NewMemoryService()
	p := NewResponseProcessor(provider, cacheSvc, time.Hour, time.Second, nopLogger{})
	session := newTestSession()

	first := p.Process(context.Background(), session, "Preciso de um eletricista", nil)
	require.Equal(t, provider.reply, first.Reply)
	assert.False(t, first.Cached)
	assert.False(t, first.Fallback)
	assert.Equal(t, IntentService, first.Intent)
	assert.Equal(t, 1, provider.calls)

	// Same normalized text must hit the cache without touching the provider.
	second := p.Process(context.Background(), session, "  preciso   de um ELETRICISTA  ", nil)
	assert.Equal(t, provider.reply, second.Reply)
	assert.True(t, second.Cached)
	assert.Equal(t, 1, provider.calls)
}

func TestProcessFallbackOnFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "timeout", err: &llm.TimeoutError{Err: context.DeadlineExceeded}},
		{name: "transport", err: &llm.TransportError{Err: errors.New("connection refused")}},
		{name: "quota", err: &llm.QuotaError{StatusCode: 429}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeProvider{err: tt.err}
			cacheSvc := cache.NewMemoryService()
			p := NewResponseProcessor(provider, cacheSvc, time.Hour, time.Second, nopLogger{})
			session := newTestSession()
			text := "Preciso de um encanador"

			res := p.Process(context.Background(), session, text, nil)
			require.NotEmpty(t, res.Reply)
			assert.True(t, res.Fallback)
			assert.False(t, res.Cached)
			assert.Equal(t, FallbackReply(IntentService), res.Reply)

			// Fallbacks never earn a cache slot.
			_, found, err := cacheSvc.Get(context.Background(), Fingerprint(text, session.Category()))
			require.NoError(t, err)
			assert.False(t, found)
		})
	}
}

func TestProcessCacheErrorIsAMiss(t *testing.T) {
	provider := &fakeProvider{reply: "resposta gerada"}
	p := NewResponseProcessor(provider, brokenCache{}, time.Hour, time.Second, nopLogger{})

	res := p.Process(context.Background(), newTestSession(), "onde encontro meus pedidos?", nil)
	assert.Equal(t, "resposta gerada", res.Reply)
	assert.False(t, res.Cached)
	assert.Equal(t, 1, provider.calls)
}

func TestFingerprintNormalization(t *testing.T) {
	a := Fingerprint("Preciso de um  ELETRICISTA ", "cliente")
	b := Fingerprint("preciso de um eletricista", "cliente")
	assert.Equal(t, a, b)

	// Different categories never share a slot.
	c := Fingerprint("preciso de um eletricista", "prestador")
	assert.NotEqual(t, a, c)
}

// brokenCache fails every operation.
type brokenCache struct{}

var errCacheDown = errors.New("cache down")

func (brokenCache) Get(context.Context, string) (string, bool, error) { return "", false, errCacheDown }
func (brokenCache) Set(context.Context, string, string, time.Duration) error {
	return errCacheDown
}
func (brokenCache) Delete(context.Context, string) error { return errCacheDown }
func (brokenCache) Increment(context.Context, string, time.Duration) (int64, error) {
	return 0, errCacheDown
}
func (brokenCache) TTL(context.Context, string) (time.Duration, bool, error) {
	return 0, false, errCacheDown
}
