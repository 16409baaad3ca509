package memory

import (
	"testing"
	"time"

	"market-assist-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetReturnsIndependentCopies(t *testing.T) {
	c := NewSessionCache(time.Minute)
	session := &entity.ChatSession{
		Id:      uuid.New(),
		Context: map[string]interface{}{"user_category": "cliente"},
		Active:  true,
	}
	c.Save(session)

	first, found := c.Get(session.Id.String())
	require.True(t, found)
	second, found := c.Get(session.Id.String())
	require.True(t, found)

	require.NotSame(t, first, second, "two readers must not share one struct")

	// Mutating one reader's copy leaks into neither the other copy nor the
	// cached snapshot.
	first.Context["page"] = "/servicos"
	assert.NotContains(t, second.Context, "page")

	third, found := c.Get(session.Id.String())
	require.True(t, found)
	assert.NotContains(t, third.Context, "page")
}

func TestSaveSnapshotsTheSession(t *testing.T) {
	c := NewSessionCache(time.Minute)
	session := &entity.ChatSession{
		Id:      uuid.New(),
		Context: map[string]interface{}{"user_category": "prestador"},
		Active:  true,
	}
	c.Save(session)

	// The caller keeps mutating its own struct after Save; the cache holds the
	// state as of the Save call.
	session.Context["user_category"] = "cliente"

	cached, found := c.Get(session.Id.String())
	require.True(t, found)
	assert.Equal(t, "prestador", cached.Context["user_category"])
}
