package websocket

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHubClient(sessionId uuid.UUID, connectionId string) *Client {
	return &Client{
		ConnectionId: connectionId,
		SessionId:    sessionId,
		Send:         make(chan []byte, 4),
	}
}

func TestClusterFrameFromThisInstanceIsDropped(t *testing.T) {
	hub := NewHub(nil, nopLogger{})
	sessionId := uuid.New()
	secondTab := newHubClient(sessionId, "conn-b")
	hub.clients[sessionId] = []*Client{secondTab}

	frame := clusterFrame{
		TargetSessionID: sessionId.String(),
		OriginHub:       hub.id,
		Origin:          "conn-a",
		Message:         []byte(`{"type":"typing_indicator","sender":"user","is_typing":true}`),
	}

	// RelayToSession already handed this frame to every local tab; the
	// subscriber echo must not deliver it a second time.
	hub.deliverClusterFrame(frame)
	assert.Len(t, secondTab.Send, 0)

	frame.OriginHub = "sibling-instance"
	hub.deliverClusterFrame(frame)
	require.Len(t, secondTab.Send, 1)
}

func TestClusterFrameSkipsOriginConnection(t *testing.T) {
	hub := NewHub(nil, nopLogger{})
	sessionId := uuid.New()
	origin := newHubClient(sessionId, "conn-a")
	other := newHubClient(sessionId, "conn-b")
	hub.clients[sessionId] = []*Client{origin, other}

	hub.deliverClusterFrame(clusterFrame{
		TargetSessionID: sessionId.String(),
		OriginHub:       "sibling-instance",
		Origin:          "conn-a",
		Message:         []byte(`{"type":"session_closed"}`),
	})

	assert.Len(t, origin.Send, 0)
	require.Len(t, other.Send, 1)
}

func TestRelayToSessionExcludesSender(t *testing.T) {
	hub := NewHub(nil, nopLogger{})
	sessionId := uuid.New()
	sender := newHubClient(sessionId, "conn-a")
	other := newHubClient(sessionId, "conn-b")
	hub.clients[sessionId] = []*Client{sender, other}

	hub.RelayToSession(sessionId, []byte(`{"type":"typing_indicator"}`), sender)

	assert.Len(t, sender.Send, 0)
	require.Len(t, other.Send, 1)
}
