package stream

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arena_ai/internal/combat"
)

func dialHub(t *testing.T) (*Hub, *websocket.Conn) {
	t.Helper()
	hub := NewHub(zerolog.Nop())
	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 10*time.Millisecond)
	return hub, conn
}

func TestHub_BroadcastReachesViewer(t *testing.T) {
	hub, conn := dialHub(t)

	snap := combat.Snapshot{Tick: 3, T: 0.15, Units: []combat.UnitSnapshot{{ID: "hero", Kind: "player", HP: 90}}}
	require.NoError(t, hub.Broadcast(snap))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	var got combat.Snapshot
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, snap, got)
}

func TestHub_DecodesPlayerInput(t *testing.T) {
	hub, conn := dialHub(t)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"chat"}`)))
	require.NoError(t, conn.WriteJSON(map[string]any{
		"type": "input", "move": []float64{1, 0}, "block": true, "aim": []float64{5, 6}, "press": []int{2},
	}))

	select {
	case in := <-hub.Inputs():
		assert.Equal(t, combat.Vec2{X: 1}, in.Move)
		assert.True(t, in.Block)
		assert.True(t, in.HasAim)
		assert.Equal(t, combat.Vec2{X: 5, Y: 6}, in.Aim)
		assert.Equal(t, []int{2}, in.Press)
	case <-time.After(time.Second):
		t.Fatal("no input decoded")
	}
}

func TestHub_DropsClosedViewer(t *testing.T) {
	hub, conn := dialHub(t)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, time.Second, 10*time.Millisecond)
	assert.NoError(t, hub.Broadcast(map[string]int{"tick": 1}))
}

func TestHub_CloseDisconnectsAll(t *testing.T) {
	hub, conn := dialHub(t)

	hub.Close()
	assert.Zero(t, hub.Clients())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}
