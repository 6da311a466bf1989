package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/ludo-game/game/board"
	"github.com/wricardo/ludo-game/game/engine"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub
}

// dial connects a client to sessionID through a test server.
func dial(t *testing.T, hub *Hub, sessionID string, initial *engine.GameState) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, r.URL.Query().Get("session"), initial)
	}))
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?session=" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return hub.ClientCount(sessionID) > 0 }, time.Second, 5*time.Millisecond)
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHubRegisterClient(t *testing.T) {
	hub := NewHub()
	client := &Client{hub: hub, sessionID: "AB12", send: make(chan []byte, 1)}

	hub.registerClient(client)
	assert.True(t, hub.sessions["ab12"][client])

	hub.unregisterClient(client)
	_, exists := hub.sessions["ab12"]
	assert.False(t, exists, "empty sessions are dropped")

	// A second unregister is a no-op.
	hub.unregisterClient(client)
}

func TestHubBroadcastOnlyReachesSession(t *testing.T) {
	hub := NewHub()
	mine := &Client{hub: hub, sessionID: "aaaa", send: make(chan []byte, 4)}
	other := &Client{hub: hub, sessionID: "bbbb", send: make(chan []byte, 4)}
	hub.registerClient(mine)
	hub.registerClient(other)

	hub.broadcastMessage(&Message{SessionID: "AAAA", Type: TypeStateUpdate})
	assert.Len(t, mine.send, 1)
	assert.Len(t, other.send, 0)
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub()
	slow := &Client{hub: hub, sessionID: "slow", send: make(chan []byte)}
	hub.registerClient(slow)

	hub.broadcastMessage(&Message{SessionID: "slow", Type: TypeStateUpdate})
	_, exists := hub.sessions["slow"]
	assert.False(t, exists)
}

func TestServeWS_InitialStateAndUpdates(t *testing.T) {
	hub := startHub(t)
	initial := engine.InitGameStateFromConfig(&engine.GameConfig{Name: "duel", Players: 2})
	conn := dial(t, hub, "live", initial)

	first := readMessage(t, conn)
	assert.Equal(t, TypeStateUpdate, first.Type)
	require.NotNil(t, first.GameState)
	assert.Equal(t, []board.Seat{board.P1, board.P2}, first.GameState.Roster)

	initial.DiceValue = 5
	hub.BroadcastToSession("live", initial)
	update := readMessage(t, conn)
	assert.Equal(t, "live", update.SessionID)
	assert.Equal(t, 5, update.GameState.DiceValue)
}

func TestNotifier_StreamsEngineEvents(t *testing.T) {
	hub := startHub(t)
	conn := dial(t, hub, "dice", nil)

	eng, err := engine.NewEngine(&engine.GameConfig{Name: "duel", Players: 2},
		engine.WithDice(engine.NewScriptedDice(3)),
		engine.WithNotifier(hub.Notifier("dice")))
	require.NoError(t, err)
	out := eng.Roll(context.Background())
	require.True(t, out.Accepted)

	var types []string
	for range out.Events {
		msg := readMessage(t, conn)
		require.Equal(t, TypeEvent, msg.Type)
		require.NotNil(t, msg.Event)
		types = append(types, msg.Event.Type)
	}
	assert.Equal(t, []string{engine.EventDiceDisabled, engine.EventDiceValueChanged}, types[:2])
}

func TestWebSocketDisconnectUnregisters(t *testing.T) {
	hub := startHub(t)
	conn := dial(t, hub, "bye", nil)
	assert.Equal(t, 1, hub.ClientCount("BYE"))

	conn.Close()
	assert.Eventually(t, func() bool { return hub.ClientCount("bye") == 0 }, time.Second, 5*time.Millisecond)
}

func TestHubStop(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}
	assert.Equal(t, 0, hub.ClientCount("any"))
}
