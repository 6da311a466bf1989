package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/ludo-game/game/board"
	"github.com/wricardo/ludo-game/game/config"
	"github.com/wricardo/ludo-game/game/engine"
	"github.com/wricardo/ludo-game/game/service"
	"github.com/wricardo/ludo-game/game/session"
	"github.com/wricardo/ludo-game/transport/websocket"
)

// MockGameService implements service.GameService for testing
type MockGameService struct {
	service.GameService

	GetSessionFunc     func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	ListSessionsFunc   func(ctx context.Context) ([]*service.SessionInfo, error)
	GetMoveHistoryFunc func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error)
	SelectPieceFunc    func(ctx context.Context, sessionID string, seat board.Seat, piece int) (*service.MoveResult, error)
	SaveConfigFunc     func(ctx context.Context, name string, cfg *engine.GameConfig) error
}

func (m *MockGameService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return nil, service.ErrSessionNotFound
}

func (m *MockGameService) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return []*service.SessionInfo{}, nil
}

func (m *MockGameService) GetMoveHistory(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
	return m.GetMoveHistoryFunc(ctx, sessionID, opts)
}

func (m *MockGameService) SelectPiece(ctx context.Context, sessionID string, seat board.Seat, piece int) (*service.MoveResult, error) {
	return m.SelectPieceFunc(ctx, sessionID, seat, piece)
}

func (m *MockGameService) SaveConfig(ctx context.Context, name string, cfg *engine.GameConfig) error {
	return m.SaveConfigFunc(ctx, name, cfg)
}

func makeRequest(method, path string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func do(t *testing.T, h http.Handler, method, path string, body any, target any) int {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, makeRequest(method, path, body))
	if target != nil {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), target), w.Body.String())
	}
	return w.Code
}

// newLiveServer wires the real service stack with scripted dice.
func newLiveServer(t *testing.T, hub *websocket.Hub, rolls ...int) *Server {
	t.Helper()
	configs, err := config.NewManager("../configs")
	require.NoError(t, err)

	var opts []session.ManagerOption
	opts = append(opts, session.WithEngineOptions(engine.WithStepDelay(0)))
	if len(rolls) > 0 {
		opts = append(opts, session.WithEngineOptions(engine.WithDice(engine.NewScriptedDice(rolls...))))
	}
	sessions := session.NewManager(opts...)

	var svcOpts []service.Option
	if hub != nil {
		svcOpts = append(svcOpts, service.WithNotifierFactory(hub.Notifier))
	}
	return NewServer(service.NewGameService(sessions, configs, svcOpts...), hub)
}

func createSession(t *testing.T, h http.Handler, configID string) *service.SessionInfo {
	t.Helper()
	var info service.SessionInfo
	code := do(t, h, "POST", "/api/sessions", map[string]string{"config_id": configID}, &info)
	require.Equal(t, http.StatusCreated, code)
	return &info
}

func TestCreateSession(t *testing.T) {
	srv := newLiveServer(t, nil)

	t.Run("named config", func(t *testing.T) {
		info := createSession(t, srv, "duel")
		assert.Len(t, info.ID, 4)
		assert.Equal(t, "duel", info.ConfigName)
		assert.Len(t, info.GameState.Roster, 2)
	})

	t.Run("empty body uses default", func(t *testing.T) {
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, httptest.NewRequest("POST", "/api/sessions", nil))
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"config_name":"classic"`)
	})

	t.Run("only config_id selects a config", func(t *testing.T) {
		var info service.SessionInfo
		code := do(t, srv, "POST", "/api/sessions", map[string]string{"config_name": "duel"}, &info)
		require.Equal(t, http.StatusCreated, code)
		assert.Equal(t, "classic", info.ConfigName)
	})

	t.Run("unknown config is 404", func(t *testing.T) {
		var body map[string]any
		code := do(t, srv, "POST", "/api/sessions", map[string]string{"config_id": "nope"}, &body)
		assert.Equal(t, http.StatusNotFound, code)
		assert.Contains(t, body["error"], "Available configs")
	})

	t.Run("malformed body is 400", func(t *testing.T) {
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, httptest.NewRequest("POST", "/api/sessions", strings.NewReader("{")))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGameFlow(t *testing.T) {
	srv := newLiveServer(t, nil, 6, 3)
	info := createSession(t, srv, "duel")
	base := "/api/sessions/" + info.ID

	var rolled service.MoveResult
	require.Equal(t, http.StatusOK, do(t, srv, "POST", base+"/roll", nil, &rolled))
	assert.True(t, rolled.Success)
	assert.Equal(t, []int{0, 1, 2, 3}, rolled.Eligible)

	var eligible service.EligibleInfo
	require.Equal(t, http.StatusOK, do(t, srv, "GET", base+"/eligible", nil, &eligible))
	assert.Len(t, eligible.Options, 4)

	var wrongSeat service.MoveResult
	require.Equal(t, http.StatusOK, do(t, srv, "POST", base+"/select", map[string]any{"seat": "P2", "piece": 0}, &wrongSeat))
	assert.False(t, wrongSeat.Success, "rule rejections are not HTTP errors")

	var moved service.MoveResult
	require.Equal(t, http.StatusOK, do(t, srv, "POST", base+"/select", map[string]any{"seat": "red", "piece": 0}, &moved))
	require.True(t, moved.Success)
	assert.Equal(t, board.Position(0), moved.Move.To)

	var auto service.MoveResult
	require.Equal(t, http.StatusOK, do(t, srv, "POST", base+"/roll", nil, &auto))
	require.NotNil(t, auto.Move)
	assert.Equal(t, board.Position(3), auto.Move.To)

	var state engine.GameState
	require.Equal(t, http.StatusOK, do(t, srv, "GET", base+"/state", nil, &state))
	assert.Equal(t, board.P2, state.ActiveSeat())

	var history service.HistoryResponse
	require.Equal(t, http.StatusOK, do(t, srv, "GET", base+"/history?order=asc", nil, &history))
	assert.Equal(t, 2, history.TotalMoves)
	assert.Equal(t, 1, history.Moves[0].MoveNumber)

	var reset service.MoveResult
	require.Equal(t, http.StatusOK, do(t, srv, "POST", base+"/reset", nil, &reset))
	assert.Equal(t, engine.ActionReset, reset.Action)
	assert.Equal(t, board.Position(500), reset.GameState.Position(board.P1, 0))
}

func TestSelectValidation(t *testing.T) {
	srv := newLiveServer(t, nil)
	info := createSession(t, srv, "duel")
	path := "/api/sessions/" + info.ID + "/select"

	cases := []struct {
		name string
		body any
	}{
		{"missing piece", map[string]any{"seat": "P1"}},
		{"missing seat", map[string]any{"piece": 1}},
		{"unknown seat", map[string]any{"seat": "P9", "piece": 1}},
		{"not json", "x"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, do(t, srv, "POST", path, tc.body, nil))
		})
	}
}

func TestConfigure(t *testing.T) {
	srv := newLiveServer(t, nil)
	info := createSession(t, srv, "classic")
	path := "/api/sessions/" + info.ID + "/configure"

	var teams service.MoveResult
	require.Equal(t, http.StatusOK, do(t, srv, "POST", path, map[string]any{"players": 4, "team_mode": true}, &teams))
	assert.True(t, teams.GameState.TeamMode)

	assert.Equal(t, http.StatusBadRequest, do(t, srv, "POST", path, map[string]any{"players": 2, "team_mode": true}, nil))
	assert.Equal(t, http.StatusBadRequest, do(t, srv, "POST", path, map[string]any{"players": 7}, nil))
}

func TestSessionNotFound(t *testing.T) {
	srv := newLiveServer(t, nil)

	for _, route := range []struct{ method, path string }{
		{"GET", "/api/sessions/zzzz"},
		{"DELETE", "/api/sessions/zzzz"},
		{"GET", "/api/sessions/zzzz/state"},
		{"POST", "/api/sessions/zzzz/roll"},
		{"POST", "/api/sessions/zzzz/reset"},
		{"GET", "/api/sessions/zzzz/history"},
		{"GET", "/api/sessions/zzzz/eligible"},
	} {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			var body map[string]any
			assert.Equal(t, http.StatusNotFound, do(t, srv, route.method, route.path, nil, &body))
			assert.EqualValues(t, http.StatusNotFound, body["code"])
		})
	}
}

func TestDeleteSession(t *testing.T) {
	srv := newLiveServer(t, nil)
	info := createSession(t, srv, "duel")

	assert.Equal(t, http.StatusOK, do(t, srv, "DELETE", "/api/sessions/"+info.ID, nil, nil))
	assert.Equal(t, http.StatusNotFound, do(t, srv, "GET", "/api/sessions/"+info.ID, nil, nil))
}

func TestListSessions(t *testing.T) {
	now := time.Now()
	mock := &MockGameService{
		ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
			return []*service.SessionInfo{
				{ID: "old", CreatedAt: now.Add(-2 * time.Hour), LastAccessedAt: now},
				{ID: "mid", CreatedAt: now.Add(-time.Hour), LastAccessedAt: now.Add(-time.Hour)},
				{ID: "new", CreatedAt: now, LastAccessedAt: now.Add(-2 * time.Hour)},
			}, nil
		},
	}
	srv := NewServer(mock, nil)

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"old", "mid", "new"}},
		{"?sort=created", []string{"new", "mid", "old"}},
		{"?sort=created&order=asc", []string{"old", "mid", "new"}},
		{"?sort=created&limit=1", []string{"new"}},
	}
	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			var body struct {
				Count    int                    `json:"count"`
				Total    int                    `json:"total"`
				Sessions []*service.SessionInfo `json:"sessions"`
			}
			require.Equal(t, http.StatusOK, do(t, srv, "GET", "/api/sessions"+tc.query, nil, &body))
			var ids []string
			for _, s := range body.Sessions {
				ids = append(ids, s.ID)
			}
			assert.Equal(t, tc.want, ids)
			assert.Equal(t, 3, body.Total)
			assert.Equal(t, len(tc.want), body.Count)
		})
	}
}

func TestGetHistoryParams(t *testing.T) {
	var got service.HistoryOptions
	mock := &MockGameService{
		GetMoveHistoryFunc: func(ctx context.Context, id string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
			got = opts
			return &service.HistoryResponse{Moves: []engine.MoveHistoryEntry{}}, nil
		},
	}
	srv := NewServer(mock, nil)

	require.Equal(t, http.StatusOK, do(t, srv, "GET", "/api/sessions/ab12/history?page=3&limit=5&order=asc&current=true", nil, nil))
	assert.Equal(t, service.HistoryOptions{Page: 3, Limit: 5, Order: "asc", Current: true}, got)

	require.Equal(t, http.StatusOK, do(t, srv, "GET", "/api/sessions/ab12/history?page=-1&limit=x&order=sideways", nil, nil))
	assert.Equal(t, service.HistoryOptions{Page: 1, Limit: 20, Order: "desc"}, got)
}

func TestInternalErrorsAre500(t *testing.T) {
	mock := &MockGameService{
		SelectPieceFunc: func(ctx context.Context, id string, seat board.Seat, piece int) (*service.MoveResult, error) {
			return nil, fmt.Errorf("disk on fire")
		},
	}
	srv := NewServer(mock, nil)
	assert.Equal(t, http.StatusInternalServerError,
		do(t, srv, "POST", "/api/sessions/ab12/select", map[string]any{"seat": "P1", "piece": 0}, nil))
}

func TestConfigs(t *testing.T) {
	srv := newLiveServer(t, nil)

	var list []service.ConfigInfo
	require.Equal(t, http.StatusOK, do(t, srv, "GET", "/api/configs", nil, &list))
	var ids []string
	for _, c := range list {
		ids = append(ids, c.ConfigID)
	}
	assert.Contains(t, ids, "classic")
	assert.Contains(t, ids, "teams")

	var teams engine.GameConfig
	require.Equal(t, http.StatusOK, do(t, srv, "GET", "/api/configs/teams.json", nil, &teams))
	assert.True(t, teams.TeamMode)

	assert.Equal(t, http.StatusNotFound, do(t, srv, "GET", "/api/configs/missing", nil, nil))
}

func TestCreateConfig(t *testing.T) {
	var saved string
	mock := &MockGameService{
		SaveConfigFunc: func(ctx context.Context, name string, cfg *engine.GameConfig) error {
			if err := engine.ValidateGameConfig(cfg); err != nil {
				return fmt.Errorf("%w: %v", service.ErrInvalidConfig, err)
			}
			saved = name
			return nil
		},
	}
	srv := NewServer(mock, nil)

	assert.Equal(t, http.StatusCreated, do(t, srv, "POST", "/api/configs", engine.GameConfig{Name: "quick", Players: 3}, nil))
	assert.Equal(t, "quick", saved)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, "POST", "/api/configs", engine.GameConfig{Players: 3}, nil))
	assert.Equal(t, http.StatusBadRequest, do(t, srv, "POST", "/api/configs", engine.GameConfig{Name: "bad", Players: 1}, nil))
}

func TestHealth(t *testing.T) {
	srv := newLiveServer(t, nil)
	createSession(t, srv, "duel")

	var body map[string]any
	require.Equal(t, http.StatusOK, do(t, srv, "GET", "/api/health", nil, &body))
	assert.Equal(t, "healthy", body["status"])
	assert.EqualValues(t, 1, body["sessions"])
}

func TestWebSocket(t *testing.T) {
	hub := websocket.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := newLiveServer(t, hub, 4)
	ts := httptest.NewServer(srv)
	defer ts.Close()
	info := createSession(t, srv, "duel")

	t.Run("requires session", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/ws")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		resp, err = http.Get(ts.URL + "/ws?session=zzzz")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("streams events and state", func(t *testing.T) {
		wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?session=" + info.ID
		conn, _, err := gws.DefaultDialer.Dial(wsURL, nil)
		require.NoError(t, err)
		defer conn.Close()

		read := func() websocket.Message {
			require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
			var msg websocket.Message
			require.NoError(t, conn.ReadJSON(&msg))
			return msg
		}

		first := read()
		assert.Equal(t, websocket.TypeStateUpdate, first.Type)
		require.Eventually(t, func() bool { return hub.ClientCount(info.ID) == 1 }, time.Second, 5*time.Millisecond)

		var rolled service.MoveResult
		require.Equal(t, http.StatusOK, do(t, srv, "POST", "/api/sessions/"+info.ID+"/roll", nil, &rolled))

		var events []string
		for {
			msg := read()
			if msg.Type == websocket.TypeStateUpdate {
				assert.Equal(t, 4, msg.GameState.DiceValue)
				break
			}
			events = append(events, msg.Event.Type)
		}
		assert.Len(t, events, len(rolled.Events))
		assert.Equal(t, engine.EventDiceDisabled, events[0])
	})
}
