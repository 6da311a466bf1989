package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/ludo-game/game/board"
	"github.com/wricardo/ludo-game/game/engine"
	"github.com/wricardo/ludo-game/game/service"
)

// MockSessionManager implements service.SessionManager for testing
type MockSessionManager struct {
	mu       sync.Mutex
	sessions map[string]*service.Session
	dice     engine.Dice
	saves    map[string]int
}

func NewMockSessionManager(rolls ...int) *MockSessionManager {
	return &MockSessionManager{
		sessions: make(map[string]*service.Session),
		dice:     engine.NewScriptedDice(rolls...),
		saves:    make(map[string]int),
	}
}

func (m *MockSessionManager) Create(id, configID string, config *engine.GameConfig) (*service.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Generate ID if empty (mimics real session manager behavior)
	if id == "" {
		id = fmt.Sprintf("t%03d", len(m.sessions)+1)
	}
	if _, exists := m.sessions[id]; exists {
		return nil, errors.New("session already exists")
	}

	eng, err := engine.NewEngine(config, engine.WithDice(m.dice), engine.WithStepDelay(0))
	if err != nil {
		return nil, err
	}

	session := &service.Session{
		ID:             id,
		Engine:         eng,
		ConfigID:       configID,
		Config:         config,
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
	}
	m.sessions[id] = session
	return session, nil
}

func (m *MockSessionManager) Get(id string) (*service.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, exists := m.sessions[id]
	if !exists {
		return nil, service.ErrSessionNotFound
	}
	return session, nil
}

func (m *MockSessionManager) GetOrCreate(id, configID string, config *engine.GameConfig) (*service.Session, error) {
	if session, err := m.Get(id); err == nil {
		return session, nil
	}
	return m.Create(id, configID, config)
}

func (m *MockSessionManager) List() []*service.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

func (m *MockSessionManager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[id]; !exists {
		return service.ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionManager) Touch(id string) (*service.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, exists := m.sessions[id]
	if !exists {
		return nil, service.ErrSessionNotFound
	}
	session.LastAccessedAt = time.Now()
	return session, nil
}

func (m *MockSessionManager) Save(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[id]; !exists {
		return service.ErrSessionNotFound
	}
	m.saves[id]++
	return nil
}

func (m *MockSessionManager) saveCount(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves[id]
}

// MockConfigManager implements service.ConfigManager for testing
type MockConfigManager struct {
	configs map[string]*engine.GameConfig
}

func NewMockConfigManager() *MockConfigManager {
	return &MockConfigManager{
		configs: map[string]*engine.GameConfig{
			"duel": {Name: "Duel", Description: "Two players", Players: 2},
			"classic": {Name: "Classic", Description: "Four players", Players: 4},
		},
	}
}

func (m *MockConfigManager) LoadConfig(name string) (*engine.GameConfig, error) {
	config, ok := m.configs[name]
	if !ok {
		return nil, service.ErrConfigNotFound
	}
	return config, nil
}

func (m *MockConfigManager) ListConfigs() ([]*service.ConfigInfo, error) {
	var result []*service.ConfigInfo
	for id, c := range m.configs {
		result = append(result, &service.ConfigInfo{
			Filename: id + ".json", ConfigID: id, Name: c.Name,
			Description: c.Description, Players: c.Players, TeamMode: c.TeamMode,
		})
	}
	return result, nil
}

func (m *MockConfigManager) GetDefault() *engine.GameConfig {
	return m.configs["classic"]
}

func (m *MockConfigManager) SaveConfig(name string, config *engine.GameConfig) error {
	if err := engine.ValidateGameConfig(config); err != nil {
		return fmt.Errorf("%w: %v", service.ErrInvalidConfig, err)
	}
	m.configs[name] = config
	return nil
}

func newTestService(rolls ...int) (service.GameService, *MockSessionManager) {
	sessions := NewMockSessionManager(rolls...)
	return service.NewGameService(sessions, NewMockConfigManager()), sessions
}

func TestCreateSession(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	t.Run("named config", func(t *testing.T) {
		info, err := svc.CreateSession(ctx, "duel")
		require.NoError(t, err)
		assert.NotEmpty(t, info.ID)
		assert.Equal(t, "duel", info.ConfigName)
		assert.Len(t, info.GameState.Roster, 2)
		assert.Equal(t, engine.AwaitingRoll, info.GameState.Phase)
	})

	t.Run("default config", func(t *testing.T) {
		info, err := svc.CreateSession(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, "classic", info.ConfigName)
		assert.Len(t, info.GameState.Roster, 4)
	})

	t.Run("unknown config lists alternatives", func(t *testing.T) {
		_, err := svc.CreateSession(ctx, "nope")
		require.Error(t, err)
		assert.True(t, errors.Is(err, service.ErrConfigNotFound))
		assert.Contains(t, err.Error(), "Available configs")
	})
}

func TestSessionLifecycle(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, "duel")
	require.NoError(t, err)

	got, err := svc.GetSession(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, info.ID, got.ID)

	list, err := svc.ListSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.DeleteSession(ctx, info.ID))
	_, err = svc.GetSession(ctx, info.ID)
	assert.True(t, errors.Is(err, service.ErrSessionNotFound))

	_, err = svc.Roll(ctx, info.ID)
	assert.True(t, errors.Is(err, service.ErrSessionNotFound))
}

func TestRollAndSelect(t *testing.T) {
	svc, sessions := newTestService(6, 3)
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, "duel")
	require.NoError(t, err)

	result, err := svc.Roll(ctx, info.ID)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 6, result.Dice)
	assert.Equal(t, []int{0, 1, 2, 3}, result.Eligible)
	assert.Equal(t, engine.Rolled, result.GameState.Phase)
	assert.NotEmpty(t, result.Events)
	assert.Equal(t, 1, sessions.saveCount(info.ID))

	eligible, err := svc.GetEligible(ctx, info.ID)
	require.NoError(t, err)
	require.Len(t, eligible.Options, 4)
	assert.Equal(t, board.Position(0), eligible.Options[0].To)
	assert.Equal(t, board.Position(500), eligible.Options[0].From)

	ignored, err := svc.Roll(ctx, info.ID)
	require.NoError(t, err, "ignored requests are not errors")
	assert.False(t, ignored.Success)
	assert.NotEmpty(t, ignored.Reason)
	assert.Equal(t, 1, sessions.saveCount(info.ID), "ignored requests are not saved")

	moved, err := svc.SelectPiece(ctx, info.ID, board.P1, 0)
	require.NoError(t, err)
	assert.True(t, moved.Success)
	require.NotNil(t, moved.Move)
	assert.True(t, moved.Move.KeptTurn)
	assert.Equal(t, board.P1, moved.GameState.ActiveSeat())

	// The 3 moves the only piece on the track.
	auto, err := svc.Roll(ctx, info.ID)
	require.NoError(t, err)
	require.NotNil(t, auto.Move)
	assert.Equal(t, board.Position(3), auto.Move.To)
	assert.Equal(t, board.P2, auto.GameState.ActiveSeat())

	eligible, err = svc.GetEligible(ctx, info.ID)
	require.NoError(t, err)
	assert.Empty(t, eligible.Options)
	assert.Equal(t, engine.AwaitingRoll, eligible.Phase)
}

func TestGetEligible_PreviewsCaptures(t *testing.T) {
	svc, sessions := newTestService(2)
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, "duel")
	require.NoError(t, err)

	sess, err := sessions.Get(info.ID)
	require.NoError(t, err)
	state := sess.Engine.GetState()
	state.Positions[board.P1] = [4]board.Position{15, 30, 502, 503}
	state.Positions[board.P2] = [4]board.Position{17, 601, 602, 603}
	require.NoError(t, sess.Engine.SetState(state))

	_, err = svc.Roll(ctx, info.ID)
	require.NoError(t, err)

	eligible, err := svc.GetEligible(ctx, info.ID)
	require.NoError(t, err)
	require.Len(t, eligible.Options, 2)
	require.Len(t, eligible.Options[0].Captures, 1)
	assert.Equal(t, board.P2, eligible.Options[0].Captures[0].Seat)
	assert.Empty(t, eligible.Options[1].Captures)

	// The preview never touches the board.
	after, err := svc.GetGameState(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, board.Position(17), after.Position(board.P2, 0))
}

func TestResetAndConfigure(t *testing.T) {
	svc, _ := newTestService(4)
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, "classic")
	require.NoError(t, err)

	_, err = svc.Roll(ctx, info.ID)
	require.NoError(t, err)

	reset, err := svc.Reset(ctx, info.ID)
	require.NoError(t, err)
	assert.True(t, reset.Success)
	assert.Equal(t, engine.ActionReset, reset.Action)
	assert.Equal(t, 0, reset.GameState.Turn)
	assert.Equal(t, 1, reset.GameState.TotalMoves, "history survives reset")

	teams, err := svc.Configure(ctx, info.ID, service.ConfigureRequest{Players: 4, TeamMode: true})
	require.NoError(t, err)
	assert.True(t, teams.GameState.TeamMode)

	duel, err := svc.Configure(ctx, info.ID, service.ConfigureRequest{Players: 2})
	require.NoError(t, err)
	assert.Equal(t, []board.Seat{board.P1, board.P2}, duel.GameState.Roster)

	_, err = svc.Configure(ctx, info.ID, service.ConfigureRequest{Players: 3, TeamMode: true})
	assert.True(t, errors.Is(err, service.ErrInvalidRequest))

	got, err := svc.GetSession(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.GameConfig.Players)
	assert.Equal(t, "classic", got.ConfigName, "preset id is unchanged")
}

func TestGetMoveHistory(t *testing.T) {
	svc, _ := newTestService(1, 2, 3, 4, 5)
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, "duel")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err := svc.Roll(ctx, info.ID)
		require.NoError(t, err)
	}

	page, err := svc.GetMoveHistory(ctx, info.ID, service.HistoryOptions{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, page.TotalMoves)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Moves, 2)
	assert.Equal(t, 5, page.Moves[0].MoveNumber, "desc by default")
	assert.True(t, page.HasNext)

	last, err := svc.GetMoveHistory(ctx, info.ID, service.HistoryOptions{Page: 3, Limit: 2, Order: "asc"})
	require.NoError(t, err)
	require.Len(t, last.Moves, 1)
	assert.Equal(t, 5, last.Moves[0].MoveNumber)
	assert.False(t, last.HasNext)
	assert.True(t, last.HasPrevious)

	_, err = svc.Reset(ctx, info.ID)
	require.NoError(t, err)
	current, err := svc.GetMoveHistory(ctx, info.ID, service.HistoryOptions{Current: true})
	require.NoError(t, err)
	assert.Equal(t, 0, current.TotalMoves)
	assert.Empty(t, current.Moves)
	assert.NotNil(t, current.Moves)
}

func TestNotifierFactory(t *testing.T) {
	logs := map[string]*engine.EventLog{}
	var mu sync.Mutex
	factory := func(id string) engine.Notifier {
		mu.Lock()
		defer mu.Unlock()
		if logs[id] == nil {
			logs[id] = &engine.EventLog{}
		}
		return logs[id]
	}

	sessions := NewMockSessionManager(3)
	svc := service.NewGameService(sessions, NewMockConfigManager(), service.WithNotifierFactory(factory))
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, "duel")
	require.NoError(t, err)
	result, err := svc.Roll(ctx, info.ID)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Contains(t, logs, info.ID)
	assert.Equal(t, len(result.Events), len(logs[info.ID].Events))
}

func TestConfigs(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	configs, err := svc.ListConfigs(ctx)
	require.NoError(t, err)
	assert.Len(t, configs, 2)

	config, err := svc.LoadConfig(ctx, "duel")
	require.NoError(t, err)
	assert.Equal(t, 2, config.Players)

	err = svc.SaveConfig(ctx, "bad", &engine.GameConfig{Name: "bad"})
	assert.True(t, errors.Is(err, service.ErrInvalidConfig))
}
