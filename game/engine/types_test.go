package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/ludo-game/game/board"
)

func TestGameStateJSON(t *testing.T) {
	state := newTestState(2, false)
	place(state, board.P2, 33, 205)
	state.Winner = &Winner{Seat: board.P2}

	data, err := json.Marshal(state)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "awaiting_roll", raw["phase"])
	assert.Equal(t, []any{"P1", "P2"}, raw["roster"])
	positions := raw["positions"].(map[string]any)
	assert.Equal(t, []any{33.0, 205.0, 602.0, 603.0}, positions["P2"])
	assert.NotContains(t, raw, "moving")

	var decoded GameState
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, state.Positions, decoded.Positions)
	assert.Equal(t, board.P2, decoded.Winner.Seat)
}

func TestEventJSON(t *testing.T) {
	log := &EventLog{}
	log.PieceMoved(board.P3, 2, 301)
	log.DiceEnabled()

	data, err := json.Marshal(log.Events[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"piece_moved"`)
	assert.Contains(t, string(data), `"seat":"P3"`)
	assert.Contains(t, string(data), `"position":301`)

	data, err = json.Marshal(log.Events[1])
	require.NoError(t, err)
	assert.NotContains(t, string(data), "seat")
}

func TestGameStateCopy(t *testing.T) {
	state := newTestState(2, false)
	state.Eligible = []int{1, 2}
	state.MoveHistory = []MoveHistoryEntry{{Path: []board.Position{1, 2}}}

	c := state.Copy()
	c.Eligible[0] = 9
	c.MoveHistory[0].Path[0] = 40
	c.Positions[board.P1] = [4]board.Position{1, 1, 1, 1}

	assert.Equal(t, 1, state.Eligible[0])
	assert.Equal(t, board.Position(1), state.MoveHistory[0].Path[0])
	assert.Equal(t, board.PathOf(board.P1).Base, state.Positions[board.P1])
}

func TestDice(t *testing.T) {
	d := NewRandomDice(42)
	seen := map[int]bool{}
	for i := 0; i < 600; i++ {
		v := d.Roll()
		require.GreaterOrEqual(t, v, 1)
		require.LessOrEqual(t, v, DiceFaces)
		seen[v] = true
	}
	assert.Len(t, seen, DiceFaces)

	a, b := NewRandomDice(5), NewRandomDice(5)
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Roll(), b.Roll(), "same seed, same rolls")
	}

	s := NewScriptedDice(6, 2)
	assert.Equal(t, []int{6, 2}, []int{s.Roll(), s.Roll()})
	s.Push(4)
	assert.Equal(t, []int{4, 6}, []int{s.Roll(), s.Roll()}, "cycles once exhausted")

	assert.Equal(t, 3, DiceFunc(func() int { return 3 }).Roll())
}

func TestFanout(t *testing.T) {
	a, b := &EventLog{}, &EventLog{}
	f := Fanout{a, nil, b}
	f.TurnChanged(board.P2)
	f.GameOver(Winner{Seat: board.P2})

	assert.Equal(t, []string{EventTurnChanged, EventGameOver}, a.Types())
	assert.Equal(t, a.Types(), b.Types())
}
