package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/ludo-game/game/board"
)

func createValidConfig() *GameConfig {
	return &GameConfig{
		Name:        "Test Config",
		Description: "A valid test configuration",
		Players:     2,
	}
}

func TestValidateGameConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *GameConfig)
		wantErr string
	}{
		{"valid", func(c *GameConfig) {}, ""},
		{"missing name", func(c *GameConfig) { c.Name = "" }, "name is required"},
		{"missing description", func(c *GameConfig) { c.Description = "" }, "description is required"},
		{"one player", func(c *GameConfig) { c.Players = 1 }, "players must be between 2 and 4"},
		{"five players", func(c *GameConfig) { c.Players = 5 }, "players must be between 2 and 4"},
		{"team mode with two", func(c *GameConfig) { c.TeamMode = true }, "team_mode requires 4 players"},
		{"team mode with four", func(c *GameConfig) { c.Players = 4; c.TeamMode = true }, ""},
		{"seats length mismatch", func(c *GameConfig) { c.Seats = []board.Seat{board.P1} }, "seats must list 2 seats"},
		{"duplicate seat", func(c *GameConfig) { c.Seats = []board.Seat{board.P3, board.P3} }, "listed twice"},
		{"invalid seat", func(c *GameConfig) { c.Seats = []board.Seat{board.P1, 9} }, "not a valid seat"},
		{"explicit seats", func(c *GameConfig) { c.Seats = []board.Seat{board.P3, board.P4} }, ""},
		{"negative delay", func(c *GameConfig) { c.StepDelayMS = -1 }, "step_delay_ms"},
		{"delay too long", func(c *GameConfig) { c.StepDelayMS = MaxStepDelayMS + 1 }, "step_delay_ms"},
		{"too many verbs", func(c *GameConfig) { c.Messages.Victory = "%s %s %d" }, "messages.victory"},
		{"escaped percent", func(c *GameConfig) { c.Messages.NextTurn = "100%% %s" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := createValidConfig()
			tt.mutate(c)
			err := ValidateGameConfig(c)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), "config validation:")
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	assert.Error(t, ValidateGameConfig(nil))
}

func TestGameConfigRoster(t *testing.T) {
	c := createValidConfig()
	c.Players = 3
	assert.Equal(t, []board.Seat{board.P1, board.P4, board.P2}, c.Roster())

	c.Players = 2
	c.Seats = []board.Seat{board.P3, board.P4}
	assert.Equal(t, []board.Seat{board.P3, board.P4}, c.Roster())
}

func TestLoadGameConfig(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(dir, "teams.json")
		content := `{
			"name": "teams",
			"description": "Two against two",
			"players": 4,
			"team_mode": true,
			"step_delay_ms": 150,
			"messages": {"victory": "%s take the crown"}
		}`
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		config, err := LoadGameConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "teams", config.Name)
		assert.True(t, config.TeamMode)
		assert.Equal(t, 150, config.StepDelayMS)
		assert.Equal(t, "%s take the crown", config.Messages.Victory)
	})

	t.Run("seats by color", func(t *testing.T) {
		path := filepath.Join(dir, "colors.json")
		content := `{"name": "colors", "description": "d", "players": 2, "seats": ["yellow", "P4"]}`
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		config, err := LoadGameConfig(path)
		require.NoError(t, err)
		assert.Equal(t, []board.Seat{board.P3, board.P4}, config.Seats)
	})

	t.Run("invalid json", func(t *testing.T) {
		path := filepath.Join(dir, "broken.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"name":`), 0644))

		_, err := LoadGameConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})

	t.Run("invalid config", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"name":"x","description":"y","players":7}`), 0644))

		_, err := LoadGameConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "players")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadGameConfig(filepath.Join(dir, "nope.json"))
		assert.Error(t, err)
	})
}

func TestInitGameStateFromConfig(t *testing.T) {
	state := InitGameStateFromConfig(createValidConfig())

	assert.Equal(t, AwaitingRoll, state.Phase)
	assert.Equal(t, []board.Seat{board.P1, board.P2}, state.Roster)
	assert.Equal(t, 0, state.Turn)
	assert.Equal(t, 0, state.DiceValue)
	assert.Empty(t, state.Eligible)
	assert.NotNil(t, state.Eligible)
	assert.Len(t, state.Positions, 2)
	assert.Equal(t, board.PathOf(board.P2).Base, state.Positions[board.P2])
	assert.Equal(t, "Welcome to Ludo! P1 (red) rolls first.", state.Message)
	assert.Equal(t, "Test Config", state.ConfigName)
	assert.Nil(t, state.Winner)

	def := InitGameStateFromConfig(nil)
	assert.Len(t, def.Roster, 4)
	assert.Equal(t, "classic", def.ConfigName)
	require.NoError(t, ValidateState(def))
}

func TestRender(t *testing.T) {
	assert.Equal(t, "P1 rolled 4", render("%s rolled %d", "P1", 4))
	assert.Equal(t, "no verbs", render("no verbs", "P1", 4))
	assert.Equal(t, "P2 only", render("%s only", "P2", 4))
	assert.Equal(t, "50% off", render("50%% off"))
}
