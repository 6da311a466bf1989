package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/wricardo/ludo-game/game/board"
)

// Messages holds the player-facing texts. Empty fields fall back to defaults.
type Messages struct {
	Welcome     string `json:"welcome"`
	ChoosePiece string `json:"choose_piece"`
	NoMoves     string `json:"no_moves"`
	ExtraTurn   string `json:"extra_turn"`
	Captured    string `json:"captured"`
	NextTurn    string `json:"next_turn"`
	Victory     string `json:"victory"`
}

var defaultMessages = Messages{
	Welcome:     "Welcome to Ludo! %s rolls first.",
	ChoosePiece: "%s rolled a %d. Choose a piece to move.",
	NoMoves:     "%s rolled a %d but has no legal move.",
	ExtraTurn:   "%s rolls again.",
	Captured:    "%s captured %d piece(s)!",
	NextTurn:    "%s to roll.",
	Victory:     "%s wins the game!",
}

// GameConfig represents the game configuration from JSON
type GameConfig struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Players     int          `json:"players"`
	TeamMode    bool         `json:"team_mode"`
	Seats       []board.Seat `json:"seats,omitempty"`
	StepDelayMS int          `json:"step_delay_ms,omitempty"`
	Messages    Messages     `json:"messages"`
}

// DefaultGameConfig returns the four-seat individual game.
func DefaultGameConfig() *GameConfig {
	return &GameConfig{
		Name:        "classic",
		Description: "Four players, every seat for itself",
		Players:     4,
	}
}

// Roster returns the seats that play, in turn order.
func (c *GameConfig) Roster() []board.Seat {
	if len(c.Seats) > 0 {
		return append([]board.Seat(nil), c.Seats...)
	}
	roster, err := board.DefaultRoster(c.Players)
	if err != nil {
		return nil
	}
	return roster
}

// StepDelay is the pause between two observable steps of a move.
func (c *GameConfig) StepDelay() time.Duration {
	return time.Duration(c.StepDelayMS) * time.Millisecond
}

// message picks the configured text or its default.
func (c *GameConfig) message(pick func(Messages) string) string {
	if c != nil {
		if m := pick(c.Messages); m != "" {
			return m
		}
	}
	return pick(defaultMessages)
}

// ValidateGameConfig validates a game configuration for correctness
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is required")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}

	if config.Players < MinPlayers || config.Players > MaxPlayers {
		return fmt.Errorf("config validation: players must be between %d and %d, got %d", MinPlayers, MaxPlayers, config.Players)
	}
	if config.TeamMode && config.Players != MaxPlayers {
		return fmt.Errorf("config validation: team_mode requires %d players, got %d", MaxPlayers, config.Players)
	}

	if len(config.Seats) > 0 {
		if len(config.Seats) != config.Players {
			return fmt.Errorf("config validation: seats must list %d seats to match players, got %d",
				config.Players, len(config.Seats))
		}
		seen := make(map[board.Seat]bool, len(config.Seats))
		for i, seat := range config.Seats {
			if !seat.Valid() {
				return fmt.Errorf("config validation: seats[%d] is not a valid seat", i)
			}
			if seen[seat] {
				return fmt.Errorf("config validation: seat %s listed twice", seat)
			}
			seen[seat] = true
		}
	}

	if config.StepDelayMS < 0 || config.StepDelayMS > MaxStepDelayMS {
		return fmt.Errorf("config validation: step_delay_ms must be between 0 and %d, got %d", MaxStepDelayMS, config.StepDelayMS)
	}

	// Placeholders are optional; texts receive at most the seat and a number.
	checks := map[string]string{
		"welcome":      config.Messages.Welcome,
		"choose_piece": config.Messages.ChoosePiece,
		"no_moves":     config.Messages.NoMoves,
		"extra_turn":   config.Messages.ExtraTurn,
		"captured":     config.Messages.Captured,
		"next_turn":    config.Messages.NextTurn,
		"victory":      config.Messages.Victory,
	}
	for key, text := range checks {
		if countVerbs(text) > 2 {
			return fmt.Errorf("config validation: messages.%s may contain at most two format verbs", key)
		}
	}

	return nil
}

// LoadGameConfig loads a game configuration from a JSON file
func LoadGameConfig(filename string) (*GameConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var config GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", filename, err)
	}

	if err := ValidateGameConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// InitGameStateFromConfig creates a new game state using the provided configuration
func InitGameStateFromConfig(config *GameConfig) *GameState {
	if config == nil {
		config = DefaultGameConfig()
	}

	roster := config.Roster()
	positions := make(Positions, len(roster))
	for _, seat := range roster {
		positions[seat] = board.PathOf(seat).Base
	}

	state := &GameState{
		Phase:             AwaitingRoll,
		Roster:            roster,
		Turn:              0,
		DiceValue:         0,
		Eligible:          []int{},
		Positions:         positions,
		TeamMode:          config.TeamMode,
		ConfigName:        config.Name,
		MoveHistory:       []MoveHistoryEntry{},
		TotalMoves:        0,
		CurrentMoves:      []MoveHistoryEntry{},
		CurrentMovesCount: 0,
	}
	if len(roster) > 0 {
		state.Message = render(config.message(func(m Messages) string { return m.Welcome }), SeatLabel(roster[0]))
	}
	return state
}

// render formats text with as many of args as it has verbs.
func render(text string, args ...any) string {
	n := countVerbs(text)
	if n > len(args) {
		n = len(args)
	}
	if n == 0 {
		return strings.ReplaceAll(text, "%%", "%")
	}
	return fmt.Sprintf(text, args[:n]...)
}

func countVerbs(text string) int {
	return strings.Count(strings.ReplaceAll(text, "%%", ""), "%")
}
