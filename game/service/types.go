package service

import (
	"time"

	"github.com/wricardo/ludo-game/game/board"
	"github.com/wricardo/ludo-game/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// MoveResult contains the result of a roll, selection, reset or roster
// change. Success is false for requests the rules ignored.
type MoveResult struct {
	Success   bool                     `json:"success"`
	Reason    string                   `json:"reason,omitempty"`
	Action    string                   `json:"action"`
	Seat      board.Seat               `json:"seat"`
	Dice      int                      `json:"dice,omitempty"`
	Eligible  []int                    `json:"eligible,omitempty"`
	Move      *engine.MoveHistoryEntry `json:"move,omitempty"`
	Events    []engine.Event           `json:"events"`
	GameState *engine.GameState        `json:"game_state"`
	Message   string                   `json:"message"`
}

// ConfigureRequest changes the active roster of a session.
type ConfigureRequest struct {
	Players  int  `json:"players"`
	TeamMode bool `json:"team_mode"`
}

// PieceOption previews the move of one eligible piece.
type PieceOption struct {
	Piece    int              `json:"piece"`
	From     board.Position   `json:"from"`
	To       board.Position   `json:"to"`
	Path     []board.Position `json:"path"`
	Captures []engine.Capture `json:"captures,omitempty"`
	Home     bool             `json:"home"`
}

// EligibleInfo lists the pieces the active seat may move with the rolled dice.
type EligibleInfo struct {
	Seat    board.Seat    `json:"seat"`
	Phase   engine.Phase  `json:"phase"`
	Dice    int           `json:"dice"`
	Options []PieceOption `json:"options"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
	// Current restricts the history to the moves since the last reset.
	Current bool `json:"current"`
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename    string       `json:"filename"`
	ConfigID    string       `json:"config_id"` // The identifier to use for session creation
	Name        string       `json:"name"`      // Display name
	Description string       `json:"description"`
	Players     int          `json:"players"`
	TeamMode    bool         `json:"team_mode"`
	Seats       []board.Seat `json:"seats"`
	StepDelayMS int          `json:"step_delay_ms"`
}
