package engine

import "github.com/wricardo/ludo-game/game/board"

// Phase is the discrete state of the turn machine.
type Phase string

const (
	AwaitingRoll   Phase = "awaiting_roll"
	Rolled         Phase = "rolled"
	MoveInProgress Phase = "move_in_progress"
	GameOver       Phase = "game_over"

	// Validation constants
	MinPlayers     = 2
	MaxPlayers     = 4
	DiceFaces      = 6
	ExitRoll       = 6
	MaxStepDelayMS = 2000
	MaxHistoryPage = 100
)

// PieceRef identifies a single piece.
type PieceRef struct {
	Seat  board.Seat `json:"seat"`
	Piece int        `json:"piece"`
}

// Capture records an opposing piece sent back to its base.
type Capture struct {
	Seat  board.Seat     `json:"seat"`
	Piece int            `json:"piece"`
	From  board.Position `json:"from"`
	To    board.Position `json:"to"`
}

// Winner records who ended the game. Team is empty in individual mode.
type Winner struct {
	Seat board.Seat `json:"seat"`
	Team board.Team `json:"team,omitempty"`
}

// Positions holds the four piece codes of every seat in the roster.
type Positions map[board.Seat][board.PiecesPerSeat]board.Position

// GameState represents the complete game state
type GameState struct {
	Phase      Phase        `json:"phase"`
	Roster     []board.Seat `json:"roster"`
	Turn       int          `json:"turn"`
	DiceValue  int          `json:"dice_value"`
	Eligible   []int        `json:"eligible"`
	Positions  Positions    `json:"positions"`
	TeamMode   bool         `json:"team_mode"`
	Moving     *PieceRef    `json:"moving,omitempty"`
	Winner     *Winner      `json:"winner,omitempty"`
	Message    string       `json:"message"`
	ConfigName string       `json:"config_name"`

	MoveHistory []MoveHistoryEntry `json:"move_history"`
	TotalMoves  int                `json:"total_moves"`

	// CurrentMoves tracks only the turns since the last reset. MoveHistory
	// stays cumulative across resets.
	CurrentMoves      []MoveHistoryEntry `json:"current_moves"`
	CurrentMovesCount int                `json:"current_moves_count"`
}

// MoveHistoryEntry represents a single resolved roll in the game history.
type MoveHistoryEntry struct {
	ID         string           `json:"id"`
	MoveNumber int              `json:"move_number"`
	Action     string           `json:"action"` // "move" or "pass"
	Seat       board.Seat       `json:"seat"`
	Piece      int              `json:"piece"` // -1 for a pass
	Dice       int              `json:"dice"`
	From       board.Position   `json:"from"`
	To         board.Position   `json:"to"`
	Path       []board.Position `json:"path,omitempty"`
	Captures   []Capture        `json:"captures,omitempty"`
	KeptTurn   bool             `json:"kept_turn"`
	Timestamp  int64            `json:"timestamp"`
}

// Outcome is the result of one inbound request. Rejected requests are not
// errors: Accepted is false and Reason says why.
type Outcome struct {
	Accepted bool              `json:"accepted"`
	Reason   string            `json:"reason,omitempty"`
	Action   string            `json:"action"`
	Seat     board.Seat        `json:"seat"`
	Dice     int               `json:"dice,omitempty"`
	Eligible []int             `json:"eligible,omitempty"`
	Move     *MoveHistoryEntry `json:"move,omitempty"`
	Events   []Event           `json:"events"`
	State    *GameState        `json:"state"`
}

// ActiveSeat returns the seat whose turn it is.
func (gs *GameState) ActiveSeat() board.Seat {
	return gs.Roster[gs.Turn]
}

// Position returns the code of one piece.
func (gs *GameState) Position(seat board.Seat, piece int) board.Position {
	return gs.Positions[seat][piece]
}

// setPosition updates one piece in place.
func (gs *GameState) setPosition(seat board.Seat, piece int, pos board.Position) {
	pieces := gs.Positions[seat]
	pieces[piece] = pos
	gs.Positions[seat] = pieces
}

// InRoster reports whether seat is playing in this game.
func (gs *GameState) InRoster(seat board.Seat) bool {
	for _, s := range gs.Roster {
		if s == seat {
			return true
		}
	}
	return false
}

// Copy returns a deep copy safe to hand to other goroutines.
func (gs *GameState) Copy() *GameState {
	if gs == nil {
		return nil
	}
	c := *gs
	c.Roster = append([]board.Seat(nil), gs.Roster...)
	if gs.Eligible != nil {
		c.Eligible = append([]int{}, gs.Eligible...)
	}
	c.Positions = make(Positions, len(gs.Positions))
	for seat, pieces := range gs.Positions {
		c.Positions[seat] = pieces
	}
	if gs.Moving != nil {
		m := *gs.Moving
		c.Moving = &m
	}
	if gs.Winner != nil {
		w := *gs.Winner
		c.Winner = &w
	}
	c.MoveHistory = copyHistory(gs.MoveHistory)
	c.CurrentMoves = copyHistory(gs.CurrentMoves)
	return &c
}

func copyHistory(entries []MoveHistoryEntry) []MoveHistoryEntry {
	out := make([]MoveHistoryEntry, len(entries))
	for i, e := range entries {
		e.Path = append([]board.Position(nil), e.Path...)
		e.Captures = append([]Capture(nil), e.Captures...)
		out[i] = e
	}
	return out
}
