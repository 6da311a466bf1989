package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/wricardo/ludo-game/game/board"
)

// Actions reported on an Outcome and in the move history.
const (
	ActionRoll      = "roll"
	ActionSelect    = "select"
	ActionReset     = "reset"
	ActionConfigure = "configure"
	ActionMove      = "move"
	ActionPass      = "pass"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Inbound triggers
	Roll(ctx context.Context) *Outcome
	Select(ctx context.Context, seat board.Seat, piece int) *Outcome
	Reset() *Outcome
	SetConfig(config *GameConfig) (*Outcome, error)

	// Game state management
	GetState() *GameState
	SettledState() *GameState
	SetState(state *GameState) error
	GetConfig() *GameConfig
	ActiveSeat() board.Seat
	EligiblePieces(seat board.Seat, dice int) []int
	IsGameOver() bool
	Winner() *Winner
	HasWon(seat board.Seat) bool

	// History
	GetMoveHistory() []MoveHistoryEntry
	GetLastMove() *MoveHistoryEntry

	// Outbound notifications
	SetNotifier(n Notifier)
}

// GameEngine implements the Engine interface. All operations are safe for
// concurrent use; the phase decides which of them are accepted.
type GameEngine struct {
	mu       sync.Mutex
	state    *GameState
	config   *GameConfig
	dice     Dice
	notifier Notifier

	stepDelay     time.Duration
	delayOverride bool

	// generation changes on every reset so a paced move can tell it was
	// discarded while the lock was released.
	generation uint64

	// settled is the state before the request whose move is in flight.
	settled *GameState
}

// Option customizes a GameEngine.
type Option func(*GameEngine)

// WithDice replaces the random die.
func WithDice(d Dice) Option {
	return func(e *GameEngine) { e.dice = d }
}

// WithNotifier sets the receiver of outbound notifications.
func WithNotifier(n Notifier) Option {
	return func(e *GameEngine) { e.notifier = n }
}

// WithStepDelay paces moves, overriding the configured step delay.
func WithStepDelay(d time.Duration) Option {
	return func(e *GameEngine) {
		e.stepDelay = d
		e.delayOverride = true
	}
}

// NewEngine creates a new game engine with the provided configuration
func NewEngine(config *GameConfig, opts ...Option) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	e := newEngine(config, opts)
	return e, nil
}

// NewEngineWithDefaults creates a new game engine with default configuration
func NewEngineWithDefaults(opts ...Option) *GameEngine {
	return newEngine(DefaultGameConfig(), opts)
}

func newEngine(config *GameConfig, opts []Option) *GameEngine {
	e := &GameEngine{config: config}
	for _, opt := range opts {
		opt(e)
	}
	if e.dice == nil {
		e.dice = NewRandomDice(0)
	}
	if !e.delayOverride {
		e.stepDelay = config.StepDelay()
	}
	e.state = InitGameStateFromConfig(config)
	return e
}

// SetNotifier replaces the receiver of outbound notifications.
func (e *GameEngine) SetNotifier(n Notifier) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notifier = n
}

// GetState returns a snapshot of the current game state
func (e *GameEngine) GetState() *GameState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Copy()
}

// SettledState is GetState for persistence: while a paced move is between
// steps it returns the state from before the roll or selection that started
// the move, which SetState accepts.
func (e *GameEngine) SettledState() *GameState {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Moving != nil && e.settled != nil {
		return e.settled.Copy()
	}
	return e.state.Copy()
}

// GetConfig returns the current game configuration
func (e *GameEngine) GetConfig() *GameConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.config
}

// SetState replaces the game state (used for persistence loading). A move
// in flight is discarded.
func (e *GameEngine) SetState(state *GameState) error {
	if err := ValidateState(state); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	restored := state.Copy()
	if restored.Eligible == nil {
		restored.Eligible = []int{}
	}
	if restored.MoveHistory == nil {
		restored.MoveHistory = []MoveHistoryEntry{}
	}
	if restored.CurrentMoves == nil {
		restored.CurrentMoves = []MoveHistoryEntry{}
	}

	e.generation++
	e.settled = nil
	e.config = configForState(e.config, restored)
	e.state = restored
	return nil
}

// configForState keeps the roster of a restored state across later resets.
func configForState(config *GameConfig, state *GameState) *GameConfig {
	c := *config
	c.Players = len(state.Roster)
	c.TeamMode = state.TeamMode
	c.Seats = append([]board.Seat(nil), state.Roster...)
	if state.ConfigName != "" {
		c.Name = state.ConfigName
	}
	return &c
}

// ActiveSeat returns the seat whose turn it is.
func (e *GameEngine) ActiveSeat() board.Seat {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.ActiveSeat()
}

// EligiblePieces reports which pieces of seat could move dice cells now.
func (e *GameEngine) EligiblePieces(seat board.Seat, dice int) []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return EligiblePieces(e.state, seat, dice)
}

// IsGameOver returns whether the game is over
func (e *GameEngine) IsGameOver() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Phase == GameOver
}

// Winner returns the recorded winner, or nil while the game runs.
func (e *GameEngine) Winner() *Winner {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Winner == nil {
		return nil
	}
	w := *e.state.Winner
	return &w
}

// HasWon reports whether seat satisfies the win condition.
func (e *GameEngine) HasWon(seat board.Seat) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return HasWon(e.state, seat)
}

// GetMoveHistory returns the complete move history
func (e *GameEngine) GetMoveHistory() []MoveHistoryEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return copyHistory(e.state.MoveHistory)
}

// GetLastMove returns the last move made, or nil if no moves
func (e *GameEngine) GetLastMove() *MoveHistoryEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.state.MoveHistory) == 0 {
		return nil
	}
	last := copyHistory(e.state.MoveHistory[len(e.state.MoveHistory)-1:])[0]
	return &last
}

// Roll throws the die for the active seat. With no legal move the turn
// passes; a single legal move is played at once; otherwise the engine waits
// for Select.
func (e *GameEngine) Roll(ctx context.Context) *Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	events := &EventLog{}
	n := e.fanout(events)

	if e.state.Phase != AwaitingRoll {
		return e.reject(events, ActionRoll, e.state.ActiveSeat(), -1,
			fmt.Sprintf("cannot roll while %s", e.state.Phase))
	}

	seat := e.state.ActiveSeat()
	before := e.state.Copy()
	value := e.dice.Roll()
	if value < 1 || value > DiceFaces {
		panic(fmt.Sprintf("engine: dice returned %d", value))
	}

	e.state.DiceValue = value
	e.state.Phase = Rolled
	n.DiceDisabled()
	n.DiceValueChanged(value)

	eligible := EligiblePieces(e.state, seat, value)
	out := &Outcome{
		Accepted: true,
		Action:   ActionRoll,
		Seat:     seat,
		Dice:     value,
		Eligible: eligible,
	}

	switch len(eligible) {
	case 0:
		entry := e.recordPass(seat, value)
		out.Move = &entry
		noMoves := render(e.config.message(func(m Messages) string { return m.NoMoves }), SeatLabel(seat), value)
		e.advanceTurn(n)
		e.state.Message = noMoves + " " + e.state.Message
	case 1:
		e.settled = before
		out.Move = e.executeMove(ctx, n, seat, eligible[0], value)
		if out.Move == nil {
			out.Reason = "move discarded by reset"
		}
	default:
		e.state.Eligible = append([]int{}, eligible...)
		e.state.Message = render(e.config.message(func(m Messages) string { return m.ChoosePiece }), SeatLabel(seat), value)
		n.PiecesEligible(seat, eligible)
	}

	out.Events = events.Events
	out.State = e.state.Copy()
	return out
}

// Select moves one of the pieces offered after a roll.
func (e *GameEngine) Select(ctx context.Context, seat board.Seat, piece int) *Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	events := &EventLog{}
	n := e.fanout(events)

	switch {
	case e.state.Phase != Rolled:
		return e.reject(events, ActionSelect, seat, piece,
			fmt.Sprintf("cannot select a piece while %s", e.state.Phase))
	case seat != e.state.ActiveSeat():
		return e.reject(events, ActionSelect, seat, piece,
			fmt.Sprintf("it is %s's turn", e.state.ActiveSeat()))
	case !contains(e.state.Eligible, piece):
		return e.reject(events, ActionSelect, seat, piece,
			fmt.Sprintf("piece %d is not eligible", piece))
	}

	dice := e.state.DiceValue
	out := &Outcome{Accepted: true, Action: ActionSelect, Seat: seat, Dice: dice}
	e.settled = e.state.Copy()
	out.Move = e.executeMove(ctx, n, seat, piece, dice)
	if out.Move == nil {
		out.Reason = "move discarded by reset"
	}

	out.Events = events.Events
	out.State = e.state.Copy()
	return out
}

// Reset restores the initial board of the current configuration. It is
// accepted in every phase and discards a move in flight. Move history stays
// cumulative.
func (e *GameEngine) Reset() *Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resetLocked(ActionReset)
}

// SetConfig sets a new game configuration and resets the game
func (e *GameEngine) SetConfig(config *GameConfig) (*Outcome, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.config = config
	if !e.delayOverride {
		e.stepDelay = config.StepDelay()
	}
	return e.resetLocked(ActionConfigure), nil
}

func (e *GameEngine) resetLocked(action string) *Outcome {
	events := &EventLog{}
	n := e.fanout(events)

	e.generation++
	e.settled = nil

	// Preserve cumulative history and totals across resets
	prevHistory := e.state.MoveHistory
	prevTotal := e.state.TotalMoves

	e.state = InitGameStateFromConfig(e.config)

	e.state.MoveHistory = prevHistory
	e.state.TotalMoves = prevTotal

	for _, seat := range e.state.Roster {
		for piece, pos := range e.state.Positions[seat] {
			n.PieceMoved(seat, piece, pos)
		}
	}
	n.TurnChanged(e.state.ActiveSeat())
	n.DiceValueChanged(0)
	n.HighlightsCleared()
	n.DiceEnabled()

	return &Outcome{
		Accepted: true,
		Action:   action,
		Seat:     e.state.ActiveSeat(),
		Events:   events.Events,
		State:    e.state.Copy(),
	}
}

// executeMove plays a planned move and resolves its consequences. It returns
// nil if a reset discarded the move while it was paused between steps. The
// caller must hold the lock.
func (e *GameEngine) executeMove(ctx context.Context, n Notifier, seat board.Seat, piece, dice int) *MoveHistoryEntry {
	path, ok := PlanMove(e.state, seat, piece, dice)
	if !ok {
		panic(fmt.Sprintf("engine: %s piece %d cannot move %d", seat, piece, dice))
	}

	gen := e.generation
	from := e.state.Position(seat, piece)
	e.state.Phase = MoveInProgress
	e.state.Eligible = []int{}
	e.state.Moving = &PieceRef{Seat: seat, Piece: piece}
	n.HighlightsCleared()

	delay := e.stepDelay
	for i, pos := range path {
		e.state.setPosition(seat, piece, pos)
		n.PieceMoved(seat, piece, pos)

		if delay > 0 && i < len(path)-1 {
			e.mu.Unlock()
			delay = pause(ctx, delay)
			e.mu.Lock()
			if e.generation != gen {
				log.Debug().Str("seat", seat.String()).Int("piece", piece).
					Msg("move discarded by reset")
				return nil
			}
		}
	}
	e.state.Moving = nil
	e.settled = nil

	captures := ResolveCapture(e.state, seat, piece)
	for _, c := range captures {
		n.PieceCaptured(c)
		n.PieceMoved(c.Seat, c.Piece, c.To)
	}

	won := HasWon(e.state, seat)
	kept := !won && (len(captures) > 0 || dice == ExitRoll)

	entry := MoveHistoryEntry{
		Action:   ActionMove,
		Seat:     seat,
		Piece:    piece,
		Dice:     dice,
		From:     from,
		To:       path[len(path)-1],
		Path:     path,
		Captures: captures,
		KeptTurn: kept,
	}
	e.appendHistory(&entry)

	switch {
	case won:
		w := winnerFor(e.state, seat)
		e.state.Phase = GameOver
		e.state.Winner = &w
		e.state.Message = render(e.config.message(func(m Messages) string { return m.Victory }), WinnerLabel(w))
		n.HighlightsCleared()
		n.GameOver(w)
	case kept:
		e.state.Phase = AwaitingRoll
		msg := render(e.config.message(func(m Messages) string { return m.ExtraTurn }), SeatLabel(seat))
		if len(captures) > 0 {
			msg = render(e.config.message(func(m Messages) string { return m.Captured }), SeatLabel(seat), len(captures)) + " " + msg
		}
		e.state.Message = msg
		n.DiceEnabled()
	default:
		e.advanceTurn(n)
	}

	return &entry
}

// advanceTurn hands the dice to the next seat of the roster.
func (e *GameEngine) advanceTurn(n Notifier) {
	e.state.Turn = (e.state.Turn + 1) % len(e.state.Roster)
	e.state.Phase = AwaitingRoll
	e.state.Eligible = []int{}
	next := e.state.ActiveSeat()
	e.state.Message = render(e.config.message(func(m Messages) string { return m.NextTurn }), SeatLabel(next))
	n.TurnChanged(next)
	n.HighlightsCleared()
	n.DiceEnabled()
}

func (e *GameEngine) recordPass(seat board.Seat, dice int) MoveHistoryEntry {
	entry := MoveHistoryEntry{
		Action: ActionPass,
		Seat:   seat,
		Piece:  -1,
		Dice:   dice,
	}
	e.appendHistory(&entry)
	return entry
}

// appendHistory adds an entry to the cumulative and the current history.
func (e *GameEngine) appendHistory(entry *MoveHistoryEntry) {
	entry.ID = uuid.NewString()
	entry.MoveNumber = e.state.TotalMoves + 1
	entry.Timestamp = time.Now().Unix()

	e.state.MoveHistory = append(e.state.MoveHistory, *entry)
	e.state.TotalMoves++
	e.state.CurrentMoves = append(e.state.CurrentMoves, *entry)
	e.state.CurrentMovesCount++
}

func (e *GameEngine) reject(events *EventLog, action string, seat board.Seat, piece int, reason string) *Outcome {
	log.Debug().
		Str("action", action).
		Str("seat", seat.String()).
		Int("piece", piece).
		Str("phase", string(e.state.Phase)).
		Msg("ignored request: " + reason)
	return &Outcome{
		Accepted: false,
		Reason:   reason,
		Action:   action,
		Seat:     seat,
		Events:   append([]Event{}, events.Events...),
		State:    e.state.Copy(),
	}
}

func (e *GameEngine) fanout(events *EventLog) Notifier {
	return Fanout{events, e.notifier}
}

// pause waits for d unless ctx is done, in which case it returns 0 so the
// rest of the move is applied without delay.
func pause(ctx context.Context, d time.Duration) time.Duration {
	if ctx == nil {
		ctx = context.Background()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return 0
	case <-timer.C:
		return d
	}
}

func contains(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
