package engine

import (
	"time"

	"github.com/wricardo/ludo-game/game/board"
)

// Notifier receives the outbound notifications of the state machine. Calls
// are made while the engine holds its lock, so implementations must not call
// back into the engine.
type Notifier interface {
	DiceValueChanged(value int)
	TurnChanged(seat board.Seat)
	PieceMoved(seat board.Seat, piece int, pos board.Position)
	PieceCaptured(capture Capture)
	PiecesEligible(seat board.Seat, pieces []int)
	HighlightsCleared()
	DiceEnabled()
	DiceDisabled()
	GameOver(winner Winner)
}

// Event type names, as they appear on the wire.
const (
	EventDiceValueChanged  = "dice_value_changed"
	EventTurnChanged       = "turn_changed"
	EventPieceMoved        = "piece_moved"
	EventPieceCaptured     = "piece_captured"
	EventPiecesEligible    = "pieces_eligible"
	EventHighlightsCleared = "highlights_cleared"
	EventDiceEnabled       = "dice_enabled"
	EventDiceDisabled      = "dice_disabled"
	EventGameOver          = "game_over"
)

// Event is the recorded form of one notification.
type Event struct {
	Type      string          `json:"type"`
	Seat      *board.Seat     `json:"seat,omitempty"`
	Piece     *int            `json:"piece,omitempty"`
	Position  *board.Position `json:"position,omitempty"`
	Value     int             `json:"value,omitempty"`
	Pieces    []int           `json:"pieces,omitempty"`
	Capture   *Capture        `json:"capture,omitempty"`
	Winner    *Winner         `json:"winner,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// EventFunc adapts a function receiving recorded events to Notifier.
type EventFunc func(Event)

func (f EventFunc) emit(ev Event) {
	ev.Timestamp = time.Now()
	f(ev)
}

func (f EventFunc) DiceValueChanged(value int) {
	f.emit(Event{Type: EventDiceValueChanged, Value: value})
}

func (f EventFunc) TurnChanged(seat board.Seat) {
	f.emit(Event{Type: EventTurnChanged, Seat: &seat})
}

func (f EventFunc) PieceMoved(seat board.Seat, piece int, pos board.Position) {
	f.emit(Event{Type: EventPieceMoved, Seat: &seat, Piece: &piece, Position: &pos})
}

func (f EventFunc) PieceCaptured(capture Capture) {
	f.emit(Event{Type: EventPieceCaptured, Seat: &capture.Seat, Piece: &capture.Piece, Capture: &capture})
}

func (f EventFunc) PiecesEligible(seat board.Seat, pieces []int) {
	f.emit(Event{Type: EventPiecesEligible, Seat: &seat, Pieces: append([]int{}, pieces...)})
}

func (f EventFunc) HighlightsCleared() { f.emit(Event{Type: EventHighlightsCleared}) }
func (f EventFunc) DiceEnabled()       { f.emit(Event{Type: EventDiceEnabled}) }
func (f EventFunc) DiceDisabled()      { f.emit(Event{Type: EventDiceDisabled}) }

func (f EventFunc) GameOver(winner Winner) {
	f.emit(Event{Type: EventGameOver, Seat: &winner.Seat, Winner: &winner})
}

// EventLog records every notification in order.
type EventLog struct {
	Events []Event
}

func (l *EventLog) sink() EventFunc {
	return func(ev Event) { l.Events = append(l.Events, ev) }
}

func (l *EventLog) DiceValueChanged(value int)  { l.sink().DiceValueChanged(value) }
func (l *EventLog) TurnChanged(seat board.Seat) { l.sink().TurnChanged(seat) }

func (l *EventLog) PieceMoved(seat board.Seat, piece int, pos board.Position) {
	l.sink().PieceMoved(seat, piece, pos)
}

func (l *EventLog) PieceCaptured(capture Capture) { l.sink().PieceCaptured(capture) }

func (l *EventLog) PiecesEligible(seat board.Seat, pieces []int) {
	l.sink().PiecesEligible(seat, pieces)
}

func (l *EventLog) HighlightsCleared()     { l.sink().HighlightsCleared() }
func (l *EventLog) DiceEnabled()           { l.sink().DiceEnabled() }
func (l *EventLog) DiceDisabled()          { l.sink().DiceDisabled() }
func (l *EventLog) GameOver(winner Winner) { l.sink().GameOver(winner) }

// Types returns the event type names in order.
func (l *EventLog) Types() []string {
	out := make([]string, len(l.Events))
	for i, ev := range l.Events {
		out[i] = ev.Type
	}
	return out
}

// Fanout forwards every notification to each non-nil member.
type Fanout []Notifier

func (f Fanout) each(fn func(Notifier)) {
	for _, n := range f {
		if n != nil {
			fn(n)
		}
	}
}

func (f Fanout) DiceValueChanged(value int) { f.each(func(n Notifier) { n.DiceValueChanged(value) }) }
func (f Fanout) TurnChanged(seat board.Seat) { f.each(func(n Notifier) { n.TurnChanged(seat) }) }

func (f Fanout) PieceMoved(seat board.Seat, piece int, pos board.Position) {
	f.each(func(n Notifier) { n.PieceMoved(seat, piece, pos) })
}

func (f Fanout) PieceCaptured(capture Capture) { f.each(func(n Notifier) { n.PieceCaptured(capture) }) }

func (f Fanout) PiecesEligible(seat board.Seat, pieces []int) {
	f.each(func(n Notifier) { n.PiecesEligible(seat, pieces) })
}

func (f Fanout) HighlightsCleared()     { f.each(func(n Notifier) { n.HighlightsCleared() }) }
func (f Fanout) DiceEnabled()           { f.each(func(n Notifier) { n.DiceEnabled() }) }
func (f Fanout) DiceDisabled()          { f.each(func(n Notifier) { n.DiceDisabled() }) }
func (f Fanout) GameOver(winner Winner) { f.each(func(n Notifier) { n.GameOver(winner) }) }

// NopNotifier discards every notification.
type NopNotifier struct{}

func (NopNotifier) DiceValueChanged(int)                       {}
func (NopNotifier) TurnChanged(board.Seat)                     {}
func (NopNotifier) PieceMoved(board.Seat, int, board.Position) {}
func (NopNotifier) PieceCaptured(Capture)                      {}
func (NopNotifier) PiecesEligible(board.Seat, []int)           {}
func (NopNotifier) HighlightsCleared()                         {}
func (NopNotifier) DiceEnabled()                               {}
func (NopNotifier) DiceDisabled()                              {}
func (NopNotifier) GameOver(Winner)                            {}
