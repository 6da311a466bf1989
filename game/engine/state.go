package engine

import (
	"errors"
	"fmt"

	"github.com/wricardo/ludo-game/game/board"
)

// ErrInvalidState is returned when a restored state breaks a board invariant.
var ErrInvalidState = errors.New("invalid game state")

func invalidState(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}

// ValidateState checks that state could have been produced by legal play.
func ValidateState(state *GameState) error {
	if state == nil {
		return invalidState("state cannot be nil")
	}

	n := len(state.Roster)
	if n < MinPlayers || n > MaxPlayers {
		return invalidState("roster must have %d to %d seats, got %d", MinPlayers, MaxPlayers, n)
	}
	if state.TeamMode && n != MaxPlayers {
		return invalidState("team mode requires %d seats", MaxPlayers)
	}
	seen := make(map[board.Seat]bool, n)
	for _, seat := range state.Roster {
		if !seat.Valid() || seen[seat] {
			return invalidState("roster seat %d is invalid or repeated", int(seat))
		}
		seen[seat] = true
	}
	if state.Turn < 0 || state.Turn >= n {
		return invalidState("turn %d out of range", state.Turn)
	}

	for _, seat := range state.Roster {
		pieces, ok := state.Positions[seat]
		if !ok {
			return invalidState("missing positions for %s", seat)
		}
		p := board.PathOf(seat)
		for i, pos := range pieces {
			if !p.Owns(pos) {
				return invalidState("%s piece %d at %d is not on its route", seat, i, pos)
			}
			if p.IsBase(pos) && pos != p.BaseSlot(i) {
				return invalidState("%s piece %d sits in base slot %d", seat, i, pos)
			}
		}
	}
	for seat := range state.Positions {
		if !seen[seat] {
			return invalidState("positions for %s which is not playing", seat)
		}
	}

	if state.DiceValue < 0 || state.DiceValue > DiceFaces {
		return invalidState("dice value %d out of range", state.DiceValue)
	}

	switch state.Phase {
	case AwaitingRoll:
	case Rolled:
		want := EligiblePieces(state, state.ActiveSeat(), state.DiceValue)
		if len(state.Eligible) < 2 || !sameSet(want, state.Eligible) {
			return invalidState("eligible pieces %v do not match dice %d", state.Eligible, state.DiceValue)
		}
	case MoveInProgress:
		return invalidState("a move in progress cannot be restored")
	case GameOver:
		if state.Winner == nil || !HasWon(state, state.Winner.Seat) {
			return invalidState("game over without a winner")
		}
	default:
		return invalidState("unknown phase %q", state.Phase)
	}
	return nil
}

func sameSet(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	in := make(map[int]bool, len(a))
	for _, v := range a {
		in[v] = true
	}
	for _, v := range b {
		if !in[v] {
			return false
		}
	}
	return true
}
