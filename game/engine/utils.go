package engine

import (
	"fmt"

	"github.com/wricardo/ludo-game/game/board"
)

// PiecesHome counts the pieces of seat that reached home.
func PiecesHome(state *GameState, seat board.Seat) int {
	home := board.PathOf(seat).Home
	count := 0
	for _, pos := range state.Positions[seat] {
		if pos == home {
			count++
		}
	}
	return count
}

// PiecesAtBase counts the pieces of seat still waiting in base.
func PiecesAtBase(state *GameState, seat board.Seat) int {
	p := board.PathOf(seat)
	count := 0
	for _, pos := range state.Positions[seat] {
		if p.IsBase(pos) {
			count++
		}
	}
	return count
}

// Progress returns the share of the full route (all four pieces) that seat
// has covered, between 0 and 1.
func Progress(state *GameState, seat board.Seat) float64 {
	route := board.RouteLength(seat)
	covered := 0
	for _, pos := range state.Positions[seat] {
		if left := board.StepsToHome(seat, pos); left >= 0 {
			covered += route - left + 1
		}
	}
	return float64(covered) / float64(board.PiecesPerSeat*(route+1))
}

// Leader returns the roster seat with the highest progress. Ties go to the
// seat earlier in turn order.
func Leader(state *GameState) (board.Seat, bool) {
	if len(state.Roster) == 0 {
		return 0, false
	}
	best, bestProgress := state.Roster[0], Progress(state, state.Roster[0])
	for _, seat := range state.Roster[1:] {
		if p := Progress(state, seat); p > bestProgress {
			best, bestProgress = seat, p
		}
	}
	return best, true
}

// SeatLabel is the player-facing name of a seat, e.g. "P1 (red)".
func SeatLabel(seat board.Seat) string {
	return fmt.Sprintf("%s (%s)", seat, seat.Color())
}

// WinnerLabel describes a winner, naming both members in team mode.
func WinnerLabel(w Winner) string {
	if w.Team == "" {
		return SeatLabel(w.Seat)
	}
	members, ok := board.Members(w.Team)
	if !ok {
		return "Team " + string(w.Team)
	}
	return fmt.Sprintf("Team %s (%s + %s)", w.Team, members[0], members[1])
}
