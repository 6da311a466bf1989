package engine

import "github.com/wricardo/ludo-game/game/board"

// PlanMove returns the ordered positions piece visits when moved dice cells.
// A base exit is a single update to the start cell. ok is false when the
// piece is home, still at base without a six, or the move would overshoot.
func PlanMove(state *GameState, seat board.Seat, piece int, dice int) ([]board.Position, bool) {
	if piece < 0 || piece >= board.PiecesPerSeat || dice < 1 || dice > DiceFaces {
		return nil, false
	}
	if !state.InRoster(seat) {
		return nil, false
	}

	p := board.PathOf(seat)
	pos := state.Position(seat, piece)
	switch {
	case p.IsHome(pos):
		return nil, false
	case p.IsBase(pos):
		if dice != ExitRoll {
			return nil, false
		}
		return []board.Position{p.Start}, true
	}
	return board.Walk(seat, pos, dice)
}

// EligiblePieces lists, in index order, the pieces of seat that can legally
// move dice cells. It never mutates state.
func EligiblePieces(state *GameState, seat board.Seat, dice int) []int {
	eligible := []int{}
	for piece := 0; piece < board.PiecesPerSeat; piece++ {
		if _, ok := PlanMove(state, seat, piece, dice); ok {
			eligible = append(eligible, piece)
		}
	}
	return eligible
}

// ResolveCapture sends every opposing piece sharing the cell of (seat, piece)
// back to its base slot and returns what was captured. Safe cells, lanes and
// the teammate's pieces in team mode are never captured.
func ResolveCapture(state *GameState, seat board.Seat, piece int) []Capture {
	landed := state.Position(seat, piece)
	if !board.IsTrack(landed) || board.IsSafe(landed) {
		return nil
	}

	mate, hasMate := board.Teammate(seat)
	var captures []Capture
	for _, other := range state.Roster {
		if other == seat {
			continue
		}
		if state.TeamMode && hasMate && other == mate {
			continue
		}
		for i, pos := range state.Positions[other] {
			if pos != landed {
				continue
			}
			to := board.PathOf(other).BaseSlot(i)
			state.setPosition(other, i, to)
			captures = append(captures, Capture{Seat: other, Piece: i, From: pos, To: to})
		}
	}
	return captures
}

// HasWon reports whether seat has won. In team mode the teammate must also
// have all four pieces home.
func HasWon(state *GameState, seat board.Seat) bool {
	if !allHome(state, seat) {
		return false
	}
	if !state.TeamMode {
		return true
	}
	mate, ok := board.Teammate(seat)
	if !ok || !state.InRoster(mate) {
		return false
	}
	return allHome(state, mate)
}

func allHome(state *GameState, seat board.Seat) bool {
	if !state.InRoster(seat) {
		return false
	}
	home := board.PathOf(seat).Home
	for _, pos := range state.Positions[seat] {
		if pos != home {
			return false
		}
	}
	return true
}

// winnerFor builds the winner record of seat.
func winnerFor(state *GameState, seat board.Seat) Winner {
	w := Winner{Seat: seat}
	if state.TeamMode {
		w.Team, _ = board.TeamOf(seat)
	}
	return w
}
