// Package board describes the static topology of the four-corner race board.
//
// Every location a piece can occupy is an integer Position code. The codes
// are partitioned per seat:
//   - base: four off-track slots (500-503 for P1, 600-603 for P2, ...)
//   - common track: cells 0-51 shared by all seats, wrapping after 51
//   - home-entrance lane: six private cells (100-105 for P1, ...)
//   - home: one terminal code per seat (106 for P1, ...)
//
// The per-seat tables are built once at package initialisation and are never
// mutated. AdvanceOneStep is the only place the path through them is encoded;
// Walk applies it repeatedly to produce the ordered cells of a whole move.
//
// Usage:
//
//	path := board.PathOf(board.P1)
//	cells, ok := board.Walk(board.P1, 48, 4) // [49 50 100 101], true
//	if path.IsHome(cells[len(cells)-1]) {
//		// finished
//	}
package board
