// Package engine implements the Ludo turn state machine.
//
// A GameEngine owns the positions of every piece in the active roster, the
// current dice value, the turn index and a Phase:
//
//	AwaitingRoll --Roll--> 0 eligible pieces: turn passes, AwaitingRoll
//	                       1 eligible piece:  move is played at once
//	                       2+ eligible:       Rolled, waiting for Select
//	Rolled --Select--> MoveInProgress --> AwaitingRoll | GameOver
//
// After a move, captures are resolved before the win check. A capture or a
// six keeps the turn; a win ends the game. Requests made in the wrong phase,
// by the wrong seat or for an ineligible piece are rejected with an Outcome
// whose Accepted field is false. They are never errors.
//
// Rules are available as pure functions (EligiblePieces, PlanMove,
// ResolveCapture, HasWon) over a GameState, so callers can evaluate a board
// without an engine.
//
// Usage:
//
//	eng, err := engine.NewEngine(engine.DefaultGameConfig(),
//		engine.WithNotifier(myNotifier))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	out := eng.Roll(ctx)
//	if out.Accepted && len(out.Eligible) > 1 {
//		out = eng.Select(ctx, out.Seat, out.Eligible[0])
//	}
//
// With a step delay each cell of a move is published as a separate
// PieceMoved notification spaced by the delay. The engine lock is released
// while waiting so that Reset can discard the move.
package engine
