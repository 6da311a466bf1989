package main

import (
	"fmt"

	"github.com/wricardo/ludo-game/game/board"
	"github.com/wricardo/ludo-game/game/engine"
	"github.com/wricardo/ludo-game/game/service"
)

// Strategy picks one of the previewed moves for the active seat. The
// pickers here exercise the server; none of them tries to win.
type Strategy interface {
	Name() string
	Choose(seat board.Seat, options []service.PieceOption) int
}

// NewStrategy returns the strategy called name.
func NewStrategy(name string, seed uint64) (Strategy, error) {
	switch name {
	case "random":
		return &RandomStrategy{dice: engine.NewRandomDice(seed)}, nil
	case "first":
		return FirstStrategy{}, nil
	}
	return nil, fmt.Errorf("unknown strategy %q (want random or first)", name)
}

// FirstStrategy always moves the lowest eligible piece.
type FirstStrategy struct{}

func (FirstStrategy) Name() string { return "first" }

func (FirstStrategy) Choose(_ board.Seat, options []service.PieceOption) int {
	return options[0].Piece
}

// RandomStrategy picks uniformly among the eligible pieces.
type RandomStrategy struct {
	dice *engine.RandomDice
}

func (*RandomStrategy) Name() string { return "random" }

func (r *RandomStrategy) Choose(_ board.Seat, options []service.PieceOption) int {
	return options[r.dice.Intn(len(options))].Piece
}
