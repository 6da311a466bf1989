package board

import (
	"fmt"
	"strings"
)

// Position is a symbolic location code. It never carries screen coordinates.
type Position int

// Seat identifies one of the four fixed player corners.
type Seat int

const (
	P1 Seat = iota
	P2
	P3
	P4
)

const (
	TrackLength   = 52
	LastTrackCell = TrackLength - 1
	PiecesPerSeat = 4
	LaneLength    = 6
	SeatCount     = 4
)

// AllSeats lists every seat in table order.
var AllSeats = []Seat{P1, P2, P3, P4}

var seatNames = [SeatCount]string{"P1", "P2", "P3", "P4"}
var seatColors = [SeatCount]string{"red", "green", "yellow", "blue"}

// String returns the seat identifier ("P1".."P4").
func (s Seat) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Seat(%d)", int(s))
	}
	return seatNames[s]
}

// Color returns the conventional piece color for the seat.
func (s Seat) Color() string {
	if !s.Valid() {
		return ""
	}
	return seatColors[s]
}

// Valid reports whether s is one of the four seats.
func (s Seat) Valid() bool {
	return s >= P1 && s <= P4
}

// MarshalText encodes the seat as its identifier.
func (s Seat) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid seat %d", int(s))
	}
	return []byte(seatNames[s]), nil
}

// UnmarshalText accepts "P1".."P4" (case-insensitive) or a color name.
func (s *Seat) UnmarshalText(text []byte) error {
	seat, err := ParseSeat(string(text))
	if err != nil {
		return err
	}
	*s = seat
	return nil
}

// ParseSeat parses a seat identifier or color name.
func ParseSeat(v string) (Seat, error) {
	v = strings.TrimSpace(strings.ToLower(v))
	for i := range seatNames {
		if v == strings.ToLower(seatNames[i]) || v == seatColors[i] {
			return Seat(i), nil
		}
	}
	return 0, fmt.Errorf("unknown seat %q", v)
}

// Path is the precomputed route table of a single seat.
type Path struct {
	Seat          Seat
	Base          [PiecesPerSeat]Position
	Start         Position
	TurningPoint  Position
	EntranceStart Position
	Home          Position
}

var (
	paths [SeatCount]Path

	safeCells = map[Position]bool{
		0: true, 8: true, 13: true, 21: true,
		26: true, 34: true, 39: true, 47: true,
	}
)

func init() {
	starts := [SeatCount]Position{0, 26, 13, 39}
	turning := [SeatCount]Position{50, 24, 11, 37}

	for i, seat := range AllSeats {
		baseOrigin := Position(500 + 100*i)
		laneOrigin := Position(100 * (i + 1))

		p := Path{
			Seat:          seat,
			Start:         starts[i],
			TurningPoint:  turning[i],
			EntranceStart: laneOrigin,
			Home:          laneOrigin + LaneLength,
		}
		for piece := range p.Base {
			p.Base[piece] = baseOrigin + Position(piece)
		}
		paths[i] = p
	}
}

// PathOf returns the route table for seat. It panics on an invalid seat.
func PathOf(seat Seat) Path {
	if !seat.Valid() {
		panic(fmt.Sprintf("board: invalid seat %d", int(seat)))
	}
	return paths[seat]
}

// IsBase reports whether pos is one of the seat's base slots.
func (p Path) IsBase(pos Position) bool {
	for _, b := range p.Base {
		if b == pos {
			return true
		}
	}
	return false
}

// IsHomeEntrance reports whether pos lies in the seat's private lane.
func (p Path) IsHomeEntrance(pos Position) bool {
	return pos >= p.EntranceStart && pos < p.Home
}

// IsHome reports whether pos is the seat's terminal code.
func (p Path) IsHome(pos Position) bool {
	return pos == p.Home
}

// IsTrack reports whether pos is a common-track cell.
func IsTrack(pos Position) bool {
	return pos >= 0 && pos <= LastTrackCell
}

// Owns reports whether pos is a legal code for a piece of this seat.
func (p Path) Owns(pos Position) bool {
	return IsTrack(pos) || p.IsBase(pos) || p.IsHomeEntrance(pos) || p.IsHome(pos)
}

// BaseSlot returns the fixed base code of the given piece index.
func (p Path) BaseSlot(piece int) Position {
	return p.Base[piece]
}

// IsSafe reports whether pos is a capture-free common-track cell.
func IsSafe(pos Position) bool {
	return safeCells[pos]
}

// SafeCells returns the safe-cell set in ascending order.
func SafeCells() []Position {
	return []Position{0, 8, 13, 21, 26, 34, 39, 47}
}

// AdvanceOneStep returns the cell one step ahead of pos along seat's route.
// pos must be on the track or in the entrance lane: calling it at home or at
// base is a contract violation and panics.
func AdvanceOneStep(seat Seat, pos Position) Position {
	p := PathOf(seat)
	if p.IsHome(pos) {
		panic(fmt.Sprintf("board: %s advanced from home %d", seat, pos))
	}
	if p.IsBase(pos) || !p.Owns(pos) {
		panic(fmt.Sprintf("board: %s advanced from off-route position %d", seat, pos))
	}

	switch {
	case pos == p.TurningPoint:
		return p.EntranceStart
	case p.IsHomeEntrance(pos):
		return pos + 1
	case pos == LastTrackCell:
		return 0
	default:
		return pos + 1
	}
}

// Walk returns the ordered cells visited when moving steps cells from pos.
// ok is false when the move would pass beyond home; the partial path is
// discarded in that case. pos must not be a base slot.
func Walk(seat Seat, pos Position, steps int) ([]Position, bool) {
	p := PathOf(seat)
	if steps <= 0 || p.IsBase(pos) || p.IsHome(pos) {
		return nil, false
	}

	cells := make([]Position, 0, steps)
	cur := pos
	for i := 0; i < steps; i++ {
		if p.IsHome(cur) {
			return nil, false
		}
		cur = AdvanceOneStep(seat, cur)
		cells = append(cells, cur)
	}
	return cells, true
}

// StepsToHome returns how many single steps separate pos from home, or -1
// for a base slot or a code the seat does not own.
func StepsToHome(seat Seat, pos Position) int {
	p := PathOf(seat)
	if p.IsBase(pos) || !p.Owns(pos) {
		return -1
	}
	n := 0
	for cur := pos; !p.IsHome(cur); n++ {
		cur = AdvanceOneStep(seat, cur)
	}
	return n
}

// RouteLength is the number of steps from the start cell to home.
func RouteLength(seat Seat) int {
	return StepsToHome(seat, PathOf(seat).Start)
}
