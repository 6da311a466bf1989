package board

import "fmt"

// Team names a fixed pairing of two seats.
type Team string

const (
	TeamA Team = "A"
	TeamB Team = "B"
)

var teams = map[Team][2]Seat{
	TeamA: {P1, P4},
	TeamB: {P2, P3},
}

// TeamOf returns the team a seat belongs to in team mode.
func TeamOf(seat Seat) (Team, bool) {
	for team, members := range teams {
		if members[0] == seat || members[1] == seat {
			return team, true
		}
	}
	return "", false
}

// Teammate returns the partner seat of seat in team mode.
func Teammate(seat Seat) (Seat, bool) {
	team, ok := TeamOf(seat)
	if !ok {
		return 0, false
	}
	members := teams[team]
	if members[0] == seat {
		return members[1], true
	}
	return members[0], true
}

// Members returns both seats of a team.
func Members(team Team) ([2]Seat, bool) {
	m, ok := teams[team]
	return m, ok
}

// DefaultRoster returns the seats that play for a given roster size, in
// turn order. Two players sit in opposite corners.
func DefaultRoster(players int) ([]Seat, error) {
	switch players {
	case 2:
		return []Seat{P1, P2}, nil
	case 3:
		return []Seat{P1, P4, P2}, nil
	case 4:
		return []Seat{P1, P2, P3, P4}, nil
	default:
		return nil, fmt.Errorf("roster size must be 2, 3 or 4, got %d", players)
	}
}
