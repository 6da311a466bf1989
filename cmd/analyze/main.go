// Command analyze plays seeded random games for each configuration in the
// configs directory and prints how long they run, how often pieces are
// captured, and which seats win.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/ludo-game/game/board"
	"github.com/wricardo/ludo-game/game/engine"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// GameStats records one simulated game.
type GameStats struct {
	Rolls    int
	Moves    int
	Passes   int
	Captures int
	Finished bool
	Winner   board.Seat
}

// Distribution summarizes a sample.
type Distribution struct {
	Mean, StdDev     float64
	Min, Max         float64
	P10, Median, P90 float64
}

// Summary aggregates the games played with one configuration.
type Summary struct {
	Config   string
	Games    int
	Finished int
	Rolls    Distribution
	Captures Distribution
	Passes   Distribution
	Wins     map[board.Seat]int
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	cmd := &cli.Command{
		Name:  "analyze",
		Usage: "simulate random games for every configuration",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "directory containing game configurations"},
			&cli.IntFlag{Name: "games", Value: 200, Usage: "games to play per configuration"},
			&cli.Uint64Flag{Name: "seed", Value: 1, Usage: "base seed; game i uses seed+i"},
			&cli.IntFlag{Name: "max-rolls", Value: 20000, Usage: "abandon a game after this many rolls"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return run(ctx, os.Stdout, cmd.String("config-dir"), int(cmd.Int("games")), cmd.Uint64("seed"), int(cmd.Int("max-rolls")))
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("analyze failed")
	}
}

func run(ctx context.Context, w io.Writer, dir string, games int, seed uint64, maxRolls int) error {
	if games <= 0 {
		return fmt.Errorf("games must be positive, got %d", games)
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no configurations in %s", dir)
	}
	sort.Strings(files)

	for _, file := range files {
		config, err := engine.LoadGameConfig(file)
		if err != nil {
			log.Warn().Err(err).Str("file", file).Msg("skipping configuration")
			continue
		}
		results := make([]GameStats, 0, games)
		for i := range games {
			g, err := SimulateGame(ctx, config, seed+uint64(i), maxRolls)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			results = append(results, g)
		}
		printSummary(w, Summarize(filepath.Base(file), results))
	}
	return nil
}

// SimulateGame plays one game to the end, choosing uniformly among the
// eligible pieces after every roll.
func SimulateGame(ctx context.Context, config *engine.GameConfig, seed uint64, maxRolls int) (GameStats, error) {
	dice := engine.NewRandomDice(seed)
	e, err := engine.NewEngine(config, engine.WithDice(dice), engine.WithStepDelay(0))
	if err != nil {
		return GameStats{}, err
	}

	var g GameStats
	for g.Rolls < maxRolls && !e.IsGameOver() {
		out := e.Roll(ctx)
		if !out.Accepted {
			return g, fmt.Errorf("roll rejected: %s", out.Reason)
		}
		g.Rolls++
		if out.State.Phase == engine.Rolled {
			out = e.Select(ctx, out.Seat, out.Eligible[dice.Intn(len(out.Eligible))])
			if !out.Accepted {
				return g, fmt.Errorf("select rejected: %s", out.Reason)
			}
		}
		if out.Move == nil {
			continue
		}
		if out.Move.Action == engine.ActionPass {
			g.Passes++
			continue
		}
		g.Moves++
		g.Captures += len(out.Move.Captures)
	}

	if w := e.Winner(); w != nil {
		g.Finished = true
		g.Winner = w.Seat
	}
	return g, nil
}

// Summarize reduces a batch of games to distributions.
func Summarize(name string, games []GameStats) Summary {
	s := Summary{Config: name, Games: len(games), Wins: map[board.Seat]int{}}
	var rolls, captures, passes []float64
	for _, g := range games {
		if !g.Finished {
			continue
		}
		s.Finished++
		s.Wins[g.Winner]++
		rolls = append(rolls, float64(g.Rolls))
		captures = append(captures, float64(g.Captures))
		passes = append(passes, float64(g.Passes))
	}
	s.Rolls = describe(rolls)
	s.Captures = describe(captures)
	s.Passes = describe(passes)
	return s
}

func describe(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var d Distribution
	d.Mean, d.StdDev = stat.MeanStdDev(sorted, nil)
	if len(sorted) == 1 {
		d.StdDev = 0
	}
	d.Min = floats.Min(sorted)
	d.Max = floats.Max(sorted)
	d.P10 = stat.Quantile(0.1, stat.Empirical, sorted, nil)
	d.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	d.P90 = stat.Quantile(0.9, stat.Empirical, sorted, nil)
	return d
}

func printSummary(w io.Writer, s Summary) {
	fmt.Fprintf(w, "\n=== %s ===\n", s.Config)
	fmt.Fprintf(w, "Games: %d (%d finished)\n", s.Games, s.Finished)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\tmean\tstddev\tmin\tp10\tmedian\tp90\tmax")
	for _, row := range []struct {
		name string
		d    Distribution
	}{{"rolls", s.Rolls}, {"captures", s.Captures}, {"passes", s.Passes}} {
		d := row.d
		fmt.Fprintf(tw, "%s\t%.1f\t%.1f\t%.0f\t%.0f\t%.0f\t%.0f\t%.0f\n",
			row.name, d.Mean, d.StdDev, d.Min, d.P10, d.Median, d.P90, d.Max)
	}
	tw.Flush()

	seats := make([]board.Seat, 0, len(s.Wins))
	for seat := range s.Wins {
		seats = append(seats, seat)
	}
	sort.Slice(seats, func(i, j int) bool { return seats[i] < seats[j] })
	for _, seat := range seats {
		share := 100 * float64(s.Wins[seat]) / float64(max(s.Finished, 1))
		fmt.Fprintf(w, "Wins %s (%s): %d (%.1f%%)\n", seat, seat.Color(), s.Wins[seat], share)
	}
}
