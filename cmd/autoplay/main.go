// Command autoplay drives a Ludo session to the end through the REST API,
// picking pieces for every seat with a random or fixed picker. It is a smoke
// and load driver for a running server. It resumes the session saved in
// .session unless told otherwise.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/ludo-game/game/board"
	"github.com/wricardo/ludo-game/game/engine"
)

// Report summarizes one played game.
type Report struct {
	Requests int
	Rolls    int
	Moves    int
	Passes   int
	Ignored  int
	Captures map[board.Seat]int
	Winner   *engine.Winner
}

// PlayOptions bound a game.
type PlayOptions struct {
	MaxRequests int
	Delay       time.Duration
	Verbose     bool
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	cmd := &cli.Command{
		Name:  "autoplay",
		Usage: "play a Ludo session to the end through the REST API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "game server URL"},
			&cli.StringFlag{Name: "config", Usage: "configuration preset for a new session (duel, trio, classic, teams)"},
			&cli.StringFlag{Name: "continue", Usage: "resume an existing session by ID"},
			&cli.StringFlag{Name: "session-file", Value: ".session", Usage: "file remembering the last session ID"},
			&cli.StringFlag{Name: "strategy", Value: "random", Usage: "piece picker: random or first"},
			&cli.Uint64Flag{Name: "seed", Usage: "seed for the random strategy (0 draws one)"},
			&cli.IntFlag{Name: "max-requests", Value: 20000, Usage: "give up after this many requests"},
			&cli.DurationFlag{Name: "delay", Usage: "pause between requests"},
			&cli.BoolFlag{Name: "v", Usage: "log every move"},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("autoplay failed")
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	strategy, err := NewStrategy(cmd.String("strategy"), cmd.Uint64("seed"))
	if err != nil {
		return err
	}

	client := NewClient(cmd.String("url"))
	log.Info().Str("url", cmd.String("url")).Msg("connecting to game server")

	sessionFile := cmd.String("session-file")
	savedID := cmd.String("continue")
	if savedID == "" && sessionFile != "" {
		if data, err := os.ReadFile(sessionFile); err == nil {
			savedID = string(bytes.TrimSpace(data))
		}
	}

	if savedID != "" {
		client.Use(savedID)
		if _, err := client.GetState(ctx); err != nil {
			log.Warn().Err(err).Str("session", savedID).Msg("failed to resume session (may be expired)")
			savedID = ""
		} else {
			log.Info().Str("session", savedID).Msg("resuming session")
		}
	}

	if savedID == "" {
		if _, err := client.CreateSession(ctx, cmd.String("config")); err != nil {
			return err
		}
		log.Info().Str("session", client.SessionID()).Msg("session created")
		if sessionFile != "" {
			if err := os.WriteFile(sessionFile, []byte(client.SessionID()), 0o644); err != nil {
				log.Warn().Err(err).Msg("failed to save session ID")
			}
		}
	}

	if _, err := client.Reset(ctx); err != nil {
		return err
	}

	report, err := Play(ctx, client, strategy, PlayOptions{
		MaxRequests: int(cmd.Int("max-requests")),
		Delay:       cmd.Duration("delay"),
		Verbose:     cmd.Bool("v"),
	})
	if err != nil {
		return err
	}

	evt := log.Info().
		Str("session", client.SessionID()).
		Str("strategy", strategy.Name()).
		Int("rolls", report.Rolls).
		Int("moves", report.Moves).
		Int("passes", report.Passes).
		Int("ignored", report.Ignored)
	for seat, n := range report.Captures {
		evt = evt.Int("captures_"+seat.String(), n)
	}
	if report.Winner == nil {
		evt.Msg("no winner")
		return fmt.Errorf("game unfinished after %d requests", report.Requests)
	}
	evt.Msg(engine.WinnerLabel(*report.Winner))
	return nil
}

// Play rolls and selects until the game ends or the request budget runs out.
// Rejected requests, for instance while another client's move is still
// animating, are counted and retried.
func Play(ctx context.Context, client *Client, strategy Strategy, opts PlayOptions) (*Report, error) {
	report := &Report{Captures: map[board.Seat]int{}}

	state, err := client.GetState(ctx)
	if err != nil {
		return nil, err
	}

	for state.Phase != engine.GameOver && report.Requests < opts.MaxRequests {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		var accepted bool
		var move *engine.MoveHistoryEntry
		if state.Phase == engine.Rolled {
			accepted, move, state, err = selectPiece(ctx, client, strategy)
		} else {
			accepted, move, state, err = roll(ctx, client, report)
		}
		report.Requests++
		if err != nil {
			return report, err
		}
		if state == nil {
			return report, errNoState
		}
		if !accepted {
			report.Ignored++
		}
		if move != nil {
			record(report, move, opts.Verbose)
		}

		if opts.Delay > 0 {
			select {
			case <-ctx.Done():
				return report, ctx.Err()
			case <-time.After(opts.Delay):
			}
		}
	}

	report.Winner = state.Winner
	return report, nil
}

func roll(ctx context.Context, client *Client, report *Report) (bool, *engine.MoveHistoryEntry, *engine.GameState, error) {
	result, err := client.Roll(ctx)
	if err != nil {
		return false, nil, nil, err
	}
	if result.Success {
		report.Rolls++
	}
	return result.Success, result.Move, result.GameState, nil
}

func selectPiece(ctx context.Context, client *Client, strategy Strategy) (bool, *engine.MoveHistoryEntry, *engine.GameState, error) {
	info, err := client.Eligible(ctx)
	if err != nil {
		return false, nil, nil, err
	}
	if len(info.Options) == 0 {
		// The selection window closed before the read.
		state, err := client.GetState(ctx)
		return false, nil, state, err
	}

	piece := strategy.Choose(info.Seat, info.Options)
	result, err := client.Select(ctx, info.Seat, piece)
	if err != nil {
		return false, nil, nil, err
	}
	return result.Success, result.Move, result.GameState, nil
}

func record(report *Report, move *engine.MoveHistoryEntry, verbose bool) {
	if move.Action == engine.ActionPass {
		report.Passes++
	} else {
		report.Moves++
		report.Captures[move.Seat] += len(move.Captures)
	}
	if verbose {
		log.Debug().
			Int("move", move.MoveNumber).
			Str("seat", move.Seat.String()).
			Int("dice", move.Dice).
			Int("piece", move.Piece).
			Int("captures", len(move.Captures)).
			Msg(move.Action)
	}
}

var errNoState = errors.New("server returned no game state")
