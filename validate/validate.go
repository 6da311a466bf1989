// Command validate checks the game configuration JSON files in a configs
// directory. For each file it checks:
//   - JSON structure, rejecting unknown keys
//   - the rules enforced when a preset is loaded (players, seats, team mode, delays, messages)
//   - that a seeded random game with the preset reaches a winner
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/ludo-game/game/engine"
)

// playoutRolls bounds the smoke game; seeded games finish far sooner.
const playoutRolls = 50000

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// validateConfig loads and validates a single configuration JSON file.
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var config engine.GameConfig
	if err := dec.Decode(&config); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	if err := engine.ValidateGameConfig(&config); err != nil {
		result.fail("%s", strings.TrimPrefix(err.Error(), "config validation: "))
		return result
	}

	playout := validatePlayout(&config)
	if !playout.Valid {
		result.Valid = false
	}
	result.Errors = append(result.Errors, playout.Errors...)

	if result.Valid {
		seats := make([]string, 0, config.Players)
		for _, seat := range config.Roster() {
			seats = append(seats, fmt.Sprintf("%s (%s)", seat, seat.Color()))
		}
		result.Errors = append(result.Errors,
			fmt.Sprintf("✓ Name: %s", config.Name),
			fmt.Sprintf("✓ Players: %d", config.Players),
			fmt.Sprintf("✓ Seats: %s", strings.Join(seats, ", ")),
			fmt.Sprintf("✓ Team mode: %t", config.TeamMode),
			fmt.Sprintf("✓ Step delay: %s", config.StepDelay()),
		)
	}

	return result
}

// validatePlayout plays one seeded game with the preset, choosing the first
// eligible piece each time, and reports whether a winner emerged.
func validatePlayout(config *engine.GameConfig) ValidationResult {
	result := ValidationResult{Valid: true}

	dice := engine.NewRandomDice(1)
	e, err := engine.NewEngine(config, engine.WithDice(dice), engine.WithStepDelay(0))
	if err != nil {
		result.fail("Cannot start a game: %v", err)
		return result
	}

	ctx := context.Background()
	rolls := 0
	for ; rolls < playoutRolls && !e.IsGameOver(); rolls++ {
		out := e.Roll(ctx)
		if out.State.Phase == engine.Rolled {
			e.Select(ctx, out.Seat, out.Eligible[0])
		}
	}

	w := e.Winner()
	if w == nil {
		result.fail("Game did not finish within %d rolls", playoutRolls)
		return result
	}
	winner := w.Seat.String()
	if w.Team != "" {
		winner = fmt.Sprintf("team %s", w.Team)
	}
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Playout: %s won after %d rolls", winner, rolls))
	return result
}

// validateDir validates every *.json file in dir, writing a report to w. It
// returns false if any file is invalid.
func validateDir(w io.Writer, dir string) (bool, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return false, fmt.Errorf("error finding config files: %w", err)
	}
	if len(files) == 0 {
		return false, fmt.Errorf("no config files in %s", dir)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Errors {
				fmt.Fprintln(w, "  "+info)
			}
		} else {
			fmt.Fprintln(w, "❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Fprintln(w, "  ❌ "+err)
				}
			}
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Fprintln(w, "✅ All configurations are valid!")
	} else {
		fmt.Fprintln(w, "❌ Some configurations have errors")
	}
	return allValid, nil
}

func main() {
	cmd := &cli.Command{
		Name:      "validate",
		Usage:     "validate game configuration files",
		ArgsUsage: "[config-dir]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir := "../configs"
			if cmd.Args().Present() {
				dir = cmd.Args().First()
			}
			ok, err := validateDir(os.Stdout, dir)
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("some configurations have errors")
			}
			return nil
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
