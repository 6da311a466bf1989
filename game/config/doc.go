// Package config loads the named game presets of the Ludo server.
//
// Presets are JSON files in a config directory. The file name without the
// .json extension is the config id used when creating a session. Each file
// decodes into an engine.GameConfig:
//
//	{
//	  "name": "teams",
//	  "description": "Two against two, partners sit opposite",
//	  "players": 4,
//	  "team_mode": true,
//	  "step_delay_ms": 120
//	}
//
// Every preset is validated with engine.ValidateGameConfig before it is
// cached. Invalid files are skipped by ListConfigs and reported as
// ErrInvalidConfig by LoadConfig.
//
// The default preset is "classic". When the directory holds no usable
// preset the manager falls back to engine.DefaultGameConfig.
package config
