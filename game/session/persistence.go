package session

import (
	"fmt"
	"time"

	"github.com/wricardo/ludo-game/game/engine"
	"github.com/wricardo/ludo-game/game/service"
)

// SessionPersistence defines the interface for persisting sessions
type SessionPersistence interface {
	// Save persists a session to storage
	Save(session *service.Session) error

	// Load retrieves a session from storage by ID
	Load(id string) (*service.Session, error)

	// Delete removes a session from storage
	Delete(id string) error

	// ListAll returns all persisted session IDs
	ListAll() ([]string, error)

	// Exists checks if a session exists in storage
	Exists(id string) bool
}

// PersistedSessionData is the stored form of a session. GameConfig is the
// engine's effective config, which differs from the preset after a roster
// change.
type PersistedSessionData struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameConfig     *engine.GameConfig `json:"game_config,omitempty"`
	GameState      *engine.GameState  `json:"game_state"`
}

// snapshot captures the stored form of session. A move still walking is
// stored as the state before it started.
func snapshot(session *service.Session) PersistedSessionData {
	configID := session.ConfigID
	if configID == "" && session.Config != nil {
		configID = session.Config.Name
	}
	return PersistedSessionData{
		ID:             session.ID,
		ConfigName:     configID,
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
		GameConfig:     session.Engine.GetConfig(),
		GameState:      session.Engine.SettledState(),
	}
}

// restore rebuilds a session from its stored form. The preset is looked up
// by id; a preset deleted since the save falls back to the stored config.
func restore(data PersistedSessionData, configs service.ConfigManager, opts []engine.Option) (*service.Session, error) {
	if data.GameState == nil {
		return nil, fmt.Errorf("session %s has no game state", data.ID)
	}

	var preset *engine.GameConfig
	if configs != nil && data.ConfigName != "" {
		if loaded, err := configs.LoadConfig(data.ConfigName); err == nil {
			preset = loaded
		}
	}

	effective := data.GameConfig
	switch {
	case effective == nil && preset != nil:
		effective = preset
	case effective == nil:
		return nil, fmt.Errorf("failed to load config '%s': %w", data.ConfigName, service.ErrConfigNotFound)
	}
	if preset == nil {
		preset = effective
	}

	gameEngine, err := engine.NewEngine(effective, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create game engine: %w", err)
	}
	if err := gameEngine.SetState(data.GameState); err != nil {
		return nil, fmt.Errorf("failed to set game state: %w", err)
	}

	return &service.Session{
		ID:             data.ID,
		Engine:         gameEngine,
		ConfigID:       data.ConfigName,
		Config:         preset,
		CreatedAt:      data.CreatedAt,
		LastAccessedAt: data.LastAccessedAt,
	}, nil
}
