package service

import (
	"context"
	"time"

	"github.com/wricardo/ludo-game/game/board"
	"github.com/wricardo/ludo-game/game/engine"
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	Roll(ctx context.Context, sessionID string) (*MoveResult, error)
	SelectPiece(ctx context.Context, sessionID string, seat board.Seat, piece int) (*MoveResult, error)
	Reset(ctx context.Context, sessionID string) (*MoveResult, error)
	Configure(ctx context.Context, sessionID string, req ConfigureRequest) (*MoveResult, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetEligible(ctx context.Context, sessionID string) (*EligibleInfo, error)
	GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, configID string, config *engine.GameConfig) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id string, configID string, config *engine.GameConfig) (*Session, error)
	List() []*Session
	Delete(id string) error
	// Touch marks a session accessed and returns it.
	Touch(id string) (*Session, error)
	Save(id string) error
}

// ConfigManager handles game configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
	SaveConfig(name string, config *engine.GameConfig) error
}

// NotifierFactory returns the receiver of engine notifications for one
// session, or nil for none.
type NotifierFactory func(sessionID string) engine.Notifier

// Session represents an active game session
type Session struct {
	ID     string
	Engine *engine.GameEngine
	// ConfigID is the preset the session was created from.
	ConfigID string
	// Config is that preset. The engine's current config may differ after a
	// roster change.
	Config         *engine.GameConfig
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
