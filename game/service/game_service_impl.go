package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/wricardo/ludo-game/game/board"
	"github.com/wricardo/ludo-game/game/engine"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions  SessionManager
	configs   ConfigManager
	notifiers NotifierFactory

	// mu serializes session creation and deletion only. Game operations rely
	// on the engine's own lock so a reset can interrupt a paced move.
	mu sync.Mutex
}

// Option customizes the game service.
type Option func(*gameServiceImpl)

// WithNotifierFactory streams engine notifications of every session to the
// notifier the factory returns.
func WithNotifierFactory(f NotifierFactory) Option {
	return func(s *gameServiceImpl) { s.notifiers = f }
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(sess *Session) string {
	if sess.ConfigID != "" {
		return sess.ConfigID
	}
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == sess.Config.Name {
				return cfg.ConfigID
			}
		}
	}
	if sess.Config.Name == "" {
		return "default"
	}
	return sess.Config.Name
}

// session fetches a session, marks it accessed and attaches its notifier.
func (s *gameServiceImpl) session(sessionID string) (*Session, error) {
	sess, err := s.sessions.Touch(sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	s.attach(sess)
	return sess, nil
}

func (s *gameServiceImpl) attach(sess *Session) {
	if s.notifiers == nil {
		return
	}
	sess.Engine.SetNotifier(s.notifiers(sess.ID))
}

func (s *gameServiceImpl) info(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     s.getConfigID(sess),
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      sess.Engine.GetState(),
		GameConfig:     sess.Engine.GetConfig(),
	}
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.GameConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			// Provide helpful error message with available options
			if errors.Is(err, ErrConfigNotFound) {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("%w: '%s'. Available configs: %v", ErrConfigNotFound, configName, configIDs)
				}
				return nil, fmt.Errorf("%w: '%s'. Use /api/configs to list available configurations", ErrConfigNotFound, configName)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	configID := configName
	if configID == "" {
		configID = s.getConfigID(&Session{Config: config})
	}

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", configID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	s.attach(sess)

	log.Info().Str("session", sess.ID).Str("config", configID).Msg("session created")
	return s.info(sess), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return s.info(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.info(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.Delete(sessionID)
}

// Roll throws the die for the active seat of a session
func (s *gameServiceImpl) Roll(ctx context.Context, sessionID string) (*MoveResult, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return s.finish(sess, sess.Engine.Roll(ctx)), nil
}

// SelectPiece moves one of the pieces offered by the last roll
func (s *gameServiceImpl) SelectPiece(ctx context.Context, sessionID string, seat board.Seat, piece int) (*MoveResult, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return s.finish(sess, sess.Engine.Select(ctx, seat, piece)), nil
}

// Reset resets a game session to initial state
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*MoveResult, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return s.finish(sess, sess.Engine.Reset()), nil
}

// Configure changes the roster size and team mode of a session. It always
// resets the board.
func (s *gameServiceImpl) Configure(ctx context.Context, sessionID string, req ConfigureRequest) (*MoveResult, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	next := *sess.Engine.GetConfig()
	next.Players = req.Players
	next.TeamMode = req.TeamMode
	next.Seats = nil

	outcome, err := sess.Engine.SetConfig(&next)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return s.finish(sess, outcome), nil
}

// finish converts an engine outcome and persists accepted changes.
func (s *gameServiceImpl) finish(sess *Session, out *engine.Outcome) *MoveResult {
	if out.Accepted {
		// Auto-save session after every accepted change
		if err := s.sessions.Save(sess.ID); err != nil {
			log.Warn().Err(err).Str("session", sess.ID).Str("action", out.Action).Msg("failed to persist session")
		}
	}

	result := &MoveResult{
		Success:   out.Accepted,
		Reason:    out.Reason,
		Action:    out.Action,
		Seat:      out.Seat,
		Dice:      out.Dice,
		Eligible:  out.Eligible,
		Move:      out.Move,
		Events:    out.Events,
		GameState: out.State,
	}
	if result.Events == nil {
		result.Events = []engine.Event{}
	}
	if out.State != nil {
		result.Message = out.State.Message
	}
	return result
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Engine.GetState(), nil
}

// GetEligible previews the moves open to the active seat. The list is empty
// unless the session waits for a piece selection.
func (s *gameServiceImpl) GetEligible(ctx context.Context, sessionID string) (*EligibleInfo, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	state := sess.Engine.GetState()
	seat := state.ActiveSeat()
	info := &EligibleInfo{
		Seat:    seat,
		Phase:   state.Phase,
		Dice:    state.DiceValue,
		Options: []PieceOption{},
	}
	if state.Phase != engine.Rolled {
		return info, nil
	}

	home := board.PathOf(seat).Home
	for _, piece := range state.Eligible {
		path, ok := engine.PlanMove(state, seat, piece, state.DiceValue)
		if !ok {
			continue
		}
		preview := state.Copy()
		to := path[len(path)-1]
		preview.Positions[seat] = withPosition(preview.Positions[seat], piece, to)
		info.Options = append(info.Options, PieceOption{
			Piece:    piece,
			From:     state.Position(seat, piece),
			To:       to,
			Path:     path,
			Captures: engine.ResolveCapture(preview, seat, piece),
			Home:     to == home,
		})
	}
	return info, nil
}

func withPosition(pieces [board.PiecesPerSeat]board.Position, piece int, pos board.Position) [board.PiecesPerSeat]board.Position {
	pieces[piece] = pos
	return pieces
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	var history []engine.MoveHistoryEntry
	if opts.Current {
		history = sess.Engine.GetState().CurrentMoves
	} else {
		history = sess.Engine.GetMoveHistory()
	}
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > engine.MaxHistoryPage {
		opts.Limit = engine.MaxHistoryPage
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	// Calculate pagination
	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	moves := []engine.MoveHistoryEntry{}
	if opts.Order == "desc" {
		// Reverse order (most recent first)
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	} else if start < total {
		moves = append(moves, history[start:end]...)
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListConfigs returns available game configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific game configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a game configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}
