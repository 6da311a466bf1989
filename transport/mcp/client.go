package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/ludo-game/game/board"
	"github.com/wricardo/ludo-game/game/engine"
	"github.com/wricardo/ludo-game/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			// Paced moves of a full six-step path must fit.
			Timeout: 30 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Ludo",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Ludo - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Move all four of your pieces from base, once around the shared track and up
your home lane. In team mode the game ends when both seats of a team are home.

TURN LOOP:
1. roll_dice for the active seat.
2. With no legal move the turn passes. With one, it moves automatically.
   With several, call select_piece with the seat and one of the offered pieces.
3. A six or a capture grants another roll.

AVAILABLE TOOLS:
- create_session / list_sessions / get_session
- game_state: board, dice, whose turn
- roll_dice, select_piece, reset_game
- configure_game: 2-4 players, team mode with 4
- move_history, list_configs
- game_rules: the full rule sheet`),
	)

	c.registerTools()
}

func sessionSchema(extra map[string]any, required ...string) mcp.ToolInputSchema {
	props := map[string]any{
		"session_id": map[string]any{
			"type":        "string",
			"description": "Session ID",
		},
	}
	for k, v := range extra {
		props[k] = v
	}
	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: props,
		Required:   append([]string{"session_id"}, required...),
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session with optional config selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"config_id": map[string]any{
					"type":        "string",
					"description": "Config to use, see list_configs (optional, default classic)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: sessionSchema(nil),
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current board, dice value and active seat",
		InputSchema: sessionSchema(nil),
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "roll_dice",
		Description: "Roll the die for the seat whose turn it is",
		InputSchema: sessionSchema(nil),
	}, c.handleRoll)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "select_piece",
		Description: "Move one of the pieces offered after a roll",
		InputSchema: sessionSchema(map[string]any{
			"seat": map[string]any{
				"type":        "string",
				"enum":        []string{"P1", "P2", "P3", "P4"},
				"description": "Seat making the move (must be the active seat)",
			},
			"piece": map[string]any{
				"type":        "integer",
				"minimum":     0,
				"maximum":     board.PiecesPerSeat - 1,
				"description": "Piece index, one of the eligible pieces",
			},
		}, "seat", "piece"),
	}, c.handleSelect)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Reset the board to the initial position (history is kept)",
		InputSchema: sessionSchema(nil),
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "configure_game",
		Description: "Change the number of players and team mode; resets the board",
		InputSchema: sessionSchema(map[string]any{
			"players": map[string]any{
				"type":        "integer",
				"minimum":     engine.MinPlayers,
				"maximum":     engine.MaxPlayers,
				"description": "Number of seats in play",
			},
			"team_mode": map[string]any{
				"type":        "boolean",
				"description": "Opposite seats play as a team (requires 4 players)",
			},
		}, "players"),
	}, c.handleConfigure)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_history",
		Description: "Get the paginated move history of a session",
		InputSchema: sessionSchema(map[string]any{
			"page": map[string]any{
				"type":        "integer",
				"description": "Page number (default 1)",
			},
			"limit": map[string]any{
				"type":        "integer",
				"description": "Moves per page (default 20, max 100)",
			},
			"current": map[string]any{
				"type":        "boolean",
				"description": "Only moves since the last reset",
			},
		}),
	}, c.handleMoveHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available game configurations",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_rules",
		Description: "Get the complete Ludo rules as played by this server",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]any{},
		},
	}, c.handleGameRules)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body any, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&errResp) == nil && errResp.Error != "" {
			return fmt.Errorf("%s", errResp.Error)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]any {
	args, _ := request.Params.Arguments.(map[string]any)
	if args == nil {
		return map[string]any{}
	}
	return args
}

func sessionPath(args map[string]any, suffix string) (string, error) {
	sessionID, _ := args["session_id"].(string)
	if sessionID == "" {
		return "", fmt.Errorf("session_id is required")
	}
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix, nil
}

// intArg reads a JSON number argument.
func intArg(args map[string]any, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	}
	return 0, false
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	configID, _ := args["config_id"].(string)

	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n\n%s", session.ID, session.ConfigName, formatGameState(session.GameState))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		status := "in play"
		if s.GameState != nil && s.GameState.Winner != nil {
			status = "won by " + engine.WinnerLabel(*s.GameState.Winner)
		}
		fmt.Fprintf(&b, "- %s (Config: %s, Created: %s, %s)\n",
			s.ID, s.ConfigName, s.CreatedAt.Format("15:04:05"), status)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", path, nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "/state")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", path, nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleRoll(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "/roll")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result service.MoveResult
	if err := c.apiCall(ctx, "POST", path, nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

func (c *Client) handleSelect(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/select")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	seat, _ := args["seat"].(string)
	piece, ok := intArg(args, "piece")
	if seat == "" || !ok {
		return mcp.NewToolResultError("seat and piece are required"), nil
	}

	body := map[string]any{"seat": seat, "piece": piece}
	var result service.MoveResult
	if err := c.apiCall(ctx, "POST", path, body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := sessionPath(arguments(request), "/reset")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result service.MoveResult
	if err := c.apiCall(ctx, "POST", path, nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText("Game reset.\n\n" + formatGameState(result.GameState)), nil
}

func (c *Client) handleConfigure(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/configure")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	players, ok := intArg(args, "players")
	if !ok {
		return mcp.NewToolResultError("players is required"), nil
	}
	teamMode, _ := args["team_mode"].(bool)

	body := service.ConfigureRequest{Players: players, TeamMode: teamMode}
	var result service.MoveResult
	if err := c.apiCall(ctx, "POST", path, body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText("Game configured.\n\n" + formatGameState(result.GameState)), nil
}

func (c *Client) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := sessionPath(args, "/history")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	params := url.Values{}
	if page, ok := intArg(args, "page"); ok {
		params.Set("page", fmt.Sprint(page))
	}
	if limit, ok := intArg(args, "limit"); ok {
		params.Set("limit", fmt.Sprint(limit))
	}
	if current, _ := args["current"].(bool); current {
		params.Set("current", "true")
	}
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, config := range configs {
		mode := "individual"
		if config.TeamMode {
			mode = "teams"
		}
		fmt.Fprintf(&b, "• %s (config_id: %s)\n  %s\n  Players: %d, Mode: %s\n\n",
			config.Name, config.ConfigID, config.Description, config.Players, mode)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameRules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(rules), nil
}

const rules = `LUDO RULES

BOARD
- A shared track of 52 cells numbered 0-51, walked clockwise.
- Seats start at: P1 (red) 0, P2 (green) 26, P3 (yellow) 13, P4 (blue) 39.
- Safe cells, where no capture happens: 0, 8, 13, 21, 26, 34, 39, 47.
- Each seat leaves the track at its turning point (two cells before its
  start) into a private 6-cell lane, then home.

PIECES
- Four per seat, all starting in base.
- A piece leaves base only on a 6, onto its seat's start cell.
- A piece moves exactly the rolled number of cells. A roll that would carry it
  past home cannot be used for that piece.

TURN
1. The active seat rolls.
2. No movable piece: the turn passes to the next seat.
3. Exactly one movable piece: it moves automatically.
4. Several: the seat selects one of the offered pieces.

CAPTURE
- Landing on a non-safe track cell occupied by opponents sends all of them
  back to base. Team mates are never captured.

EXTRA ROLL
- Rolling a 6 or capturing grants the same seat another roll.

WINNING
- Individual play: first seat with all four pieces home.
- Team play (4 players): P1 + P4 form Team A, P2 + P3 Team B. A team wins
  when both of its seats have all pieces home.

OTHER
- reset_game restores the initial board; the move history is kept.
- configure_game changes players or team mode and always resets.`

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\n\n%s",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

// describePosition names a piece code in words.
func describePosition(seat board.Seat, pos board.Position) string {
	p := board.PathOf(seat)
	switch {
	case p.IsBase(pos):
		return "base"
	case p.IsHome(pos):
		return "HOME"
	case p.IsHomeEntrance(pos):
		return fmt.Sprintf("lane %d/%d", int(pos-p.EntranceStart)+1, board.LaneLength)
	case board.IsSafe(pos):
		return fmt.Sprintf("track %d (safe)", pos)
	default:
		return fmt.Sprintf("track %d", pos)
	}
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var b strings.Builder
	active := state.ActiveSeat()
	fmt.Fprintf(&b, "Phase: %s | Turn: %s | Dice: %d | Moves: %d\n",
		state.Phase, engine.SeatLabel(active), state.DiceValue, state.TotalMoves)
	if state.TeamMode {
		b.WriteString("Teams: A = P1 + P4, B = P2 + P3\n")
	}
	b.WriteString("\n")

	for _, seat := range state.Roster {
		marker := " "
		if seat == active {
			marker = ">"
		}
		fmt.Fprintf(&b, "%s %-11s home %d/4, %3.0f%% |", marker, engine.SeatLabel(seat),
			engine.PiecesHome(state, seat), engine.Progress(state, seat)*100)
		for piece, pos := range state.Positions[seat] {
			fmt.Fprintf(&b, " %d:%s", piece, describePosition(seat, pos))
		}
		b.WriteString("\n")
	}

	if state.Phase == engine.Rolled && len(state.Eligible) > 0 {
		fmt.Fprintf(&b, "\nEligible pieces for %s: %v (call select_piece)\n", active, state.Eligible)
	}

	if state.Winner != nil {
		fmt.Fprintf(&b, "\n🏆 Winner: %s\n", engine.WinnerLabel(*state.Winner))
	}

	if state.Message != "" {
		fmt.Fprintf(&b, "\nMessage: %s", state.Message)
	}

	return b.String()
}

func formatMoveResult(result *service.MoveResult) string {
	var b strings.Builder
	if result.Success {
		fmt.Fprintf(&b, "✓ %s accepted\n", result.Action)
	} else {
		fmt.Fprintf(&b, "✗ %s ignored: %s\n", result.Action, result.Reason)
	}

	if result.Dice > 0 {
		fmt.Fprintf(&b, "Rolled: %d\n", result.Dice)
	}

	if m := result.Move; m != nil {
		b.WriteString(formatMoveLine(*m) + "\n")
	}

	b.WriteString("\n" + formatGameState(result.GameState))
	return b.String()
}

func formatMoveLine(m engine.MoveHistoryEntry) string {
	if m.Action == engine.ActionPass {
		return fmt.Sprintf("%s rolled %d: no legal move, pass", m.Seat, m.Dice)
	}
	line := fmt.Sprintf("%s rolled %d: piece %d %s → %s",
		m.Seat, m.Dice, m.Piece, describePosition(m.Seat, m.From), describePosition(m.Seat, m.To))
	for _, cap := range m.Captures {
		line += fmt.Sprintf(", captured %s piece %d", cap.Seat, cap.Piece)
	}
	if m.KeptTurn {
		line += ", rolls again"
	}
	return line
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Move History (Page %d/%d), Total: %d\n\n",
		history.Page, history.TotalPages, history.TotalMoves)

	if len(history.Moves) == 0 {
		b.WriteString("(no moves)\n")
	}
	for _, move := range history.Moves {
		fmt.Fprintf(&b, "%d. %s\n", move.MoveNumber, formatMoveLine(move))
	}

	return b.String()
}
