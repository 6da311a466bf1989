// Package mcp exposes the Ludo REST API as Model Context Protocol tools.
//
// Client is a thin proxy: every tool call becomes one or two REST requests
// against a running API server, and the JSON answer is rendered as plain
// text an agent can read. No game logic lives here.
//
// Tools:
//   - create_session, list_sessions, get_session
//   - game_state, roll_dice, select_piece, reset_game, configure_game
//   - move_history, list_configs, game_rules
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	if err := server.ServeStdio(client.GetMCPServer()); err != nil {
//		log.Fatal(err)
//	}
//
// The same MCPServer is mounted at /mcp by the HTTP server.
package mcp
