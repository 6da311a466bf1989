// Package websocket streams live Ludo game updates to browser clients.
//
// A single Hub goroutine owns the per-session client sets. Registration,
// unregistration and broadcasts all reach it through channels, so no map is
// touched from two goroutines.
//
// Clients connect with /ws?session=<id> and receive two message types:
//
//	{"session_id":"ab12","type":"event","event":{"type":"piece_moved",...}}
//	{"session_id":"ab12","type":"state_update","game_state":{...}}
//
// Events come from the engine through Hub.Notifier, one per notification in
// the order the engine emits them. A state_update follows every completed
// REST or MCP operation and is also sent once on connect.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//	gameService := service.NewGameService(sessions, configs,
//		service.WithNotifierFactory(hub.Notifier))
//
// Broadcasts never block the caller. When the hub falls behind, new messages
// are dropped and logged; clients whose send buffer is full are
// disconnected.
package websocket
