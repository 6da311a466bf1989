// Package service is the use-case layer between the transports (REST,
// WebSocket, MCP) and the Ludo engine.
//
// GameService resolves a session id to its engine, forwards the request and
// persists every accepted change through the SessionManager. Requests the
// rules ignore (rolling twice, moving an ineligible piece) come back as a
// MoveResult with Success false, never as an error. Errors are reserved for
// unknown sessions or configs and for invalid roster changes, and wrap the
// sentinels in errors.go.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr,
//		service.WithNotifierFactory(hub.Notifier))
//
//	info, err := gameService.CreateSession(ctx, "duel")
//	if err != nil {
//		log.Fatal(err)
//	}
//	result, err := gameService.Roll(ctx, info.ID)
//
// Game operations do not take a service-wide lock. Each engine guards its
// own state, so a reset on one session can interrupt a paced move in
// flight.
package service
