// Package api exposes the Ludo game service over HTTP.
//
// Endpoints:
//
// Sessions:
//   - POST   /api/sessions                {"config_id": "duel"}
//   - GET    /api/sessions                ?sort=created|accessed&order=asc|desc&limit=N
//   - GET    /api/sessions/{id}
//   - DELETE /api/sessions/{id}
//
// Game operations:
//   - GET  /api/sessions/{id}/state
//   - POST /api/sessions/{id}/roll
//   - POST /api/sessions/{id}/select      {"seat": "P1", "piece": 2}
//   - POST /api/sessions/{id}/reset
//   - POST /api/sessions/{id}/configure   {"players": 4, "team_mode": true}
//   - GET  /api/sessions/{id}/history     ?page=1&limit=20&order=desc&current=false
//   - GET  /api/sessions/{id}/eligible
//
// Configuration:
//   - GET  /api/configs
//   - POST /api/configs
//   - GET  /api/configs/{name}
//
// Misc:
//   - GET /api/health
//   - GET /ws?session={id}   live events, see package websocket
//
// Seats are written "P1".."P4" or by color (red, green, yellow, blue).
//
// A roll or selection the rules do not allow (wrong phase, wrong seat,
// ineligible piece) is answered with 200 and "success": false plus a
// "reason". HTTP errors are reserved for requests that cannot be served:
//
//	{"error": "session not found", "code": 404}
//
// Unknown sessions and configs map to 404, malformed bodies and invalid
// rosters to 400, anything else to 500.
package api
