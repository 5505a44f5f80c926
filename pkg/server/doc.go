// Package server is the dashboard's HTTP API.
//
// It serves the reconstructed deletion schedule, recent log lines, the
// status of the Janitorr installation and Jellyfin metadata to signed-in
// users, and lets administrators read and edit Janitorr's configuration.
//
// # Routes
//
// Public:
//   - POST /login, POST /logout
//   - GET /health, GET /ready, GET /version
//   - GET /metrics (path configurable)
//
// Signed in:
//   - GET /api/session
//   - GET /api/dashboard
//   - GET /api/schedule
//   - GET /api/logs/recent?lines=N
//   - GET /api/status
//   - GET /api/media/{id}/info
//   - GET /jellyfin/Items/{id}/Images/{type}
//
// Administrators:
//   - GET /api/config, PUT /api/config
//   - POST /api/config/section
//   - POST /api/config/preview
//
// Errors are JSON objects with an "error" field.
//
// # Lifecycle
//
//	srv, err := server.New(server.Options{...})
//	if err != nil {
//	    return err
//	}
//	return srv.Start(ctx) // returns after ctx ends or SIGINT/SIGTERM
package server
