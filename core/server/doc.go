// Package server holds the admin HTTP server configuration.
//
// The admin surface exposes the sync orchestrator (status, run, abort) and guild
// registration. The listener itself is started by the start command.
package server
