// Package config provides configuration management for roster-sync.
//
// Values come from environment variables, optionally seeded from a .env file.
// Defaults are declared on the partial config structs through `default` tags.
//
// # Configuration Structure
//
//   - Server: admin HTTP server (port, API key)
//   - Database: driver (mysql or sqlite) and connection details
//   - Storage: MinIO/S3 roster snapshot archive
//   - Log: level, format and optional rotated file
//   - Armory: remote game data API credentials and retry policy
//   - Sync: scheduler interval, staleness thresholds and batch sizes
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Sync.Interval)
package config
