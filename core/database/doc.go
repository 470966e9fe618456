// Package database handles database connections for the sync engine.
//
// It provides a wrapper around GORM to configure MySQL (production) or SQLite
// (local development and tests) connections from the application's configuration.
//
// # Connect
//
// Connect opens the connection, applies pool settings and verifies it with a
// bounded ping. Callers own the returned *gorm.DB for the process lifetime.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
package database
