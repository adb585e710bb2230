// Package database provides SQLite database connectivity for VoiceLink Core.
//
// This package manages:
//   - Opening and configuring the SQLite database (WAL mode, busy timeout)
//   - Schema migrations from embedded SQL files
//   - Connection lifecycle and health checks
//
// # Migrations
//
// Migration files live in the top-level migrations/ directory and are
// embedded into the binary. Filenames follow the pattern
// YYYYMMDD_HHMMSS_description.up.sql / .down.sql. Each migration runs in
// its own transaction.
//
// # Usage
//
//	db, err := database.Open(database.Config{Path: "./data/voicelink.db", WALMode: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
package database
