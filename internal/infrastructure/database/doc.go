// Package database provides SQLite connectivity for NeuroAIR Core.
//
// This package manages:
//   - Opening the database with WAL mode and a busy timeout
//   - Schema migrations read from an fs.FS (normally the embedded
//     migrations package)
//   - Health checks for the /health endpoint
//
// SQLite holds dispatch history only. Device state is deliberately kept
// in memory and starts powered off after every restart.
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.{up,down}.sql and
// each one runs in its own transaction.
package database
