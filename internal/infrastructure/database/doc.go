// Package database provides SQLite connectivity for the smart home core.
//
// This package manages:
//   - Database connection with WAL mode and foreign keys enabled
//   - Schema migrations read from any fs.FS (the embedded migrations package in production)
//   - Connection lifecycle and health checks
//
// SQLite is optional: it backs the "sqlite" storage mode and the event_log
// mirror. The default file storage never opens a database.
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migrations are additive: new columns must be nullable or carry defaults,
// and each .up.sql should have a matching .down.sql.
package database
