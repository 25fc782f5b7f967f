// Package database provides SQLite connectivity for vectorlink.
//
// This package manages:
//   - Database connection with WAL mode for concurrent access
//   - Schema migrations loaded from an fs.FS (embedded by the migrations package)
//   - Connection lifecycle and health checks
//
// Security Considerations:
//   - All queries use parameterised statements
//   - The database file holds robot bearer tokens and is chmod 0600
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS, "."); err != nil {
//	    log.Fatal(err)
//	}
//
// Migrations are additive: new columns are NULLABLE or carry a DEFAULT, and each
// .up.sql ships with a matching .down.sql.
package database
