// Package database provides the SQLite store behind gray-logic-io's
// persistent state: join map overrides edited at runtime.
//
// The package covers the connection (WAL mode, single writer, owner-only
// file permissions) and versioned schema migrations read from an fs.FS of
// .up.sql / .down.sql pairs. All queries use parameterised statements.
//
// Usage:
//
//	db, err := database.Open(database.Config{
//	    Path:       cfg.Database.Path,
//	    WALMode:    true,
//	    Migrations: migrations.FS,
//	})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
package database
