package database

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"
)

func testMigrations() fstest.MapFS {
	return fstest.MapFS{
		"20260301_090000_create_joins.up.sql": {Data: []byte(`CREATE TABLE test_joins (
			key TEXT PRIMARY KEY,
			join_number INTEGER NOT NULL
		) STRICT;`)},
		"20260301_090000_create_joins.down.sql": {Data: []byte("DROP TABLE IF EXISTS test_joins;")},
		"20260302_100000_add_span.up.sql":       {Data: []byte("ALTER TABLE test_joins ADD COLUMN span INTEGER NOT NULL DEFAULT 1;")},
		"README.md":                             {Data: []byte("ignored")},
	}
}

func tableExists(t *testing.T, db *DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRowContext(context.Background(),
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&n)
	if err != nil {
		t.Fatalf("sqlite_master query: %v", err)
	}
	return n == 1
}

func TestMigrate(t *testing.T) {
	db := openTestDB(t, Config{Migrations: testMigrations()})
	ctx := context.Background()

	before, err := db.MigrationStatus(ctx)
	if err != nil {
		t.Fatalf("MigrationStatus() error = %v", err)
	}
	if len(before.Pending) != 2 || before.Current() != "" {
		t.Fatalf("before: pending = %d, current = %q", len(before.Pending), before.Current())
	}

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if !tableExists(t, db, "test_joins") {
		t.Fatal("test_joins not created")
	}
	if _, err := db.ExecContext(ctx, "INSERT INTO test_joins (key, join_number, span) VALUES ('Enable', 1, 1)"); err != nil {
		t.Errorf("second migration not applied: %v", err)
	}

	after, err := db.MigrationStatus(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(after.Applied) != 2 || len(after.Pending) != 0 {
		t.Errorf("after: applied = %d, pending = %d", len(after.Applied), len(after.Pending))
	}
	if after.Current() != "20260302_100000" {
		t.Errorf("Current() = %q", after.Current())
	}
	if after.Applied[0].AppliedAt.IsZero() {
		t.Error("AppliedAt not recorded")
	}

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
}

func TestMigrateStopsAtFailure(t *testing.T) {
	fsys := testMigrations()
	fsys["20260302_100000_add_span.up.sql"] = &fstest.MapFile{Data: []byte("ALTER TABLE nope ADD COLUMN x;")}
	db := openTestDB(t, Config{Migrations: fsys})
	ctx := context.Background()

	err := db.Migrate(ctx)
	if err == nil || !strings.Contains(err.Error(), "20260302_100000") {
		t.Fatalf("Migrate() error = %v, want failure naming the version", err)
	}

	status, err := db.MigrationStatus(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if status.Current() != "20260301_090000" || len(status.Pending) != 1 {
		t.Errorf("current = %q, pending = %d; earlier migration should stay applied",
			status.Current(), len(status.Pending))
	}
}

func TestMigrateDown(t *testing.T) {
	fsys := testMigrations()
	delete(fsys, "20260302_100000_add_span.up.sql")
	db := openTestDB(t, Config{Migrations: fsys})
	ctx := context.Background()

	if err := db.MigrateDown(ctx); err != nil {
		t.Fatalf("MigrateDown() on empty schema error = %v", err)
	}
	if err := db.Migrate(ctx); err != nil {
		t.Fatal(err)
	}
	if err := db.MigrateDown(ctx); err != nil {
		t.Fatalf("MigrateDown() error = %v", err)
	}
	if tableExists(t, db, "test_joins") {
		t.Error("test_joins should have been dropped")
	}
	status, err := db.MigrationStatus(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(status.Applied) != 0 {
		t.Errorf("applied = %d after rollback, want 0", len(status.Applied))
	}
}

func TestMigrateDownWithoutDownFile(t *testing.T) {
	db := openTestDB(t, Config{Migrations: testMigrations()})
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatal(err)
	}
	err := db.MigrateDown(ctx)
	if err == nil || !strings.Contains(err.Error(), "no down SQL") {
		t.Errorf("MigrateDown() error = %v, want no down SQL", err)
	}
}

func TestMigrateWithoutSource(t *testing.T) {
	db := openTestDB(t, Config{})
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() with no source error = %v", err)
	}
}

func TestReadMigrationsOrphanDown(t *testing.T) {
	fsys := fstest.MapFS{"20260301_090000_x.down.sql": {Data: []byte("DROP TABLE x;")}}
	if _, err := readMigrations(fsys); err == nil {
		t.Error("readMigrations() should reject a down file without an up file")
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		filename    string
		wantVersion string
		wantName    string
		wantUp      bool
		wantOk      bool
	}{
		{"20260301_120000_join_map_overrides.up.sql", "20260301_120000", "join_map_overrides", true, true},
		{"20260301_120000_join_map_overrides.down.sql", "20260301_120000", "join_map_overrides", false, true},
		{"20260301_120000.up.sql", "20260301_120000", "20260301_120000", true, true},
		{"readme.txt", "", "", false, false},
		{"20260301_120000_create.sql", "", "", false, false},
		{"invalid.up.sql", "", "", false, false},
		{"2026_12_x.up.sql", "", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, name, up, ok := parseMigrationFilename(tt.filename)
			if ok != tt.wantOk {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOk)
			}
			if !ok {
				return
			}
			if version != tt.wantVersion || name != tt.wantName || up != tt.wantUp {
				t.Errorf("got (%q, %q, %v), want (%q, %q, %v)",
					version, name, up, tt.wantVersion, tt.wantName, tt.wantUp)
			}
		})
	}
}
