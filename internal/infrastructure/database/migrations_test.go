package database

import (
	"context"
	"testing"
	"testing/fstest"
)

func testMigrations() fstest.MapFS {
	return fstest.MapFS{
		"sql/20260301_120000_create_widgets.up.sql": {
			Data: []byte("CREATE TABLE widgets (id INTEGER PRIMARY KEY, name TEXT NOT NULL);"),
		},
		"sql/20260301_120000_create_widgets.down.sql": {
			Data: []byte("DROP TABLE widgets;"),
		},
		"sql/20260302_090000_add_colour.up.sql": {
			Data: []byte("ALTER TABLE widgets ADD COLUMN colour TEXT;"),
		},
		"sql/README.txt": {Data: []byte("ignored")},
	}
}

// TestMigrate verifies migration application and idempotency.
func TestMigrate(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx, testMigrations(), "sql"); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	if _, err := db.ExecContext(ctx, "INSERT INTO widgets (name, colour) VALUES (?, ?)", "cube", "red"); err != nil {
		t.Fatalf("migrated schema unusable: %v", err)
	}

	applied, pending, err := db.MigrationStatus(ctx, testMigrations(), "sql")
	if err != nil {
		t.Fatalf("MigrationStatus() error = %v", err)
	}
	if len(applied) != 2 {
		t.Errorf("expected 2 applied migrations, got %d", len(applied))
	}
	if len(pending) != 0 {
		t.Errorf("expected 0 pending migrations, got %d", len(pending))
	}

	if err := db.Migrate(ctx, testMigrations(), "sql"); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
}

// TestMigrateNoMigrations verifies behaviour with no migrations.
func TestMigrateNoMigrations(t *testing.T) {
	db := openTestDB(t)

	if err := db.Migrate(context.Background(), nil, "."); err != nil {
		t.Fatalf("Migrate() with nil fs error = %v", err)
	}
	if err := db.Migrate(context.Background(), fstest.MapFS{}, "missing"); err != nil {
		t.Fatalf("Migrate() with missing dir error = %v", err)
	}
}

// TestMigrateFailureRollsBack verifies a broken migration leaves no record.
func TestMigrateFailureRollsBack(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	broken := fstest.MapFS{
		"20260301_120000_broken.up.sql": {Data: []byte("CREATE TABLE oops (")},
	}
	if err := db.Migrate(ctx, broken, "."); err == nil {
		t.Fatal("Migrate() expected error for invalid SQL, got nil")
	}

	applied, pending, err := db.MigrationStatus(ctx, broken, ".")
	if err != nil {
		t.Fatalf("MigrationStatus() error = %v", err)
	}
	if len(applied) != 0 || len(pending) != 1 {
		t.Errorf("applied=%d pending=%d, want 0 and 1", len(applied), len(pending))
	}
}

// TestParseMigrationFilename verifies filename parsing.
func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		wantVersion string
		wantIsUp    bool
		wantOk      bool
	}{
		{
			name:        "valid up migration",
			filename:    "20260301_120000_robot_credentials.up.sql",
			wantVersion: "20260301_120000",
			wantIsUp:    true,
			wantOk:      true,
		},
		{
			name:        "valid down migration",
			filename:    "20260301_120000_robot_credentials.down.sql",
			wantVersion: "20260301_120000",
			wantIsUp:    false,
			wantOk:      true,
		},
		{name: "not sql file", filename: "readme.txt", wantOk: false},
		{name: "missing direction", filename: "20260301_120000_robot_credentials.sql", wantOk: false},
		{name: "invalid format", filename: "invalid.up.sql", wantOk: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, isUp, ok := parseMigrationFilename(tt.filename)
			if ok != tt.wantOk {
				t.Errorf("ok = %v, want %v", ok, tt.wantOk)
			}
			if ok {
				if version != tt.wantVersion {
					t.Errorf("version = %v, want %v", version, tt.wantVersion)
				}
				if isUp != tt.wantIsUp {
					t.Errorf("isUp = %v, want %v", isUp, tt.wantIsUp)
				}
			}
		})
	}
}

// TestExtractMigrationName verifies name extraction.
func TestExtractMigrationName(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"20260301_120000_robot_credentials.up.sql", "robot_credentials"},
		{"20260301_120000_initial_schema.down.sql", "initial_schema"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := extractMigrationName(tt.filename); got != tt.want {
				t.Errorf("extractMigrationName(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}
