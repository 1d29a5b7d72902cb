package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	custody "github.com/goliatone/go-custody"
	_ "github.com/mattn/go-sqlite3"
)

func TestFilesystems_ReturnsPostgresAndSQLite(t *testing.T) {
	filesystems, err := Filesystems()
	if err != nil {
		t.Fatalf("filesystems: %v", err)
	}
	if len(filesystems) != 2 {
		t.Fatalf("expected 2 filesystems, got %d", len(filesystems))
	}
	if filesystems[0].Dialect != DialectPostgres || filesystems[1].Dialect != DialectSQLite {
		t.Fatalf("unexpected dialect order: %s, %s", filesystems[0].Dialect, filesystems[1].Dialect)
	}
	if filesystems[1].Path != "data/sql/migrations/sqlite" {
		t.Fatalf("unexpected sqlite path %q", filesystems[1].Path)
	}
	for _, entry := range filesystems {
		ups, err := UpMigrations(entry.FS)
		if err != nil {
			t.Fatalf("list %s migrations: %v", entry.Dialect, err)
		}
		if ups[0] != "00001_custody_snapshots.up.sql" {
			t.Fatalf("expected snapshot migration first for %s, got %v", entry.Dialect, ups)
		}
	}
}

func TestFilesystems_RejectsTreeWithoutUpMigrations(t *testing.T) {
	root := fstest.MapFS{
		"data/sql/migrations/00001_x.down.sql":        {Data: []byte("SELECT 1;")},
		"data/sql/migrations/sqlite/00001_x.down.sql": {Data: []byte("SELECT 1;")},
	}
	if _, err := Filesystems(root); err == nil {
		t.Fatalf("expected error for a tree without up migrations")
	}
}

func TestRegister_UsesValidationTargets(t *testing.T) {
	var calls []string
	var labels []string
	reg, err := Register(context.Background(), func(_ context.Context, dialect string, label string, _ fs.FS) error {
		calls = append(calls, dialect)
		labels = append(labels, label)
		return nil
	}, WithValidationTargets(" SQLite ", "sqlite"))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(reg.ValidationTargets) != 1 {
		t.Fatalf("expected deduped targets, got %v", reg.ValidationTargets)
	}
	if len(calls) != 1 || calls[0] != DialectSQLite {
		t.Fatalf("expected a single sqlite registration, got %v", calls)
	}
	if labels[0] != "go-custody" {
		t.Fatalf("expected default source label, got %q", labels[0])
	}
}

func TestRegister_PropagatesRegisterError(t *testing.T) {
	_, err := Register(context.Background(), func(context.Context, string, string, fs.FS) error {
		return fmt.Errorf("boom")
	}, WithSourceLabel("host"))
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected register error, got %v", err)
	}
	if _, err := Register(context.Background(), nil); err == nil {
		t.Fatalf("expected nil register function error")
	}
}

func TestSnapshotMigrationPair_ExistsForBothDialects(t *testing.T) {
	root := custody.GetMigrationsFS()
	paths := []string{
		"data/sql/migrations/00001_custody_snapshots.up.sql",
		"data/sql/migrations/00001_custody_snapshots.down.sql",
		"data/sql/migrations/sqlite/00001_custody_snapshots.up.sql",
		"data/sql/migrations/sqlite/00001_custody_snapshots.down.sql",
	}
	for _, migrationPath := range paths {
		content, err := fs.ReadFile(root, migrationPath)
		if err != nil {
			t.Fatalf("read migration %s: %v", migrationPath, err)
		}
		if strings.TrimSpace(string(content)) == "" {
			t.Fatalf("expected migration %s to have SQL content", migrationPath)
		}
	}
}

func TestSQLiteSnapshotMigration_ApplyAndRollback(t *testing.T) {
	dsn := fmt.Sprintf("file:migrations-custody-snapshots-%d?mode=memory&cache=shared&_foreign_keys=on", time.Now().UnixNano())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	defer func() { _ = db.Close() }()
	db.SetMaxOpenConns(1)

	sqliteMigrations, err := fs.Sub(custody.GetMigrationsFS(), "data/sql/migrations/sqlite")
	if err != nil {
		t.Fatalf("resolve sqlite migrations: %v", err)
	}
	ctx := context.Background()
	if err := execSQLMigration(ctx, db, sqliteMigrations, "00001_custody_snapshots.up.sql"); err != nil {
		t.Fatalf("apply snapshot migration up: %v", err)
	}

	insertStatement := `
		INSERT INTO custody_snapshots (
			id,
			originator_id,
			sub_organization_id,
			snapshot
		) VALUES (?, ?, ?, ?)
	`
	if _, err := db.ExecContext(ctx, insertStatement, "row-1", "orig-1", "sub-1", "{}"); err != nil {
		t.Fatalf("insert snapshot row: %v", err)
	}
	if _, err := db.ExecContext(ctx, insertStatement, "row-2", "orig-1", "sub-2", "{}"); err == nil {
		t.Fatalf("expected unique originator constraint violation")
	}

	var resolved string
	var version int
	if err := db.QueryRowContext(
		ctx,
		`SELECT resolved_templates, encryption_version FROM custody_snapshots WHERE id=?`,
		"row-1",
	).Scan(&resolved, &version); err != nil {
		t.Fatalf("read defaults: %v", err)
	}
	if resolved != "{}" || version != 0 {
		t.Fatalf("unexpected column defaults: %q %d", resolved, version)
	}

	if err := execSQLMigration(ctx, db, sqliteMigrations, "00001_custody_snapshots.down.sql"); err != nil {
		t.Fatalf("apply snapshot migration down: %v", err)
	}
	var tables int
	if err := db.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='custody_snapshots'`,
	).Scan(&tables); err != nil {
		t.Fatalf("inspect schema: %v", err)
	}
	if tables != 0 {
		t.Fatalf("expected custody_snapshots to be dropped")
	}
}

func execSQLMigration(ctx context.Context, db *sql.DB, fsys fs.FS, filename string) error {
	content, err := fs.ReadFile(fsys, filepath.Clean(filename))
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, string(content))
	return err
}
