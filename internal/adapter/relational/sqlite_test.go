package relational

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/sokrates1989/dbsnap/internal/logging"
)

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.db")
	return NewSQLite(path, logging.NewNop()), path
}

func seedSQLite(t *testing.T, path string) {
	t.Helper()
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer db.Close()

	stmts := []string{
		`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)`,
		`CREATE TABLE "odd ""name""" (id INTEGER PRIMARY KEY)`,
		`INSERT INTO users (name) VALUES ('alice'), ('bob'), ('carol')`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}
}

func TestSQLiteDumpCopiesDatabaseFile(t *testing.T) {
	dialect, path := newTestSQLite(t)
	seedSQLite(t, path)

	var buf bytes.Buffer
	if err := dialect.Dump(context.Background(), &buf); err != nil {
		t.Fatalf("Dump: %v", err)
	}

	original, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read database: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), original) {
		t.Error("dump differs from database file")
	}
}

func TestSQLiteDumpMissingFile(t *testing.T) {
	dialect, _ := newTestSQLite(t)

	err := dialect.Dump(context.Background(), io.Discard)
	if err == nil {
		t.Fatal("expected error for missing database file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want wrapped ErrNotExist", err)
	}
}

func TestSQLiteRestoreReplacesFile(t *testing.T) {
	dialect, path := newTestSQLite(t)
	seedSQLite(t, path)

	replacement := []byte("replacement database bytes")
	if err := dialect.Restore(context.Background(), bytes.NewReader(replacement)); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read database: %v", err)
	}
	if !bytes.Equal(data, replacement) {
		t.Error("database file was not replaced")
	}
	if _, err := os.Stat(path + ".backup"); err != nil {
		t.Errorf("previous database was not set aside: %v", err)
	}
}

func TestSQLiteRestoreIntoEmptyDeployment(t *testing.T) {
	dialect, path := newTestSQLite(t)

	if err := dialect.Restore(context.Background(), bytes.NewReader([]byte("fresh"))); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "fresh" {
		t.Errorf("restored file = %q, %v", data, err)
	}
}

func TestSQLiteDropAll(t *testing.T) {
	dialect, path := newTestSQLite(t)
	seedSQLite(t, path)

	if err := dialect.DropAll(context.Background()); err != nil {
		t.Fatalf("DropAll: %v", err)
	}

	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer db.Close()

	var count int
	if err := db.Get(&count,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`); err != nil {
		t.Fatalf("count tables: %v", err)
	}
	if count != 0 {
		t.Errorf("%d tables remain after DropAll", count)
	}
}

func TestSQLiteDropAllMissingFile(t *testing.T) {
	dialect, _ := newTestSQLite(t)

	if err := dialect.DropAll(context.Background()); err != nil {
		t.Errorf("DropAll on missing file: %v", err)
	}
}

func TestSQLiteStats(t *testing.T) {
	dialect, _ := newTestSQLite(t)
	seedSQLite(t, dialect.path)

	stats, err := dialect.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.StoreKind != "sqlite" {
		t.Errorf("store kind = %s", stats.StoreKind)
	}
	if len(stats.Tables) != 2 {
		t.Fatalf("got %d tables, want 2", len(stats.Tables))
	}
	// Tables come back sorted by name.
	if stats.Tables[1].Name != "users" || stats.Tables[1].RowCount != 3 {
		t.Errorf("users stats = %+v", stats.Tables[1])
	}
	if stats.TotalSizeBytes == 0 {
		t.Error("total size not reported")
	}
}

func TestQuoteSQLite(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"users", `"users"`},
		{`odd "name"`, `"odd ""name"""`},
	}
	for _, tt := range tests {
		if got := quoteSQLite(tt.name); got != tt.expected {
			t.Errorf("quoteSQLite(%q) = %s, want %s", tt.name, got, tt.expected)
		}
	}
}

func TestNewDialect(t *testing.T) {
	log := logging.NewNop()
	params := ConnParams{Host: "localhost", Port: 5432, User: "u", Password: "p", Database: "d"}

	for _, kind := range []string{"postgresql", "mysql", "sqlite"} {
		dialect, err := NewDialect(kind, params, log)
		if err != nil {
			t.Errorf("NewDialect(%s): %v", kind, err)
			continue
		}
		if dialect.Kind() != kind {
			t.Errorf("Kind() = %s, want %s", dialect.Kind(), kind)
		}
	}

	if _, err := NewDialect("oracle", params, log); err == nil {
		t.Error("unsupported kind accepted")
	}
}
