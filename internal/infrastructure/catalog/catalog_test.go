package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sokrates1989/dbsnap/internal/core/domain"
)

func writeArtifact(t *testing.T, dir, name string, age time.Duration) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("content"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	mtime := time.Now().Add(-age)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes %s: %v", name, err)
	}
}

func TestListNewestFirst(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "backup_neo4j_20260101_100000.cypher.gz", 48*time.Hour)
	writeArtifact(t, dir, "backup_neo4j_20260103_100000.cypher.gz", 2*time.Hour)
	writeArtifact(t, dir, "safety_backup_neo4j_20260102_100000.sql.gz", 24*time.Hour)
	writeArtifact(t, dir, "notes.txt", time.Hour) // not an artifact

	cat := New(dir, domain.ArtifactKindStatement)
	artifacts, err := cat.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	if len(artifacts) != 3 {
		t.Fatalf("listed %d artifacts, want 3", len(artifacts))
	}
	expected := []string{
		"backup_neo4j_20260103_100000.cypher.gz",
		"safety_backup_neo4j_20260102_100000.sql.gz",
		"backup_neo4j_20260101_100000.cypher.gz",
	}
	for i, name := range expected {
		if artifacts[i].Filename != name {
			t.Errorf("artifact[%d] = %s, want %s", i, artifacts[i].Filename, name)
		}
	}

	if !artifacts[1].Safety {
		t.Error("safety backup not flagged")
	}
	if !artifacts[0].Compressed {
		t.Error("gzip artifact not flagged compressed")
	}
}

func TestListEmptyDirectory(t *testing.T) {
	cat := New(t.TempDir(), domain.ArtifactKindDump)
	artifacts, err := cat.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(artifacts) != 0 {
		t.Errorf("listed %d artifacts in empty dir", len(artifacts))
	}
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "backup_mysql_20260101_120000.sql", 0)

	cat := New(dir, domain.ArtifactKindDump)

	artifact, err := cat.Resolve("backup_mysql_20260101_120000.sql")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if artifact.SizeBytes != int64(len("content")) {
		t.Errorf("size = %d", artifact.SizeBytes)
	}
	if artifact.Compressed {
		t.Error("plain artifact flagged compressed")
	}
}

func TestResolveMissingFile(t *testing.T) {
	cat := New(t.TempDir(), domain.ArtifactKindDump)

	_, err := cat.Resolve("backup_mysql_20260101_120000.sql")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestResolveRejectsTraversal(t *testing.T) {
	dir := t.TempDir()

	// A real file outside the backup directory must stay unreachable.
	outside := filepath.Join(dir, "..", "secret.txt")
	if err := os.WriteFile(outside, []byte("secret"), 0o644); err != nil {
		t.Fatalf("write outside file: %v", err)
	}
	defer os.Remove(outside)

	cat := New(dir, domain.ArtifactKindDump)

	attempts := []string{
		"../secret.txt",
		"../../etc/passwd",
		"/etc/passwd",
		"sub/backup_mysql_20260101_120000.sql",
	}
	for _, name := range attempts {
		if _, err := cat.Resolve(name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Resolve(%q) err = %v, want ErrInvalidName", name, err)
		}
	}
}

func TestDelete(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, "backup_sqlite_20260101_120000.sqlite.gz", 0)

	cat := New(dir, domain.ArtifactKindDump)

	if err := cat.Delete("backup_sqlite_20260101_120000.sqlite.gz"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "backup_sqlite_20260101_120000.sqlite.gz")); !os.IsNotExist(err) {
		t.Error("artifact still exists after delete")
	}

	if err := cat.Delete("backup_sqlite_20260101_120000.sqlite.gz"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}

	if err := cat.Delete("../something"); !errors.Is(err, ErrInvalidName) {
		t.Errorf("traversal delete err = %v, want ErrInvalidName", err)
	}
}
