// Package catalog manages the persisted backup artifacts on disk.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sokrates1989/dbsnap/internal/core/domain"
)

var (
	// ErrNotFound reports a filename with no artifact behind it.
	ErrNotFound = errors.New("backup file not found")
	// ErrInvalidName reports a filename that resolves outside the backup
	// directory (path traversal).
	ErrInvalidName = errors.New("invalid backup filename")
)

// Catalog lists, resolves and deletes backup artifacts. Every read or delete
// goes through Resolve, which rejects path-traversal attempts before any
// filesystem call.
type Catalog struct {
	dir  string
	kind domain.ArtifactKind
}

func New(backupDir string, kind domain.ArtifactKind) *Catalog {
	return &Catalog{dir: backupDir, kind: kind}
}

// Dir returns the backup directory.
func (c *Catalog) Dir() string {
	return c.dir
}

// List returns all artifacts matching the naming convention, newest first.
// Safety backups are included.
func (c *Catalog) List() ([]domain.Artifact, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	artifacts := make([]domain.Artifact, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, "backup_") && !strings.HasPrefix(name, "safety_backup_") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		artifacts = append(artifacts, domain.Artifact{
			Filename:   name,
			Path:       filepath.Join(c.dir, name),
			SizeBytes:  info.Size(),
			SizeMB:     domain.RoundMB(info.Size()),
			CreatedAt:  info.ModTime(),
			Compressed: domain.IsCompressed(name),
			Kind:       c.kind,
			Safety:     strings.HasPrefix(name, "safety_backup_"),
		})
	}

	sort.Slice(artifacts, func(i, j int) bool {
		return artifacts[i].CreatedAt.After(artifacts[j].CreatedAt)
	})

	return artifacts, nil
}

// Resolve maps a filename to its artifact, enforcing that the resolved path
// stays directly inside the backup directory.
func (c *Catalog) Resolve(filename string) (*domain.Artifact, error) {
	resolved := filepath.Join(c.dir, filename)

	// Containment check before any filesystem access.
	absDir, err := filepath.Abs(c.dir)
	if err != nil {
		return nil, err
	}
	absPath, err := filepath.Abs(resolved)
	if err != nil {
		return nil, err
	}
	if filepath.Dir(absPath) != absDir {
		return nil, ErrInvalidName
	}

	info, err := os.Stat(absPath)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat backup file: %w", err)
	}

	return &domain.Artifact{
		Filename:   filename,
		Path:       absPath,
		SizeBytes:  info.Size(),
		SizeMB:     domain.RoundMB(info.Size()),
		CreatedAt:  info.ModTime(),
		Compressed: domain.IsCompressed(filename),
		Kind:       c.kind,
		Safety:     strings.HasPrefix(filename, "safety_backup_"),
	}, nil
}

// Delete removes an artifact. Destructive and unrecoverable.
func (c *Catalog) Delete(filename string) error {
	artifact, err := c.Resolve(filename)
	if err != nil {
		return err
	}
	if err := os.Remove(artifact.Path); err != nil {
		return fmt.Errorf("failed to delete backup file: %w", err)
	}
	return nil
}
