package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/sokrates1989/dbsnap/internal/core/backend"
	"github.com/sokrates1989/dbsnap/internal/core/domain"
	"github.com/sokrates1989/dbsnap/internal/infrastructure/catalog"
	"github.com/sokrates1989/dbsnap/internal/infrastructure/state"
)

const (
	opBackup  = "backup"
	opRestore = "restore"
)

// BackupService orchestrates every backup and restore operation: it owns the
// global lock around destructive work, the gzip wrapping of artifacts, the
// pre-restore safety backup and the mapping of infrastructure failures to
// typed errors. Handlers and CLI commands never talk to the backend directly.
type BackupService struct {
	backend  backend.Backend
	catalog  *catalog.Catalog
	lock     *state.LockCoordinator
	progress *state.ProgressTracker
	log      *zap.SugaredLogger

	now func() time.Time
}

func NewBackupService(be backend.Backend, cat *catalog.Catalog, lock *state.LockCoordinator, progress *state.ProgressTracker, log *zap.SugaredLogger) *BackupService {
	return &BackupService{
		backend:  be,
		catalog:  cat,
		lock:     lock,
		progress: progress,
		log:      log,
		now:      time.Now,
	}
}

// Create exports the store into a new artifact in the backup directory.
// The export is written to a temporary file first and renamed on success, so
// a failed export never leaves a half-written artifact behind.
func (s *BackupService) Create(ctx context.Context, compress bool) (*domain.Artifact, error) {
	release, err := s.acquire(opBackup)
	if err != nil {
		return nil, err
	}
	defer release()

	filename := domain.ArtifactFilename(s.backend.Kind(), s.backend.DumpExt(), s.now(), compress)
	path := filepath.Join(s.catalog.Dir(), filename)

	s.log.Infow("creating backup", "filename", filename, "compress", compress)
	if err := s.exportTo(ctx, path, compress); err != nil {
		return nil, &BackendError{Op: "backup failed", Err: err}
	}

	artifact, err := s.catalog.Resolve(filename)
	if err != nil {
		return nil, s.mapCatalogErr(filename, err)
	}
	s.log.Infow("backup created", "filename", filename, "size_mb", artifact.SizeMB)
	return artifact, nil
}

// Restore replays an existing artifact into the store. For backends that
// require it, a compressed safety backup of the current state is taken first;
// if that fails the restore is aborted before anything destructive happens.
func (s *BackupService) Restore(ctx context.Context, filename string) ([]domain.Warning, error) {
	artifact, err := s.catalog.Resolve(filename)
	if err != nil {
		return nil, s.mapCatalogErr(filename, err)
	}

	release, err := s.acquire(opRestore)
	if err != nil {
		return nil, err
	}
	defer release()

	return s.restoreLocked(ctx, artifact.Path, artifact.Compressed)
}

// RestoreUpload restores from an uploaded dump. The upload is spooled to a
// temporary file outside the backup directory and removed on every path, so
// uploads never appear in the catalog.
func (s *BackupService) RestoreUpload(ctx context.Context, r io.Reader, filename string) ([]domain.Warning, error) {
	tmp, err := os.CreateTemp("", "dbsnap-upload-*")
	if err != nil {
		return nil, &BackendError{Op: "failed to spool upload", Err: err}
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, &BackendError{Op: "failed to spool upload", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return nil, &BackendError{Op: "failed to spool upload", Err: err}
	}

	release, err := s.acquire(opRestore)
	if err != nil {
		return nil, err
	}
	defer release()

	return s.restoreLocked(ctx, tmpPath, domain.IsCompressed(filename))
}

// List returns every artifact in the backup directory, newest first.
func (s *BackupService) List() ([]domain.Artifact, error) {
	artifacts, err := s.catalog.List()
	if err != nil {
		return nil, &BackendError{Op: "failed to list backups", Err: err}
	}
	return artifacts, nil
}

// Delete removes an artifact permanently.
func (s *BackupService) Delete(filename string) error {
	if err := s.catalog.Delete(filename); err != nil {
		return s.mapCatalogErr(filename, err)
	}
	s.log.Infow("backup deleted", "filename", filename)
	return nil
}

// ResolveDownload validates a filename and returns the artifact for serving.
func (s *BackupService) ResolveDownload(filename string) (*domain.Artifact, error) {
	artifact, err := s.catalog.Resolve(filename)
	if err != nil {
		return nil, s.mapCatalogErr(filename, err)
	}
	return artifact, nil
}

// Status merges the persisted restore progress with the live lock state. A
// deployment that never ran a restore reports status "none".
func (s *BackupService) Status() (*domain.RestoreProgress, error) {
	progress, err := s.progress.Get()
	if err != nil {
		return nil, &BackendError{Op: "failed to read restore progress", Err: err}
	}
	if progress == nil {
		progress = &domain.RestoreProgress{Status: domain.RestoreStatusNone}
	}
	if op, held := s.lock.Check(); held {
		progress.IsLocked = true
		progress.LockOperation = op
	}
	return progress, nil
}

// Stats reports the current shape of the backing store. Read-only, runs
// without the lock.
func (s *BackupService) Stats(ctx context.Context) (*domain.DatabaseStats, error) {
	stats, err := s.backend.Stats(ctx)
	if err != nil {
		return nil, &BackendError{Op: "failed to collect stats", Err: err}
	}
	return stats, nil
}

// Lock takes the global lock for an externally driven operation.
func (s *BackupService) Lock(operation string) error {
	ok, err := s.lock.Acquire(operation)
	if err != nil {
		return &BackendError{Op: "failed to acquire lock", Err: err}
	}
	if !ok {
		held, _ := s.lock.Check()
		return &LockConflictError{Operation: held}
	}
	return nil
}

// Unlock force-releases the global lock.
func (s *BackupService) Unlock() {
	s.lock.Release()
}

// LockStatus returns the current lock holder, if any.
func (s *BackupService) LockStatus() (string, bool) {
	return s.lock.Check()
}

// acquire takes the global lock and returns the matching release func. A held
// lock surfaces as LockConflictError naming the running operation.
func (s *BackupService) acquire(operation string) (func(), error) {
	ok, err := s.lock.Acquire(operation)
	if err != nil {
		return nil, &BackendError{Op: "failed to acquire lock", Err: err}
	}
	if !ok {
		held, _ := s.lock.Check()
		return nil, &LockConflictError{Operation: held}
	}
	return s.lock.Release, nil
}

// restoreLocked runs the destructive part of a restore. The caller holds the
// lock. Order matters: the safety backup must land on disk before the backend
// touches the store.
func (s *BackupService) restoreLocked(ctx context.Context, path string, compressed bool) ([]domain.Warning, error) {
	_ = s.progress.ClearSafetyBackup()
	_ = s.progress.Update(domain.RestoreStatusInProgress, 0, 0, "starting restore", nil)

	if s.backend.RequiresSafetyBackup() {
		if err := s.safetyBackup(ctx); err != nil {
			return nil, s.failRestore("safety backup failed, restore aborted", err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, s.failRestore("failed to open backup file", err)
	}
	defer f.Close()

	var reader io.Reader = f
	if compressed {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, s.failRestore("failed to decompress backup file", err)
		}
		defer gz.Close()
		reader = gz
	}

	// The graph backend drives granular per-statement progress itself; for
	// dump backends the native tool is opaque, so bracket it coarsely here.
	coarse := s.backend.ArtifactKind() == domain.ArtifactKindDump
	if coarse {
		_ = s.progress.Update(domain.RestoreStatusInProgress, 0, 0, "restoring from dump", nil)
	}

	warnings, err := s.backend.Restore(ctx, reader)
	if err != nil {
		if coarse {
			_ = s.progress.Update(domain.RestoreStatusFailed, 0, 0, err.Error(), nil)
		}
		return warnings, &BackendError{Op: "restore failed", Err: err}
	}
	if coarse {
		_ = s.progress.Update(domain.RestoreStatusCompleted, 0, 0, "restore completed", nil)
	}

	s.log.Infow("restore completed", "warnings", len(warnings))
	return warnings, nil
}

// failRestore records the fatal failure in the progress record, so pollers of
// a background restore see it, and returns the matching typed error.
func (s *BackupService) failRestore(op string, err error) error {
	_ = s.progress.Update(domain.RestoreStatusFailed, 0, 0, fmt.Sprintf("%s: %v", op, err), nil)
	return &BackendError{Op: op, Err: err}
}

// safetyBackup snapshots the current store into a compressed artifact before
// a destructive restore. The snapshot stays in the catalog afterwards and its
// filename is surfaced through the restore status.
func (s *BackupService) safetyBackup(ctx context.Context) error {
	filename := domain.SafetyBackupFilename(s.backend.Kind(), s.now())
	path := filepath.Join(s.catalog.Dir(), filename)
	s.log.Infow("creating safety backup", "filename", filename)
	if err := s.exportTo(ctx, path, true); err != nil {
		return err
	}
	_ = s.progress.RecordSafetyBackup(filename)
	return nil
}

// exportTo streams the backend export into path, optionally gzipped, via a
// temporary file renamed into place on success.
func (s *BackupService) exportTo(ctx context.Context, path string, compress bool) error {
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}

	var w io.Writer = f
	var gz *gzip.Writer
	if compress {
		gz = gzip.NewWriter(f)
		w = gz
	}

	exportErr := s.backend.Export(ctx, w)
	if gz != nil {
		if err := gz.Close(); err != nil && exportErr == nil {
			exportErr = err
		}
	}
	if err := f.Close(); err != nil && exportErr == nil {
		exportErr = err
	}

	if exportErr != nil {
		os.Remove(tmpPath)
		return exportErr
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to finalize backup file: %w", err)
	}
	return nil
}

func (s *BackupService) mapCatalogErr(filename string, err error) error {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return &NotFoundError{Filename: filename}
	case errors.Is(err, catalog.ErrInvalidName):
		return &ValidationError{Message: fmt.Sprintf("invalid backup filename: %s", filename)}
	default:
		return &BackendError{Op: "catalog error", Err: err}
	}
}
