package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sokrates1989/dbsnap/internal/core/domain"
)

const (
	progressKey = "restore_progress.json"
	warningsKey = "restore_warnings.json"
	safetyKey   = "safety_backup.json"
)

// progressRecord is the persisted progress payload. Warnings live in a
// sibling record so pollers reading only the summary stay cheap.
type progressRecord struct {
	Status        string    `json:"status"`
	Current       int       `json:"current"`
	Total         int       `json:"total"`
	Message       string    `json:"message"`
	WarningsCount int       `json:"warnings_count"`
	Timestamp     time.Time `json:"timestamp"`
}

// safetyRecord points at the safety artifact the current restore created.
type safetyRecord struct {
	Filename  string    `json:"filename"`
	Timestamp time.Time `json:"timestamp"`
}

// ProgressTracker persists the live/last-known status of a restore. Each
// update overwrites the previous record; the record is never deleted on
// success so a finished restore stays inspectable.
type ProgressTracker struct {
	store Store
}

func NewProgressTracker(store Store) *ProgressTracker {
	return &ProgressTracker{store: store}
}

// Update persists the full progress record plus the capped warnings list.
func (t *ProgressTracker) Update(status domain.RestoreStatus, current, total int, message string, warnings []domain.Warning) error {
	if len(warnings) > domain.MaxWarnings {
		warnings = warnings[:domain.MaxWarnings]
	}

	rec := progressRecord{
		Status:        string(status),
		Current:       current,
		Total:         total,
		Message:       message,
		WarningsCount: len(warnings),
		Timestamp:     time.Now().UTC(),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal progress: %w", err)
	}
	if err := t.store.Write(progressKey, data); err != nil {
		return fmt.Errorf("failed to persist progress: %w", err)
	}

	if warnings == nil {
		warnings = []domain.Warning{}
	}
	wdata, err := json.Marshal(warnings)
	if err != nil {
		return fmt.Errorf("failed to marshal warnings: %w", err)
	}
	if err := t.store.Write(warningsKey, wdata); err != nil {
		return fmt.Errorf("failed to persist warnings: %w", err)
	}

	return nil
}

// RecordSafetyBackup notes the safety artifact created by the running
// restore so status pollers know their rollback point.
func (t *ProgressTracker) RecordSafetyBackup(filename string) error {
	data, err := json.Marshal(safetyRecord{Filename: filename, Timestamp: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to marshal safety record: %w", err)
	}
	if err := t.store.Write(safetyKey, data); err != nil {
		return fmt.Errorf("failed to persist safety record: %w", err)
	}
	return nil
}

// ClearSafetyBackup drops the record. Called when a restore starts so a
// lingering filename from an earlier run never shows up as this run's.
func (t *ProgressTracker) ClearSafetyBackup() error {
	return t.store.Delete(safetyKey)
}

// Get returns the last-written progress, or nil when no restore has ever run.
func (t *ProgressTracker) Get() (*domain.RestoreProgress, error) {
	data, err := t.store.Read(progressKey)
	if errors.Is(err, ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rec progressRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse progress record: %w", err)
	}

	progress := &domain.RestoreProgress{
		Status:        domain.RestoreStatus(rec.Status),
		Current:       rec.Current,
		Total:         rec.Total,
		Message:       rec.Message,
		WarningsCount: rec.WarningsCount,
		Timestamp:     rec.Timestamp,
	}

	// Warnings are best-effort; a missing sibling record is not an error.
	if wdata, err := t.store.Read(warningsKey); err == nil {
		_ = json.Unmarshal(wdata, &progress.Warnings)
	}

	if sdata, err := t.store.Read(safetyKey); err == nil {
		var srec safetyRecord
		if json.Unmarshal(sdata, &srec) == nil && srec.Filename != "" {
			progress.SafetyBackupCreated = true
			progress.SafetyBackupFilename = srec.Filename
		}
	}

	return progress, nil
}
