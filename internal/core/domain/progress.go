package domain

import "time"

type RestoreStatus string

const (
	RestoreStatusNone       RestoreStatus = "none"
	RestoreStatusInProgress RestoreStatus = "in_progress"
	RestoreStatusCompleted  RestoreStatus = "completed"
	RestoreStatusFailed     RestoreStatus = "failed"
)

// MaxWarnings caps the warning list persisted alongside restore progress.
const MaxWarnings = 100

// Warning records a single statement that failed during replay. The restore
// keeps going; the warning is the only trace of the failure.
type Warning struct {
	StatementIndex int    `json:"statement_index"`
	Total          int    `json:"total"`
	Error          string `json:"error"`
	Statement      string `json:"statement"` // truncated snippet for diagnosis
}

// WarningSnippetLen limits the statement snippet stored in a Warning.
const WarningSnippetLen = 200

// NewWarning builds a Warning with the statement truncated to WarningSnippetLen.
func NewWarning(index, total int, err error, statement string) Warning {
	if len(statement) > WarningSnippetLen {
		statement = statement[:WarningSnippetLen]
	}
	return Warning{
		StatementIndex: index,
		Total:          total,
		Error:          err.Error(),
		Statement:      statement,
	}
}

// RestoreProgress is the pollable record of an in-flight or last-finished
// restore. Exactly one instance exists per deployment; it is overwritten in
// place and survives completion for later inspection.
type RestoreProgress struct {
	Status        RestoreStatus `json:"status"`
	Current       int           `json:"current"`
	Total         int           `json:"total"`
	Message       string        `json:"message"`
	WarningsCount int           `json:"warnings_count"`
	Timestamp     time.Time     `json:"timestamp"`

	// Merged in from sibling records on read.
	IsLocked             bool      `json:"is_locked"`
	LockOperation        string    `json:"lock_operation,omitempty"`
	Warnings             []Warning `json:"warnings,omitempty"`
	SafetyBackupCreated  bool      `json:"safety_backup_created"`
	SafetyBackupFilename string    `json:"safety_backup_filename,omitempty"`
}

// DatabaseStats is the read-only pre/post-flight report of the backing store.
type DatabaseStats struct {
	StoreKind string `json:"store_kind"`

	// Graph stores
	NodeCount         int64    `json:"node_count,omitempty"`
	RelationshipCount int64    `json:"relationship_count,omitempty"`
	Labels            []string `json:"labels,omitempty"`
	RelationshipTypes []string `json:"relationship_types,omitempty"`

	// Relational stores
	Tables         []TableStats `json:"tables,omitempty"`
	TotalSizeBytes int64        `json:"total_size_bytes,omitempty"`
}

type TableStats struct {
	Name      string `json:"name"`
	RowCount  int64  `json:"row_count"`
	SizeBytes int64  `json:"size_bytes"`
}
