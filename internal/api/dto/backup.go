package dto

import (
	"time"

	"github.com/sokrates1989/dbsnap/internal/core/domain"
)

// CreateBackupRequest represents the backup creation request. Compression
// defaults to on when the field is omitted.
type CreateBackupRequest struct {
	Compress *bool `json:"compress"`
}

// BackupResponse represents a single backup artifact
type BackupResponse struct {
	Filename   string    `json:"filename"`
	SizeBytes  int64     `json:"size_bytes"`
	SizeMB     float64   `json:"size_mb"`
	CreatedAt  time.Time `json:"created_at"`
	Compressed bool      `json:"compressed"`
	Kind       string    `json:"kind"`
	Safety     bool      `json:"safety"`
}

// BackupListResponse represents the full artifact listing, newest first
type BackupListResponse struct {
	Items []BackupResponse `json:"items"`
	Count int              `json:"count"`
}

func ToBackupResponse(a domain.Artifact) BackupResponse {
	return BackupResponse{
		Filename:   a.Filename,
		SizeBytes:  a.SizeBytes,
		SizeMB:     a.SizeMB,
		CreatedAt:  a.CreatedAt,
		Compressed: a.Compressed,
		Kind:       string(a.Kind),
		Safety:     a.Safety,
	}
}
