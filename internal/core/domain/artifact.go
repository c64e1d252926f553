package domain

import (
	"fmt"
	"strings"
	"time"
)

type ArtifactKind string

const (
	// ArtifactKindStatement is a one-statement-per-line export (graph stores).
	ArtifactKindStatement ArtifactKind = "statement"
	// ArtifactKindDump is the output of a native dump tool (relational stores).
	ArtifactKindDump ArtifactKind = "dump"
)

// Artifact is a persisted export file in the backup directory.
type Artifact struct {
	Filename   string       `json:"filename"`
	Path       string       `json:"-"`
	SizeBytes  int64        `json:"size_bytes"`
	SizeMB     float64      `json:"size_mb"`
	CreatedAt  time.Time    `json:"created_at"`
	Compressed bool         `json:"compressed"`
	Kind       ArtifactKind `json:"kind"`
	Safety     bool         `json:"safety"`
}

const timestampLayout = "20060102_150405"

// ArtifactFilename builds the canonical artifact name:
// backup_<store-kind>_<YYYYMMDD_HHMMSS>.<ext>[.gz]
func ArtifactFilename(storeKind, ext string, at time.Time, compress bool) string {
	name := fmt.Sprintf("backup_%s_%s.%s", storeKind, at.Format(timestampLayout), ext)
	if compress {
		name += ".gz"
	}
	return name
}

// SafetyBackupFilename builds the name of the automatic pre-restore backup:
// safety_backup_<store-kind>_<YYYYMMDD_HHMMSS>.sql.gz
func SafetyBackupFilename(storeKind string, at time.Time) string {
	return fmt.Sprintf("safety_backup_%s_%s.sql.gz", storeKind, at.Format(timestampLayout))
}

// IsCompressed reports whether the filename carries the gzip suffix.
func IsCompressed(filename string) bool {
	return strings.HasSuffix(filename, ".gz")
}

// RoundMB converts a byte count to megabytes rounded to two decimals.
func RoundMB(sizeBytes int64) float64 {
	mb := float64(sizeBytes) / (1024 * 1024)
	return float64(int64(mb*100+0.5)) / 100
}
