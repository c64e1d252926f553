// Package relational implements native-tool export and replay for relational
// backing stores. Each supported engine is one Dialect strategy, selected once
// at startup from configuration.
package relational

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"

	"go.uber.org/zap"

	"github.com/sokrates1989/dbsnap/internal/core/domain"
)

// ConnParams are the resolved connection parameters for the backing store.
// For sqlite, Database is the file path and the rest is unused.
type ConnParams struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// Dialect is one engine-specific dump/restore strategy. Dump and Restore
// shell out to the engine's native tools with credentials passed via the
// environment, never on the command line, so they cannot leak through
// process listings.
type Dialect interface {
	Kind() string
	DumpExt() string
	Dump(ctx context.Context, w io.Writer) error
	Restore(ctx context.Context, r io.Reader) error
	DropAll(ctx context.Context) error
	Stats(ctx context.Context) (*domain.DatabaseStats, error)
}

// NewDialect selects the strategy for the configured store kind.
func NewDialect(kind string, params ConnParams, log *zap.SugaredLogger) (Dialect, error) {
	switch kind {
	case "postgresql":
		return NewPostgres(params, log), nil
	case "mysql":
		return NewMySQL(params, log), nil
	case "sqlite":
		return NewSQLite(params.Database, log), nil
	default:
		return nil, fmt.Errorf("unsupported relational store kind: %s", kind)
	}
}

// runTool executes a native dump/restore command, streaming stdin/stdout as
// provided and surfacing stderr in the error.
func runTool(cmd *exec.Cmd, stdin io.Reader, stdout io.Writer) error {
	var stderr bytes.Buffer
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := stderr.String()
		if len(msg) > 500 {
			msg = msg[:500]
		}
		return fmt.Errorf("%s failed: %w: %s", cmd.Path, err, msg)
	}
	return nil
}
