package graph

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/sokrates1989/dbsnap/internal/core/domain"
)

// ProgressSink receives restore progress updates.
type ProgressSink interface {
	Update(status domain.RestoreStatus, current, total int, message string, warnings []domain.Warning) error
}

const (
	// progressEvery is how many statements run between progress updates.
	progressEvery = 100

	// maxStatementLen bounds a single export line. Statements cannot span
	// lines (the codec escapes embedded newlines) but property values can be
	// large.
	maxStatementLen = 1 << 20
)

// Restorer replays a statement artifact into the graph store. Replay is
// best-effort total: a failing statement becomes a Warning and the loop
// continues, so one malformed legacy row cannot block recovery of the rest
// of the graph.
type Restorer struct {
	client   Client
	progress ProgressSink
	log      *zap.SugaredLogger
}

func NewRestorer(client Client, progress ProgressSink, log *zap.SugaredLogger) *Restorer {
	return &Restorer{client: client, progress: progress, log: log}
}

// Restore clears the store and replays every statement from r in order.
// Statements are read line by line, never by splitting on the terminator:
// string property values may legitimately contain semicolons.
func (r *Restorer) Restore(ctx context.Context, src io.Reader) ([]domain.Warning, error) {
	statements, err := readStatements(src)
	if err != nil {
		_ = r.progress.Update(domain.RestoreStatusFailed, 0, 0, fmt.Sprintf("failed to read backup: %v", err), nil)
		return nil, err
	}
	total := len(statements)

	if err := r.progress.Update(domain.RestoreStatusInProgress, 0, total, "clearing existing data", nil); err != nil {
		return nil, err
	}

	r.log.Infow("clearing existing graph data")
	if err := r.client.ClearAll(ctx); err != nil {
		_ = r.progress.Update(domain.RestoreStatusFailed, 0, total, fmt.Sprintf("failed to clear graph: %v", err), nil)
		return nil, err
	}

	warnings := []domain.Warning{}
	for i, stmt := range statements {
		if err := r.client.Run(ctx, stmt); err != nil {
			r.log.Warnw("statement failed during replay", "index", i, "error", err)
			if len(warnings) < domain.MaxWarnings {
				warnings = append(warnings, domain.NewWarning(i, total, err, stmt))
			}
		}

		if (i+1)%progressEvery == 0 {
			msg := fmt.Sprintf("executed %d/%d statements", i+1, total)
			_ = r.progress.Update(domain.RestoreStatusInProgress, i+1, total, msg, warnings)
		}
	}

	msg := fmt.Sprintf("restore completed: %d statements, %d warnings", total, len(warnings))
	if err := r.progress.Update(domain.RestoreStatusCompleted, total, total, msg, warnings); err != nil {
		return warnings, err
	}

	r.log.Infow("restore complete", "statements", total, "warnings", len(warnings))
	return warnings, nil
}

// readStatements collects the non-empty lines of the export, stripping the
// statement terminator before execution.
func readStatements(src io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 64*1024), maxStatementLen)

	var statements []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		statements = append(statements, strings.TrimSuffix(line, ";"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read statements: %w", err)
	}
	return statements, nil
}
