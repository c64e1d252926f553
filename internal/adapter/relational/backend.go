package relational

import (
	"context"
	"io"

	"github.com/sokrates1989/dbsnap/internal/core/domain"
)

// Backend adapts a Dialect to the store-kind interface the operation facade
// is built against.
type Backend struct {
	dialect Dialect
}

func NewBackend(dialect Dialect) *Backend {
	return &Backend{dialect: dialect}
}

func (b *Backend) Kind() string {
	return b.dialect.Kind()
}

func (b *Backend) ArtifactKind() domain.ArtifactKind {
	return domain.ArtifactKindDump
}

func (b *Backend) DumpExt() string {
	return b.dialect.DumpExt()
}

// RequiresSafetyBackup is true for relational stores: the restore wipes the
// whole schema before replaying the dump, so the facade snapshots the current
// state first to give the operator a way back.
func (b *Backend) RequiresSafetyBackup() bool {
	return true
}

func (b *Backend) Export(ctx context.Context, w io.Writer) error {
	return b.dialect.Dump(ctx, w)
}

// Restore wipes the schema and pipes the dump into the native restore tool.
// Relational replay delegates error handling to the tool, so it produces no
// per-statement warnings.
func (b *Backend) Restore(ctx context.Context, r io.Reader) ([]domain.Warning, error) {
	if err := b.dialect.DropAll(ctx); err != nil {
		return nil, err
	}
	if err := b.dialect.Restore(ctx, r); err != nil {
		return nil, err
	}
	return nil, nil
}

func (b *Backend) Stats(ctx context.Context) (*domain.DatabaseStats, error) {
	return b.dialect.Stats(ctx)
}

func (b *Backend) Close(ctx context.Context) error {
	return nil
}
