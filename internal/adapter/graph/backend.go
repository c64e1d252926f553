package graph

import (
	"bufio"
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/sokrates1989/dbsnap/internal/core/domain"
)

// Backend bundles the exporter and restorer behind the store-kind interface
// the operation facade is built against.
type Backend struct {
	client   Client
	exporter *Exporter
	restorer *Restorer
}

func NewBackend(client Client, progress ProgressSink, log *zap.SugaredLogger) *Backend {
	return &Backend{
		client:   client,
		exporter: NewExporter(client, log),
		restorer: NewRestorer(client, progress, log),
	}
}

func (b *Backend) Kind() string {
	return "neo4j"
}

func (b *Backend) ArtifactKind() domain.ArtifactKind {
	return domain.ArtifactKindStatement
}

func (b *Backend) DumpExt() string {
	return "cypher"
}

// RequiresSafetyBackup is false for the graph store: the statement replay
// already re-creates everything from scratch and the artifact itself is the
// rollback point.
func (b *Backend) RequiresSafetyBackup() bool {
	return false
}

func (b *Backend) Export(ctx context.Context, w io.Writer) error {
	_, err := b.exporter.Export(ctx, bufio.NewWriter(w))
	return err
}

func (b *Backend) Restore(ctx context.Context, r io.Reader) ([]domain.Warning, error) {
	return b.restorer.Restore(ctx, r)
}

func (b *Backend) Stats(ctx context.Context) (*domain.DatabaseStats, error) {
	return b.client.Stats(ctx)
}

func (b *Backend) Close(ctx context.Context) error {
	return b.client.Close(ctx)
}
