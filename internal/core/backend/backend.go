package backend

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/sokrates1989/dbsnap/internal/adapter/graph"
	"github.com/sokrates1989/dbsnap/internal/adapter/relational"
	"github.com/sokrates1989/dbsnap/internal/core/domain"
	"github.com/sokrates1989/dbsnap/pkg/config"
)

// Backend is one configured store behind a uniform export/restore surface.
// The concrete implementation is selected once at startup from the store
// kind; everything above this interface is engine-agnostic.
type Backend interface {
	Kind() string
	ArtifactKind() domain.ArtifactKind
	DumpExt() string
	RequiresSafetyBackup() bool
	Export(ctx context.Context, w io.Writer) error
	Restore(ctx context.Context, r io.Reader) ([]domain.Warning, error)
	Stats(ctx context.Context) (*domain.DatabaseStats, error)
	Close(ctx context.Context) error
}

// New builds the backend for the configured store kind. The progress sink is
// only consumed by the graph backend, which reports per-statement replay
// progress; relational restores are opaque to the native tools.
func New(cfg *config.Config, progress graph.ProgressSink, log *zap.SugaredLogger) (Backend, error) {
	switch cfg.StoreKind {
	case "neo4j":
		client, err := graph.NewBoltClient(cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword)
		if err != nil {
			return nil, fmt.Errorf("connecting to neo4j: %w", err)
		}
		return graph.NewBackend(client, progress, log), nil
	case "postgresql", "mysql", "sqlite":
		dialect, err := relational.NewDialect(cfg.StoreKind, relational.ConnParams{
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			User:     cfg.DBUser,
			Password: cfg.DBPassword,
			Database: cfg.DBName,
		}, log)
		if err != nil {
			return nil, err
		}
		return relational.NewBackend(dialect), nil
	default:
		return nil, fmt.Errorf("unsupported store kind %q", cfg.StoreKind)
	}
}
