package relational

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/sokrates1989/dbsnap/internal/core/domain"
)

// SQLite is the embedded-store fallback: the database is a single file, so
// export is a file copy and restore is a file replacement.
type SQLite struct {
	path string
	log  *zap.SugaredLogger
}

var _ Dialect = (*SQLite)(nil)

func NewSQLite(path string, log *zap.SugaredLogger) *SQLite {
	return &SQLite{path: path, log: log}
}

func (s *SQLite) Kind() string {
	return "sqlite"
}

func (s *SQLite) DumpExt() string {
	return "db"
}

func (s *SQLite) Dump(ctx context.Context, w io.Writer) error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("sqlite database file not found: %s: %w", s.path, err)
	}
	defer f.Close()

	s.log.Infow("copying sqlite database", "path", s.path)
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to copy sqlite database: %w", err)
	}
	return nil
}

// Restore replaces the database file. The current file is set aside first and
// put back if the replacement fails midway.
func (s *SQLite) Restore(ctx context.Context, r io.Reader) error {
	aside := s.path + ".backup"
	hadCurrent := false
	if _, err := os.Stat(s.path); err == nil {
		hadCurrent = true
		if err := copyFile(s.path, aside); err != nil {
			return fmt.Errorf("failed to set aside current database: %w", err)
		}
	}

	if err := s.writeDatabase(r); err != nil {
		if hadCurrent {
			if restoreErr := copyFile(aside, s.path); restoreErr != nil {
				s.log.Errorw("failed to put back original database", "error", restoreErr)
			}
		}
		return err
	}
	return nil
}

func (s *SQLite) writeDatabase(r io.Reader) error {
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("failed to create database file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("failed to write database file: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

func (s *SQLite) open() (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite", s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	return db, nil
}

func quoteSQLite(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (s *SQLite) DropAll(ctx context.Context) error {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return nil // nothing to drop
	}

	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()

	var tables []string
	if err := db.SelectContext(ctx, &tables,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`); err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}

	for _, table := range tables {
		stmt := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteSQLite(table))
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}

	s.log.Infow("dropped all tables", "count", len(tables))
	return nil
}

func (s *SQLite) Stats(ctx context.Context) (*domain.DatabaseStats, error) {
	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	stats := &domain.DatabaseStats{StoreKind: s.Kind()}

	var tables []string
	if err := db.SelectContext(ctx, &tables,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`); err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	for _, table := range tables {
		var count int64
		if err := db.GetContext(ctx, &count,
			fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteSQLite(table))); err != nil {
			return nil, fmt.Errorf("failed to count rows in %s: %w", table, err)
		}
		stats.Tables = append(stats.Tables, domain.TableStats{Name: table, RowCount: count})
	}

	if info, err := os.Stat(s.path); err == nil {
		stats.TotalSizeBytes = info.Size()
	}

	return stats, nil
}
