package relational

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/sokrates1989/dbsnap/internal/core/domain"
)

// Postgres dumps with pg_dump and replays with psql. Drop-all and stats go
// through a direct driver connection.
type Postgres struct {
	params ConnParams
	log    *zap.SugaredLogger
}

var _ Dialect = (*Postgres)(nil)

func NewPostgres(params ConnParams, log *zap.SugaredLogger) *Postgres {
	return &Postgres{params: params, log: log}
}

func (p *Postgres) Kind() string {
	return "postgresql"
}

func (p *Postgres) DumpExt() string {
	return "sql"
}

func (p *Postgres) connArgs() []string {
	return []string{
		"-h", p.params.Host,
		"-p", strconv.Itoa(p.params.Port),
		"-U", p.params.User,
		"-d", p.params.Database,
	}
}

func (p *Postgres) env() []string {
	return append(os.Environ(), "PGPASSWORD="+p.params.Password)
}

func (p *Postgres) Dump(ctx context.Context, w io.Writer) error {
	args := append(p.connArgs(), "--no-owner", "--no-acl", "-F", "p")
	cmd := exec.CommandContext(ctx, "pg_dump", args...)
	cmd.Env = p.env()

	p.log.Infow("running pg_dump", "database", p.params.Database)
	return runTool(cmd, nil, w)
}

func (p *Postgres) Restore(ctx context.Context, r io.Reader) error {
	cmd := exec.CommandContext(ctx, "psql", p.connArgs()...)
	cmd.Env = p.env()

	p.log.Infow("running psql restore", "database", p.params.Database)
	return runTool(cmd, r, io.Discard)
}

func (p *Postgres) open() (*sqlx.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		p.params.Host, p.params.Port, p.params.User, p.params.Password, p.params.Database)
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return db, nil
}

// DropAll drops every table in the public schema with CASCADE, guaranteeing
// the restored dump starts from an empty schema.
func (p *Postgres) DropAll(ctx context.Context) error {
	db, err := p.open()
	if err != nil {
		return err
	}
	defer db.Close()

	var tables []string
	if err := db.SelectContext(ctx, &tables,
		`SELECT tablename FROM pg_tables WHERE schemaname = 'public'`); err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}

	for _, table := range tables {
		stmt := fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", pq.QuoteIdentifier(table))
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}

	p.log.Infow("dropped all tables", "count", len(tables))
	return nil
}

func (p *Postgres) Stats(ctx context.Context) (*domain.DatabaseStats, error) {
	db, err := p.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	stats := &domain.DatabaseStats{StoreKind: p.Kind()}

	rows := []struct {
		Name string `db:"relname"`
		Rows int64  `db:"row_count"`
		Size int64  `db:"size_bytes"`
	}{}
	if err := db.SelectContext(ctx, &rows, `
		SELECT relname,
		       n_live_tup AS row_count,
		       pg_total_relation_size(relid) AS size_bytes
		FROM pg_stat_user_tables
		ORDER BY relname`); err != nil {
		return nil, fmt.Errorf("failed to query table stats: %w", err)
	}
	for _, row := range rows {
		stats.Tables = append(stats.Tables, domain.TableStats{
			Name:      row.Name,
			RowCount:  row.Rows,
			SizeBytes: row.Size,
		})
	}

	if err := db.GetContext(ctx, &stats.TotalSizeBytes,
		`SELECT pg_database_size(current_database())`); err != nil {
		return nil, fmt.Errorf("failed to query database size: %w", err)
	}

	return stats, nil
}
