package relational

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/sokrates1989/dbsnap/internal/core/domain"
)

// MySQL dumps with mariadb-dump (falling back to mysqldump) and replays with
// the matching client tool.
type MySQL struct {
	params ConnParams
	log    *zap.SugaredLogger
}

var _ Dialect = (*MySQL)(nil)

func NewMySQL(params ConnParams, log *zap.SugaredLogger) *MySQL {
	return &MySQL{params: params, log: log}
}

func (m *MySQL) Kind() string {
	return "mysql"
}

func (m *MySQL) DumpExt() string {
	return "sql"
}

// pickTool prefers the MariaDB-branded binary and falls back to the MySQL one.
func pickTool(preferred, fallback string) string {
	if _, err := exec.LookPath(preferred); err == nil {
		return preferred
	}
	return fallback
}

func (m *MySQL) connArgs() []string {
	return []string{
		"-h", m.params.Host,
		"-P", strconv.Itoa(m.params.Port),
		"-u", m.params.User,
		m.params.Database,
	}
}

func (m *MySQL) env() []string {
	return append(os.Environ(), "MYSQL_PWD="+m.params.Password)
}

func (m *MySQL) Dump(ctx context.Context, w io.Writer) error {
	tool := pickTool("mariadb-dump", "mysqldump")
	args := append(m.connArgs(), "--single-transaction", "--skip-lock-tables")
	cmd := exec.CommandContext(ctx, tool, args...)
	cmd.Env = m.env()

	m.log.Infow("running dump", "tool", tool, "database", m.params.Database)
	return runTool(cmd, nil, w)
}

func (m *MySQL) Restore(ctx context.Context, r io.Reader) error {
	tool := pickTool("mariadb", "mysql")
	cmd := exec.CommandContext(ctx, tool, m.connArgs()...)
	cmd.Env = m.env()

	m.log.Infow("running restore", "tool", tool, "database", m.params.Database)
	return runTool(cmd, r, io.Discard)
}

func (m *MySQL) open() (*sqlx.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s",
		m.params.User, m.params.Password, m.params.Host, m.params.Port, m.params.Database)
	db, err := sqlx.Connect("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mysql: %w", err)
	}
	return db, nil
}

func quoteMySQL(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// DropAll drops every table with foreign-key checks disabled for the
// duration, so drop order does not matter.
func (m *MySQL) DropAll(ctx context.Context) error {
	db, err := m.open()
	if err != nil {
		return err
	}
	defer db.Close()

	var tables []string
	if err := db.SelectContext(ctx, &tables, `SHOW TABLES`); err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}

	if _, err := db.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS = 0"); err != nil {
		return fmt.Errorf("failed to disable foreign key checks: %w", err)
	}
	defer db.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS = 1")

	for _, table := range tables {
		stmt := fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteMySQL(table))
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}

	m.log.Infow("dropped all tables", "count", len(tables))
	return nil
}

func (m *MySQL) Stats(ctx context.Context) (*domain.DatabaseStats, error) {
	db, err := m.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	stats := &domain.DatabaseStats{StoreKind: m.Kind()}

	rows := []struct {
		Name string `db:"table_name"`
		Rows int64  `db:"row_count"`
		Size int64  `db:"size_bytes"`
	}{}
	if err := db.SelectContext(ctx, &rows, `
		SELECT table_name,
		       table_rows AS row_count,
		       data_length + index_length AS size_bytes
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		ORDER BY table_name`); err != nil {
		return nil, fmt.Errorf("failed to query table stats: %w", err)
	}
	for _, row := range rows {
		stats.Tables = append(stats.Tables, domain.TableStats{
			Name:      row.Name,
			RowCount:  row.Rows,
			SizeBytes: row.Size,
		})
		stats.TotalSizeBytes += row.Size
	}

	return stats, nil
}
