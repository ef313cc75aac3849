package kv

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect captures the SQL differences between the supported databases.
type Dialect struct {
	Name        string
	driver      string
	placeholder func(n int) string
	serialType  string
}

var (
	Postgres = Dialect{
		Name:        "postgres",
		driver:      "postgres",
		placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
		serialType:  "BIGSERIAL PRIMARY KEY",
	}
	SQLite = Dialect{
		Name:        "sqlite",
		driver:      "sqlite3",
		placeholder: func(int) string { return "?" },
		serialType:  "INTEGER PRIMARY KEY AUTOINCREMENT",
	}
)

// SQLBackend stores values in a kv_store table and log entries in a kv_log
// table of a PostgreSQL or SQLite database.
type SQLBackend struct {
	db      *sql.DB
	dialect Dialect
}

// ConnectPostgres establishes a connection to PostgreSQL
func ConnectPostgres(connStr string) (*sql.DB, error) {
	db, err := sql.Open(Postgres.driver, connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// OpenSQLite opens (creating if needed) a SQLite database file.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open(SQLite.driver, path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite serialises writers; one connection avoids SQLITE_BUSY under load.
	db.SetMaxOpenConns(1)
	return db, nil
}

// NewSQLBackend wraps db and creates the tables when missing.
func NewSQLBackend(ctx context.Context, db *sql.DB, dialect Dialect) (*SQLBackend, error) {
	b := &SQLBackend{db: db, dialect: dialect}
	if err := b.initTables(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}
	return b, nil
}

func (b *SQLBackend) initTables(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS kv_store (
			item_key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS kv_log (
			seq ` + b.dialect.serialType + `,
			stream TEXT NOT NULL,
			value TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_kv_log_stream ON kv_log (stream, seq)`,
	}
	for _, stmt := range stmts {
		if _, err := b.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// bind rewrites ? placeholders into the dialect's form.
func (b *SQLBackend) bind(query string) string {
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString(b.dialect.placeholder(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func (b *SQLBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	err := b.db.QueryRowContext(ctx,
		b.bind("SELECT value FROM kv_store WHERE item_key = ?"), key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(value), true, nil
}

func (b *SQLBackend) Set(ctx context.Context, key string, value []byte) error {
	_, err := b.db.ExecContext(ctx,
		b.bind(`INSERT INTO kv_store (item_key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (item_key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`),
		key, string(value), time.Now().UTC(),
	)
	return err
}

func (b *SQLBackend) Remove(ctx context.Context, key string) error {
	_, err := b.db.ExecContext(ctx, b.bind("DELETE FROM kv_store WHERE item_key = ?"), key)
	return err
}

func (b *SQLBackend) Append(ctx context.Context, stream string, value []byte) error {
	_, err := b.db.ExecContext(ctx,
		b.bind("INSERT INTO kv_log (stream, value, created_at) VALUES (?, ?, ?)"),
		stream, string(value), time.Now().UTC(),
	)
	return err
}

func (b *SQLBackend) Range(ctx context.Context, stream string) ([][]byte, error) {
	rows, err := b.db.QueryContext(ctx,
		b.bind("SELECT value FROM kv_log WHERE stream = ? ORDER BY seq ASC"), stream,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out [][]byte
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, err
		}
		out = append(out, []byte(value))
	}
	return out, rows.Err()
}

func (b *SQLBackend) Close() error {
	return b.db.Close()
}
