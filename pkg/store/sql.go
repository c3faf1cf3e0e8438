package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// dialect holds the backend-specific SQL for a [SQLStore].
type dialect struct {
	name   string
	driver string
	schema string
	upsert string
	get    string
	delete string
	list   string
}

var sqliteDialect = dialect{
	name:   BackendSQLite,
	driver: "sqlite",
	schema: `CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	payload BLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`,
	upsert: `INSERT INTO documents (id, payload, updated_at) VALUES (?, ?, ?)
ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
	get:    `SELECT payload FROM documents WHERE id = ?`,
	delete: `DELETE FROM documents WHERE id = ?`,
	list:   `SELECT id, length(payload), updated_at FROM documents ORDER BY id`,
}

var postgresDialect = dialect{
	name:   BackendPostgres,
	driver: "pgx",
	schema: `CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	payload JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`,
	upsert: `INSERT INTO documents (id, payload, updated_at) VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`,
	get:    `SELECT payload::text FROM documents WHERE id = $1`,
	delete: `DELETE FROM documents WHERE id = $1`,
	list:   `SELECT id, octet_length(payload::text), updated_at FROM documents ORDER BY id`,
}

// SQLStore keeps documents in a single documents table.
type SQLStore struct {
	db  *sql.DB
	d   dialect
	now func() time.Time
}

// OpenSQLite opens (creating if needed) the SQLite database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLStore, error) {
	if path == "" {
		path = "pedigree.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, storeErr(err, "create sqlite directory %s", dir)
		}
	}
	return openSQL(ctx, sqliteDialect, path)
}

// OpenPostgres connects to PostgreSQL using a pgx connection string.
func OpenPostgres(ctx context.Context, dsn string) (*SQLStore, error) {
	if dsn == "" {
		return nil, storeErr(stderrors.New("empty dsn"), "open postgres")
	}
	return openSQL(ctx, postgresDialect, dsn)
}

func openSQL(ctx context.Context, d dialect, dsn string) (*SQLStore, error) {
	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, storeErr(err, "open %s", d.name)
	}
	if d.name == BackendSQLite {
		// modernc sqlite serialises writers; one connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, storeErr(err, "connect %s", d.name)
	}
	if _, err := db.ExecContext(ctx, d.schema); err != nil {
		db.Close()
		return nil, storeErr(err, "create %s schema", d.name)
	}
	return &SQLStore{db: db, d: d, now: time.Now}, nil
}

func (s *SQLStore) Backend() string { return s.d.name }

func (s *SQLStore) Get(ctx context.Context, id string) ([]byte, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, s.d.get, id).Scan(&payload)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, storeErr(err, "get %s", id)
	}
	return payload, nil
}

func (s *SQLStore) Put(ctx context.Context, id string, data []byte) error {
	var payload any = data
	if s.d.name == BackendPostgres {
		payload = string(data)
	}
	if _, err := s.db.ExecContext(ctx, s.d.upsert, id, payload, s.now().UTC()); err != nil {
		return storeErr(err, "put %s", id)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.d.delete, id)
	if err != nil {
		return storeErr(err, "delete %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr(err, "delete %s", id)
	}
	if n == 0 {
		return notFound(id)
	}
	return nil
}

func (s *SQLStore) List(ctx context.Context) ([]Info, error) {
	rows, err := s.db.QueryContext(ctx, s.d.list)
	if err != nil {
		return nil, storeErr(err, "list documents")
	}
	defer rows.Close()

	var out []Info
	for rows.Next() {
		var info Info
		if err := rows.Scan(&info.ID, &info.Size, &info.UpdatedAt); err != nil {
			return nil, storeErr(err, "scan document row")
		}
		info.UpdatedAt = info.UpdatedAt.UTC()
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err, "list documents")
	}
	return out, nil
}

func (s *SQLStore) Close() error { return s.db.Close() }

func (s *SQLStore) String() string {
	return fmt.Sprintf("SQLStore(%s)", s.d.name)
}
