// Package store persists pedigree documents.
//
// Every backend stores the JSON document produced by pkg/document under a
// document ID:
//
//   - [FileStore]: one <id>.json file per document in a directory
//   - [SQLStore]: a documents table in SQLite (modernc.org/sqlite) or
//     PostgreSQL (pgx)
//   - [MongoStore]: one BSON document per pedigree
//   - [S3Store]: one object per document in an S3-compatible bucket
//
// Use [Open] to construct a backend from configuration, and [Load] and
// [Save] to move pedigrees in and out of any backend.
package store

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/pedigree/pkg/document"
	"github.com/matzehuels/pedigree/pkg/errors"
	"github.com/matzehuels/pedigree/pkg/observability"
	"github.com/matzehuels/pedigree/pkg/pedigree"
)

// ErrNotFound is wrapped by every backend when a document does not exist.
var ErrNotFound = stderrors.New("document not found")

// Backend names accepted by [Open].
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
	BackendS3       = "s3"
)

// Backends lists every backend name.
var Backends = []string{BackendFile, BackendSQLite, BackendPostgres, BackendMongo, BackendS3}

// Info describes a stored document.
type Info struct {
	ID        string    `json:"id"`
	Size      int       `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is a document persistence backend. Documents are opaque JSON.
type Store interface {
	// Backend returns the backend name, e.g. "sqlite".
	Backend() string

	// Get returns the document stored under id, or an error wrapping
	// ErrNotFound.
	Get(ctx context.Context, id string) ([]byte, error)

	// Put creates or replaces the document stored under id.
	Put(ctx context.Context, id string, data []byte) error

	// Delete removes id. It wraps ErrNotFound when id does not exist.
	Delete(ctx context.Context, id string) error

	// List returns every stored document, ordered by ID.
	List(ctx context.Context) ([]Info, error)

	Close() error
}

// NewID returns a fresh random document ID.
func NewID() string {
	return uuid.NewString()
}

// Load reads and decodes the pedigree stored under id.
func Load(ctx context.Context, s Store, id string) (*pedigree.Pedigree, error) {
	start := time.Now()
	p, err := load(ctx, s, id)
	observability.Store().OnLoad(ctx, s.Backend(), time.Since(start), err)
	return p, err
}

func load(ctx context.Context, s Store, id string) (*pedigree.Pedigree, error) {
	if err := errors.ValidateDocumentID(id); err != nil {
		return nil, err
	}
	data, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return document.Unmarshal(data)
}

// Save encodes p and stores it under id.
func Save(ctx context.Context, s Store, id string, p *pedigree.Pedigree) error {
	start := time.Now()
	if err := errors.ValidateDocumentID(id); err != nil {
		return err
	}
	data, err := document.Marshal(p)
	if err == nil {
		err = s.Put(ctx, id, data)
	}
	observability.Store().OnSave(ctx, s.Backend(), len(data), time.Since(start), err)
	return err
}

func notFound(id string) error {
	return errors.Wrap(errors.ErrCodeNotFound, ErrNotFound, "document %s", id)
}

func storeErr(err error, format string, args ...any) error {
	return errors.Wrap(errors.ErrCodeStore, err, format, args...)
}

// Config selects and configures a backend.
type Config struct {
	Backend string `toml:"backend"`

	// Dir is the FileStore directory.
	Dir string `toml:"dir"`

	// DSN is the SQLite path or PostgreSQL connection string, or the
	// MongoDB URI.
	DSN string `toml:"dsn"`

	// Database and Collection name the MongoDB collection.
	Database   string `toml:"database"`
	Collection string `toml:"collection"`

	S3 S3Config `toml:"s3"`
}

// Open constructs the configured backend.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendFile, "":
		return NewFileStore(cfg.Dir)
	case BackendSQLite:
		return OpenSQLite(ctx, cfg.DSN)
	case BackendPostgres:
		return OpenPostgres(ctx, cfg.DSN)
	case BackendMongo:
		return OpenMongo(ctx, MongoConfig{URI: cfg.DSN, Database: cfg.Database, Collection: cfg.Collection})
	case BackendS3:
		return OpenS3(ctx, cfg.S3)
	}
	return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown store backend %q (want one of %v)", cfg.Backend, Backends)
}
