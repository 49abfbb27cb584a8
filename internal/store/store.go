// Package store provides a quad store on SQLite used to hold the site's
// named graphs during a build.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/geoknoesis/rdf-go/rdf"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// QuadsTable is the table holding all statements. Its columns are g, s, p
// and o holding encoded terms, and o_lang holding the object language.
const QuadsTable = "quads"

// Store is a quad store backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// New creates an unopened store.
func New() *Store {
	return &Store{}
}

// NewWithDB wraps an already opened database. The schema is not migrated.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open opens or creates the database at path. Use ":memory:" for an
// in-memory database.
func (s *Store) Open(path string) error {
	dsn := ":memory:"
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}
	return s.open(path, dsn)
}

// OpenReadOnly opens an existing database without write access.
func (s *Store) OpenReadOnly(path string) error {
	return s.open(path, fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", path))
}

func (s *Store) open(path, dsn string) error {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// A single connection keeps in-memory databases shared and writes serialized.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	return nil
}

// Path returns the path the store was opened with.
func (s *Store) Path() string { return s.path }

// Close closes the database connection. Closing an unopened store is a no-op.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Update runs fn inside a transaction, committing when fn succeeds and
// rolling back otherwise.
func (s *Store) Update(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := s.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Count returns the number of statements in graph.
func (s *Store) Count(ctx context.Context, graph rdf.Term) (int64, error) {
	if s.db == nil {
		return 0, fmt.Errorf("database not opened")
	}
	return count(ctx, s.db, graph)
}

// CountAll returns the number of statements in the store.
func (s *Store) CountAll(ctx context.Context) (int64, error) {
	if s.db == nil {
		return 0, fmt.Errorf("database not opened")
	}
	return countAll(ctx, s.db)
}

// Export returns the statements of graph in insertion order. The returned
// quads carry no graph name.
func (s *Store) Export(ctx context.Context, graph rdf.Term) ([]rdf.Quad, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	g, err := EncodeGraph(graph)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT s, p, o FROM "+QuadsTable+" WHERE g = ? ORDER BY rowid", g)
	if err != nil {
		return nil, fmt.Errorf("failed to export graph %s: %w", g, err)
	}
	defer func() { _ = rows.Close() }()

	var quads []rdf.Quad
	for rows.Next() {
		var es, ep, eo string
		if err := rows.Scan(&es, &ep, &eo); err != nil {
			return nil, err
		}
		q, err := decodeTriple(es, ep, eo)
		if err != nil {
			return nil, err
		}
		quads = append(quads, q)
	}
	return quads, rows.Err()
}

// Graphs returns the names of all non-default graphs.
func (s *Store) Graphs(ctx context.Context) ([]string, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT g FROM "+QuadsTable+" WHERE g <> '' ORDER BY g")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var graphs []string
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, err
		}
		t, err := DecodeTerm(g)
		if err != nil {
			return nil, err
		}
		graphs = append(graphs, t.String())
	}
	return graphs, rows.Err()
}

// Namespaces returns the registered prefix table.
func (s *Store) Namespaces(ctx context.Context) (map[string]string, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx, "SELECT prefix, namespace FROM namespaces")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	ns := make(map[string]string)
	for rows.Next() {
		var prefix, namespace string
		if err := rows.Scan(&prefix, &namespace); err != nil {
			return nil, err
		}
		ns[prefix] = namespace
	}
	return ns, rows.Err()
}

// QueryContext runs a read query against the store. It lets query engines
// evaluate against the quads table.
func (s *Store) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	return s.db.QueryContext(ctx, query, args...)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func count(ctx context.Context, q queryer, graph rdf.Term) (int64, error) {
	g, err := EncodeGraph(graph)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+QuadsTable+" WHERE g = ?", g).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count graph %s: %w", g, err)
	}
	return n, nil
}

func countAll(ctx context.Context, q queryer) (int64, error) {
	var n int64
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+QuadsTable).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count statements: %w", err)
	}
	return n, nil
}

func decodeTriple(s, p, o string) (rdf.Quad, error) {
	st, err := DecodeTerm(s)
	if err != nil {
		return rdf.Quad{}, err
	}
	pt, err := DecodeTerm(p)
	if err != nil {
		return rdf.Quad{}, err
	}
	iri, ok := pt.(rdf.IRI)
	if !ok {
		return rdf.Quad{}, fmt.Errorf("predicate %s is not an IRI", p)
	}
	ot, err := DecodeTerm(o)
	if err != nil {
		return rdf.Quad{}, err
	}
	return rdf.Quad{S: st, P: iri, O: ot}, nil
}
