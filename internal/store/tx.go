package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/geoknoesis/rdf-go/rdf"
)

// Tx is a write transaction on the store.
type Tx struct {
	tx     *sql.Tx
	insert *sql.Stmt
}

// Begin starts a transaction.
func (s *Store) Begin(ctx context.Context) (*Tx, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// Add inserts quads. A quad without a graph name goes to the default graph.
// Statements already present in the same graph are ignored.
func (t *Tx) Add(ctx context.Context, quads ...rdf.Quad) error {
	if t.insert == nil {
		stmt, err := t.tx.PrepareContext(ctx,
			"INSERT OR IGNORE INTO "+QuadsTable+" (g, s, p, o, o_lang) VALUES (?, ?, ?, ?, ?)")
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		t.insert = stmt
	}

	for _, q := range quads {
		g, err := EncodeGraph(q.G)
		if err != nil {
			return err
		}
		s, err := EncodeTerm(q.S)
		if err != nil {
			return err
		}
		p, err := EncodeTerm(q.P)
		if err != nil {
			return err
		}
		o, err := EncodeTerm(q.O)
		if err != nil {
			return err
		}
		if _, err := t.insert.ExecContext(ctx, g, s, p, o, LanguageOf(q.O)); err != nil {
			return fmt.Errorf("failed to insert statement: %w", err)
		}
	}
	return nil
}

// ClearNamespaces removes every registered prefix.
func (t *Tx) ClearNamespaces(ctx context.Context) error {
	if _, err := t.tx.ExecContext(ctx, "DELETE FROM namespaces"); err != nil {
		return fmt.Errorf("failed to clear namespaces: %w", err)
	}
	return nil
}

// SetNamespace registers or replaces a prefix.
func (t *Tx) SetNamespace(ctx context.Context, prefix, namespace string) error {
	_, err := t.tx.ExecContext(ctx,
		"INSERT INTO namespaces (prefix, namespace) VALUES (?, ?) ON CONFLICT(prefix) DO UPDATE SET namespace = excluded.namespace",
		prefix, namespace)
	if err != nil {
		return fmt.Errorf("failed to set namespace %s: %w", prefix, err)
	}
	return nil
}

// Count returns the number of statements in graph, including uncommitted ones.
func (t *Tx) Count(ctx context.Context, graph rdf.Term) (int64, error) {
	return count(ctx, t.tx, graph)
}

// CountAll returns the number of statements in the store, including uncommitted ones.
func (t *Tx) CountAll(ctx context.Context) (int64, error) {
	return countAll(ctx, t.tx)
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	t.closeStmt()
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Rollback aborts the transaction.
func (t *Tx) Rollback() error {
	t.closeStmt()
	return t.tx.Rollback()
}

func (t *Tx) closeStmt() {
	if t.insert != nil {
		_ = t.insert.Close()
		t.insert = nil
	}
}
