package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/geoknoesis/rdf-go/rdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rdfpub/generator/internal/vocab"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s := New()
	require.NoError(t, s.Open(":memory:"))
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

var (
	graphA = rdf.IRI{Value: "https://example.org/a"}
	graphB = rdf.IRI{Value: "https://example.org/b"}
	label  = rdf.IRI{Value: "http://www.w3.org/2000/01/rdf-schema#label"}
)

func TestStore_OpenClose(t *testing.T) {
	s := New()
	require.NoError(t, s.Open(":memory:"))
	assert.Equal(t, ":memory:", s.Path())
	require.NoError(t, s.Close())
	require.NoError(t, s.Close(), "closing twice is a no-op")
}

func TestStore_NotOpened(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.Begin(ctx)
	assert.ErrorContains(t, err, "database not opened")
	_, err = s.Count(ctx, graphA)
	assert.ErrorContains(t, err, "database not opened")
	_, err = s.Export(ctx, graphA)
	assert.ErrorContains(t, err, "database not opened")
	assert.ErrorContains(t, s.Migrate(), "database not opened")
}

func TestStore_Migrate(t *testing.T) {
	s := setupTestStore(t)

	version, err := s.MigrationVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
}

func TestStore_AddCountExport(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	err := s.Update(ctx, func(tx *Tx) error {
		return tx.Add(ctx,
			rdf.Quad{S: graphA, P: label, O: rdf.Literal{Lexical: "A", Lang: "EN"}, G: graphA},
			rdf.Quad{S: graphA, P: label, O: rdf.Literal{Lexical: "Ä", Lang: "de"}, G: graphA},
			rdf.Quad{S: rdf.BlankNode{ID: "b1"}, P: label, O: rdf.Literal{Lexical: "3", Datatype: rdf.IRI{Value: vocab.XSDInteger}}, G: graphA},
			rdf.Quad{S: graphB, P: label, O: rdf.Literal{Lexical: "B"}, G: graphB},
			// duplicate statement in the same graph is ignored
			rdf.Quad{S: graphB, P: label, O: rdf.Literal{Lexical: "B", Datatype: rdf.IRI{Value: vocab.XSDString}}, G: graphB},
		)
	})
	require.NoError(t, err)

	n, err := s.Count(ctx, graphA)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = s.CountAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	quads, err := s.Export(ctx, graphA)
	require.NoError(t, err)
	require.Len(t, quads, 3)
	assert.Equal(t, rdf.Literal{Lexical: "A", Lang: "en"}, quads[0].O)
	assert.Equal(t, rdf.Literal{Lexical: "Ä", Lang: "de"}, quads[1].O)
	assert.Equal(t, rdf.BlankNode{ID: "b1"}, quads[2].S)
	assert.Nil(t, quads[0].G)

	graphs, err := s.Graphs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{graphA.Value, graphB.Value}, graphs)
}

func TestStore_TxSeesUncommittedCounts(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Add(ctx, rdf.Quad{S: graphA, P: label, O: rdf.Literal{Lexical: "x"}, G: graphA}))

	n, err := tx.Count(ctx, graphA)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, tx.Rollback())

	n, err = s.CountAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStore_UpdateRollsBackOnError(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.Update(ctx, func(tx *Tx) error {
		if err := tx.Add(ctx, rdf.Quad{S: graphA, P: label, O: rdf.Literal{Lexical: "x"}, G: graphA}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	n, err := s.CountAll(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStore_Namespaces(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Update(ctx, func(tx *Tx) error {
		if err := tx.SetNamespace(ctx, "ex", "https://example.org/old#"); err != nil {
			return err
		}
		return tx.SetNamespace(ctx, "ex", "https://example.org/ns#")
	}))

	ns, err := s.Namespaces(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"ex": "https://example.org/ns#"}, ns)

	require.NoError(t, s.Update(ctx, func(tx *Tx) error { return tx.ClearNamespaces(ctx) }))
	ns, err = s.Namespaces(ctx)
	require.NoError(t, err)
	assert.Empty(t, ns)
}

func TestStore_CommitFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectPrepare("INSERT OR IGNORE INTO quads").
		ExpectExec().
		WithArgs("<https://example.org/a>", "<https://example.org/a>", "<"+label.Value+">", `"x"`, "").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit().WillReturnError(errors.New("disk full"))

	s := NewWithDB(db)
	ctx := context.Background()
	err = s.Update(ctx, func(tx *Tx) error {
		return tx.Add(ctx, rdf.Quad{S: graphA, P: label, O: rdf.Literal{Lexical: "x"}, G: graphA})
	})
	assert.ErrorContains(t, err, "failed to commit transaction")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_InsertFailureRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectPrepare("INSERT OR IGNORE INTO quads").
		ExpectExec().
		WillReturnError(errors.New("constraint failed"))
	mock.ExpectRollback()

	s := NewWithDB(db)
	ctx := context.Background()
	err = s.Update(ctx, func(tx *Tx) error {
		return tx.Add(ctx, rdf.Quad{S: graphA, P: label, O: rdf.Literal{Lexical: "x"}, G: graphA})
	})
	assert.ErrorContains(t, err, "failed to insert statement")
	assert.NoError(t, mock.ExpectationsWereMet())
}
