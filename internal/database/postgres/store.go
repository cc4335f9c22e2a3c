package postgres

import (
	"context"

	"github.com/denismitr/pgtern/internal/database"
	"github.com/denismitr/pgtern/internal/logger"
	"github.com/denismitr/pgtern/migration"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

// error codes of a lost race between two concurrent IF NOT EXISTS statements
const (
	codeUniqueViolation pq.ErrorCode = "23505"
	codeDuplicateSchema pq.ErrorCode = "42P06"
	codeDuplicateTable  pq.ErrorCode = "42P07"
)

// Store keeps the migration history in a PostgreSQL table
type Store struct {
	db      sqlx.ExtContext
	lg      logger.Logger
	schema  string
	table   string
	queries Queries
}

func NewStore(db sqlx.ExtContext, schema, table string, lg logger.Logger) *Store {
	if schema == "" {
		schema = database.DefaultSchema
	}

	if table == "" {
		table = database.DefaultTable
	}

	if lg == nil {
		lg = logger.NullLogger{}
	}

	return &Store{
		db:      db,
		lg:      lg,
		schema:  schema,
		table:   table,
		queries: NewQueries(schema, table),
	}
}

// EnsureBootstrap creates the schema and then the history table when missing
func (s *Store) EnsureBootstrap(ctx context.Context) error {
	s.lg.SQL(s.queries.CreateSchema)
	if _, err := s.db.ExecContext(ctx, s.queries.CreateSchema); err != nil && !lostCreateRace(err) {
		return errors.Wrapf(err, "could not create schema [%s]", s.schema)
	}

	s.lg.SQL(s.queries.CreateTable)
	if _, err := s.db.ExecContext(ctx, s.queries.CreateTable); err != nil && !lostCreateRace(err) {
		return errors.Wrapf(err, "could not create history table [%s.%s]", s.schema, s.table)
	}

	return nil
}

// Load returns the history in insertion order
func (s *Store) Load(ctx context.Context) (database.HistoryRecords, error) {
	var records database.HistoryRecords

	s.lg.SQL(s.queries.Select)
	if err := sqlx.SelectContext(ctx, s.db, &records, s.queries.Select); err != nil {
		return nil, errors.Wrapf(err, "could not read history from [%s.%s]", s.schema, s.table)
	}

	return records, nil
}

// RecordApplied appends name to the history within tx
func (s *Store) RecordApplied(ctx context.Context, tx migration.Tx, name string) error {
	s.lg.SQL(s.queries.Insert, name)
	if _, err := tx.ExecContext(ctx, s.queries.Insert, name); err != nil {
		return errors.Wrapf(err, "could not record migration [%s] in [%s.%s]", name, s.schema, s.table)
	}

	return nil
}

func lostCreateRace(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}

	switch pqErr.Code {
	case codeUniqueViolation, codeDuplicateSchema, codeDuplicateTable:
		return true
	}

	return false
}
