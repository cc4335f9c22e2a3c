package postgres

import (
	"fmt"

	"github.com/lib/pq"
)

// Queries holds the statements for one schema and history table pair.
// Identifiers are always quoted, never substituted raw.
type Queries struct {
	CreateSchema string
	CreateTable  string
	Select       string
	Insert       string
}

func NewQueries(schema, table string) Queries {
	qSchema := pq.QuoteIdentifier(schema)
	qTable := qSchema + "." + pq.QuoteIdentifier(table)

	return Queries{
		CreateSchema: fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", qSchema),
		CreateTable: fmt.Sprintf(
			"CREATE TABLE IF NOT EXISTS %s (id SERIAL PRIMARY KEY, name TEXT NOT NULL)",
			qTable,
		),
		Select: fmt.Sprintf("SELECT id, name FROM %s ORDER BY id ASC", qTable),
		Insert: fmt.Sprintf("INSERT INTO %s (name) VALUES ($1)", qTable),
	}
}
