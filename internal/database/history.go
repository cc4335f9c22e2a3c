package database

const (
	DefaultSchema = "public"
	DefaultTable  = "_migrations"
)

// HistoryRecord is one row of the migration history table
type HistoryRecord struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

// HistoryRecords are ordered by insertion
type HistoryRecords []HistoryRecord

func (r HistoryRecords) Names() []string {
	names := make([]string, len(r))
	for i := range r {
		names[i] = r[i].Name
	}

	return names
}
