package models

import (
	"database/sql"
	"time"
)

// Generation is one row of the generations catalog table.
type Generation struct {
	ID        string         `db:"id"`
	Topic     string         `db:"topic"`
	Specialty string         `db:"specialty"`
	Path      string         `db:"path"`
	BatchJob  sql.NullString `db:"batch_job"`
	CreatedAt time.Time      `db:"created_at"`
	IndexedAt sql.NullTime   `db:"indexed_at"`
}
