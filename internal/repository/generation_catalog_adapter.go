package repository

import (
	"context"
	"fmt"
	"time"

	"medmonics/internal/domain"
	"medmonics/internal/repository/models"
	"medmonics/internal/util"
)

const defaultListLimit = 100

// GenerationCatalogAdapter implements domain.GenerationCatalog on an Oracle table.
type GenerationCatalogAdapter struct {
	db  DBTX
	now func() time.Time
}

// NewGenerationCatalogAdapter creates a new instance of GenerationCatalogAdapter
func NewGenerationCatalogAdapter(db DBTX) domain.GenerationCatalog {
	return &GenerationCatalogAdapter{db: db, now: time.Now}
}

// Record upserts the summary of a saved generation.
func (a *GenerationCatalogAdapter) Record(ctx context.Context, summary domain.GenerationSummary) error {
	row := toModelGeneration(summary)
	row.IndexedAt = util.TimeToNullTime(a.now().UTC())

	query := `MERGE INTO generations g
	USING (
		SELECT :1 AS id, :2 AS topic, :3 AS specialty, :4 AS path, :5 AS batch_job, :6 AS created_at, :7 AS indexed_at
		FROM dual
	) s
	ON (g.id = s.id)
	WHEN MATCHED THEN UPDATE SET
		g.topic = s.topic, g.specialty = s.specialty, g.path = s.path,
		g.batch_job = s.batch_job, g.created_at = s.created_at, g.indexed_at = s.indexed_at
	WHEN NOT MATCHED THEN INSERT (id, topic, specialty, path, batch_job, created_at, indexed_at)
		VALUES (s.id, s.topic, s.specialty, s.path, s.batch_job, s.created_at, s.indexed_at)`

	_, err := a.db.ExecContext(ctx, query,
		row.ID, row.Topic, row.Specialty, row.Path, row.BatchJob, row.CreatedAt, row.IndexedAt)
	if err != nil {
		return fmt.Errorf("failed to record generation %s: %w", summary.ID, err)
	}
	return nil
}

// List returns indexed generations newest first, optionally restricted to one specialty.
func (a *GenerationCatalogAdapter) List(ctx context.Context, specialty string, limit int) ([]domain.GenerationSummary, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	base := `SELECT
		id "id",
		topic "topic",
		specialty "specialty",
		path "path",
		batch_job "batch_job",
		created_at "created_at",
		indexed_at "indexed_at"
	FROM generations`

	var rows []models.Generation
	var err error
	if specialty == "" {
		err = a.db.SelectContext(ctx, &rows, base+`
	ORDER BY created_at DESC
	FETCH FIRST :1 ROWS ONLY`, limit)
	} else {
		err = a.db.SelectContext(ctx, &rows, base+`
	WHERE LOWER(specialty) = LOWER(:1)
	ORDER BY created_at DESC
	FETCH FIRST :2 ROWS ONLY`, specialty, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}

	out := make([]domain.GenerationSummary, 0, len(rows))
	for i := range rows {
		out = append(out, toDomainSummary(&rows[i]))
	}
	return out, nil
}

func toModelGeneration(s domain.GenerationSummary) models.Generation {
	return models.Generation{
		ID:        s.ID,
		Topic:     s.Topic,
		Specialty: s.Specialty,
		Path:      s.Path,
		BatchJob:  util.StringToNullString(s.BatchJob),
		CreatedAt: s.CreatedAt,
	}
}

func toDomainSummary(m *models.Generation) domain.GenerationSummary {
	return domain.GenerationSummary{
		ID:        m.ID,
		Topic:     m.Topic,
		Specialty: m.Specialty,
		Path:      m.Path,
		BatchJob:  m.BatchJob.String,
		CreatedAt: m.CreatedAt,
	}
}
