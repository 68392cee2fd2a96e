package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"MissionReady/internal/domain"
	"MissionReady/internal/ports"
)

// PostgresRepository persists merged records and conop→draw training pairs.
// The merged-record table is the two-column collaborator boundary:
// source_directory_id plus the record as an opaque jsonb blob.
type PostgresRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.PairRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// SaveMerged upserts one merged record keyed by directory id.
func (r *PostgresRepository) SaveMerged(ctx context.Context, record domain.MergedRecord) error {
	if r.db == nil {
		return nil
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal merged record: %w", err)
	}

	query, args, err := r.builder.
		Insert("merged_records").
		Columns("source_directory_id", "record").
		Values(record.SourceDirectoryID, payload).
		Suffix("ON CONFLICT (source_directory_id) DO UPDATE SET record = EXCLUDED.record").
		ToSql()
	if err != nil {
		return fmt.Errorf("build merged insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert merged record: %w", err)
	}
	return nil
}

// SavePair stores one conop→draw training pair with its conop embedding for
// similarity retrieval.
func (r *PostgresRepository) SavePair(ctx context.Context, record domain.MergedRecord, embedding []float64) error {
	if r.db == nil {
		return nil
	}
	if record.Conop == nil || record.Draw == nil {
		return fmt.Errorf("training pair requires both conop and draw")
	}

	conopJSON, err := json.Marshal(record.Conop)
	if err != nil {
		return fmt.Errorf("marshal conop: %w", err)
	}
	drawJSON, err := json.Marshal(record.Draw)
	if err != nil {
		return fmt.Errorf("marshal draw: %w", err)
	}

	query, args, err := r.builder.
		Insert("conop_draw_pairs").
		Columns("source_directory_id", "conop_json", "draw_json", "embedding").
		Values(record.SourceDirectoryID, conopJSON, drawJSON, sq.Expr("?::vector", vectorLiteral(embedding))).
		ToSql()
	if err != nil {
		return fmt.Errorf("build pair insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert pair: %w", err)
	}
	return nil
}

// SimilarPairs returns the stored pairs nearest to the query embedding.
func (r *PostgresRepository) SimilarPairs(ctx context.Context, embedding []float64, limit int) ([]domain.TrainingPair, error) {
	if r.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 5
	}

	query, args, err := r.builder.
		Select("conop_json", "draw_json").
		From("conop_draw_pairs").
		OrderByClause("embedding <-> ?::vector", vectorLiteral(embedding)).
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build similarity query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query similar pairs: %w", err)
	}
	defer rows.Close()

	var pairs []domain.TrainingPair
	for rows.Next() {
		var conopJSON, drawJSON []byte
		if err := rows.Scan(&conopJSON, &drawJSON); err != nil {
			return nil, fmt.Errorf("scan pair: %w", err)
		}
		pairs = append(pairs, domain.TrainingPair{
			Conop: json.RawMessage(conopJSON),
			Draw:  json.RawMessage(drawJSON),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return pairs, nil
}

// vectorLiteral renders a pgvector input literal, e.g. [0.1,0.2,0.3].
func vectorLiteral(embedding []float64) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range embedding {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
	}
	b.WriteByte(']')
	return b.String()
}
