package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/oklog/ulid/v2"

	"audio-transcription-service/internal/domain"
	"audio-transcription-service/internal/domain/model"
	"audio-transcription-service/internal/domain/ports/repository"
)

var _ repository.TranscriptionRepository = (*PostgresTranscriptionRepo)(nil)

type PostgresTranscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresTranscriptionRepo(pool *pgxpool.Pool) *PostgresTranscriptionRepo {
	return &PostgresTranscriptionRepo{pool: pool}
}

func (r *PostgresTranscriptionRepo) Save(ctx context.Context, res *model.TranscriptionResult) error {
	if res.ID == "" {
		res.ID = ulid.Make().String()
	}
	if res.CreatedAt.IsZero() {
		res.CreatedAt = time.Now()
	}
	segments, err := json.Marshal(res.Segments)
	if err != nil {
		return err
	}

	const q = `
INSERT INTO transcription_results (
  id, job_id, text, language, confidence, word_count, segments, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8);`
	_, err = r.pool.Exec(ctx, q,
		res.ID, res.JobID, res.Text, res.Language, res.Confidence,
		res.WordCount, segments, res.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: transcription for job %s", domain.ErrAlreadyExists, res.JobID)
		}
		return err
	}
	return nil
}

func (r *PostgresTranscriptionRepo) FindByJobID(ctx context.Context, jobID string) (*model.TranscriptionResult, error) {
	const q = `
SELECT id, job_id, text, language, confidence, word_count, segments, created_at
  FROM transcription_results WHERE job_id=$1;`
	row := r.pool.QueryRow(ctx, q, jobID)

	var (
		res      model.TranscriptionResult
		segments []byte
	)
	err := row.Scan(&res.ID, &res.JobID, &res.Text, &res.Language,
		&res.Confidence, &res.WordCount, &segments, &res.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	if err := json.Unmarshal(segments, &res.Segments); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return &res, nil
}
