package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"audio-transcription-service/internal/domain"
	"audio-transcription-service/internal/domain/model"
	"audio-transcription-service/internal/domain/ports/repository"
)

var _ repository.JobRepository = (*PostgresJobRepo)(nil)

type PostgresJobRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresJobRepo(pool *pgxpool.Pool) *PostgresJobRepo {
	return &PostgresJobRepo{pool: pool}
}

func (r *PostgresJobRepo) Save(ctx context.Context, j *model.Job) error {
	var result []byte
	if j.Result != nil {
		b, err := json.Marshal(j.Result)
		if err != nil {
			return err
		}
		result = b
	}

	const q = `
INSERT INTO transcription_jobs (
  id, status, progress, original_filename, media_path, model_size, language,
  chunk_minutes, error, result, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
) ON CONFLICT (id) DO UPDATE SET
  status=$2, progress=$3, error=$9, result=$10, updated_at=$12;
`
	_, err := r.pool.Exec(ctx, q,
		j.ID, string(j.Status), j.Progress, j.OriginalFilename, j.MediaPath,
		j.ModelSize, j.Language, j.ChunkMinutes, j.Error, result,
		j.CreatedAt, j.UpdatedAt)
	return err
}

const jobColumns = `
id, status, progress, original_filename, media_path, model_size, language,
chunk_minutes, error, result, created_at, updated_at`

func (r *PostgresJobRepo) FindByID(ctx context.Context, id string) (*model.Job, error) {
	const q = `SELECT ` + jobColumns + ` FROM transcription_jobs WHERE id=$1;`
	row := r.pool.QueryRow(ctx, q, id)
	return scanJob(row)
}

func (r *PostgresJobRepo) ListAll(ctx context.Context) ([]*model.Job, error) {
	const q = `SELECT ` + jobColumns + ` FROM transcription_jobs ORDER BY created_at DESC;`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*model.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func scanJob(row pgx.Row) (*model.Job, error) {
	var (
		j      model.Job
		status string
		result []byte
	)
	err := row.Scan(&j.ID, &status, &j.Progress, &j.OriginalFilename, &j.MediaPath,
		&j.ModelSize, &j.Language, &j.ChunkMinutes, &j.Error, &result,
		&j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	j.Status = model.JobStatus(status)
	if len(result) > 0 {
		var res model.JobResult
		if err := json.Unmarshal(result, &res); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		j.Result = &res
	}
	return &j, nil
}
