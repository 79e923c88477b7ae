package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"audio-transcription-service/internal/domain"
	"audio-transcription-service/internal/domain/model"
	"audio-transcription-service/internal/domain/ports/repository"
)

// StatusCache is an optional read-through cache in front of the job store.
// Implementations must tolerate concurrent readers; misses return
// domain.ErrNotFound.
type StatusCache interface {
	Put(ctx context.Context, job *model.Job) error
	Get(ctx context.Context, id string) (*model.Job, error)
}

// TransitionUpdate describes one status transition. Progress values are
// caller-supplied stage literals, not computed ratios.
type TransitionUpdate struct {
	Status   model.JobStatus
	Progress int
	Error    string
	Result   *model.JobResult
}

// JobTracker applies the job state machine on top of the durable store.
// Every transition is a full overwrite of the job record with created_at and
// original_filename carried forward from the prior record.
type JobTracker struct {
	jobs  repository.JobRepository
	cache StatusCache
	log   *zerolog.Logger
	now   func() time.Time
}

func NewJobTracker(jobs repository.JobRepository, cache StatusCache, log *zerolog.Logger) *JobTracker {
	return &JobTracker{jobs: jobs, cache: cache, log: log, now: time.Now}
}

// Create persists the initial uploaded record for a freshly submitted job.
func (t *JobTracker) Create(ctx context.Context, job *model.Job) error {
	now := t.now()
	job.Status = model.JobStatusUploaded
	job.Progress = 0
	job.CreatedAt = now
	job.UpdatedAt = now
	if err := t.jobs.Save(ctx, job); err != nil {
		return fmt.Errorf("save job: %w", err)
	}
	t.cachePut(ctx, job)
	return nil
}

// Transition moves the job to upd.Status. Transitions out of terminal states
// are rejected with domain.ErrJobTerminal. Progress never decreases except
// on failure, where it resets alongside the error message. On completion the
// elapsed wall-clock time since created_at is recorded as the processing
// duration.
func (t *JobTracker) Transition(ctx context.Context, id string, upd TransitionUpdate) (*model.Job, error) {
	job, err := t.jobs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !job.Status.CanTransitionTo(upd.Status) {
		if job.Status.Terminal() {
			return nil, fmt.Errorf("%w: %s -> %s", domain.ErrJobTerminal, job.Status, upd.Status)
		}
		return nil, fmt.Errorf("%w: transition %s -> %s", domain.ErrInvalidArgument, job.Status, upd.Status)
	}

	now := t.now()
	job.Status = upd.Status
	job.UpdatedAt = now
	job.Error = ""
	switch upd.Status {
	case model.JobStatusFailed:
		job.Progress = upd.Progress
		job.Error = upd.Error
	default:
		if upd.Progress > job.Progress {
			job.Progress = upd.Progress
		}
	}
	if upd.Result != nil {
		job.Result = upd.Result
	}
	if upd.Status == model.JobStatusCompleted && !job.CreatedAt.IsZero() {
		elapsed := now.Sub(job.CreatedAt).Seconds()
		if job.Result == nil {
			job.Result = &model.JobResult{}
		}
		job.Result.ProcessingSeconds = elapsed
	}

	if err := t.jobs.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("save job %s: %w", id, err)
	}
	t.cachePut(ctx, job)
	return job, nil
}

// Find returns the latest job record, preferring the cache.
func (t *JobTracker) Find(ctx context.Context, id string) (*model.Job, error) {
	if t.cache != nil {
		if job, err := t.cache.Get(ctx, id); err == nil {
			return job, nil
		} else if !errors.Is(err, domain.ErrNotFound) {
			t.log.Warn().Err(err).Str("job_id", id).Msg("status cache read failed")
		}
	}
	return t.jobs.FindByID(ctx, id)
}

func (t *JobTracker) cachePut(ctx context.Context, job *model.Job) {
	if t.cache == nil {
		return
	}
	if err := t.cache.Put(ctx, job); err != nil {
		t.log.Warn().Err(err).Str("job_id", job.ID).Msg("status cache write failed")
	}
}
