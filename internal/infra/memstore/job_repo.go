package memstore

import (
	"context"
	"sync"

	"audio-transcription-service/internal/domain"
	"audio-transcription-service/internal/domain/model"
	"audio-transcription-service/internal/domain/ports/repository"
)

var _ repository.JobRepository = (*JobRepo)(nil)

// JobRepo is the in-memory job store. Records are copied on the way in and
// out so callers never share mutable state with the store.
type JobRepo struct {
	mu   sync.RWMutex
	jobs map[string]*model.Job
}

func NewJobRepo() *JobRepo {
	return &JobRepo{jobs: map[string]*model.Job{}}
}

func (r *JobRepo) Save(_ context.Context, job *model.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = copyJob(job)
	return nil
}

func (r *JobRepo) FindByID(_ context.Context, id string) (*model.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyJob(job), nil
}

func (r *JobRepo) ListAll(_ context.Context) ([]*model.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		out = append(out, copyJob(job))
	}
	return out, nil
}

func copyJob(j *model.Job) *model.Job {
	cp := *j
	if j.Result != nil {
		res := *j.Result
		cp.Result = &res
	}
	return &cp
}
