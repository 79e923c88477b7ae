package repository

import (
	"context"

	"audio-transcription-service/internal/domain/model"
)

// JobRepository is the durable job store. Save is a full-record overwrite;
// a status transition is atomic at the granularity of one Save. Each job id
// has exactly one writer at a time (the worker processing it), so no locking
// beyond that is required of implementations.
type JobRepository interface {
	Save(ctx context.Context, job *model.Job) error
	FindByID(ctx context.Context, id string) (*model.Job, error)
	ListAll(ctx context.Context) ([]*model.Job, error)
}
