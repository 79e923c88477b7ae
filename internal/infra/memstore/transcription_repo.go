package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"audio-transcription-service/internal/domain"
	"audio-transcription-service/internal/domain/model"
	"audio-transcription-service/internal/domain/ports/repository"
)

var _ repository.TranscriptionRepository = (*TranscriptionRepo)(nil)

// TranscriptionRepo keeps completed results in memory, keyed by job id.
type TranscriptionRepo struct {
	mu      sync.RWMutex
	byJobID map[string]*model.TranscriptionResult
}

func NewTranscriptionRepo() *TranscriptionRepo {
	return &TranscriptionRepo{byJobID: map[string]*model.TranscriptionResult{}}
}

func (r *TranscriptionRepo) Save(_ context.Context, res *model.TranscriptionResult) error {
	if res.ID == "" {
		res.ID = ulid.Make().String()
	}
	if res.CreatedAt.IsZero() {
		res.CreatedAt = time.Now()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byJobID[res.JobID] = copyResult(res)
	return nil
}

func (r *TranscriptionRepo) FindByJobID(_ context.Context, jobID string) (*model.TranscriptionResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.byJobID[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyResult(res), nil
}

func copyResult(res *model.TranscriptionResult) *model.TranscriptionResult {
	cp := *res
	cp.Segments = append([]model.Segment(nil), res.Segments...)
	return &cp
}
