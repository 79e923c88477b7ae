package repository

import (
	"context"

	"audio-transcription-service/internal/domain/model"
)

// TranscriptionRepository stores completed transcription results. Results are
// written once when a job completes and never updated.
type TranscriptionRepository interface {
	Save(ctx context.Context, res *model.TranscriptionResult) error
	FindByJobID(ctx context.Context, jobID string) (*model.TranscriptionResult, error)
}
