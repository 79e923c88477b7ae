package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"audio-transcription-service/internal/domain"
	"audio-transcription-service/internal/domain/model"
	"audio-transcription-service/internal/domain/ports/repository"
)

var allowedExtensions = map[string]bool{
	".mp3": true, ".wav": true, ".ogg": true, ".flac": true, ".m4a": true,
	".mp4": true, ".mov": true, ".avi": true, ".mkv": true, ".webm": true,
}

var videoExtensions = map[string]bool{
	".mp4": true, ".mov": true, ".avi": true, ".mkv": true, ".webm": true,
}

// AllowedExtension reports whether the filename carries a supported
// audio/video extension.
func AllowedExtension(filename string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// IsVideo reports whether the filename needs the audio-extraction stage.
func IsVideo(filename string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(filename))]
}

// SubmitParams carries the upload form fields for a new job.
type SubmitParams struct {
	OriginalFilename string
	MediaPath        string
	ModelSize        string
	Language         string
	ChunkMinutes     int
}

// TranscriptionUseCase orchestrates job submission and read paths. The
// processing pipeline itself runs in the worker package; this type owns the
// in-process registry of active jobs used for best-effort elapsed times.
type TranscriptionUseCase struct {
	tracker *JobTracker
	results repository.TranscriptionRepository
	log     *zerolog.Logger

	mu     sync.Mutex
	active map[string]time.Time
}

func NewTranscriptionUseCase(tracker *JobTracker, results repository.TranscriptionRepository, log *zerolog.Logger) *TranscriptionUseCase {
	return &TranscriptionUseCase{
		tracker: tracker,
		results: results,
		log:     log,
		active:  map[string]time.Time{},
	}
}

// Submit validates the upload, persists the initial job record and registers
// the job as active. It returns before any processing happens.
func (uc *TranscriptionUseCase) Submit(ctx context.Context, p SubmitParams) (*model.Job, error) {
	if p.OriginalFilename == "" {
		return nil, domain.ErrEmptyUpload
	}
	if !AllowedExtension(p.OriginalFilename) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedMedia, filepath.Ext(p.OriginalFilename))
	}
	if p.ChunkMinutes <= 0 {
		return nil, fmt.Errorf("%w: chunk_size must be positive", domain.ErrInvalidArgument)
	}
	if p.ModelSize == "" {
		p.ModelSize = "base"
	}
	if p.Language == "" {
		p.Language = "auto"
	}

	name := p.OriginalFilename
	name = strings.TrimSuffix(name, filepath.Ext(name))

	job := &model.Job{
		ID:               uuid.NewString(),
		OriginalFilename: name,
		MediaPath:        p.MediaPath,
		ModelSize:        p.ModelSize,
		Language:         p.Language,
		ChunkMinutes:     p.ChunkMinutes,
	}
	if err := uc.tracker.Create(ctx, job); err != nil {
		return nil, err
	}

	uc.mu.Lock()
	uc.active[job.ID] = time.Now()
	uc.mu.Unlock()

	uc.log.Info().Str("job_id", job.ID).Str("filename", name).
		Str("model_size", p.ModelSize).Str("language", p.Language).
		Int("chunk_minutes", p.ChunkMinutes).Msg("job submitted")
	return job, nil
}

// Finish drops the job from the active registry. Called by the worker when
// the job reaches a terminal state.
func (uc *TranscriptionUseCase) Finish(jobID string) {
	uc.mu.Lock()
	delete(uc.active, jobID)
	uc.mu.Unlock()
}

// Status returns the latest job record and, for jobs still running in this
// process, a best-effort elapsed wall-clock time in seconds.
func (uc *TranscriptionUseCase) Status(ctx context.Context, id string) (*model.Job, float64, error) {
	job, err := uc.tracker.Find(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	uc.mu.Lock()
	started, ok := uc.active[id]
	uc.mu.Unlock()
	var elapsed float64
	if ok {
		elapsed = time.Since(started).Seconds()
	}
	return job, elapsed, nil
}

// Result returns the persisted transcription for a completed job. For a job
// that exists but has not finished, it returns the job record instead so
// callers can surface progress.
func (uc *TranscriptionUseCase) Result(ctx context.Context, id string) (*model.TranscriptionResult, *model.Job, error) {
	res, err := uc.results.FindByJobID(ctx, id)
	if err == nil {
		return res, nil, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, nil, err
	}
	job, err := uc.tracker.Find(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return nil, job, nil
}

// Notes recomputes meeting notes from the stored transcription.
func (uc *TranscriptionUseCase) Notes(ctx context.Context, id string) (*model.MeetingNotes, error) {
	res, err := uc.results.FindByJobID(ctx, id)
	if err != nil {
		return nil, err
	}
	return FormatMeetingNotes(res.Text, time.Now()), nil
}

// List returns all job records, newest first.
func (uc *TranscriptionUseCase) List(ctx context.Context) ([]*model.Job, error) {
	jobs, err := uc.tracker.jobs.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(jobs, func(i, j int) bool { return jobs[i].CreatedAt.After(jobs[j].CreatedAt) })
	return jobs, nil
}

// PickModelSize resolves the "auto" model size by duration: longer assets get
// larger models.
func PickModelSize(requested string, durationSeconds float64) string {
	if requested != "" && requested != "auto" {
		return requested
	}
	switch {
	case durationSeconds > 1800:
		return "medium"
	case durationSeconds > 600:
		return "small"
	default:
		return "base"
	}
}
