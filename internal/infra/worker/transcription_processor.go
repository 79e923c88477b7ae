package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"audio-transcription-service/internal/domain"
	"audio-transcription-service/internal/domain/model"
	"audio-transcription-service/internal/domain/ports/adapter"
	"audio-transcription-service/internal/domain/ports/repository"
	"audio-transcription-service/internal/infra/logging"
	"audio-transcription-service/internal/infra/metrics"
	"audio-transcription-service/internal/usecase"
)

// Stage progress literals, carried over from the polling-file protocol the
// frontend already understands.
const (
	progressExtracting   = 20
	progressTranscribing = 30
	progressSaving       = 80
	progressCompleted    = 100
)

// Processor runs the transcription pipeline for one job: optional audio
// extraction, chunk planning, per-chunk recognition, aggregation and
// persistence. Any failure is recorded as a failed job state; nothing
// propagates to the pool.
type Processor struct {
	tracker *usecase.JobTracker
	uc      *usecase.TranscriptionUseCase
	results repository.TranscriptionRepository
	media   adapter.AudioMedia
	engine  adapter.SpeechRecognizer
	tempDir string
	log     *zerolog.Logger
}

func NewProcessor(
	tracker *usecase.JobTracker,
	uc *usecase.TranscriptionUseCase,
	results repository.TranscriptionRepository,
	media adapter.AudioMedia,
	engine adapter.SpeechRecognizer,
	tempDir string,
	log *zerolog.Logger,
) *Processor {
	return &Processor{
		tracker: tracker,
		uc:      uc,
		results: results,
		media:   media,
		engine:  engine,
		tempDir: tempDir,
		log:     log,
	}
}

// Run executes the pipeline and converts every failure into a failed job
// record. It is the task submitted to the pool for each job.
func (p *Processor) Run(ctx context.Context, job *model.Job) {
	ctx = logging.WithJobID(ctx, job.ID)
	log := logging.With(ctx, p.log)
	defer p.uc.Finish(job.ID)
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Msg("panic in job pipeline")
			p.fail(job.ID, fmt.Errorf("internal error: %v", rec), log)
		}
	}()

	start := time.Now()
	if err := p.process(ctx, job, log); err != nil {
		log.Error().Err(err).Msg("job failed")
		metrics.IncJob(string(model.JobStatusFailed))
		p.fail(job.ID, err, log)
		return
	}
	metrics.IncJob(string(model.JobStatusCompleted))
	log.Info().Dur("duration", time.Since(start)).Msg("job completed")
}

// FailSubmission marks a job that never reached a worker as failed, so a
// saturated pool does not leave stuck uploaded records behind.
func (p *Processor) FailSubmission(job *model.Job, cause error) {
	log := p.log.With().Str("job_id", job.ID).Logger()
	p.uc.Finish(job.ID)
	p.fail(job.ID, fmt.Errorf("could not schedule job: %w", cause), &log)
	metrics.IncJob(string(model.JobStatusFailed))
}

// fail records the terminal failed state. The final write uses a background
// context so a canceled pipeline can still leave an error record behind.
func (p *Processor) fail(jobID string, cause error, log *zerolog.Logger) {
	_, err := p.tracker.Transition(context.Background(), jobID, usecase.TransitionUpdate{
		Status: model.JobStatusFailed,
		Error:  cause.Error(),
	})
	if err != nil {
		log.Error().Err(err).Msg("could not record failed state")
	}
}

func (p *Processor) process(ctx context.Context, job *model.Job, log *zerolog.Logger) error {
	audioPath := job.MediaPath

	// Per-job scratch directory. Chunk cuts and extracted audio are named by
	// chunk index, so jobs sharing one temp dir would overwrite each other.
	jobDir := filepath.Join(p.tempDir, job.ID)
	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		return fmt.Errorf("create job temp dir: %w", err)
	}
	defer os.RemoveAll(jobDir)

	// 1. Extraction, only for containers that need demuxing.
	if usecase.IsVideo(job.MediaPath) {
		if _, err := p.tracker.Transition(ctx, job.ID, usecase.TransitionUpdate{
			Status: model.JobStatusExtractingAudio, Progress: progressExtracting,
		}); err != nil {
			return err
		}
		stageStart := time.Now()
		extracted, err := p.media.ExtractAudio(ctx, job.MediaPath, jobDir)
		metrics.ObserveStage("extract", time.Since(stageStart).Seconds())
		if err != nil {
			return err
		}
		audioPath = extracted
		log.Info().Str("audio_path", audioPath).Msg("audio extracted")
	}

	// 2. Probe and plan.
	duration, err := p.media.ProbeDuration(ctx, audioPath)
	if err != nil {
		return fmt.Errorf("probe duration: %w", err)
	}
	if _, err := p.tracker.Transition(ctx, job.ID, usecase.TransitionUpdate{
		Status: model.JobStatusTranscribing, Progress: progressTranscribing,
	}); err != nil {
		return err
	}

	chunks := usecase.PlanChunks(duration, job.ChunkMinutes)
	modelSize := usecase.PickModelSize(job.ModelSize, duration)
	log.Info().Float64("duration_s", duration).Int("chunks", len(chunks)).
		Str("model_size", modelSize).Msg("transcription planned")

	// 3. Per-chunk recognition, strictly sequential.
	merged, err := p.transcribeChunks(ctx, audioPath, jobDir, chunks, job.Language, modelSize)
	if err != nil {
		return err
	}
	merged.JobID = job.ID

	// 4. Persist.
	if _, err := p.tracker.Transition(ctx, job.ID, usecase.TransitionUpdate{
		Status: model.JobStatusSaving, Progress: progressSaving,
	}); err != nil {
		return err
	}
	stageStart := time.Now()
	if err := p.results.Save(ctx, merged); err != nil {
		return fmt.Errorf("save transcription: %w", err)
	}
	metrics.ObserveStage("save", time.Since(stageStart).Seconds())

	_, err = p.tracker.Transition(ctx, job.ID, usecase.TransitionUpdate{
		Status:   model.JobStatusCompleted,
		Progress: progressCompleted,
		Result: &model.JobResult{
			Text:     merged.Text,
			Language: merged.Language,
			HasNotes: merged.Text != "",
		},
	})
	return err
}

func (p *Processor) transcribeChunks(ctx context.Context, audioPath, jobDir string, chunks []model.AudioChunk, language, modelSize string) (*model.TranscriptionResult, error) {
	if len(chunks) == 0 {
		// Zero-length asset: empty result, no engine call, no error.
		return &model.TranscriptionResult{Language: normalizeLanguage(language)}, nil
	}

	stageStart := time.Now()
	defer func() { metrics.ObserveStage("transcribe", time.Since(stageStart).Seconds()) }()

	recognitions := make([]*adapter.Recognition, 0, len(chunks))
	for i, chunk := range chunks {
		path := audioPath
		if len(chunks) > 1 {
			cut, err := p.media.CutChunk(ctx, audioPath, chunk, jobDir)
			if err != nil {
				return nil, err
			}
			path = cut
		}

		callStart := time.Now()
		rec, err := p.engine.Recognize(ctx, path, language, modelSize)
		metrics.ObserveRecognize(p.engine.Name(), modelSize, time.Since(callStart).Seconds(), err == nil)
		if path != audioPath {
			_ = os.Remove(path)
		}
		if err != nil {
			return nil, &domain.TranscriptionError{Chunk: i, Err: err}
		}
		recognitions = append(recognitions, rec)
	}

	return usecase.MergeChunks(chunks, recognitions, language)
}

func normalizeLanguage(language string) string {
	if language == "" || language == "auto" {
		return ""
	}
	return language
}
