package model

import "time"

type JobStatus string

const (
	JobStatusUploaded        JobStatus = "uploaded"
	JobStatusExtractingAudio JobStatus = "extracting_audio"
	JobStatusTranscribing    JobStatus = "transcribing"
	JobStatusSaving          JobStatus = "saving"
	JobStatusCompleted       JobStatus = "completed"
	JobStatusFailed          JobStatus = "failed"
)

// Terminal reports whether the status permits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// rank orders the forward path uploaded -> extracting_audio -> transcribing
// -> saving -> completed. failed sits outside the path.
func (s JobStatus) rank() int {
	switch s {
	case JobStatusUploaded:
		return 0
	case JobStatusExtractingAudio:
		return 1
	case JobStatusTranscribing:
		return 2
	case JobStatusSaving:
		return 3
	case JobStatusCompleted:
		return 4
	default:
		return -1
	}
}

// CanTransitionTo reports whether moving from s to next is a legal edge:
// strictly forward along the pipeline, or to failed from any non-terminal
// state. Skipping intermediate stages is allowed (audio uploads never pass
// through extracting_audio).
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	if s.Terminal() {
		return false
	}
	if next == JobStatusFailed {
		return true
	}
	if s.rank() < 0 || next.rank() < 0 {
		return false
	}
	return next.rank() > s.rank()
}

// JobResult is the compact completion payload embedded in the job record.
// The full segment list lives in the transcription store. HasNotes reports
// whether meeting notes can be derived from the transcript; notes themselves
// are recomputed on demand, never stored.
type JobResult struct {
	Text              string  `json:"text"`
	Language          string  `json:"language"`
	ProcessingSeconds float64 `json:"processing_time"`
	HasNotes          bool    `json:"has_notes"`
}

// Job is one user-initiated transcription request and its evolving state.
// A job record is mutated exclusively by the worker processing it and is
// immutable once terminal. Jobs are never deleted automatically.
type Job struct {
	ID               string     `json:"id"`
	Status           JobStatus  `json:"status"`
	Progress         int        `json:"progress"`
	OriginalFilename string     `json:"original_filename,omitempty"`
	MediaPath        string     `json:"-"`
	ModelSize        string     `json:"model_size,omitempty"`
	Language         string     `json:"language,omitempty"`
	ChunkMinutes     int        `json:"chunk_size,omitempty"`
	Error            string     `json:"error,omitempty"`
	Result           *JobResult `json:"result,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// IsDone reports whether the job reached a terminal state.
func (j *Job) IsDone() bool { return j.Status.Terminal() }
