package domain

import (
	"errors"
	"fmt"
)

var (
	// Common domain errors
	ErrNotFound         = errors.New("entity not found")
	ErrAlreadyExists    = errors.New("entity already exists")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrJobTerminal      = errors.New("job is in a terminal state")
	ErrUnsupportedMedia = errors.New("file type not allowed")
	ErrEmptyUpload      = errors.New("no file provided")
	ErrExtractionFailed = errors.New("audio extraction failed")
	ErrReadDatabaseRow  = errors.New("failed to read database row")
)

// TranscriptionError reports an engine failure on a specific chunk.
// Chunk indexes are zero-based.
type TranscriptionError struct {
	Chunk int
	Err   error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcription failed on chunk %d: %v", e.Chunk, e.Err)
}

func (e *TranscriptionError) Unwrap() error { return e.Err }
