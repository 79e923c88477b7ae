package adapter

import (
	"context"

	"audio-transcription-service/internal/domain/model"
)

// Recognition is one engine response for one audio file (or chunk). Segment
// timestamps are relative to the start of the submitted file.
type Recognition struct {
	Text     string
	Segments []model.Segment
	Language string
}

// SpeechRecognizer is the port for the external speech-recognition engine.
// language may be "" or "auto" to request detection. The call blocks for the
// duration of model inference, so implementations must honor ctx.
type SpeechRecognizer interface {
	Recognize(ctx context.Context, audioPath, language, modelSize string) (*Recognition, error)

	// Name identifies the backend for logs and metrics.
	Name() string
}
