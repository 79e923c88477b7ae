package adapter

import (
	"context"

	"audio-transcription-service/internal/domain/model"
)

// AudioMedia is the port for the external demux/transcode tool.
type AudioMedia interface {
	// ExtractAudio demuxes inputPath into a mono 16kHz PCM wave file under
	// outDir and returns its path.
	ExtractAudio(ctx context.Context, inputPath, outDir string) (string, error)

	// ProbeDuration returns the duration of the media file in seconds.
	ProbeDuration(ctx context.Context, path string) (float64, error)

	// CutChunk writes the chunk's time window of path as a standalone wave
	// file under outDir and returns its path.
	CutChunk(ctx context.Context, path string, chunk model.AudioChunk, outDir string) (string, error)
}
