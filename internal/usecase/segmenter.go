package usecase

import (
	"audio-transcription-service/internal/domain/model"
)

// NeedsChunking reports whether an asset of durationSeconds must be split
// into chunkMinutes-long windows before transcription.
func NeedsChunking(durationSeconds float64, chunkMinutes int) bool {
	return durationSeconds > float64(chunkMinutes)*60
}

// PlanChunks partitions [0, duration) into consecutive non-overlapping
// windows of chunkMinutes each; the last window may be shorter. Assets at or
// under one window become a single chunk with offset 0. A zero-length asset
// yields no chunks.
func PlanChunks(durationSeconds float64, chunkMinutes int) []model.AudioChunk {
	if durationSeconds <= 0 {
		return nil
	}
	window := float64(chunkMinutes) * 60
	if window <= 0 || durationSeconds <= window {
		return []model.AudioChunk{{Index: 0, Offset: 0, Length: durationSeconds}}
	}

	var chunks []model.AudioChunk
	for offset := 0.0; offset < durationSeconds; offset += window {
		length := window
		if offset+length > durationSeconds {
			length = durationSeconds - offset
		}
		chunks = append(chunks, model.AudioChunk{
			Index:  len(chunks),
			Offset: offset,
			Length: length,
		})
	}
	return chunks
}
