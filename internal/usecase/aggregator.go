package usecase

import (
	"fmt"
	"strings"

	"audio-transcription-service/internal/domain"
	"audio-transcription-service/internal/domain/model"
	"audio-transcription-service/internal/domain/ports/adapter"
)

// MergeChunks combines per-chunk recognitions into one result. results must
// be in chunk order, one entry per chunk. Segment timestamps are shifted by
// the owning chunk's offset; order is chunk order then intra-chunk order,
// which is already monotonic because chunks do not overlap. Texts are joined
// with a blank line between chunks.
//
// The merged language is languageHint when set and not "auto", otherwise the
// language detected on the last processed chunk.
func MergeChunks(chunks []model.AudioChunk, results []*adapter.Recognition, languageHint string) (*model.TranscriptionResult, error) {
	if len(chunks) != len(results) {
		return nil, fmt.Errorf("%w: %d chunks but %d results", domain.ErrInvalidArgument, len(chunks), len(results))
	}

	var (
		segments []model.Segment
		texts    = make([]string, 0, len(results))
		language string
	)
	for i, rec := range results {
		if rec == nil {
			return nil, fmt.Errorf("%w: missing result for chunk %d", domain.ErrInvalidArgument, i)
		}
		offset := chunks[i].Offset
		for _, s := range rec.Segments {
			s.Start += offset
			s.End += offset
			segments = append(segments, s)
		}
		texts = append(texts, rec.Text)
		language = rec.Language
	}

	if languageHint != "" && languageHint != "auto" {
		language = languageHint
	}

	text := strings.Join(texts, "\n\n")
	return &model.TranscriptionResult{
		Text:       text,
		Segments:   segments,
		Language:   language,
		Confidence: meanConfidence(segments),
		WordCount:  model.CountWords(text),
	}, nil
}

func meanConfidence(segments []model.Segment) float64 {
	if len(segments) == 0 {
		return 0
	}
	var sum float64
	for _, s := range segments {
		sum += s.Confidence
	}
	return sum / float64(len(segments))
}
