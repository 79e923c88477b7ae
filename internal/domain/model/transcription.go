package model

import (
	"strings"
	"time"
)

// AudioChunk is a bounded time window of a larger audio asset. Offset and
// Length are seconds in the parent timeline. Chunks are planning artifacts:
// they are cut, transcribed and discarded, never persisted.
type AudioChunk struct {
	Index  int
	Offset float64
	Length float64
}

// End returns the chunk's end position in the parent timeline.
func (c AudioChunk) End() float64 { return c.Offset + c.Length }

// Segment is a time-aligned span of recognized text. After aggregation both
// timestamps are relative to the original, unsegmented audio.
type Segment struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// TranscriptionResult is the aggregate of all segments plus the concatenated
// text. Owned by a job once persisted; immutable after creation.
type TranscriptionResult struct {
	ID         string    `json:"id,omitempty"`
	JobID      string    `json:"job_id,omitempty"`
	Text       string    `json:"text"`
	Segments   []Segment `json:"segments"`
	Language   string    `json:"language"`
	Confidence float64   `json:"confidence"`
	WordCount  int       `json:"word_count"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
}

// CountWords returns the whitespace-delimited word count of text.
func CountWords(text string) int { return len(strings.Fields(text)) }
