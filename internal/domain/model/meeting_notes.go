package model

// MeetingNotes is a derived view of a TranscriptionResult. It is recomputable
// at any time from the stored transcript and carries no authoritative state.
type MeetingNotes struct {
	Date           string   `json:"date"`
	Summary        string   `json:"summary"`
	KeyPoints      []string `json:"key_points"`
	ActionItems    []string `json:"action_items"`
	FullTranscript string   `json:"full_transcript"`
}
