package speech

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"audio-transcription-service/internal/domain/model"
	"audio-transcription-service/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.SpeechRecognizer = (*WhisperServerAdapter)(nil)

// WhisperServerAdapter talks to a self-hosted whisper ASR server
// (whisper-asr-webservice compatible): POST /asr with the audio file,
// JSON output with segment timings.
type WhisperServerAdapter struct {
	base   string // e.g. http://localhost:9000
	client *http.Client
}

func NewWhisperServerAdapter(baseURL string, timeout time.Duration) (*WhisperServerAdapter, error) {
	if baseURL == "" {
		return nil, errors.New("whisper server url empty")
	}
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	return &WhisperServerAdapter{
		base:   strings.TrimRight(baseURL, "/"),
		client: &http.Client{Timeout: timeout},
	}, nil
}

func (w *WhisperServerAdapter) Name() string { return "whisper-server" }

type whisperSegment struct {
	Start        float64 `json:"start"`
	End          float64 `json:"end"`
	Text         string  `json:"text"`
	AvgLogprob   float64 `json:"avg_logprob"`
	NoSpeechProb float64 `json:"no_speech_prob"`
}

type whisperResponse struct {
	Text     string           `json:"text"`
	Language string           `json:"language"`
	Segments []whisperSegment `json:"segments"`
}

func (w *WhisperServerAdapter) Recognize(ctx context.Context, audioPath, language, modelSize string) (*adapter.Recognition, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		fw, err := mw.CreateFormFile("audio_file", filepath.Base(audioPath))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(fw, f); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	q := url.Values{}
	q.Set("task", "transcribe")
	q.Set("output", "json")
	q.Set("encode", "false") // input is already 16k mono wav
	if language != "" && language != "auto" {
		q.Set("language", language)
	}
	if modelSize != "" {
		q.Set("model", modelSize)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.base+"/asr?"+q.Encode(), pr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("whisper server http %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var payload whisperResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode whisper response: %w", err)
	}
	return toRecognition(payload), nil
}

func toRecognition(payload whisperResponse) *adapter.Recognition {
	rec := &adapter.Recognition{
		Text:     strings.TrimSpace(payload.Text),
		Language: payload.Language,
		Segments: make([]model.Segment, 0, len(payload.Segments)),
	}
	for _, s := range payload.Segments {
		rec.Segments = append(rec.Segments, model.Segment{
			Start:      s.Start,
			End:        s.End,
			Text:       strings.TrimSpace(s.Text),
			Confidence: logprobConfidence(s.AvgLogprob),
		})
	}
	return rec
}

// logprobConfidence maps a whisper avg_logprob onto [0,1].
func logprobConfidence(avgLogprob float64) float64 {
	c := math.Exp(avgLogprob)
	if c > 1 {
		c = 1
	}
	if c < 0 {
		c = 0
	}
	return c
}
