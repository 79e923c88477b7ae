package speech

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.wav")
	if err := os.WriteFile(path, []byte("RIFF fake wave"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	return path
}

func TestWhisperServerAdapter_Recognize(t *testing.T) {
	t.Parallel()

	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/asr" {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()
		gotQuery = map[string]string{
			"task":     q.Get("task"),
			"output":   q.Get("output"),
			"encode":   q.Get("encode"),
			"language": q.Get("language"),
			"model":    q.Get("model"),
		}
		file, header, err := r.FormFile("audio_file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		file.Close()
		if header.Filename != "sample.wav" {
			http.Error(w, "wrong filename", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"text": "  hello world  ",
			"language": "en",
			"segments": [
				{"start": 0, "end": 2.5, "text": " hello ", "avg_logprob": -0.1},
				{"start": 2.5, "end": 5, "text": " world ", "avg_logprob": -0.5}
			]
		}`))
	}))
	defer srv.Close()

	adapter, err := NewWhisperServerAdapter(srv.URL, time.Minute)
	if err != nil {
		t.Fatalf("NewWhisperServerAdapter: %v", err)
	}

	rec, err := adapter.Recognize(context.Background(), writeTempAudio(t), "de", "small")
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if rec.Text != "hello world" {
		t.Fatalf("text = %q, want trimmed", rec.Text)
	}
	if rec.Language != "en" {
		t.Fatalf("language = %q", rec.Language)
	}
	if len(rec.Segments) != 2 {
		t.Fatalf("segments = %d, want 2", len(rec.Segments))
	}
	if rec.Segments[1].Text != "world" || rec.Segments[1].Start != 2.5 {
		t.Fatalf("segment = %+v", rec.Segments[1])
	}
	want := math.Exp(-0.1)
	if diff := math.Abs(rec.Segments[0].Confidence - want); diff > 1e-9 {
		t.Fatalf("confidence = %v, want %v", rec.Segments[0].Confidence, want)
	}

	if gotQuery["task"] != "transcribe" || gotQuery["output"] != "json" || gotQuery["encode"] != "false" {
		t.Fatalf("query = %v", gotQuery)
	}
	if gotQuery["language"] != "de" || gotQuery["model"] != "small" {
		t.Fatalf("query = %v, want explicit language and model", gotQuery)
	}
}

func TestWhisperServerAdapter_AutoLanguageOmitted(t *testing.T) {
	t.Parallel()

	var hasLanguage bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hasLanguage = r.URL.Query().Has("language")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text": "ok", "language": "fr", "segments": []}`))
	}))
	defer srv.Close()

	adapter, err := NewWhisperServerAdapter(srv.URL, time.Minute)
	if err != nil {
		t.Fatalf("NewWhisperServerAdapter: %v", err)
	}
	rec, err := adapter.Recognize(context.Background(), writeTempAudio(t), "auto", "base")
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if hasLanguage {
		t.Fatal("language parameter must be omitted for auto-detect")
	}
	if rec.Language != "fr" {
		t.Fatalf("language = %q, want detected fr", rec.Language)
	}
}

func TestWhisperServerAdapter_ServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	adapter, err := NewWhisperServerAdapter(srv.URL, time.Minute)
	if err != nil {
		t.Fatalf("NewWhisperServerAdapter: %v", err)
	}
	if _, err := adapter.Recognize(context.Background(), writeTempAudio(t), "", ""); err == nil {
		t.Fatal("expected error on 500 response")
	}
}

func TestLogprobConfidence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		logprob float64
		want    float64
	}{
		{0, 1},
		{1.5, 1}, // clamped
		{-0.5, math.Exp(-0.5)},
		{math.Inf(-1), 0},
	}
	for _, tc := range tests {
		if got := logprobConfidence(tc.logprob); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("logprobConfidence(%v) = %v, want %v", tc.logprob, got, tc.want)
		}
	}
}
