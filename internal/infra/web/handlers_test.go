package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"audio-transcription-service/internal/config"
	"audio-transcription-service/internal/domain/model"
	"audio-transcription-service/internal/domain/ports/adapter"
	"audio-transcription-service/internal/infra/memstore"
	"audio-transcription-service/internal/infra/worker"
	"audio-transcription-service/internal/usecase"
)

type stubMedia struct {
	duration float64
}

func (m *stubMedia) ExtractAudio(_ context.Context, _, outDir string) (string, error) {
	return outDir + "/extracted.wav", nil
}

func (m *stubMedia) ProbeDuration(_ context.Context, _ string) (float64, error) {
	return m.duration, nil
}

func (m *stubMedia) CutChunk(_ context.Context, _ string, chunk model.AudioChunk, outDir string) (string, error) {
	return fmt.Sprintf("%s/chunk_%d.wav", outDir, chunk.Index), nil
}

type stubEngine struct {
	text string
	err  error
}

func (e *stubEngine) Recognize(_ context.Context, _, _, _ string) (*adapter.Recognition, error) {
	if e.err != nil {
		return nil, e.err
	}
	return &adapter.Recognition{Text: e.text, Language: "en"}, nil
}

func (e *stubEngine) Name() string { return "stub" }

type testServer struct {
	router  chi.Router
	tracker *usecase.JobTracker
	pool    *worker.Pool
}

func newTestServer(t *testing.T, engine adapter.SpeechRecognizer, startPool bool) *testServer {
	t.Helper()
	logger := zerolog.Nop()
	cfg := &config.Config{}
	cfg.Server.UploadDir = t.TempDir()
	cfg.Server.MaxUploadMB = 16
	cfg.Engine.DefaultModelSize = "base"
	cfg.Engine.DefaultLanguage = "auto"
	cfg.Engine.DefaultChunkMinutes = 30

	tracker := usecase.NewJobTracker(memstore.NewJobRepo(), nil, &logger)
	results := memstore.NewTranscriptionRepo()
	uc := usecase.NewTranscriptionUseCase(tracker, results, &logger)
	processor := worker.NewProcessor(tracker, uc, results, &stubMedia{duration: 90}, engine, t.TempDir(), &logger)
	pool := worker.NewPool(1, &logger)
	if startPool {
		pool.Start(context.Background())
		t.Cleanup(pool.Stop)
	}

	srv := NewServer(cfg, uc, processor, pool, nil, &logger)
	return &testServer{router: srv.Routes(), tracker: tracker, pool: pool}
}

func uploadRequest(t *testing.T, filename string, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		if _, err := part.Write([]byte("not really audio")); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestUpload_EndToEnd(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &stubEngine{
		text: "We agreed the new export pipeline is the key decision. Alice will prepare the rollout checklist before Friday.",
	}, true)

	rec := ts.do(uploadRequest(t, "weekly sync.mp3", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d, body %s", rec.Code, rec.Body.String())
	}
	var up uploadResponse
	decodeJSON(t, rec, &up)
	if up.ID == "" {
		t.Fatal("missing job id")
	}
	if up.OriginalFilename != "weekly sync" {
		t.Fatalf("original_filename = %q", up.OriginalFilename)
	}
	if up.Status != string(model.JobStatusUploaded) {
		t.Fatalf("status = %q, want uploaded", up.Status)
	}

	// The job must be visible immediately and poll to completion.
	deadline := time.Now().Add(2 * time.Second)
	var status statusResponse
	for {
		rec := ts.do(httptest.NewRequest(http.MethodGet, "/status/"+up.ID, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status code = %d immediately after upload", rec.Code)
		}
		status = statusResponse{}
		decodeJSON(t, rec, &status)
		if status.Status == model.JobStatusCompleted || status.Status == model.JobStatusFailed {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job stuck in %s", status.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if status.Status != model.JobStatusCompleted {
		t.Fatalf("final status = %s (%s)", status.Status, status.Error)
	}
	if status.Progress != 100 {
		t.Fatalf("progress = %d, want 100", status.Progress)
	}
	if status.ElapsedTime != 0 {
		t.Fatalf("elapsed_time = %v on terminal job, want omitted", status.ElapsedTime)
	}

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/transcriptions/"+up.ID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("transcription code = %d", rec.Code)
	}
	var res model.TranscriptionResult
	decodeJSON(t, rec, &res)
	if res.Text == "" || res.JobID != up.ID {
		t.Fatalf("transcription = %+v", res)
	}

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/format_notes/"+up.ID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("notes code = %d", rec.Code)
	}
	var notes model.MeetingNotes
	decodeJSON(t, rec, &notes)
	if notes.Summary == "" || notes.FullTranscript == "" {
		t.Fatalf("notes = %+v", notes)
	}
}

func TestUpload_Rejections(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &stubEngine{text: "ok"}, false)

	tests := []struct {
		name string
		req  func() *http.Request
		want string
	}{
		{
			name: "no file part",
			req: func() *http.Request {
				return uploadRequest(t, "", nil)
			},
			want: "no file part",
		},
		{
			name: "disallowed extension",
			req: func() *http.Request {
				return uploadRequest(t, "notes.txt", nil)
			},
			want: "file type not allowed",
		},
		{
			name: "bad chunk size",
			req: func() *http.Request {
				return uploadRequest(t, "a.mp3", map[string]string{"chunk_size": "zero"})
			},
			want: "chunk_size must be a positive integer",
		},
		{
			name: "negative chunk size",
			req: func() *http.Request {
				return uploadRequest(t, "a.mp3", map[string]string{"chunk_size": "-5"})
			},
			want: "chunk_size must be a positive integer",
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			rec := ts.do(tc.req())
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("code = %d, want 400", rec.Code)
			}
			var body map[string]string
			decodeJSON(t, rec, &body)
			if body["error"] != tc.want {
				t.Fatalf("error = %q, want %q", body["error"], tc.want)
			}
		})
	}
}

func TestUpload_PoolSaturated(t *testing.T) {
	t.Parallel()

	// Pool never started: fill its queue so the next submit is refused.
	ts := newTestServer(t, &stubEngine{text: "ok"}, false)
	for i := 0; i < 4; i++ {
		if err := ts.pool.Submit(func(ctx context.Context) error { return nil }); err != nil {
			t.Fatalf("prefill %d: %v", i, err)
		}
	}

	rec := ts.do(uploadRequest(t, "busy.mp3", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("code = %d, want 503", rec.Code)
	}

	// The rejected job must be marked failed, not left stuck in uploaded.
	jobs, err := ts.tracker.Find(context.Background(), jobIDFromList(t, ts))
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if jobs.Status != model.JobStatusFailed {
		t.Fatalf("status = %s, want failed", jobs.Status)
	}
}

func jobIDFromList(t *testing.T, ts *testServer) string {
	t.Helper()
	rec := ts.do(httptest.NewRequest(http.MethodGet, "/jobs", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("jobs code = %d", rec.Code)
	}
	var list []jobSummary
	decodeJSON(t, rec, &list)
	if len(list) == 0 {
		t.Fatal("no jobs listed")
	}
	return list[0].ID
}

func TestStatus_UnknownJob(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &stubEngine{text: "ok"}, false)
	rec := ts.do(httptest.NewRequest(http.MethodGet, "/status/no-such-job", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("code = %d, want 404", rec.Code)
	}
}

func TestTranscription_FallsBackToJobRecord(t *testing.T) {
	t.Parallel()

	// Engine errors keep the job without a stored transcription.
	ts := newTestServer(t, &stubEngine{err: errors.New("down")}, false)
	rec := ts.do(uploadRequest(t, "pending.mp3", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("upload code = %d", rec.Code)
	}
	var up uploadResponse
	decodeJSON(t, rec, &up)

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/transcriptions/"+up.ID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	var job model.Job
	decodeJSON(t, rec, &job)
	if job.ID != up.ID || job.Status != model.JobStatusUploaded {
		t.Fatalf("fallback record = %+v", job)
	}
}

func TestJobs_ListsSummaries(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &stubEngine{text: "ok"}, false)
	for _, name := range []string{"first.mp3", "second.wav"} {
		if rec := ts.do(uploadRequest(t, name, nil)); rec.Code != http.StatusOK {
			t.Fatalf("upload %s code = %d", name, rec.Code)
		}
	}

	rec := ts.do(httptest.NewRequest(http.MethodGet, "/jobs", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	var list []jobSummary
	decodeJSON(t, rec, &list)
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	for _, j := range list {
		if j.ID == "" || j.Status != model.JobStatusUploaded || j.CreatedAt.IsZero() {
			t.Fatalf("summary = %+v", j)
		}
	}
}

func TestLanguages(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &stubEngine{text: "ok"}, false)
	rec := ts.do(httptest.NewRequest(http.MethodGet, "/languages", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	var langs []languageOption
	decodeJSON(t, rec, &langs)
	if len(langs) != 12 {
		t.Fatalf("len = %d, want 12", len(langs))
	}
	if langs[0].Code != "auto" {
		t.Fatalf("first option = %+v, want auto-detect", langs[0])
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &stubEngine{text: "ok"}, false)
	rec := ts.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if string(body) != "OK" {
		t.Fatalf("body = %q", body)
	}
}
