package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"audio-transcription-service/internal/domain"
	"audio-transcription-service/internal/domain/model"
	"audio-transcription-service/internal/infra/metrics"
	"audio-transcription-service/internal/infra/redis"
	"audio-transcription-service/internal/usecase"
)

type uploadResponse struct {
	ID               string `json:"id"`
	OriginalFilename string `json:"original_filename"`
	Status           string `json:"status"`
	Message          string `json:"message"`
}

type statusResponse struct {
	*model.Job
	ElapsedTime float64 `json:"elapsed_time,omitempty"`
}

type jobSummary struct {
	ID               string          `json:"id"`
	Status           model.JobStatus `json:"status"`
	Progress         int             `json:"progress"`
	OriginalFilename string          `json:"original_filename,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !s.allowUpload(r) {
		metrics.IncUpload("rate_limited")
		writeError(w, http.StatusTooManyRequests, "too many uploads, try again later")
		return
	}

	maxBytes := s.cfg.Server.MaxUploadMB << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		metrics.IncUpload("rejected")
		writeError(w, http.StatusBadRequest, "no file part")
		return
	}
	defer file.Close()
	if header.Filename == "" {
		metrics.IncUpload("rejected")
		writeError(w, http.StatusBadRequest, "no selected file")
		return
	}
	if !usecase.AllowedExtension(header.Filename) {
		metrics.IncUpload("rejected")
		writeError(w, http.StatusBadRequest, "file type not allowed")
		return
	}

	modelSize := formValue(r, "model_size", s.cfg.Engine.DefaultModelSize)
	language := formValue(r, "language", s.cfg.Engine.DefaultLanguage)
	chunkMinutes := s.cfg.Engine.DefaultChunkMinutes
	if v := r.FormValue("chunk_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			metrics.IncUpload("rejected")
			writeError(w, http.StatusBadRequest, "chunk_size must be a positive integer")
			return
		}
		chunkMinutes = n
	}

	mediaPath, size, err := s.saveUpload(file, header.Filename)
	if err != nil {
		s.log.Error().Err(err).Msg("store upload")
		writeError(w, http.StatusInternalServerError, "could not store upload")
		return
	}

	job, err := s.uc.Submit(ctx, usecase.SubmitParams{
		OriginalFilename: header.Filename,
		MediaPath:        mediaPath,
		ModelSize:        modelSize,
		Language:         language,
		ChunkMinutes:     chunkMinutes,
	})
	if err != nil {
		_ = os.Remove(mediaPath)
		metrics.IncUpload("rejected")
		switch {
		case errors.Is(err, domain.ErrUnsupportedMedia),
			errors.Is(err, domain.ErrEmptyUpload),
			errors.Is(err, domain.ErrInvalidArgument):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "could not create job")
		}
		return
	}

	if err := s.pool.Submit(func(taskCtx context.Context) error {
		s.processor.Run(taskCtx, job)
		return nil
	}); err != nil {
		s.log.Error().Err(err).Str("job_id", job.ID).Msg("worker pool rejected job")
		// The job record exists; mark it failed rather than leaving it stuck.
		s.processor.FailSubmission(job, err)
		writeError(w, http.StatusServiceUnavailable, "server busy, try again later")
		return
	}

	metrics.IncUpload("accepted")
	metrics.AddUploadBytes(size)
	writeJSON(w, http.StatusOK, uploadResponse{
		ID:               job.ID,
		OriginalFilename: job.OriginalFilename,
		Status:           string(job.Status),
		Message:          "File uploaded and processing started. Check status endpoint for updates.",
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, elapsed, err := s.uc.Status(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "transcription job not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "could not read job status")
		return
	}
	resp := statusResponse{Job: job}
	if !job.IsDone() {
		resp.ElapsedTime = elapsed
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTranscription(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	res, job, err := s.uc.Result(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "transcription not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "could not read transcription")
		return
	}
	if res != nil {
		writeJSON(w, http.StatusOK, res)
		return
	}
	// Still processing: return the current status record instead.
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleNotes(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	notes, err := s.uc.Notes(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "transcription not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "could not format notes")
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.uc.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not list jobs")
		return
	}
	summaries := make([]jobSummary, 0, len(jobs))
	for _, j := range jobs {
		summaries = append(summaries, jobSummary{
			ID:               j.ID,
			Status:           j.Status,
			Progress:         j.Progress,
			OriginalFilename: j.OriginalFilename,
			CreatedAt:        j.CreatedAt,
			UpdatedAt:        j.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, summaries)
}

type languageOption struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

var supportedLanguages = []languageOption{
	{"auto", "Auto-detect"},
	{"en", "English"},
	{"es", "Spanish"},
	{"fr", "French"},
	{"de", "German"},
	{"it", "Italian"},
	{"pt", "Portuguese"},
	{"nl", "Dutch"},
	{"ja", "Japanese"},
	{"zh", "Chinese"},
	{"ru", "Russian"},
	{"ar", "Arabic"},
}

func (s *Server) handleLanguages(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, supportedLanguages)
}

// saveUpload streams the multipart file into the upload directory under a
// fresh name, returning the stored path and byte count.
func (s *Server) saveUpload(file io.Reader, filename string) (string, int64, error) {
	if err := os.MkdirAll(s.cfg.Server.UploadDir, 0o755); err != nil {
		return "", 0, err
	}
	ext := strings.ToLower(filepath.Ext(filename))
	path := filepath.Join(s.cfg.Server.UploadDir, uuid.NewString()+ext)
	dst, err := os.Create(path)
	if err != nil {
		return "", 0, err
	}
	defer dst.Close()
	n, err := io.Copy(dst, file)
	if err != nil {
		_ = os.Remove(path)
		return "", 0, err
	}
	return path, n, nil
}

func (s *Server) allowUpload(r *http.Request) bool {
	if s.limiter == nil || s.cfg.Server.UploadsPerMinute <= 0 {
		return true
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	ok, err := s.limiter.Allow(r.Context(), redis.UploadKey(host), s.cfg.Server.UploadsPerMinute, time.Minute)
	if err != nil {
		// Fail open on limiter outage.
		s.log.Warn().Err(err).Msg("rate limiter unavailable")
		return true
	}
	return ok
}

func formValue(r *http.Request, key, fallback string) string {
	if v := r.FormValue(key); v != "" {
		return v
	}
	return fallback
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
