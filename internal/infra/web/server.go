package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"audio-transcription-service/internal/config"
	"audio-transcription-service/internal/infra/redis"
	"audio-transcription-service/internal/infra/worker"
	"audio-transcription-service/internal/usecase"
)

// Server wires the transcription HTTP surface: upload, status polling,
// results, meeting notes and job listing.
type Server struct {
	cfg       *config.Config
	uc        *usecase.TranscriptionUseCase
	processor *worker.Processor
	pool      *worker.Pool
	limiter   *redis.RateLimiter // nil disables rate limiting
	log       *zerolog.Logger
	server    *http.Server
}

func NewServer(
	cfg *config.Config,
	uc *usecase.TranscriptionUseCase,
	processor *worker.Processor,
	pool *worker.Pool,
	limiter *redis.RateLimiter,
	log *zerolog.Logger,
) *Server {
	return &Server{
		cfg:       cfg,
		uc:        uc,
		processor: processor,
		pool:      pool,
		limiter:   limiter,
		log:       log,
	}
}

// Routes builds the chi router with the standard middleware chain.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(TraceID())
	r.Use(RequestLog(s.log))
	r.Use(Recover(s.log))

	r.Post("/upload", s.handleUpload)
	r.Get("/status/{id}", s.handleStatus)
	r.Get("/transcriptions/{id}", s.handleTranscription)
	r.Get("/format_notes/{id}", s.handleNotes)
	r.Get("/jobs", s.handleJobs)
	r.Get("/languages", s.handleLanguages)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info().Str("addr", s.server.Addr).Msg("http server listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
