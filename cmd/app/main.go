package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"audio-transcription-service/internal/config"
	"audio-transcription-service/internal/domain/ports/adapter"
	"audio-transcription-service/internal/domain/ports/repository"
	"audio-transcription-service/internal/infra/adapters/speech"
	pg "audio-transcription-service/internal/infra/db/postgres"
	"audio-transcription-service/internal/infra/logging"
	"audio-transcription-service/internal/infra/media"
	"audio-transcription-service/internal/infra/memstore"
	"audio-transcription-service/internal/infra/metrics"
	red "audio-transcription-service/internal/infra/redis"
	"audio-transcription-service/internal/infra/web"
	"audio-transcription-service/internal/infra/worker"
	"audio-transcription-service/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	for _, dir := range []string{cfg.Server.UploadDir, cfg.Server.TempDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Fatal().Err(err).Str("dir", dir).Msg("create data dir")
		}
	}

	// ---- Storage ----
	var (
		jobRepo    repository.JobRepository
		resultRepo repository.TranscriptionRepository
	)
	switch cfg.Storage.Driver {
	case "postgres":
		pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres")
		}
		defer pool.Close()
		jobRepo = pg.NewPostgresJobRepo(pool)
		resultRepo = pg.NewPostgresTranscriptionRepo(pool)
	case "memory":
		jobRepo = memstore.NewJobRepo()
		resultRepo = memstore.NewTranscriptionRepo()
	}
	logger.Info().Str("driver", cfg.Storage.Driver).Msg("job store ready")

	// ---- Redis (optional) ----
	var (
		statusCache usecase.StatusCache
		limiter     *red.RateLimiter
	)
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		statusCache = red.NewStatusCache(redisClient, cfg.Redis.TTL)
		limiter = red.NewRateLimiter(redisClient)
	}

	// ---- Speech engine (whisper-server -> OpenAI) ----
	var engine adapter.SpeechRecognizer
	if cfg.Engine.ServerURL != "" {
		engine, err = speech.NewWhisperServerAdapter(cfg.Engine.ServerURL, cfg.Engine.RequestTimeout)
		if err != nil {
			logger.Fatal().Err(err).Msg("whisper server adapter")
		}
		logger.Info().Str("url", cfg.Engine.ServerURL).Msg("speech engine: whisper-server")
	} else {
		engine, err = speech.NewOpenAIAdapter(cfg.Engine.OpenAIKey, cfg.Engine.OpenAIModel, cfg.Engine.RequestTimeout)
		if err != nil {
			logger.Fatal().Err(err).Msg("openai adapter")
		}
		logger.Info().Str("model", cfg.Engine.OpenAIModel).Msg("speech engine: openai")
	}

	// ---- Pipeline ----
	ffmpeg := media.NewFFmpeg(cfg.Media.FFmpegPath, cfg.Media.FFprobePath, logger)
	tracker := usecase.NewJobTracker(jobRepo, statusCache, logger)
	uc := usecase.NewTranscriptionUseCase(tracker, resultRepo, logger)
	processor := worker.NewProcessor(tracker, uc, resultRepo, ffmpeg, engine, cfg.Server.TempDir, logger)

	pool := worker.NewPool(cfg.Worker.Workers, logger)
	pool.Start(ctx)
	defer pool.Stop()

	// ---- HTTP ----
	srv := web.NewServer(cfg, uc, processor, pool, limiter, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	cancel()
}
