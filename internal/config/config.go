package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	UploadDir   string `yaml:"upload_dir"`
	TempDir     string `yaml:"temp_dir"`
	MaxUploadMB int64  `yaml:"max_upload_mb"`
	// Upload rate limit per client IP; zero disables limiting.
	UploadsPerMinute int `yaml:"uploads_per_minute"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type StorageConfig struct {
	Driver string `yaml:"driver"` // postgres | memory
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type EngineConfig struct {
	// Base URL of a whisper-server instance; preferred when set.
	ServerURL string `yaml:"server_url"`
	// Fallback: OpenAI-hosted transcription.
	OpenAIKey   string `yaml:"openai_key"`
	OpenAIModel string `yaml:"openai_model"`

	DefaultModelSize    string        `yaml:"default_model_size"`
	DefaultLanguage     string        `yaml:"default_language"`
	DefaultChunkMinutes int           `yaml:"default_chunk_minutes"`
	RequestTimeout      time.Duration `yaml:"request_timeout"`
}

type WorkerConfig struct {
	Workers int `yaml:"workers"`
}

type MediaConfig struct {
	FFmpegPath  string `yaml:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Engine   EngineConfig   `yaml:"engine"`
	Worker   WorkerConfig   `yaml:"worker"`
	Media    MediaConfig    `yaml:"media"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.UploadDir == "" {
		cfg.Server.UploadDir = "uploads"
	}
	if cfg.Server.TempDir == "" {
		cfg.Server.TempDir = "temp"
	}
	if cfg.Server.MaxUploadMB <= 0 {
		cfg.Server.MaxUploadMB = 2048
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "postgres"
	}
	if cfg.Worker.Workers <= 0 {
		cfg.Worker.Workers = 4
	}
	if cfg.Engine.DefaultModelSize == "" {
		cfg.Engine.DefaultModelSize = "base"
	}
	if cfg.Engine.DefaultLanguage == "" {
		cfg.Engine.DefaultLanguage = "auto"
	}
	if cfg.Engine.DefaultChunkMinutes <= 0 {
		cfg.Engine.DefaultChunkMinutes = 30
	}
	if cfg.Engine.RequestTimeout <= 0 {
		cfg.Engine.RequestTimeout = 30 * time.Minute
	}
	if cfg.Engine.OpenAIModel == "" {
		cfg.Engine.OpenAIModel = "whisper-1"
	}
	if cfg.Media.FFmpegPath == "" {
		cfg.Media.FFmpegPath = "ffmpeg"
	}
	if cfg.Media.FFprobePath == "" {
		cfg.Media.FFprobePath = "ffprobe"
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)

	// Minimal validation
	switch cfg.Storage.Driver {
	case "postgres":
		if cfg.Database.URL == "" {
			return nil, errors.New("database.url is required with storage.driver=postgres")
		}
	case "memory":
	default:
		return nil, fmt.Errorf("unknown storage.driver %q", cfg.Storage.Driver)
	}
	if cfg.Engine.ServerURL == "" && cfg.Engine.OpenAIKey == "" {
		return nil, errors.New("engine.server_url or engine.openai_key is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
