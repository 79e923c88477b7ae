package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
storage:
  driver: memory
engine:
  server_url: http://localhost:9000
`)
	cfg, err := LoadConfig(path, true)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want default 8080", cfg.Server.Port)
	}
	if cfg.Server.MaxUploadMB != 2048 {
		t.Errorf("max upload = %d, want default 2048", cfg.Server.MaxUploadMB)
	}
	if cfg.Engine.DefaultModelSize != "base" || cfg.Engine.DefaultLanguage != "auto" {
		t.Errorf("engine defaults = %q/%q", cfg.Engine.DefaultModelSize, cfg.Engine.DefaultLanguage)
	}
	if cfg.Engine.DefaultChunkMinutes != 30 {
		t.Errorf("chunk minutes = %d, want 30", cfg.Engine.DefaultChunkMinutes)
	}
	if cfg.Worker.Workers != 4 {
		t.Errorf("workers = %d, want 4", cfg.Worker.Workers)
	}
	if cfg.Redis.TTL != time.Hour {
		t.Errorf("redis ttl = %v, want 1h", cfg.Redis.TTL)
	}
	if cfg.Media.FFmpegPath != "ffmpeg" || cfg.Media.FFprobePath != "ffprobe" {
		t.Errorf("media paths = %q/%q", cfg.Media.FFmpegPath, cfg.Media.FFprobePath)
	}
	if !cfg.Runtime.Dev {
		t.Error("dev flag not carried into runtime config")
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
server:
  port: 9090
  upload_dir: /data/uploads
  uploads_per_minute: 10
storage:
  driver: postgres
database:
  url: postgres://localhost/transcriptions
engine:
  openai_key: sk-test
  default_chunk_minutes: 15
worker:
  workers: 2
`)
	cfg, err := LoadConfig(path, false)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != 9090 || cfg.Server.UploadDir != "/data/uploads" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Server.UploadsPerMinute != 10 {
		t.Errorf("uploads per minute = %d", cfg.Server.UploadsPerMinute)
	}
	if cfg.Engine.DefaultChunkMinutes != 15 {
		t.Errorf("chunk minutes = %d, want 15", cfg.Engine.DefaultChunkMinutes)
	}
	if cfg.Engine.OpenAIModel != "whisper-1" {
		t.Errorf("openai model = %q, want default whisper-1", cfg.Engine.OpenAIModel)
	}
	if cfg.Worker.Workers != 2 {
		t.Errorf("workers = %d, want 2", cfg.Worker.Workers)
	}
}

func TestLoadConfig_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{
			name: "postgres without url",
			body: "storage:\n  driver: postgres\nengine:\n  server_url: http://localhost:9000\n",
		},
		{
			name: "unknown storage driver",
			body: "storage:\n  driver: dynamo\nengine:\n  server_url: http://localhost:9000\n",
		},
		{
			name: "no engine configured",
			body: "storage:\n  driver: memory\n",
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := LoadConfig(writeConfig(t, tc.body), false); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	t.Parallel()

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), false); err == nil {
		t.Fatal("expected error for missing file")
	}
}
