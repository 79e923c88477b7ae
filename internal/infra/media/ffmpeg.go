package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"audio-transcription-service/internal/domain"
	"audio-transcription-service/internal/domain/model"
	"audio-transcription-service/internal/domain/ports/adapter"
)

var _ adapter.AudioMedia = (*FFmpeg)(nil)

// FFmpeg shells out to ffmpeg/ffprobe for demuxing, probing and chunk
// cutting. All output is mono 16kHz PCM wave, the format speech models
// expect.
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
	log         *zerolog.Logger
}

func NewFFmpeg(ffmpegPath, ffprobePath string, log *zerolog.Logger) *FFmpeg {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFmpeg{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath, log: log}
}

func (f *FFmpeg) ExtractAudio(ctx context.Context, inputPath, outDir string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	out := filepath.Join(outDir, base+".wav")

	// ffmpeg -i input -vn -acodec pcm_s16le -ar 16000 -ac 1 -y output
	args := []string{
		"-i", inputPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		"-y",
		out,
	}
	if err := f.run(ctx, f.ffmpegPath, args); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
	}
	return out, nil
}

func (f *FFmpeg) ProbeDuration(ctx context.Context, path string) (float64, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}
	cmd := exec.CommandContext(ctx, f.ffprobePath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe %s: %v: %s", path, err, strings.TrimSpace(stderr.String()))
	}
	s := strings.TrimSpace(stdout.String())
	d, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration %q: %w", s, err)
	}
	return d, nil
}

func (f *FFmpeg) CutChunk(ctx context.Context, path string, chunk model.AudioChunk, outDir string) (string, error) {
	out := filepath.Join(outDir, fmt.Sprintf("chunk_%d.wav", chunk.Index))

	args := []string{
		"-ss", formatSeconds(chunk.Offset),
		"-t", formatSeconds(chunk.Length),
		"-i", path,
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		"-y",
		out,
	}
	if err := f.run(ctx, f.ffmpegPath, args); err != nil {
		return "", fmt.Errorf("cut chunk %d: %w", chunk.Index, err)
	}
	return out, nil
}

func (f *FFmpeg) run(ctx context.Context, bin string, args []string) error {
	cmd := exec.CommandContext(ctx, bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	f.log.Debug().Str("bin", bin).Strs("args", args).Msg("exec")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %v: %s", bin, err, lastLine(stderr.String()))
	}
	return nil
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}

// lastLine keeps error messages short; ffmpeg puts the reason on its final
// stderr line.
func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
