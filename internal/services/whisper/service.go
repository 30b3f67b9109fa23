package whisper

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"tubeqa/internal/services"
	"tubeqa/internal/tiers"
)

// Default executables resolved from PATH.
const (
	DefaultBinary        = "whisper-cli"
	DefaultFFmpegBinary  = "ffmpeg"
	DefaultFFprobeBinary = "ffprobe"
)

// Config captures the runtime settings for local transcription.
type Config struct {
	Binary        string
	FFmpegBinary  string
	FFprobeBinary string
	Language      string

	FastModel     string
	BalancedModel string
	AccurateModel string
}

// Service runs whisper.cpp and the ffmpeg tools.
type Service struct {
	cfg           Config
	commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewService creates a transcription service with the given configuration.
func NewService(cfg Config) *Service {
	if cfg.Binary == "" {
		cfg.Binary = DefaultBinary
	}
	if cfg.FFmpegBinary == "" {
		cfg.FFmpegBinary = DefaultFFmpegBinary
	}
	if cfg.FFprobeBinary == "" {
		cfg.FFprobeBinary = DefaultFFprobeBinary
	}
	return &Service{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) ([]byte, error)) {
	s.commandRunner = runner
}

// Binaries returns the executables this service depends on, for preflight.
func (s *Service) Binaries() []string {
	return []string{s.cfg.Binary, s.cfg.FFmpegBinary, s.cfg.FFprobeBinary}
}

// ModelFor resolves the whisper model name for a transcription tier.
func (s *Service) ModelFor(tier tiers.Transcription) string {
	switch tier {
	case tiers.TranscriptionFast:
		return s.cfg.FastModel
	case tiers.TranscriptionAccurate:
		return s.cfg.AccurateModel
	default:
		return s.cfg.BalancedModel
	}
}

// Duration reports the audio length of path in minutes via ffprobe.
func (s *Service) Duration(ctx context.Context, path string) (float64, error) {
	output, err := s.run(ctx, s.cfg.FFprobeBinary,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, services.Wrap(services.ErrTranscription, "whisper", "duration", "probe audio length", err)
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, services.Wrap(services.ErrTranscription, "whisper", "duration",
			fmt.Sprintf("unparseable ffprobe output %q", strings.TrimSpace(string(output))), err)
	}
	if seconds < 0 {
		return 0, services.Wrap(services.ErrTranscription, "whisper", "duration", "negative duration", nil)
	}
	return seconds / 60, nil
}

// ExtractSegment writes a [startSec, startSec+durationSec) slice of source to
// dest as mono 16kHz WAV, the input format whisper.cpp expects.
func (s *Service) ExtractSegment(ctx context.Context, source string, startSec, durationSec int, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return services.Wrap(services.ErrTranscription, "whisper", "extract_segment", "ensure segment dir", err)
	}
	_, err := s.run(ctx, s.cfg.FFmpegBinary,
		"-y",
		"-v", "error",
		"-ss", strconv.Itoa(startSec),
		"-t", strconv.Itoa(durationSec),
		"-i", source,
		"-ac", "1",
		"-ar", "16000",
		dest,
	)
	if err != nil {
		return services.Wrap(services.ErrTranscription, "whisper", "extract_segment", "slice audio", err)
	}
	return nil
}

// TranscribeFile transcribes a WAV file with the given model and returns the
// plain text. whisper.cpp writes a sidecar .txt next to the source.
func (s *Service) TranscribeFile(ctx context.Context, source, model string) (string, error) {
	if source == "" {
		return "", services.Wrap(services.ErrValidation, "whisper", "transcribe", "source path required", nil)
	}
	if model == "" {
		return "", services.Wrap(services.ErrValidation, "whisper", "transcribe", "model required", nil)
	}

	outPrefix := strings.TrimSuffix(source, filepath.Ext(source))
	args := []string{
		"--model", model,
		"--file", source,
		"--output-txt",
		"--output-file", outPrefix,
		"--no-prints",
	}
	if lang := strings.TrimSpace(s.cfg.Language); lang != "" {
		args = append(args, "--language", lang)
	}

	if _, err := s.run(ctx, s.cfg.Binary, args...); err != nil {
		return "", services.Wrap(services.ErrTranscription, "whisper", "transcribe", "run whisper", err)
	}

	text, err := os.ReadFile(outPrefix + ".txt")
	if err != nil {
		return "", services.Wrap(services.ErrTranscription, "whisper", "transcribe", "read transcript output", err)
	}
	transcript := strings.TrimSpace(string(text))
	if transcript == "" {
		return "", services.Wrap(services.ErrTranscription, "whisper", "transcribe", "empty transcript", nil)
	}
	return transcript, nil
}

// run executes a command, using the custom runner if set.
func (s *Service) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	output, err := cmd.Output()
	if err != nil {
		detail := ""
		if exitErr, ok := err.(*exec.ExitError); ok {
			detail = strings.TrimSpace(string(exitErr.Stderr))
		}
		return nil, fmt.Errorf("%s: %w: %s", name, err, detail)
	}
	return output, nil
}
