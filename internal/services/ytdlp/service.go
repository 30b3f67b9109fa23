package ytdlp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"tubeqa/internal/services"
)

// DefaultBinary is the yt-dlp executable resolved from PATH.
const DefaultBinary = "yt-dlp"

const metadataPlaceholder = "—"

// Config captures the runtime settings for audio acquisition.
type Config struct {
	Binary         string
	TimeoutSeconds int
	RetryAttempts  int
}

// Metadata holds the lightweight video description shown at session start.
type Metadata struct {
	Title           string
	DurationMinutes float64
	Description     string
}

// Service downloads audio and probes metadata via yt-dlp.
type Service struct {
	cfg           Config
	retryInterval time.Duration
	commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewService creates a yt-dlp service with the given configuration.
func NewService(cfg Config) *Service {
	if cfg.Binary == "" {
		cfg.Binary = DefaultBinary
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	return &Service{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) ([]byte, error)) {
	s.commandRunner = runner
}

// WithRetryInterval overrides the initial backoff delay (for testing).
func (s *Service) WithRetryInterval(d time.Duration) {
	s.retryInterval = d
}

// Binary returns the configured yt-dlp executable for preflight checks.
func (s *Service) Binary() string {
	return s.cfg.Binary
}

// Acquire downloads the audio track of url as a WAV file named after key
// inside destDir and returns the resulting path. An existing file at the
// destination is reused without contacting the network.
func (s *Service) Acquire(ctx context.Context, url, destDir, key string) (string, error) {
	if strings.TrimSpace(url) == "" {
		return "", services.Wrap(services.ErrValidation, "ytdlp", "acquire", "url required", nil)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrAcquisition, "ytdlp", "acquire", "ensure dest dir", err)
	}

	dest := filepath.Join(destDir, key+".wav")
	if info, err := os.Stat(dest); err == nil && info.Size() > 0 {
		return dest, nil
	}

	args := []string{
		"--extract-audio",
		"--audio-format", "wav",
		"--no-playlist",
		"--quiet",
		"--output", dest,
		url,
	}

	op := func() error {
		if _, err := s.run(ctx, s.cfg.Binary, args...); err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		return nil
	}
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 0
	if s.retryInterval > 0 {
		bo.InitialInterval = s.retryInterval
	}
	retries := uint64(s.cfg.RetryAttempts - 1) //nolint:gosec
	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, retries), ctx)); err != nil {
		return "", services.Wrap(services.ErrAcquisition, "ytdlp", "acquire", "download audio", err)
	}

	if info, err := os.Stat(dest); err != nil || info.Size() == 0 {
		return "", services.Wrap(services.ErrAcquisition, "ytdlp", "acquire", "downloader produced no audio file", err)
	}
	return dest, nil
}

// Probe fetches title, duration, and description without downloading media.
// Failures degrade to placeholder metadata so a session can still start.
func (s *Service) Probe(ctx context.Context, url string) Metadata {
	placeholder := Metadata{
		Title:       metadataPlaceholder,
		Description: metadataPlaceholder,
	}
	output, err := s.run(ctx, s.cfg.Binary, "--dump-json", "--no-playlist", "--quiet", url)
	if err != nil {
		return placeholder
	}

	var payload struct {
		Title       string  `json:"title"`
		Duration    float64 `json:"duration"`
		Description string  `json:"description"`
	}
	if err := json.Unmarshal(output, &payload); err != nil {
		return placeholder
	}

	meta := placeholder
	if title := strings.TrimSpace(payload.Title); title != "" {
		meta.Title = title
	}
	if payload.Duration > 0 {
		meta.DurationMinutes = payload.Duration / 60
	}
	if desc := strings.TrimSpace(payload.Description); desc != "" {
		meta.Description = firstLine(desc)
	}
	return meta
}

func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return strings.TrimSpace(text[:idx])
	}
	return text
}

// run executes a command, using the custom runner if set.
func (s *Service) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	if s.cfg.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.TimeoutSeconds)*time.Second)
		defer cancel()
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
