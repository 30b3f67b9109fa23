package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	CacheRoot string `toml:"cache_root"`
	LogDir    string `toml:"log_dir"`
}

// Transcription contains settings for audio transcription and the
// duration-based model tier table.
type Transcription struct {
	Binary        string `toml:"binary"`
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
	Language      string `toml:"language"`

	// Tier thresholds in minutes; upper bounds are inclusive.
	FastMaxMinutes     float64 `toml:"fast_max_minutes"`
	BalancedMaxMinutes float64 `toml:"balanced_max_minutes"`

	// Audio longer than LongFormMinutes is split into ChunkMinutes pieces
	// and transcribed sequentially.
	LongFormMinutes float64 `toml:"long_form_minutes"`
	ChunkMinutes    int     `toml:"chunk_minutes"`

	FastModel     string `toml:"fast_model"`
	BalancedModel string `toml:"balanced_model"`
	AccurateModel string `toml:"accurate_model"`
}

// Acquisition contains settings for downloading audio from a source URL.
type Acquisition struct {
	YtDlpBinary    string `toml:"ytdlp_binary"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	RetryAttempts  int    `toml:"retry_attempts"`
}

// LLM contains connection settings for the chat-completions provider.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	CheapModel     string `toml:"cheap_model"`
	PremiumModel   string `toml:"premium_model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Answering contains the answer-tier policy and retrieval settings.
type Answering struct {
	// DefaultTier is used when the tier map has no entry for a
	// transcription tier. Either "cheap" or "premium".
	DefaultTier string `toml:"default_tier"`

	// TierMap maps transcription tiers to answer tiers. The shipped table
	// mirrors the original deployment (balanced maps to the cheap tier while
	// fast and accurate map to premium); it is configurable on purpose.
	TierMap map[string]string `toml:"tier_map"`

	TopK               int    `toml:"top_k"`
	SummaryPlaceholder string `toml:"summary_placeholder"`
	AnswerPlaceholder  string `toml:"answer_placeholder"`
}

// Embedding contains connection settings for the embeddings provider.
type Embedding struct {
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	BatchSize      int    `toml:"batch_size"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Index contains transcript chunking settings for the semantic index.
type Index struct {
	ChunkSize    int `toml:"chunk_size"`
	ChunkOverlap int `toml:"chunk_overlap"`
}

// Logging contains log output configuration.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Watch contains settings for the URL drop-directory mode.
type Watch struct {
	Dir string `toml:"dir"`
}

// Config is the root configuration object.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Acquisition   Acquisition   `toml:"acquisition"`
	Transcription Transcription `toml:"transcription"`
	LLM           LLM           `toml:"llm"`
	Answering     Answering     `toml:"answering"`
	Embedding     Embedding     `toml:"embedding"`
	Index         Index         `toml:"index"`
	Logging       Logging       `toml:"logging"`
	Watch         Watch         `toml:"watch"`
}

// DefaultConfigPath returns the standard config file location.
func DefaultConfigPath() string {
	path, err := ExpandPath("~/.config/tubeqa/config.toml")
	if err != nil {
		return "config.toml"
	}
	return path
}

// Load reads the configuration from path (or the default location when path
// is empty), applies environment overrides, and validates the result. A
// missing file is not an error; defaults are used.
func Load(path string) (*Config, string, error) {
	resolved := strings.TrimSpace(path)
	if resolved == "" {
		resolved = DefaultConfigPath()
	} else {
		expanded, err := ExpandPath(resolved)
		if err != nil {
			return nil, "", err
		}
		resolved = expanded
	}

	cfg := Default()
	data, err := os.ReadFile(resolved)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, resolved, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// Defaults only.
	default:
		return nil, resolved, fmt.Errorf("read config %s: %w", resolved, err)
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, resolved, err
	}
	return &cfg, resolved, nil
}

func applyEnvOverrides(cfg *Config) {
	if strings.TrimSpace(cfg.LLM.APIKey) == "" {
		if key := os.Getenv("TUBEQA_LLM_API_KEY"); key != "" {
			cfg.LLM.APIKey = key
		} else if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			cfg.LLM.APIKey = key
		}
	}
}

// WriteSample writes the embedded sample configuration to path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	expanded, err := ExpandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// ExpandPath resolves a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", errors.New("path is empty")
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	return filepath.Abs(trimmed)
}

// EnsureDirectories creates the directory tree the pipeline expects.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.CacheRoot,
		c.AudioDir(),
		c.ChunkDir(),
		c.IndexRoot(),
		c.Paths.LogDir,
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// AudioDir is where downloaded audio assets are staged, keyed by content key.
func (c *Config) AudioDir() string {
	return filepath.Join(c.Paths.CacheRoot, "audio")
}

// ChunkDir is where long-form audio segments are staged during transcription.
func (c *Config) ChunkDir() string {
	return filepath.Join(c.Paths.CacheRoot, "audio", "chunks")
}

// IndexRoot is the parent directory of per-key semantic index trees.
func (c *Config) IndexRoot() string {
	return filepath.Join(c.Paths.CacheRoot, "index")
}

// DatabasePath locates the sqlite artifact cache.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.CacheRoot, "tubeqa.db")
}

// AuditLogPath locates the plain-text question/answer audit log.
func (c *Config) AuditLogPath() string {
	return filepath.Join(c.Paths.LogDir, "qa_log.txt")
}
