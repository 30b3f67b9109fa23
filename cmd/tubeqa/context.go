package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"tubeqa/internal/cachestore"
	"tubeqa/internal/config"
	"tubeqa/internal/logging"
	"tubeqa/internal/pipeline"
	"tubeqa/internal/services/embed"
	"tubeqa/internal/services/llm"
	"tubeqa/internal/services/whisper"
	"tubeqa/internal/services/ytdlp"
	"tubeqa/internal/session"
	"tubeqa/internal/tiers"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		// Best effort; a missing .env is the normal case.
		_ = godotenv.Load()

		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	c.loggerOnce.Do(func() {
		format := cfg.Logging.Format
		if format == "" || format == "auto" {
			if isatty.IsTerminal(os.Stderr.Fd()) {
				format = "console"
			} else {
				format = "json"
			}
		}
		c.logger, c.loggerErr = logging.New(logging.Options{
			Level:       cfg.Logging.Level,
			Format:      format,
			OutputPaths: []string{"stderr", filepath.Join(cfg.Paths.LogDir, "tubeqa.log")},
		})
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) openStore() (*cachestore.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return cachestore.Open(cfg.DatabasePath(), logger)
}

// buildPipeline wires the concrete services into a pipeline. The returned
// cleanup closes the cache store.
func (c *commandContext) buildPipeline(progress pipeline.ProgressFunc) (*pipeline.Pipeline, func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, nil, err
	}
	store, err := c.openStore()
	if err != nil {
		return nil, nil, err
	}

	acquirer := ytdlp.NewService(ytdlp.Config{
		Binary:         cfg.Acquisition.YtDlpBinary,
		TimeoutSeconds: cfg.Acquisition.TimeoutSeconds,
		RetryAttempts:  cfg.Acquisition.RetryAttempts,
	})
	transcriber := whisper.NewService(whisper.Config{
		Binary:        cfg.Transcription.Binary,
		FFmpegBinary:  cfg.Transcription.FFmpegBinary,
		FFprobeBinary: cfg.Transcription.FFprobeBinary,
		Language:      cfg.Transcription.Language,
		FastModel:     cfg.Transcription.FastModel,
		BalancedModel: cfg.Transcription.BalancedModel,
		AccurateModel: cfg.Transcription.AccurateModel,
	})
	llmClient := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		CheapModel:     cfg.LLM.CheapModel,
		PremiumModel:   cfg.LLM.PremiumModel,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	})
	embedder := embed.NewClient(embed.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.Embedding.BaseURL,
		Model:          cfg.Embedding.Model,
		BatchSize:      cfg.Embedding.BatchSize,
		TimeoutSeconds: cfg.Embedding.TimeoutSeconds,
	})

	var opts []pipeline.Option
	if progress != nil {
		opts = append(opts, pipeline.WithProgress(progress))
	}
	p := pipeline.New(cfg, pipeline.Deps{
		Cache:       store,
		Acquirer:    acquirer,
		Transcriber: transcriber,
		Summarizer:  llmClient,
		Completer:   llmClient,
		Indexes:     pipeline.EmbeddingIndexes{Embedder: embedder},
		Metadata:    metadataAdapter{svc: acquirer},
		Audit:       session.NewAuditLog(cfg.AuditLogPath()),
	}, logger, opts...)

	cleanup := func() { _ = store.Close() }
	return p, cleanup, nil
}

// metadataAdapter bridges the yt-dlp probe result to the session metadata
// shape.
type metadataAdapter struct {
	svc *ytdlp.Service
}

func (m metadataAdapter) Probe(ctx context.Context, url string) session.Metadata {
	meta := m.svc.Probe(ctx, url)
	return session.Metadata{
		Title:           meta.Title,
		DurationMinutes: meta.DurationMinutes,
		Description:     meta.Description,
	}
}

func parseTierFlag(value string) (tiers.Answer, error) {
	if strings.TrimSpace(value) == "" {
		return "", nil
	}
	tier, ok := tiers.ParseAnswer(value)
	if !ok {
		return "", fmt.Errorf("unknown answer tier %q (expected cheap or premium)", value)
	}
	return tier, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
