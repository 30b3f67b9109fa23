package config

import (
	"fmt"
	"strings"
)

// Validate applies defaults for unset values, expands paths, and rejects
// inconsistent settings.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.CacheRoot) == "" {
		c.Paths.CacheRoot = defaultCacheRoot
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	for name, field := range map[string]*string{
		"paths.cache_root": &c.Paths.CacheRoot,
		"paths.log_dir":    &c.Paths.LogDir,
	} {
		expanded, err := ExpandPath(*field)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*field = expanded
	}

	if strings.TrimSpace(c.Acquisition.YtDlpBinary) == "" {
		c.Acquisition.YtDlpBinary = defaultYtDlpBinary
	}
	if c.Acquisition.TimeoutSeconds <= 0 {
		c.Acquisition.TimeoutSeconds = defaultAcquireTimeout
	}
	if c.Acquisition.RetryAttempts <= 0 {
		c.Acquisition.RetryAttempts = defaultAcquireRetries
	}

	t := &c.Transcription
	if strings.TrimSpace(t.Binary) == "" {
		t.Binary = defaultWhisperBinary
	}
	if strings.TrimSpace(t.FFmpegBinary) == "" {
		t.FFmpegBinary = defaultFFmpegBinary
	}
	if strings.TrimSpace(t.FFprobeBinary) == "" {
		t.FFprobeBinary = defaultFFprobeBinary
	}
	if t.FastMaxMinutes <= 0 {
		t.FastMaxMinutes = defaultFastMaxMinutes
	}
	if t.BalancedMaxMinutes <= 0 {
		t.BalancedMaxMinutes = defaultBalancedMax
	}
	if t.BalancedMaxMinutes <= t.FastMaxMinutes {
		return fmt.Errorf("transcription: balanced_max_minutes (%.1f) must exceed fast_max_minutes (%.1f)",
			t.BalancedMaxMinutes, t.FastMaxMinutes)
	}
	if t.LongFormMinutes <= 0 {
		t.LongFormMinutes = defaultLongFormMinutes
	}
	if t.ChunkMinutes <= 0 {
		t.ChunkMinutes = defaultChunkMinutes
	}
	if strings.TrimSpace(t.FastModel) == "" {
		t.FastModel = defaultFastModel
	}
	if strings.TrimSpace(t.BalancedModel) == "" {
		t.BalancedModel = defaultBalancedModel
	}
	if strings.TrimSpace(t.AccurateModel) == "" {
		t.AccurateModel = defaultAccurateModel
	}

	if strings.TrimSpace(c.LLM.BaseURL) == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	if strings.TrimSpace(c.LLM.CheapModel) == "" {
		c.LLM.CheapModel = defaultCheapModel
	}
	if strings.TrimSpace(c.LLM.PremiumModel) == "" {
		c.LLM.PremiumModel = defaultPremiumModel
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}

	a := &c.Answering
	switch strings.ToLower(strings.TrimSpace(a.DefaultTier)) {
	case "":
		a.DefaultTier = defaultAnswerTier
	case "cheap", "premium":
		a.DefaultTier = strings.ToLower(strings.TrimSpace(a.DefaultTier))
	default:
		return fmt.Errorf("answering: default_tier must be \"cheap\" or \"premium\", got %q", a.DefaultTier)
	}
	if len(a.TierMap) == 0 {
		a.TierMap = Default().Answering.TierMap
	}
	for from, to := range a.TierMap {
		switch strings.ToLower(strings.TrimSpace(to)) {
		case "cheap", "premium":
		default:
			return fmt.Errorf("answering: tier_map[%s] must be \"cheap\" or \"premium\", got %q", from, to)
		}
	}
	if a.TopK <= 0 {
		a.TopK = defaultTopK
	}
	if a.SummaryPlaceholder == "" {
		a.SummaryPlaceholder = defaultSummaryFallback
	}
	if a.AnswerPlaceholder == "" {
		a.AnswerPlaceholder = defaultAnswerFallback
	}

	if strings.TrimSpace(c.Embedding.BaseURL) == "" {
		c.Embedding.BaseURL = defaultEmbeddingBaseURL
	}
	if strings.TrimSpace(c.Embedding.Model) == "" {
		c.Embedding.Model = defaultEmbeddingModel
	}
	if c.Embedding.BatchSize <= 0 {
		c.Embedding.BatchSize = defaultEmbeddingBatch
	}
	if c.Embedding.TimeoutSeconds <= 0 {
		c.Embedding.TimeoutSeconds = defaultEmbeddingTimeout
	}

	if c.Index.ChunkSize <= 0 {
		c.Index.ChunkSize = defaultChunkSize
	}
	if c.Index.ChunkOverlap < 0 {
		c.Index.ChunkOverlap = defaultChunkOverlap
	}
	if c.Index.ChunkOverlap >= c.Index.ChunkSize {
		return fmt.Errorf("index: chunk_overlap (%d) must be smaller than chunk_size (%d)",
			c.Index.ChunkOverlap, c.Index.ChunkSize)
	}

	if strings.TrimSpace(c.Logging.Level) == "" {
		c.Logging.Level = defaultLogLevel
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "":
		c.Logging.Format = defaultLogFormat
	case "auto", "console", "json":
		c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	default:
		return fmt.Errorf("logging: format must be \"auto\", \"console\", or \"json\", got %q", c.Logging.Format)
	}

	if strings.TrimSpace(c.Watch.Dir) != "" {
		expanded, err := ExpandPath(c.Watch.Dir)
		if err != nil {
			return fmt.Errorf("watch.dir: %w", err)
		}
		c.Watch.Dir = expanded
	}

	return nil
}
