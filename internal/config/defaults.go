package config

const (
	defaultCacheRoot = "~/.local/share/tubeqa/cache"
	defaultLogDir    = "~/.local/share/tubeqa/logs"

	defaultYtDlpBinary       = "yt-dlp"
	defaultAcquireTimeout    = 600
	defaultAcquireRetries    = 3
	defaultWhisperBinary     = "whisper-cli"
	defaultFFmpegBinary      = "ffmpeg"
	defaultFFprobeBinary     = "ffprobe"
	defaultFastMaxMinutes    = 10
	defaultBalancedMax       = 90
	defaultLongFormMinutes   = 30
	defaultChunkMinutes      = 10
	defaultFastModel         = "small"
	defaultBalancedModel     = "base"
	defaultAccurateModel     = "medium"
	defaultLLMBaseURL        = "https://api.openai.com/v1/chat/completions"
	defaultCheapModel        = "gpt-3.5-turbo"
	defaultPremiumModel      = "gpt-4"
	defaultLLMTimeoutSeconds = 60
	defaultAnswerTier        = "cheap"
	defaultTopK              = 4
	defaultSummaryFallback   = "—"
	defaultAnswerFallback    = "Sorry, I can't generate an answer right now."
	defaultEmbeddingBaseURL  = "https://api.openai.com/v1/embeddings"
	defaultEmbeddingModel    = "text-embedding-ada-002"
	defaultEmbeddingBatch    = 64
	defaultEmbeddingTimeout  = 30
	defaultChunkSize         = 500
	defaultChunkOverlap      = 50
	defaultLogLevel          = "info"
	// "auto" picks console on a terminal and JSON otherwise.
	defaultLogFormat = "auto"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CacheRoot: defaultCacheRoot,
			LogDir:    defaultLogDir,
		},
		Acquisition: Acquisition{
			YtDlpBinary:    defaultYtDlpBinary,
			TimeoutSeconds: defaultAcquireTimeout,
			RetryAttempts:  defaultAcquireRetries,
		},
		Transcription: Transcription{
			Binary:             defaultWhisperBinary,
			FFmpegBinary:       defaultFFmpegBinary,
			FFprobeBinary:      defaultFFprobeBinary,
			FastMaxMinutes:     defaultFastMaxMinutes,
			BalancedMaxMinutes: defaultBalancedMax,
			LongFormMinutes:    defaultLongFormMinutes,
			ChunkMinutes:       defaultChunkMinutes,
			FastModel:          defaultFastModel,
			BalancedModel:      defaultBalancedModel,
			AccurateModel:      defaultAccurateModel,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			CheapModel:     defaultCheapModel,
			PremiumModel:   defaultPremiumModel,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Answering: Answering{
			DefaultTier: defaultAnswerTier,
			TierMap: map[string]string{
				"fast":     "premium",
				"balanced": "cheap",
				"accurate": "premium",
			},
			TopK:               defaultTopK,
			SummaryPlaceholder: defaultSummaryFallback,
			AnswerPlaceholder:  defaultAnswerFallback,
		},
		Embedding: Embedding{
			BaseURL:        defaultEmbeddingBaseURL,
			Model:          defaultEmbeddingModel,
			BatchSize:      defaultEmbeddingBatch,
			TimeoutSeconds: defaultEmbeddingTimeout,
		},
		Index: Index{
			ChunkSize:    defaultChunkSize,
			ChunkOverlap: defaultChunkOverlap,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
