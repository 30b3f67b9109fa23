package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strings"

	"tubeqa/internal/answer"
	"tubeqa/internal/cachestore"
	"tubeqa/internal/config"
	"tubeqa/internal/contentkey"
	"tubeqa/internal/logging"
	"tubeqa/internal/services"
	"tubeqa/internal/session"
	"tubeqa/internal/textutil"
	"tubeqa/internal/tiers"
)

// Acquirer downloads the audio track for a URL.
type Acquirer interface {
	Acquire(ctx context.Context, url, destDir, key string) (string, error)
}

// Transcriber converts audio files to text and owns duration probing and
// segment extraction for long inputs.
type Transcriber interface {
	Duration(ctx context.Context, path string) (float64, error)
	ExtractSegment(ctx context.Context, source string, startSec, durationSec int, dest string) error
	TranscribeFile(ctx context.Context, source, model string) (string, error)
	ModelFor(tier tiers.Transcription) string
}

// Summarizer produces a short synopsis of a transcript.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string, tier tiers.Answer) (string, error)
}

// IndexProvider builds and reopens persisted semantic indexes.
type IndexProvider interface {
	Build(ctx context.Context, dir string, chunks []string, chunkSize, chunkOverlap int) (answer.Searcher, error)
	Open(dir string) (answer.Searcher, error)
}

// MetadataFetcher looks up video metadata, best effort.
type MetadataFetcher interface {
	Probe(ctx context.Context, url string) session.Metadata
}

// Cache persists pipeline artifacts keyed by content key.
type Cache interface {
	Get(ctx context.Context, key string) (cachestore.Entry, bool)
	Put(ctx context.Context, entry cachestore.Entry) error
}

// Deps bundles the capabilities a pipeline needs.
type Deps struct {
	Cache       Cache
	Acquirer    Acquirer
	Transcriber Transcriber
	Summarizer  Summarizer
	Completer   answer.Completer
	Indexes     IndexProvider
	Metadata    MetadataFetcher
	Audit       *session.AuditLog
}

// ProgressFunc receives transcription progress as completed/total chunks.
type ProgressFunc func(completed, total int)

// Result is a finished run: a ready-to-ask session plus how it was built.
type Result struct {
	ContentKey        string
	Session           *session.Session
	Transcript        string
	Summary           string
	TranscriptionTier tiers.Transcription
	AnswerTier        tiers.Answer
	FromCache         bool
}

// Pipeline orchestrates one URL at a time.
type Pipeline struct {
	cfg      *config.Config
	deps     Deps
	logger   *slog.Logger
	progress ProgressFunc
}

// Option customizes a pipeline.
type Option func(*Pipeline)

// WithProgress installs a transcription progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(p *Pipeline) {
		p.progress = fn
	}
}

// New builds a pipeline over the given configuration and capabilities.
func New(cfg *config.Config, deps Deps, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	p := &Pipeline{
		cfg:    cfg,
		deps:   deps,
		logger: logging.NewComponentLogger(logger, "pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes url to a ready session. override, when non-empty, replaces
// the answer-tier mapping verbatim.
func (p *Pipeline) Run(ctx context.Context, url string, override tiers.Answer) (*Result, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "run", "url required", nil)
	}

	key := contentkey.Key(url)
	logger := p.logger.With(logging.String(logging.FieldContentKey, key))

	if result, ok := p.fromCache(ctx, key, url, override, logger); ok {
		return result, nil
	}
	return p.build(ctx, key, url, override, logger)
}

// fromCache serves a warm run. A hit with an unreadable index falls through
// to the rebuild path rather than failing.
func (p *Pipeline) fromCache(ctx context.Context, key, url string, override tiers.Answer, logger *slog.Logger) (*Result, bool) {
	entry, ok := p.deps.Cache.Get(ctx, key)
	if !ok {
		return nil, false
	}

	searcher, err := p.deps.Indexes.Open(entry.IndexLocation)
	if err != nil {
		logger.Warn("cached index unreadable, rebuilding",
			logging.String(logging.FieldStage, "cache_check"),
			logging.Error(err))
		return nil, false
	}

	trTier, ok := tiers.ParseTranscription(entry.TranscriptionTier)
	if !ok {
		trTier = tiers.TranscriptionBalanced
	}
	ansTier := p.answerTier(trTier, entry.AnswerTier, override)

	logger.Info("cache hit", logging.String(logging.FieldStage, "cache_check"))
	return &Result{
		ContentKey:        key,
		Session:           p.newSession(ctx, key, url, entry.Summary, searcher, ansTier, logger),
		Transcript:        entry.Transcript,
		Summary:           entry.Summary,
		TranscriptionTier: trTier,
		AnswerTier:        ansTier,
		FromCache:         true,
	}, true
}

func (p *Pipeline) build(ctx context.Context, key, url string, override tiers.Answer, logger *slog.Logger) (*Result, error) {
	logger.Info("acquiring audio",
		logging.String(logging.FieldStage, "acquiring"),
		logging.String(logging.FieldURL, url))
	audioPath, err := p.deps.Acquirer.Acquire(ctx, url, p.cfg.AudioDir(), key)
	if err != nil {
		return nil, err
	}

	duration, err := p.deps.Transcriber.Duration(ctx, audioPath)
	if err != nil {
		return nil, err
	}
	trTier := tiers.SelectTranscription(duration, tiers.Thresholds{
		FastMax:     p.cfg.Transcription.FastMaxMinutes,
		BalancedMax: p.cfg.Transcription.BalancedMaxMinutes,
	})
	ansTier := p.answerTier(trTier, "", override)
	logger.Info("transcribing",
		logging.String(logging.FieldStage, "transcribing"),
		logging.Float64("duration_minutes", duration),
		logging.String("transcription_tier", string(trTier)),
		logging.String("answer_tier", string(ansTier)))

	transcript, err := p.transcribe(ctx, audioPath, key, duration, trTier)
	if err != nil {
		return nil, err
	}
	transcript = textutil.Normalize(transcript)

	logger.Info("summarizing", logging.String(logging.FieldStage, "summarizing"))
	summary, err := p.deps.Summarizer.Summarize(ctx, transcript, ansTier)
	if err != nil {
		if !errors.Is(err, services.ErrRateLimited) {
			return nil, err
		}
		logger.Warn("summary degraded by provider throttling", logging.Error(err))
		summary = p.cfg.Answering.SummaryPlaceholder
	}

	logger.Info("indexing", logging.String(logging.FieldStage, "indexing"))
	chunks := textutil.SplitOverlapping(transcript, p.cfg.Index.ChunkSize, p.cfg.Index.ChunkOverlap)
	indexDir := filepath.Join(p.cfg.IndexRoot(), key)
	searcher, err := p.deps.Indexes.Build(ctx, indexDir, chunks, p.cfg.Index.ChunkSize, p.cfg.Index.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	putErr := p.deps.Cache.Put(ctx, cachestore.Entry{
		ContentKey:        key,
		URL:               url,
		Transcript:        transcript,
		Summary:           summary,
		IndexLocation:     indexDir,
		TranscriptionTier: string(trTier),
		AnswerTier:        string(ansTier),
	})
	if putErr != nil {
		logger.Warn("cache write failed, artifacts not persisted",
			logging.String(logging.FieldStage, "cache_writing"),
			logging.Error(putErr))
	}

	return &Result{
		ContentKey:        key,
		Session:           p.newSession(ctx, key, url, summary, searcher, ansTier, logger),
		Transcript:        transcript,
		Summary:           summary,
		TranscriptionTier: trTier,
		AnswerTier:        ansTier,
	}, nil
}

// transcribe runs one-shot transcription for short audio and sequential
// segment transcription above the long-form trigger. Chunk order is
// preserved in the joined transcript.
func (p *Pipeline) transcribe(ctx context.Context, audioPath, key string, durationMinutes float64, tier tiers.Transcription) (string, error) {
	model := p.deps.Transcriber.ModelFor(tier)

	if durationMinutes <= p.cfg.Transcription.LongFormMinutes || p.cfg.Transcription.ChunkMinutes <= 0 {
		text, err := p.deps.Transcriber.TranscribeFile(ctx, audioPath, model)
		if err != nil {
			return "", err
		}
		p.reportProgress(1, 1)
		return text, nil
	}

	chunkMinutes := p.cfg.Transcription.ChunkMinutes
	total := int(math.Ceil(durationMinutes / float64(chunkMinutes)))
	chunkSeconds := chunkMinutes * 60

	parts := make([]string, 0, total)
	for i := 0; i < total; i++ {
		segment := filepath.Join(p.cfg.ChunkDir(), fmt.Sprintf("%s_seg_%03d.wav", key, i))
		if err := p.deps.Transcriber.ExtractSegment(ctx, audioPath, i*chunkSeconds, chunkSeconds, segment); err != nil {
			return "", err
		}
		text, err := p.deps.Transcriber.TranscribeFile(ctx, segment, model)
		if err != nil {
			return "", err
		}
		parts = append(parts, text)
		p.reportProgress(i+1, total)
	}
	return strings.Join(parts, "\n"), nil
}

func (p *Pipeline) answerTier(trTier tiers.Transcription, stored string, override tiers.Answer) tiers.Answer {
	if override == "" && stored != "" {
		if parsed, ok := tiers.ParseAnswer(stored); ok {
			return parsed
		}
	}
	fallback, ok := tiers.ParseAnswer(p.cfg.Answering.DefaultTier)
	if !ok {
		fallback = tiers.AnswerCheap
	}
	return tiers.SelectAnswer(trTier, override, p.cfg.Answering.TierMap, fallback)
}

func (p *Pipeline) newSession(ctx context.Context, key, url, summary string, searcher answer.Searcher, tier tiers.Answer, logger *slog.Logger) *session.Session {
	answerer := answer.New(searcher, p.deps.Completer, answer.Config{
		TopK:        p.cfg.Answering.TopK,
		Tier:        tier,
		Placeholder: p.cfg.Answering.AnswerPlaceholder,
	}, logger)

	meta := session.Metadata{Title: "—", Description: "—"}
	if p.deps.Metadata != nil {
		meta = p.deps.Metadata.Probe(ctx, url)
	}
	return session.New(key, url, meta, summary, answerer, p.deps.Audit, logger)
}

func (p *Pipeline) reportProgress(completed, total int) {
	if p.progress != nil {
		p.progress(completed, total)
	}
}
