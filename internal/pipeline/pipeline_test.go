package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"tubeqa/internal/answer"
	"tubeqa/internal/cachestore"
	"tubeqa/internal/config"
	"tubeqa/internal/contentkey"
	"tubeqa/internal/services"
	"tubeqa/internal/session"
	"tubeqa/internal/tiers"
)

type fakeCache struct {
	entries  map[string]cachestore.Entry
	putErr   error
	putCalls int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]cachestore.Entry{}}
}

func (f *fakeCache) Get(ctx context.Context, key string) (cachestore.Entry, bool) {
	entry, ok := f.entries[key]
	return entry, ok
}

func (f *fakeCache) Put(ctx context.Context, entry cachestore.Entry) error {
	f.putCalls++
	if f.putErr != nil {
		return f.putErr
	}
	f.entries[entry.ContentKey] = entry
	return nil
}

type fakeAcquirer struct {
	calls int
	err   error
}

func (f *fakeAcquirer) Acquire(ctx context.Context, url, destDir, key string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "/audio/" + key + ".wav", nil
}

type fakeTranscriber struct {
	durationMinutes float64
	durationErr     error
	transcribeErr   error

	extracted   []string
	transcribed []string
	gotModels   []string
}

func (f *fakeTranscriber) Duration(ctx context.Context, path string) (float64, error) {
	return f.durationMinutes, f.durationErr
}

func (f *fakeTranscriber) ExtractSegment(ctx context.Context, source string, startSec, durationSec int, dest string) error {
	f.extracted = append(f.extracted, fmt.Sprintf("%d+%d", startSec, durationSec))
	return nil
}

func (f *fakeTranscriber) TranscribeFile(ctx context.Context, source, model string) (string, error) {
	if f.transcribeErr != nil {
		return "", f.transcribeErr
	}
	f.gotModels = append(f.gotModels, model)
	f.transcribed = append(f.transcribed, source)
	return fmt.Sprintf("part-%d", len(f.transcribed)), nil
}

func (f *fakeTranscriber) ModelFor(tier tiers.Transcription) string {
	return "model-" + string(tier)
}

type fakeSummarizer struct {
	summary string
	err     error
	calls   int
}

func (f *fakeSummarizer) Summarize(ctx context.Context, transcript string, tier tiers.Answer) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.summary, nil
}

type fakeSearcher struct{}

func (fakeSearcher) Search(ctx context.Context, query string, k int) ([]string, error) {
	return []string{"excerpt"}, nil
}

type fakeIndexes struct {
	buildCalls int
	buildErr   error
	openErr    error
	builtDirs  []string
	gotChunks  [][]string
}

func (f *fakeIndexes) Build(ctx context.Context, dir string, chunks []string, chunkSize, chunkOverlap int) (answer.Searcher, error) {
	f.buildCalls++
	if f.buildErr != nil {
		return nil, f.buildErr
	}
	f.builtDirs = append(f.builtDirs, dir)
	f.gotChunks = append(f.gotChunks, chunks)
	return fakeSearcher{}, nil
}

func (f *fakeIndexes) Open(dir string) (answer.Searcher, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return fakeSearcher{}, nil
}

type fakeCompleter struct{}

func (fakeCompleter) Answer(ctx context.Context, question, excerpts string, tier tiers.Answer) (string, error) {
	return "an answer", nil
}

type fakeMetadata struct{ calls int }

func (f *fakeMetadata) Probe(ctx context.Context, url string) session.Metadata {
	f.calls++
	return session.Metadata{Title: "A Talk", DurationMinutes: 45, Description: "desc"}
}

type fixture struct {
	cfg         *config.Config
	cache       *fakeCache
	acquirer    *fakeAcquirer
	transcriber *fakeTranscriber
	summarizer  *fakeSummarizer
	indexes     *fakeIndexes
	metadata    *fakeMetadata
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.CacheRoot = t.TempDir()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate config: %v", err)
	}
	return &fixture{
		cfg:         &cfg,
		cache:       newFakeCache(),
		acquirer:    &fakeAcquirer{},
		transcriber: &fakeTranscriber{durationMinutes: 5},
		summarizer:  &fakeSummarizer{summary: "a synopsis"},
		indexes:     &fakeIndexes{},
		metadata:    &fakeMetadata{},
	}
}

func (f *fixture) pipeline(opts ...Option) *Pipeline {
	return New(f.cfg, Deps{
		Cache:       f.cache,
		Acquirer:    f.acquirer,
		Transcriber: f.transcriber,
		Summarizer:  f.summarizer,
		Completer:   fakeCompleter{},
		Indexes:     f.indexes,
		Metadata:    f.metadata,
	}, nil, opts...)
}

func TestColdRunBuildsAndCaches(t *testing.T) {
	f := newFixture(t)
	result, err := f.pipeline().Run(context.Background(), "https://youtu.be/abc", "")
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if result.FromCache {
		t.Fatal("cold run must not report cache hit")
	}
	if result.ContentKey != contentkey.Key("https://youtu.be/abc") {
		t.Fatalf("unexpected key: %s", result.ContentKey)
	}
	if result.Transcript != "part-1" || result.Summary != "a synopsis" {
		t.Fatalf("unexpected artifacts: %q %q", result.Transcript, result.Summary)
	}
	if f.indexes.buildCalls != 1 {
		t.Fatalf("expected one index build, got %d", f.indexes.buildCalls)
	}
	if !strings.HasSuffix(f.indexes.builtDirs[0], result.ContentKey) {
		t.Fatalf("index dir not keyed by content key: %s", f.indexes.builtDirs[0])
	}

	cached, ok := f.cache.entries[result.ContentKey]
	if !ok {
		t.Fatal("artifacts not cached")
	}
	if cached.Transcript != "part-1" || cached.IndexLocation != f.indexes.builtDirs[0] {
		t.Fatalf("cached entry mismatch: %+v", cached)
	}
	if result.Session == nil {
		t.Fatal("no session constructed")
	}
}

func TestWarmCacheSkipsExpensiveStages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	url := "https://youtu.be/abc"

	first, err := f.pipeline().Run(ctx, url, "")
	if err != nil {
		t.Fatalf("first run: %v", err)
	}

	second, err := f.pipeline().Run(ctx, url, "")
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if !second.FromCache {
		t.Fatal("second run must hit the cache")
	}
	if second.Transcript != first.Transcript || second.Summary != first.Summary {
		t.Fatal("warm run artifacts differ from cold run")
	}
	if f.acquirer.calls != 1 {
		t.Fatalf("acquisition ran %d times, want 1", f.acquirer.calls)
	}
	if f.summarizer.calls != 1 {
		t.Fatalf("summarizer ran %d times, want 1", f.summarizer.calls)
	}
	if f.indexes.buildCalls != 1 {
		t.Fatalf("index built %d times, want 1", f.indexes.buildCalls)
	}
}

func TestUnreadableCachedIndexRebuilds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	url := "https://youtu.be/abc"

	if _, err := f.pipeline().Run(ctx, url, ""); err != nil {
		t.Fatalf("first run: %v", err)
	}
	f.indexes.openErr = services.Wrap(services.ErrIndex, "vectorindex", "open", "corrupt", nil)

	result, err := f.pipeline().Run(ctx, url, "")
	if err != nil {
		t.Fatalf("rebuild run: %v", err)
	}
	if result.FromCache {
		t.Fatal("run with unreadable index must rebuild")
	}
	if f.indexes.buildCalls != 2 {
		t.Fatalf("expected rebuild, got %d builds", f.indexes.buildCalls)
	}
}

func TestLongFormTranscribesSequentialChunks(t *testing.T) {
	f := newFixture(t)
	f.transcriber.durationMinutes = 45

	var progress []string
	p := f.pipeline(WithProgress(func(completed, total int) {
		progress = append(progress, fmt.Sprintf("%d/%d", completed, total))
	}))

	result, err := p.Run(context.Background(), "https://youtu.be/long", "")
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(f.transcriber.extracted) != 5 {
		t.Fatalf("45 minutes at 10-minute chunks must produce 5 segments, got %d", len(f.transcriber.extracted))
	}
	if f.transcriber.extracted[0] != "0+600" || f.transcriber.extracted[4] != "2400+600" {
		t.Fatalf("segment offsets wrong: %v", f.transcriber.extracted)
	}
	if result.Transcript != "part-1\npart-2\npart-3\npart-4\npart-5" {
		t.Fatalf("chunk order not preserved: %q", result.Transcript)
	}
	want := []string{"1/5", "2/5", "3/5", "4/5", "5/5"}
	if strings.Join(progress, " ") != strings.Join(want, " ") {
		t.Fatalf("progress reports wrong: %v", progress)
	}
}

func TestShortFormReportsSingleProgressJump(t *testing.T) {
	f := newFixture(t)
	f.transcriber.durationMinutes = 5

	var progress []string
	p := f.pipeline(WithProgress(func(completed, total int) {
		progress = append(progress, fmt.Sprintf("%d/%d", completed, total))
	}))
	if _, err := p.Run(context.Background(), "https://youtu.be/short", ""); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(progress) != 1 || progress[0] != "1/1" {
		t.Fatalf("expected single 1/1 report, got %v", progress)
	}
	if len(f.transcriber.extracted) != 0 {
		t.Fatal("short audio must not be segmented")
	}
}

func TestTierSelectionFlowsIntoTranscription(t *testing.T) {
	cases := []struct {
		minutes   float64
		wantModel string
		wantTier  tiers.Transcription
		wantAns   tiers.Answer
	}{
		{5, "model-fast", tiers.TranscriptionFast, tiers.AnswerPremium},
		{45, "model-balanced", tiers.TranscriptionBalanced, tiers.AnswerCheap},
		{120, "model-accurate", tiers.TranscriptionAccurate, tiers.AnswerPremium},
	}
	for _, tc := range cases {
		f := newFixture(t)
		f.transcriber.durationMinutes = tc.minutes

		result, err := f.pipeline().Run(context.Background(), "https://youtu.be/abc", "")
		if err != nil {
			t.Fatalf("%v minutes: %v", tc.minutes, err)
		}
		if result.TranscriptionTier != tc.wantTier {
			t.Errorf("%v minutes: transcription tier %s, want %s", tc.minutes, result.TranscriptionTier, tc.wantTier)
		}
		if result.AnswerTier != tc.wantAns {
			t.Errorf("%v minutes: answer tier %s, want %s", tc.minutes, result.AnswerTier, tc.wantAns)
		}
		if f.transcriber.gotModels[0] != tc.wantModel {
			t.Errorf("%v minutes: model %s, want %s", tc.minutes, f.transcriber.gotModels[0], tc.wantModel)
		}
	}
}

func TestAnswerTierOverrideWinsVerbatim(t *testing.T) {
	f := newFixture(t)
	f.transcriber.durationMinutes = 45 // balanced would map to cheap

	result, err := f.pipeline().Run(context.Background(), "https://youtu.be/abc", tiers.AnswerPremium)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.AnswerTier != tiers.AnswerPremium {
		t.Fatalf("override ignored: %s", result.AnswerTier)
	}
}

func TestWarmCacheReusesStoredAnswerTier(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	url := "https://youtu.be/abc"
	f.transcriber.durationMinutes = 45

	if _, err := f.pipeline().Run(ctx, url, ""); err != nil {
		t.Fatalf("first run: %v", err)
	}
	result, err := f.pipeline().Run(ctx, url, "")
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if result.AnswerTier != tiers.AnswerCheap {
		t.Fatalf("stored tier not reused: %s", result.AnswerTier)
	}
}

func TestRateLimitedSummaryDegradesToPlaceholder(t *testing.T) {
	f := newFixture(t)
	f.summarizer.err = services.Wrap(services.ErrRateLimited, "llm", "summarize", "", errors.New("429"))

	result, err := f.pipeline().Run(context.Background(), "https://youtu.be/abc", "")
	if err != nil {
		t.Fatalf("rate-limited summary must not abort: %v", err)
	}
	if result.Summary != f.cfg.Answering.SummaryPlaceholder {
		t.Fatalf("expected placeholder summary, got %q", result.Summary)
	}
	if f.indexes.buildCalls != 1 {
		t.Fatal("run must still reach indexing")
	}
}

func TestProviderErrorOnSummaryAborts(t *testing.T) {
	f := newFixture(t)
	f.summarizer.err = services.Wrap(services.ErrProvider, "llm", "summarize", "", errors.New("boom"))

	_, err := f.pipeline().Run(context.Background(), "https://youtu.be/abc", "")
	if !errors.Is(err, services.ErrProvider) {
		t.Fatalf("expected ErrProvider, got %v", err)
	}
	if f.cache.putCalls != 0 {
		t.Fatal("aborted run must not write the cache")
	}
}

func TestIndexFailureAborts(t *testing.T) {
	f := newFixture(t)
	f.indexes.buildErr = services.Wrap(services.ErrIndex, "vectorindex", "build", "", errors.New("boom"))

	_, err := f.pipeline().Run(context.Background(), "https://youtu.be/abc", "")
	if !errors.Is(err, services.ErrIndex) {
		t.Fatalf("expected ErrIndex, got %v", err)
	}
	if f.cache.putCalls != 0 {
		t.Fatal("aborted run must not write the cache")
	}
}

func TestAcquisitionFailureAborts(t *testing.T) {
	f := newFixture(t)
	f.acquirer.err = services.Wrap(services.ErrAcquisition, "ytdlp", "acquire", "", errors.New("gone"))

	_, err := f.pipeline().Run(context.Background(), "https://youtu.be/abc", "")
	if !errors.Is(err, services.ErrAcquisition) {
		t.Fatalf("expected ErrAcquisition, got %v", err)
	}
}

func TestTranscriptionFailureAborts(t *testing.T) {
	f := newFixture(t)
	f.transcriber.transcribeErr = services.Wrap(services.ErrTranscription, "whisper", "transcribe", "", errors.New("boom"))

	_, err := f.pipeline().Run(context.Background(), "https://youtu.be/abc", "")
	if !errors.Is(err, services.ErrTranscription) {
		t.Fatalf("expected ErrTranscription, got %v", err)
	}
	if f.cache.putCalls != 0 {
		t.Fatal("no partial cache write on transcription failure")
	}
}

func TestCacheWriteFailureStillReady(t *testing.T) {
	f := newFixture(t)
	f.cache.putErr = services.Wrap(services.ErrCacheIO, "cachestore", "put", "", errors.New("disk full"))

	result, err := f.pipeline().Run(context.Background(), "https://youtu.be/abc", "")
	if err != nil {
		t.Fatalf("cache write failure must not abort: %v", err)
	}
	if result.Session == nil {
		t.Fatal("session must still be usable")
	}

	got, err := result.Session.Ask(context.Background(), "what does the speaker say about select?")
	if err != nil {
		t.Fatalf("ask on degraded run: %v", err)
	}
	if got.Answer != "an answer" {
		t.Fatalf("unexpected answer: %q", got.Answer)
	}
}

func TestSessionCarriesMetadataAndSummary(t *testing.T) {
	f := newFixture(t)
	result, err := f.pipeline().Run(context.Background(), "https://youtu.be/abc", "")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if f.metadata.calls != 1 {
		t.Fatalf("metadata probe ran %d times", f.metadata.calls)
	}
	if result.Session.Metadata().Title != "A Talk" {
		t.Fatalf("metadata not carried: %+v", result.Session.Metadata())
	}
	if result.Session.Summary() != "a synopsis" {
		t.Fatalf("summary not carried: %q", result.Session.Summary())
	}
}

func TestEmptyURLRejected(t *testing.T) {
	f := newFixture(t)
	_, err := f.pipeline().Run(context.Background(), "  ", "")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
