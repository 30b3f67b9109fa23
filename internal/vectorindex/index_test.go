package vectorindex

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"tubeqa/internal/services"
)

// fakeEmbedder maps known texts to fixed vectors so similarity ordering is
// deterministic.
type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
	calls   int
}

func (f *fakeEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, ok := f.vectors[text]
		if !ok {
			vec = []float32{0, 0, 1}
		}
		out[i] = vec
	}
	return out, nil
}

func (f *fakeEmbedder) Model() string { return "fake-embedding" }

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{vectors: map[string][]float32{
		"cats purr":     {1, 0, 0},
		"dogs bark":     {0, 1, 0},
		"fish swim":     {0, 0, 1},
		"about cats":    {0.9, 0.1, 0},
		"about fish":    {0.1, 0, 0.9},
		"unrelated":     {0.5, 0.5, 0.5},
		"cats question": {1, 0.05, 0},
	}}
}

func TestBuildOpenSearchRoundTrip(t *testing.T) {
	dir := t.TempDir()
	embedder := newFakeEmbedder()
	ctx := context.Background()

	built, err := Build(ctx, dir, []string{"cats purr", "dogs bark", "fish swim"}, embedder, 500, 50)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if built.Len() != 3 {
		t.Fatalf("expected 3 chunks, got %d", built.Len())
	}

	opened, err := Open(dir, embedder)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if m := opened.Manifest(); m.Model != "fake-embedding" || m.ChunkSize != 500 || m.ChunkOverlap != 50 {
		t.Fatalf("manifest mismatch: %+v", m)
	}

	got, err := opened.Search(ctx, "cats question", 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 || got[0] != "cats purr" {
		t.Fatalf("unexpected ranking: %v", got)
	}
}

func TestSearchClampsKToCorpus(t *testing.T) {
	dir := t.TempDir()
	embedder := newFakeEmbedder()
	ctx := context.Background()

	built, err := Build(ctx, dir, []string{"cats purr", "dogs bark"}, embedder, 500, 50)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	got, err := built.Search(ctx, "cats question", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected all chunks, got %d", len(got))
	}
}

func TestOpenMissingIndex(t *testing.T) {
	_, err := Open(t.TempDir(), newFakeEmbedder())
	if !errors.Is(err, services.ErrIndex) {
		t.Fatalf("expected ErrIndex, got %v", err)
	}
}

func TestOpenCorruptIndex(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("{truncated"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Open(dir, newFakeEmbedder())
	if !errors.Is(err, services.ErrIndex) {
		t.Fatalf("expected ErrIndex, got %v", err)
	}
}

func TestBuildReplacesExistingIndex(t *testing.T) {
	dir := t.TempDir()
	embedder := newFakeEmbedder()
	ctx := context.Background()

	if _, err := Build(ctx, dir, []string{"cats purr"}, embedder, 500, 50); err != nil {
		t.Fatalf("first build: %v", err)
	}
	if _, err := Build(ctx, dir, []string{"dogs bark", "fish swim"}, embedder, 500, 50); err != nil {
		t.Fatalf("second build: %v", err)
	}
	opened, err := Open(dir, embedder)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if opened.Len() != 2 {
		t.Fatalf("stale index survived rebuild: %d chunks", opened.Len())
	}
}

func TestBuildPropagatesRateLimit(t *testing.T) {
	embedder := newFakeEmbedder()
	embedder.err = services.Wrap(services.ErrRateLimited, "embed", "embed_batch", "", errors.New("429"))

	_, err := Build(context.Background(), t.TempDir(), []string{"cats purr"}, embedder, 500, 50)
	if !errors.Is(err, services.ErrRateLimited) {
		t.Fatalf("expected rate limit to pass through, got %v", err)
	}
}

func TestBuildRejectsEmptyChunks(t *testing.T) {
	_, err := Build(context.Background(), t.TempDir(), nil, newFakeEmbedder(), 500, 50)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
