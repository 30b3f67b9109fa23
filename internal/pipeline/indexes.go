package pipeline

import (
	"context"

	"tubeqa/internal/answer"
	"tubeqa/internal/vectorindex"
)

// EmbeddingIndexes implements IndexProvider over the persisted JSON index,
// sharing one embedder between builds and query-time search.
type EmbeddingIndexes struct {
	Embedder vectorindex.Embedder
}

// Build embeds chunks and persists a fresh index under dir.
func (e EmbeddingIndexes) Build(ctx context.Context, dir string, chunks []string, chunkSize, chunkOverlap int) (answer.Searcher, error) {
	return vectorindex.Build(ctx, dir, chunks, e.Embedder, chunkSize, chunkOverlap)
}

// Open rehydrates a previously persisted index from dir.
func (e EmbeddingIndexes) Open(dir string) (answer.Searcher, error) {
	return vectorindex.Open(dir, e.Embedder)
}
