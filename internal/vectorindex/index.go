package vectorindex

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"tubeqa/internal/services"
)

// FileName is the index file written inside each per-video index directory.
const FileName = "index.json"

// Embedder converts texts to vectors. Implemented by the embeddings client.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

// Manifest records how the index was built, so a stale index can be detected
// when chunking parameters or the embedding model change.
type Manifest struct {
	Model        string `json:"model"`
	ChunkSize    int    `json:"chunk_size"`
	ChunkOverlap int    `json:"chunk_overlap"`
}

type chunkRecord struct {
	Text   string    `json:"text"`
	Vector []float32 `json:"vector"`
}

type indexFile struct {
	Manifest
	Chunks []chunkRecord `json:"chunks"`
}

// Index is an in-memory view of a persisted chunk index.
type Index struct {
	dir      string
	manifest Manifest
	chunks   []chunkRecord
	embedder Embedder
}

// Build embeds chunks and persists the index under dir, replacing any
// existing index there.
func Build(ctx context.Context, dir string, chunks []string, embedder Embedder, chunkSize, chunkOverlap int) (*Index, error) {
	if len(chunks) == 0 {
		return nil, services.Wrap(services.ErrValidation, "vectorindex", "build", "no chunks to index", nil)
	}

	vectors, err := embedder.EmbedTexts(ctx, chunks)
	if err != nil {
		if services.Recoverable(err) {
			return nil, err
		}
		return nil, services.Wrap(services.ErrIndex, "vectorindex", "build", "embed chunks", err)
	}
	if len(vectors) != len(chunks) {
		return nil, services.Wrap(services.ErrIndex, "vectorindex", "build",
			fmt.Sprintf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks)), nil)
	}

	payload := indexFile{
		Manifest: Manifest{
			Model:        embedder.Model(),
			ChunkSize:    chunkSize,
			ChunkOverlap: chunkOverlap,
		},
		Chunks: make([]chunkRecord, len(chunks)),
	}
	for i, text := range chunks {
		payload.Chunks[i] = chunkRecord{Text: text, Vector: vectors[i]}
	}

	if err := writeAtomic(dir, payload); err != nil {
		return nil, services.Wrap(services.ErrIndex, "vectorindex", "build", "persist index", err)
	}
	return &Index{dir: dir, manifest: payload.Manifest, chunks: payload.Chunks, embedder: embedder}, nil
}

// Open loads a persisted index from dir.
func Open(dir string, embedder Embedder) (*Index, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		return nil, services.Wrap(services.ErrIndex, "vectorindex", "open", "read index file", err)
	}
	var payload indexFile
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, services.Wrap(services.ErrIndex, "vectorindex", "open", "corrupt index file", err)
	}
	if len(payload.Chunks) == 0 {
		return nil, services.Wrap(services.ErrIndex, "vectorindex", "open", "index has no chunks", nil)
	}
	return &Index{dir: dir, manifest: payload.Manifest, chunks: payload.Chunks, embedder: embedder}, nil
}

// Dir returns the directory this index was loaded from or built into.
func (ix *Index) Dir() string {
	return ix.dir
}

// Manifest returns the build parameters recorded with the index.
func (ix *Index) Manifest() Manifest {
	return ix.manifest
}

// Len reports the number of indexed chunks.
func (ix *Index) Len() int {
	return len(ix.chunks)
}

// Search embeds the query and returns the k most similar chunk texts, most
// similar first. Fewer than k chunks yields all of them.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, services.Wrap(services.ErrValidation, "vectorindex", "search", "query required", nil)
	}
	if k <= 0 {
		k = 1
	}

	vectors, err := ix.embedder.EmbedTexts(ctx, []string{query})
	if err != nil {
		if services.Recoverable(err) {
			return nil, err
		}
		return nil, services.Wrap(services.ErrIndex, "vectorindex", "search", "embed query", err)
	}
	queryVec := vectors[0]

	type scored struct {
		text  string
		score float64
	}
	results := make([]scored, 0, len(ix.chunks))
	for _, chunk := range ix.chunks {
		results = append(results, scored{text: chunk.Text, score: cosine(queryVec, chunk.Vector)})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].score > results[j].score })

	if k > len(results) {
		k = len(results)
	}
	texts := make([]string, k)
	for i := 0; i < k; i++ {
		texts[i] = results[i].text
	}
	return texts, nil
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func writeAtomic(dir string, payload indexFile) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure index dir: %w", err)
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}

	tmp, err := os.CreateTemp(dir, FileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp index: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(encoded); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp index: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(dir, FileName)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace index: %w", err)
	}
	return nil
}
