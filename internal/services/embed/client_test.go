package embed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"tubeqa/internal/services"
)

func newTestClient(t *testing.T, batchSize int, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{
		APIKey:    "test-key",
		BaseURL:   server.URL,
		Model:     "test-embedding",
		BatchSize: batchSize,
	}, WithMaxElapsed(250*time.Millisecond), WithRetryInterval(time.Millisecond))
}

func echoVectors(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		resp := embeddingResponse{}
		for i := range req.Input {
			resp.Data = append(resp.Data, struct {
				Index     int       `json:"index"`
				Embedding []float32 `json:"embedding"`
			}{Index: i, Embedding: []float32{float32(len(req.Input[i])), 1}})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func TestEmbedTextsPreservesOrder(t *testing.T) {
	client := newTestClient(t, 64, echoVectors(t))

	got, err := client.EmbedTexts(context.Background(), []string{"a", "bb", "ccc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 vectors, got %d", len(got))
	}
	for i, want := range []float32{1, 2, 3} {
		if got[i][0] != want {
			t.Fatalf("vector %d out of order: %v", i, got[i])
		}
	}
}

func TestEmbedTextsBatches(t *testing.T) {
	var requests atomic.Int32
	base := echoVectors(t)
	client := newTestClient(t, 2, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		base(w, r)
	})

	got, err := client.EmbedTexts(context.Background(), []string{"a", "b", "c", "d", "e"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("expected 5 vectors, got %d", len(got))
	}
	if requests.Load() != 3 {
		t.Fatalf("expected 3 batches of size 2, got %d requests", requests.Load())
	}
}

func TestThrottleClassifiedAsRateLimited(t *testing.T) {
	client := newTestClient(t, 64, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.EmbedTexts(context.Background(), []string{"a"})
	if !errors.Is(err, services.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestClientErrorIsPermanent(t *testing.T) {
	var requests atomic.Int32
	client := newTestClient(t, 64, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := client.EmbedTexts(context.Background(), []string{"a"})
	if !errors.Is(err, services.ErrProvider) {
		t.Fatalf("expected ErrProvider, got %v", err)
	}
	if requests.Load() != 1 {
		t.Fatalf("client errors must not retry, got %d requests", requests.Load())
	}
}

func TestTransientServerErrorRecovers(t *testing.T) {
	var requests atomic.Int32
	base := echoVectors(t)
	client := newTestClient(t, 64, func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		base(w, r)
	})

	got, err := client.EmbedTexts(context.Background(), []string{"a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 vector, got %d", len(got))
	}
}

func TestEmptyInputRejected(t *testing.T) {
	client := NewClient(Config{APIKey: "k"})
	_, err := client.EmbedTexts(context.Background(), nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
