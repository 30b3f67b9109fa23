package llm

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
	"tubeqa/internal/tiers"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	base := []Option{
		WithSleeper(func(time.Duration) {}),
		WithRetryBackoff(time.Millisecond, 2*time.Millisecond),
	}
	return NewClient(Config{
		APIKey:       "test-key",
		BaseURL:      server.URL,
		CheapModel:   "cheap-model",
		PremiumModel: "premium-model",
	}, append(base, opts...)...)
}

func completionBody(content string) string {
	return `{"choices":[{"message":{"content":"` + content + `"},"finish_reason":"stop"}]}`
}

func TestSummarizeSuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("missing auth header: %q", got)
		}
		w.Write([]byte(completionBody("a concise synopsis")))
	})

	got, err := client.Summarize(context.Background(), "long transcript text", tiers.AnswerCheap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "a concise synopsis" {
		t.Fatalf("unexpected summary: %q", got)
	}
}

func TestModelSelectionPerTier(t *testing.T) {
	var seenModel atomic.Value
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Model string `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		seenModel.Store(payload.Model)
		w.Write([]byte(completionBody("ok")))
	})

	if _, err := client.Answer(context.Background(), "q", "ctx", tiers.AnswerPremium); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := seenModel.Load(); got != "premium-model" {
		t.Fatalf("expected premium model, got %v", got)
	}

	if _, err := client.Answer(context.Background(), "q", "ctx", tiers.AnswerCheap); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := seenModel.Load(); got != "cheap-model" {
		t.Fatalf("expected cheap model, got %v", got)
	}
}

func TestRateLimitClassification(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"slow down"}}`))
	}, WithRetryMaxAttempts(2))

	_, err := client.Summarize(context.Background(), "text", tiers.AnswerCheap)
	if !errors.Is(err, services.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestInsufficientQuotaIsRateLimitedWithoutRetry(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"message":"quota","code":"insufficient_quota"}}`))
	}, WithRetryMaxAttempts(5))

	_, err := client.Summarize(context.Background(), "text", tiers.AnswerCheap)
	if !errors.Is(err, services.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("quota errors must not retry, got %d calls", calls.Load())
	}
}

func TestServerErrorRetriesThenClassifiesAsProvider(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}, WithRetryMaxAttempts(3))

	_, err := client.Summarize(context.Background(), "text", tiers.AnswerCheap)
	if !errors.Is(err, services.ErrProvider) {
		t.Fatalf("expected ErrProvider, got %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestTransientErrorRecovers(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(completionBody("recovered")))
	}, WithRetryMaxAttempts(3))

	got, err := client.Summarize(context.Background(), "text", tiers.AnswerCheap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "recovered" {
		t.Fatalf("unexpected content: %q", got)
	}
}

func TestBadRequestDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}, WithRetryMaxAttempts(4))

	_, err := client.Summarize(context.Background(), "text", tiers.AnswerCheap)
	if !errors.Is(err, services.ErrProvider) {
		t.Fatalf("expected ErrProvider, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("client errors must not retry, got %d calls", calls.Load())
	}
}

func TestEmptyTranscriptRejected(t *testing.T) {
	client := NewClient(Config{APIKey: "k"})
	_, err := client.Summarize(context.Background(), "   ", tiers.AnswerCheap)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseRetryAfterSeconds(t *testing.T) {
	d, ok := parseRetryAfter("7")
	if !ok || d != 7*time.Second {
		t.Fatalf("unexpected parse result: %v %v", d, ok)
	}
	if _, ok := parseRetryAfter("garbage"); ok {
		t.Fatal("expected parse failure")
	}
}
