package answer

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"tubeqa/internal/logging"
	"tubeqa/internal/services"
	"tubeqa/internal/tiers"
)

// Searcher retrieves the most relevant chunk texts for a query.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]string, error)
}

// Completer produces an answer from a question and transcript excerpts.
type Completer interface {
	Answer(ctx context.Context, question, excerpts string, tier tiers.Answer) (string, error)
}

// Config tunes retrieval depth and the degraded-mode response.
type Config struct {
	TopK        int
	Tier        tiers.Answer
	Placeholder string
}

// Answerer answers questions about one indexed video.
type Answerer struct {
	searcher  Searcher
	completer Completer
	cfg       Config
	logger    *slog.Logger
}

// New builds an answerer over the given retrieval and completion backends.
func New(searcher Searcher, completer Completer, cfg Config, logger *slog.Logger) *Answerer {
	if cfg.TopK <= 0 {
		cfg.TopK = 4
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Answerer{searcher: searcher, completer: completer, cfg: cfg, logger: logger}
}

// Answer retrieves the TopK most relevant excerpts and completes an answer.
// Rate-limited backends yield the configured placeholder rather than an
// error so the question loop keeps running.
func (a *Answerer) Answer(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", services.Wrap(services.ErrValidation, "answer", "answer", "question required", nil)
	}

	excerpts, err := a.searcher.Search(ctx, question, a.cfg.TopK)
	if err != nil {
		if degraded, ok := a.degrade(err, "retrieval"); ok {
			return degraded, nil
		}
		return "", err
	}

	response, err := a.completer.Answer(ctx, question, strings.Join(excerpts, "\n\n"), a.cfg.Tier)
	if err != nil {
		if degraded, ok := a.degrade(err, "completion"); ok {
			return degraded, nil
		}
		return "", err
	}
	return response, nil
}

func (a *Answerer) degrade(err error, phase string) (string, bool) {
	if !errors.Is(err, services.ErrRateLimited) {
		return "", false
	}
	a.logger.Warn("answering degraded by provider throttling",
		logging.String("phase", phase),
		logging.Error(err))
	return a.cfg.Placeholder, true
}
