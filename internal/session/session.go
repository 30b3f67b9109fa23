package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"tubeqa/internal/logging"
	"tubeqa/internal/services"
)

// Route identifies how a question was answered.
type Route string

const (
	// RouteMetadata answers from video metadata without any model call.
	RouteMetadata Route = "metadata"
	// RouteSummary returns the cached synopsis.
	RouteSummary Route = "summary"
	// RouteRetrieval goes through chunk retrieval and completion.
	RouteRetrieval Route = "retrieval"
)

// Metadata describes the video the session is about.
type Metadata struct {
	Title           string
	DurationMinutes float64
	Description     string
}

// Exchange is one question and its answer, in ask order.
type Exchange struct {
	Question string
	Answer   string
	Route    Route
	AskedAt  time.Time
}

// QuestionAnswerer serves retrieval-routed questions.
type QuestionAnswerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

// Session holds the state of one interactive run over a processed video.
type Session struct {
	ID         string
	ContentKey string
	URL        string

	metadata Metadata
	summary  string
	answerer QuestionAnswerer
	audit    *AuditLog
	logger   *slog.Logger
	history  []Exchange
}

// New starts a session. audit may be nil to disable the shared log.
func New(contentKey, url string, metadata Metadata, summary string, answerer QuestionAnswerer, audit *AuditLog, logger *slog.Logger) *Session {
	if logger == nil {
		logger = logging.NewNop()
	}
	id := uuid.NewString()
	return &Session{
		ID:         id,
		ContentKey: contentKey,
		URL:        url,
		metadata:   metadata,
		summary:    summary,
		answerer:   answerer,
		audit:      audit,
		logger: logger.With(
			logging.String(logging.FieldSessionID, id),
			logging.String(logging.FieldContentKey, contentKey),
		),
	}
}

// Metadata returns the video metadata shown at session start.
func (s *Session) Metadata() Metadata {
	return s.metadata
}

// Summary returns the cached synopsis.
func (s *Session) Summary() string {
	return s.summary
}

// History returns the exchanges so far, oldest first.
func (s *Session) History() []Exchange {
	out := make([]Exchange, len(s.history))
	copy(out, s.history)
	return out
}

// Ask routes the question, records the exchange, and returns it. Audit log
// failures are logged and do not fail the exchange.
func (s *Session) Ask(ctx context.Context, question string) (Exchange, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Exchange{}, services.Wrap(services.ErrValidation, "session", "ask", "question required", nil)
	}

	route := classifyIntent(question)
	var answer string
	var err error
	switch route {
	case RouteMetadata:
		answer = s.metadataAnswer()
	case RouteSummary:
		answer = s.summary
	default:
		answer, err = s.answerer.Answer(ctx, question)
		if err != nil {
			return Exchange{}, err
		}
	}

	exchange := Exchange{
		Question: question,
		Answer:   answer,
		Route:    route,
		AskedAt:  time.Now().UTC(),
	}
	s.history = append(s.history, exchange)

	if s.audit != nil {
		if err := s.audit.Append(s.ID, question, answer); err != nil {
			s.logger.Warn("audit log write failed", logging.Error(err))
		}
	}
	s.logger.Info("question answered", logging.String("route", string(route)))
	return exchange, nil
}

// classifyIntent picks a route from surface keywords. Checks run in order:
// title/length questions beat summary questions beat retrieval.
func classifyIntent(question string) Route {
	lowered := strings.ToLower(question)
	for _, keyword := range []string{"title", "how long", "duration", "length of"} {
		if strings.Contains(lowered, keyword) {
			return RouteMetadata
		}
	}
	for _, keyword := range []string{"summary", "summarize", "brief", "overview"} {
		if strings.Contains(lowered, keyword) {
			return RouteSummary
		}
	}
	return RouteRetrieval
}

func (s *Session) metadataAnswer() string {
	var parts []string
	if s.metadata.Title != "" {
		parts = append(parts, fmt.Sprintf("Title: %s", s.metadata.Title))
	}
	if s.metadata.DurationMinutes > 0 {
		parts = append(parts, fmt.Sprintf("Duration: %.1f minutes", s.metadata.DurationMinutes))
	}
	if s.metadata.Description != "" {
		parts = append(parts, fmt.Sprintf("Description: %s", s.metadata.Description))
	}
	if len(parts) == 0 {
		return "No metadata is available for this video."
	}
	return strings.Join(parts, "\n")
}
