package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAcquisition marks audio download/extraction failures. Fatal for the run.
	ErrAcquisition = errors.New("acquisition error")

	// ErrTranscription marks speech-to-text failures. Fatal for the run.
	ErrTranscription = errors.New("transcription error")

	// ErrRateLimited marks provider quota/rate-limit rejections. Recoverable:
	// callers substitute placeholder content instead of aborting.
	ErrRateLimited = errors.New("rate limited")

	// ErrProvider marks any other language-model provider failure. Fatal.
	ErrProvider = errors.New("provider error")

	// ErrIndex marks semantic index build/reopen failures. Fatal; answering
	// requires the index.
	ErrIndex = errors.New("index error")

	// ErrCacheIO marks artifact cache storage failures. Non-fatal on write
	// (the run proceeds uncached); reads treat it as a miss.
	ErrCacheIO = errors.New("cache io error")

	// ErrValidation marks caller mistakes such as an empty URL.
	ErrValidation = errors.New("validation error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrProvider
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Recoverable reports whether the run may degrade gracefully instead of
// aborting when this error occurs.
func Recoverable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrCacheIO)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
