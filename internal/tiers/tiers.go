package tiers

import "strings"

// Transcription identifies a speech-to-text model class.
type Transcription string

const (
	TranscriptionFast     Transcription = "fast"
	TranscriptionBalanced Transcription = "balanced"
	TranscriptionAccurate Transcription = "accurate"
)

// Answer identifies a language-model class used for summarization and
// answering.
type Answer string

const (
	AnswerCheap   Answer = "cheap"
	AnswerPremium Answer = "premium"
)

// Thresholds are the duration bands (in minutes) for transcription tier
// selection. Upper bounds are inclusive.
type Thresholds struct {
	FastMax     float64
	BalancedMax float64
}

// SelectTranscription maps an audio duration in minutes to a transcription
// tier using the three-band threshold table.
func SelectTranscription(durationMinutes float64, th Thresholds) Transcription {
	switch {
	case durationMinutes <= th.FastMax:
		return TranscriptionFast
	case durationMinutes <= th.BalancedMax:
		return TranscriptionBalanced
	default:
		return TranscriptionAccurate
	}
}

// ParseAnswer converts a configuration string into an Answer tier.
func ParseAnswer(value string) (Answer, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(AnswerCheap):
		return AnswerCheap, true
	case string(AnswerPremium):
		return AnswerPremium, true
	default:
		return "", false
	}
}

// ParseTranscription converts a stored string into a Transcription tier.
func ParseTranscription(value string) (Transcription, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(TranscriptionFast):
		return TranscriptionFast, true
	case string(TranscriptionBalanced):
		return TranscriptionBalanced, true
	case string(TranscriptionAccurate):
		return TranscriptionAccurate, true
	default:
		return "", false
	}
}

// SelectAnswer resolves the answer tier for a transcription tier. An explicit
// override wins verbatim. Otherwise the mapping table applies, falling back
// to the provided default for unmapped tiers.
func SelectAnswer(tr Transcription, override Answer, table map[string]string, fallback Answer) Answer {
	if override != "" {
		return override
	}
	if mapped, ok := table[string(tr)]; ok {
		if tier, valid := ParseAnswer(mapped); valid {
			return tier
		}
	}
	return fallback
}
