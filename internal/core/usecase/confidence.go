package usecase

import (
	"strings"

	"github.com/aalnuaimi/legaledge/internal/core/domain"
)

const (
	// neutralConfidence is reported when retrieval produced no results.
	neutralConfidence = 0.5
	// referralThreshold is the confidence below which a licensed lawyer is
	// suggested.
	referralThreshold = 0.7
)

// Litigation cues in both supported languages. Any hit forces a referral
// regardless of confidence.
var escalationKeywords = []string{
	"sue", "court", "lawsuit", "legal action", "يقاضي", "محكمة",
}

// MeanConfidence is the arithmetic mean of result scores, clamped to [0,1].
func MeanConfidence(results []domain.RetrievalResult) float64 {
	if len(results) == 0 {
		return neutralConfidence
	}
	var sum float64
	for _, r := range results {
		sum += r.Score
	}
	mean := sum / float64(len(results))
	if mean < 0 {
		return 0
	}
	if mean > 1 {
		return 1
	}
	return mean
}

// LabelFor derives the coarse confidence label from result count alone.
// Legal answers should not rest on a single citation, so this rewards source
// diversity rather than raw similarity.
func LabelFor(results []domain.RetrievalResult) domain.ConfidenceLabel {
	switch {
	case len(results) >= 3:
		return domain.ConfidenceHigh
	case len(results) == 2:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}

// CoverageFor maps result count to a coarse coverage estimate.
func CoverageFor(results []domain.RetrievalResult) float64 {
	switch {
	case len(results) >= 3:
		return 0.9
	case len(results) == 2:
		return 0.6
	default:
		return 0.3
	}
}

// NeedsReferral reports whether the answer should suggest professional
// counsel: weak evidence or an explicit escalation cue is each sufficient on
// its own.
func NeedsReferral(question string, confidence float64) bool {
	if confidence < referralThreshold {
		return true
	}
	lowered := strings.ToLower(question)
	for _, keyword := range escalationKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}
