package usecase

import (
	"strings"

	"github.com/score-labs/score-backend/internal/core/domain"
)

const (
	defaultKeywordWeight       = 0.4
	defaultSemanticWeight      = 0.6
	defaultSufficientThreshold = 0.5
	defaultPartialThreshold    = 0.3
	minCoverageDocuments       = 2
	topScoresConsidered        = 5
	keywordMinLength           = 3
)

// CoverageChecker judges whether retrieved material is enough to answer a
// query from local content alone. It blends a lexical signal (query keyword
// overlap) with a semantic one (mean of the best similarity scores), with
// the semantic side weighted higher. The weights and thresholds are policy
// knobs, not derived values.
type CoverageChecker struct {
	keywordWeight       float64
	semanticWeight      float64
	sufficientThreshold float64
	partialThreshold    float64
}

// NewCoverageChecker constructs a checker; non-positive arguments select the
// defaults.
func NewCoverageChecker(keywordWeight, semanticWeight, sufficientThreshold, partialThreshold float64) *CoverageChecker {
	if keywordWeight <= 0 {
		keywordWeight = defaultKeywordWeight
	}
	if semanticWeight <= 0 {
		semanticWeight = defaultSemanticWeight
	}
	if sufficientThreshold <= 0 {
		sufficientThreshold = defaultSufficientThreshold
	}
	if partialThreshold <= 0 {
		partialThreshold = defaultPartialThreshold
	}
	return &CoverageChecker{
		keywordWeight:       keywordWeight,
		semanticWeight:      semanticWeight,
		sufficientThreshold: sufficientThreshold,
		partialThreshold:    partialThreshold,
	}
}

// Check evaluates documents and their similarity scores against the query.
// Document-count floors short-circuit before any scoring: no documents is a
// hard zero, and a single document is a fixed low-confidence signal rather
// than a computed one.
func (c *CoverageChecker) Check(documents []string, scores []float64, query string) *domain.CoverageReport {
	if len(documents) == 0 {
		return &domain.CoverageReport{
			Sufficient: false,
			Confidence: 0.0,
			Reason:     "No material found in your deck for this query.",
		}
	}
	if len(documents) < minCoverageDocuments {
		return &domain.CoverageReport{
			Sufficient: false,
			Confidence: 0.2,
			Reason:     "Only a fragment of material matches this query.",
		}
	}

	confidence := c.keywordWeight*keywordRatio(query, documents) + c.semanticWeight*topScoreMean(scores)

	switch {
	case confidence >= c.sufficientThreshold:
		return &domain.CoverageReport{
			Sufficient: true,
			Confidence: confidence,
			Reason:     "Your material covers this query.",
		}
	case confidence >= c.partialThreshold:
		return &domain.CoverageReport{
			Sufficient: true,
			Partial:    true,
			Confidence: confidence,
			Reason:     "Your material partially covers this query.",
		}
	default:
		return &domain.CoverageReport{
			Sufficient: false,
			Confidence: confidence,
			Reason:     "Your material does not sufficiently cover this query.",
		}
	}
}

// Warning renders the presentational confidence ladder. It never affects the
// sufficiency decision.
func (c *CoverageChecker) Warning(confidence float64) string {
	switch {
	case confidence >= 0.7:
		return ""
	case confidence >= 0.5:
		return "Some details may be missing from your material."
	case confidence >= 0.3:
		return "Your material covers this only partially; verify against your syllabus."
	default:
		return "Your material barely covers this; the answer may be incomplete."
	}
}

// keywordRatio is the fraction of significant query words (longer than 3
// characters) present, case-insensitively, anywhere in the documents.
func keywordRatio(query string, documents []string) float64 {
	joined := strings.ToLower(strings.Join(documents, " "))

	var total, found int
	for _, word := range strings.Fields(strings.ToLower(query)) {
		word = strings.Trim(word, ".,!?;:\"'()")
		if len(word) <= keywordMinLength {
			continue
		}
		total++
		if strings.Contains(joined, word) {
			found++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(found) / float64(total)
}

// topScoreMean averages the highest scores, at most topScoresConsidered of
// them. Scores arrive in retrieval order, which is not sorted, so the best
// ones are selected explicitly.
func topScoreMean(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	top := make([]float64, 0, topScoresConsidered)
	for _, s := range scores {
		if len(top) < topScoresConsidered {
			top = append(top, s)
			continue
		}
		minIdx := 0
		for i := 1; i < len(top); i++ {
			if top[i] < top[minIdx] {
				minIdx = i
			}
		}
		if s > top[minIdx] {
			top[minIdx] = s
		}
	}
	var sum float64
	for _, s := range top {
		sum += s
	}
	return sum / float64(len(top))
}
