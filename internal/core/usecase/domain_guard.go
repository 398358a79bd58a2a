package usecase

import (
	"context"
	"fmt"

	"github.com/score-labs/score-backend/internal/core/domain"
	"github.com/score-labs/score-backend/internal/core/ports"
)

const (
	// DefaultDomainThreshold is the whole-syllabus similarity floor.
	DefaultDomainThreshold = 0.30
	// DefaultTopicThreshold is the per-topic floor. A single topic is a
	// narrower comparison than the whole syllabus, so it demands higher
	// confidence before it alone pulls a query in scope.
	DefaultTopicThreshold = 0.40
)

// DomainGuard decides whether a query is inside a deck's syllabus scope.
// Broad syllabus similarity alone under-detects narrow topic hits and topic
// similarity alone over-triggers on short syllabi, so the verdict is an OR
// of both signals with differentiated thresholds.
type DomainGuard struct {
	embedder        ports.Embedder
	domainThreshold float64
	topicThreshold  float64
}

// NewDomainGuard constructs a guard. Threshold arguments at or below zero
// select the defaults; both are deployment policy, not algorithmic truth.
func NewDomainGuard(embedder ports.Embedder, domainThreshold, topicThreshold float64) *DomainGuard {
	if domainThreshold <= 0 {
		domainThreshold = DefaultDomainThreshold
	}
	if topicThreshold <= 0 {
		topicThreshold = DefaultTopicThreshold
	}
	return &DomainGuard{
		embedder:        embedder,
		domainThreshold: domainThreshold,
		topicThreshold:  topicThreshold,
	}
}

// Check compares the query embedding against the whole syllabus and, when
// topics are supplied, against each topic individually. Reported similarity
// is the stronger of the two signals.
func (g *DomainGuard) Check(ctx context.Context, query, syllabus string, topics []string) (*domain.DomainCheck, error) {
	queryVec, err := g.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	syllabusVec, err := g.embedder.EmbedQuery(ctx, syllabus)
	if err != nil {
		return nil, fmt.Errorf("embed syllabus: %w", err)
	}

	syllabusSim := cosine(queryVec, syllabusVec)

	bestTopicSim := 0.0
	bestTopic := ""
	if len(topics) > 0 {
		topicVecs, err := g.embedder.Embed(ctx, topics)
		if err != nil {
			return nil, fmt.Errorf("embed topics: %w", err)
		}
		for i, vec := range topicVecs {
			if sim := cosine(queryVec, vec); sim > bestTopicSim {
				bestTopicSim = sim
				bestTopic = topics[i]
			}
		}
	}

	inScope := syllabusSim >= g.domainThreshold || bestTopicSim >= g.topicThreshold
	reported := syllabusSim
	if bestTopicSim > reported {
		reported = bestTopicSim
	}

	check := &domain.DomainCheck{
		InScope:    inScope,
		Similarity: reported,
	}
	if inScope {
		check.Explanation = "Query is within syllabus scope."
		if bestTopic != "" {
			check.Explanation += fmt.Sprintf(" Most relevant topic: %s", bestTopic)
		}
	} else {
		check.Explanation = "This topic is not in the scope of your current syllabus."
	}
	return check, nil
}

// cosine reduces to a dot product because embeddings are L2-normalized by
// provider convention.
func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
