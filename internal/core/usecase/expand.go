package usecase

import (
	"context"
	"fmt"

	"github.com/score-labs/score-backend/internal/core/ports"
)

const defaultMaxSubtopics = 5

// TopicExpander broadens retrieval recall by producing related subtopics for
// a query or syllabus topic. Expansions are cached in a topic graph when one
// is wired; graph failures degrade to oracle-only and oracle failures return
// an empty slice. Expansion is never fatal to retrieval.
type TopicExpander struct {
	oracle ports.Oracle
	graph  ports.TopicGraph
}

// NewTopicExpander constructs an expander. graph may be nil.
func NewTopicExpander(oracle ports.Oracle, graph ports.TopicGraph) *TopicExpander {
	return &TopicExpander{
		oracle: oracle,
		graph:  graph,
	}
}

// Expand returns up to max closely related or prerequisite subtopics.
func (e *TopicExpander) Expand(ctx context.Context, topic string, max int) []string {
	if max <= 0 {
		max = defaultMaxSubtopics
	}

	if e.graph != nil {
		if cached, err := e.graph.Expansions(ctx, topic); err == nil && len(cached) > 0 {
			if len(cached) > max {
				cached = cached[:max]
			}
			return cached
		}
	}

	prompt := fmt.Sprintf(`Given this topic, list important subtopics and closely related
or prerequisite concepts.

Topic:
%s

Return as a comma separated list. Do NOT explain.`, topic)

	raw, err := e.oracle.Complete(ctx, prompt)
	if err != nil {
		return nil
	}

	subtopics := parseCommaList(raw, max)
	if e.graph != nil && len(subtopics) > 0 {
		// Best effort; a write failure never surfaces.
		_ = e.graph.SaveExpansion(ctx, topic, subtopics)
	}
	return subtopics
}
