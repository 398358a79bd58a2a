package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/score-labs/score-backend/internal/core/domain"
	"github.com/score-labs/score-backend/internal/core/ports"
)

const (
	maxExpansionQueries = 3
	expansionTopK       = 3
	topicRetrieveCount  = 8
	topicContextLimit   = 12
)

// Retriever runs hierarchical retrieval: a pace-sized primary query plus a
// bounded fan-out of expanded-subtopic queries, merged with first-seen
// deduplication. Raw store distances are converted to 1/(1+d) similarity so
// downstream scoring always sees a value in (0,1].
type Retriever struct {
	embedder ports.Embedder
	vectors  ports.VectorStore
	expander *TopicExpander
	profiles map[domain.Pace]domain.PaceProfile
}

func NewRetriever(
	embedder ports.Embedder,
	vectors ports.VectorStore,
	expander *TopicExpander,
	profiles map[domain.Pace]domain.PaceProfile,
) *Retriever {
	if profiles == nil {
		profiles = domain.DefaultPaceProfiles()
	}
	return &Retriever{
		embedder: embedder,
		vectors:  vectors,
		expander: expander,
		profiles: profiles,
	}
}

func (r *Retriever) depth(pace domain.Pace) int {
	if profile, ok := r.profiles[domain.NormalizePace(string(pace))]; ok {
		return profile.RetrievalDepth
	}
	return domain.DefaultPaceProfiles()[domain.PaceMedium].RetrievalDepth
}

// Retrieve answers one query against a deck's vector space. Subtopic results
// are strictly supplementary: they are appended after primary results and a
// document already seen is never added again, so order reflects primary rank
// first, then per-subtopic rank in expansion order.
func (r *Retriever) Retrieve(
	ctx context.Context,
	userID, deckID, query string,
	pace domain.Pace,
	expand bool,
) (*domain.RetrievalResult, error) {
	ns := domain.Namespace{UserID: userID, DeckID: deckID}

	queryVec, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	primary, err := r.vectors.Query(ctx, ns, queryVec, r.depth(pace))
	if err != nil {
		return nil, fmt.Errorf("query vector store: %w", err)
	}

	result := &domain.RetrievalResult{TopicsSearched: []string{query}}
	seen := make(map[string]struct{})
	appendDocs := func(docs []domain.RetrievedDocument) {
		for _, doc := range docs {
			if _, dup := seen[doc.Content]; dup {
				continue
			}
			seen[doc.Content] = struct{}{}
			result.Documents = append(result.Documents, doc.Content)
			result.Scores = append(result.Scores, similarity(doc.Distance))
		}
	}
	appendDocs(primary)

	if expand && r.expander != nil {
		subtopics := r.expander.Expand(ctx, query, defaultMaxSubtopics)
		if len(subtopics) > maxExpansionQueries {
			subtopics = subtopics[:maxExpansionQueries]
		}
		for _, sub := range subtopics {
			subVec, err := r.embedder.EmbedQuery(ctx, sub)
			if err != nil {
				// One subtopic failing must not sink the primary results.
				continue
			}
			docs, err := r.vectors.Query(ctx, ns, subVec, expansionTopK)
			if err != nil {
				continue
			}
			result.TopicsSearched = append(result.TopicsSearched, sub)
			appendDocs(docs)
		}
	}

	result.TotalFound = len(result.Documents)
	return result, nil
}

// RetrieveForTopic collects lesson context for one syllabus topic: the same
// expansion pattern as Retrieve, but concatenated text bounded to a fixed
// chunk budget instead of scored results.
func (r *Retriever) RetrieveForTopic(ctx context.Context, userID, deckID, topic string, n int) (string, error) {
	if n <= 0 {
		n = topicRetrieveCount
	}
	ns := domain.Namespace{UserID: userID, DeckID: deckID}

	topicVec, err := r.embedder.EmbedQuery(ctx, topic)
	if err != nil {
		return "", fmt.Errorf("embed topic: %w", err)
	}

	primary, err := r.vectors.Query(ctx, ns, topicVec, n)
	if err != nil {
		return "", fmt.Errorf("query vector store: %w", err)
	}

	var parts []string
	seen := make(map[string]struct{})
	add := func(docs []domain.RetrievedDocument) {
		for _, doc := range docs {
			if len(parts) >= topicContextLimit {
				return
			}
			if _, dup := seen[doc.Content]; dup {
				continue
			}
			seen[doc.Content] = struct{}{}
			parts = append(parts, doc.Content)
		}
	}
	add(primary)

	if r.expander != nil && len(parts) < topicContextLimit {
		subtopics := r.expander.Expand(ctx, topic, defaultMaxSubtopics)
		if len(subtopics) > maxExpansionQueries {
			subtopics = subtopics[:maxExpansionQueries]
		}
		for _, sub := range subtopics {
			if len(parts) >= topicContextLimit {
				break
			}
			subVec, err := r.embedder.EmbedQuery(ctx, sub)
			if err != nil {
				continue
			}
			docs, err := r.vectors.Query(ctx, ns, subVec, expansionTopK)
			if err != nil {
				continue
			}
			add(docs)
		}
	}

	return strings.Join(parts, "\n\n"), nil
}

// similarity converts a store distance to a bounded score, monotonically
// decreasing in distance and always in (0,1].
func similarity(distance float64) float64 {
	if distance < 0 {
		distance = 0
	}
	return 1 / (1 + distance)
}
