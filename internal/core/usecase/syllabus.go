package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/score-labs/score-backend/internal/core/domain"
	"github.com/score-labs/score-backend/internal/core/ports"
)

const defaultMinRelevance = 0.3

// TopicMapper parses syllabi into topic lists and filters chunks against
// them. Mapping is the hard ingestion boundary: a chunk that matches no
// topic, or matches below the relevance floor, never reaches the vector
// store.
type TopicMapper struct {
	oracle       ports.Oracle
	minRelevance float64
}

func NewTopicMapper(oracle ports.Oracle, minRelevance float64) *TopicMapper {
	if minRelevance <= 0 {
		minRelevance = defaultMinRelevance
	}
	return &TopicMapper{
		oracle:       oracle,
		minRelevance: minRelevance,
	}
}

// ParseSyllabus decomposes a syllabus into at least 3 concrete topics. A
// terse syllabus (a bare subject name) is expanded into canonical subtopics
// for that subject. Malformed model output falls back to a line split of the
// raw syllabus text.
func (m *TopicMapper) ParseSyllabus(ctx context.Context, syllabus string) []string {
	prompt := fmt.Sprintf(`Decompose this syllabus into a list of concrete study topics.

Syllabus:
%s

Rules:
- Return at least 3 topics.
- If the syllabus is a broad subject name, expand it into its standard subtopics.
- Each topic is a short phrase, not a sentence.

Return ONLY a JSON array of topic strings.`, syllabus)

	raw, err := m.oracle.Complete(ctx, prompt)
	if err != nil {
		return splitLines(syllabus)
	}

	var topics []string
	if err := decodeJSON(raw, &topics); err != nil {
		return splitLines(syllabus)
	}

	var cleaned []string
	for _, t := range topics {
		if t = strings.TrimSpace(t); t != "" {
			cleaned = append(cleaned, t)
		}
	}
	if len(cleaned) < 3 {
		return splitLines(syllabus)
	}
	return cleaned
}

type chunkMapping struct {
	Topics    []string `json:"topics"`
	Relevance float64  `json:"relevance"`
}

// MapChunk matches one chunk against the topic list. Matching is strict: a
// topic counts only when the chunk substantially covers it. Any oracle or
// parse failure degrades to no match; a single bad item never aborts
// ingestion.
func (m *TopicMapper) MapChunk(ctx context.Context, content string, topics []string) ([]string, float64) {
	prompt := fmt.Sprintf(`Syllabus topics:
%s

Text:
%s

Which topics does this text substantially cover? Be strict: a topic matches
only if the text meaningfully explains it, not if it is mentioned in passing.
Ambiguous cases do not match.

Return ONLY a JSON object:
{"topics": ["matched topic", ...], "relevance": 0.0}

relevance is a number in [0,1] for how central the matched topics are to the
text. If nothing matches, return {"topics": [], "relevance": 0.0}.`,
		strings.Join(topics, "\n"), content)

	raw, err := m.oracle.Complete(ctx, prompt)
	if err != nil {
		return nil, 0.0
	}

	var mapping chunkMapping
	if err := decodeJSON(raw, &mapping); err != nil {
		return nil, 0.0
	}
	if mapping.Relevance < 0 {
		mapping.Relevance = 0
	}
	if mapping.Relevance > 1 {
		mapping.Relevance = 1
	}

	var matched []string
	for _, t := range mapping.Topics {
		if t = strings.TrimSpace(t); t != "" {
			matched = append(matched, t)
		}
	}
	return matched, mapping.Relevance
}

// MapToSyllabus filters a chunk batch against the syllabus. A chunk survives
// iff it matched at least one topic and its relevance clears the floor;
// everything else is dropped and counted. Topics may be passed pre-parsed to
// avoid re-parsing per file.
func (m *TopicMapper) MapToSyllabus(
	ctx context.Context,
	chunks []domain.Chunk,
	syllabus string,
	topics []string,
) ([]domain.MappedChunk, int) {
	if len(topics) == 0 {
		topics = m.ParseSyllabus(ctx, syllabus)
	}

	var mapped []domain.MappedChunk
	dropped := 0
	for _, chunk := range chunks {
		matched, relevance := m.MapChunk(ctx, chunk.Content, topics)
		if len(matched) == 0 || relevance < m.minRelevance {
			dropped++
			continue
		}
		mapped = append(mapped, domain.MappedChunk{
			Content:    chunk.Content,
			Topics:     matched,
			Relevance:  relevance,
			SourceFile: chunk.SourceFile,
		})
	}
	return mapped, dropped
}

// AnalyzeTopicCoverage aggregates which syllabus topics the mapped chunks
// touch. Pure bookkeeping, no model call.
func (m *TopicMapper) AnalyzeTopicCoverage(mapped []domain.MappedChunk, topics []string) domain.TopicCoverage {
	perTopic := make(map[string]int, len(topics))
	for _, t := range topics {
		perTopic[t] = 0
	}
	for _, mc := range mapped {
		for _, t := range mc.Topics {
			if _, ok := perTopic[t]; ok {
				perTopic[t]++
			}
		}
	}

	var covered, uncovered []string
	for _, t := range topics {
		if perTopic[t] > 0 {
			covered = append(covered, t)
		} else {
			uncovered = append(uncovered, t)
		}
	}

	ratio := 0.0
	if len(topics) > 0 {
		ratio = float64(len(covered)) / float64(len(topics))
	}

	return domain.TopicCoverage{
		Covered:       covered,
		Uncovered:     uncovered,
		CoverageRatio: ratio,
		PerTopic:      perTopic,
	}
}
