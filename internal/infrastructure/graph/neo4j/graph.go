package neo4j

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Graph caches topic expansions as (:Topic)-[:HAS_SUBTOPIC]->(:Topic) edges.
// The expander reads through this cache before asking the language model;
// callers treat every failure here as a cache miss.
type Graph struct {
	driver neo4j.DriverWithContext
}

func New(uri, username, password string) (*Graph, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	return &Graph{driver: driver}, nil
}

func (g *Graph) Close(ctx context.Context) error {
	return g.driver.Close(ctx)
}

func (g *Graph) Expansions(ctx context.Context, topic string) ([]string, error) {
	result, err := neo4j.ExecuteQuery(ctx, g.driver, `
MATCH (t:Topic {name: $topic})-[:HAS_SUBTOPIC]->(s:Topic)
RETURN s.name AS name
ORDER BY s.name
`,
		map[string]any{"topic": topic},
		neo4j.EagerResultTransformer,
	)
	if err != nil {
		return nil, fmt.Errorf("query expansions: %w", err)
	}

	subtopics := make([]string, 0, len(result.Records))
	for _, record := range result.Records {
		name, ok := record.Get("name")
		if !ok {
			continue
		}
		if s, ok := name.(string); ok && s != "" {
			subtopics = append(subtopics, s)
		}
	}
	return subtopics, nil
}

func (g *Graph) SaveExpansion(ctx context.Context, topic string, subtopics []string) error {
	if len(subtopics) == 0 {
		return nil
	}
	_, err := neo4j.ExecuteQuery(ctx, g.driver, `
MERGE (t:Topic {name: $topic})
WITH t
UNWIND $subtopics AS sub
MERGE (s:Topic {name: sub})
MERGE (t)-[:HAS_SUBTOPIC]->(s)
`,
		map[string]any{"topic": topic, "subtopics": subtopics},
		neo4j.EagerResultTransformer,
	)
	if err != nil {
		return fmt.Errorf("save expansion: %w", err)
	}
	return nil
}
