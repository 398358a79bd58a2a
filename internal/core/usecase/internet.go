package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/score-labs/score-backend/internal/core/domain"
	"github.com/score-labs/score-backend/internal/core/ports"
)

const externalSearchResults = 10

// InternetOracle is the temporary external oracle used when local coverage
// falls short or a query leaves syllabus scope. Its output is labeled,
// returned once and thrown away: never stored, never embedded, never mixed
// into deck content.
type InternetOracle struct {
	searcher ports.WebSearcher
	oracle   ports.Oracle
}

func NewInternetOracle(searcher ports.WebSearcher, oracle ports.Oracle) *InternetOracle {
	return &InternetOracle{
		searcher: searcher,
		oracle:   oracle,
	}
}

// Answer searches whitelisted domains and summarizes the hits. Reliability
// requires at least two independent results. Search failure yields an empty
// unreliable answer, not an error.
func (o *InternetOracle) Answer(ctx context.Context, query string) *domain.ExternalAnswer {
	results, err := o.searcher.Search(ctx, query, externalSearchResults)
	if err != nil || len(results) == 0 {
		return &domain.ExternalAnswer{
			Content:  "No reliable external information found for this topic.",
			Reliable: false,
		}
	}

	return &domain.ExternalAnswer{
		Content:  o.summarize(ctx, query, results),
		Sources:  sourceDomains(results),
		Reliable: len(results) >= 2,
	}
}

func (o *InternetOracle) summarize(ctx context.Context, query string, results []domain.SearchResult) string {
	var snippets []string
	for _, r := range results {
		snippets = append(snippets, fmt.Sprintf("Source: %s\n%s", r.Domain, r.Body))
	}

	prompt := fmt.Sprintf(`Summarize this information clearly and concisely.

User's question: %s

Search results:
%s

Rules:
1. Only summarize what is present in the results
2. Do NOT add any external knowledge
3. Be concise and educational
4. Focus on answering the user's question
5. Keep it brief, this is supplementary information`,
		query, strings.Join(snippets, "\n\n"))

	summary, err := o.oracle.Complete(ctx, prompt)
	if err != nil {
		// Raw snippets beat no answer.
		limit := 3
		if len(results) < limit {
			limit = len(results)
		}
		var bodies []string
		for _, r := range results[:limit] {
			bodies = append(bodies, r.Body)
		}
		return strings.Join(bodies, "\n")
	}
	return summary
}

func sourceDomains(results []domain.SearchResult) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range results {
		if _, dup := seen[r.Domain]; dup {
			continue
		}
		seen[r.Domain] = struct{}{}
		out = append(out, r.Domain)
	}
	sort.Strings(out)
	return out
}

// FormatExternalAnswer renders the mandatory labeling around externally
// sourced content.
func FormatExternalAnswer(answer *domain.ExternalAnswer) string {
	var b strings.Builder
	b.WriteString("[Internet Enhanced]\n")
	b.WriteString("This information is from external sources and is NOT stored.\n\n")
	b.WriteString(answer.Content)
	if len(answer.Sources) > 0 {
		b.WriteString("\n\nSources: ")
		b.WriteString(strings.Join(answer.Sources, ", "))
	}
	return b.String()
}
