package ddg

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/score-labs/score-backend/internal/core/domain"
)

const defaultBaseURL = "https://html.duckduckgo.com/html/"

// DefaultWhitelist lists the educational domains external answers may cite.
func DefaultWhitelist() []string {
	return []string{
		"wikipedia.org",
		"geeksforgeeks.org",
		"tutorialspoint.com",
	}
}

// Searcher scrapes the DuckDuckGo HTML endpoint and keeps only hits from
// whitelisted domains. Results are read-only input for labeled external
// answers and are never persisted.
type Searcher struct {
	baseURL    string
	whitelist  []string
	httpClient *http.Client
}

func New(whitelist []string) *Searcher {
	return NewWithBaseURL(defaultBaseURL, whitelist)
}

func NewWithBaseURL(baseURL string, whitelist []string) *Searcher {
	if len(whitelist) == 0 {
		whitelist = DefaultWhitelist()
	}
	return &Searcher{
		baseURL:    baseURL,
		whitelist:  whitelist,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *Searcher) Search(ctx context.Context, query string, maxResults int) ([]domain.SearchResult, error) {
	if maxResults <= 0 {
		maxResults = 10
	}

	endpoint := s.baseURL + "?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; score-backend/1.0)")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("duckduckgo status: %s", resp.Status)
	}

	hits, err := parseResults(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse search results: %w", err)
	}

	out := make([]domain.SearchResult, 0, maxResults)
	for _, hit := range hits {
		matched := s.matchWhitelist(hit.URL)
		if matched == "" {
			continue
		}
		hit.Domain = matched
		out = append(out, hit)
		if len(out) >= maxResults {
			break
		}
	}
	return out, nil
}

func (s *Searcher) matchWhitelist(rawURL string) string {
	for _, allowed := range s.whitelist {
		if strings.Contains(rawURL, allowed) {
			return allowed
		}
	}
	return ""
}

// parseResults walks the result list markup: each hit carries a
// "result__a" anchor (title + link) and a "result__snippet" node.
func parseResults(r io.Reader) ([]domain.SearchResult, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var results []domain.SearchResult
	var current *domain.SearchResult

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case hasClass(n, "result__a"):
				if current != nil && current.URL != "" {
					results = append(results, *current)
				}
				current = &domain.SearchResult{
					Title: strings.TrimSpace(nodeText(n)),
					URL:   resolveHref(attr(n, "href")),
				}
			case hasClass(n, "result__snippet"):
				if current != nil {
					current.Body = strings.TrimSpace(nodeText(n))
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)

	if current != nil && current.URL != "" {
		results = append(results, *current)
	}
	return results, nil
}

// resolveHref unwraps DuckDuckGo's redirect links (the uddg parameter holds
// the target URL).
func resolveHref(href string) string {
	if href == "" {
		return ""
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := parsed.Query().Get("uddg"); target != "" {
		if decoded, err := url.QueryUnescape(target); err == nil {
			return decoded
		}
		return target
	}
	return href
}

func hasClass(n *html.Node, class string) bool {
	for _, field := range strings.Fields(attr(n, "class")) {
		if field == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return b.String()
}
