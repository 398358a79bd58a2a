package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/score-labs/score-backend/internal/core/domain"
)

const payloadTextKey = "text"

// Client stores embeddings in Qdrant, one collection per (user, deck)
// namespace. Isolation comes from the collection name itself so a query can
// never see another deck's points.
type Client struct {
	baseURL    string
	httpClient *http.Client

	ensureMu sync.Mutex
	ensured  map[string]int
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		ensured:    make(map[string]int),
	}
}

// collectionName derives the namespace collection from short id prefixes,
// mirroring how decks are provisioned.
func collectionName(ns domain.Namespace) string {
	return fmt.Sprintf("deck_%s_%s", idPrefix(ns.UserID), idPrefix(ns.DeckID))
}

func idPrefix(id string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return -1
		}
	}, id)
	if len(cleaned) > 8 {
		cleaned = cleaned[:8]
	}
	if cleaned == "" {
		cleaned = "anon"
	}
	return strings.ToLower(cleaned)
}

func (c *Client) Upsert(
	ctx context.Context,
	ns domain.Namespace,
	documents []string,
	vectors [][]float32,
	metadata []map[string]string,
) error {
	if len(documents) == 0 || len(vectors) == 0 {
		return nil
	}
	if len(documents) != len(vectors) {
		return fmt.Errorf("documents/vectors mismatch")
	}

	collection := collectionName(ns)
	if err := c.ensureCollection(ctx, collection, len(vectors[0])); err != nil {
		return err
	}

	type point struct {
		ID      string         `json:"id"`
		Vector  []float32      `json:"vector"`
		Payload map[string]any `json:"payload"`
	}

	points := make([]point, 0, len(documents))
	for i := range documents {
		payload := map[string]any{payloadTextKey: documents[i]}
		if i < len(metadata) {
			for k, v := range metadata[i] {
				payload[k] = v
			}
		}
		points = append(points, point{
			ID:      uuid.NewString(),
			Vector:  vectors[i],
			Payload: payload,
		})
	}

	path := fmt.Sprintf("/collections/%s/points?wait=true", collection)
	return c.do(ctx, http.MethodPut, path, map[string]any{"points": points}, nil, "upsert")
}

// Query returns nearest points with distance = 1 - cosine score. A missing
// collection means an empty deck, not an error.
func (c *Client) Query(
	ctx context.Context,
	ns domain.Namespace,
	vector []float32,
	limit int,
) ([]domain.RetrievedDocument, error) {
	reqBody := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}

	var searchResp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}

	path := fmt.Sprintf("/collections/%s/points/search", collectionName(ns))
	err := c.do(ctx, http.MethodPost, path, reqBody, &searchResp, "search")
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	out := make([]domain.RetrievedDocument, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		meta := make(map[string]string, len(r.Payload))
		for k, v := range r.Payload {
			if k == payloadTextKey {
				continue
			}
			if s, ok := v.(string); ok {
				meta[k] = s
			}
		}
		out = append(out, domain.RetrievedDocument{
			Content:  getStringPayload(r.Payload, payloadTextKey),
			Distance: 1 - r.Score,
			Metadata: meta,
		})
	}
	return out, nil
}

func (c *Client) Count(ctx context.Context, ns domain.Namespace) (int, error) {
	var countResp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}

	path := fmt.Sprintf("/collections/%s/points/count", collectionName(ns))
	err := c.do(ctx, http.MethodPost, path, map[string]any{"exact": true}, &countResp, "count")
	if isNotFound(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return countResp.Result.Count, nil
}

func (c *Client) DeleteNamespace(ctx context.Context, ns domain.Namespace) error {
	collection := collectionName(ns)
	err := c.do(ctx, http.MethodDelete, "/collections/"+collection, nil, nil, "delete collection")
	if isNotFound(err) {
		err = nil
	}
	if err != nil {
		return err
	}

	c.ensureMu.Lock()
	delete(c.ensured, collection)
	c.ensureMu.Unlock()
	return nil
}

func (c *Client) ensureCollection(ctx context.Context, collection string, vectorSize int) error {
	c.ensureMu.Lock()
	if size, ok := c.ensured[collection]; ok && size == vectorSize {
		c.ensureMu.Unlock()
		return nil
	}
	c.ensureMu.Unlock()

	reqBody := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	}

	err := c.do(ctx, http.MethodPut, "/collections/"+collection, reqBody, nil, "ensure collection")
	// 409 means the collection already exists.
	var statusErr *statusError
	if err != nil {
		if !asStatusError(err, &statusErr) || statusErr.code != http.StatusConflict {
			return err
		}
	}

	c.ensureMu.Lock()
	c.ensured[collection] = vectorSize
	c.ensureMu.Unlock()
	return nil
}

type statusError struct {
	operation string
	code      int
	status    string
	body      string
}

func (e *statusError) Error() string {
	if strings.TrimSpace(e.body) == "" {
		return fmt.Sprintf("qdrant %s status: %s", e.operation, e.status)
	}
	return fmt.Sprintf("qdrant %s status: %s: %s", e.operation, e.status, strings.TrimSpace(e.body))
}

func asStatusError(err error, target **statusError) bool {
	se, ok := err.(*statusError)
	if ok {
		*target = se
	}
	return ok
}

func isNotFound(err error) bool {
	var se *statusError
	return asStatusError(err, &se) && se.code == http.StatusNotFound
}

func (c *Client) do(ctx context.Context, method, path string, payload any, out any, operation string) error {
	var reader io.Reader
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s body: %w", operation, err)
		}
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &statusError{
			operation: operation,
			code:      resp.StatusCode,
			status:    resp.Status,
			body:      string(body),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
