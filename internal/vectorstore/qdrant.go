package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/answerdesk/answerdesk/internal/config"
)

// Payload is the per-point document stored alongside each vector.
// Media URLs travel as plain string lists; origin is recovered from the
// URL namespace on the way out.
type Payload struct {
	Text      string   `json:"text"`
	Source    string   `json:"source"`
	SourceDoc string   `json:"source_doc"`
	ImageURLs []string `json:"image_urls"`
	VideoURLs []string `json:"video_urls"`
}

type Point struct {
	ID      string
	Vector  []float32
	Payload Payload
}

type ScoredPayload struct {
	Payload Payload
	Score   float64
}

// Client is a minimal REST client to Qdrant. It assumes cosine distance
// and creates the collection (plus a full-text index on the text field)
// if missing.
type Client struct {
	url        string
	apiKey     string
	collection string
	dim        int
	client     *http.Client
}

func NewClient(cfg config.QdrantConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		dim:        cfg.VectorDim,
		client:     &http.Client{Timeout: timeout},
	}
}

func (c *Client) EnsureCollection(ctx context.Context) error {
	if c.dim <= 0 {
		return fmt.Errorf("invalid vector dimension: %d", c.dim)
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     c.dim,
			"distance": "Cosine",
		},
	}
	// Qdrant returns 409 when the collection already exists; treat that
	// as success so startup is idempotent.
	if err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/collections/%s", c.collection), body, nil, http.StatusConflict); err != nil {
		return err
	}
	index := map[string]any{
		"field_name":   "text",
		"field_schema": "text",
	}
	return c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/collections/%s/index?wait=true", c.collection), index, nil, http.StatusConflict)
}

func (c *Client) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	items := make([]map[string]any, 0, len(points))
	for _, p := range points {
		items = append(items, map[string]any{
			"id":      p.ID,
			"vector":  p.Vector,
			"payload": p.Payload,
		})
	}
	body := map[string]any{"points": items}
	return c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/collections/%s/points?wait=true", c.collection), body, nil)
}

// SemanticSearch runs embedding-similarity search and returns payloads
// with their cosine scores, best first.
func (c *Client) SemanticSearch(ctx context.Context, vector []float32, k int) ([]ScoredPayload, error) {
	if k <= 0 {
		k = 5
	}
	body := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Score   float64 `json:"score"`
			Payload Payload `json:"payload"`
		} `json:"result"`
	}
	if err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/search", c.collection), body, &resp); err != nil {
		return nil, err
	}
	results := make([]ScoredPayload, 0, len(resp.Result))
	for _, r := range resp.Result {
		results = append(results, ScoredPayload{Payload: r.Payload, Score: r.Score})
	}
	return results, nil
}

// LexicalSearch scrolls points whose text field matches the query terms.
// Qdrant's scroll API carries no relevance score; callers derive one.
func (c *Client) LexicalSearch(ctx context.Context, query string, k int) ([]Payload, error) {
	if k <= 0 {
		k = 5
	}
	body := map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{
				{"key": "text", "match": map[string]any{"text": query}},
			},
		},
		"limit":        k,
		"with_payload": true,
	}
	var resp struct {
		Result struct {
			Points []struct {
				Payload Payload `json:"payload"`
			} `json:"points"`
		} `json:"result"`
	}
	if err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/scroll", c.collection), body, &resp); err != nil {
		return nil, err
	}
	results := make([]Payload, 0, len(resp.Result.Points))
	for _, p := range resp.Result.Points {
		results = append(results, p.Payload)
	}
	return results, nil
}

// Drop deletes the collection. Re-seeding after a drop is the documented
// way to de-duplicate the knowledge base.
func (c *Client) Drop(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/collections/%s", c.collection), nil, nil, http.StatusNotFound)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any, okStatus ...int) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.url+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		for _, status := range okStatus {
			if resp.StatusCode == status {
				return nil
			}
		}
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("qdrant %s %s failed: %s: %s", method, path, resp.Status, strings.TrimSpace(string(payload)))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
