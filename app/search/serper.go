// Package search fetches web results used as assistant context.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"collab-go/app/config"
)

// Result is one organic web result.
type Result struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
}

type Searcher interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

// SerperClient queries the Serper Google search API.
type SerperClient struct {
	endpoint string
	apiKey   string
	results  int
	http     *http.Client
}

func NewSerperClient(cfg config.SearchConfig) *SerperClient {
	return &SerperClient{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		results:  cfg.Results,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

type serperRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num"`
}

type serperResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
		Link    string `json:"link"`
	} `json:"organic"`
}

// Search implements Searcher.
func (c *SerperClient) Search(ctx context.Context, query string) ([]Result, error) {
	body, err := json.Marshal(serperRequest{Q: query, Num: c.results})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("search: build request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search: request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search: status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("search: decode response: %w", err)
	}
	results := make([]Result, 0, len(out.Organic))
	for _, o := range out.Organic {
		results = append(results, Result{Title: o.Title, Snippet: o.Snippet, URL: o.Link})
	}
	if c.results > 0 && len(results) > c.results {
		results = results[:c.results]
	}
	return results, nil
}
