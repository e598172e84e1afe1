package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/chipfilings/assistant/internal/core/domain"
	"github.com/chipfilings/assistant/internal/infrastructure/resilience"
)

const defaultBaseURL = "https://api.tavily.com"

// Client wraps the Tavily search API for time-sensitive questions the
// filings cannot answer.
type Client struct {
	baseURL    string
	apiKey     string
	maxResults int
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(apiKey string, executor *resilience.Executor) *Client {
	return NewWithBaseURL(defaultBaseURL, apiKey, executor)
}

func NewWithBaseURL(baseURL, apiKey string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		maxResults: 5,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		executor:   executor,
	}
}

func (c *Client) Search(ctx context.Context, query string) (*domain.WebSearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "web search", fmt.Errorf("query is required"))
	}

	reqBody := map[string]any{
		"api_key":        c.apiKey,
		"query":          query,
		"max_results":    c.maxResults,
		"search_depth":   "advanced",
		"include_answer": true,
	}

	var searchResp struct {
		Answer  string `json:"answer"`
		Results []struct {
			Title   string  `json:"title"`
			URL     string  `json:"url"`
			Content string  `json:"content"`
			Score   float64 `json:"score"`
		} `json:"results"`
	}

	fn := func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/search", reqBody, &searchResp)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "tavily.search", fn, classifyTavilyError)
	} else {
		err = fn(ctx)
	}
	if err = wrapTemporaryIfNeeded("tavily.search", err); err != nil {
		return nil, err
	}

	out := &domain.WebSearchResponse{
		Answer:  searchResp.Answer,
		Results: make([]domain.WebResult, 0, len(searchResp.Results)),
	}
	for _, r := range searchResp.Results {
		out.Results = append(out.Results, domain.WebResult{
			Title:   r.Title,
			URL:     r.URL,
			Content: r.Content,
			Score:   r.Score,
		})
	}
	return out, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tavily search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &HTTPStatusError{
			Operation:  "search",
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(respBody)),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode search response: %w", err)
	}
	return nil
}
