package pinecone

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/chipfilings/assistant/internal/core/domain"
	"github.com/chipfilings/assistant/internal/infrastructure/resilience"
)

// Client talks to a Pinecone serverless index over its data-plane REST API.
// The control plane is only used for host discovery, and only when the host
// was not configured directly; discovery happens on the first data-plane
// call, so constructing a Client makes no network requests.
type Client struct {
	apiKey     string
	indexName  string
	controlURL string
	httpClient *http.Client
	executor   *resilience.Executor

	hostMu sync.Mutex
	host   string

	dimMu     sync.Mutex
	cachedDim int
}

// New builds a client for a known data-plane host.
func New(host, apiKey string, executor *resilience.Executor) *Client {
	return &Client{
		host:       strings.TrimRight(host, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		executor:   executor,
	}
}

// NewWithIndex builds a client that resolves the index host from the
// control plane lazily on the first data-plane call.
func NewWithIndex(apiKey, indexName string, executor *resilience.Executor) *Client {
	return &Client{
		apiKey:     apiKey,
		indexName:  indexName,
		controlURL: controlPlaneURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		executor:   executor,
	}
}

type queryMatch struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata"`
}

type queryResponse struct {
	Matches []queryMatch `json:"matches"`
}

func (c *Client) Search(
	ctx context.Context,
	queryVector []float32,
	limit int,
	filter domain.SearchFilter,
) ([]domain.RetrievedChunk, error) {
	reqBody := map[string]any{
		"vector":          queryVector,
		"topK":            limit,
		"includeMetadata": true,
		"includeValues":   false,
	}
	if f := filterPayload(filter); f != nil {
		reqBody["filter"] = f
	}

	var queryResp queryResponse
	if err := c.call(ctx, "pinecone.query", "/query", reqBody, &queryResp); err != nil {
		return nil, err
	}

	out := make([]domain.RetrievedChunk, 0, len(queryResp.Matches))
	for _, m := range queryResp.Matches {
		out = append(out, domain.RetrievedChunk{
			ID:         m.ID,
			SourceFile: domain.MetadataString(m.Metadata, "source_file"),
			Text:       domain.MetadataString(m.Metadata, "text"),
			Score:      m.Score,
			PageNumber: domain.MetadataInt(m.Metadata, "page_number"),
			Section:    domain.MetadataString(m.Metadata, "hierarchical_section"),
		})
	}
	return out, nil
}

// FetchByFilter reads records by metadata filter alone. Pinecone has no
// scan endpoint, so this queries with a zero vector of the index dimension
// and a high topK, the standard bulk-read workaround.
func (c *Client) FetchByFilter(ctx context.Context, filter domain.SearchFilter, limit int) ([]domain.VectorRecord, error) {
	dim, err := c.dimension(ctx)
	if err != nil {
		return nil, err
	}

	reqBody := map[string]any{
		"vector":          make([]float32, dim),
		"topK":            limit,
		"includeMetadata": true,
		"includeValues":   false,
	}
	if f := filterPayload(filter); f != nil {
		reqBody["filter"] = f
	}

	var queryResp queryResponse
	if err := c.call(ctx, "pinecone.fetch", "/query", reqBody, &queryResp); err != nil {
		return nil, err
	}

	out := make([]domain.VectorRecord, 0, len(queryResp.Matches))
	for _, m := range queryResp.Matches {
		out = append(out, domain.VectorRecord{
			ID:       m.ID,
			Score:    m.Score,
			Metadata: m.Metadata,
		})
	}
	return out, nil
}

func (c *Client) UpdateMetadata(ctx context.Context, id string, update domain.MetadataUpdate) error {
	if id == "" {
		return fmt.Errorf("record id is required")
	}
	reqBody := map[string]any{
		"id":          id,
		"setMetadata": update,
	}
	var updateResp struct{}
	return c.call(ctx, "pinecone.update", "/vectors/update", reqBody, &updateResp)
}

func (c *Client) DeleteByFilter(ctx context.Context, filter domain.SearchFilter) error {
	f := filterPayload(filter)
	if f == nil {
		return fmt.Errorf("refusing to delete without a filter")
	}
	reqBody := map[string]any{"filter": f}
	var deleteResp struct{}
	return c.call(ctx, "pinecone.delete", "/vectors/delete", reqBody, &deleteResp)
}

// DeleteAll wipes every record in the index.
func (c *Client) DeleteAll(ctx context.Context) error {
	reqBody := map[string]any{"deleteAll": true}
	var deleteResp struct{}
	return c.call(ctx, "pinecone.delete_all", "/vectors/delete", reqBody, &deleteResp)
}

func (c *Client) Stats(ctx context.Context) (domain.IndexStats, error) {
	var statsResp struct {
		Dimension        int `json:"dimension"`
		TotalVectorCount int `json:"totalVectorCount"`
	}
	if err := c.call(ctx, "pinecone.stats", "/describe_index_stats", map[string]any{}, &statsResp); err != nil {
		return domain.IndexStats{}, err
	}

	c.dimMu.Lock()
	c.cachedDim = statsResp.Dimension
	c.dimMu.Unlock()

	return domain.IndexStats{
		Dimension:        statsResp.Dimension,
		TotalVectorCount: statsResp.TotalVectorCount,
	}, nil
}

func (c *Client) dimension(ctx context.Context) (int, error) {
	c.dimMu.Lock()
	dim := c.cachedDim
	c.dimMu.Unlock()
	if dim > 0 {
		return dim, nil
	}

	stats, err := c.Stats(ctx)
	if err != nil {
		return 0, fmt.Errorf("resolve index dimension: %w", err)
	}
	if stats.Dimension <= 0 {
		return 0, fmt.Errorf("index reports dimension %d", stats.Dimension)
	}
	return stats.Dimension, nil
}

func (c *Client) ensureHost(ctx context.Context) (string, error) {
	c.hostMu.Lock()
	defer c.hostMu.Unlock()
	if c.host != "" {
		return c.host, nil
	}
	resolved, err := resolveIndexHost(ctx, c.controlURL, c.apiKey, c.indexName)
	if err != nil {
		return "", fmt.Errorf("resolve pinecone index host: %w", err)
	}
	c.host = strings.TrimRight(resolved, "/")
	return c.host, nil
}

func (c *Client) call(ctx context.Context, operation, path string, payload, out any) error {
	host, err := c.ensureHost(ctx)
	if err != nil {
		return wrapTemporaryIfNeeded(operation, err)
	}
	fn := func(callCtx context.Context) error {
		return c.postJSON(callCtx, host, path, payload, out, operation)
	}

	if c.executor != nil {
		err = c.executor.Execute(ctx, operation, fn, classifyPineconeError)
	} else {
		err = fn(ctx)
	}
	return wrapTemporaryIfNeeded(operation, err)
}

func filterPayload(filter domain.SearchFilter) map[string]any {
	if filter.SourceFile == "" {
		return nil
	}
	return map[string]any{
		"source_file": map[string]any{"$eq": filter.SourceFile},
	}
}
