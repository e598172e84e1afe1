package pinecone

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const controlPlaneURL = "https://api.pinecone.io"

// resolveIndexHost asks the control plane for the index's data-plane host.
// Deployments that already know the host (or tests) set it directly and
// skip this call.
func resolveIndexHost(ctx context.Context, baseURL, apiKey, indexName string) (string, error) {
	url := fmt.Sprintf("%s/indexes/%s", strings.TrimRight(baseURL, "/"), indexName)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create describe index request: %w", err)
	}
	req.Header.Set("Api-Key", apiKey)

	httpClient := &http.Client{Timeout: 15 * time.Second}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("pinecone describe index request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if msg := strings.TrimSpace(string(body)); msg != "" {
			return "", fmt.Errorf("pinecone describe index status: %s: %s", resp.Status, msg)
		}
		return "", fmt.Errorf("pinecone describe index status: %s", resp.Status)
	}

	var describeResp struct {
		Host string `json:"host"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&describeResp); err != nil {
		return "", fmt.Errorf("decode describe index response: %w", err)
	}
	if describeResp.Host == "" {
		return "", fmt.Errorf("index %s has no host", indexName)
	}

	host := describeResp.Host
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}
	return host, nil
}
