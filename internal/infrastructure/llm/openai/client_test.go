package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openai/openai-go/v2/option"

	"github.com/chipfilings/assistant/internal/core/domain"
)

func newTestClient(serverURL string) *Client {
	return New("test-key", "gpt-4o-mini", "text-embedding-3-small", nil,
		option.WithBaseURL(serverURL),
		option.WithMaxRetries(0),
	)
}

func TestGeneratorBuildsFilingContextPrompt(t *testing.T) {
	var capturedBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&capturedBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"the answer"}}]}`))
	}))
	defer server.Close()

	gen := NewGenerator(newTestClient(server.URL))
	answer, err := gen.GenerateAnswer(context.Background(), "what was revenue?", []domain.RetrievedChunk{
		{SourceFile: "nvidia_10k.pdf", Text: "Revenue was $60.9 billion.", PageNumber: 32, Section: "Item 7 (MD&A)", Score: 0.91},
	})
	if err != nil {
		t.Fatalf("GenerateAnswer() error = %v", err)
	}
	if answer != "the answer" {
		t.Fatalf("unexpected answer %q", answer)
	}

	messages, _ := capturedBody["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("expected system+user messages, got %d", len(messages))
	}
	user, _ := messages[1].(map[string]any)
	content, _ := user["content"].(string)
	if !strings.Contains(content, "what was revenue?") || !strings.Contains(content, "Revenue was $60.9 billion.") {
		t.Fatalf("unexpected prompt: %s", content)
	}
	if !strings.Contains(content, `source_file="nvidia_10k.pdf"`) {
		t.Fatalf("expected document attributes in prompt: %s", content)
	}
}

func TestGenerateJSONFromPromptSetsJSONMode(t *testing.T) {
	var capturedBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&capturedBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"noise {\"type\":\"final\"} trailing"}}]}`))
	}))
	defer server.Close()

	gen := NewGenerator(newTestClient(server.URL))
	out, err := gen.GenerateJSONFromPrompt(context.Background(), "plan")
	if err != nil {
		t.Fatalf("GenerateJSONFromPrompt() error = %v", err)
	}
	if out != `{"type":"final"}` {
		t.Fatalf("expected extracted JSON object, got %q", out)
	}

	format, _ := capturedBody["response_format"].(map[string]any)
	if format["type"] != "json_object" {
		t.Fatalf("expected json_object response format, got %v", capturedBody["response_format"])
	}
}

func TestEmbedConvertsVectorsAndChecksCount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/embeddings") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[0.25,-0.5]}],"model":"text-embedding-3-small"}`))
	}))
	defer server.Close()

	embedder := NewEmbedder(newTestClient(server.URL))
	vec, err := embedder.EmbedQuery(context.Background(), "hello")
	if err != nil {
		t.Fatalf("EmbedQuery() error = %v", err)
	}
	if len(vec) != 2 || vec[0] != 0.25 || vec[1] != -0.5 {
		t.Fatalf("unexpected vector %v", vec)
	}

	if _, err := embedder.Embed(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatalf("expected count mismatch error")
	}
}

func TestServerOverloadIsTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded"}}`))
	}))
	defer server.Close()

	gen := NewGenerator(newTestClient(server.URL))
	_, err := gen.GenerateFromPrompt(context.Background(), "p")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error, got %v", err)
	}
}
