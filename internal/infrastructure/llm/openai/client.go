package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/chipfilings/assistant/internal/core/domain"
	"github.com/chipfilings/assistant/internal/infrastructure/resilience"
)

type Client struct {
	api        openai.Client
	genModel   string
	embedModel string
	executor   *resilience.Executor
}

func New(apiKey, genModel, embedModel string, executor *resilience.Executor, opts ...option.RequestOption) *Client {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Client{
		api:        openai.NewClient(opts...),
		genModel:   genModel,
		embedModel: embedModel,
		executor:   executor,
	}
}

type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var resp *openai.CreateEmbeddingResponse
	err := e.client.call(ctx, "openai.embed", func(callCtx context.Context) error {
		var callErr error
		resp, callErr = e.client.api.Embeddings.New(callCtx, openai.EmbeddingNewParams{
			Model: e.client.embedModel,
			Input: openai.EmbeddingNewParamsInputUnion{
				OfArrayOfStrings: texts,
			},
		})
		return callErr
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: sent %d, got %d", len(texts), len(resp.Data))
	}

	out := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vec := make([]float32, len(d.Embedding))
		for j, v := range d.Embedding {
			vec[j] = float32(v)
		}
		out[i] = vec
	}
	return out, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}

type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

func (g *Generator) GenerateAnswer(ctx context.Context, question string, chunks []domain.RetrievedChunk) (string, error) {
	return g.client.complete(ctx, "openai.answer", []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(answerSystemPrompt),
		openai.UserMessage(buildAnswerPrompt(question, chunks)),
	}, false)
}

func (g *Generator) GenerateFromPrompt(ctx context.Context, prompt string) (string, error) {
	return g.client.complete(ctx, "openai.generate", []openai.ChatCompletionMessageParamUnion{
		openai.UserMessage(prompt),
	}, false)
}

func (g *Generator) GenerateJSONFromPrompt(ctx context.Context, prompt string) (string, error) {
	out, err := g.client.complete(ctx, "openai.generate_json", []openai.ChatCompletionMessageParamUnion{
		openai.UserMessage(prompt),
	}, true)
	if err != nil {
		return "", err
	}
	return extractJSONObject(out), nil
}

func (c *Client) complete(ctx context.Context, operation string, messages []openai.ChatCompletionMessageParamUnion, jsonMode bool) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:    c.genModel,
		Messages: messages,
	}
	if jsonMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		}
	}

	var resp *openai.ChatCompletion
	err := c.call(ctx, operation, func(callCtx context.Context) error {
		var callErr error
		resp, callErr = c.api.Chat.Completions.New(callCtx, params)
		return callErr
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: empty completion", operation)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *Client) call(ctx context.Context, operation string, fn func(context.Context) error) error {
	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, operation, fn, classifyOpenAIError)
	} else {
		err = fn(ctx)
	}
	return wrapTemporaryIfNeeded(operation, err)
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
