// Package embedding adapts embedding providers behind port.Embedder.
package embedding

import (
	"context"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// Known model dimensions; an explicit dimension in the config overrides this.
var modelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
	"nomic-embed-text":       768,
	"mxbai-embed-large":      1024,
	"all-minilm":             384,
}

// OpenAIEmbedder calls an OpenAI-compatible embeddings endpoint. A custom
// base URL covers self-hosted servers (Ollama and friends) that speak the
// same protocol.
type OpenAIEmbedder struct {
	client    *openai.Client
	model     string
	dimension int
	batchSize int
}

// NewOpenAIEmbedder builds an embedder from config values. The API key is
// read from apiKeyEnv; with a custom base URL a missing key falls back to a
// placeholder, since local servers ignore it.
func NewOpenAIEmbedder(apiKeyEnv, model, baseURL string, dimension, batchSize int) (*OpenAIEmbedder, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		if baseURL == "" {
			return nil, fmt.Errorf("API key not found in environment variable: %s", apiKeyEnv)
		}
		apiKey = "unused"
	}

	if dimension <= 0 {
		var ok bool
		dimension, ok = modelDimensions[model]
		if !ok {
			return nil, fmt.Errorf("unknown dimension for model %q, set it explicitly", model)
		}
	}
	if batchSize <= 0 {
		batchSize = 100
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &OpenAIEmbedder{
		client:    openai.NewClientWithConfig(cfg),
		model:     model,
		dimension: dimension,
		batchSize: batchSize,
	}, nil
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	embeddings := make([][]float32, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		if err := e.embedBatch(ctx, texts[start:end], embeddings[start:end]); err != nil {
			return nil, err
		}
	}
	return embeddings, nil
}

func (e *OpenAIEmbedder) embedBatch(ctx context.Context, texts []string, out [][]float32) error {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return fmt.Errorf("embedding response has %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	for _, data := range resp.Data {
		if data.Index < 0 || data.Index >= len(out) {
			return fmt.Errorf("embedding response index %d out of range", data.Index)
		}
		if len(data.Embedding) != e.dimension {
			return fmt.Errorf("model returned dimension %d, expected %d", len(data.Embedding), e.dimension)
		}
		out[data.Index] = data.Embedding
	}
	return nil
}

func (e *OpenAIEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *OpenAIEmbedder) Dimension() int {
	return e.dimension
}

func (e *OpenAIEmbedder) ModelName() string {
	return e.model
}
