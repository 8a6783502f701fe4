// Package ai abstracts the generative backends. Two interchangeable
// implementations exist: Vertex AI (hosted) and Ollama (locally hosted).
// Which one serves a deployment is a configuration choice made at startup.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/Lllllllleong/pdfstudyflow/internal/gcp"
	"github.com/Lllllllleong/pdfstudyflow/internal/models"
)

// Generator turns a prompt into a text completion.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Embedder turns a text string into a fixed-length numeric vector of
// models.EmbeddingDim values.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// GenerationError carries the human-readable failure reason from a backend.
// When the backend reported a structured rate-limit error, RetryAfter holds
// the suggested delay and is appended to the message.
type GenerationError struct {
	Message    string
	RetryAfter time.Duration
}

func (e *GenerationError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s Retry after %s.", e.Message, e.RetryAfter)
	}
	return e.Message
}

// EmbeddingError reports that a backend was unreachable or returned no vector.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding failed: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// NormalizeEmbedding forces values to exactly dim entries: longer vectors are
// truncated, shorter ones zero-padded. Backends with a different native
// dimensionality go through this so all stored embeddings are comparable.
func NormalizeEmbedding(values []float32, dim int) []float32 {
	if len(values) == dim {
		return values
	}
	if len(values) > dim {
		return values[:dim]
	}
	padded := make([]float32, dim)
	copy(padded, values)
	return padded
}

// NewFromEnv builds the configured backend pair. AI_BACKEND selects "vertex"
// (default) or "ollama".
func NewFromEnv(ctx context.Context) (Generator, Embedder, error) {
	switch backend := gcp.GetEnv("AI_BACKEND", "vertex"); backend {
	case "vertex":
		v, err := NewVertex(ctx, VertexConfig{
			ProjectID:       gcp.GetEnv("GCP_PROJECT_ID", ""),
			Region:          gcp.GetEnv("VERTEX_AI_REGION", "us-central1"),
			GenerationModel: gcp.GetEnv("GENERATION_MODEL", "gemini-2.5-flash"),
			EmbeddingModel:  gcp.GetEnv("EMBEDDING_MODEL", "gemini-embedding-001"),
		})
		if err != nil {
			return nil, nil, err
		}
		return v, v, nil
	case "ollama":
		o := NewOllama(OllamaConfig{
			BaseURL:    gcp.GetEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			ChatModel:  gcp.GetEnv("OLLAMA_CHAT_MODEL", "llama3.1:8b"),
			EmbedModel: gcp.GetEnv("OLLAMA_EMBED_MODEL", "nomic-embed-text"),
		})
		return o, o, nil
	default:
		return nil, nil, fmt.Errorf("unknown AI_BACKEND %q", backend)
	}
}

// targetDim is shared by both backends.
const targetDim = models.EmbeddingDim
