package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// OllamaConfig holds the settings for the locally hosted backend.
type OllamaConfig struct {
	BaseURL    string
	ChatModel  string
	EmbedModel string
}

// Ollama is the local backend, speaking the Ollama HTTP API. Its native
// embedding dimensionality depends on the model and is normalized to the
// target dimension.
type Ollama struct {
	config OllamaConfig
	client *http.Client
}

// NewOllama creates a backend for the given base URL and models.
func NewOllama(config OllamaConfig) *Ollama {
	return &Ollama{
		config: config,
		client: &http.Client{Timeout: 120 * time.Second},
	}
}

func (o *Ollama) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	url := strings.TrimRight(o.config.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama %s failed: %s", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Generate returns a non-streamed completion for the prompt.
func (o *Ollama) Generate(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model":  o.config.ChatModel,
		"prompt": prompt,
		"stream": false,
	}
	var out struct {
		Response string `json:"response"`
	}
	if err := o.post(ctx, "/api/generate", payload, &out); err != nil {
		return "", &GenerationError{Message: err.Error()}
	}
	return out.Response, nil
}

// Embed returns the model's embedding for text, normalized to the target
// dimension.
func (o *Ollama) Embed(ctx context.Context, text string) ([]float32, error) {
	payload := map[string]any{
		"model":  o.config.EmbedModel,
		"prompt": text,
	}
	var out struct {
		Embedding []float64 `json:"embedding"`
	}
	if err := o.post(ctx, "/api/embeddings", payload, &out); err != nil {
		return nil, &EmbeddingError{Err: err}
	}
	if len(out.Embedding) == 0 {
		return nil, &EmbeddingError{Err: fmt.Errorf("missing embedding in response")}
	}

	vec := make([]float32, len(out.Embedding))
	for i, val := range out.Embedding {
		vec[i] = float32(val)
	}
	return NormalizeEmbedding(vec, targetDim), nil
}
