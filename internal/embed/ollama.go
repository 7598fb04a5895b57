package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

const (
	defaultTimeout = 30 * time.Second
)

// OllamaEmbedder generates embeddings with a locally running Ollama instance.
type OllamaEmbedder struct {
	client  *http.Client
	baseURL string
	model   string
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

func NewOllamaEmbedder(baseURL, model string) *OllamaEmbedder {
	return &OllamaEmbedder{
		client:  &http.Client{Timeout: defaultTimeout},
		baseURL: baseURL,
		model:   model,
	}
}

func (e *OllamaEmbedder) Dimension() int {
	return Dimension
}

// Encode requests an embedding for the text and re-normalizes it to unit
// length, so cosine similarity downstream reduces to a dot product regardless
// of what the model returned.
func (e *OllamaEmbedder) Encode(ctx context.Context, text string) ([]float32, error) {
	jsonBody, err := json.Marshal(embedRequest{Model: e.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		e.baseURL+"/api/embeddings", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("ollama error (status %d): failed to read response", resp.StatusCode)
		}
		return nil, fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, string(body))
	}

	var embedResp embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(embedResp.Embedding) != Dimension {
		return nil, fmt.Errorf("model %s returned %d dimensions, want %d",
			e.model, len(embedResp.Embedding), Dimension)
	}

	return normalize(embedResp.Embedding), nil
}

// Ping checks that the Ollama API is reachable without running inference.
func (e *OllamaEmbedder) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return fmt.Errorf("ollama: failed to create ping request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama: API returned status %d", resp.StatusCode)
	}
	return nil
}

func normalize(raw []float64) []float32 {
	var sumOfSquares float64
	for _, v := range raw {
		sumOfSquares += v * v
	}
	norm := math.Sqrt(sumOfSquares)

	vec := make([]float32, len(raw))
	if norm == 0 {
		return vec
	}
	for i, v := range raw {
		vec[i] = float32(v / norm)
	}
	return vec
}
