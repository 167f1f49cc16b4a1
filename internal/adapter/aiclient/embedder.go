package aiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"site-search/internal/domain"
)

// Embedder generates embeddings through the AI gateway's model-run endpoint.
type Embedder struct {
	BaseURL  string
	Model    string
	APIToken string
	Client   *http.Client
	logger   *slog.Logger
}

// NewEmbedder constructs an embedding client. If client is nil a default
// http.Client with the given timeout is created.
func NewEmbedder(baseURL, model, apiToken string, timeout time.Duration, logger *slog.Logger, client ...*http.Client) *Embedder {
	var c *http.Client
	if len(client) > 0 && client[0] != nil {
		c = client[0]
	} else {
		c = &http.Client{Timeout: timeout}
	}
	return &Embedder{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Model:    model,
		APIToken: apiToken,
		Client:   c,
		logger:   logger,
	}
}

type embedRequest struct {
	Text []string `json:"text"`
}

type embedResponse struct {
	Success bool `json:"success"`
	Result  struct {
		Data [][]float32 `json:"data"`
	} `json:"result"`
}

// Encode embeds texts in one request. The response must carry exactly one
// vector per input; anything else is an upstream error, never silently
// substituted.
func (e *Embedder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	e.logger.Info("embedding_started",
		slog.Int("text_count", len(texts)),
		slog.String("model", e.Model))

	payload, err := json.Marshal(embedRequest{Text: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embed request: %w", err)
	}

	url := fmt.Sprintf("%s/ai/run/%s", e.BaseURL, e.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+e.APIToken)
	}

	resp, err := e.Client.Do(req)
	if err != nil {
		e.logger.Error("embedding_failed",
			slog.String("error", err.Error()),
			slog.Int64("elapsed_ms", time.Since(start).Milliseconds()))
		return nil, fmt.Errorf("failed to call embedding service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		e.logger.Error("embedding_bad_status",
			slog.Int("status", resp.StatusCode),
			slog.Int64("elapsed_ms", time.Since(start).Milliseconds()))
		return nil, fmt.Errorf("embedding service returned %d: %s", resp.StatusCode, truncateString(string(body), 500))
	}

	var respBody embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&respBody); err != nil {
		return nil, fmt.Errorf("failed to decode embed response: %w", err)
	}
	if !respBody.Success || len(respBody.Result.Data) != len(texts) {
		return nil, fmt.Errorf("malformed embed response: success=%t, got %d vectors for %d texts",
			respBody.Success, len(respBody.Result.Data), len(texts))
	}

	e.logger.Info("embedding_completed",
		slog.Int("embedding_count", len(respBody.Result.Data)),
		slog.Int64("elapsed_ms", time.Since(start).Milliseconds()))

	return respBody.Result.Data, nil
}

// Version returns the embedding model identifier.
func (e *Embedder) Version() string {
	return e.Model
}

var _ domain.VectorEncoder = (*Embedder)(nil)

func truncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
