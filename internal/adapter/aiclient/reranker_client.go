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

// RerankerClient implements domain.Reranker against the AI gateway's
// cross-encoder endpoint.
type RerankerClient struct {
	BaseURL  string
	Model    string
	APIToken string
	Client   *http.Client
	logger   *slog.Logger
}

// NewRerankerClient constructs a reranker client. If client is nil a default
// http.Client with the given timeout is created.
func NewRerankerClient(baseURL, model, apiToken string, timeout time.Duration, logger *slog.Logger, client ...*http.Client) *RerankerClient {
	var c *http.Client
	if len(client) > 0 && client[0] != nil {
		c = client[0]
	} else {
		c = &http.Client{Timeout: timeout}
	}
	return &RerankerClient{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Model:    model,
		APIToken: apiToken,
		Client:   c,
		logger:   logger,
	}
}

type rerankContext struct {
	Text string `json:"text"`
}

type rerankRequest struct {
	Query    string          `json:"query"`
	Contexts []rerankContext `json:"contexts"`
}

type rerankResponseItem struct {
	ID    *int     `json:"id"`
	Score *float32 `json:"score"`
}

type rerankResponse struct {
	Success bool `json:"success"`
	Result  struct {
		Response []rerankResponseItem `json:"response"`
	} `json:"result"`
}

// Rerank scores candidates against the query. The service associates scores
// with input positions; items with an invalid position or missing score are
// logged and dropped, leaving those candidates unscored at the caller.
func (c *RerankerClient) Rerank(ctx context.Context, query string, candidates []domain.RerankCandidate) ([]domain.RerankResult, error) {
	if len(candidates) == 0 {
		return []domain.RerankResult{}, nil
	}

	start := time.Now()
	c.logger.Info("reranking_started",
		slog.String("query", truncateString(query, 100)),
		slog.Int("candidate_count", len(candidates)),
		slog.String("model", c.Model))

	contexts := make([]rerankContext, len(candidates))
	for i, cand := range candidates {
		contexts[i] = rerankContext{Text: cand.Content}
	}

	payload, err := json.Marshal(rerankRequest{Query: query, Contexts: contexts})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rerank request: %w", err)
	}

	url := fmt.Sprintf("%s/ai/run/%s", c.BaseURL, c.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIToken)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		c.logger.Warn("reranking_failed",
			slog.String("error", err.Error()),
			slog.Int64("elapsed_ms", time.Since(start).Milliseconds()))
		return nil, fmt.Errorf("failed to call rerank endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Warn("reranking_bad_status",
			slog.Int("status_code", resp.StatusCode),
			slog.String("body", truncateString(string(body), 500)),
			slog.Int64("elapsed_ms", time.Since(start).Milliseconds()))
		return nil, fmt.Errorf("rerank endpoint returned %d: %s", resp.StatusCode, truncateString(string(body), 500))
	}

	var rerankResp rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&rerankResp); err != nil {
		return nil, fmt.Errorf("failed to decode rerank response: %w", err)
	}
	if !rerankResp.Success {
		return nil, fmt.Errorf("rerank endpoint reported failure")
	}

	results := make([]domain.RerankResult, 0, len(rerankResp.Result.Response))
	for _, item := range rerankResp.Result.Response {
		if item.ID == nil || item.Score == nil || *item.ID < 0 || *item.ID >= len(candidates) {
			c.logger.Warn("rerank_item_invalid",
				slog.Any("item_id", item.ID))
			continue
		}
		results = append(results, domain.RerankResult{
			ID:    candidates[*item.ID].ID,
			Score: *item.Score,
		})
	}

	if len(results) != len(candidates) {
		c.logger.Warn("rerank_score_count_mismatch",
			slog.Int("sent", len(candidates)),
			slog.Int("received", len(results)))
	}

	c.logger.Info("reranking_completed",
		slog.Int("result_count", len(results)),
		slog.Int64("elapsed_ms", time.Since(start).Milliseconds()))

	return results, nil
}

// ModelName returns the model identifier for logging.
func (c *RerankerClient) ModelName() string {
	return c.Model
}

var _ domain.Reranker = (*RerankerClient)(nil)
