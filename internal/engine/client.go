// Package engine is a minimal HTTP client for a Perplexity-style answer
// engine. It issues one chat-completions call per query and surfaces any
// non-success response as an UpstreamError; retrying is the caller's choice.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/citelens/citelens/internal/apperrors"
	ometrics "github.com/citelens/citelens/internal/metrics"
)

// Config holds answer engine connection settings.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client calls the answer engine.
type Client struct {
	cfg  Config
	http *http.Client
	log  *zap.Logger
}

// Answer is one engine response: the answer text, the citation URLs in the
// order the engine returned them, and the raw response payload for storage.
type Answer struct {
	Text      string
	Citations []string
	Raw       json.RawMessage
}

// NewClient builds an engine client. The HTTP timeout bounds every call in
// addition to whatever deadline the caller's context carries.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.perplexity.ai"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  logger,
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Citations []string `json:"citations"`
}

// Ask sends one prompt to the engine and returns its answer with the ordered
// citation list.
func (c *Client) Ask(ctx context.Context, model, prompt string) (*Answer, error) {
	body, err := json.Marshal(chatRequest{
		Model:    model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal engine request: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build engine request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		ometrics.EngineRequests.WithLabelValues("transport_error").Inc()
		return nil, fmt.Errorf("engine request failed: %w", err)
	}
	defer resp.Body.Close()
	ometrics.EngineRequestDuration.Observe(time.Since(start).Seconds())

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		ometrics.EngineRequests.WithLabelValues("read_error").Inc()
		return nil, fmt.Errorf("read engine response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		ometrics.EngineRequests.WithLabelValues("upstream_error").Inc()
		c.log.Warn("Answer engine returned error",
			zap.Int("status", resp.StatusCode),
			zap.String("model", model),
		)
		return nil, &apperrors.UpstreamError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		ometrics.EngineRequests.WithLabelValues("decode_error").Inc()
		return nil, fmt.Errorf("decode engine response: %w", err)
	}

	answer := &Answer{Citations: parsed.Citations, Raw: raw}
	if len(parsed.Choices) > 0 {
		answer.Text = parsed.Choices[0].Message.Content
	}

	ometrics.EngineRequests.WithLabelValues("ok").Inc()
	c.log.Debug("Answer engine responded",
		zap.String("model", model),
		zap.Int("citations", len(answer.Citations)),
	)

	return answer, nil
}
