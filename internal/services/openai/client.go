// Package openai adapts the OpenAI chat-completions API to the
// services.Completer contract.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"doccast/internal/services"
)

const (
	defaultBaseURL = "https://api.openai.com/v1/chat/completions"
	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 30 * time.Second

	systemPrompt = "You are a helpful assistant that creates engaging podcast scripts."
)

// Config holds the settings required to talk to the completions endpoint.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// Client issues chat-completion requests over HTTP.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient constructs a completion client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// DefaultModel returns the model used when a request does not name one.
func (c *Client) DefaultModel() string {
	return c.cfg.Model
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
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
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete sends one chat-completion request. Provider failures are tagged
// with the services error taxonomy: 429 as rate-limited, 5xx and transport
// errors as transient, everything else as permanent.
func (c *Client) Complete(ctx context.Context, req services.CompletionRequest) (services.CompletionResult, error) {
	if c.cfg.APIKey == "" {
		return services.CompletionResult{}, services.Wrap(services.ErrPermanent, "completion", errors.New("openai api key not configured"))
	}

	model := req.Model
	if model == "" {
		model = c.cfg.Model
	}

	payload := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: req.Prompt},
		},
		Temperature: req.Temperature,
	}
	if req.MaxTokens > 0 {
		payload.MaxTokens = &req.MaxTokens
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return services.CompletionResult{}, services.Wrap(services.ErrPermanent, "encode completion payload", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return services.CompletionResult{}, services.Wrap(services.ErrPermanent, "create completion request", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Debug("Sending completion request",
		slog.String("model", model),
		slog.Int("prompt_chars", len(req.Prompt)),
	)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// Transport failures and timeouts are all retryable.
		return services.CompletionResult{}, services.Wrap(services.ErrTransient, "completion request", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return services.CompletionResult{}, services.Wrap(services.ErrTransient, "read completion response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return services.CompletionResult{}, statusError(resp.StatusCode, respBody)
	}

	var decoded chatResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return services.CompletionResult{}, services.Wrap(services.ErrTransient, "decode completion response", err)
	}

	if len(decoded.Choices) == 0 {
		return services.CompletionResult{}, services.Wrap(services.ErrQuality, "completion", errors.New("response contained no choices"))
	}

	result := services.CompletionResult{
		Text:             strings.TrimSpace(decoded.Choices[0].Message.Content),
		PromptTokens:     decoded.Usage.PromptTokens,
		CompletionTokens: decoded.Usage.CompletionTokens,
		TotalTokens:      decoded.Usage.TotalTokens,
	}

	c.logger.Debug("Completion received",
		slog.Int("prompt_tokens", result.PromptTokens),
		slog.Int("completion_tokens", result.CompletionTokens),
		slog.Int("total_tokens", result.TotalTokens),
	)

	return result, nil
}

func statusError(status int, body []byte) error {
	msg := apiMessage(body)
	err := fmt.Errorf("http %d: %s", status, msg)

	switch {
	case status == http.StatusTooManyRequests:
		return services.Wrap(services.ErrRateLimited, "completion", err)
	case status >= 500:
		return services.Wrap(services.ErrTransient, "completion", err)
	default:
		return services.Wrap(services.ErrPermanent, "completion", err)
	}
}

func apiMessage(body []byte) string {
	var decoded chatResponse
	if err := json.Unmarshal(body, &decoded); err == nil && decoded.Error != nil {
		return decoded.Error.Message
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
