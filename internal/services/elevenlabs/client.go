// Package elevenlabs adapts the ElevenLabs text-to-speech API to the
// services.SpeechSynthesizer contract. Audio is requested as raw 16-bit
// mono PCM so segments can be concatenated without re-encoding.
package elevenlabs

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
	defaultBaseURL    = "https://api.elevenlabs.io/v1"
	defaultModel      = "eleven_turbo_v2"
	defaultSampleRate = 22050
	defaultTimeout    = 60 * time.Second
)

// Config holds the settings required to synthesize speech.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	SampleRate     int
	TimeoutSeconds int
}

// Client renders text to PCM audio over HTTP.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient constructs a speech-synthesis client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = defaultSampleRate
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

type synthesisRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

// Synthesize renders text with the given voice and returns raw PCM samples.
func (c *Client) Synthesize(ctx context.Context, text, voiceID string) (services.SpeechResult, error) {
	if c.cfg.APIKey == "" {
		return services.SpeechResult{}, services.Wrap(services.ErrPermanent, "speech synthesis", errors.New("elevenlabs api key not configured"))
	}
	if strings.TrimSpace(text) == "" {
		return services.SpeechResult{}, services.Wrap(services.ErrInvalidInput, "speech synthesis", errors.New("text cannot be empty"))
	}
	if voiceID == "" {
		return services.SpeechResult{}, services.Wrap(services.ErrInvalidInput, "speech synthesis", errors.New("voice id is required"))
	}

	body, err := json.Marshal(synthesisRequest{Text: text, ModelID: c.cfg.Model})
	if err != nil {
		return services.SpeechResult{}, services.Wrap(services.ErrPermanent, "encode synthesis payload", err)
	}

	url := fmt.Sprintf("%s/text-to-speech/%s?output_format=pcm_%d",
		strings.TrimRight(c.cfg.BaseURL, "/"), voiceID, c.cfg.SampleRate)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return services.SpeechResult{}, services.Wrap(services.ErrPermanent, "create synthesis request", err)
	}
	httpReq.Header.Set("xi-api-key", c.cfg.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Debug("Sending synthesis request",
		slog.String("voice_id", voiceID),
		slog.Int("text_chars", len(text)),
	)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return services.SpeechResult{}, services.Wrap(services.ErrTransient, "synthesis request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return services.SpeechResult{}, statusError(resp.StatusCode, detail)
	}

	pcm, err := io.ReadAll(resp.Body)
	if err != nil {
		return services.SpeechResult{}, services.Wrap(services.ErrTransient, "read synthesis response", err)
	}

	if len(pcm) == 0 {
		return services.SpeechResult{}, services.Wrap(services.ErrQuality, "speech synthesis", errors.New("provider returned empty audio"))
	}

	return services.SpeechResult{PCM: pcm, SampleRate: c.cfg.SampleRate}, nil
}

func statusError(status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	err := fmt.Errorf("http %d: %s", status, msg)

	switch {
	case status == http.StatusTooManyRequests:
		return services.Wrap(services.ErrRateLimited, "speech synthesis", err)
	case status >= 500:
		return services.Wrap(services.ErrTransient, "speech synthesis", err)
	default:
		return services.Wrap(services.ErrPermanent, "speech synthesis", err)
	}
}
