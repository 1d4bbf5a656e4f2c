package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/glados-voice/telegram-bot/internal/config"
)

// FifteenClient fetches synthesized speech from the 15.ai TTS API. The
// response body carries the full audio payload in the provider's native
// format; transcoding to the delivery codec happens downstream.
type FifteenClient struct {
	endpoint   string
	character  string
	emotion    string
	httpClient *http.Client
}

// synthesisRequest is the fixed request payload the provider expects.
type synthesisRequest struct {
	Text        string `json:"text"`
	Character   string `json:"character"`
	Emotion     string `json:"emotion"`
	UseDiagonal bool   `json:"use_diagonal"`
}

// NewFifteenClient creates a TTS client from the bot configuration. A
// TTSTimeout of zero leaves the HTTP client without a timeout; any bound
// on a hanging provider is imposed here, not by the pipeline.
func NewFifteenClient(cfg *config.Config) *FifteenClient {
	httpClient := &http.Client{}
	if cfg.TTSTimeout > 0 {
		httpClient.Timeout = time.Duration(cfg.TTSTimeout) * time.Second
	}

	return &FifteenClient{
		endpoint:   cfg.TTSEndpoint,
		character:  cfg.TTSCharacter,
		emotion:    cfg.TTSEmotion,
		httpClient: httpClient,
	}
}

// Fetch requests audio for the given text and returns the provider's raw
// audio stream. The caller owns the returned stream and must close it.
func (c *FifteenClient) Fetch(ctx context.Context, text string) (io.ReadCloser, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty text")
	}

	body, err := json.Marshal(synthesisRequest{
		Text:        text,
		Character:   c.character,
		Emotion:     c.emotion,
		UseDiagonal: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach tts provider: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		resp.Body.Close()
		return nil, fmt.Errorf("tts provider returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	return resp.Body, nil
}
