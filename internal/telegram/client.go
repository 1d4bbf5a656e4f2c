package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"time"

	"github.com/glados-voice/telegram-bot/internal/config"
)

// Client is a minimal Telegram Bot API client covering the methods the
// bot needs: identity, long polling, text replies and voice uploads.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewClient creates a client from the bot configuration. The HTTP
// client carries no global timeout; long polls are bounded per request.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		httpClient: &http.Client{},
		baseURL:    cfg.TelegramURL,
		token:      cfg.TelegramToken,
	}
}

func (c *Client) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
}

// call posts a JSON payload to a Bot API method and unwraps the
// response envelope.
func (c *Client) call(ctx context.Context, method string, payload interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL(method), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, method)
}

func (c *Client) do(req *http.Request, method string) (json.RawMessage, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", method, err)
	}
	defer resp.Body.Close()

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	if !envelope.OK {
		return nil, fmt.Errorf("%s returned error %d: %s", method, envelope.ErrorCode, envelope.Description)
	}
	return envelope.Result, nil
}

// GetMe returns the bot's own account, useful as a token check.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	result, err := c.call(ctx, "getMe", struct{}{})
	if err != nil {
		return nil, err
	}

	var me User
	if err := json.Unmarshal(result, &me); err != nil {
		return nil, fmt.Errorf("failed to decode bot account: %w", err)
	}
	return &me, nil
}

// GetUpdates long-polls for new updates starting at offset and returns
// them with the offset to use for the next call. The request context is
// bounded a little past the poll timeout so a stuck connection cannot
// hang the receive loop forever.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout+10*time.Second)
	defer cancel()

	payload := struct {
		Offset         int64    `json:"offset"`
		Timeout        int      `json:"timeout"`
		AllowedUpdates []string `json:"allowed_updates"`
	}{
		Offset:         offset,
		Timeout:        int(timeout / time.Second),
		AllowedUpdates: []string{"message"},
	}

	result, err := c.call(ctx, "getUpdates", payload)
	if err != nil {
		return nil, offset, err
	}

	var updates []Update
	if err := json.Unmarshal(result, &updates); err != nil {
		return nil, offset, fmt.Errorf("failed to decode updates: %w", err)
	}

	next := offset
	for _, u := range updates {
		if u.UpdateID >= next {
			next = u.UpdateID + 1
		}
	}
	return updates, next, nil
}

// SendText sends a plain text message to a chat.
func (c *Client) SendText(ctx context.Context, chatID int64, text string) error {
	payload := struct {
		ChatID int64  `json:"chat_id"`
		Text   string `json:"text"`
	}{ChatID: chatID, Text: text}

	_, err := c.call(ctx, "sendMessage", payload)
	return err
}

// SendVoice uploads an in-memory voice payload to a chat as a voice
// message. contentType should match the payload codec, audio/ogg for
// Ogg/Opus.
func (c *Client) SendVoice(ctx context.Context, chatID int64, voice []byte, contentType string) error {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("chat_id", strconv.FormatInt(chatID, 10)); err != nil {
		return fmt.Errorf("failed to write chat_id field: %w", err)
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="voice"; filename="voice.ogg"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return fmt.Errorf("failed to create voice part: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(voice)); err != nil {
		return fmt.Errorf("failed to write voice payload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL("sendVoice"), body)
	if err != nil {
		return fmt.Errorf("failed to create sendVoice request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	_, err = c.do(req, "sendVoice")
	return err
}
