package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glados-voice/telegram-bot/internal/config"
)

func newTestClient(url string) *Client {
	return NewClient(&config.Config{
		TelegramURL:   url,
		TelegramToken: "test-token",
	})
}

func TestClient_GetMe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bottest-token/getMe" {
			t.Errorf("Expected token in path, got %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"ok":true,"result":{"id":7,"is_bot":true,"first_name":"GLaDOS","username":"glados_bot"}}`)
	}))
	defer server.Close()

	me, err := newTestClient(server.URL).GetMe(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if me.Username != "glados_bot" {
		t.Errorf("Expected glados_bot username, got %q", me.Username)
	}
	if !me.IsBot {
		t.Error("Expected is_bot to be set")
	}
}

func TestClient_GetUpdates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Offset  int64 `json:"offset"`
			Timeout int   `json:"timeout"`
		}
		json.NewDecoder(r.Body).Decode(&payload)
		if payload.Offset != 100 {
			t.Errorf("Expected offset 100, got %d", payload.Offset)
		}
		if payload.Timeout != 30 {
			t.Errorf("Expected timeout 30, got %d", payload.Timeout)
		}
		fmt.Fprint(w, `{"ok":true,"result":[
			{"update_id":100,"message":{"message_id":1,"chat":{"id":5,"type":"private"},"text":"hello"}},
			{"update_id":101,"message":{"message_id":2,"chat":{"id":5,"type":"private"},"text":"again"}}
		]}`)
	}))
	defer server.Close()

	updates, next, err := newTestClient(server.URL).GetUpdates(context.Background(), 100, 30*time.Second)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(updates) != 2 {
		t.Fatalf("Expected 2 updates, got %d", len(updates))
	}
	if updates[0].Message.Text != "hello" {
		t.Errorf("Expected first message text hello, got %q", updates[0].Message.Text)
	}
	if next != 102 {
		t.Errorf("Expected next offset 102, got %d", next)
	}
}

func TestClient_GetUpdates_EmptyKeepsOffset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":true,"result":[]}`)
	}))
	defer server.Close()

	updates, next, err := newTestClient(server.URL).GetUpdates(context.Background(), 55, time.Second)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(updates) != 0 {
		t.Errorf("Expected no updates, got %d", len(updates))
	}
	if next != 55 {
		t.Errorf("Expected offset unchanged at 55, got %d", next)
	}
}

func TestClient_SendText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bottest-token/sendMessage" {
			t.Errorf("Expected sendMessage path, got %s", r.URL.Path)
		}
		var payload struct {
			ChatID int64  `json:"chat_id"`
			Text   string `json:"text"`
		}
		json.NewDecoder(r.Body).Decode(&payload)
		if payload.ChatID != 5 {
			t.Errorf("Expected chat_id 5, got %d", payload.ChatID)
		}
		if payload.Text != "Generating voice..." {
			t.Errorf("Expected message text, got %q", payload.Text)
		}
		fmt.Fprint(w, `{"ok":true,"result":{"message_id":9}}`)
	}))
	defer server.Close()

	if err := newTestClient(server.URL).SendText(context.Background(), 5, "Generating voice..."); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}

func TestClient_SendVoice(t *testing.T) {
	payload := []byte("OggS-voice-data")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mediaType != "multipart/form-data" {
			t.Fatalf("Expected multipart/form-data, got %q (%v)", mediaType, err)
		}

		reader := multipart.NewReader(r.Body, params["boundary"])
		fields := map[string]string{}
		var voiceType string
		var voiceData []byte
		for {
			part, err := reader.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Fatalf("Expected readable parts, got %v", err)
			}
			data, _ := io.ReadAll(part)
			if part.FormName() == "voice" {
				voiceType = part.Header.Get("Content-Type")
				voiceData = data
				continue
			}
			fields[part.FormName()] = string(data)
		}

		if fields["chat_id"] != "5" {
			t.Errorf("Expected chat_id field 5, got %q", fields["chat_id"])
		}
		if voiceType != "audio/ogg" {
			t.Errorf("Expected audio/ogg part, got %q", voiceType)
		}
		if string(voiceData) != string(payload) {
			t.Errorf("Expected voice payload to match, got %q", voiceData)
		}
		fmt.Fprint(w, `{"ok":true,"result":{"message_id":10}}`)
	}))
	defer server.Close()

	err := newTestClient(server.URL).SendVoice(context.Background(), 5, payload, "audio/ogg")
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}

func TestClient_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":false,"error_code":401,"description":"Unauthorized"}`)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetMe(context.Background())
	if err == nil {
		t.Fatal("Expected error for ok=false response")
	}
	if !strings.Contains(err.Error(), "Unauthorized") {
		t.Errorf("Expected the API description in the error, got %v", err)
	}
}

func TestUser_DisplayName(t *testing.T) {
	tests := []struct {
		name string
		user *User
		want string
	}{
		{"full name", &User{FirstName: "Chell", LastName: "Johnson"}, "Chell Johnson"},
		{"first only", &User{FirstName: "Chell"}, "Chell"},
		{"username fallback", &User{Username: "chell"}, "chell"},
		{"empty", &User{}, "unknown"},
		{"nil", nil, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.DisplayName(); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestChat_DisplayName(t *testing.T) {
	tests := []struct {
		name string
		chat Chat
		want string
	}{
		{"title", Chat{Title: "Test Chamber"}, "Test Chamber"},
		{"username", Chat{Username: "chell"}, "chell"},
		{"private", Chat{}, "private"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.chat.DisplayName(); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}
