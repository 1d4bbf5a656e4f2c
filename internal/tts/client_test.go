package tts

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glados-voice/telegram-bot/internal/config"
)

func testConfig(endpoint string) *config.Config {
	return &config.Config{
		TTSEndpoint:  endpoint,
		TTSCharacter: "GLaDOS",
		TTSEmotion:   "Contextual",
	}
}

func TestFifteenClient_Fetch(t *testing.T) {
	var gotBody synthesisRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected application/json content type, got %s", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("Expected decodable request body, got %v", err)
		}
		w.Write([]byte("raw-audio-bytes"))
	}))
	defer server.Close()

	client := NewFifteenClient(testConfig(server.URL))
	stream, err := client.Fetch(context.Background(), "hello test subject")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	defer stream.Close()

	data, err := io.ReadAll(stream)
	if err != nil {
		t.Fatalf("Expected readable stream, got %v", err)
	}
	if string(data) != "raw-audio-bytes" {
		t.Errorf("Expected raw-audio-bytes, got %q", data)
	}

	if gotBody.Text != "hello test subject" {
		t.Errorf("Expected request text to match, got %q", gotBody.Text)
	}
	if gotBody.Character != "GLaDOS" {
		t.Errorf("Expected GLaDOS character, got %q", gotBody.Character)
	}
	if gotBody.Emotion != "Contextual" {
		t.Errorf("Expected Contextual emotion, got %q", gotBody.Emotion)
	}
	if !gotBody.UseDiagonal {
		t.Error("Expected use_diagonal to be set")
	}
}

func TestFifteenClient_FetchUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "character overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewFifteenClient(testConfig(server.URL))
	if _, err := client.Fetch(context.Background(), "hello"); err == nil {
		t.Error("Expected error for non-2xx status")
	}
}

func TestFifteenClient_FetchUnreachable(t *testing.T) {
	client := NewFifteenClient(testConfig("http://127.0.0.1:1"))
	if _, err := client.Fetch(context.Background(), "hello"); err == nil {
		t.Error("Expected error for unreachable provider")
	}
}

func TestFifteenClient_FetchEmptyText(t *testing.T) {
	client := NewFifteenClient(testConfig("http://example.invalid"))
	if _, err := client.Fetch(context.Background(), "   "); err == nil {
		t.Error("Expected error for empty text")
	}
}

func TestFifteenClient_FetchContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewFifteenClient(testConfig(server.URL))
	if _, err := client.Fetch(ctx, "hello"); err == nil {
		t.Error("Expected error for cancelled context")
	}
}
