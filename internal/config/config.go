package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the voice bot
type Config struct {
	// Telegram Bot API configuration
	TelegramToken string `envconfig:"TOKEN" required:"true"`
	TelegramURL   string `envconfig:"TELEGRAM_URL" default:"https://api.telegram.org"`
	PollTimeout   int    `envconfig:"POLL_TIMEOUT" default:"30"` // Long-poll timeout in seconds

	// TTS provider configuration
	TTSEndpoint  string `envconfig:"TTS_ENDPOINT" default:"https://api.15.ai/app/getAudioFile"`
	TTSCharacter string `envconfig:"TTS_CHARACTER" default:"GLaDOS"`
	TTSEmotion   string `envconfig:"TTS_EMOTION" default:"Contextual"`
	TTSTimeout   int    `envconfig:"TTS_TIMEOUT" default:"0"` // HTTP client timeout in seconds, 0 = no timeout

	// Rate limiting configuration
	CooldownSeconds int `envconfig:"COOLDOWN_SECONDS" default:"60"` // Cooldown after a successful generation

	// Audio configuration
	FFmpegPath        string `envconfig:"FFMPEG_PATH" default:"ffmpeg"`
	GreetingAudioPath string `envconfig:"GREETING_AUDIO_PATH" default:"./start.wav"`

	// Resilience configuration
	RetryMaxAttempts           int `envconfig:"RETRY_MAX_ATTEMPTS" default:"0"`             // Extra TTS fetch attempts, 0 = retry disabled
	RetryInitialBackoff        int `envconfig:"RETRY_INITIAL_BACKOFF" default:"500"`        // Initial backoff in milliseconds
	CircuitBreakerMaxFailures  int `envconfig:"CIRCUIT_BREAKER_MAX_FAILURES" default:"5"`   // Failures before opening circuit
	CircuitBreakerResetTimeout int `envconfig:"CIRCUIT_BREAKER_RESET_TIMEOUT" default:"30"` // Seconds before attempting recovery

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`       // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`     // Pretty print console logs (for development)
	LogDir         string `envconfig:"LOG_DIR" default:"./logs"`       // Directory for daily log files, empty disables them
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"` // Enable Prometheus metrics
	MetricsPort    string `envconfig:"METRICS_PORT" default:"9090"`    // Port for the metrics/health HTTP server
}

// Load reads configuration from environment variables
// It first attempts to load from .env file if it exists, then from environment
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TOKEN is required")
	}
	if cfg.CooldownSeconds < 0 {
		return nil, fmt.Errorf("COOLDOWN_SECONDS must not be negative")
	}
	if cfg.RetryMaxAttempts < 0 {
		return nil, fmt.Errorf("RETRY_MAX_ATTEMPTS must not be negative")
	}

	return &cfg, nil
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
