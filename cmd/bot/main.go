package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/glados-voice/telegram-bot/internal/audio"
	"github.com/glados-voice/telegram-bot/internal/bot"
	"github.com/glados-voice/telegram-bot/internal/config"
	"github.com/glados-voice/telegram-bot/internal/observability"
	"github.com/glados-voice/telegram-bot/internal/pipeline"
	"github.com/glados-voice/telegram-bot/internal/resilience"
	"github.com/glados-voice/telegram-bot/internal/session"
	"github.com/glados-voice/telegram-bot/internal/telegram"
	"github.com/glados-voice/telegram-bot/internal/tts"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		observability.InitLogger("info", false, "")
		bootLogger := observability.GetLogger()
		bootLogger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	observability.InitLogger(cfg.LogLevel, cfg.LogPretty, cfg.LogDir)
	logger := observability.GetLogger()
	logger.Info().Msg("Starting GLaDOS voice bot")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := telegram.NewClient(cfg)
	me, err := client.GetMe(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to verify bot token")
	}
	logger.Info().Str("username", me.Username).Msg("Bot authorized")

	transcoder := audio.NewFFmpegTranscoder(cfg.FFmpegPath)
	if err := transcoder.Available(); err != nil {
		logger.Fatal().Err(err).Str("path", cfg.FFmpegPath).Msg("ffmpeg not found")
	}

	pipe := pipeline.New(tts.NewFifteenClient(cfg), transcoder, pipelineOptions(cfg)...)

	ctrlOpts := []bot.Option{}
	if clip := prepareGreeting(ctx, pipe, cfg.GreetingAudioPath, logger); len(clip) > 0 {
		ctrlOpts = append(ctrlOpts, bot.WithGreeting(clip))
	}

	gate := session.NewGate(session.NewStore())
	cooldown := time.Duration(cfg.CooldownSeconds) * time.Second
	controller := bot.NewController(gate, pipe, client, cooldown, ctrlOpts...)

	var metricsServer *http.Server
	if cfg.MetricsEnabled {
		metricsServer = startMetricsServer(cfg, client, transcoder, logger)
	}

	poller := bot.NewPoller(client, controller, time.Duration(cfg.PollTimeout)*time.Second)
	logger.Info().Int("poll_timeout", cfg.PollTimeout).Msg("Receiving updates")
	if err := poller.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("Receive loop failed")
	}

	logger.Info().Msg("Shutting down, waiting for in-flight generations")
	controller.Wait()

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		metricsServer.Shutdown(shutdownCtx)
	}

	logger.Info().Msg("Bot stopped")
}

func pipelineOptions(cfg *config.Config) []pipeline.Option {
	opts := []pipeline.Option{}
	if cfg.RetryMaxAttempts > 0 {
		backoff := time.Duration(cfg.RetryInitialBackoff) * time.Millisecond
		opts = append(opts, pipeline.WithRetry(resilience.NewRetryPolicy(cfg.RetryMaxAttempts, backoff)))
	}
	if cfg.CircuitBreakerMaxFailures > 0 {
		reset := time.Duration(cfg.CircuitBreakerResetTimeout) * time.Second
		opts = append(opts, pipeline.WithCircuitBreaker(
			resilience.NewCircuitBreaker("tts", cfg.CircuitBreakerMaxFailures, reset)))
	}
	return opts
}

// prepareGreeting transcodes the greeting clip once at startup. A
// missing or broken clip downgrades /start to text only.
func prepareGreeting(ctx context.Context, pipe *pipeline.Pipeline, path string, logger zerolog.Logger) []byte {
	file, err := os.Open(path)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("Greeting audio unavailable, /start will be text only")
		return nil
	}
	defer file.Close()

	clip, err := pipe.PrepareClip(ctx, file)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("Failed to prepare greeting clip")
		return nil
	}

	logger.Info().Int("bytes", len(clip)).Msg("Greeting clip prepared")
	return clip
}

func startMetricsServer(cfg *config.Config, client *telegram.Client, transcoder *audio.FFmpegTranscoder, logger zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", observability.HealthCheckHandler())
	mux.HandleFunc("/ready", observability.ReadinessHandler(map[string]observability.HealthCheckFunc{
		"telegram": func(ctx context.Context) (bool, error) {
			_, err := client.GetMe(ctx)
			return err == nil, err
		},
		"ffmpeg": func(ctx context.Context) (bool, error) {
			err := transcoder.Available()
			return err == nil, err
		},
	}))

	server := &http.Server{Addr: ":" + cfg.MetricsPort, Handler: mux}
	go func() {
		logger.Info().Str("port", cfg.MetricsPort).Msg("Metrics server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("Metrics server failed")
		}
	}()
	return server
}
