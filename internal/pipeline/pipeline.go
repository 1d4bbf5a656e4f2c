package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/glados-voice/telegram-bot/internal/audio"
	"github.com/glados-voice/telegram-bot/internal/observability"
	"github.com/glados-voice/telegram-bot/internal/resilience"
	"github.com/glados-voice/telegram-bot/internal/tts"
)

// Request describes one voice generation. ChatID is carried for log
// correlation only; the pipeline has no notion of sessions.
type Request struct {
	Text   string
	ChatID int64
}

// Pipeline runs a generation end to end: fetch raw audio from the TTS
// provider, transcode it to the delivery codec, and buffer the result
// into a single payload ready to send.
type Pipeline struct {
	fetcher    tts.Client
	transcoder audio.Transcoder
	retry      *resilience.RetryPolicy
	breaker    *resilience.CircuitBreaker
	log        zerolog.Logger
}

// Option configures optional pipeline behavior.
type Option func(*Pipeline)

// WithRetry retries the fetch stage on upstream failure. A nil policy
// leaves retries disabled.
func WithRetry(policy *resilience.RetryPolicy) Option {
	return func(p *Pipeline) {
		p.retry = policy
	}
}

// WithCircuitBreaker guards the fetch stage so a dead provider fails
// fast instead of piling up hanging requests.
func WithCircuitBreaker(cb *resilience.CircuitBreaker) Option {
	return func(p *Pipeline) {
		p.breaker = cb
	}
}

// New creates a pipeline over the given provider and transcoder.
func New(fetcher tts.Client, transcoder audio.Transcoder, opts ...Option) *Pipeline {
	p := &Pipeline{
		fetcher:    fetcher,
		transcoder: transcoder,
		log:        log.With().Str("component", "pipeline").Logger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Synthesize produces a ready-to-send voice payload for the request.
// Failures are classified: *UpstreamError from the fetch stage,
// *TranscodeError from conversion or an empty result.
func (p *Pipeline) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	started := time.Now()
	logger := p.log.With().
		Int64("chat_id", req.ChatID).
		Str("correlation_id", uuid.New().String()).
		Logger()

	raw, err := p.fetch(ctx, req.Text)
	if err != nil {
		logger.Error().Err(err).Msg("TTS fetch failed")
		return nil, &UpstreamError{Err: err}
	}
	defer raw.Close()

	out, err := p.transcoder.Transcode(ctx, raw)
	if err != nil {
		logger.Error().Err(err).Msg("Transcode failed to start")
		return nil, &TranscodeError{Err: err}
	}

	data, err := audio.Collect(out)
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		logger.Error().Err(err).Msg("Transcode failed")
		return nil, &TranscodeError{Err: err}
	}
	if len(data) == 0 {
		logger.Error().Msg("Transcode produced no output")
		return nil, &TranscodeError{Err: errors.New("empty output")}
	}

	logger.Info().
		Int("voice_bytes", len(data)).
		Dur("duration", time.Since(started)).
		Msg("Voice generated")

	return data, nil
}

// PrepareClip converts a local audio stream to the delivery codec. Used
// at startup to prepare the greeting clip; it skips the fetch stage and
// its resilience wrapping.
func (p *Pipeline) PrepareClip(ctx context.Context, in io.Reader) ([]byte, error) {
	out, err := p.transcoder.Transcode(ctx, in)
	if err != nil {
		return nil, &TranscodeError{Err: err}
	}

	data, err := audio.Collect(out)
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, &TranscodeError{Err: err}
	}
	if len(data) == 0 {
		return nil, &TranscodeError{Err: errors.New("empty output")}
	}
	return data, nil
}

// fetch wraps the provider call with the configured retry policy and
// circuit breaker. The breaker sits outside the retries so a full retry
// cycle counts as one failure against it.
func (p *Pipeline) fetch(ctx context.Context, text string) (io.ReadCloser, error) {
	var raw io.ReadCloser
	attempt := func() error {
		rc, err := p.fetcher.Fetch(ctx, text)
		if err != nil {
			return err
		}
		raw = rc
		return nil
	}

	run := func() error {
		return p.retry.Do(ctx, attempt)
	}

	var err error
	if p.breaker != nil {
		err = p.breaker.Call(run)
		observability.UpdateCircuitBreakerState(p.breaker.Name(), int(p.breaker.State()))
	} else {
		err = run()
	}
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	return raw, nil
}
