package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/glados-voice/telegram-bot/internal/observability"
	"github.com/glados-voice/telegram-bot/internal/pipeline"
	"github.com/glados-voice/telegram-bot/internal/session"
	"github.com/glados-voice/telegram-bot/internal/telegram"
)

// Reply texts, kept verbatim so existing users see no change in tone.
const (
	msgWelcome    = "Hello, I am GLaDOS. If you want to hear me, just send me text (only English)"
	msgBusy       = "Please wait while the previous voice is being generated"
	msgGenerating = "Generating voice..."
	msgFailure    = "Ooops, something went wrong. Try again"
)

const voiceContentType = "audio/ogg"

// Messenger sends replies back to the chat platform.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendVoice(ctx context.Context, chatID int64, voice []byte, contentType string) error
}

// Synthesizer produces a ready-to-send voice payload for a request.
type Synthesizer interface {
	Synthesize(ctx context.Context, req pipeline.Request) ([]byte, error)
}

// Controller sequences one incoming message through the rate gate and,
// when admitted, runs the generation in the background so the receive
// loop never blocks on a slow provider.
type Controller struct {
	gate      *session.Gate
	synth     Synthesizer
	messenger Messenger
	cooldown  time.Duration
	greeting  []byte
	now       func() time.Time
	log       zerolog.Logger
	wg        sync.WaitGroup
}

// Option configures optional controller behavior.
type Option func(*Controller)

// WithGreeting sets the voice clip sent on /start. Without it the
// greeting is text only.
func WithGreeting(clip []byte) Option {
	return func(c *Controller) {
		c.greeting = clip
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// NewController wires the gate, synthesizer and messenger together.
// cooldown is the per-chat quiet period armed after each success.
func NewController(gate *session.Gate, synth Synthesizer, messenger Messenger, cooldown time.Duration, opts ...Option) *Controller {
	c := &Controller{
		gate:      gate,
		synth:     synth,
		messenger: messenger,
		cooldown:  cooldown,
		now:       time.Now,
		log:       log.With().Str("component", "bot").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HandleMessage processes one incoming message. It returns as soon as
// the message is either rejected, answered, or handed to a background
// generation.
func (c *Controller) HandleMessage(ctx context.Context, msg telegram.Message) {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	chatID := msg.Chat.ID
	logger := c.log.With().
		Int64("chat_id", chatID).
		Str("from", msg.From.DisplayName()).
		Str("chat", msg.Chat.DisplayName()).
		Logger()

	observability.RecordMessageReceived()
	logger.Info().Str("text", text).Msg("Message received")

	// The greeting bypasses the gate so a chat stuck in cooldown can
	// still discover how the bot works
	if text == "/start" {
		c.handleStart(ctx, chatID, logger)
		return
	}

	decision := c.gate.Acquire(chatID, c.now())
	switch decision.Verdict {
	case session.RejectBusy:
		observability.RecordRejection("busy")
		logger.Info().Msg("Rejected, generation in progress")
		c.reply(ctx, chatID, msgBusy, logger)

	case session.RejectCooldown:
		observability.RecordRejection("cooldown")
		logger.Info().Int64("wait_seconds", decision.WaitSeconds).Msg("Rejected, cooldown active")
		c.reply(ctx, chatID, fmt.Sprintf("Please wait for %d seconds", decision.WaitSeconds), logger)

	case session.Allow:
		c.wg.Add(1)
		// Shutdown cancels the receive loop, not work already admitted
		genCtx := context.WithoutCancel(ctx)
		go func() {
			defer c.wg.Done()
			c.generate(genCtx, chatID, text, logger)
		}()
	}
}

// Wait blocks until all in-flight generations have finished. Called
// during graceful shutdown after the receive loop has stopped.
func (c *Controller) Wait() {
	c.wg.Wait()
}

func (c *Controller) handleStart(ctx context.Context, chatID int64, logger zerolog.Logger) {
	if len(c.greeting) > 0 {
		if err := c.messenger.SendVoice(ctx, chatID, c.greeting, voiceContentType); err != nil {
			logger.Error().Err(err).Msg("Failed to deliver greeting voice")
		}
	}
	c.reply(ctx, chatID, msgWelcome, logger)
}

func (c *Controller) generate(ctx context.Context, chatID int64, text string, logger zerolog.Logger) {
	observability.RecordGenerationStart()
	started := time.Now()

	c.reply(ctx, chatID, msgGenerating, logger)

	voice, err := c.synth.Synthesize(ctx, pipeline.Request{Text: text, ChatID: chatID})
	if err != nil {
		c.gate.Fail(chatID)
		observability.RecordGenerationEnd(false, time.Since(started))
		logger.Error().Err(err).Str("stage", failedStage(err)).Msg("Voice generation failed")
		c.reply(ctx, chatID, msgFailure, logger)
		return
	}

	// Delivery failure is report-only: the generation itself succeeded,
	// so the cooldown still arms and no failure text is sent
	if err := c.messenger.SendVoice(ctx, chatID, voice, voiceContentType); err != nil {
		observability.RecordDeliveryFailure()
		derr := &pipeline.DeliveryError{Err: err}
		logger.Error().Err(derr).Msg("Voice delivery failed")
	} else {
		observability.RecordVoiceBytesDelivered(len(voice))
		logger.Info().Int("voice_bytes", len(voice)).Msg("Voice delivered")
	}

	c.gate.Succeed(chatID, c.now(), c.cooldown)
	observability.RecordGenerationEnd(true, time.Since(started))
}

func (c *Controller) reply(ctx context.Context, chatID int64, text string, logger zerolog.Logger) {
	if err := c.messenger.SendText(ctx, chatID, text); err != nil {
		logger.Error().Err(err).Str("text", text).Msg("Failed to send reply")
	}
}

func failedStage(err error) string {
	var upstream *pipeline.UpstreamError
	if errors.As(err, &upstream) {
		return "fetch"
	}
	var transcode *pipeline.TranscodeError
	if errors.As(err, &transcode) {
		return "transcode"
	}
	return "unknown"
}
