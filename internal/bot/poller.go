package bot

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/glados-voice/telegram-bot/internal/telegram"
)

// UpdateSource is the long-poll side of the chat platform.
type UpdateSource interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]telegram.Update, int64, error)
}

// Poller drives the receive loop: long-poll for updates, dispatch each
// message to the controller, repeat until the context is cancelled.
type Poller struct {
	source     UpdateSource
	controller *Controller
	timeout    time.Duration

	// retryDelay is the pause after a failed poll before trying again
	retryDelay time.Duration
}

// NewPoller creates a poller with the given long-poll timeout.
func NewPoller(source UpdateSource, controller *Controller, timeout time.Duration) *Poller {
	return &Poller{
		source:     source,
		controller: controller,
		timeout:    timeout,
		retryDelay: time.Second,
	}
}

// Run polls until ctx is cancelled, then returns nil. Poll errors are
// logged and retried; they never stop the loop.
func (p *Poller) Run(ctx context.Context) error {
	logger := log.With().Str("component", "poller").Logger()
	var offset int64

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		updates, next, err := p.source.GetUpdates(ctx, offset, p.timeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Warn().Err(err).Msg("Poll failed, retrying")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(p.retryDelay):
			}
			continue
		}

		offset = next
		for _, update := range updates {
			if update.Message == nil {
				continue
			}
			p.controller.HandleMessage(ctx, *update.Message)
		}
	}
}
