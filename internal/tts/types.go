package tts

import (
	"context"
	"io"
)

// Client is the interface for a text-to-speech provider.
type Client interface {
	// Fetch converts text to a raw audio stream in the provider's native
	// format. The caller owns the returned stream and must close it.
	Fetch(ctx context.Context, text string) (io.ReadCloser, error)
}
