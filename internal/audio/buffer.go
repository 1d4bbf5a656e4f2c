package audio

import (
	"bytes"
	"io"
)

// Collect drains the stream into a single contiguous buffer, preserving
// the order chunks were emitted in. Stream errors are propagated as-is.
func Collect(r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
