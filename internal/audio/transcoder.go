package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
)

// Transcoder converts a raw audio stream to the voice-message codec.
type Transcoder interface {
	// Transcode starts the conversion and returns the converted stream.
	// The caller owns the returned stream and must close it.
	Transcode(ctx context.Context, in io.Reader) (io.ReadCloser, error)
}

// FFmpegTranscoder shells out to ffmpeg to convert arbitrary input audio
// to Ogg/Opus, the codec chat platforms accept for voice messages. Input
// and output are streamed through pipes, no temp files.
type FFmpegTranscoder struct {
	path string
	args []string
}

// defaultArgs reads arbitrary audio on stdin and writes Ogg/Opus to
// stdout, matching what chat platforms accept for voice messages.
var defaultArgs = []string{
	"-hide_banner",
	"-loglevel", "error",
	"-i", "pipe:0",
	"-f", "ogg",
	"-c:a", "libopus",
	"pipe:1",
}

// NewFFmpegTranscoder creates a transcoder using the given ffmpeg binary.
// Pass "ffmpeg" to resolve it from PATH.
func NewFFmpegTranscoder(path string) *FFmpegTranscoder {
	if path == "" {
		path = "ffmpeg"
	}
	return &FFmpegTranscoder{path: path}
}

// Available reports whether the ffmpeg binary can be resolved.
func (t *FFmpegTranscoder) Available() error {
	_, err := exec.LookPath(t.path)
	return err
}

// Transcode converts the input stream to Ogg/Opus. Conversion failures
// surface as an error from the returned stream, including ffmpeg's
// stderr output for diagnosis.
func (t *FFmpegTranscoder) Transcode(ctx context.Context, in io.Reader) (io.ReadCloser, error) {
	args := t.args
	if args == nil {
		args = defaultArgs
	}
	cmd := exec.CommandContext(ctx, t.path, args...)

	stderr := &bytes.Buffer{}
	cmd.Stdin = in
	cmd.Stderr = stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open ffmpeg stdout: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	return &transcodeStream{out: stdout, cmd: cmd, stderr: stderr}, nil
}

// transcodeStream wraps the ffmpeg stdout pipe so that a non-zero exit
// is reported to the reader instead of a silent truncated stream.
type transcodeStream struct {
	out    io.ReadCloser
	cmd    *exec.Cmd
	stderr *bytes.Buffer

	once    sync.Once
	waitErr error
}

func (s *transcodeStream) Read(p []byte) (int, error) {
	n, err := s.out.Read(p)
	if err == io.EOF {
		if werr := s.wait(); werr != nil {
			return n, werr
		}
	}
	return n, err
}

// Close releases the ffmpeg process. Safe to call after a read error.
func (s *transcodeStream) Close() error {
	s.out.Close()
	return s.wait()
}

func (s *transcodeStream) wait() error {
	s.once.Do(func() {
		err := s.cmd.Wait()
		if err == nil {
			return
		}
		if msg := strings.TrimSpace(s.stderr.String()); msg != "" {
			s.waitErr = fmt.Errorf("ffmpeg: %w: %s", err, msg)
			return
		}
		s.waitErr = fmt.Errorf("ffmpeg: %w", err)
	})
	return s.waitErr
}
