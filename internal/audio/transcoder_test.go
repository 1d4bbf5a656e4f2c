package audio

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"strings"
	"testing"
)

// passthrough uses cat as a stand-in binary so the pipe plumbing can be
// exercised without ffmpeg installed.
func passthrough(t *testing.T) *FFmpegTranscoder {
	t.Helper()
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}
	return &FFmpegTranscoder{path: "cat", args: []string{}}
}

func TestFFmpegTranscoder_StreamsStdinToStdout(t *testing.T) {
	tr := passthrough(t)
	payload := []byte("pcm-sample-data")

	out, err := tr.Transcode(context.Background(), bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	defer out.Close()

	got, err := io.ReadAll(out)
	if err != nil {
		t.Fatalf("Expected readable output, got %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("Expected %q, got %q", payload, got)
	}
}

func TestFFmpegTranscoder_ProcessFailureSurfacesToReader(t *testing.T) {
	if _, err := exec.LookPath("false"); err != nil {
		t.Skip("false not available")
	}
	tr := &FFmpegTranscoder{path: "false", args: []string{}}

	out, err := tr.Transcode(context.Background(), strings.NewReader("data"))
	if err != nil {
		t.Fatalf("Expected start to succeed, got %v", err)
	}
	defer out.Close()

	if _, err := io.ReadAll(out); err == nil {
		t.Error("Expected read to report the non-zero exit")
	}
}

func TestFFmpegTranscoder_MissingBinary(t *testing.T) {
	tr := NewFFmpegTranscoder("definitely-not-a-real-binary")
	if err := tr.Available(); err == nil {
		t.Error("Expected Available to fail for a missing binary")
	}
	if _, err := tr.Transcode(context.Background(), strings.NewReader("data")); err == nil {
		t.Error("Expected Transcode to fail for a missing binary")
	}
}

func TestFFmpegTranscoder_CloseReleasesProcess(t *testing.T) {
	tr := passthrough(t)

	out, err := tr.Transcode(context.Background(), strings.NewReader("data"))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	io.ReadAll(out)
	if err := out.Close(); err != nil {
		t.Errorf("Expected clean close, got %v", err)
	}
	// Second close must not panic or double-wait
	out.Close()
}

func TestNewFFmpegTranscoder_DefaultPath(t *testing.T) {
	tr := NewFFmpegTranscoder("")
	if tr.path != "ffmpeg" {
		t.Errorf("Expected default path ffmpeg, got %q", tr.path)
	}
}
