package pipeline

import "fmt"

// UpstreamError means the TTS provider was unreachable or returned a
// non-success response. The fetch stage aborts the pipeline on it.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("tts upstream: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// TranscodeError means the codec pipeline failed or produced no output.
type TranscodeError struct {
	Err error
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("transcode: %v", e.Err)
}

func (e *TranscodeError) Unwrap() error {
	return e.Err
}

// DeliveryError means the platform send failed after a successful
// generation. It is report-only and never rolls back session state.
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
