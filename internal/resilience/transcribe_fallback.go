package resilience

import (
	"context"

	"github.com/venlo-ai/cadence/pkg/transcribe"
)

// TranscribeFallback implements [transcribe.Transcriber] with automatic
// failover across multiple transcription backends, typically a remote
// whisper-server with an in-process whisper.cpp fallback.
type TranscribeFallback struct {
	group *FallbackGroup[transcribe.Transcriber]
}

// Compile-time interface assertion.
var _ transcribe.Transcriber = (*TranscribeFallback)(nil)

// NewTranscribeFallback creates a [TranscribeFallback] with primary as the
// preferred backend.
func NewTranscribeFallback(primary transcribe.Transcriber, primaryName string, cfg FallbackConfig) *TranscribeFallback {
	return &TranscribeFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional transcriber as a fallback.
func (f *TranscribeFallback) AddFallback(name string, t transcribe.Transcriber) {
	f.group.AddFallback(name, t)
}

// Transcribe runs against the first healthy backend.
func (f *TranscribeFallback) Transcribe(ctx context.Context, mediaPath string) (*transcribe.Result, error) {
	return ExecuteWithResult(f.group, func(t transcribe.Transcriber) (*transcribe.Result, error) {
		return t.Transcribe(ctx, mediaPath)
	})
}
