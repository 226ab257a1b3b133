// Package mock provides a test double for the transcribe package interface.
package mock

import (
	"context"
	"sync"

	"github.com/venlo-ai/cadence/pkg/transcribe"
)

// TranscribeCall records a single invocation of Transcriber.Transcribe.
type TranscribeCall struct {
	// Ctx is the context passed to Transcribe.
	Ctx context.Context
	// MediaPath is the path passed to Transcribe.
	MediaPath string
}

// Transcriber is a mock implementation of transcribe.Transcriber.
type Transcriber struct {
	mu sync.Mutex

	// Result is returned from Transcribe when Err is nil. If nil, an empty
	// Result is returned.
	Result *transcribe.Result

	// Err, if non-nil, is returned as the error from Transcribe.
	Err error

	// TranscribeCalls records every call to Transcribe.
	TranscribeCalls []TranscribeCall
}

// Transcribe records the call and returns Result, Err.
func (t *Transcriber) Transcribe(ctx context.Context, mediaPath string) (*transcribe.Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.TranscribeCalls = append(t.TranscribeCalls, TranscribeCall{Ctx: ctx, MediaPath: mediaPath})
	if t.Err != nil {
		return nil, t.Err
	}
	if t.Result != nil {
		return t.Result, nil
	}
	return &transcribe.Result{Notes: []string{}}, nil
}

// Reset clears all recorded calls. Thread-safe.
func (t *Transcriber) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.TranscribeCalls = nil
}

// Ensure Transcriber implements transcribe.Transcriber at compile time.
var _ transcribe.Transcriber = (*Transcriber)(nil)
