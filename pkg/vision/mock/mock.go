// Package mock provides test doubles for the vision package interfaces.
//
// Use Landmarker to feed a fixed frame sequence into non-verbal analysis:
//
//	lm := &mock.Landmarker{Frames: []vision.Frame{...}}
//	stream, _ := lm.Extract(ctx, "video.webm", vision.StreamConfig{})
package mock

import (
	"context"
	"sync"

	"github.com/venlo-ai/cadence/pkg/vision"
)

// ExtractCall records a single invocation of Landmarker.Extract.
type ExtractCall struct {
	// Path is the video path passed to Extract.
	Path string
	// Cfg is the StreamConfig passed to Extract.
	Cfg vision.StreamConfig
}

// Landmarker is a mock implementation of vision.Landmarker. Each Extract call
// returns a fresh Stream that replays Frames and then reports StreamErr.
type Landmarker struct {
	mu sync.Mutex

	// Frames is the sequence replayed by every returned Stream.
	Frames []vision.Frame

	// ExtractErr, if non-nil, is returned as the error from Extract.
	ExtractErr error

	// StreamErr, if non-nil, is reported by the returned Stream's Err after
	// all Frames have been delivered.
	StreamErr error

	// ExtractCalls records every call to Extract.
	ExtractCalls []ExtractCall
}

// Extract records the call and returns a replay Stream.
func (l *Landmarker) Extract(ctx context.Context, path string, cfg vision.StreamConfig) (vision.Stream, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ExtractCalls = append(l.ExtractCalls, ExtractCall{Path: path, Cfg: cfg})
	if l.ExtractErr != nil {
		return nil, l.ExtractErr
	}

	s := &Stream{
		ch:  make(chan vision.Frame, len(l.Frames)+1),
		err: l.StreamErr,
	}
	for _, f := range l.Frames {
		s.ch <- f
	}
	close(s.ch)
	return s, nil
}

// Reset clears all recorded calls. Thread-safe.
func (l *Landmarker) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ExtractCalls = nil
}

// Ensure Landmarker implements vision.Landmarker at compile time.
var _ vision.Landmarker = (*Landmarker)(nil)

// Stream is the replay stream returned by Landmarker.Extract.
type Stream struct {
	ch  chan vision.Frame
	err error

	mu             sync.Mutex
	CloseCallCount int
}

// Frames returns the pre-filled, already-closed frame channel.
func (s *Stream) Frames() <-chan vision.Frame { return s.ch }

// Err returns the configured StreamErr.
func (s *Stream) Err() error { return s.err }

// Close records the call and returns nil.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CloseCallCount++
	return nil
}

// Ensure Stream implements vision.Stream at compile time.
var _ vision.Stream = (*Stream)(nil)
