// Package mock provides test doubles for the media package interfaces.
package mock

import (
	"context"
	"sync"

	"github.com/venlo-ai/cadence/pkg/media"
)

// DecodeCall records a single invocation of Decoder.Decode.
type DecodeCall struct {
	Path       string
	SampleRate int
}

// Decoder is a mock implementation of media.Decoder.
type Decoder struct {
	mu sync.Mutex

	// Buffer is returned from Decode when Err is nil.
	Buffer *media.Buffer

	// Err, if non-nil, is returned as the error from Decode.
	Err error

	// DecodeCalls records every call to Decode.
	DecodeCalls []DecodeCall
}

// Decode records the call and returns Buffer, Err.
func (d *Decoder) Decode(ctx context.Context, path string, sampleRate int) (*media.Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.DecodeCalls = append(d.DecodeCalls, DecodeCall{Path: path, SampleRate: sampleRate})
	if d.Err != nil {
		return nil, d.Err
	}
	return d.Buffer, nil
}

// Reset clears all recorded calls. Thread-safe.
func (d *Decoder) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.DecodeCalls = nil
}

var _ media.Decoder = (*Decoder)(nil)

// Prober is a mock implementation of media.Prober.
type Prober struct {
	mu sync.Mutex

	// Seconds is returned from Duration when Err is nil.
	Seconds float64

	// Err, if non-nil, is returned as the error from Duration.
	Err error

	// DurationCalls records the path of every call to Duration.
	DurationCalls []string
}

// Duration records the call and returns Seconds, Err.
func (p *Prober) Duration(ctx context.Context, path string) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.DurationCalls = append(p.DurationCalls, path)
	if p.Err != nil {
		return 0, p.Err
	}
	return p.Seconds, nil
}

// Reset clears all recorded calls. Thread-safe.
func (p *Prober) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.DurationCalls = nil
}

var _ media.Prober = (*Prober)(nil)
