// Package media defines decoding and probing abstractions for session
// recordings.
//
// A Decoder turns a media file into mono PCM samples at a requested rate; a
// Prober estimates the media duration without decoding. Backends that depend
// on external tools report ErrUnavailable when the tool is missing so that a
// chain of decoders can fall through to the next candidate.
package media

import (
	"context"
	"errors"
)

// Sentinel errors returned by decoders and probers. Callers match with
// errors.Is and translate them into user-facing diagnostics.
var (
	// ErrUnavailable means the backend cannot run at all in this environment
	// (binary not on PATH, unsupported container format). A MultiDecoder
	// skips to the next decoder on this error.
	ErrUnavailable = errors.New("media: backend unavailable")

	// ErrNoAudio means decoding succeeded but produced zero samples.
	ErrNoAudio = errors.New("media: no audio samples")

	// ErrTooShort means the decoded audio is too short for reliable
	// downstream analysis.
	ErrTooShort = errors.New("media: audio too short")
)

// Buffer holds decoded mono PCM audio, normalized to [-1, 1].
type Buffer struct {
	Samples    []float32
	SampleRate int
}

// Duration returns the buffer length in seconds, 0 for an empty or
// rate-less buffer.
func (b *Buffer) Duration() float64 {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.SampleRate)
}

// Decoder extracts mono PCM audio from a media file.
type Decoder interface {
	// Decode reads the media file at path and returns mono float32 samples
	// resampled to sampleRate. Returns ErrUnavailable when this backend
	// cannot handle the file in this environment, ErrNoAudio when the file
	// contains no audio, and ErrTooShort when the decoded clip is too short
	// for analysis.
	Decode(ctx context.Context, path string, sampleRate int) (*Buffer, error)
}

// Prober estimates media duration without a full decode.
type Prober interface {
	// Duration returns the media duration in seconds. Returns ErrUnavailable
	// when the probing tool is missing.
	Duration(ctx context.Context, path string) (float64, error)
}

// MultiDecoder tries each decoder in order, skipping backends that report
// ErrUnavailable. The first decoder that either succeeds or fails with a real
// error decides the outcome.
type MultiDecoder struct {
	decoders []Decoder
}

var _ Decoder = (*MultiDecoder)(nil)

// NewMultiDecoder builds a fall-through chain over the given decoders.
func NewMultiDecoder(decoders ...Decoder) *MultiDecoder {
	return &MultiDecoder{decoders: decoders}
}

// Decode implements Decoder.
func (m *MultiDecoder) Decode(ctx context.Context, path string, sampleRate int) (*Buffer, error) {
	for _, d := range m.decoders {
		buf, err := d.Decode(ctx, path, sampleRate)
		if errors.Is(err, ErrUnavailable) {
			continue
		}
		return buf, err
	}
	return nil, ErrUnavailable
}
