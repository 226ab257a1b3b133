// Package wavfile implements a pure-Go WAV decoder used as a fallback when no
// external decode tool is available. Only .wav containers are handled; other
// formats report media.ErrUnavailable so a decoder chain can move on.
package wavfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"

	"github.com/venlo-ai/cadence/pkg/media"
)

var _ media.Decoder = (*Decoder)(nil)

// Decoder reads RIFF/WAV files via go-audio, downmixes to mono and resamples
// with linear interpolation.
type Decoder struct{}

// NewDecoder returns a WAV file decoder.
func NewDecoder() *Decoder { return &Decoder{} }

// Decode implements media.Decoder.
func (d *Decoder) Decode(ctx context.Context, path string, sampleRate int) (*media.Buffer, error) {
	if strings.ToLower(filepath.Ext(path)) != ".wav" {
		return nil, media.ErrUnavailable
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("wav decode: open: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wav decode: read pcm: %w", err)
	}
	if buf == nil || buf.Format == nil || len(buf.Data) == 0 {
		return nil, media.ErrNoAudio
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	srcRate := buf.Format.SampleRate
	if srcRate <= 0 {
		return nil, fmt.Errorf("wav decode: invalid sample rate %d", srcRate)
	}

	bitDepth := int(dec.BitDepth)
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := float32(int64(1) << (bitDepth - 1))

	// Downmix interleaved channels by averaging.
	frames := len(buf.Data) / channels
	mono := make([]float32, frames)
	for i := range frames {
		var sum float32
		for c := range channels {
			sum += float32(buf.Data[i*channels+c]) / scale
		}
		mono[i] = sum / float32(channels)
	}

	mono = resample(mono, srcRate, sampleRate)
	if len(mono) == 0 {
		return nil, media.ErrNoAudio
	}
	if len(mono) < int(float64(sampleRate)*0.75) {
		return nil, media.ErrTooShort
	}
	return &media.Buffer{Samples: mono, SampleRate: sampleRate}, nil
}

// resample converts samples from srcRate to dstRate with linear
// interpolation. Returns the input unchanged when the rates match.
func resample(samples []float32, srcRate, dstRate int) []float32 {
	if srcRate == dstRate || len(samples) == 0 {
		return samples
	}

	ratio := float64(srcRate) / float64(dstRate)
	outLen := int(float64(len(samples)) / ratio)
	if outLen == 0 {
		return nil
	}

	out := make([]float32, outLen)
	for i := range out {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := float32(pos - float64(idx))
		out[i] = samples[idx]*(1-frac) + samples[idx+1]*frac
	}
	return out
}
