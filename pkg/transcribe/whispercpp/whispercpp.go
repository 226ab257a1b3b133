// Package whispercpp provides an in-process transcriber built on the
// whisper.cpp Go bindings. No server round-trip is involved: the media file is
// decoded to 16 kHz mono PCM and fed straight into a loaded GGML model.
//
// Building this package requires the whisper.cpp static library; see the
// bindings documentation. For deployments without cgo use the HTTP-based
// sibling package instead.
package whispercpp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/venlo-ai/cadence/pkg/media"
	"github.com/venlo-ai/cadence/pkg/transcribe"
)

// modelSampleRate is the only sample rate whisper.cpp accepts.
const modelSampleRate = 16000

// Compile-time assertion that Transcriber implements transcribe.Transcriber.
var _ transcribe.Transcriber = (*Transcriber)(nil)

// Option is a functional option for configuring a Transcriber.
type Option func(*Transcriber)

// WithLanguage sets the transcription language code (e.g., "en"). Defaults to
// auto-detection by the model.
func WithLanguage(lang string) Option {
	return func(t *Transcriber) {
		t.language = lang
	}
}

// Transcriber implements transcribe.Transcriber with an in-process
// whisper.cpp model. A media.Decoder supplies the PCM samples; the model
// itself only ever sees 16 kHz mono float32 audio.
//
// The underlying model context is not reentrant, so calls are serialized with
// a mutex. Safe for concurrent use.
type Transcriber struct {
	mu       sync.Mutex
	model    whisperlib.Model
	decoder  media.Decoder
	language string
}

// New loads the GGML model at modelPath and returns a Transcriber that uses
// decoder to extract PCM audio from media files.
func New(modelPath string, decoder media.Decoder, opts ...Option) (*Transcriber, error) {
	if modelPath == "" {
		return nil, errors.New("whispercpp: modelPath must not be empty")
	}
	if decoder == nil {
		return nil, errors.New("whispercpp: decoder must not be nil")
	}

	model, err := whisperlib.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("whispercpp: load model: %w", err)
	}

	t := &Transcriber{model: model, decoder: decoder}
	for _, o := range opts {
		o(t)
	}
	return t, nil
}

// Transcribe implements transcribe.Transcriber.
func (t *Transcriber) Transcribe(ctx context.Context, mediaPath string) (*transcribe.Result, error) {
	buf, err := t.decoder.Decode(ctx, mediaPath, modelSampleRate)
	if err != nil {
		return nil, fmt.Errorf("whispercpp: decode media: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	wctx, err := t.model.NewContext()
	if err != nil {
		return nil, fmt.Errorf("whispercpp: new context: %w", err)
	}
	if t.language != "" {
		if err := wctx.SetLanguage(t.language); err != nil {
			return nil, fmt.Errorf("whispercpp: set language: %w", err)
		}
	}

	if err := wctx.Process(buf.Samples, nil, nil, nil); err != nil {
		return nil, fmt.Errorf("whispercpp: process audio: %w", err)
	}

	result := &transcribe.Result{Notes: []string{}}
	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("whispercpp: read segment: %w", err)
		}

		text := strings.TrimSpace(segment.Text)
		if text == "" {
			continue
		}
		parts = append(parts, text)
		result.Words = append(result.Words, transcribe.SpreadWords(
			text,
			segment.Start.Seconds(),
			segment.End.Seconds(),
			len(result.Words),
		)...)
	}

	result.Transcript = strings.Join(parts, " ")
	if len(result.Words) > 0 {
		result.Notes = append(result.Notes, "Word timestamps were interpolated from segment timing.")
	}
	return result, nil
}

// Close releases the loaded model. The Transcriber must not be used after
// Close returns.
func (t *Transcriber) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.model == nil {
		return nil
	}
	err := t.model.Close()
	t.model = nil
	return err
}
