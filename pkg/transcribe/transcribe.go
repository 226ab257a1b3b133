// Package transcribe defines the Transcriber interface for batch
// speech-to-text backends.
//
// A Transcriber consumes a media file (audio or video) and returns the full
// transcript together with word-level timestamps. Word timing drives most of
// the downstream delivery analysis — pause classification, sentence spans, and
// coaching-event placement — so implementations should return the most precise
// timestamps the backend offers and fall back to linear interpolation within a
// segment otherwise (see [SpreadWords]).
//
// An empty transcript is a valid, non-error outcome: silent recordings and
// music-only clips transcribe to nothing.
//
// Implementations must be safe for concurrent use.
package transcribe

import (
	"context"
	"strings"
)

// Word is a single transcribed word with its position on the session timeline.
type Word struct {
	// Word is the token text, trimmed of surrounding whitespace. It may carry
	// terminal punctuation (".", "!", "?") which downstream sentence-boundary
	// heuristics rely on.
	Word string `json:"word"`

	// Start is the word onset in seconds from the beginning of the media.
	Start float64 `json:"start"`

	// End is the word offset in seconds. End >= Start.
	End float64 `json:"end"`

	// Index is the zero-based sequence number of the word. Unique per result,
	// monotonically increasing in time.
	Index int `json:"index"`
}

// Result is the outcome of one transcription call.
type Result struct {
	// Transcript is the full transcript text. Empty when nothing was
	// recognised — that is a valid outcome, not an error.
	Transcript string

	// Words holds the index-ordered word tokens. May be empty even when
	// Transcript is not (e.g. when the backend cannot produce word timing).
	Words []Word

	// Notes lists human-readable diagnostics about degraded behaviour
	// (missing word timestamps, partial decode, ...). Never nil on success.
	Notes []string
}

// Transcriber is the abstraction over any batch speech-to-text backend.
//
// Implementations must be safe for concurrent use.
type Transcriber interface {
	// Transcribe runs speech-to-text over the media file at mediaPath and
	// returns the transcript with word-level timestamps.
	//
	// Returns a non-nil *Result on success. An empty result (no words, empty
	// transcript) is valid. Errors indicate the backend itself failed — the
	// caller decides whether that degrades or aborts the surrounding job.
	Transcribe(ctx context.Context, mediaPath string) (*Result, error)
}

// SpreadWords splits text into whitespace-separated words and assigns each an
// evenly interpolated time slice of [start, end]. index is the sequence number
// of the first produced word.
//
// This is the fallback used by backends that report timing per segment rather
// than per word. Returns nil when text contains no words or end <= start.
func SpreadWords(text string, start, end float64, index int) []Word {
	fields := strings.Fields(text)
	if len(fields) == 0 || end <= start {
		return nil
	}

	step := (end - start) / float64(len(fields))
	words := make([]Word, 0, len(fields))
	for i, f := range fields {
		ws := start + float64(i)*step
		words = append(words, Word{
			Word:  strings.TrimSpace(f),
			Start: ws,
			End:   ws + step,
			Index: index + i,
		})
	}
	return words
}
