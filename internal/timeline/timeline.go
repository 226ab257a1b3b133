// Package timeline holds the time-indexed primitives shared by the delivery
// and non-verbal analyzers: a sanitized word timeline, sentence spans derived
// from punctuation and silence gaps, and generic flag-signal segmentation.
package timeline

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/venlo-ai/cadence/pkg/transcribe"
)

// sentenceBoundary matches terminal punctuation, optionally followed by
// closing quotes or brackets, at the end of a word.
var sentenceBoundary = regexp.MustCompile(`[.!?]["')\]]*$`)

// IsSentenceBoundary reports whether word ends a sentence.
func IsSentenceBoundary(word string) bool {
	return sentenceBoundary.MatchString(strings.TrimSpace(word))
}

// Timeline is an index-ordered word sequence with sane timestamps. All
// analyzers consume words through a Timeline so malformed backend output is
// repaired exactly once.
type Timeline struct {
	words []transcribe.Word
}

// New sanitizes words into a Timeline: blank tokens are dropped, negative
// starts clamp to zero, and each end is raised to at least its start.
// Indices are rewritten to be sequential after dropping.
func New(words []transcribe.Word) *Timeline {
	cleaned := make([]transcribe.Word, 0, len(words))
	for _, w := range words {
		text := strings.TrimSpace(w.Word)
		if text == "" {
			continue
		}
		if w.Start < 0 {
			w.Start = 0
		}
		if w.End < w.Start {
			w.End = w.Start
		}
		w.Word = text
		w.Index = len(cleaned)
		cleaned = append(cleaned, w)
	}
	return &Timeline{words: cleaned}
}

// Words returns the sanitized words. Callers must not mutate the slice.
func (t *Timeline) Words() []transcribe.Word { return t.words }

// Len returns the number of words.
func (t *Timeline) Len() int { return len(t.words) }

// Span is a half-open time range in seconds.
type Span struct {
	Start float64
	End   float64
}

// Sentences groups the timeline into sentence spans. A sentence closes at
// terminal punctuation or when the silence gap to the next word reaches one
// second. Spans are clamped to [0, duration] and spans shorter than 0.4s are
// discarded.
func (t *Timeline) Sentences(duration float64) []Span {
	if len(t.words) == 0 {
		return nil
	}

	var spans []Span
	spanStart := t.words[0].Start
	prevEnd := t.words[0].End

	for i := 1; i < len(t.words); i++ {
		curr := t.words[i]
		gap := curr.Start - prevEnd
		if gap < 0 {
			gap = 0
		}

		if IsSentenceBoundary(t.words[i-1].Word) || gap >= 1.0 {
			spans = append(spans, Span{Start: spanStart, End: prevEnd})
			spanStart = curr.Start
		}
		if curr.End > prevEnd {
			prevEnd = curr.End
		}
	}
	spans = append(spans, Span{Start: spanStart, End: prevEnd})

	clipEnd := duration
	if clipEnd < 0 {
		clipEnd = 0
	}
	cleaned := make([]Span, 0, len(spans))
	for _, sp := range spans {
		s := sp.Start
		if s < 0 {
			s = 0
		}
		e := sp.End
		if e < s {
			e = s
		}
		if clipEnd > 0 && e > clipEnd {
			e = clipEnd
		}
		if e-s >= 0.4 {
			cleaned = append(cleaned, Span{Start: s, End: e})
		}
	}
	return cleaned
}

// Clock formats seconds as HH:MM:SS.ss.
func Clock(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := int(seconds) / 3600
	m := (int(seconds) % 3600) / 60
	s := seconds - float64(h*3600+m*60)
	return fmt.Sprintf("%02d:%02d:%05.2f", h, m, s)
}
