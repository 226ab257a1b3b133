package transcribe_test

import (
	"math"
	"testing"

	"github.com/venlo-ai/cadence/pkg/transcribe"
)

func TestSpreadWords_EvenInterpolation(t *testing.T) {
	words := transcribe.SpreadWords("hello there world again", 10.0, 12.0, 4)
	if len(words) != 4 {
		t.Fatalf("expected 4 words, got %d", len(words))
	}

	if words[0].Word != "hello" || words[3].Word != "again" {
		t.Errorf("unexpected word texts: %q ... %q", words[0].Word, words[3].Word)
	}
	if words[0].Index != 4 || words[3].Index != 7 {
		t.Errorf("expected indices 4..7, got %d..%d", words[0].Index, words[3].Index)
	}

	// Each word covers an equal 0.5s slice of [10, 12].
	for i, w := range words {
		wantStart := 10.0 + float64(i)*0.5
		if math.Abs(w.Start-wantStart) > 1e-9 {
			t.Errorf("word %d: start = %v, want %v", i, w.Start, wantStart)
		}
		if math.Abs(w.End-(wantStart+0.5)) > 1e-9 {
			t.Errorf("word %d: end = %v, want %v", i, w.End, wantStart+0.5)
		}
	}
}

func TestSpreadWords_MonotonicAndContiguous(t *testing.T) {
	words := transcribe.SpreadWords("a b c d e f g", 0, 7.7, 0)
	for i := 1; i < len(words); i++ {
		if words[i].Start < words[i-1].Start {
			t.Errorf("word %d starts before word %d", i, i-1)
		}
		if math.Abs(words[i].Start-words[i-1].End) > 1e-9 {
			t.Errorf("word %d start %v does not meet previous end %v", i, words[i].Start, words[i-1].End)
		}
	}
	last := words[len(words)-1]
	if math.Abs(last.End-7.7) > 1e-9 {
		t.Errorf("last word end = %v, want 7.7", last.End)
	}
}

func TestSpreadWords_EmptyText_ReturnsNil(t *testing.T) {
	if got := transcribe.SpreadWords("   ", 0, 5, 0); got != nil {
		t.Fatalf("expected nil for blank text, got %v", got)
	}
}

func TestSpreadWords_ZeroSpan_ReturnsNil(t *testing.T) {
	if got := transcribe.SpreadWords("word", 3, 3, 0); got != nil {
		t.Fatalf("expected nil for zero-length span, got %v", got)
	}
}
