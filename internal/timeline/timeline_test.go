package timeline_test

import (
	"testing"

	"github.com/venlo-ai/cadence/internal/timeline"
	"github.com/venlo-ai/cadence/pkg/transcribe"
)

func word(text string, start, end float64) transcribe.Word {
	return transcribe.Word{Word: text, Start: start, End: end}
}

// ---- sanitizing -------------------------------------------------------------

func TestNew_DropsBlanksAndReindexes(t *testing.T) {
	tl := timeline.New([]transcribe.Word{
		word("hello", 0, 0.5),
		word("   ", 0.5, 0.6),
		word("world", 0.6, 1.0),
	})
	words := tl.Words()
	if len(words) != 2 {
		t.Fatalf("expected 2 words, got %d", len(words))
	}
	if words[1].Word != "world" || words[1].Index != 1 {
		t.Errorf("expected world reindexed to 1, got %+v", words[1])
	}
}

func TestNew_RepairsTimestamps(t *testing.T) {
	tl := timeline.New([]transcribe.Word{
		word("neg", -1.5, -0.5),
		word("inverted", 3.0, 2.0),
	})
	words := tl.Words()
	if words[0].Start != 0 {
		t.Errorf("negative start should clamp to 0, got %v", words[0].Start)
	}
	if words[1].End != 3.0 {
		t.Errorf("inverted end should raise to start, got %v", words[1].End)
	}
}

// ---- sentence boundaries ----------------------------------------------------

func TestIsSentenceBoundary(t *testing.T) {
	cases := []struct {
		word string
		want bool
	}{
		{"end.", true},
		{"end!", true},
		{"end?", true},
		{`done."`, true},
		{"done.)", true},
		{"mid", false},
		{"semi;", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := timeline.IsSentenceBoundary(tc.word); got != tc.want {
			t.Errorf("IsSentenceBoundary(%q) = %v, want %v", tc.word, got, tc.want)
		}
	}
}

func TestSentences_SplitsOnPunctuationAndGaps(t *testing.T) {
	tl := timeline.New([]transcribe.Word{
		word("First", 0, 0.4),
		word("sentence.", 0.4, 1.0),
		word("Second", 1.2, 1.6),
		word("part", 1.6, 2.0),
		// 1.5s silence gap forces a split without punctuation.
		word("third", 3.5, 4.0),
	})

	spans := tl.Sentences(10)
	if len(spans) != 3 {
		t.Fatalf("expected 3 spans, got %d: %+v", len(spans), spans)
	}
	if spans[0].Start != 0 || spans[0].End != 1.0 {
		t.Errorf("span 0 = %+v, want [0, 1.0]", spans[0])
	}
	if spans[1].Start != 1.2 || spans[1].End != 2.0 {
		t.Errorf("span 1 = %+v, want [1.2, 2.0]", spans[1])
	}
}

func TestSentences_DropsShortSpansAndClamps(t *testing.T) {
	tl := timeline.New([]transcribe.Word{
		word("blip.", 0, 0.2), // 0.2s sentence, below the 0.4s floor
		word("long", 1.0, 2.0),
		word("tail", 2.0, 9.0),
	})
	spans := tl.Sentences(5.0)
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d: %+v", len(spans), spans)
	}
	if spans[0].End != 5.0 {
		t.Errorf("span end should clamp to duration, got %v", spans[0].End)
	}
}

func TestSentences_Empty(t *testing.T) {
	if spans := timeline.New(nil).Sentences(10); spans != nil {
		t.Errorf("expected nil spans for empty timeline, got %+v", spans)
	}
}

// ---- flag segmentation ------------------------------------------------------

func TestSegments_MinDurationFilter(t *testing.T) {
	samples := []timeline.Sample{
		{Timestamp: 0.0, Flag: true},
		{Timestamp: 1.0, Flag: true},
		{Timestamp: 2.0, Flag: true}, // 2s run, kept at min 2.0
		{Timestamp: 3.0, Flag: false},
		{Timestamp: 4.0, Flag: true},
		{Timestamp: 5.0, Flag: true}, // 1s run, dropped
		{Timestamp: 6.0, Flag: false},
	}

	events := timeline.Segments(samples, 2.0)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d: %+v", len(events), events)
	}
	if events[0].Start != 0 || events[0].End != 2.0 {
		t.Errorf("event = %+v, want [0, 2.0]", events[0])
	}
	if events[0].StartClock != "00:00:00.00" || events[0].EndClock != "00:00:02.00" {
		t.Errorf("unexpected clocks: %q .. %q", events[0].StartClock, events[0].EndClock)
	}
}

func TestSegments_TrailingRunIsClosed(t *testing.T) {
	samples := []timeline.Sample{
		{Timestamp: 1.0, Flag: false},
		{Timestamp: 2.0, Flag: true},
		{Timestamp: 5.5, Flag: true},
	}
	events := timeline.Segments(samples, 2.0)
	if len(events) != 1 {
		t.Fatalf("expected trailing run to close, got %+v", events)
	}
	if events[0].Duration() != 3.5 {
		t.Errorf("duration = %v, want 3.5", events[0].Duration())
	}
}

func TestSegments_Empty(t *testing.T) {
	if events := timeline.Segments(nil, 1.0); events != nil {
		t.Errorf("expected nil for empty signal, got %+v", events)
	}
}

// ---- clock formatting -------------------------------------------------------

func TestClock(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00.00"},
		{61.25, "00:01:01.25"},
		{3723.5, "01:02:03.50"},
		{-4, "00:00:00.00"},
	}
	for _, tc := range cases {
		if got := timeline.Clock(tc.seconds); got != tc.want {
			t.Errorf("Clock(%v) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}
