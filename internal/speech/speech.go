// Package speech computes transcript-level delivery metrics: speaking rate,
// filler-word usage, and stutter events.
package speech

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/antzucaro/matchr"
)

// Pace thresholds in words per minute.
const (
	PaceSlowWPM = 110
	PaceFastWPM = 170
)

// nearDuplicateThreshold is the Jaro-Winkler similarity at which two adjacent
// words count as a stutter even when they are not byte-identical
// ("presenting presentin").
const nearDuplicateThreshold = 0.92

// fillerWords are the single-token fillers counted per occurrence. The
// two-word filler "you know" is counted separately by substring search.
var fillerWords = map[string]bool{
	"um":        true,
	"uh":        true,
	"like":      true,
	"actually":  true,
	"basically": true,
	"literally": true,
	"so":        true,
}

var tokenPattern = regexp.MustCompile(`\b[\w']+\b`)

// FillerCount is one filler word with its occurrence count.
type FillerCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Metrics summarizes transcript-level delivery.
type Metrics struct {
	DurationSeconds float64       `json:"duration_seconds"`
	WordCount       int           `json:"word_count"`
	WordsPerMinute  *float64      `json:"words_per_minute"`
	PaceLabel       string        `json:"pace_label"`
	FillerWordCount int           `json:"filler_word_count"`
	FillerWords     []FillerCount `json:"filler_words"`
	StutterEvents   int           `json:"stutter_events"`
}

// Tokenize lowercases text and splits it into word tokens, keeping internal
// apostrophes ("don't").
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// CountFillers counts filler-word occurrences in text, most frequent first.
// Ties break alphabetically so output is deterministic.
func CountFillers(text string) []FillerCount {
	lowered := strings.ToLower(text)
	counts := make(map[string]int)
	for _, tok := range Tokenize(lowered) {
		if fillerWords[tok] {
			counts[tok]++
		}
	}
	if n := strings.Count(lowered, "you know"); n > 0 {
		counts["you know"] = n
	}

	out := make([]FillerCount, 0, len(counts))
	for w, c := range counts {
		out = append(out, FillerCount{Word: w, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Word < out[j].Word
	})
	return out
}

// CountStutters counts adjacent repeated tokens. Near-duplicates of at least
// four runes also count, so trailing-sound repeats are caught.
func CountStutters(tokens []string) int {
	events := 0
	for i := 1; i < len(tokens); i++ {
		prev, curr := tokens[i-1], tokens[i]
		if prev == curr {
			events++
			continue
		}
		if utf8.RuneCountInString(prev) >= 4 && utf8.RuneCountInString(curr) >= 4 &&
			matchr.JaroWinkler(prev, curr, false) >= nearDuplicateThreshold {
			events++
		}
	}
	return events
}

// ClassifyPace labels a speaking rate. A nil rate is unknown.
func ClassifyPace(wpm *float64) string {
	switch {
	case wpm == nil:
		return "unknown"
	case *wpm < PaceSlowWPM:
		return "slow"
	case *wpm > PaceFastWPM:
		return "fast"
	default:
		return "good"
	}
}

// Build computes the full metrics set for a transcript. durationSeconds <= 0
// leaves the speaking rate unknown.
func Build(transcript string, durationSeconds float64) Metrics {
	tokens := Tokenize(transcript)
	fillers := CountFillers(transcript)

	total := 0
	for _, f := range fillers {
		total += f.Count
	}

	var wpm *float64
	if durationSeconds > 0 {
		v := math.Round(float64(len(tokens))/durationSeconds*60*10) / 10
		wpm = &v
	}

	return Metrics{
		DurationSeconds: math.Round(durationSeconds*100) / 100,
		WordCount:       len(tokens),
		WordsPerMinute:  wpm,
		PaceLabel:       ClassifyPace(wpm),
		FillerWordCount: total,
		FillerWords:     fillers,
		StutterEvents:   CountStutters(tokens),
	}
}
