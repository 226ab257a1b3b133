// Package report synthesizes the user-facing analysis artifacts: timeline
// markers, plain-language summary feedback, and the final result document.
package report

import (
	"fmt"
	"math"
	"sort"

	"github.com/venlo-ai/cadence/internal/delivery"
	"github.com/venlo-ai/cadence/internal/speech"
)

// Marker severities.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Relative timeline positions for issues without a concrete timestamp.
const (
	pacePosition       = 0.25
	fillerBasePosition = 0.35
	fillerStepPosition = 0.18
	tonePosition       = 0.40
	silencePosition    = 0.55
	volumePosition     = 0.75
	stutterPosition    = 0.65
	baselinePosition   = 0.50
)

// maxFillerMarkers caps the number of per-word filler markers.
const maxFillerMarkers = 3

// fillerWarningCount is the occurrence count at which a filler marker
// escalates from info to warning.
const fillerWarningCount = 3

// Marker is one point on the session timeline worth the speaker's attention.
type Marker struct {
	Second   float64 `json:"second"`
	Category string  `json:"category"`
	Severity string  `json:"severity"`
	Message  string  `json:"message"`
}

// BuildMarkers derives timeline markers from the speech and delivery
// metrics. Issues with measured positions (trailing-off, awkward silences)
// anchor there; the rest spread over fixed fractions of the session. A clean
// session gets a single baseline marker. Markers come back sorted by time.
func BuildMarkers(sp speech.Metrics, del delivery.Metrics, duration float64) []Marker {
	if duration <= 0 {
		duration = 30.0
	}

	var markers []Marker
	add := func(second float64, category, severity, message string) {
		markers = append(markers, Marker{
			Second:   round2(math.Max(0, second)),
			Category: category,
			Severity: severity,
			Message:  message,
		})
	}

	switch sp.PaceLabel {
	case "fast":
		add(duration*pacePosition, "pace", SeverityWarning,
			"Pace is fast here. Add short pauses to improve clarity.")
	case "slow":
		add(duration*pacePosition, "pace", SeverityWarning,
			"Pace is slow here. Tighten sentence openings and transitions.")
	}

	for idx, filler := range sp.FillerWords {
		if idx >= maxFillerMarkers {
			break
		}
		severity := SeverityInfo
		if filler.Count >= fillerWarningCount {
			severity = SeverityWarning
		}
		add(duration*(fillerBasePosition+float64(idx)*fillerStepPosition), "filler_words", severity,
			fmt.Sprintf("Filler word %q appears often (%d times).", filler.Word, filler.Count))
	}

	if sp.StutterEvents > 0 {
		add(duration*stutterPosition, "fluency", SeverityWarning,
			fmt.Sprintf("Repeated-word stutters detected (%d).", sp.StutterEvents))
	}

	if del.Pitch.Label == "monotone" {
		add(duration*tonePosition, "tone", SeverityWarning,
			"Low pitch variation detected. Add more vocal inflection on key points.")
	}

	volumeTS := duration * volumePosition
	if len(del.Volume.TrailingOffExamples) > 0 {
		volumeTS = del.Volume.TrailingOffExamples[0].Start
	}
	if del.Volume.TooQuiet {
		add(volumeTS, "volume", SeverityWarning,
			"Overall volume is low. Project your voice more consistently.")
	} else if del.Volume.TrailingOffRatio >= 0.35 {
		add(volumeTS, "volume", SeverityWarning,
			"You tend to trail off at sentence endings. Maintain volume through the final word.")
	}

	silenceTS := duration * silencePosition
	if len(del.Pause.AwkwardExamples) > 0 {
		silenceTS = del.Pause.AwkwardExamples[0].Start
	}
	if del.Pause.AwkwardSilences > 0 {
		add(silenceTS, "silence", SeverityWarning,
			"Awkward mid-sentence silence detected. Pause after complete thoughts instead.")
	}

	if len(markers) == 0 {
		add(duration*baselinePosition, "overall", SeverityInfo,
			"Great baseline delivery. Keep practicing for consistency.")
	}

	sort.SliceStable(markers, func(i, j int) bool {
		return markers[i].Second < markers[j].Second
	})
	return markers
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
