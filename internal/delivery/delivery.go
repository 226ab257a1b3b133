// Package delivery analyzes the vocal delivery of a speaking session from its
// decoded audio and word timeline: pitch variation, volume consistency, and
// pause quality.
//
// Every analyzer degrades to an explicit "unknown" verdict instead of failing
// when its input is missing or too small, so a session with no usable audio
// still produces a complete metrics object.
package delivery

import (
	"github.com/venlo-ai/cadence/internal/timeline"
	"github.com/venlo-ai/cadence/pkg/media"
)

// Metrics bundles the three vocal delivery verdicts.
type Metrics struct {
	Pitch  PitchMetrics  `json:"monotone"`
	Volume VolumeMetrics `json:"volume"`
	Pause  PauseMetrics  `json:"silence"`
}

// Unknown returns metrics with every verdict unknown except pauses, which
// only need the word timeline.
func Unknown(tl *timeline.Timeline) Metrics {
	return Metrics{
		Pitch:  UnknownPitch(),
		Volume: UnknownVolume(),
		Pause:  AnalyzePauses(tl.Words()),
	}
}

// Analyze runs all three analyzers. buf may be nil when no audio could be
// decoded; pause analysis still runs off the timeline. The returned notes
// list user-facing diagnostics for degraded verdicts.
func Analyze(buf *media.Buffer, tl *timeline.Timeline, duration float64) (Metrics, []string) {
	notes := []string{}
	m := Unknown(tl)
	if buf == nil || len(buf.Samples) == 0 {
		return m, notes
	}

	m.Pitch = AnalyzePitch(buf.Samples, buf.SampleRate)
	m.Volume = AnalyzeVolume(buf.Samples, buf.SampleRate, tl.Sentences(duration))
	if m.Pitch.Label == "unknown" {
		notes = append(notes, "Could not estimate pitch variation confidently for this recording.")
	}
	return m, notes
}
