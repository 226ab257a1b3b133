package delivery

import (
	"math"

	"github.com/venlo-ai/cadence/internal/timeline"
	"github.com/venlo-ai/cadence/pkg/transcribe"
)

// Pause classification parameters, all in seconds of inter-word gap.
const (
	// pauseFloor: gaps below this are ordinary articulation, not pauses.
	pauseFloor = 0.25

	// boundaryGap: a gap this long counts as a sentence boundary even
	// without punctuation.
	boundaryGap = 0.95

	// Effective pauses sit after a boundary within [effectiveMin, effectiveMax].
	effectiveMin = 0.35
	effectiveMax = 1.4

	// Awkward pauses are mid-sentence gaps >= awkwardMidGap or post-boundary
	// gaps > awkwardBoundaryGap.
	awkwardMidGap      = 0.7
	awkwardBoundaryGap = 1.8

	maxPauseExamples = 6
)

// PauseExample is one classified silence.
type PauseExample struct {
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Duration float64 `json:"duration"`
}

// PauseMetrics describes pause usage over a clip.
type PauseMetrics struct {
	PauseQuality      string         `json:"pause_quality"`
	EffectivePauses   int            `json:"effective_pauses"`
	AwkwardSilences   int            `json:"awkward_silences"`
	EffectiveExamples []PauseExample `json:"effective_examples"`
	AwkwardExamples   []PauseExample `json:"awkward_examples"`
}

// UnknownPauses is the verdict when the transcript is too small to classify.
func UnknownPauses() PauseMetrics {
	return PauseMetrics{
		PauseQuality:      "unknown",
		EffectiveExamples: []PauseExample{},
		AwkwardExamples:   []PauseExample{},
	}
}

// AnalyzePauses classifies every inter-word silence as effective (a breather
// after a completed sentence) or awkward (mid-sentence hesitation or an
// overlong boundary pause). Requires at least two words.
func AnalyzePauses(words []transcribe.Word) PauseMetrics {
	if len(words) < 2 {
		return UnknownPauses()
	}

	var effective, awkward []PauseExample
	for i := 1; i < len(words); i++ {
		prev, curr := words[i-1], words[i]
		gap := math.Max(0, curr.Start-prev.End)
		if gap < pauseFloor {
			continue
		}

		afterBoundary := timeline.IsSentenceBoundary(prev.Word) || gap >= boundaryGap
		sample := PauseExample{
			Start:    round2(prev.End),
			End:      round2(curr.Start),
			Duration: round2(gap),
		}

		if afterBoundary && gap >= effectiveMin && gap <= effectiveMax {
			effective = append(effective, sample)
			continue
		}
		if (!afterBoundary && gap >= awkwardMidGap) || (afterBoundary && gap > awkwardBoundaryGap) {
			awkward = append(awkward, sample)
		}
	}

	var quality string
	switch {
	case len(awkward) > 0 && len(awkward) >= len(effective):
		quality = "needs_work"
	case len(effective) > 0 && len(awkward) == 0:
		quality = "effective"
	case len(effective) > 0 || len(awkward) > 0:
		quality = "mixed"
	default:
		quality = "unknown"
	}

	return PauseMetrics{
		PauseQuality:      quality,
		EffectivePauses:   len(effective),
		AwkwardSilences:   len(awkward),
		EffectiveExamples: capExamples(effective),
		AwkwardExamples:   capExamples(awkward),
	}
}

func capExamples(examples []PauseExample) []PauseExample {
	if examples == nil {
		return []PauseExample{}
	}
	if len(examples) > maxPauseExamples {
		return examples[:maxPauseExamples]
	}
	return examples
}
