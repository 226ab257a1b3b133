package delivery

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/venlo-ai/cadence/internal/timeline"
)

// Volume profiling parameters.
const (
	volumeFrameSeconds = 0.05
	volumeHopSeconds   = 0.025

	// quietMeanDBFS is the mean loudness below which the whole clip is
	// flagged too quiet.
	quietMeanDBFS = -33.0

	// inconsistentStdDBFS flags erratic loudness.
	inconsistentStdDBFS = 7.5

	// Trailing-off detection: a sentence trails off when the RMS of its tail
	// drops below trailingRatioFloor of the body RMS. Sentences shorter than
	// trailingMinSpanSeconds are skipped; the inspected tail is at most
	// trailingTailSeconds.
	trailingRatioFloor     = 0.62
	trailingMinSpanSeconds = 0.9
	trailingTailSeconds    = 0.35

	// trailingRatioThreshold is the share of sentences trailing off at which
	// the clip is labeled inconsistent.
	trailingRatioThreshold = 0.35

	maxTrailingExamples = 5
)

// TrailingOffExample is one sentence ending that loses volume.
type TrailingOffExample struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Ratio float64 `json:"ratio"`
}

// VolumeMetrics describes loudness consistency over a clip.
type VolumeMetrics struct {
	ConsistencyLabel    string               `json:"consistency_label"`
	MeanDBFS            *float64             `json:"mean_dbfs"`
	DBFSStd             *float64             `json:"dbfs_std"`
	TooQuiet            bool                 `json:"too_quiet"`
	TrailingOffEvents   int                  `json:"trailing_off_events"`
	TrailingOffRatio    float64              `json:"trailing_off_ratio"`
	TrailingOffExamples []TrailingOffExample `json:"trailing_off_examples"`
}

// UnknownVolume is the verdict when loudness cannot be profiled.
func UnknownVolume() VolumeMetrics {
	return VolumeMetrics{
		ConsistencyLabel:    "unknown",
		TrailingOffExamples: []TrailingOffExample{},
	}
}

// AnalyzeVolume profiles loudness in 50ms dBFS frames and inspects each
// sentence span for a trailing-off ending. spans come from the word timeline;
// with no spans only the whole-clip statistics are produced.
func AnalyzeVolume(samples []float32, sampleRate int, spans []timeline.Span) VolumeMetrics {
	frameSize := max(1, int(volumeFrameSeconds*float64(sampleRate)))
	hopSize := max(1, int(volumeHopSeconds*float64(sampleRate)))

	var dbValues []float64
	for start := 0; start+frameSize < len(samples); start += hopSize {
		rms := rmsOf(samples[start : start+frameSize])
		dbValues = append(dbValues, 20.0*math.Log10(math.Max(rms, 1e-7)))
	}
	if len(dbValues) == 0 {
		return UnknownVolume()
	}

	meanDBFS := stat.Mean(dbValues, nil)
	stdDBFS := stat.PopStdDev(dbValues, nil)
	tooQuiet := meanDBFS < quietMeanDBFS

	examples := []TrailingOffExample{}
	for _, span := range spans {
		spanDur := span.End - span.Start
		if spanDur < trailingMinSpanSeconds {
			continue
		}

		startIdx := int(span.Start * float64(sampleRate))
		endIdx := min(int(span.End*float64(sampleRate)), len(samples))
		if endIdx <= startIdx+10 {
			continue
		}

		segment := samples[startIdx:endIdx]
		tailSeconds := math.Min(trailingTailSeconds, spanDur*trailingTailSeconds)
		tailLen := int(tailSeconds * float64(sampleRate))
		if tailLen <= 10 || tailLen >= len(segment) {
			continue
		}

		bodyRMS := rmsOf(segment[:len(segment)-tailLen])
		tailRMS := rmsOf(segment[len(segment)-tailLen:])
		if bodyRMS <= 1e-7 {
			continue
		}

		if ratio := tailRMS / bodyRMS; ratio < trailingRatioFloor {
			examples = append(examples, TrailingOffExample{
				Start: round2(math.Max(span.Start, span.End-tailSeconds)),
				End:   round2(span.End),
				Ratio: round2(ratio),
			})
		}
	}

	trailingRatio := 0.0
	if len(spans) > 0 {
		trailingRatio = float64(len(examples)) / float64(len(spans))
	}

	var label string
	switch {
	case tooQuiet:
		label = "too_quiet"
	case trailingRatio >= trailingRatioThreshold || stdDBFS > inconsistentStdDBFS:
		label = "inconsistent"
	default:
		label = "consistent"
	}

	kept := examples
	if len(kept) > maxTrailingExamples {
		kept = kept[:maxTrailingExamples]
	}

	return VolumeMetrics{
		ConsistencyLabel:    label,
		MeanDBFS:            ptr(round2(meanDBFS)),
		DBFSStd:             ptr(round2(stdDBFS)),
		TooQuiet:            tooQuiet,
		TrailingOffEvents:   len(examples),
		TrailingOffRatio:    round2(trailingRatio),
		TrailingOffExamples: kept,
	}
}

func rmsOf(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}
