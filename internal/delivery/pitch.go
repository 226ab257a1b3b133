package delivery

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Pitch tracking parameters. The autocorrelation search window covers the
// typical speaking fundamental range of 75-320 Hz.
const (
	pitchFrameSeconds = 0.04
	pitchHopSeconds   = 0.02
	pitchMinHz        = 75.0
	pitchMaxHz        = 320.0

	// voicedRMSFloor gates out near-silent frames before autocorrelation.
	voicedRMSFloor = 0.008

	// periodicityFloor is the normalized autocorrelation peak below which a
	// frame is treated as unvoiced.
	periodicityFloor = 0.30

	// minVoicedFrames is the evidence floor for a pitch verdict.
	minVoicedFrames = 8

	monotoneSemitoneStd  = 1.8
	someVariationStdCeil = 3.0
)

// PitchMetrics describes pitch variation over the voiced frames of a clip.
type PitchMetrics struct {
	Label            string   `json:"label"`
	IsMonotone       bool     `json:"is_monotone"`
	MeanPitchHz      *float64 `json:"mean_pitch_hz"`
	PitchVarianceHz  *float64 `json:"pitch_variance_hz"`
	PitchStdSemitone *float64 `json:"pitch_std_semitones"`
	VoicedFrames     int      `json:"voiced_frames"`
}

// UnknownPitch is the verdict when pitch cannot be estimated.
func UnknownPitch() PitchMetrics {
	return PitchMetrics{Label: "unknown"}
}

// AnalyzePitch estimates the fundamental frequency per 40ms frame with
// windowed autocorrelation and labels the clip by the standard deviation of
// pitch in semitones. Clips yielding fewer than minVoicedFrames voiced frames
// stay unknown.
func AnalyzePitch(samples []float32, sampleRate int) PitchMetrics {
	frameSize := int(pitchFrameSeconds * float64(sampleRate))
	hopSize := max(1, int(pitchHopSeconds*float64(sampleRate)))
	minLag := max(1, int(float64(sampleRate)/pitchMaxHz))
	maxLag := max(minLag+1, int(float64(sampleRate)/pitchMinHz))

	if len(samples) < frameSize+1 {
		return UnknownPitch()
	}

	window := hann(frameSize)
	var pitches []float64

	for start := 0; start+frameSize < len(samples); start += hopSize {
		frame := make([]float64, frameSize)
		var mean float64
		for i := range frameSize {
			frame[i] = float64(samples[start+i])
			mean += frame[i]
		}
		mean /= float64(frameSize)

		var energy float64
		for i := range frame {
			frame[i] -= mean
			energy += frame[i] * frame[i]
		}
		if math.Sqrt(energy/float64(frameSize)) < voicedRMSFloor {
			continue
		}

		for i := range frame {
			frame[i] *= window[i]
		}

		autocorr := autocorrelate(frame, maxLag)
		if len(autocorr) <= maxLag {
			continue
		}
		zeroLag := autocorr[0]
		if zeroLag <= 0 {
			continue
		}

		peakIdx := minLag
		for lag := minLag + 1; lag <= maxLag; lag++ {
			if autocorr[lag] > autocorr[peakIdx] {
				peakIdx = lag
			}
		}
		if autocorr[peakIdx]/(zeroLag+1e-9) < periodicityFloor {
			continue
		}

		f0 := float64(sampleRate) / float64(peakIdx)
		if f0 >= pitchMinHz && f0 <= pitchMaxHz {
			pitches = append(pitches, f0)
		}
	}

	if len(pitches) < minVoicedFrames {
		m := UnknownPitch()
		m.VoicedFrames = len(pitches)
		return m
	}

	semitones := make([]float64, len(pitches))
	for i, p := range pitches {
		semitones[i] = math.Log2(math.Max(p, 1e-6))
	}

	meanPitch := stat.Mean(pitches, nil)
	variance := stat.PopVariance(pitches, nil)
	semitoneStd := stat.PopStdDev(semitones, nil) * 12.0

	var label string
	switch {
	case semitoneStd < monotoneSemitoneStd:
		label = "monotone"
	case semitoneStd < someVariationStdCeil:
		label = "some_variation"
	default:
		label = "dynamic"
	}

	return PitchMetrics{
		Label:            label,
		IsMonotone:       label == "monotone",
		MeanPitchHz:      ptr(round1(meanPitch)),
		PitchVarianceHz:  ptr(round2(variance)),
		PitchStdSemitone: ptr(round2(semitoneStd)),
		VoicedFrames:     len(pitches),
	}
}

// autocorrelate computes the raw autocorrelation of frame for lags 0..maxLag.
func autocorrelate(frame []float64, maxLag int) []float64 {
	if maxLag >= len(frame) {
		maxLag = len(frame) - 1
	}
	out := make([]float64, maxLag+1)
	for lag := 0; lag <= maxLag; lag++ {
		var sum float64
		for i := 0; i+lag < len(frame); i++ {
			sum += frame[i] * frame[i+lag]
		}
		out[lag] = sum
	}
	return out
}

// hann returns an n-point Hann window matching the numpy convention
// (endpoints at zero).
func hann(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

func ptr(v float64) *float64 { return &v }

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
