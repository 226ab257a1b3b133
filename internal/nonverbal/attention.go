package nonverbal

import (
	"math"

	"github.com/venlo-ai/cadence/internal/timeline"
	"github.com/venlo-ai/cadence/pkg/vision"
)

// Face mesh reference landmark indices.
const (
	leftEyeIdx  = 33
	rightEyeIdx = 263
	noseIdx     = 1
	mouthIdx    = 13
)

// Head-orientation thresholds for the attention proxy.
const (
	yawRatioThreshold   = 0.35
	pitchRatioThreshold = 0.85

	// gazeMinSegmentSeconds is the shortest look-away run worth reporting.
	gazeMinSegmentSeconds = 2.0
)

// attentionTracker derives an eye-contact proxy from face landmarks. Every
// sampled frame contributes to both the gaze-away signal and the eye-contact
// percentage; a frame with no detected face counts as not attentive.
type attentionTracker struct {
	samples   int
	attentive int
	signal    []timeline.Sample
}

// observe feeds one frame. face is nil when no face was detected.
func (a *attentionTracker) observe(ts float64, face []vision.Point) {
	a.samples++
	oriented := false
	if face != nil {
		oriented = faceOriented(face)
		if oriented {
			a.attentive++
		}
	}
	a.signal = append(a.signal, timeline.Sample{Timestamp: ts, Flag: !oriented})
}

// contactPct returns the share of sampled frames spent attentive, 0-100.
func (a *attentionTracker) contactPct() float64 {
	if a.samples == 0 {
		return 0
	}
	return float64(a.attentive) / float64(a.samples) * 100
}

// gazeAwayEvents returns the contiguous look-away runs.
func (a *attentionTracker) gazeAwayEvents() []timeline.EventSpan {
	return timeline.Segments(a.signal, gazeMinSegmentSeconds)
}

// faceOriented reports whether the face points at the camera, using a nose
// offset yaw proxy and a nose-to-mouth pitch proxy. A mesh too small to carry
// the reference landmarks is treated as oriented: detection without evidence
// of looking away should not penalize the speaker.
func faceOriented(face []vision.Point) bool {
	if len(face) <= rightEyeIdx {
		return true
	}
	leftEye := face[leftEyeIdx]
	rightEye := face[rightEyeIdx]
	nose := face[noseIdx]
	mouth := face[mouthIdx]

	eyeMidX := (leftEye.X + rightEye.X) / 2
	eyeMidY := (leftEye.Y + rightEye.Y) / 2
	interEye := math.Max(math.Abs(rightEye.X-leftEye.X), 1e-6)
	eyeToMouth := math.Max(math.Abs(mouth.Y-eyeMidY), 1e-6)

	yawRatio := math.Abs(nose.X-eyeMidX) / interEye
	pitchRatio := math.Abs(nose.Y-eyeMidY) / eyeToMouth

	return yawRatio <= yawRatioThreshold && pitchRatio <= pitchRatioThreshold
}

// ClassifyEyeContact labels the 0-10 eye-contact score. With no sampled
// frames the level is unknown.
func ClassifyEyeContact(score float64, samples int) string {
	switch {
	case samples <= 0:
		return "unknown"
	case score < 4.0:
		return "low"
	case score < 7.0:
		return "moderate"
	default:
		return "high"
	}
}
