package nonverbal

import (
	"math"

	"github.com/venlo-ai/cadence/internal/timeline"
	"github.com/venlo-ai/cadence/pkg/vision"
)

// Pose landmark indices for the shoulders.
const (
	leftShoulderIdx  = 11
	rightShoulderIdx = 12
)

const (
	// swayEventThreshold is the per-frame mid-shoulder displacement that
	// marks active swaying.
	swayEventThreshold = 0.02

	// postureStabilityScale maps raw sway onto the 0-10 stability score.
	postureStabilityScale = 80.0

	// postureMinSegmentSeconds is the shortest sway run worth reporting.
	postureMinSegmentSeconds = 2.0
)

// postureTracker measures upper-body sway as the frame-to-frame displacement
// of the mid-shoulder point.
type postureTracker struct {
	prev   *vision.Point
	sways  []float64
	signal []timeline.Sample
}

// observe feeds one frame's pose landmarks; nil means no pose detected.
func (p *postureTracker) observe(ts float64, pose []vision.Point) {
	mid := midShoulder(pose)
	if mid == nil {
		return
	}
	if p.prev != nil {
		sway := math.Hypot(mid.X-p.prev.X, mid.Y-p.prev.Y)
		p.sways = append(p.sways, sway)
		p.signal = append(p.signal, timeline.Sample{Timestamp: ts, Flag: sway >= swayEventThreshold})
	}
	p.prev = mid
}

// samples returns the number of measured sway values.
func (p *postureTracker) samples() int { return len(p.sways) }

// swayScore returns the mean per-frame sway.
func (p *postureTracker) swayScore() float64 { return mean(p.sways) }

// events returns the contiguous high-sway runs.
func (p *postureTracker) events() []timeline.EventSpan {
	return timeline.Segments(p.signal, postureMinSegmentSeconds)
}

func midShoulder(pose []vision.Point) *vision.Point {
	if len(pose) <= rightShoulderIdx {
		return nil
	}
	return &vision.Point{
		X: (pose[leftShoulderIdx].X + pose[rightShoulderIdx].X) / 2,
		Y: (pose[leftShoulderIdx].Y + pose[rightShoulderIdx].Y) / 2,
	}
}

// StabilityFromSway converts raw sway to a 0-10 stability score; higher means
// steadier posture.
func StabilityFromSway(sway float64) float64 {
	return clamp(10.0-sway*postureStabilityScale, 0, 10)
}

// ClassifyPosture labels the stability score. Fewer than two sway samples
// leave the level unknown.
func ClassifyPosture(score float64, samples int) string {
	switch {
	case samples <= 1:
		return "unknown"
	case score < 4.0:
		return "unstable"
	case score < 7.0:
		return "moderate"
	default:
		return "stable"
	}
}
