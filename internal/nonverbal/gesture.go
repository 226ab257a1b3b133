package nonverbal

// GestureEnergyScale calibrates gesture energy sensitivity. Higher values
// increase the 0-10 energy score for the same motion.
const GestureEnergyScale = 30.0

// Activity thresholds on the 0-10 gesture energy score.
const (
	lowActivityCeil      = 2.5
	moderateActivityCeil = 6.5
)

// gestureTracker accumulates hand-motion velocity between consecutive frames
// that both carry a hand vector. Frames without hands do not reset the
// reference vector, so motion across a brief detection dropout still counts.
type gestureTracker struct {
	prev       []float64
	velocities []float64
}

// observe feeds one frame's hand vector; nil means no hands detected.
func (g *gestureTracker) observe(hands []float64) {
	if hands == nil {
		return
	}
	if g.prev != nil && len(g.prev) == len(hands) {
		var sum float64
		for i := range hands {
			d := hands[i] - g.prev[i]
			if d < 0 {
				d = -d
			}
			sum += d
		}
		g.velocities = append(g.velocities, sum/float64(len(hands)))
	}
	g.prev = hands
}

// transitions returns the number of measured frame-to-frame movements.
func (g *gestureTracker) transitions() int { return len(g.velocities) }

// avgVelocity returns the mean per-frame velocity, 0 with no transitions.
func (g *gestureTracker) avgVelocity() float64 {
	return mean(g.velocities)
}

// energy returns the 0-10 gesture energy score.
func (g *gestureTracker) energy() float64 {
	return clamp(g.avgVelocity()*GestureEnergyScale, 0, 10)
}

// ClassifyActivity labels gesture energy. With no measured transitions the
// level is unknown.
func ClassifyActivity(energy float64, transitions int) string {
	switch {
	case transitions <= 0:
		return "unknown"
	case energy < lowActivityCeil:
		return "low"
	case energy < moderateActivityCeil:
		return "moderate"
	default:
		return "high"
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
