// Package nonverbal derives body-language metrics for a speaking session
// from sampled video landmarks: gesture energy from hand motion, an
// eye-contact proxy from head orientation, and posture stability from
// shoulder sway.
//
// Like the audio analyzers, everything degrades to explicit "unknown" labels
// when video or landmarks are missing. A session recorded as audio-only still
// produces a complete, if empty, metrics object.
package nonverbal

import (
	"context"
	"fmt"
	"math"

	"github.com/venlo-ai/cadence/internal/timeline"
	"github.com/venlo-ai/cadence/pkg/vision"
)

// Metrics is the full non-verbal verdict for one session.
type Metrics struct {
	GestureEnergy    float64              `json:"gesture_energy"`
	ActivityLevel    string               `json:"activity_level"`
	AvgVelocity      float64              `json:"avg_velocity"`
	Samples          int                  `json:"samples"`
	EyeContactScore  float64              `json:"eye_contact_score"`
	EyeContactLevel  string               `json:"eye_contact_level"`
	PostureScore     float64              `json:"posture_score"`
	PostureLevel     string               `json:"posture_level"`
	EyeContactPct    float64              `json:"eye_contact_pct"`
	PostureStability float64              `json:"posture_stability"`
	SwayScore        float64              `json:"sway_score"`
	GazeAwayEvents   []timeline.EventSpan `json:"gaze_away_events"`
	PostureEvents    []timeline.EventSpan `json:"posture_events"`
	Events           []Event              `json:"non_verbal_events"`
}

// Unknown returns the all-unknown verdict, recording how many frames were
// sampled before analysis gave up. Slices are non-nil so the JSON shape is
// stable.
func Unknown(samples int) Metrics {
	return Metrics{
		ActivityLevel:   "unknown",
		EyeContactLevel: "unknown",
		PostureLevel:    "unknown",
		Samples:         samples,
		GazeAwayEvents:  []timeline.EventSpan{},
		PostureEvents:   []timeline.EventSpan{},
		Events:          []Event{},
	}
}

// Analyze extracts landmarks from the video at videoPath and computes the
// non-verbal metrics. lm may be nil when no vision backend is configured; the
// result is then unknown with an explanatory note. Extraction failures
// degrade the same way rather than erroring.
func Analyze(ctx context.Context, lm vision.Landmarker, videoPath string, targetFPS int) (Metrics, []string) {
	notes := []string{}
	if lm == nil {
		notes = append(notes, "No vision backend is configured. Non-verbal analysis was skipped.")
		return Unknown(0), notes
	}

	stream, err := lm.Extract(ctx, videoPath, vision.StreamConfig{TargetFPS: targetFPS})
	if err != nil {
		notes = append(notes, fmt.Sprintf("Landmark extraction failed. Non-verbal analysis unavailable. (%.120s)", err.Error()))
		return Unknown(0), notes
	}
	defer stream.Close()

	var (
		gestures gestureTracker
		gaze     attentionTracker
		posture  postureTracker
		samples  int
	)

	for frame := range stream.Frames() {
		samples++
		gestures.observe(frame.Hands)
		gaze.observe(frame.Timestamp, frame.Face)
		posture.observe(frame.Timestamp, frame.Pose)
	}
	if err := stream.Err(); err != nil {
		notes = append(notes, fmt.Sprintf("Landmark extraction failed mid-stream. Non-verbal analysis unavailable. (%.120s)", err.Error()))
		return Unknown(samples), notes
	}

	energy := gestures.energy()
	activity := ClassifyActivity(energy, gestures.transitions())

	contactPct := gaze.contactPct()
	contactScore := clamp(contactPct/10, 0, 10)
	contactLevel := ClassifyEyeContact(contactScore, gaze.samples)
	gazeEvents := nonNil(gaze.gazeAwayEvents())

	sway := posture.swayScore()
	stability := StabilityFromSway(sway)
	postureLevel := ClassifyPosture(stability, posture.samples())
	postureEvents := nonNil(posture.events())

	return Metrics{
		GestureEnergy:    round3(energy),
		ActivityLevel:    activity,
		AvgVelocity:      round6(gestures.avgVelocity()),
		Samples:          samples,
		EyeContactScore:  round3(contactScore),
		EyeContactLevel:  contactLevel,
		PostureScore:     round3(stability),
		PostureLevel:     postureLevel,
		EyeContactPct:    round3(contactPct),
		PostureStability: round3(stability),
		SwayScore:        round6(sway),
		GazeAwayEvents:   gazeEvents,
		PostureEvents:    postureEvents,
		Events:           BuildEvents(gazeEvents, postureEvents, activity),
	}, notes
}

func nonNil(spans []timeline.EventSpan) []timeline.EventSpan {
	if spans == nil {
		return []timeline.EventSpan{}
	}
	return spans
}

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
func round6(v float64) float64 { return math.Round(v*1e6) / 1e6 }
