package nonverbal

import (
	"fmt"
	"sort"

	"github.com/venlo-ai/cadence/internal/timeline"
)

// Event types reported on the non-verbal timeline.
const (
	EventGazeAway    = "gaze_away"
	EventHighSway    = "high_sway"
	EventLowGesture  = "low_gesture"
	EventHighGesture = "high_gesture"
)

// highSeveritySeconds is the event duration at which gaze and sway events
// escalate from medium to high severity.
const highSeveritySeconds = 4.0

// Event is one non-verbal observation on the session timeline.
type Event struct {
	Timestamp      float64 `json:"timestamp"`
	TimestampClock string  `json:"timestamp_hms"`
	Type           string  `json:"type"`
	Severity       string  `json:"severity"`
	Title          string  `json:"title"`
	Message        string  `json:"message"`
}

// BuildEvents turns the raw gaze and posture spans plus the overall activity
// level into display events, sorted by timestamp. Never returns nil.
func BuildEvents(gazeAway, posture []timeline.EventSpan, activityLevel string) []Event {
	events := []Event{}

	for _, span := range gazeAway {
		events = append(events, Event{
			Timestamp:      span.Start,
			TimestampClock: timeline.Clock(span.Start),
			Type:           EventGazeAway,
			Severity:       spanSeverity(span),
			Title:          "Eye contact dropped",
			Message:        fmt.Sprintf("Looked away for ~%.1fs.", span.Duration()),
		})
	}

	for _, span := range posture {
		events = append(events, Event{
			Timestamp:      span.Start,
			TimestampClock: timeline.Clock(span.Start),
			Type:           EventHighSway,
			Severity:       spanSeverity(span),
			Title:          "Posture became unstable",
			Message:        fmt.Sprintf("Noticeable upper-body sway for ~%.1fs.", span.Duration()),
		})
	}

	switch activityLevel {
	case "low":
		events = append(events, Event{
			Timestamp:      0,
			TimestampClock: timeline.Clock(0),
			Type:           EventLowGesture,
			Severity:       "low",
			Title:          "Low gesture activity",
			Message:        "Consider using a few deliberate hand gestures for emphasis.",
		})
	case "high":
		events = append(events, Event{
			Timestamp:      0,
			TimestampClock: timeline.Clock(0),
			Type:           EventHighGesture,
			Severity:       "medium",
			Title:          "High gesture activity",
			Message:        "Energetic movement detected; keep gestures intentional.",
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp < events[j].Timestamp
	})
	return events
}

func spanSeverity(span timeline.EventSpan) string {
	if span.Duration() >= highSeveritySeconds {
		return "high"
	}
	return "medium"
}
