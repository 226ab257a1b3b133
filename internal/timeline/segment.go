package timeline

import "math"

// Sample is one point of a boolean signal on the session timeline.
type Sample struct {
	Timestamp float64
	Flag      bool
}

// EventSpan is one contiguous run of an active signal, with clock-formatted
// endpoints for display.
type EventSpan struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	StartClock string  `json:"start_hms"`
	EndClock   string  `json:"end_hms"`
}

// Duration returns the span length in seconds.
func (e EventSpan) Duration() float64 { return e.End - e.Start }

// Segments converts a boolean signal into contiguous event spans. A run
// closes at the first inactive sample; runs shorter than minDuration
// (measured first-active to last-active) are dropped. Endpoints are rounded
// to milliseconds.
func Segments(samples []Sample, minDuration float64) []EventSpan {
	var (
		events   []EventSpan
		start    float64
		lastTrue float64
		active   bool
	)

	flush := func() {
		if !active {
			return
		}
		if lastTrue-start >= minDuration {
			s := round3(start)
			e := round3(lastTrue)
			events = append(events, EventSpan{
				Start:      s,
				End:        e,
				StartClock: Clock(s),
				EndClock:   Clock(e),
			})
		}
		active = false
	}

	for _, sm := range samples {
		if sm.Flag {
			if !active {
				start = sm.Timestamp
				active = true
			}
			lastTrue = sm.Timestamp
			continue
		}
		flush()
	}
	flush()
	return events
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
