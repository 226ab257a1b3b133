package report

import (
	"fmt"

	"github.com/venlo-ai/cadence/internal/delivery"
	"github.com/venlo-ai/cadence/internal/speech"
)

// highFillerCount is the total filler count treated as heavy usage.
const highFillerCount = 6

// BuildSummary turns the speech and delivery metrics into short feedback
// lines, one concern per line, in a fixed order: pace, fillers, fluency,
// tone, volume, pauses.
func BuildSummary(sp speech.Metrics, del delivery.Metrics) []string {
	feedback := []string{}

	wpm := 0.0
	if sp.WordsPerMinute != nil {
		wpm = *sp.WordsPerMinute
	}
	switch sp.PaceLabel {
	case "fast":
		feedback = append(feedback, fmt.Sprintf(
			"You are speaking quickly (~%.0f WPM). Aim for 120-160 WPM and pause at key points.", wpm))
	case "slow":
		feedback = append(feedback, fmt.Sprintf(
			"You are speaking slowly (~%.0f WPM). Try shorter phrases and more vocal energy.", wpm))
	case "good":
		feedback = append(feedback, fmt.Sprintf(
			"Your pace is in a strong range (~%.0f WPM).", wpm))
	}

	switch {
	case sp.FillerWordCount >= highFillerCount:
		feedback = append(feedback,
			"High filler-word usage detected. Replace fillers with short silent pauses.")
	case sp.FillerWordCount > 0:
		feedback = append(feedback,
			"Some filler words detected. Practice intentional pauses before key points.")
	default:
		feedback = append(feedback,
			"Filler-word usage looks clean in this sample.")
	}

	if sp.StutterEvents > 0 {
		feedback = append(feedback,
			"Minor stutter patterns detected. Slow down sentence starts and breathe between points.")
	}

	switch del.Pitch.Label {
	case "monotone":
		feedback = append(feedback,
			"Your pitch variation is limited. Emphasize key words with intentional inflection.")
	case "dynamic":
		feedback = append(feedback,
			"Vocal inflection is dynamic and helps keep attention.")
	}

	if del.Volume.TooQuiet {
		feedback = append(feedback,
			"Overall volume is quiet. Increase projection so every sentence lands clearly.")
	}
	if del.Volume.TrailingOffEvents > 0 {
		feedback = append(feedback,
			"You trail off at sentence endings. Keep your volume steady through the final phrase.")
	}

	if del.Pause.AwkwardSilences > 0 {
		feedback = append(feedback, fmt.Sprintf(
			"%d awkward mid-sentence silence(s) detected. Pause after complete thoughts.", del.Pause.AwkwardSilences))
	} else if del.Pause.EffectivePauses > 0 {
		feedback = append(feedback, fmt.Sprintf(
			"%d effective pause(s) detected after sentence boundaries.", del.Pause.EffectivePauses))
	}

	return feedback
}
