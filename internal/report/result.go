package report

import (
	"github.com/venlo-ai/cadence/internal/delivery"
	"github.com/venlo-ai/cadence/internal/nonverbal"
	"github.com/venlo-ai/cadence/internal/speech"
	"github.com/venlo-ai/cadence/pkg/coach"
	"github.com/venlo-ai/cadence/pkg/transcribe"
)

// Result is the complete analysis document for one session, the JSON body
// persisted by the jobstore and returned by the API.
type Result struct {
	Transcript      string             `json:"transcript"`
	DurationSeconds float64            `json:"duration_seconds"`
	Words           []transcribe.Word  `json:"words"`
	Speech          speech.Metrics     `json:"metrics"`
	AudioDelivery   delivery.Metrics   `json:"audio_delivery"`
	NonVerbal       nonverbal.Metrics  `json:"non_verbal"`
	Markers         []Marker           `json:"markers"`
	SummaryFeedback []string           `json:"summary_feedback"`
	Coach           *coach.Feedback    `json:"llm_analysis"`
	ContentPlan     *coach.ContentPlan `json:"personalized_content_plan"`
	FeedbackEvents  []coach.TimedEvent `json:"feedbackEvents"`
	Notes           []string           `json:"notes"`
}

// Normalize replaces nil slices with empty ones so clients always see the
// same document shape.
func (r *Result) Normalize() {
	if r.Words == nil {
		r.Words = []transcribe.Word{}
	}
	if r.Markers == nil {
		r.Markers = []Marker{}
	}
	if r.SummaryFeedback == nil {
		r.SummaryFeedback = []string{}
	}
	if r.FeedbackEvents == nil {
		r.FeedbackEvents = []coach.TimedEvent{}
	}
	if r.Notes == nil {
		r.Notes = []string{}
	}
	if r.ContentPlan == nil {
		r.ContentPlan = coach.SafeContentPlan(r.Transcript)
	}
}
