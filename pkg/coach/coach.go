// Package coach defines the LLM coaching interface and its JSON feedback
// contract.
//
// A Coach receives an indexed transcript plus delivery context and returns
// structured feedback: scores, strengths, improvements, structure notes, and
// word-anchored feedback events. It also produces a content-specific
// improvement plan from the plain transcript. Backends are thin adapters over
// chat completion APIs; all prompt construction and response validation lives
// here so every backend speaks the same contract.
//
// Coaching is best-effort by design. Callers that must never fail substitute
// [DefaultFeedback] when the backend errors out.
package coach

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/venlo-ai/cadence/pkg/transcribe"
)

// Event types emitted by the model.
const (
	EventWeakLanguage = "weak_language"
	EventConfidence   = "confidence"
	EventGrammar      = "grammar"
	EventContent      = "content"
)

// Context carries the delivery metrics that ground the model's feedback.
// Zero values render as "unknown" in the prompt so the model is told to stay
// silent about signals that were never measured.
type Context struct {
	// PaceLabel is one of "slow", "good", "fast", or "unknown".
	PaceLabel string

	// WordsPerMinute is the measured speaking rate; nil when the session
	// duration was unknown.
	WordsPerMinute *float64

	// FillerWordCount is the total filler-word count in the transcript.
	FillerWordCount int

	// ActivityLevel is the gesture activity label: "low", "moderate",
	// "high", or "unknown".
	ActivityLevel string

	// GestureEnergy is the scaled average hand velocity, 0 when unmeasured.
	GestureEnergy float64

	// GestureSamples is the number of frames the gesture metrics are based on.
	GestureSamples int

	// EyeContactScore and EyeContactLevel describe the attention proxy.
	EyeContactScore float64
	EyeContactLevel string

	// PostureScore and PostureLevel describe the stability proxy.
	PostureScore float64
	PostureLevel string

	// Preset selects the speaking-context rubric: "general", "pitch",
	// "classroom", "interview", or "keynote".
	Preset string
}

// Request is one coaching call.
type Request struct {
	// Words is the index-ordered transcript. Must not be empty.
	Words []transcribe.Word

	// Transcript is the plain transcript text.
	Transcript string

	// Context is the delivery context block appended to the prompt.
	Context Context
}

// Scores are the five 1-10 rubric scores.
type Scores struct {
	Clarity            int `json:"clarity"`
	PaceConsistency    int `json:"pace_consistency"`
	ConfidenceLanguage int `json:"confidence_language"`
	ContentStructure   int `json:"content_structure"`
	FillerWordDensity  int `json:"filler_word_density"`
}

// Improvement is one concrete suggestion.
type Improvement struct {
	Title         string `json:"title"`
	Detail        string `json:"detail"`
	ActionableTip string `json:"actionable_tip"`
}

// Structure describes the shape of the speech.
type Structure struct {
	HasClearIntro      bool   `json:"has_clear_intro"`
	HasClearConclusion bool   `json:"has_clear_conclusion"`
	BodyFeedback       string `json:"body_feedback"`
}

// Event is a word-anchored coaching note as returned by the model.
type Event struct {
	Type      string `json:"type"`
	WordIndex int    `json:"word_index"`
	Severity  string `json:"severity"`
	Title     string `json:"title"`
	Message   string `json:"message"`
}

// Stats carries aggregate counters.
type Stats struct {
	FlaggedSentences int `json:"flagged_sentences"`
}

// Feedback is the validated coaching result.
type Feedback struct {
	Scores       Scores        `json:"scores"`
	Strengths    []string      `json:"strengths"`
	Improvements []Improvement `json:"improvements"`
	Structure    Structure     `json:"structure"`
	Events       []Event       `json:"feedbackEvents"`
	Stats        Stats         `json:"stats"`
}

// Coach is the abstraction over any LLM coaching backend.
//
// Implementations must be safe for concurrent use.
type Coach interface {
	// Review analyzes the transcript and returns structured feedback. Errors
	// indicate the backend failed or returned an unusable response after
	// retrying.
	Review(ctx context.Context, req Request) (*Feedback, error)

	// Plan generates the content-specific improvement plan for the
	// transcript. Callers that must never fail substitute [SafeContentPlan]
	// on error.
	Plan(ctx context.Context, req PlanRequest) (*ContentPlan, error)
}

// DefaultFeedback returns the neutral fallback used when no backend produced
// a valid response. All scores sit at the midpoint so downstream consumers
// can always render something.
func DefaultFeedback() *Feedback {
	return &Feedback{
		Scores: Scores{
			Clarity:            5,
			PaceConsistency:    5,
			ConfidenceLanguage: 5,
			ContentStructure:   5,
			FillerWordDensity:  5,
		},
		Strengths: []string{"Analysis could not be completed — please try again"},
		Improvements: []Improvement{{
			Title:         "Analysis unavailable",
			Detail:        "The coaching model did not return a valid response.",
			ActionableTip: "Try re-uploading the video or check the coaching backend configuration.",
		}},
		Structure: Structure{
			HasClearIntro:      false,
			HasClearConclusion: false,
			BodyFeedback:       "Analysis unavailable.",
		},
		Events: []Event{},
		Stats:  Stats{FlaggedSentences: 0},
	}
}

// TimedEvent is an Event resolved onto the session timeline.
type TimedEvent struct {
	ID        string  `json:"id"`
	Timestamp float64 `json:"timestamp"`
	Type      string  `json:"type"`
	Severity  string  `json:"severity"`
	Title     string  `json:"title"`
	Message   string  `json:"message"`
	WordIndex int     `json:"wordIndex"`
}

// MapEvents converts model events, which carry a word index but no time, into
// timeline events using the word start times. Events pointing at an unknown
// index anchor to the first word, or to t=0 when there are no words. Never
// returns nil.
func MapEvents(events []Event, words []transcribe.Word) []TimedEvent {
	byIndex := make(map[int]transcribe.Word, len(words))
	for _, w := range words {
		byIndex[w.Index] = w
	}

	mapped := make([]TimedEvent, 0, len(events))
	for _, ev := range events {
		var ts float64
		if w, ok := byIndex[ev.WordIndex]; ok {
			ts = w.Start
		} else if len(words) > 0 {
			ts = words[0].Start
		}

		evType := ev.Type
		if evType == "" {
			evType = EventContent
		}
		severity := ev.Severity
		if severity == "" {
			severity = "low"
		}

		mapped = append(mapped, TimedEvent{
			ID:        uuid.NewString(),
			Timestamp: ts,
			Type:      evType,
			Severity:  severity,
			Title:     ev.Title,
			Message:   ev.Message,
			WordIndex: ev.WordIndex,
		})
	}
	return mapped
}

// nonVerbalTerms matches explicit gesture and body-language references in
// generated text.
var nonVerbalTerms = regexp.MustCompile(`(?i)\b(gesture|gestures|hand|hands|body language|non[- ]verbal|posture|physical engagement)\b`)

var multiSpace = regexp.MustCompile(`\s{2,}`)

// EnforceUnknownNonVerbal strips non-verbal claims from the feedback when the
// gesture activity level is unknown. The model is instructed not to mention
// body language in that case, but the rule is enforced deterministically here
// as well: text fields are scrubbed and offending events dropped.
func EnforceUnknownNonVerbal(fb *Feedback, activityLevel string) {
	if !strings.EqualFold(activityLevel, "unknown") {
		return
	}

	for i, s := range fb.Strengths {
		fb.Strengths[i] = scrubNonVerbal(s)
	}
	for i := range fb.Improvements {
		fb.Improvements[i].Title = scrubNonVerbal(fb.Improvements[i].Title)
		fb.Improvements[i].Detail = scrubNonVerbal(fb.Improvements[i].Detail)
		fb.Improvements[i].ActionableTip = scrubNonVerbal(fb.Improvements[i].ActionableTip)
	}
	fb.Structure.BodyFeedback = scrubNonVerbal(fb.Structure.BodyFeedback)

	kept := fb.Events[:0]
	for _, ev := range fb.Events {
		if nonVerbalTerms.MatchString(ev.Title) || nonVerbalTerms.MatchString(ev.Message) {
			continue
		}
		kept = append(kept, ev)
	}
	fb.Events = kept
}

func scrubNonVerbal(text string) string {
	if text == "" {
		return text
	}
	cleaned := nonVerbalTerms.ReplaceAllString(text, "")
	cleaned = strings.Trim(multiSpace.ReplaceAllString(cleaned, " "), " ,.-")
	if cleaned == "" {
		return "Focus on verbal clarity and structure."
	}
	return cleaned
}
