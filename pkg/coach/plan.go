package coach

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Plan limits. The transcript excerpt keeps plan latency bounded on long
// recordings; improvements are capped so the document stays scannable.
const (
	maxPlanTranscriptWords = 1400
	maxPlanFeedbackItems   = 5
	maxPlanImprovements    = 4

	// planExcerptWords and maxTopicSummaryLen bound the transcript-derived
	// topic summary in the safe default plan.
	planExcerptWords   = 18
	maxTopicSummaryLen = 160
)

// ContentImprovement is one transcript-specific content suggestion.
type ContentImprovement struct {
	Title           string `json:"title"`
	ContentIssue    string `json:"content_issue"`
	SpecificFix     string `json:"specific_fix"`
	ExampleRevision string `json:"example_revision"`
}

// ContentPlan is the content-focused counterpart to [Feedback]: what the talk
// is about, what the audience should take away, and how to strengthen the
// material itself rather than its delivery.
type ContentPlan struct {
	TopicSummary     string               `json:"topic_summary"`
	AudienceTakeaway string               `json:"audience_takeaway"`
	Improvements     []ContentImprovement `json:"improvements"`
}

// PlanRequest is one content-plan call.
type PlanRequest struct {
	// Transcript is the plain transcript text. Must not be blank.
	Transcript string

	// SummaryFeedback is the deterministic summary line-up, used as grounding
	// context. Only the first few items are sent.
	SummaryFeedback []string

	// Preset selects the speaking-context rubric.
	Preset string
}

// planSystemPrompt instructs the model to return the exact JSON contract that
// ParsePlan validates.
const planSystemPrompt = `You are a presentation coach focused on CONTENT quality.

You receive:
- transcript excerpt
- summary feedback
- presentation preset

Return ONLY valid JSON with this exact shape:
{
  "topic_summary": "<one concise sentence describing the topic and claim>",
  "audience_takeaway": "<one sentence for what the audience should remember or do>",
  "improvements": [
    {
      "title": "<short improvement title>",
      "content_issue": "<what is weak in this specific transcript>",
      "specific_fix": "<how to fix it with topic-specific guidance>",
      "example_revision": "<1-2 sentence rewrite/example tailored to this topic>"
    }
  ]
}

Rules:
- Infer the topic from transcript content first.
- Keep improvements specific to this topic and claims.
- Prioritize content logic, evidence quality, specificity, and audience relevance.
- Do NOT focus on delivery mechanics (pace, fillers, body language) unless the transcript topic itself is about delivery.
- Return 3-4 improvements.
- No markdown. No extra keys. No text outside JSON.`

// PlanRetryInstruction is appended as a follow-up user message when the first
// plan response failed validation.
const PlanRetryInstruction = "Return complete JSON only with keys: topic_summary, " +
	"audience_takeaway, improvements[].title, improvements[].content_issue, " +
	"improvements[].specific_fix, improvements[].example_revision."

// PlanSystemPrompt returns the plan system prompt for the given preset.
// Unknown presets fall back to the general rubric.
func PlanSystemPrompt(preset string) string {
	blurb := presetContext[preset]
	if blurb == "" {
		return planSystemPrompt
	}
	return planSystemPrompt + "\n\n" + blurb
}

// planPayload is the user-message body sent to the model.
type planPayload struct {
	TranscriptExcerpt string   `json:"transcript_excerpt"`
	SummaryFeedback   []string `json:"summary_feedback"`
	Preset            string   `json:"preset"`
}

// PlanPrompt renders the user message for a plan request: a JSON payload with
// the transcript excerpt and grounding feedback.
func PlanPrompt(req PlanRequest) string {
	words := strings.Fields(req.Transcript)
	if len(words) > maxPlanTranscriptWords {
		words = words[:maxPlanTranscriptWords]
	}
	feedback := req.SummaryFeedback
	if len(feedback) > maxPlanFeedbackItems {
		feedback = feedback[:maxPlanFeedbackItems]
	}
	if feedback == nil {
		feedback = []string{}
	}

	payload, err := json.Marshal(planPayload{
		TranscriptExcerpt: strings.Join(words, " "),
		SummaryFeedback:   feedback,
		Preset:            req.Preset,
	})
	if err != nil {
		// Marshalling strings cannot fail; keep the signature simple.
		return "{}"
	}
	return string(payload)
}

// SafeContentPlan returns the generic fallback plan used when no backend
// produced a valid response. The topic summary is seeded from the transcript
// opening so the document is never fully anonymous.
func SafeContentPlan(transcript string) *ContentPlan {
	words := strings.Fields(transcript)
	if len(words) > planExcerptWords {
		words = words[:planExcerptWords]
	}
	topic := strings.Join(words, " ")
	if topic == "" {
		topic = "Topic could not be inferred from the transcript."
	}
	if len(topic) > maxTopicSummaryLen {
		topic = topic[:maxTopicSummaryLen]
	}

	return &ContentPlan{
		TopicSummary:     topic,
		AudienceTakeaway: "State one clear claim and support it with one concrete evidence point.",
		Improvements: []ContentImprovement{
			{
				Title:           "Clarify the core claim",
				ContentIssue:    "The main argument is not explicit enough early in the talk.",
				SpecificFix:     "Open with one direct thesis sentence, then support it with two concrete points.",
				ExampleRevision: "My main point is X because of Y and Z. First, ... Second, ...",
			},
			{
				Title:           "Strengthen supporting evidence",
				ContentIssue:    "Some statements are broad and not anchored in specific proof.",
				SpecificFix:     "Add one number, example, or case detail for each major claim.",
				ExampleRevision: "Instead of saying 'this works well,' cite one concrete result and why it matters.",
			},
			{
				Title:           "Tighten audience takeaway",
				ContentIssue:    "The ending does not clearly tell the audience what to remember or do next.",
				SpecificFix:     "Close with one action-oriented takeaway linked to your main claim.",
				ExampleRevision: "So the key action is ____, because it directly improves ____ for ____.",
			},
		},
	}
}

// ParsePlan extracts and validates the JSON content plan from a raw model
// response. Markdown fences and surrounding prose are tolerated; a missing
// key or an empty improvements list fails validation so the caller can retry.
func ParsePlan(raw string) (*ContentPlan, error) {
	text := fenceOpen.ReplaceAllString(raw, "")
	text = strings.TrimSpace(fenceClose.ReplaceAllString(text, ""))
	if m := jsonObject.FindString(text); m != "" {
		text = m
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &keys); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	for _, required := range []string{"topic_summary", "audience_takeaway", "improvements"} {
		if _, ok := keys[required]; !ok {
			return nil, fmt.Errorf("%w: missing key %q", ErrInvalidResponse, required)
		}
	}

	var plan ContentPlan
	if err := json.Unmarshal([]byte(text), &plan); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if len(plan.Improvements) == 0 {
		return nil, fmt.Errorf("%w: improvements is empty", ErrInvalidResponse)
	}

	if len(plan.Improvements) > maxPlanImprovements {
		plan.Improvements = plan.Improvements[:maxPlanImprovements]
	}
	plan.TopicSummary = strings.TrimSpace(plan.TopicSummary)
	plan.AudienceTakeaway = strings.TrimSpace(plan.AudienceTakeaway)
	for i := range plan.Improvements {
		plan.Improvements[i].Title = strings.TrimSpace(plan.Improvements[i].Title)
		plan.Improvements[i].ContentIssue = strings.TrimSpace(plan.Improvements[i].ContentIssue)
		plan.Improvements[i].SpecificFix = strings.TrimSpace(plan.Improvements[i].SpecificFix)
		plan.Improvements[i].ExampleRevision = strings.TrimSpace(plan.Improvements[i].ExampleRevision)
	}
	return &plan, nil
}
