package coach

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// maxTranscriptWords bounds the indexed transcript to avoid excessive latency
// on very long recordings.
const maxTranscriptWords = 2000

// systemPrompt instructs the model to return the exact JSON contract that
// ParseFeedback validates.
const systemPrompt = `You are an expert public speaking coach. You will be given a numbered transcript in the format:
[0]word [1]word [2]word ...

Analyze the speech and return ONLY a valid JSON object with this exact shape — no markdown, no explanation, no extra text:

{
  "scores": {
    "clarity": <integer 1-10>,
    "pace_consistency": <integer 1-10>,
    "confidence_language": <integer 1-10>,
    "content_structure": <integer 1-10>,
    "filler_word_density": <integer 1-10>
  },
  "strengths": ["<strength sentence>", "<strength sentence>"],
  "improvements": [
    { "title": "<short title>", "detail": "<explanation>", "actionable_tip": "<specific advice>" }
  ],
  "structure": {
    "has_clear_intro": <true or false>,
    "has_clear_conclusion": <true or false>,
    "body_feedback": "<one sentence about the body of the speech>"
  },
  "feedbackEvents": [
    {
      "type": "<one of: weak_language, confidence, grammar, content>",
      "word_index": <integer — the [N] index of the flagged word>,
      "severity": "<one of: low, medium, high>",
      "title": "<short title>",
      "message": "<actionable coaching message>"
    }
  ],
  "stats": {
    "flagged_sentences": <integer>
  }
}

Analyze for: hedging language ("I think", "maybe", "kind of"), missing evidence, unclear transitions, grammar issues, weak confidence markers, and content quality.

Rules:
- Respond with the JSON object ONLY. No markdown code fences. No explanation before or after.
- filler_word_density score: 10 = no fillers detected, 1 = excessive fillers throughout
- word_index in feedbackEvents must be an integer matching a [N] index from the transcript
- Limit feedbackEvents to the 10 most important issues
- strengths: 2-3 items; improvements: 2-4 items

Non-verbal context rules (applies when a "--- Context ---" block is provided):
- If activity_level is "unknown", do NOT mention gestures or body language anywhere in your response.
- If activity_level is "low", include one improvement about using more deliberate hand gestures.
- If activity_level is "moderate", acknowledge good physical engagement in strengths or body_feedback.
- If activity_level is "high", note energetic delivery and suggest channeling gestures with intention.`

// RetryInstruction is appended as a follow-up user message when the first
// response failed validation.
const RetryInstruction = "Your previous response was missing required fields. " +
	"Return the COMPLETE JSON object with ALL fields: " +
	"scores, strengths, improvements, structure, feedbackEvents, stats. " +
	"No markdown fences, no explanation."

// presetContext maps a speaking preset to the rubric adjustment appended to
// the system prompt. The "general" preset adds nothing.
var presetContext = map[string]string{
	"general": "",
	"pitch": "Context: This is a startup or investor PITCH. " +
		"Prioritise: confident, hedge-free language; crisp evidence; a strong opening hook; " +
		"a clear ask or CTA in the conclusion. " +
		"Score confidence_language and content_structure more strictly. " +
		"Flag any hedging (I think / maybe / kind of) as high severity.",
	"classroom": "Context: This is a CLASSROOM or educational presentation. " +
		"Prioritise: clarity of explanation, logical step-by-step structure, appropriate pacing " +
		"for audience comprehension, and helpful examples or analogies. " +
		"Score content_structure and clarity more strictly. " +
		"Pace is more forgiving — slower delivery (100-140 WPM) is acceptable.",
	"interview": "Context: This is a JOB INTERVIEW or professional panel. " +
		"Prioritise: direct answers, concrete examples (prefer STAR structure), " +
		"confident and specific language, no rambling. " +
		"Score confidence_language and clarity more strictly. " +
		"Flag vague or unsupported claims as high severity.",
	"keynote": "Context: This is a KEYNOTE or large-audience talk. " +
		"Prioritise: storytelling, audience engagement, energy and variation, " +
		"memorable phrases, and a powerful open and close. " +
		"Score content_structure and pace_consistency more strictly. " +
		"Reward energetic delivery in strengths when gesture_energy is moderate or high.",
}

// Presets lists the valid preset names.
func Presets() []string {
	return []string{"general", "pitch", "classroom", "interview", "keynote"}
}

// ValidPreset reports whether name is a known preset.
func ValidPreset(name string) bool {
	_, ok := presetContext[name]
	return ok
}

// SystemPrompt returns the full system prompt for the given preset. Unknown
// presets fall back to the general rubric.
func SystemPrompt(preset string) string {
	blurb := presetContext[preset]
	if blurb == "" {
		return systemPrompt
	}
	return systemPrompt + "\n\n" + blurb
}

// UserPrompt renders the indexed transcript and the delivery context block.
func UserPrompt(req Request) string {
	words := req.Words
	truncated := false
	if len(words) > maxTranscriptWords {
		words = words[:maxTranscriptWords]
		truncated = true
	}

	var b strings.Builder
	for i, w := range words {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "[%d]%s", w.Index, w.Word)
	}
	if truncated {
		fmt.Fprintf(&b, " [...transcript truncated at %d words]", maxTranscriptWords)
	}

	b.WriteString("\n\n")
	b.WriteString(contextBlock(req.Context))
	return b.String()
}

// contextBlock renders the "--- Context ---" section the non-verbal rules in
// the system prompt key off.
func contextBlock(c Context) string {
	wpm := "?"
	if c.WordsPerMinute != nil {
		wpm = fmt.Sprintf("%.1f", *c.WordsPerMinute)
	}
	pace := orUnknown(c.PaceLabel)

	lines := []string{
		"--- Context ---",
		fmt.Sprintf("pace: %s (%s WPM)", pace, wpm),
		fmt.Sprintf("filler_words: %d total", c.FillerWordCount),
		fmt.Sprintf("non_verbal: gesture_energy=%.2f, activity_level=%s, samples=%d",
			c.GestureEnergy, orUnknown(c.ActivityLevel), c.GestureSamples),
		fmt.Sprintf("eye_contact_proxy: score=%.1f, level=%s",
			c.EyeContactScore, orUnknown(c.EyeContactLevel)),
		fmt.Sprintf("posture_proxy: score=%.1f, level=%s",
			c.PostureScore, orUnknown(c.PostureLevel)),
	}
	return strings.Join(lines, "\n")
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// ── response parsing ─────────────────────────────────────────────────────────

var (
	fenceOpen  = regexp.MustCompile("(?m)^```(?:json)?\\s*")
	fenceClose = regexp.MustCompile("(?m)```\\s*$")
	jsonObject = regexp.MustCompile(`(?s)\{.*\}`)
)

// ErrInvalidResponse is returned when the model output cannot be parsed into
// a complete Feedback.
var ErrInvalidResponse = errors.New("coach: invalid model response")

// ParseFeedback extracts and validates the JSON feedback object from a raw
// model response. Markdown fences and surrounding prose are tolerated; a
// missing required key fails validation so the caller can retry.
func ParseFeedback(raw string) (*Feedback, error) {
	text := fenceOpen.ReplaceAllString(raw, "")
	text = strings.TrimSpace(fenceClose.ReplaceAllString(text, ""))
	if m := jsonObject.FindString(text); m != "" {
		text = m
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &keys); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	for _, required := range []string{"scores", "strengths", "improvements", "structure", "feedbackEvents", "stats"} {
		if _, ok := keys[required]; !ok {
			return nil, fmt.Errorf("%w: missing key %q", ErrInvalidResponse, required)
		}
	}

	var scoreKeys map[string]json.RawMessage
	if err := json.Unmarshal(keys["scores"], &scoreKeys); err != nil {
		return nil, fmt.Errorf("%w: scores: %v", ErrInvalidResponse, err)
	}
	for _, required := range []string{"clarity", "pace_consistency", "confidence_language", "content_structure", "filler_word_density"} {
		if _, ok := scoreKeys[required]; !ok {
			return nil, fmt.Errorf("%w: missing score %q", ErrInvalidResponse, required)
		}
	}

	var fb Feedback
	if err := json.Unmarshal([]byte(text), &fb); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if fb.Strengths == nil {
		fb.Strengths = []string{}
	}
	if fb.Improvements == nil {
		fb.Improvements = []Improvement{}
	}
	if fb.Events == nil {
		fb.Events = []Event{}
	}
	return &fb, nil
}
