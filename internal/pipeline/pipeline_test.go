package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/venlo-ai/cadence/internal/jobstore"
	"github.com/venlo-ai/cadence/internal/pipeline"
	"github.com/venlo-ai/cadence/internal/report"
	"github.com/venlo-ai/cadence/pkg/coach"
	coachmock "github.com/venlo-ai/cadence/pkg/coach/mock"
	"github.com/venlo-ai/cadence/pkg/transcribe"
	transcribemock "github.com/venlo-ai/cadence/pkg/transcribe/mock"
	"github.com/venlo-ai/cadence/pkg/vision"
	visionmock "github.com/venlo-ai/cadence/pkg/vision/mock"
)

func runJob(t *testing.T, prov pipeline.Providers, job pipeline.Job) (*jobstore.Job, *report.Result) {
	t.Helper()
	ctx := context.Background()
	store := jobstore.NewMemoryStore()

	id, err := store.Create(ctx)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	job.ID = id

	p := pipeline.New(store, prov, pipeline.Config{})
	p.Run(ctx, job)

	stored, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Status != jobstore.StatusDone {
		t.Fatalf("status = %q (error_message %q), want done", stored.Status, stored.ErrorMessage)
	}

	var result report.Result
	if err := json.Unmarshal(stored.Results, &result); err != nil {
		t.Fatalf("unmarshal results: %v", err)
	}
	return stored, &result
}

func hasNote(notes []string, substr string) bool {
	for _, n := range notes {
		if strings.Contains(n, substr) {
			return true
		}
	}
	return false
}

// ---- degraded end to end ----------------------------------------------------

func TestRun_AllBackendsMissing_CompletesWithUnknowns(t *testing.T) {
	_, result := runJob(t, pipeline.Providers{}, pipeline.Job{MediaPath: "missing.webm"})

	if result.DurationSeconds != 30 {
		t.Errorf("duration = %v, want the 30s fallback", result.DurationSeconds)
	}
	if result.AudioDelivery.Pitch.Label != "unknown" {
		t.Errorf("pitch label = %q, want unknown", result.AudioDelivery.Pitch.Label)
	}
	if result.NonVerbal.ActivityLevel != "unknown" {
		t.Errorf("activity = %q, want unknown", result.NonVerbal.ActivityLevel)
	}
	if result.Speech.WordCount != 0 {
		t.Errorf("word count = %d, want 0", result.Speech.WordCount)
	}

	// One note per missing backend plus the duration fallback pair.
	for _, want := range []string{
		"ffprobe not found",
		"Defaulted to 30 seconds",
		"No transcription backend",
		"ffmpeg not found",
		"No vision backend",
		"Transcript is empty",
		"No coaching backend",
	} {
		if !hasNote(result.Notes, want) {
			t.Errorf("missing note containing %q in %v", want, result.Notes)
		}
	}

	// Coach falls back to the neutral default.
	if result.Coach == nil || result.Coach.Scores.Clarity != 5 {
		t.Errorf("coach feedback = %+v, want the neutral default", result.Coach)
	}

	// The content plan degrades to the safe defaults.
	if result.ContentPlan == nil {
		t.Fatal("content plan missing")
	}
	if result.ContentPlan.TopicSummary != "Topic could not be inferred from the transcript." {
		t.Errorf("plan topic = %q, want the empty-transcript default", result.ContentPlan.TopicSummary)
	}
	if len(result.ContentPlan.Improvements) != 3 {
		t.Errorf("plan improvements = %d, want the 3 canned items", len(result.ContentPlan.Improvements))
	}

	// Markers still synthesized (baseline).
	if len(result.Markers) == 0 {
		t.Error("expected at least the baseline marker")
	}
	if result.Words == nil || result.FeedbackEvents == nil || result.SummaryFeedback == nil {
		t.Error("result slices must be non-nil after normalization")
	}
}

// ---- happy path with mocks --------------------------------------------------

func sessionWords() []transcribe.Word {
	text := "today i want to talk about teamwork. collaboration makes hard problems tractable."
	return transcribe.SpreadWords(text, 0, 12, 0)
}

func TestRun_MockedBackends_FullResult(t *testing.T) {
	words := sessionWords()
	tr := &transcribemock.Transcriber{Result: &transcribe.Result{
		Transcript: "today i want to talk about teamwork. collaboration makes hard problems tractable.",
		Words:      words,
		Notes:      []string{},
	}}
	lm := &visionmock.Landmarker{Frames: []vision.Frame{
		{Timestamp: 0.0}, {Timestamp: 0.2}, {Timestamp: 0.4},
	}}
	co := &coachmock.Coach{
		Feedback: &coach.Feedback{
			Scores:    coach.Scores{Clarity: 8, PaceConsistency: 7, ConfidenceLanguage: 8, ContentStructure: 7, FillerWordDensity: 9},
			Strengths: []string{"Clear topic statement"},
			Events: []coach.Event{
				{Type: coach.EventContent, WordIndex: 3, Severity: "low", Title: "Nice opener", Message: "Strong start."},
			},
		},
		ContentPlan: &coach.ContentPlan{
			TopicSummary:     "Teamwork makes hard problems tractable.",
			AudienceTakeaway: "Pair up on the next hard problem.",
			Improvements: []coach.ContentImprovement{
				{Title: "Add one example", ContentIssue: "abstract", SpecificFix: "cite a project", ExampleRevision: "Last quarter two of us ..."},
			},
		},
	}

	_, result := runJob(t, pipeline.Providers{Transcriber: tr, Landmarker: lm, Coach: co},
		pipeline.Job{MediaPath: "talk.webm", DurationSeconds: 12, Preset: "general"})

	if result.Transcript == "" {
		t.Fatal("transcript missing")
	}
	if result.Speech.WordCount != 12 {
		t.Errorf("word count = %d, want 12", result.Speech.WordCount)
	}
	if result.Speech.WordsPerMinute == nil || *result.Speech.WordsPerMinute != 60 {
		t.Errorf("wpm = %v, want 60", result.Speech.WordsPerMinute)
	}
	if result.Coach.Scores.Clarity != 8 {
		t.Errorf("clarity = %d, want the mock's 8", result.Coach.Scores.Clarity)
	}

	// Coach events are resolved onto the word timeline.
	if len(result.FeedbackEvents) != 1 {
		t.Fatalf("feedback events = %+v, want 1", result.FeedbackEvents)
	}
	ev := result.FeedbackEvents[0]
	if ev.WordIndex != 3 || ev.ID == "" {
		t.Errorf("mapped event = %+v", ev)
	}
	if ev.Timestamp != words[3].Start {
		t.Errorf("event timestamp = %v, want word 3 start %v", ev.Timestamp, words[3].Start)
	}

	// The coach saw the assembled context.
	if len(co.ReviewCalls) != 1 {
		t.Fatalf("coach calls = %d, want 1", len(co.ReviewCalls))
	}
	reqCtx := co.ReviewCalls[0].Req.Context
	if reqCtx.Preset != "general" || reqCtx.FillerWordCount != 0 {
		t.Errorf("coach context = %+v", reqCtx)
	}

	// The content plan ran alongside the review on the plain transcript.
	if len(co.PlanCalls) != 1 {
		t.Fatalf("plan calls = %d, want 1", len(co.PlanCalls))
	}
	planReq := co.PlanCalls[0].Req
	if planReq.Transcript != result.Transcript || planReq.Preset != "general" {
		t.Errorf("plan request = %+v", planReq)
	}
	if result.ContentPlan == nil || result.ContentPlan.TopicSummary != "Teamwork makes hard problems tractable." {
		t.Errorf("content plan = %+v, want the mock's", result.ContentPlan)
	}

	// No decoder configured, so tonal analysis degrades with a note.
	if !hasNote(result.Notes, "ffmpeg not found") {
		t.Errorf("missing decoder note in %v", result.Notes)
	}
}

func TestRun_TranscriptOverride_SkipsTranscriber(t *testing.T) {
	tr := &transcribemock.Transcriber{}

	_, result := runJob(t, pipeline.Providers{Transcriber: tr},
		pipeline.Job{
			MediaPath:          "talk.webm",
			DurationSeconds:    10,
			TranscriptOverride: "  this text came from the client  ",
		})

	if result.Transcript != "this text came from the client" {
		t.Errorf("transcript = %q", result.Transcript)
	}
	if len(tr.TranscribeCalls) != 0 {
		t.Error("transcriber must not run when an override is present")
	}
	if !hasNote(result.Notes, "transcript override") {
		t.Errorf("missing override note in %v", result.Notes)
	}
}

func TestRun_FailingCoach_SubstitutesDefault(t *testing.T) {
	co := &coachmock.Coach{Err: errors.New("model unreachable")}

	_, result := runJob(t, pipeline.Providers{Coach: co},
		pipeline.Job{MediaPath: "talk.webm", DurationSeconds: 10})

	if result.Coach == nil || result.Coach.Improvements[0].Title != "Analysis unavailable" {
		t.Errorf("coach feedback = %+v, want the neutral default", result.Coach)
	}
	if !hasNote(result.Notes, "did not return a valid response") {
		t.Errorf("missing coach failure note in %v", result.Notes)
	}
}

func TestRun_FailingPlan_SubstitutesSafeDefaults(t *testing.T) {
	tr := &transcribemock.Transcriber{Result: &transcribe.Result{
		Transcript: "our migration saved costs",
		Words:      transcribe.SpreadWords("our migration saved costs", 0, 4, 0),
	}}
	co := &coachmock.Coach{
		Feedback: &coach.Feedback{Strengths: []string{"Direct claim"}},
		PlanErr:  errors.New("model unreachable"),
	}

	_, result := runJob(t, pipeline.Providers{Transcriber: tr, Coach: co},
		pipeline.Job{MediaPath: "talk.webm", DurationSeconds: 10})

	if result.ContentPlan == nil || !strings.HasPrefix(result.ContentPlan.TopicSummary, "our migration") {
		t.Errorf("content plan = %+v, want safe defaults seeded from the transcript", result.ContentPlan)
	}
	if !hasNote(result.Notes, "baseline plan") {
		t.Errorf("missing plan failure note in %v", result.Notes)
	}

	// The review still succeeded; only the plan degraded.
	if result.Coach == nil || len(result.Coach.Strengths) != 1 || result.Coach.Strengths[0] != "Direct claim" {
		t.Errorf("coach feedback = %+v, want the mock's review", result.Coach)
	}
}

func TestRun_StoreMissingJob_NoPanic(t *testing.T) {
	store := jobstore.NewMemoryStore()
	p := pipeline.New(store, pipeline.Providers{}, pipeline.Config{})

	// Unknown job id: Run must bail out quietly.
	p.Run(context.Background(), pipeline.Job{ID: "ghost", MediaPath: "x.webm"})
}
