package resilience

import (
	"context"
	"errors"
	"testing"

	"github.com/venlo-ai/cadence/pkg/coach"
	coachmock "github.com/venlo-ai/cadence/pkg/coach/mock"
	"github.com/venlo-ai/cadence/pkg/transcribe"
	transcribemock "github.com/venlo-ai/cadence/pkg/transcribe/mock"
)

func TestCoachFallback_PrimarySuccess(t *testing.T) {
	primary := &coachmock.Coach{Feedback: &coach.Feedback{Strengths: []string{"clear structure"}}}
	fallback := &coachmock.Coach{}

	cf := NewCoachFallback(primary, "openai", FallbackConfig{})
	cf.AddFallback("ollama", fallback)

	fb, err := cf.Review(context.Background(), coach.Request{Transcript: "hello"})
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if len(fb.Strengths) != 1 || fb.Strengths[0] != "clear structure" {
		t.Errorf("feedback = %+v, want primary's", fb)
	}
	if len(fallback.ReviewCalls) != 0 {
		t.Error("fallback must not be called when primary succeeds")
	}
}

func TestCoachFallback_FailsOverToSecondary(t *testing.T) {
	primary := &coachmock.Coach{Err: errTest}
	fallback := &coachmock.Coach{Feedback: &coach.Feedback{Strengths: []string{"good pacing"}}}

	cf := NewCoachFallback(primary, "openai", FallbackConfig{})
	cf.AddFallback("ollama", fallback)

	fb, err := cf.Review(context.Background(), coach.Request{Transcript: "hello"})
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if len(fb.Strengths) != 1 || fb.Strengths[0] != "good pacing" {
		t.Errorf("feedback = %+v, want fallback's", fb)
	}
	if len(primary.ReviewCalls) != 1 {
		t.Errorf("primary calls = %d, want 1", len(primary.ReviewCalls))
	}
}

func TestCoachFallback_AllFail(t *testing.T) {
	primary := &coachmock.Coach{Err: errTest}
	cf := NewCoachFallback(primary, "openai", FallbackConfig{})

	_, err := cf.Review(context.Background(), coach.Request{Transcript: "hello"})
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("err = %v, want ErrAllFailed", err)
	}
}

func TestCoachFallback_PlanFailsOverToSecondary(t *testing.T) {
	primary := &coachmock.Coach{PlanErr: errTest}
	fallback := &coachmock.Coach{ContentPlan: &coach.ContentPlan{TopicSummary: "from fallback"}}

	cf := NewCoachFallback(primary, "openai", FallbackConfig{})
	cf.AddFallback("ollama", fallback)

	plan, err := cf.Plan(context.Background(), coach.PlanRequest{Transcript: "hello"})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if plan.TopicSummary != "from fallback" {
		t.Errorf("plan = %+v, want fallback's", plan)
	}
	if len(primary.PlanCalls) != 1 {
		t.Errorf("primary plan calls = %d, want 1", len(primary.PlanCalls))
	}
}

func TestTranscribeFallback_FailsOverToSecondary(t *testing.T) {
	primary := &transcribemock.Transcriber{Err: errTest}
	fallback := &transcribemock.Transcriber{
		Result: &transcribe.Result{Transcript: "from fallback"},
	}

	tf := NewTranscribeFallback(primary, "whisper", FallbackConfig{})
	tf.AddFallback("whisper-native", fallback)

	res, err := tf.Transcribe(context.Background(), "talk.webm")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if res.Transcript != "from fallback" {
		t.Errorf("transcript = %q, want fallback's", res.Transcript)
	}
}
