package resilience

import (
	"context"

	"github.com/venlo-ai/cadence/pkg/coach"
)

// CoachFallback implements [coach.Coach] with automatic failover across
// multiple coaching backends. Each backend has its own circuit breaker.
type CoachFallback struct {
	group *FallbackGroup[coach.Coach]
}

// Compile-time interface assertion.
var _ coach.Coach = (*CoachFallback)(nil)

// NewCoachFallback creates a [CoachFallback] with primary as the preferred
// backend.
func NewCoachFallback(primary coach.Coach, primaryName string, cfg FallbackConfig) *CoachFallback {
	return &CoachFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional coaching backend as a fallback.
func (f *CoachFallback) AddFallback(name string, backend coach.Coach) {
	f.group.AddFallback(name, backend)
}

// Review runs the coaching request against the first healthy backend. When
// every backend fails the caller decides how to degrade; the pipeline
// substitutes [coach.DefaultFeedback].
func (f *CoachFallback) Review(ctx context.Context, req coach.Request) (*coach.Feedback, error) {
	return ExecuteWithResult(f.group, func(c coach.Coach) (*coach.Feedback, error) {
		return c.Review(ctx, req)
	})
}

// Plan runs the content-plan request against the first healthy backend. The
// pipeline substitutes [coach.SafeContentPlan] when every backend fails.
func (f *CoachFallback) Plan(ctx context.Context, req coach.PlanRequest) (*coach.ContentPlan, error) {
	return ExecuteWithResult(f.group, func(c coach.Coach) (*coach.ContentPlan, error) {
		return c.Plan(ctx, req)
	})
}
