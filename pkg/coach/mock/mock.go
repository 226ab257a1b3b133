// Package mock provides a test double for the coach package interface.
package mock

import (
	"context"
	"sync"

	"github.com/venlo-ai/cadence/pkg/coach"
)

// ReviewCall records a single invocation of Coach.Review.
type ReviewCall struct {
	// Ctx is the context passed to Review.
	Ctx context.Context
	// Req is the request passed to Review.
	Req coach.Request
}

// PlanCall records a single invocation of Coach.Plan.
type PlanCall struct {
	// Ctx is the context passed to Plan.
	Ctx context.Context
	// Req is the request passed to Plan.
	Req coach.PlanRequest
}

// Coach is a mock implementation of coach.Coach.
type Coach struct {
	mu sync.Mutex

	// Feedback is returned from Review when Err is nil. If nil, Review
	// returns coach.DefaultFeedback().
	Feedback *coach.Feedback

	// Err, if non-nil, is returned as the error from Review.
	Err error

	// ContentPlan is returned from Plan when PlanErr is nil. If nil, Plan
	// returns coach.SafeContentPlan(req.Transcript).
	ContentPlan *coach.ContentPlan

	// PlanErr, if non-nil, is returned as the error from Plan.
	PlanErr error

	// ReviewCalls records every call to Review.
	ReviewCalls []ReviewCall

	// PlanCalls records every call to Plan.
	PlanCalls []PlanCall
}

// Review records the call and returns Feedback, Err.
func (c *Coach) Review(ctx context.Context, req coach.Request) (*coach.Feedback, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ReviewCalls = append(c.ReviewCalls, ReviewCall{Ctx: ctx, Req: req})
	if c.Err != nil {
		return nil, c.Err
	}
	if c.Feedback != nil {
		return c.Feedback, nil
	}
	return coach.DefaultFeedback(), nil
}

// Plan records the call and returns ContentPlan, PlanErr.
func (c *Coach) Plan(ctx context.Context, req coach.PlanRequest) (*coach.ContentPlan, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.PlanCalls = append(c.PlanCalls, PlanCall{Ctx: ctx, Req: req})
	if c.PlanErr != nil {
		return nil, c.PlanErr
	}
	if c.ContentPlan != nil {
		return c.ContentPlan, nil
	}
	return coach.SafeContentPlan(req.Transcript), nil
}

// Reset clears all recorded calls. Thread-safe.
func (c *Coach) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ReviewCalls = nil
	c.PlanCalls = nil
}

// Ensure Coach implements coach.Coach at compile time.
var _ coach.Coach = (*Coach)(nil)
