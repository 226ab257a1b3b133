// Package openai provides a coaching backend using the official OpenAI Go
// SDK. It also serves any OpenAI-compatible endpoint (Groq, vLLM, llama.cpp
// server) via WithBaseURL.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"

	"github.com/venlo-ai/cadence/pkg/coach"
)

// DefaultModel is used when no model is configured.
const DefaultModel = oai.ChatModelGPT4o

// temperature is kept low so repeated reviews of the same clip stay stable.
const temperature = 0.2

// Ensure Coach implements the coach.Coach interface.
var _ coach.Coach = (*Coach)(nil)

// Coach implements coach.Coach using the OpenAI chat completions API.
type Coach struct {
	client oai.Client
	model  string
}

// config holds optional configuration for the coach.
type config struct {
	baseURL string
	timeout time.Duration
}

// Option is a functional option for Coach.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL. Use this to point at
// any OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// New constructs a new OpenAI Coach. If model is empty, DefaultModel is used.
func New(apiKey string, model string, opts ...Option) (*Coach, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai coach: apiKey must not be empty")
	}
	if model == "" {
		model = DefaultModel
	}

	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}

	client := oai.NewClient(reqOpts...)
	return &Coach{client: client, model: model}, nil
}

// Review implements coach.Coach. The first invalid response triggers one
// retry with a stricter instruction before giving up.
func (c *Coach) Review(ctx context.Context, req coach.Request) (*coach.Feedback, error) {
	if len(req.Words) == 0 {
		return nil, fmt.Errorf("openai coach: request has no words")
	}

	messages := []oai.ChatCompletionMessageParamUnion{
		oai.SystemMessage(coach.SystemPrompt(req.Context.Preset)),
		oai.UserMessage(coach.UserPrompt(req)),
	}

	fb, firstErr := c.complete(ctx, messages)
	if firstErr == nil {
		coach.EnforceUnknownNonVerbal(fb, req.Context.ActivityLevel)
		return fb, nil
	}

	retry := append(messages, oai.UserMessage(coach.RetryInstruction))
	fb, retryErr := c.complete(ctx, retry)
	if retryErr != nil {
		return nil, fmt.Errorf("openai coach: review failed after retry: %w (first attempt: %v)", retryErr, firstErr)
	}
	coach.EnforceUnknownNonVerbal(fb, req.Context.ActivityLevel)
	return fb, nil
}

// Plan implements coach.Coach. Like Review, an invalid first response
// triggers one stricter retry.
func (c *Coach) Plan(ctx context.Context, req coach.PlanRequest) (*coach.ContentPlan, error) {
	if strings.TrimSpace(req.Transcript) == "" {
		return nil, fmt.Errorf("openai coach: plan request has no transcript")
	}

	messages := []oai.ChatCompletionMessageParamUnion{
		oai.SystemMessage(coach.PlanSystemPrompt(req.Preset)),
		oai.UserMessage(coach.PlanPrompt(req)),
	}

	plan, firstErr := c.completePlan(ctx, messages)
	if firstErr == nil {
		return plan, nil
	}

	retry := append(messages, oai.UserMessage(coach.PlanRetryInstruction))
	plan, retryErr := c.completePlan(ctx, retry)
	if retryErr != nil {
		return nil, fmt.Errorf("openai coach: plan failed after retry: %w (first attempt: %v)", retryErr, firstErr)
	}
	return plan, nil
}

func (c *Coach) complete(ctx context.Context, messages []oai.ChatCompletionMessageParamUnion) (*coach.Feedback, error) {
	raw, err := c.raw(ctx, messages)
	if err != nil {
		return nil, err
	}
	return coach.ParseFeedback(raw)
}

func (c *Coach) completePlan(ctx context.Context, messages []oai.ChatCompletionMessageParamUnion) (*coach.ContentPlan, error) {
	raw, err := c.raw(ctx, messages)
	if err != nil {
		return nil, err
	}
	return coach.ParsePlan(raw)
}

func (c *Coach) raw(ctx context.Context, messages []oai.ChatCompletionMessageParamUnion) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, oai.ChatCompletionNewParams{
		Model:       c.model,
		Messages:    messages,
		Temperature: param.NewOpt(temperature),
	})
	if err != nil {
		return "", fmt.Errorf("completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}
