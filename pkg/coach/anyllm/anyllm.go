// Package anyllm provides a universal coaching backend built on
// github.com/mozilla-ai/any-llm-go, a unified multi-provider interface that
// supports OpenAI, Anthropic, Gemini, Ollama, Groq, DeepSeek, Mistral, and
// local llama.cpp/llamafile servers.
//
// Usage:
//
//	c, err := anyllm.New("groq", "llama-3.3-70b-versatile")
//	fb, err := c.Review(ctx, req)
package anyllm

import (
	"context"
	"fmt"
	"strings"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/mozilla-ai/any-llm-go/providers/anthropic"
	"github.com/mozilla-ai/any-llm-go/providers/deepseek"
	"github.com/mozilla-ai/any-llm-go/providers/gemini"
	"github.com/mozilla-ai/any-llm-go/providers/groq"
	"github.com/mozilla-ai/any-llm-go/providers/llamacpp"
	"github.com/mozilla-ai/any-llm-go/providers/llamafile"
	"github.com/mozilla-ai/any-llm-go/providers/mistral"
	"github.com/mozilla-ai/any-llm-go/providers/ollama"
	anyllmoai "github.com/mozilla-ai/any-llm-go/providers/openai"

	"github.com/venlo-ai/cadence/pkg/coach"
)

// maxResponseTokens bounds the model output. The full feedback object fits
// comfortably within 2048 tokens.
const maxResponseTokens = 2048

// Compile-time assertion that Coach implements coach.Coach.
var _ coach.Coach = (*Coach)(nil)

// Coach implements coach.Coach by wrapping github.com/mozilla-ai/any-llm-go.
type Coach struct {
	backend anyllmlib.Provider
	model   string
}

// New creates a new Coach backed by the given LLM provider name.
//
// providerName is one of: "openai", "anthropic", "gemini", "ollama",
// "deepseek", "mistral", "groq", "llamacpp", "llamafile".
//
// model is the specific model to use (e.g., "llama-3.3-70b-versatile").
//
// opts are any-llm-go configuration options (e.g., anyllmlib.WithAPIKey,
// anyllmlib.WithBaseURL). Without an API key option the provider falls back
// to its environment variable (GROQ_API_KEY, OPENAI_API_KEY, ...).
func New(providerName string, model string, opts ...anyllmlib.Option) (*Coach, error) {
	if providerName == "" {
		return nil, fmt.Errorf("anyllm: providerName must not be empty")
	}
	if model == "" {
		return nil, fmt.Errorf("anyllm: model must not be empty")
	}

	backend, err := createBackend(providerName, opts...)
	if err != nil {
		return nil, fmt.Errorf("anyllm: create %q backend: %w", providerName, err)
	}
	return &Coach{backend: backend, model: model}, nil
}

// createBackend creates the underlying any-llm-go provider for the given
// provider name.
func createBackend(providerName string, opts ...anyllmlib.Option) (anyllmlib.Provider, error) {
	switch strings.ToLower(providerName) {
	case "openai":
		return anyllmoai.New(opts...)
	case "anthropic":
		return anthropic.New(opts...)
	case "gemini":
		return gemini.New(opts...)
	case "ollama":
		return ollama.New(opts...)
	case "deepseek":
		return deepseek.New(opts...)
	case "mistral":
		return mistral.New(opts...)
	case "groq":
		return groq.New(opts...)
	case "llamacpp":
		return llamacpp.New(opts...)
	case "llamafile":
		return llamafile.New(opts...)
	default:
		return nil, fmt.Errorf("unsupported provider %q; supported: openai, anthropic, gemini, ollama, deepseek, mistral, groq, llamacpp, llamafile", providerName)
	}
}

// Review implements coach.Coach. The first invalid response triggers one
// retry with a stricter instruction before giving up.
func (c *Coach) Review(ctx context.Context, req coach.Request) (*coach.Feedback, error) {
	if len(req.Words) == 0 {
		return nil, fmt.Errorf("anyllm: request has no words")
	}

	messages := []anyllmlib.Message{
		{Role: anyllmlib.RoleSystem, Content: coach.SystemPrompt(req.Context.Preset)},
		{Role: anyllmlib.RoleUser, Content: coach.UserPrompt(req)},
	}

	fb, firstErr := c.complete(ctx, messages)
	if firstErr == nil {
		coach.EnforceUnknownNonVerbal(fb, req.Context.ActivityLevel)
		return fb, nil
	}

	retry := append(messages, anyllmlib.Message{
		Role:    anyllmlib.RoleUser,
		Content: coach.RetryInstruction,
	})
	fb, retryErr := c.complete(ctx, retry)
	if retryErr != nil {
		return nil, fmt.Errorf("anyllm: review failed after retry: %w (first attempt: %v)", retryErr, firstErr)
	}
	coach.EnforceUnknownNonVerbal(fb, req.Context.ActivityLevel)
	return fb, nil
}

// Plan implements coach.Coach. Like Review, an invalid first response
// triggers one stricter retry.
func (c *Coach) Plan(ctx context.Context, req coach.PlanRequest) (*coach.ContentPlan, error) {
	if strings.TrimSpace(req.Transcript) == "" {
		return nil, fmt.Errorf("anyllm: plan request has no transcript")
	}

	messages := []anyllmlib.Message{
		{Role: anyllmlib.RoleSystem, Content: coach.PlanSystemPrompt(req.Preset)},
		{Role: anyllmlib.RoleUser, Content: coach.PlanPrompt(req)},
	}

	plan, firstErr := c.completePlan(ctx, messages)
	if firstErr == nil {
		return plan, nil
	}

	retry := append(messages, anyllmlib.Message{
		Role:    anyllmlib.RoleUser,
		Content: coach.PlanRetryInstruction,
	})
	plan, retryErr := c.completePlan(ctx, retry)
	if retryErr != nil {
		return nil, fmt.Errorf("anyllm: plan failed after retry: %w (first attempt: %v)", retryErr, firstErr)
	}
	return plan, nil
}

func (c *Coach) complete(ctx context.Context, messages []anyllmlib.Message) (*coach.Feedback, error) {
	raw, err := c.raw(ctx, messages)
	if err != nil {
		return nil, err
	}
	return coach.ParseFeedback(raw)
}

func (c *Coach) completePlan(ctx context.Context, messages []anyllmlib.Message) (*coach.ContentPlan, error) {
	raw, err := c.raw(ctx, messages)
	if err != nil {
		return nil, err
	}
	return coach.ParsePlan(raw)
}

func (c *Coach) raw(ctx context.Context, messages []anyllmlib.Message) (string, error) {
	maxTokens := maxResponseTokens
	resp, err := c.backend.Completion(ctx, anyllmlib.CompletionParams{
		Model:     c.model,
		Messages:  messages,
		MaxTokens: &maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty choices in response")
	}
	return resp.Choices[0].Message.ContentString(), nil
}
