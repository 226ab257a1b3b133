package config

import (
	"errors"
	"fmt"
	"sync"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/venlo-ai/cadence/pkg/coach"
	coachanyllm "github.com/venlo-ai/cadence/pkg/coach/anyllm"
	coachopenai "github.com/venlo-ai/cadence/pkg/coach/openai"
	"github.com/venlo-ai/cadence/pkg/media"
	"github.com/venlo-ai/cadence/pkg/transcribe"
	"github.com/venlo-ai/cadence/pkg/transcribe/whisper"
	"github.com/venlo-ai/cadence/pkg/transcribe/whispercpp"
	"github.com/venlo-ai/cadence/pkg/vision"
	"github.com/venlo-ai/cadence/pkg/vision/landmarkd"
)

// ErrProviderNotRegistered is returned by Create* methods when no factory has
// been registered under the requested provider name.
var ErrProviderNotRegistered = errors.New("config: provider not registered")

// Registry maps provider names to their constructor functions for each
// backend type. It is safe for concurrent use.
type Registry struct {
	mu          sync.RWMutex
	transcriber map[string]func(ProviderEntry) (transcribe.Transcriber, error)
	vision      map[string]func(ProviderEntry) (vision.Landmarker, error)
	coach       map[string]func(ProviderEntry) (coach.Coach, error)
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		transcriber: make(map[string]func(ProviderEntry) (transcribe.Transcriber, error)),
		vision:      make(map[string]func(ProviderEntry) (vision.Landmarker, error)),
		coach:       make(map[string]func(ProviderEntry) (coach.Coach, error)),
	}
}

// RegisterTranscriber registers a transcriber factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterTranscriber(name string, factory func(ProviderEntry) (transcribe.Transcriber, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transcriber[name] = factory
}

// RegisterVision registers a vision backend factory under name.
func (r *Registry) RegisterVision(name string, factory func(ProviderEntry) (vision.Landmarker, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vision[name] = factory
}

// RegisterCoach registers a coaching backend factory under name.
func (r *Registry) RegisterCoach(name string, factory func(ProviderEntry) (coach.Coach, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.coach[name] = factory
}

// CreateTranscriber instantiates a transcriber using the factory registered
// under entry.Name. Returns [ErrProviderNotRegistered] if no factory has been
// registered for that name.
func (r *Registry) CreateTranscriber(entry ProviderEntry) (transcribe.Transcriber, error) {
	r.mu.RLock()
	factory, ok := r.transcriber[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: transcriber/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateVision instantiates a vision backend using the factory registered under entry.Name.
func (r *Registry) CreateVision(entry ProviderEntry) (vision.Landmarker, error) {
	r.mu.RLock()
	factory, ok := r.vision[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: vision/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// CreateCoach instantiates a coaching backend using the factory registered under entry.Name.
func (r *Registry) CreateCoach(entry ProviderEntry) (coach.Coach, error) {
	r.mu.RLock()
	factory, ok := r.coach[entry.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: coach/%q", ErrProviderNotRegistered, entry.Name)
	}
	return factory(entry)
}

// anyLLMCoachNames are the coach backends served through any-llm-go. "openai"
// is not in this list: it is registered against the official openai-go client
// instead.
var anyLLMCoachNames = []string{
	"anthropic", "gemini", "ollama", "deepseek", "mistral", "groq", "llamacpp", "llamafile",
}

// RegisterBuiltins installs the factories for every built-in provider.
// decoder is handed to the native whisper transcriber for audio extraction.
func RegisterBuiltins(r *Registry, decoder media.Decoder) {
	r.RegisterTranscriber("whisper", func(entry ProviderEntry) (transcribe.Transcriber, error) {
		var opts []whisper.Option
		if entry.Model != "" {
			opts = append(opts, whisper.WithModel(entry.Model))
		}
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, whisper.WithLanguage(lang))
		}
		return whisper.New(entry.BaseURL, opts...)
	})

	r.RegisterTranscriber("whisper-native", func(entry ProviderEntry) (transcribe.Transcriber, error) {
		var opts []whispercpp.Option
		if lang := optString(entry.Options, "language"); lang != "" {
			opts = append(opts, whispercpp.WithLanguage(lang))
		}
		return whispercpp.New(entry.Model, decoder, opts...)
	})

	r.RegisterVision("landmarkd", func(entry ProviderEntry) (vision.Landmarker, error) {
		return landmarkd.New(entry.BaseURL)
	})

	r.RegisterCoach("openai", func(entry ProviderEntry) (coach.Coach, error) {
		var opts []coachopenai.Option
		if entry.BaseURL != "" {
			opts = append(opts, coachopenai.WithBaseURL(entry.BaseURL))
		}
		return coachopenai.New(entry.APIKey, entry.Model, opts...)
	})

	for _, name := range anyLLMCoachNames {
		r.RegisterCoach(name, func(entry ProviderEntry) (coach.Coach, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return coachanyllm.New(name, entry.Model, opts...)
		})
	}
}

// optString extracts a string value from a provider's Options map. Missing
// keys and non-string values yield "".
func optString(options map[string]any, key string) string {
	v, ok := options[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
