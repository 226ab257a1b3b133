package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"transcriber": {"whisper", "whisper-native"},
	"vision":      {"landmarkd"},
	"coach":       {"openai", "anthropic", "gemini", "ollama", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults, and validates
// the result. Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills zero-valued fields with the built-in defaults.
func applyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = ":8000"
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = 512
	}
	if cfg.Analysis.SampleRate == 0 {
		cfg.Analysis.SampleRate = 16000
	}
	if cfg.Analysis.TargetFPS == 0 {
		cfg.Analysis.TargetFPS = 5
	}
	if cfg.Analysis.DefaultPreset == "" {
		cfg.Analysis.DefaultPreset = "general"
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
// Degraded-but-workable configurations only log warnings: the pipeline is
// built to run with any subset of backends.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.MaxUploadMB < 0 {
		errs = append(errs, fmt.Errorf("server.max_upload_mb %d must not be negative", cfg.Server.MaxUploadMB))
	}
	if cfg.Server.TLS != nil {
		if cfg.Server.TLS.CertFile == "" || cfg.Server.TLS.KeyFile == "" {
			errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
		}
	}

	// Analysis
	if cfg.Analysis.SampleRate < 8000 {
		errs = append(errs, fmt.Errorf("analysis.sample_rate %d is below the 8000 Hz minimum for pitch tracking", cfg.Analysis.SampleRate))
	}
	if cfg.Analysis.TargetFPS <= 0 || cfg.Analysis.TargetFPS > 60 {
		errs = append(errs, fmt.Errorf("analysis.target_fps %d is out of range (0, 60]", cfg.Analysis.TargetFPS))
	}

	// Provider name validation — warn for unknown provider names.
	validateProviderName("transcriber", cfg.Providers.Transcriber.Name)
	for _, fb := range cfg.Providers.TranscriberFallbacks {
		validateProviderName("transcriber", fb.Name)
	}
	validateProviderName("vision", cfg.Providers.Vision.Name)
	validateProviderName("coach", cfg.Providers.Coach.Name)
	for _, fb := range cfg.Providers.CoachFallbacks {
		validateProviderName("coach", fb.Name)
	}

	// Fallbacks without a primary cannot be wired.
	if len(cfg.Providers.TranscriberFallbacks) > 0 && cfg.Providers.Transcriber.Name == "" {
		errs = append(errs, errors.New("providers.transcriber_fallbacks is set but providers.transcriber is not configured"))
	}
	if len(cfg.Providers.CoachFallbacks) > 0 && cfg.Providers.Coach.Name == "" {
		errs = append(errs, errors.New("providers.coach_fallbacks is set but providers.coach is not configured"))
	}

	// Backend availability warnings
	if cfg.Providers.Transcriber.Name == "" {
		slog.Warn("no transcriber configured; transcripts and speaking metrics will be unavailable")
	}
	if cfg.Providers.Coach.Name == "" {
		slog.Warn("no coach configured; sessions will receive baseline feedback only")
	}
	if cfg.Providers.Vision.Name == "" {
		slog.Warn("no vision backend configured; non-verbal analysis will be skipped")
	}

	// Storage availability
	if cfg.Storage.PostgresDSN == "" {
		slog.Warn("storage.postgres_dsn is empty; jobs are kept in memory and lost on restart")
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name, may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
