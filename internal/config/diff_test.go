package config_test

import (
	"testing"

	"github.com/venlo-ai/cadence/internal/config"
)

func baseConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			ListenAddr: ":8000",
			LogLevel:   config.LogInfo,
		},
		Analysis: config.AnalysisConfig{
			SampleRate:    16000,
			TargetFPS:     5,
			DefaultPreset: "general",
		},
	}
}

func TestDiff_NoChange(t *testing.T) {
	t.Parallel()
	old := baseConfig()
	new := baseConfig()

	d := config.Diff(old, new)
	if d.Changed() {
		t.Errorf("identical configs should produce no diff, got %+v", d)
	}
}

func TestDiff_LogLevelChange(t *testing.T) {
	t.Parallel()
	old := baseConfig()
	new := baseConfig()
	new.Server.LogLevel = config.LogDebug

	d := config.Diff(old, new)
	if !d.LogLevelChanged {
		t.Fatal("LogLevelChanged should be true")
	}
	if d.NewLogLevel != config.LogDebug {
		t.Errorf("NewLogLevel = %q, want debug", d.NewLogLevel)
	}
	if d.AnalysisChanged {
		t.Error("AnalysisChanged should be false")
	}
}

func TestDiff_AnalysisChange(t *testing.T) {
	t.Parallel()
	old := baseConfig()
	new := baseConfig()
	new.Analysis.DefaultPreset = "interview"
	new.Analysis.TargetFPS = 10

	d := config.Diff(old, new)
	if !d.AnalysisChanged {
		t.Fatal("AnalysisChanged should be true")
	}
	if d.NewAnalysis.DefaultPreset != "interview" {
		t.Errorf("NewAnalysis.DefaultPreset = %q", d.NewAnalysis.DefaultPreset)
	}
	if d.LogLevelChanged {
		t.Error("LogLevelChanged should be false")
	}
}

func TestDiff_ProviderChangeIsNotHotReloadable(t *testing.T) {
	t.Parallel()
	old := baseConfig()
	new := baseConfig()
	new.Providers.Coach.Name = "groq"

	d := config.Diff(old, new)
	if d.Changed() {
		t.Errorf("provider changes must not appear in the hot-reload diff, got %+v", d)
	}
}
