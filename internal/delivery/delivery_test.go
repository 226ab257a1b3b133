package delivery_test

import (
	"math"
	"testing"

	"github.com/venlo-ai/cadence/internal/delivery"
	"github.com/venlo-ai/cadence/internal/timeline"
	"github.com/venlo-ai/cadence/pkg/media"
	"github.com/venlo-ai/cadence/pkg/transcribe"
)

const testRate = 16000

// ---- helpers ----------------------------------------------------------------

// sine appends a constant-frequency tone of the given duration and amplitude.
func sine(dst []float32, freq, seconds, amplitude float64) []float32 {
	n := int(seconds * testRate)
	phase := 0.0
	step := 2 * math.Pi * freq / testRate
	for range n {
		dst = append(dst, float32(amplitude*math.Sin(phase)))
		phase += step
	}
	return dst
}

func silence(dst []float32, seconds float64) []float32 {
	return append(dst, make([]float32, int(seconds*testRate))...)
}

func wordSeq(entries ...any) *timeline.Timeline {
	// entries come in triples: text, start, end
	var words []transcribe.Word
	for i := 0; i+3 <= len(entries); i += 3 {
		words = append(words, transcribe.Word{
			Word:  entries[i].(string),
			Start: entries[i+1].(float64),
			End:   entries[i+2].(float64),
		})
	}
	return timeline.New(words)
}

// ---- pitch ------------------------------------------------------------------

func TestAnalyzePitch_ConstantTone_Monotone(t *testing.T) {
	samples := sine(nil, 150, 3.0, 0.5)
	m := delivery.AnalyzePitch(samples, testRate)

	if m.Label != "monotone" {
		t.Fatalf("label = %q, want monotone (voiced frames %d)", m.Label, m.VoicedFrames)
	}
	if !m.IsMonotone {
		t.Error("IsMonotone should be true")
	}
	if m.MeanPitchHz == nil || math.Abs(*m.MeanPitchHz-150) > 5 {
		t.Errorf("mean pitch = %v, want ~150", m.MeanPitchHz)
	}
	if m.VoicedFrames < 8 {
		t.Errorf("voiced frames = %d, want >= 8", m.VoicedFrames)
	}
}

func TestAnalyzePitch_SteppedFrequencies_Dynamic(t *testing.T) {
	var samples []float32
	for _, freq := range []float64{100, 130, 170, 220, 280} {
		samples = sine(samples, freq, 0.8, 0.5)
	}

	m := delivery.AnalyzePitch(samples, testRate)
	if m.Label != "dynamic" {
		t.Fatalf("label = %q, want dynamic (std %v)", m.Label, m.PitchStdSemitone)
	}
	if m.PitchStdSemitone == nil || *m.PitchStdSemitone < 3.0 {
		t.Errorf("semitone std = %v, want >= 3.0", m.PitchStdSemitone)
	}
}

func TestAnalyzePitch_Silence_Unknown(t *testing.T) {
	m := delivery.AnalyzePitch(silence(nil, 2.0), testRate)
	if m.Label != "unknown" {
		t.Fatalf("label = %q, want unknown", m.Label)
	}
	if m.VoicedFrames != 0 {
		t.Errorf("voiced frames = %d, want 0", m.VoicedFrames)
	}
	if m.MeanPitchHz != nil {
		t.Error("mean pitch should be nil for unknown verdict")
	}
}

func TestAnalyzePitch_TooShort_Unknown(t *testing.T) {
	m := delivery.AnalyzePitch(make([]float32, 100), testRate)
	if m.Label != "unknown" {
		t.Fatalf("label = %q, want unknown for sub-frame input", m.Label)
	}
}

// ---- volume -----------------------------------------------------------------

func TestAnalyzeVolume_SteadyTone_Consistent(t *testing.T) {
	samples := sine(nil, 200, 4.0, 0.4)
	tl := wordSeq("steady", 0.2, 1.8, "voice.", 1.8, 3.8)

	m := delivery.AnalyzeVolume(samples, testRate, tl.Sentences(4.0))
	if m.ConsistencyLabel != "consistent" {
		t.Fatalf("label = %q, want consistent (std %v)", m.ConsistencyLabel, m.DBFSStd)
	}
	if m.TooQuiet {
		t.Error("steady tone should not be too quiet")
	}
	if m.TrailingOffEvents != 0 {
		t.Errorf("trailing events = %d, want 0", m.TrailingOffEvents)
	}
}

func TestAnalyzeVolume_QuietClip_TooQuiet(t *testing.T) {
	samples := sine(nil, 200, 3.0, 0.001)
	m := delivery.AnalyzeVolume(samples, testRate, nil)
	if !m.TooQuiet {
		t.Fatalf("expected too quiet clip, mean dbfs %v", m.MeanDBFS)
	}
	if m.ConsistencyLabel != "too_quiet" {
		t.Errorf("label = %q, want too_quiet", m.ConsistencyLabel)
	}
}

func TestAnalyzeVolume_TrailingOff_Detected(t *testing.T) {
	// One sentence from 0.5s to 2.5s whose last 0.35s collapses in volume.
	var samples []float32
	samples = silence(samples, 0.5)
	samples = sine(samples, 200, 1.65, 0.5)
	samples = sine(samples, 200, 0.35, 0.03)
	samples = silence(samples, 0.5)

	tl := wordSeq("trailing", 0.5, 1.4, "away.", 1.4, 2.5)
	m := delivery.AnalyzeVolume(samples, testRate, tl.Sentences(3.0))

	if m.TrailingOffEvents < 1 {
		t.Fatalf("expected a trailing-off event, got %+v", m)
	}
	ex := m.TrailingOffExamples[0]
	if math.Abs(ex.Start-2.15) > 0.05 || math.Abs(ex.End-2.5) > 0.05 {
		t.Errorf("example window = [%v, %v], want ~[2.15, 2.5]", ex.Start, ex.End)
	}
	if ex.Ratio >= 0.62 {
		t.Errorf("ratio = %v, want < 0.62", ex.Ratio)
	}
}

func TestAnalyzeVolume_Empty_Unknown(t *testing.T) {
	m := delivery.AnalyzeVolume(nil, testRate, nil)
	if m.ConsistencyLabel != "unknown" {
		t.Fatalf("label = %q, want unknown", m.ConsistencyLabel)
	}
	if m.MeanDBFS != nil {
		t.Error("mean dbfs should be nil for unknown verdict")
	}
}

// ---- pauses -----------------------------------------------------------------

func TestAnalyzePauses_EffectiveAfterBoundary(t *testing.T) {
	tl := wordSeq(
		"First", 0.0, 0.4,
		"thought.", 0.4, 1.0,
		// 1.2s pause after punctuation: effective.
		"Second", 2.2, 2.6,
		"thought.", 2.6, 3.2,
	)
	m := delivery.AnalyzePauses(tl.Words())

	if m.EffectivePauses != 1 || m.AwkwardSilences != 0 {
		t.Fatalf("got %d effective / %d awkward, want 1 / 0", m.EffectivePauses, m.AwkwardSilences)
	}
	if m.PauseQuality != "effective" {
		t.Errorf("quality = %q, want effective", m.PauseQuality)
	}
	ex := m.EffectiveExamples[0]
	if ex.Start != 1.0 || ex.End != 2.2 || ex.Duration != 1.2 {
		t.Errorf("example = %+v, want [1.0, 2.2] x 1.2", ex)
	}
}

func TestAnalyzePauses_AwkwardMidSentence(t *testing.T) {
	tl := wordSeq(
		"I", 0.0, 0.2,
		// 0.8s hesitation with no punctuation: awkward.
		"froze", 1.0, 1.4,
		"there.", 1.4, 2.0,
	)
	m := delivery.AnalyzePauses(tl.Words())

	if m.AwkwardSilences != 1 {
		t.Fatalf("awkward = %d, want 1: %+v", m.AwkwardSilences, m)
	}
	if m.PauseQuality != "needs_work" {
		t.Errorf("quality = %q, want needs_work", m.PauseQuality)
	}
}

func TestAnalyzePauses_OverlongBoundaryPause_Awkward(t *testing.T) {
	tl := wordSeq(
		"Done.", 0.0, 0.5,
		// 2.5s dead air even after punctuation is awkward.
		"Next", 3.0, 3.4,
	)
	m := delivery.AnalyzePauses(tl.Words())
	if m.AwkwardSilences != 1 || m.EffectivePauses != 0 {
		t.Fatalf("got %d awkward / %d effective, want 1 / 0", m.AwkwardSilences, m.EffectivePauses)
	}
}

func TestAnalyzePauses_MixedQuality(t *testing.T) {
	tl := wordSeq(
		"Good.", 0.0, 0.5,
		"pause", 1.0, 1.4, // 0.5s effective
		"then", 1.4, 1.8,
		"bad", 2.6, 3.0, // 0.8s mid-sentence awkward
		"more", 3.0, 3.4,
		"fine.", 3.4, 3.8,
		"closing", 4.3, 4.8, // another 0.5s effective
	)
	m := delivery.AnalyzePauses(tl.Words())
	if m.EffectivePauses != 2 || m.AwkwardSilences != 1 {
		t.Fatalf("got %d effective / %d awkward, want 2 / 1", m.EffectivePauses, m.AwkwardSilences)
	}
	if m.PauseQuality != "mixed" {
		t.Errorf("quality = %q, want mixed", m.PauseQuality)
	}
}

func TestAnalyzePauses_TooFewWords_Unknown(t *testing.T) {
	m := delivery.AnalyzePauses(wordSeq("only", 0.0, 0.5).Words())
	if m.PauseQuality != "unknown" {
		t.Fatalf("quality = %q, want unknown", m.PauseQuality)
	}
	if m.EffectiveExamples == nil || m.AwkwardExamples == nil {
		t.Error("example slices must be non-nil")
	}
}

// ---- orchestration ----------------------------------------------------------

func TestAnalyze_NilBuffer_DegradesToUnknown(t *testing.T) {
	tl := wordSeq("hello.", 0.0, 0.5, "again", 1.2, 1.6)
	m, notes := delivery.Analyze(nil, tl, 5.0)

	if m.Pitch.Label != "unknown" || m.Volume.ConsistencyLabel != "unknown" {
		t.Errorf("expected unknown pitch/volume, got %q / %q", m.Pitch.Label, m.Volume.ConsistencyLabel)
	}
	// Pause analysis runs off the timeline alone.
	if m.Pause.PauseQuality == "" {
		t.Error("pause analysis should still run without audio")
	}
	if notes == nil {
		t.Error("notes must be non-nil")
	}
}

func TestAnalyze_SilentAudio_NotesUnknownPitch(t *testing.T) {
	buf := &media.Buffer{Samples: silence(nil, 2.0), SampleRate: testRate}
	tl := wordSeq("quiet.", 0.0, 0.5, "clip", 1.0, 1.5)

	m, notes := delivery.Analyze(buf, tl, 2.0)
	if m.Pitch.Label != "unknown" {
		t.Fatalf("pitch label = %q, want unknown", m.Pitch.Label)
	}
	found := false
	for _, n := range notes {
		if n == "Could not estimate pitch variation confidently for this recording." {
			found = true
		}
	}
	if !found {
		t.Errorf("expected pitch note, got %v", notes)
	}
}
