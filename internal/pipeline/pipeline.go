// Package pipeline orchestrates one analysis job end to end: duration
// probing, parallel transcription / non-verbal / audio extraction, delivery
// analysis, marker and summary synthesis, coaching, and result persistence.
//
// The pipeline is failure tolerant by construction. A missing or broken
// backend degrades its slice of the result to explicit "unknown" values and
// adds a human-readable note; only an unexpected fault (or a storage failure)
// moves the job to the error state. Jobs always terminate in done or error.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/venlo-ai/cadence/internal/delivery"
	"github.com/venlo-ai/cadence/internal/jobstore"
	"github.com/venlo-ai/cadence/internal/nonverbal"
	"github.com/venlo-ai/cadence/internal/observe"
	"github.com/venlo-ai/cadence/internal/report"
	"github.com/venlo-ai/cadence/internal/speech"
	"github.com/venlo-ai/cadence/internal/timeline"
	"github.com/venlo-ai/cadence/pkg/coach"
	"github.com/venlo-ai/cadence/pkg/media"
	"github.com/venlo-ai/cadence/pkg/transcribe"
	"github.com/venlo-ai/cadence/pkg/vision"
)

// defaultDurationSeconds is assumed when no duration is provided and probing
// fails.
const defaultDurationSeconds = 30.0

// Providers are the external backends one job may use. Any of them may be
// nil; the corresponding analysis degrades with a note.
type Providers struct {
	Transcriber transcribe.Transcriber
	Landmarker  vision.Landmarker
	Prober      media.Prober
	Decoder     media.Decoder
	Coach       coach.Coach
}

// Config tunes per-job analysis parameters.
type Config struct {
	// SampleRate is the PCM rate audio is decoded to. Default: 16000.
	SampleRate int

	// TargetFPS is the landmark sampling rate. Default: 5.
	TargetFPS int
}

// Job describes one unit of work.
type Job struct {
	// ID is the jobstore id the result is written under.
	ID string

	// MediaPath is the uploaded media file on local disk.
	MediaPath string

	// DurationSeconds is the client-provided duration; ≤0 triggers probing.
	DurationSeconds float64

	// Preset selects the coaching rubric. Empty means "general".
	Preset string

	// TranscriptOverride, when non-blank, skips transcription entirely.
	TranscriptOverride string

	// RemoveMedia deletes MediaPath when the job finishes.
	RemoveMedia bool
}

// Pipeline runs analysis jobs against a jobstore. Safe for concurrent use;
// jobs share no state.
type Pipeline struct {
	store   jobstore.Store
	prov    Providers
	cfg     Config
	metrics *observe.Metrics
}

// New creates a Pipeline. Zero-value config fields get defaults.
func New(store jobstore.Store, prov Providers, cfg Config) *Pipeline {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.TargetFPS <= 0 {
		cfg.TargetFPS = 5
	}
	return &Pipeline{
		store:   store,
		prov:    prov,
		cfg:     cfg,
		metrics: observe.DefaultMetrics(),
	}
}

// Run executes the job to a terminal state. It never returns an error; every
// outcome is recorded in the jobstore.
func (p *Pipeline) Run(ctx context.Context, job Job) {
	p.metrics.JobsStarted.Add(ctx, 1)
	p.metrics.ActiveJobs.Add(ctx, 1)
	defer p.metrics.ActiveJobs.Add(ctx, -1)

	if job.RemoveMedia {
		defer func() {
			if err := os.Remove(job.MediaPath); err != nil && !errors.Is(err, os.ErrNotExist) {
				slog.Warn("failed to delete temp media file",
					"job_id", job.ID, "path", job.MediaPath, "error", err)
			}
		}()
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("analysis job panicked", "job_id", job.ID, "panic", r)
			p.fail(ctx, job.ID, fmt.Sprintf("analysis pipeline panicked: %v", r))
		}
	}()

	if err := p.store.SetStatus(ctx, job.ID, jobstore.StatusProcessing); err != nil {
		slog.Error("failed to mark job processing", "job_id", job.ID, "error", err)
		return
	}

	result := p.analyze(ctx, job)

	payload, err := json.Marshal(result)
	if err != nil {
		p.fail(ctx, job.ID, fmt.Sprintf("failed to serialize results: %v", err))
		return
	}
	if err := p.store.Complete(ctx, job.ID, payload); err != nil {
		slog.Error("failed to store job results", "job_id", job.ID, "error", err)
		p.fail(ctx, job.ID, fmt.Sprintf("failed to store results: %v", err))
		return
	}
	p.metrics.RecordJobCompleted(ctx, jobstore.StatusDone)
	slog.Info("analysis job completed", "job_id", job.ID)
}

func (p *Pipeline) fail(ctx context.Context, id, message string) {
	if err := p.store.Fail(ctx, id, message); err != nil {
		slog.Error("failed to mark job errored", "job_id", id, "error", err)
	}
	p.metrics.RecordJobCompleted(ctx, jobstore.StatusError)
}

// Analyze runs the full analysis synchronously and returns the result
// document. It is the core of [Pipeline.Run] and backs the synchronous API
// endpoint, which has no jobstore row to transition.
func (p *Pipeline) Analyze(ctx context.Context, job Job) *report.Result {
	return p.analyze(ctx, job)
}

func (p *Pipeline) analyze(ctx context.Context, job Job) *report.Result {
	notes := []string{}

	duration := job.DurationSeconds
	if duration <= 0 {
		detected, durationNotes := p.probeDuration(ctx, job.MediaPath)
		notes = append(notes, durationNotes...)
		if detected > 0 {
			duration = detected
			notes = append(notes, fmt.Sprintf("Auto-detected media duration: %v seconds.", round2(duration)))
		} else {
			duration = defaultDurationSeconds
			notes = append(notes, "No valid duration provided. Defaulted to 30 seconds.")
		}
	}

	var (
		transcript      string
		words           []transcribe.Word
		transcribeNotes []string

		nv      nonverbal.Metrics
		nvNotes []string

		buf         *media.Buffer
		decodeNotes []string
	)

	// Transcription, non-verbal analysis, and audio extraction are
	// independent; run them in parallel. Branches degrade to notes instead of
	// returning errors, so the group never aborts early.
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		start := time.Now()
		transcript, words, transcribeNotes = p.transcribe(gctx, job)
		observe.RecordStage(gctx, p.metrics.TranscribeDuration, time.Since(start).Seconds())
		return nil
	})
	g.Go(func() error {
		start := time.Now()
		nv, nvNotes = nonverbal.Analyze(gctx, p.prov.Landmarker, job.MediaPath, p.cfg.TargetFPS)
		observe.RecordStage(gctx, p.metrics.VisionDuration, time.Since(start).Seconds())
		return nil
	})
	g.Go(func() error {
		start := time.Now()
		buf, decodeNotes = p.decode(gctx, job.MediaPath)
		observe.RecordStage(gctx, p.metrics.DecodeDuration, time.Since(start).Seconds())
		return nil
	})
	_ = g.Wait()

	notes = append(notes, transcribeNotes...)
	notes = append(notes, decodeNotes...)
	notes = append(notes, nvNotes...)

	sp := speech.Build(transcript, duration)
	tl := timeline.New(words)

	deliveryStart := time.Now()
	del, deliveryNotes := delivery.Analyze(buf, tl, duration)
	observe.RecordStage(ctx, p.metrics.DeliveryDuration, time.Since(deliveryStart).Seconds())
	notes = append(notes, deliveryNotes...)

	markers := report.BuildMarkers(sp, del, duration)
	summary := report.BuildSummary(sp, del)

	if transcript == "" {
		notes = append(notes, "Transcript is empty. Speaking metrics may be limited.")
	}

	// The review and the content plan are independent model calls on inputs
	// that are both ready now; run them in parallel.
	var (
		feedback    *coach.Feedback
		timedEvents []coach.TimedEvent
		coachNotes  []string

		plan      *coach.ContentPlan
		planNotes []string
	)
	cg, cgctx := errgroup.WithContext(ctx)
	cg.Go(func() error {
		feedback, timedEvents, coachNotes = p.review(cgctx, job, transcript, words, sp, nv)
		return nil
	})
	cg.Go(func() error {
		plan, planNotes = p.plan(cgctx, job, transcript, summary)
		return nil
	})
	_ = cg.Wait()
	notes = append(notes, coachNotes...)
	notes = append(notes, planNotes...)

	result := &report.Result{
		Transcript:      transcript,
		DurationSeconds: round2(duration),
		Words:           tl.Words(),
		Speech:          sp,
		AudioDelivery:   del,
		NonVerbal:       nv,
		Markers:         markers,
		SummaryFeedback: summary,
		Coach:           feedback,
		ContentPlan:     plan,
		FeedbackEvents:  timedEvents,
		Notes:           notes,
	}
	result.Normalize()
	return result
}

// probeDuration returns the detected duration (0 when unknown) plus notes.
func (p *Pipeline) probeDuration(ctx context.Context, path string) (float64, []string) {
	notes := []string{}
	if p.prov.Prober == nil {
		notes = append(notes, "ffprobe not found. Could not auto-detect media duration.")
		return 0, notes
	}
	dur, err := p.prov.Prober.Duration(ctx, path)
	if errors.Is(err, media.ErrUnavailable) {
		notes = append(notes, "ffprobe not found. Could not auto-detect media duration.")
		return 0, notes
	}
	if err != nil {
		slog.Warn("duration probe failed", "path", path, "error", err)
		notes = append(notes, "ffprobe failed to read media duration.")
		return 0, notes
	}
	return dur, notes
}

func (p *Pipeline) transcribe(ctx context.Context, job Job) (string, []transcribe.Word, []string) {
	notes := []string{}

	if override := strings.TrimSpace(job.TranscriptOverride); override != "" {
		notes = append(notes, "Used transcript override from client. Word timestamps unavailable — LLM will use plain text.")
		return override, nil, notes
	}
	if p.prov.Transcriber == nil {
		notes = append(notes, "No transcription backend is configured. Transcript unavailable.")
		return "", nil, notes
	}

	res, err := p.prov.Transcriber.Transcribe(ctx, job.MediaPath)
	if err != nil {
		slog.Warn("transcription failed", "job_id", job.ID, "error", err)
		p.metrics.RecordProviderError(ctx, "transcriber", "transcribe")
		notes = append(notes, "Whisper failed on this file. Returning analysis with empty transcript.")
		return "", nil, notes
	}
	notes = append(notes, res.Notes...)
	return res.Transcript, res.Words, notes
}

// decode extracts PCM for tonal analysis, mapping every failure mode to a
// note. A nil buffer means the delivery analyzer reports unknown.
func (p *Pipeline) decode(ctx context.Context, path string) (*media.Buffer, []string) {
	notes := []string{}
	if p.prov.Decoder == nil {
		notes = append(notes, "ffmpeg not found. Audio tonal analysis was skipped.")
		return nil, notes
	}

	buf, err := p.prov.Decoder.Decode(ctx, path, p.cfg.SampleRate)
	switch {
	case err == nil:
		return buf, notes
	case errors.Is(err, media.ErrUnavailable):
		notes = append(notes, "ffmpeg not found. Audio tonal analysis was skipped.")
	case errors.Is(err, media.ErrNoAudio):
		notes = append(notes, "Audio extraction returned no samples. Tonal analysis was skipped.")
	case errors.Is(err, media.ErrTooShort):
		notes = append(notes, "Audio sample was too short for reliable tonal analysis.")
	default:
		p.metrics.RecordProviderError(ctx, "decoder", "decode")
		notes = append(notes, fmt.Sprintf("ffmpeg failed during audio extraction. Tonal analysis unavailable. (%.120s)", err.Error()))
	}
	return nil, notes
}

// review runs the coach last, with the full context assembled. A failing
// coach substitutes the neutral default feedback and never fails the job.
// The second return value is the feedback events mapped onto the word
// timeline.
func (p *Pipeline) review(ctx context.Context, job Job, transcript string, words []transcribe.Word, sp speech.Metrics, nv nonverbal.Metrics) (*coach.Feedback, []coach.TimedEvent, []string) {
	notes := []string{}

	preset := job.Preset
	if preset == "" {
		preset = "general"
	}

	req := coach.Request{
		Words:      words,
		Transcript: transcript,
		Context: coach.Context{
			PaceLabel:       sp.PaceLabel,
			WordsPerMinute:  sp.WordsPerMinute,
			FillerWordCount: sp.FillerWordCount,
			ActivityLevel:   nv.ActivityLevel,
			GestureEnergy:   nv.GestureEnergy,
			GestureSamples:  nv.Samples,
			EyeContactScore: nv.EyeContactScore,
			EyeContactLevel: nv.EyeContactLevel,
			PostureScore:    nv.PostureScore,
			PostureLevel:    nv.PostureLevel,
			Preset:          preset,
		},
	}

	if p.prov.Coach == nil {
		notes = append(notes, "No coaching backend is configured. Returning baseline feedback.")
		fb := coach.DefaultFeedback()
		return fb, coach.MapEvents(fb.Events, words), notes
	}

	start := time.Now()
	fb, err := p.prov.Coach.Review(ctx, req)
	observe.RecordStage(ctx, p.metrics.CoachDuration, time.Since(start).Seconds())
	if err != nil {
		slog.Warn("coach review failed", "job_id", job.ID, "error", err)
		p.metrics.RecordProviderError(ctx, "coach", "review")
		notes = append(notes, "The coaching model did not return a valid response. Returning baseline feedback.")
		fb = coach.DefaultFeedback()
		return fb, coach.MapEvents(fb.Events, words), notes
	}

	coach.EnforceUnknownNonVerbal(fb, nv.ActivityLevel)
	return fb, coach.MapEvents(fb.Events, words), notes
}

// plan generates the content-specific improvement plan. Every degraded path
// yields the safe default plan: empty transcripts and missing backends
// silently, a failing backend with a note.
func (p *Pipeline) plan(ctx context.Context, job Job, transcript string, summary []string) (*coach.ContentPlan, []string) {
	notes := []string{}

	if strings.TrimSpace(transcript) == "" || p.prov.Coach == nil {
		return coach.SafeContentPlan(transcript), notes
	}

	preset := job.Preset
	if preset == "" {
		preset = "general"
	}

	start := time.Now()
	plan, err := p.prov.Coach.Plan(ctx, coach.PlanRequest{
		Transcript:      transcript,
		SummaryFeedback: summary,
		Preset:          preset,
	})
	observe.RecordStage(ctx, p.metrics.CoachDuration, time.Since(start).Seconds())
	if err != nil {
		slog.Warn("content plan failed", "job_id", job.ID, "error", err)
		p.metrics.RecordProviderError(ctx, "coach", "plan")
		notes = append(notes, "The content plan model did not return a valid response. Returning the baseline plan.")
		return coach.SafeContentPlan(transcript), notes
	}
	return plan, notes
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
