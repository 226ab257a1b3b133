// Package api exposes the HTTP surface: synchronous analysis, the async job
// flow with polling and WebSocket status streams, and the practice drill
// content endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/venlo-ai/cadence/internal/jobstore"
	"github.com/venlo-ai/cadence/internal/pipeline"
)

// defaultMaxUploadBytes caps multipart uploads at 512 MiB.
const defaultMaxUploadBytes = 512 << 20

// Server handles the analysis API. All handlers are safe for concurrent use.
type Server struct {
	store jobstore.Store
	pipe  *pipeline.Pipeline

	maxUploadBytes int64
	pollInterval   time.Duration
	tempDir        string
	defaultPreset  string

	// jobs tracks in-flight background jobs so Shutdown can drain them.
	jobs sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithMaxUploadBytes overrides the multipart upload size cap.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) { s.maxUploadBytes = n }
}

// WithPollInterval overrides how often the WebSocket status stream polls the
// jobstore. Mostly useful in tests.
func WithPollInterval(d time.Duration) Option {
	return func(s *Server) { s.pollInterval = d }
}

// WithTempDir overrides where uploads are spooled. Empty means the system
// temp directory.
func WithTempDir(dir string) Option {
	return func(s *Server) { s.tempDir = dir }
}

// WithDefaultPreset overrides the coaching preset used when a request does
// not name one.
func WithDefaultPreset(preset string) Option {
	return func(s *Server) {
		if preset != "" {
			s.defaultPreset = preset
		}
	}
}

// New creates a Server running jobs through pipe and reading job state from
// store.
func New(store jobstore.Store, pipe *pipeline.Pipeline, opts ...Option) *Server {
	s := &Server{
		store:          store,
		pipe:           pipe,
		maxUploadBytes: defaultMaxUploadBytes,
		pollInterval:   500 * time.Millisecond,
		defaultPreset:  "general",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register mounts all API routes on mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("POST /analyze", s.handleAnalyze)
	mux.HandleFunc("POST /api/analyze", s.handleCreateJob)
	mux.HandleFunc("GET /api/results/{id}", s.handleResults)
	mux.HandleFunc("GET /api/jobs/{id}/events", s.handleJobEvents)
	mux.HandleFunc("GET /random-paragraph", s.handleRandomParagraph)
	mux.HandleFunc("GET /random-topic", s.handleRandomTopic)
}

// Drain blocks until all in-flight background jobs finish. Call during
// graceful shutdown after the listener has stopped.
func (s *Server) Drain() { s.jobs.Wait() }

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Cadence API is running."})
}

// handleAnalyze runs the full analysis synchronously and returns the result
// document. The caller blocks for the whole pipeline; prefer the async job
// flow for long recordings.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	upload, form, ok := s.acceptUpload(w, r, "file")
	if !ok {
		return
	}

	defer removeQuietly(upload)

	job := pipeline.Job{
		MediaPath:          upload,
		DurationSeconds:    form.duration,
		Preset:             form.preset,
		TranscriptOverride: form.transcriptOverride,
	}

	result := s.pipe.Analyze(r.Context(), job)
	writeJSON(w, http.StatusOK, result)
}

// handleCreateJob accepts the upload, creates a pending job, and runs the
// pipeline in the background. The response carries only the job id.
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	upload, form, ok := s.acceptUpload(w, r, "video")
	if !ok {
		return
	}

	id, err := s.store.Create(r.Context())
	if err != nil {
		slog.Error("failed to create job", "error", err)
		removeQuietly(upload)
		writeError(w, http.StatusInternalServerError, "Could not create analysis job.")
		return
	}

	job := pipeline.Job{
		ID:              id,
		MediaPath:       upload,
		DurationSeconds: form.duration,
		Preset:          form.preset,
		RemoveMedia:     true,
	}

	s.jobs.Add(1)
	go func() {
		defer s.jobs.Done()
		// Detached from the request context: the job outlives the upload call.
		s.pipe.Run(context.Background(), job)
	}()

	writeJSON(w, http.StatusOK, map[string]string{"jobId": id})
}

// handleResults reports job state. The response shape depends on the status:
// in-flight jobs carry only the status, done jobs embed the result document,
// errored jobs carry the error message.
func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	job, err := s.store.Get(r.Context(), id)
	if errors.Is(err, jobstore.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Job not found")
		return
	}
	if err != nil {
		slog.Error("failed to load job", "job_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Could not load job.")
		return
	}

	switch job.Status {
	case jobstore.StatusDone:
		writeJSON(w, http.StatusOK, map[string]any{
			"status":  job.Status,
			"results": json.RawMessage(job.Results),
		})
	case jobstore.StatusError:
		writeJSON(w, http.StatusOK, map[string]any{
			"status":        job.Status,
			"error_message": job.ErrorMessage,
		})
	default:
		writeJSON(w, http.StatusOK, map[string]string{"status": job.Status})
	}
}

// uploadForm carries the optional multipart fields accompanying the media.
type uploadForm struct {
	duration           float64
	preset             string
	transcriptOverride string
}

// acceptUpload validates and spools the uploaded media file to a temp file.
// On failure it writes the error response and returns ok=false.
func (s *Server) acceptUpload(w http.ResponseWriter, r *http.Request, field string) (string, uploadForm, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	file, header, err := r.FormFile(field)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing media upload field "+strconv.Quote(field)+".")
		return "", uploadForm{}, false
	}
	defer file.Close()

	contentType := strings.ToLower(header.Header.Get("Content-Type"))
	if contentType != "" && !strings.HasPrefix(contentType, "video/") && !strings.HasPrefix(contentType, "audio/") {
		writeError(w, http.StatusBadRequest, "Upload must be an audio or video file.")
		return "", uploadForm{}, false
	}

	path, err := s.spool(file, header.Filename)
	if err != nil {
		slog.Error("failed to spool upload", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not store the uploaded file.")
		return "", uploadForm{}, false
	}

	form := uploadForm{
		preset:             r.FormValue("preset"),
		transcriptOverride: r.FormValue("transcript_override"),
	}
	if form.preset == "" {
		form.preset = s.defaultPreset
	}
	if v := r.FormValue("duration_seconds"); v != "" {
		if d, err := strconv.ParseFloat(v, 64); err == nil {
			form.duration = d
		}
	}
	return path, form, true
}

// spool copies the upload to a temp file, keeping the original extension so
// ffmpeg can sniff the container. Unknown extensions default to .webm.
func (s *Server) spool(src io.Reader, filename string) (string, error) {
	suffix := filepath.Ext(filename)
	if suffix == "" {
		suffix = ".webm"
	}
	tmp, err := createTemp(s.tempDir, "cadence-upload-*"+suffix)
	if err != nil {
		return "", err
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, src); err != nil {
		removeQuietly(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
