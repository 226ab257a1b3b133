// Package landmarkd provides a vision.Landmarker backed by a landmark
// extraction sidecar service.
//
// The sidecar accepts a video upload at POST /extract and streams back one
// NDJSON line per sampled frame:
//
//	{"t": 1.234, "hands": [...84 floats...], "face": [{"x":..,"y":..}, ...], "pose": [...]}
//
// Absent detections are encoded as null. The stream ends when the sidecar
// closes the response body.
package landmarkd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/venlo-ai/cadence/pkg/vision"
)

// maxLineBytes bounds a single NDJSON line. Face mesh frames run to a few
// hundred KB at most.
const maxLineBytes = 1 << 20

// Compile-time assertion that Landmarker implements vision.Landmarker.
var _ vision.Landmarker = (*Landmarker)(nil)

// Option is a functional option for configuring a Landmarker.
type Option func(*Landmarker)

// WithHTTPClient replaces the default HTTP client. The default client has no
// timeout because extraction runs as long as the video does; rely on ctx for
// cancellation.
func WithHTTPClient(c *http.Client) Option {
	return func(l *Landmarker) {
		l.httpClient = c
	}
}

// Landmarker implements vision.Landmarker against a landmarkd sidecar.
type Landmarker struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Landmarker that connects to the sidecar at baseURL
// (e.g., "http://localhost:9091").
func New(baseURL string, opts ...Option) (*Landmarker, error) {
	if baseURL == "" {
		return nil, errors.New("landmarkd: baseURL must not be empty")
	}
	l := &Landmarker{
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}
	for _, o := range opts {
		o(l)
	}
	return l, nil
}

// frameLine is the wire shape of one NDJSON line.
type frameLine struct {
	T     float64        `json:"t"`
	Hands []float64      `json:"hands"`
	Face  []vision.Point `json:"face"`
	Pose  []vision.Point `json:"pose"`
}

// Extract implements vision.Landmarker. The video upload and the NDJSON
// response are streamed concurrently; neither is buffered in full.
func (l *Landmarker) Extract(ctx context.Context, path string, cfg vision.StreamConfig) (vision.Stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("landmarkd: open video: %w", err)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	// Pump the upload body from a goroutine so the request can stream.
	go func() {
		defer f.Close()
		var werr error
		defer func() { pw.CloseWithError(werr) }()

		if cfg.TargetFPS > 0 {
			if werr = mw.WriteField("target_fps", strconv.Itoa(cfg.TargetFPS)); werr != nil {
				return
			}
		}
		fw, err := mw.CreateFormFile("video", filepath.Base(path))
		if err != nil {
			werr = err
			return
		}
		if _, err := io.Copy(fw, f); err != nil {
			werr = err
			return
		}
		werr = mw.Close()
	}()

	ctx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/extract", pr)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("landmarkd: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := l.httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("landmarkd: http request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("landmarkd: server returned HTTP %d", resp.StatusCode)
	}

	s := &stream{
		body:   resp.Body,
		cancel: cancel,
		frames: make(chan vision.Frame, 64),
	}
	go s.readLoop()
	return s, nil
}

// stream implements vision.Stream over an NDJSON response body.
type stream struct {
	body   io.ReadCloser
	cancel context.CancelFunc
	frames chan vision.Frame

	mu  sync.Mutex
	err error

	closeOnce sync.Once
}

func (s *stream) Frames() <-chan vision.Frame { return s.frames }

func (s *stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *stream) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		s.body.Close()
	})
	return nil
}

// readLoop decodes NDJSON lines into Frames until EOF or error.
func (s *stream) readLoop() {
	defer close(s.frames)
	defer s.Close()

	sc := bufio.NewScanner(s.body)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)

	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var fl frameLine
		if err := json.Unmarshal(line, &fl); err != nil {
			s.setErr(fmt.Errorf("landmarkd: parse frame line: %w", err))
			return
		}
		s.frames <- vision.Frame{
			Timestamp: fl.T,
			Hands:     fl.Hands,
			Face:      fl.Face,
			Pose:      fl.Pose,
		}
	}
	if err := sc.Err(); err != nil && !errors.Is(err, context.Canceled) {
		s.setErr(fmt.Errorf("landmarkd: read stream: %w", err))
	}
}

func (s *stream) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}
