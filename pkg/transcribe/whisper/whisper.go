// Package whisper provides a transcriber backed by a whisper.cpp HTTP server.
//
// It submits the media file to a running whisper-server binary (which exposes
// a REST API at POST /inference) with response_format=verbose_json and reads
// segment and, when available, word-level timestamps from the response. When
// the server omits per-word timing, word timestamps are interpolated linearly
// within each segment.
//
// Usage:
//
//	t, err := whisper.New("http://localhost:8080",
//	    whisper.WithLanguage("en"),
//	)
//	result, err := t.Transcribe(ctx, "talk.webm")
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/venlo-ai/cadence/pkg/transcribe"
)

const (
	defaultLanguage = "en"
	defaultTimeout  = 5 * time.Minute
)

// Compile-time assertion that Transcriber implements transcribe.Transcriber.
var _ transcribe.Transcriber = (*Transcriber)(nil)

// Option is a functional option for configuring a Transcriber.
type Option func(*Transcriber)

// WithModel sets the model identifier forwarded to the whisper.cpp server
// (e.g., "base.en", "small"). When empty the server uses whichever model it
// was started with — this is the default.
func WithModel(model string) Option {
	return func(t *Transcriber) {
		t.model = model
	}
}

// WithLanguage sets the BCP-47 language code sent to the whisper.cpp server
// (e.g., "en", "de", "fr"). Defaults to "en".
func WithLanguage(lang string) Option {
	return func(t *Transcriber) {
		t.language = lang
	}
}

// WithHTTPClient replaces the default HTTP client (5 minute timeout).
func WithHTTPClient(c *http.Client) Option {
	return func(t *Transcriber) {
		t.httpClient = c
	}
}

// Transcriber implements transcribe.Transcriber backed by a whisper.cpp HTTP
// server. Safe for concurrent use; each call is an independent request.
type Transcriber struct {
	serverURL  string
	model      string
	language   string
	httpClient *http.Client
}

// New creates a new Transcriber that connects to the whisper.cpp HTTP server
// at serverURL (e.g., "http://localhost:8080"). serverURL must be non-empty.
func New(serverURL string, opts ...Option) (*Transcriber, error) {
	if serverURL == "" {
		return nil, errors.New("whisper: serverURL must not be empty")
	}
	t := &Transcriber{
		serverURL:  strings.TrimRight(serverURL, "/"),
		language:   defaultLanguage,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(t)
	}
	return t, nil
}

// inferenceResponse mirrors the verbose_json shape of whisper-server.
// The words array is only present on servers built with word timestamps
// enabled, so it is optional per segment.
type inferenceResponse struct {
	Text     string `json:"text"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
		Words []struct {
			Word  string  `json:"word"`
			Start float64 `json:"start"`
			End   float64 `json:"end"`
		} `json:"words"`
	} `json:"segments"`
}

// Transcribe implements transcribe.Transcriber.
func (t *Transcriber) Transcribe(ctx context.Context, mediaPath string) (*transcribe.Result, error) {
	f, err := os.Open(mediaPath)
	if err != nil {
		return nil, fmt.Errorf("whisper: open media: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", filepath.Base(mediaPath))
	if err != nil {
		return nil, fmt.Errorf("whisper: create form file: %w", err)
	}
	if _, err := io.Copy(fw, f); err != nil {
		return nil, fmt.Errorf("whisper: copy media: %w", err)
	}

	fields := map[string]string{
		"response_format": "verbose_json",
	}
	if t.language != "" {
		fields["language"] = t.language
	}
	if t.model != "" {
		fields["model"] = t.model
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("whisper: write field %q: %w", k, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("whisper: close multipart writer: %w", err)
	}

	endpoint := t.serverURL + "/inference"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("whisper: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whisper: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("whisper: server returned HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("whisper: read response body: %w", err)
	}

	var parsed inferenceResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("whisper: parse JSON response: %w", err)
	}

	return buildResult(&parsed), nil
}

// buildResult flattens the segment response into the shared Result shape.
func buildResult(parsed *inferenceResponse) *transcribe.Result {
	result := &transcribe.Result{
		Transcript: strings.TrimSpace(parsed.Text),
		Notes:      []string{},
	}

	interpolated := false
	for _, seg := range parsed.Segments {
		if len(seg.Words) > 0 {
			for _, w := range seg.Words {
				text := strings.TrimSpace(w.Word)
				if text == "" {
					continue
				}
				result.Words = append(result.Words, transcribe.Word{
					Word:  text,
					Start: w.Start,
					End:   w.End,
					Index: len(result.Words),
				})
			}
			continue
		}
		spread := transcribe.SpreadWords(seg.Text, seg.Start, seg.End, len(result.Words))
		if len(spread) > 0 {
			interpolated = true
			result.Words = append(result.Words, spread...)
		}
	}

	if result.Transcript == "" && len(result.Words) > 0 {
		parts := make([]string, len(result.Words))
		for i, w := range result.Words {
			parts[i] = w.Word
		}
		result.Transcript = strings.Join(parts, " ")
	}
	if interpolated {
		result.Notes = append(result.Notes, "Word timestamps were interpolated from segment timing.")
	}
	return result
}
