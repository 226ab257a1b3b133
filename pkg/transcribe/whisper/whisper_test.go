package whisper_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/venlo-ai/cadence/pkg/transcribe/whisper"
)

// newMockServer creates a test server that responds to POST /inference with
// the given verbose_json body.
func newMockServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/inference" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		if got := r.FormValue("response_format"); got != "verbose_json" {
			http.Error(w, "wrong response_format", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
}

// writeTempMedia creates a throwaway file standing in for an uploaded clip.
func writeTempMedia(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.webm")
	if err := os.WriteFile(path, []byte("not real media"), 0o644); err != nil {
		t.Fatalf("write temp media: %v", err)
	}
	return path
}

func TestNew_EmptyServerURL_ReturnsError(t *testing.T) {
	_, err := whisper.New("")
	if err == nil {
		t.Fatal("expected error for empty serverURL, got nil")
	}
}

func TestTranscribe_WordTimestamps_Preserved(t *testing.T) {
	srv := newMockServer(t, `{
		"text": "hello world",
		"segments": [{
			"start": 0, "end": 1.2, "text": "hello world",
			"words": [
				{"word": " hello", "start": 0.1, "end": 0.5},
				{"word": "world", "start": 0.6, "end": 1.1}
			]
		}]
	}`)
	defer srv.Close()

	tr, err := whisper.New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	result, err := tr.Transcribe(context.Background(), writeTempMedia(t))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}

	if result.Transcript != "hello world" {
		t.Errorf("transcript = %q, want %q", result.Transcript, "hello world")
	}
	if len(result.Words) != 2 {
		t.Fatalf("expected 2 words, got %d", len(result.Words))
	}
	if result.Words[0].Word != "hello" || result.Words[0].Start != 0.1 {
		t.Errorf("word 0 = %+v, want trimmed 'hello' at 0.1", result.Words[0])
	}
	if result.Words[1].Index != 1 {
		t.Errorf("word 1 index = %d, want 1", result.Words[1].Index)
	}
	if len(result.Notes) != 0 {
		t.Errorf("expected no notes with native word timing, got %v", result.Notes)
	}
}

func TestTranscribe_NoWordTiming_Interpolates(t *testing.T) {
	srv := newMockServer(t, `{
		"text": "one two three four",
		"segments": [{"start": 0, "end": 4, "text": "one two three four"}]
	}`)
	defer srv.Close()

	tr, _ := whisper.New(srv.URL)
	result, err := tr.Transcribe(context.Background(), writeTempMedia(t))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}

	if len(result.Words) != 4 {
		t.Fatalf("expected 4 interpolated words, got %d", len(result.Words))
	}
	if result.Words[2].Start != 2.0 {
		t.Errorf("word 2 start = %v, want 2.0", result.Words[2].Start)
	}
	if len(result.Notes) == 0 {
		t.Error("expected a note about interpolated timestamps")
	}
}

func TestTranscribe_EmptyResponse_ValidEmptyResult(t *testing.T) {
	srv := newMockServer(t, `{"text": "", "segments": []}`)
	defer srv.Close()

	tr, _ := whisper.New(srv.URL)
	result, err := tr.Transcribe(context.Background(), writeTempMedia(t))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if result.Transcript != "" || len(result.Words) != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
}

func TestTranscribe_ServerError_ReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	tr, _ := whisper.New(srv.URL)
	if _, err := tr.Transcribe(context.Background(), writeTempMedia(t)); err == nil {
		t.Fatal("expected error on HTTP 500, got nil")
	}
}
