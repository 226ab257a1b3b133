// Package ffmpeg implements media decoding and duration probing by shelling
// out to the ffmpeg and ffprobe binaries.
package ffmpeg

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/venlo-ai/cadence/pkg/media"
)

// Environment overrides for the binary locations. When unset the binaries are
// resolved on PATH.
const (
	FFmpegEnv  = "FFMPEG_BIN"
	FFprobeEnv = "FFPROBE_BIN"
)

// minDurationFactor is the fraction of a second of audio below which a decode
// is considered too short for tonal analysis.
const minDurationFactor = 0.75

var (
	_ media.Decoder = (*Decoder)(nil)
	_ media.Prober  = (*Prober)(nil)
)

// Decoder extracts mono PCM audio from arbitrary containers via ffmpeg.
type Decoder struct {
	bin string
}

// NewDecoder resolves the ffmpeg binary from FFMPEG_BIN or PATH. The returned
// decoder reports media.ErrUnavailable from Decode when the binary is missing;
// construction itself never fails.
func NewDecoder() *Decoder {
	return &Decoder{bin: resolveBinary(FFmpegEnv, "ffmpeg")}
}

// Available reports whether the ffmpeg binary was found.
func (d *Decoder) Available() bool { return d.bin != "" }

// Decode implements media.Decoder. Audio is downmixed to mono, resampled to
// sampleRate, and decoded as signed 16-bit little-endian PCM.
func (d *Decoder) Decode(ctx context.Context, path string, sampleRate int) (*media.Buffer, error) {
	if d.bin == "" {
		return nil, media.ErrUnavailable
	}

	cmd := exec.CommandContext(ctx, d.bin,
		"-v", "error",
		"-i", path,
		"-vn",
		"-ac", "1",
		"-ar", strconv.Itoa(sampleRate),
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-",
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg decode: %w (%s)", err, truncate(stderr.String(), 120))
	}

	raw := stdout.Bytes()
	samples := make([]float32, 0, len(raw)/2)
	for i := 0; i+1 < len(raw); i += 2 {
		s := int16(binary.LittleEndian.Uint16(raw[i:]))
		samples = append(samples, float32(s)/32768.0)
	}

	if len(samples) == 0 {
		return nil, media.ErrNoAudio
	}
	if len(samples) < int(float64(sampleRate)*minDurationFactor) {
		return nil, media.ErrTooShort
	}
	return &media.Buffer{Samples: samples, SampleRate: sampleRate}, nil
}

// Prober estimates media duration via ffprobe.
type Prober struct {
	bin string
}

// NewProber resolves the ffprobe binary from FFPROBE_BIN or PATH.
func NewProber() *Prober {
	return &Prober{bin: resolveBinary(FFprobeEnv, "ffprobe")}
}

// Available reports whether the ffprobe binary was found.
func (p *Prober) Available() bool { return p.bin != "" }

// Duration implements media.Prober.
func (p *Prober) Duration(ctx context.Context, path string) (float64, error) {
	if p.bin == "" {
		return 0, media.ErrUnavailable
	}

	cmd := exec.CommandContext(ctx, p.bin,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}

	dur, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe: parse duration: %w", err)
	}
	if dur <= 0 || math.IsNaN(dur) || math.IsInf(dur, 0) {
		return 0, fmt.Errorf("ffprobe: invalid duration %v", dur)
	}
	return dur, nil
}

func resolveBinary(envKey, name string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return ""
	}
	return path
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n]
}
