// Package vision defines the landmark extraction interface for non-verbal
// analysis of session video.
//
// A Landmarker samples frames from a video file at a reduced rate and returns
// per-frame hand, face, and pose landmarks as a stream. The landmarks are
// normalized image coordinates; downstream analysis turns them into gesture
// energy, attention, and posture signals without ever touching pixels.
package vision

import "context"

// HandVectorSize is the flattened length of a two-hand landmark vector:
// 2 hands x 21 landmarks x (x, y) coordinates.
const HandVectorSize = 84

// Point is a single landmark in normalized image coordinates. X and Y are in
// [0, 1] relative to frame width and height.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Frame carries the landmarks extracted from one sampled video frame.
type Frame struct {
	// Timestamp is the frame position in seconds from the start of the video,
	// measured against the original frame index, not the sampled one.
	Timestamp float64

	// Hands is the flattened two-hand landmark vector of length
	// HandVectorSize, or nil when no hands were detected. Missing hands are
	// zero-filled within the vector.
	Hands []float64

	// Face holds face mesh landmarks, or nil when no face was detected.
	Face []Point

	// Pose holds body pose landmarks, or nil when no pose was detected.
	Pose []Point
}

// StreamConfig controls frame sampling.
type StreamConfig struct {
	// TargetFPS is the desired sampling rate in frames per second. The
	// extractor skips source frames to approximate this rate; values <= 0
	// fall back to the backend default.
	TargetFPS int
}

// Stream is a sequence of landmark frames from a running extraction.
type Stream interface {
	// Frames returns the frame channel. It is closed when extraction
	// finishes, fails, or the stream is closed.
	Frames() <-chan Frame

	// Err reports the extraction error, if any, once Frames is closed.
	Err() error

	// Close aborts the extraction and releases resources. Safe to call more
	// than once.
	Close() error
}

// Landmarker starts landmark extraction over a video file.
//
// Implementations must be safe for concurrent use.
type Landmarker interface {
	// Extract begins extraction over the video at path and returns a Stream
	// of landmark frames. Cancelling ctx aborts the extraction.
	Extract(ctx context.Context, path string, cfg StreamConfig) (Stream, error)
}
