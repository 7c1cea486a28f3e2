// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// This package has no reelforge-specific dependencies and could be extracted
// as a standalone library.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video stream properties
//   - Format: container-level metadata (duration, size, bitrate)
//
// Primary entry point:
//   - Inspect: executes ffprobe and returns parsed Result
//
// Helper methods on Result expose the stream properties the export analyzer
// compares against target settings (resolution, frame rate, codec) and the
// audio checks the executor performs before muxing.
package ffprobe
