// Package encoder owns the boundary to the external ffmpeg process.
//
// It builds complete argument vectors for each export strategy (stream-copy
// concatenation, normalization passes, composite filter graphs, audio
// muxing), writes concat demuxer input lists, and runs the process while
// capturing stderr and parsing machine-readable progress. The ffmpeg CLI
// surface is treated as a stable external protocol: flag order and filter
// syntax here target it precisely.
//
// Nothing in this package decides strategy; it executes exactly what the
// plan and executor request.
package encoder
