// Package ffmpeg wraps the ffmpeg command-line encoder. It derives the
// argument list purely from a transform descriptor, supervises the subprocess,
// and surfaces elapsed-time progress events parsed from the -progress stream.
//
// Spawn failures and runtime failures are tagged with distinct service error
// markers so the batch orchestrator can tell "the tool is missing" apart from
// "this one encode failed".
package ffmpeg
