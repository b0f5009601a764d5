package transcriber

import "errors"

// Fault taxonomy for a transcription run. Transient engine halts
// (no-speech, aborted) are recovered internally and never surface.
var (
	// ErrUnsupportedCapability: no recognition engine is available.
	// Raised before playback starts.
	ErrUnsupportedCapability = errors.New("recognition engine unavailable")

	// ErrPermissionDenied: engine or capture access was refused.
	ErrPermissionDenied = errors.New("recognition permission denied")

	// ErrPlaybackFault: audio decode or playback failed.
	ErrPlaybackFault = errors.New("playback fault")

	// ErrRecognitionFault: the engine halted with a code the driver
	// does not know how to recover from.
	ErrRecognitionFault = errors.New("recognition fault")
)
