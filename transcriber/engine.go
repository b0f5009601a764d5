package transcriber

// EventKind discriminates recognizer lifecycle events.
type EventKind int

const (
	EventStarted EventKind = iota
	EventResult
	EventError
	EventEnded
)

// Engine error codes, matching the continuous-recognition engines this
// driver is written against. Anything not listed here is fatal.
const (
	CodeNoSpeech          = "no-speech"
	CodeAborted           = "aborted"
	CodeNotAllowed        = "not-allowed"
	CodeServiceNotAllowed = "service-not-allowed"
	CodeNetwork           = "network"
)

// Result is one finalized recognition hypothesis. Engines may also
// deliver interim hypotheses; those never reach the driver — adapters
// must filter them out.
type Result struct {
	Transcript string
	Confidence float64
}

// Event is a single recognizer lifecycle notification.
type Event struct {
	Kind    EventKind
	Results []Result // EventResult only
	Code    string   // EventError only
}

// Engine is the continuous speech-recognition collaborator. A session
// runs from a successful Start until an EventEnded or EventError is
// delivered; the driver never issues a second Start while a session is
// active. Stop requests an early halt; the engine still terminates the
// session through its event channel.
type Engine interface {
	Start() error
	Stop()
	Events() <-chan Event
}

// Player is the playback collaborator. Pos must be monotonically
// non-decreasing while playing; Done delivers exactly one value when
// playback ends (nil) or fails (the playback error).
type Player interface {
	Play() error
	Pause()
	Pos() float64
	Duration() float64
	Done() <-chan error
	Close() error
}
