// Package asr adapts a whisper-style HTTP transcription service to the
// driver's continuous-recognition engine contract. Each Start opens one
// session: the not-yet-played remainder of the clip is posted to the
// service and the returned segments are paced against the playback
// clock, so each finalized result lands when playback reaches it.
package asr

import (
	"bytes"
	"context"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/interview-pipeline/clients"
	"github.com/maastricht-university/interview-pipeline/media"
	"github.com/maastricht-university/interview-pipeline/transcriber"
)

// Clock exposes the playback position the engine paces results against.
type Clock interface {
	Pos() float64
}

const pacePoll = 50 * time.Millisecond

type HTTPEngine struct {
	client *clients.HTTP
	url    string
	clip   *media.Clip
	clock  Clock
	log    *logrus.Entry

	events chan transcriber.Event

	mu     sync.Mutex
	active bool
	cancel chan struct{}
}

func NewHTTPEngine(c *clients.HTTP, url string, clip *media.Clip, clock Clock, log *logrus.Logger) *HTTPEngine {
	if log == nil {
		log = logrus.New()
	}
	return &HTTPEngine{
		client: c,
		url:    url,
		clip:   clip,
		clock:  clock,
		log:    log.WithField("component", "asr"),
		// Buffered so late emissions never block once the driver has
		// stopped consuming after a fatal fault.
		events: make(chan transcriber.Event, 32),
	}
}

func (e *HTTPEngine) Events() <-chan transcriber.Event { return e.events }

func (e *HTTPEngine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active {
		return nil
	}
	e.active = true
	e.cancel = make(chan struct{})
	go e.session(e.cancel)
	return nil
}

func (e *HTTPEngine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.active || e.cancel == nil {
		return
	}
	close(e.cancel)
	e.cancel = nil
}

func (e *HTTPEngine) emit(ev transcriber.Event) {
	select {
	case e.events <- ev:
	default:
		e.log.WithField("kind", ev.Kind).Warn("event dropped, consumer gone")
	}
}

func (e *HTTPEngine) deactivate() {
	e.mu.Lock()
	e.active = false
	e.mu.Unlock()
}

func (e *HTTPEngine) session(cancel <-chan struct{}) {
	defer e.deactivate()
	e.emit(transcriber.Event{Kind: transcriber.EventStarted})

	from := e.clock.Pos()
	lo := int(math.Floor(from * float64(e.clip.SampleRate)))
	if lo < 0 {
		lo = 0
	}
	if lo >= len(e.clip.Samples) {
		e.emit(transcriber.Event{Kind: transcriber.EventEnded})
		return
	}

	wavBytes, err := media.EncodeWAV(e.clip.Samples[lo:], e.clip.SampleRate)
	if err != nil {
		e.log.WithError(err).Warn("encode for upload")
		e.emit(transcriber.Event{Kind: transcriber.EventError, Code: transcriber.CodeNetwork})
		return
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go func() {
		select {
		case <-cancel:
			stop()
		case <-ctx.Done():
		}
	}()

	res, err := e.client.Transcribe(ctx, e.url, bytes.NewReader(wavBytes), "clip.wav")
	if err != nil {
		if ctx.Err() != nil {
			e.emit(transcriber.Event{Kind: transcriber.EventEnded})
			return
		}
		e.log.WithError(err).Warn("transcription request failed")
		e.emit(transcriber.Event{Kind: transcriber.EventError, Code: transcriber.CodeNetwork})
		return
	}
	if len(res.Segments) == 0 {
		e.emit(transcriber.Event{Kind: transcriber.EventError, Code: transcriber.CodeNoSpeech})
		return
	}

	tick := time.NewTicker(pacePoll)
	defer tick.Stop()
	for _, seg := range res.Segments {
		due := from + seg.End
		for e.clock.Pos() < due {
			select {
			case <-cancel:
				e.emit(transcriber.Event{Kind: transcriber.EventEnded})
				return
			case <-tick.C:
			}
		}
		e.emit(transcriber.Event{
			Kind:    transcriber.EventResult,
			Results: []transcriber.Result{{Transcript: seg.Text, Confidence: seg.Confidence}},
		})
	}
	e.emit(transcriber.Event{Kind: transcriber.EventEnded})
}
