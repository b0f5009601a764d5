package transcriber

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// Tiny delays keep the scheduling paths real without slowing the suite.
func testDelays() Delays {
	return Delays{
		Settle:          time.Millisecond,
		TransientResume: 2 * time.Millisecond,
		EndResume:       time.Millisecond,
	}
}

type fakePlayer struct {
	mu         sync.Mutex
	pos        float64
	dur        float64
	done       chan error
	pauses     int
	closes     int
	playFailed bool
}

func newFakePlayer(dur float64) *fakePlayer {
	return &fakePlayer{dur: dur, done: make(chan error, 1)}
}

func (p *fakePlayer) Play() error {
	if p.playFailed {
		return errors.New("device busy")
	}
	return nil
}
func (p *fakePlayer) Pause() {
	p.mu.Lock()
	p.pauses++
	p.mu.Unlock()
}
func (p *fakePlayer) Pos() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pos
}
func (p *fakePlayer) Duration() float64  { return p.dur }
func (p *fakePlayer) Done() <-chan error { return p.done }
func (p *fakePlayer) Close() error {
	p.mu.Lock()
	p.closes++
	p.mu.Unlock()
	return nil
}

func (p *fakePlayer) seek(t float64) {
	p.mu.Lock()
	p.pos = t
	p.mu.Unlock()
}

func (p *fakePlayer) fail(err error) {
	p.done <- err
}

// fakeEngine scripts one behavior per Start call.
type fakeEngine struct {
	mu      sync.Mutex
	events  chan Event
	starts  int
	stops   int
	active  bool
	session func(n int)
}

func newFakeEngine(session func(n int)) *fakeEngine {
	return &fakeEngine{events: make(chan Event, 32), session: session}
}

func (e *fakeEngine) Start() error {
	e.mu.Lock()
	e.starts++
	e.active = true
	n := e.starts
	e.mu.Unlock()
	go e.session(n)
	return nil
}

func (e *fakeEngine) Stop() {
	e.mu.Lock()
	e.stops++
	wasActive := e.active
	e.active = false
	e.mu.Unlock()
	if wasActive {
		e.events <- Event{Kind: EventEnded}
	}
}

func (e *fakeEngine) stopCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stops
}

func (e *fakeEngine) Events() <-chan Event { return e.events }

func (e *fakeEngine) started() { e.events <- Event{Kind: EventStarted} }

func (e *fakeEngine) result(text string, conf float64) {
	e.events <- Event{Kind: EventResult, Results: []Result{{Transcript: text, Confidence: conf}}}
}

func (e *fakeEngine) halt(code string) {
	e.mu.Lock()
	e.active = false
	e.mu.Unlock()
	e.events <- Event{Kind: EventError, Code: code}
}

func (e *fakeEngine) ended() {
	e.mu.Lock()
	e.active = false
	e.mu.Unlock()
	e.events <- Event{Kind: EventEnded}
}

func (e *fakeEngine) startCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.starts
}

func checkContiguous(t *testing.T, segs []Segment, dur float64) {
	t.Helper()
	if len(segs) == 0 {
		t.Fatal("no segments")
	}
	if segs[0].Start != 0 {
		t.Errorf("first segment starts at %v, want 0", segs[0].Start)
	}
	for i := 1; i < len(segs); i++ {
		if segs[i].Start != segs[i-1].End {
			t.Errorf("segment %d starts at %v, previous ends at %v", i, segs[i].Start, segs[i-1].End)
		}
	}
	if got := segs[len(segs)-1].End; got != dur {
		t.Errorf("last segment ends at %v, want duration %v", got, dur)
	}
}

func TestTranscribeRecoversFromNoSpeech(t *testing.T) {
	player := newFakePlayer(10)
	var eng *fakeEngine
	eng = newFakeEngine(func(n int) {
		switch n {
		case 1:
			eng.started()
			player.seek(1.0)
			eng.result("hello there", 0.9)
			player.seek(2.0)
			eng.halt(CodeNoSpeech)
		case 2:
			eng.started()
			player.seek(3.0)
			eng.result("how did it go", 0.8)
			player.seek(4.0)
			eng.halt(CodeNoSpeech)
		case 3:
			eng.started()
			player.seek(9.0)
			eng.result("quite well actually", 0.85)
			player.seek(9.5)
			eng.halt(CodeNoSpeech) // under 1s of playback left: resolve, don't restart
		}
	})

	d := NewDriver(testDelays(), nil)
	segs, err := d.Transcribe(context.Background(), eng, player, Callbacks{})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got := eng.startCount(); got != 3 {
		t.Errorf("engine started %d times, want 3 (two restarts)", got)
	}
	if len(segs) != 3 {
		t.Fatalf("got %d segments, want 3", len(segs))
	}
	checkContiguous(t, segs, 10)
	if segs[1].Text != "how did it go" {
		t.Errorf("segment order wrong: %q", segs[1].Text)
	}
}

func TestTranscribeRestartsAfterCleanEnd(t *testing.T) {
	player := newFakePlayer(10)
	var eng *fakeEngine
	eng = newFakeEngine(func(n int) {
		switch n {
		case 1:
			eng.started()
			player.seek(2.0)
			eng.result("first part", 0.9)
			eng.ended()
		case 2:
			eng.started()
			player.seek(6.0)
			eng.result("second part", 0.9)
			player.seek(10.0)
			eng.ended()
		}
	})

	d := NewDriver(testDelays(), nil)
	segs, err := d.Transcribe(context.Background(), eng, player, Callbacks{})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got := eng.startCount(); got != 2 {
		t.Errorf("engine started %d times, want 2", got)
	}
	checkContiguous(t, segs, 10)
}

func TestTranscribePermissionDenied(t *testing.T) {
	player := newFakePlayer(10)
	var eng *fakeEngine
	eng = newFakeEngine(func(n int) {
		eng.started()
		player.seek(1.0)
		eng.halt(CodeNotAllowed)
	})

	d := NewDriver(testDelays(), nil)
	_, err := d.Transcribe(context.Background(), eng, player, Callbacks{})
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("err = %v, want ErrPermissionDenied", err)
	}
	player.mu.Lock()
	defer player.mu.Unlock()
	if player.closes != 1 {
		t.Errorf("player closed %d times, want exactly 1", player.closes)
	}
}

func TestTranscribeUnknownCodeIsFatal(t *testing.T) {
	player := newFakePlayer(10)
	var eng *fakeEngine
	eng = newFakeEngine(func(n int) {
		eng.started()
		eng.halt("audio-capture")
	})

	d := NewDriver(testDelays(), nil)
	_, err := d.Transcribe(context.Background(), eng, player, Callbacks{})
	if !errors.Is(err, ErrRecognitionFault) {
		t.Fatalf("err = %v, want ErrRecognitionFault", err)
	}
}

func TestTranscribeNilEngine(t *testing.T) {
	player := newFakePlayer(10)
	d := NewDriver(testDelays(), nil)
	_, err := d.Transcribe(context.Background(), nil, player, Callbacks{})
	if !errors.Is(err, ErrUnsupportedCapability) {
		t.Fatalf("err = %v, want ErrUnsupportedCapability", err)
	}
}

func TestTranscribePlayRefused(t *testing.T) {
	player := newFakePlayer(10)
	player.playFailed = true
	eng := newFakeEngine(func(n int) {})

	d := NewDriver(testDelays(), nil)
	_, err := d.Transcribe(context.Background(), eng, player, Callbacks{})
	if !errors.Is(err, ErrPlaybackFault) {
		t.Fatalf("err = %v, want ErrPlaybackFault", err)
	}
	player.mu.Lock()
	defer player.mu.Unlock()
	if player.closes != 1 {
		t.Errorf("player closed %d times after Play fault, want exactly 1", player.closes)
	}
}

func TestStopHaltsSessionBeforeItReportsUp(t *testing.T) {
	player := newFakePlayer(10)
	// The session launches but never gets around to reporting started.
	eng := newFakeEngine(func(n int) {})

	d := NewDriver(testDelays(), nil)
	go func() {
		time.Sleep(20 * time.Millisecond) // settle long past, Start issued
		d.Stop()
	}()
	segs, err := d.Transcribe(context.Background(), eng, player, Callbacks{})
	if err != nil {
		t.Fatalf("Transcribe after Stop: %v", err)
	}
	if len(segs) != 0 {
		t.Errorf("got %d segments, want none", len(segs))
	}
	if got := eng.startCount(); got != 1 {
		t.Fatalf("engine started %d times, want 1", got)
	}
	if eng.stopCount() == 0 {
		t.Error("launched engine session was never stopped")
	}
}

func TestTranscribePlaybackFault(t *testing.T) {
	player := newFakePlayer(10)
	var eng *fakeEngine
	eng = newFakeEngine(func(n int) {
		eng.started()
		player.seek(1.0)
		player.fail(errors.New("decoder underrun"))
	})

	d := NewDriver(testDelays(), nil)
	_, err := d.Transcribe(context.Background(), eng, player, Callbacks{})
	if !errors.Is(err, ErrPlaybackFault) {
		t.Fatalf("err = %v, want ErrPlaybackFault", err)
	}
}

func TestStopIsIdempotentAndResolves(t *testing.T) {
	player := newFakePlayer(10)
	var eng *fakeEngine
	eng = newFakeEngine(func(n int) {
		eng.started()
		player.seek(1.0)
		eng.result("partial thought", 0.7)
	})

	d := NewDriver(testDelays(), nil)
	go func() {
		time.Sleep(20 * time.Millisecond)
		d.Stop()
		d.Stop() // second call must be a no-op
	}()
	segs, err := d.Transcribe(context.Background(), eng, player, Callbacks{})
	if err != nil {
		t.Fatalf("Transcribe after Stop: %v", err)
	}
	if len(segs) != 1 {
		t.Fatalf("got %d segments, want the 1 accumulated before Stop", len(segs))
	}
}

func TestTranscribeReportsProgressAndSegments(t *testing.T) {
	player := newFakePlayer(10)
	var eng *fakeEngine
	eng = newFakeEngine(func(n int) {
		eng.started()
		player.seek(5.0)
		eng.result("half way", 0.9)
		player.seek(10.0)
		eng.ended()
	})

	var mu sync.Mutex
	var lastPct float64
	var onSeg int
	cb := Callbacks{
		OnProgress: func(pct float64) {
			mu.Lock()
			lastPct = pct
			mu.Unlock()
		},
		OnSegment: func(Segment) {
			mu.Lock()
			onSeg++
			mu.Unlock()
		},
	}

	d := NewDriver(testDelays(), nil)
	if _, err := d.Transcribe(context.Background(), eng, player, cb); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if lastPct != 100 {
		t.Errorf("final progress = %v, want 100", lastPct)
	}
	if onSeg != 1 {
		t.Errorf("OnSegment fired %d times, want 1", onSeg)
	}
}
