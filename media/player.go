package media

import (
	"sync"
	"time"
)

// ClockPlayer simulates playback of a clip against the wall clock. It
// produces no sound; its job is the monotonically increasing playback
// position that segment boundaries are sampled from, and a single
// completion notification when the clip's duration elapses.
type ClockPlayer struct {
	duration float64

	mu      sync.Mutex
	started time.Time
	elapsed float64 // accumulated across pauses
	playing bool
	closed  bool
	timer   *time.Timer
	done    chan error
}

func NewClockPlayer(clip *Clip) *ClockPlayer {
	return &ClockPlayer{
		duration: clip.Duration,
		done:     make(chan error, 1),
	}
}

func (p *ClockPlayer) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playing || p.closed {
		return nil
	}
	p.playing = true
	p.started = time.Now()
	remaining := time.Duration((p.duration - p.elapsed) * float64(time.Second))
	p.timer = time.AfterFunc(remaining, p.end)
	return nil
}

func (p *ClockPlayer) end() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || !p.playing {
		return
	}
	p.elapsed = p.duration
	p.playing = false
	select {
	case p.done <- nil:
	default:
	}
}

func (p *ClockPlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing {
		return
	}
	p.elapsed += time.Since(p.started).Seconds()
	if p.elapsed > p.duration {
		p.elapsed = p.duration
	}
	p.playing = false
	if p.timer != nil {
		p.timer.Stop()
	}
}

func (p *ClockPlayer) Pos() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	pos := p.elapsed
	if p.playing {
		pos += time.Since(p.started).Seconds()
	}
	if pos > p.duration {
		pos = p.duration
	}
	return pos
}

func (p *ClockPlayer) Duration() float64 { return p.duration }

func (p *ClockPlayer) Done() <-chan error { return p.done }

func (p *ClockPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	p.playing = false
	if p.timer != nil {
		p.timer.Stop()
	}
	return nil
}
