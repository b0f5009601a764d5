package transcriber

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/looplab/fsm"
	"github.com/sirupsen/logrus"
)

// Delays are the fixed scheduling constants of a run. There is no
// exponential growth and no retry cap; the only bound on restarts is
// the remaining playback time.
type Delays struct {
	Settle          time.Duration // playback settle before the first engine start
	TransientResume time.Duration // restart backoff after no-speech/aborted
	EndResume       time.Duration // restart backoff after a clean engine end
}

func DefaultDelays() Delays {
	return Delays{
		Settle:          500 * time.Millisecond,
		TransientResume: 300 * time.Millisecond,
		EndResume:       100 * time.Millisecond,
	}
}

// transientHeadroom: a transient halt this close to the end of playback
// is not worth a restart.
const transientHeadroom = 1.0 // sec

// Session states.
const (
	stIdle       = "idle"
	stStarting   = "starting"
	stListening  = "listening"
	stRestarting = "restarting"
	stStopped    = "stopped"
)

// Driver keeps a continuous recognition engine alive in lockstep with
// audio playback and accumulates the finalized segments it produces.
// A Driver runs at most one Transcribe; Stop may be called from any
// goroutine, any number of times.
type Driver struct {
	delays   Delays
	log      *logrus.Entry
	stopOnce sync.Once
	stopCh   chan struct{}
}

func NewDriver(delays Delays, log *logrus.Logger) *Driver {
	if log == nil {
		log = logrus.New()
	}
	return &Driver{
		delays: delays,
		log:    log.WithField("component", "driver"),
		stopCh: make(chan struct{}),
	}
}

// Stop requests cancellation of the in-flight run. Cancellation is
// cooperative: the run resolves through its normal exit paths once the
// event loop observes the signal, so callers must still wait on
// Transcribe to return.
func (d *Driver) Stop() {
	d.stopOnce.Do(func() { close(d.stopCh) })
}

// session is the transient state of one Transcribe invocation.
type session struct {
	machine        *fsm.FSM
	engineActive   bool
	shouldContinue bool
	restartTimer   *time.Timer
	restartC       <-chan time.Time
}

func newSession() *session {
	return &session{
		shouldContinue: true,
		machine: fsm.NewFSM(stIdle,
			fsm.Events{
				{Name: "begin", Src: []string{stIdle}, Dst: stStarting},
				{Name: "engine_up", Src: []string{stStarting}, Dst: stListening},
				{Name: "halt", Src: []string{stStarting, stListening}, Dst: stRestarting},
				{Name: "rearm", Src: []string{stRestarting}, Dst: stStarting},
				{Name: "finish", Src: []string{stIdle, stStarting, stListening, stRestarting}, Dst: stStopped},
			},
			fsm.Callbacks{},
		),
	}
}

func (s *session) transition(ctx context.Context, event string) {
	// An invalid transition is a driver bug, not a runtime condition;
	// the machine keeps its current state and the loop carries on.
	_ = s.machine.Event(ctx, event)
}

func (s *session) schedule(d time.Duration) {
	s.cancelRestart()
	s.restartTimer = time.NewTimer(d)
	s.restartC = s.restartTimer.C
}

func (s *session) cancelRestart() {
	if s.restartTimer != nil {
		s.restartTimer.Stop()
		s.restartTimer = nil
		s.restartC = nil
	}
}

// Transcribe plays the audio while keeping engine recognition sessions
// alive across transient halts, and returns the ordered, contiguous
// segment sequence once playback is exhausted. Exactly one of the
// return values is meaningful: on error the partial segments are
// discarded.
func (d *Driver) Transcribe(ctx context.Context, engine Engine, player Player, cb Callbacks) ([]Segment, error) {
	if engine == nil {
		return nil, ErrUnsupportedCapability
	}
	if err := player.Play(); err != nil {
		player.Pause()
		if cerr := player.Close(); cerr != nil {
			d.log.WithError(cerr).Warn("releasing playback")
		}
		return nil, fmt.Errorf("start playback: %v: %w", err, ErrPlaybackFault)
	}

	sess := newSession()
	col := newCollector(player.Duration(), cb)

	released := false
	release := func() {
		if released {
			return
		}
		released = true
		player.Pause()
		if err := player.Close(); err != nil {
			d.log.WithError(err).Warn("releasing playback")
		}
	}

	// Engine Stop is idempotent, so teardown always issues it: a session
	// may have been started without its EventStarted consumed yet, and
	// such a session must not outlive the run.
	fail := func(err error) ([]Segment, error) {
		sess.cancelRestart()
		sess.transition(ctx, "finish")
		engine.Stop()
		release()
		return nil, err
	}
	finish := func() ([]Segment, error) {
		sess.cancelRestart()
		sess.transition(ctx, "finish")
		engine.Stop()
		release()
		return col.finish(), nil
	}

	startEngine := func() error {
		if sess.engineActive {
			// Serialization guard: never double-start the engine.
			d.log.Debug("engine already active, skipping start")
			return nil
		}
		if err := engine.Start(); err != nil {
			return fmt.Errorf("engine start: %v: %w", err, ErrRecognitionFault)
		}
		return nil
	}

	// Settle delay before the first engine start; playback has already
	// begun, so the clock is running.
	sess.schedule(d.delays.Settle)
	d.log.WithField("duration", player.Duration()).Info("transcription started")

	// Disarmed (set to nil) once observed, so the loop does not spin on
	// them while waiting for the engine's terminal event.
	ctxDone := ctx.Done()
	stopC := d.stopCh
	playerDone := player.Done()

	for {
		select {
		case <-ctxDone:
			ctxDone = nil
			d.Stop()
			stopC = nil
			sess.shouldContinue = false
			sess.cancelRestart()
			if sess.engineActive {
				engine.Stop()
				continue
			}
			return finish()

		case <-stopC:
			stopC = nil
			sess.shouldContinue = false
			sess.cancelRestart()
			if sess.engineActive {
				engine.Stop()
				// resolution happens when the engine reports its end
				continue
			}
			return finish()

		case <-sess.restartC:
			sess.restartTimer = nil
			sess.restartC = nil
			if !sess.shouldContinue {
				continue
			}
			if sess.machine.Is(stIdle) {
				sess.transition(ctx, "begin")
			} else {
				sess.transition(ctx, "rearm")
			}
			if err := startEngine(); err != nil {
				return fail(err)
			}

		case perr := <-playerDone:
			playerDone = nil
			if perr != nil {
				return fail(fmt.Errorf("playback: %v: %w", perr, ErrPlaybackFault))
			}
			sess.shouldContinue = false
			sess.cancelRestart()
			if sess.engineActive {
				engine.Stop()
				continue
			}
			return finish()

		case ev, ok := <-engine.Events():
			if !ok {
				// Engine channel closed without a terminal event: treat
				// as a clean end with no time remaining.
				return finish()
			}
			switch ev.Kind {
			case EventStarted:
				sess.engineActive = true
				sess.transition(ctx, "engine_up")
				d.log.Debug("engine session up")

			case EventResult:
				pos := player.Pos()
				for _, r := range ev.Results {
					col.append(r.Transcript, r.Confidence, pos)
				}

			case EventError:
				sess.engineActive = false
				fatal := classify(ev.Code)
				if fatal != nil {
					d.log.WithField("code", ev.Code).Warn("fatal engine halt")
					return fail(fatal)
				}
				rem := player.Duration() - player.Pos()
				if sess.shouldContinue && rem > transientHeadroom {
					d.log.WithFields(logrus.Fields{"code": ev.Code, "remaining": rem}).
						Info("transient engine halt, restarting")
					sess.transition(ctx, "halt")
					sess.schedule(d.delays.TransientResume)
					continue
				}
				return finish()

			case EventEnded:
				sess.engineActive = false
				rem := player.Duration() - player.Pos()
				if sess.shouldContinue && rem > 0 {
					d.log.WithField("remaining", rem).Debug("engine ended early, restarting")
					sess.transition(ctx, "halt")
					sess.schedule(d.delays.EndResume)
					continue
				}
				return finish()
			}
		}
	}
}

// classify maps an engine halt code onto the fault taxonomy. A nil
// return means the halt is transient and the driver recovers from it
// internally.
func classify(code string) error {
	switch code {
	case CodeNoSpeech, CodeAborted:
		return nil
	case CodeNotAllowed, CodeServiceNotAllowed:
		return fmt.Errorf("engine halted (%s): %w", code, ErrPermissionDenied)
	default:
		return fmt.Errorf("engine halted (%s): %w", code, ErrRecognitionFault)
	}
}
