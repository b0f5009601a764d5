// Package orchestrator wires the full run: decode the recording, drive
// playback and recognition to a finished segment sequence, diarize it,
// and hand the result downstream.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/interview-pipeline/asr"
	"github.com/maastricht-university/interview-pipeline/clients"
	cfg "github.com/maastricht-university/interview-pipeline/config"
	"github.com/maastricht-university/interview-pipeline/diarize"
	"github.com/maastricht-university/interview-pipeline/media"
	"github.com/maastricht-university/interview-pipeline/output"
	"github.com/maastricht-university/interview-pipeline/transcriber"
)

type Pipeline struct {
	cfg  *cfg.Root
	http *clients.HTTP
	sink output.Sink
	log  *logrus.Logger

	driver *transcriber.Driver
}

func NewPipeline(c *cfg.Root, sink output.Sink, log *logrus.Logger) *Pipeline {
	if log == nil {
		log = logrus.New()
	}
	return &Pipeline{
		cfg:  c,
		http: clients.NewHTTP(c.Recognition.Timeout()),
		sink: sink,
		log:  log,
	}
}

// Stop cancels the in-flight run, if any. Cooperative: Run still
// resolves through its own exit paths.
func (p *Pipeline) Stop() {
	if p.driver != nil {
		p.driver.Stop()
	}
}

func (p *Pipeline) delays() transcriber.Delays {
	d := p.cfg.Delays
	out := transcriber.DefaultDelays()
	if d.SettleMs > 0 {
		out.Settle = time.Duration(d.SettleMs) * time.Millisecond
	}
	if d.TransientResumeMs > 0 {
		out.TransientResume = time.Duration(d.TransientResumeMs) * time.Millisecond
	}
	if d.EndResumeMs > 0 {
		out.EndResume = time.Duration(d.EndResumeMs) * time.Millisecond
	}
	return out
}

func (p *Pipeline) Run(ctx context.Context, wavPath string) error {
	sid, err := p.sink.Begin(wavPath)
	if err != nil {
		return err
	}
	if err := p.sink.SetStatus(sid, output.StatusUploaded); err != nil {
		return err
	}

	clip, err := media.DecodeWAV(wavPath)
	if err != nil {
		_ = p.sink.SetStatus(sid, output.StatusError)
		return fmt.Errorf("%v: %w", err, transcriber.ErrPlaybackFault)
	}
	p.log.WithFields(logrus.Fields{
		"session":  sid,
		"duration": clip.Duration,
		"rate":     clip.SampleRate,
	}).Info("recording decoded")

	if err := p.sink.SetStatus(sid, output.StatusProcessing); err != nil {
		return err
	}

	player := media.NewClockPlayer(clip)
	var engine transcriber.Engine
	if p.cfg.Recognition.URL != "" {
		engine = asr.NewHTTPEngine(p.http, p.cfg.Recognition.URL, clip, player, p.log)
	}

	p.driver = transcriber.NewDriver(p.delays(), p.log)
	segments, err := p.driver.Transcribe(ctx, engine, player, transcriber.Callbacks{
		OnProgress: func(pct float64) {
			p.log.WithField("pct", fmt.Sprintf("%.0f", pct)).Debug("progress")
		},
		OnSegment: func(seg transcriber.Segment) {
			p.log.WithFields(logrus.Fields{
				"start": seg.Start,
				"end":   seg.End,
			}).Debug("segment finalized")
		},
	})
	if err != nil {
		_ = p.sink.SetStatus(sid, output.StatusError)
		return err
	}

	segments = diarize.Diarize(clip.Samples, clip.SampleRate, segments)

	if err := p.sink.WriteTranscript(sid, wavPath, clip.Duration, segments); err != nil {
		_ = p.sink.SetStatus(sid, output.StatusError)
		return err
	}
	if err := p.sink.SetStatus(sid, output.StatusCompleted); err != nil {
		return err
	}
	p.log.WithFields(logrus.Fields{"session": sid, "segments": len(segments)}).Info("run completed")
	return nil
}
