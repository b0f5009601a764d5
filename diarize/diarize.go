// Package diarize assigns each transcribed segment to one of two
// inferred speaker roles using only signal-derived acoustic cues. No
// statistical speaker model is trained or consulted; segment
// granularity is whatever the recognition engine finalized, so cluster
// quality is bounded by that external cadence.
package diarize

import (
	"github.com/maastricht-university/interview-pipeline/dsp"
	"github.com/maastricht-university/interview-pipeline/transcriber"
)

// Diarize labels the segments in place and returns them. It is total:
// it never fails, degrading to a single-cluster labeling for fewer
// than two segments and to the empty sequence for none.
func Diarize(samples []float64, sampleRate int, segments []transcriber.Segment) []transcriber.Segment {
	if len(segments) == 0 {
		return segments
	}
	feats := dsp.Extract(samples, sampleRate, segments)
	part := Assign(feats)
	label(segments, feats, part)
	Smooth(segments)
	return segments
}
