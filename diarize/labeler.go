package diarize

import (
	"github.com/maastricht-university/interview-pipeline/dsp"
	"github.com/maastricht-university/interview-pipeline/transcriber"
)

// smoothMaxWords: an island shorter than this many words between two
// same-speaker neighbours is folded into them.
const smoothMaxWords = 3

// label maps the partition onto speaker roles. Convention: the cluster
// with the lower mean pitch is the interviewer. This is a heuristic,
// not a truth about voices; see DESIGN.md.
func label(segments []transcriber.Segment, feats []dsp.Features, p Partition) {
	roleA, roleB := transcriber.SpeakerInterviewer, transcriber.SpeakerInterviewee
	if meanPitch(feats, p.A) > meanPitch(feats, p.B) && len(p.B) > 0 {
		roleA, roleB = roleB, roleA
	}
	for _, i := range p.A {
		segments[i].Speaker = roleA
	}
	for _, i := range p.B {
		segments[i].Speaker = roleB
	}
}

func meanPitch(feats []dsp.Features, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	sum := 0.0
	for _, i := range idx {
		sum += feats[i].Pitch
	}
	return sum / float64(len(idx))
}

// Smooth removes short label islands: an interior segment whose two
// neighbours agree with each other but not with it, and whose text is
// under smoothMaxWords words, takes the neighbours' label. One pass,
// left to right; the pass is a fixed point, so re-smoothing changes
// nothing.
func Smooth(segments []transcriber.Segment) {
	for i := 1; i < len(segments)-1; i++ {
		prev, next := segments[i-1].Speaker, segments[i+1].Speaker
		if prev == next && prev != segments[i].Speaker && segments[i].Words() < smoothMaxWords {
			segments[i].Speaker = prev
		}
	}
}
