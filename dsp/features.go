// Package dsp computes the per-segment acoustic features that feed the
// speaker clustering pass: signal energy, an autocorrelation pitch
// estimate, and zero-crossing rate.
package dsp

import (
	"math"

	"github.com/maastricht-university/interview-pipeline/transcriber"
)

// pitchWindow caps the autocorrelation window size.
const pitchWindow = 2048

// minLag bounds the pitch search; sampleRate/minLag is the highest
// fundamental the estimator will report.
const minLag = 20

// PitchUndefined is the sentinel for a slice where no lag improved on
// the initial correlation score (silence, very short slices). It is
// mapped to the dimension midpoint during normalization.
const PitchUndefined = 0.0

// Features of one segment's waveform slice.
type Features struct {
	Energy float64 // RMS of the slice
	Pitch  float64 // estimated fundamental in Hz, or PitchUndefined
	ZCR    float64 // fraction of sign changes between neighbours
}

// Extract slices the first channel between each segment's boundaries
// and computes its features. Segment times outside the buffer are
// clamped; an empty slice yields zero features with undefined pitch.
func Extract(samples []float64, sampleRate int, segments []transcriber.Segment) []Features {
	out := make([]Features, len(segments))
	for i, seg := range segments {
		lo := clampIndex(int(math.Floor(seg.Start*float64(sampleRate))), len(samples))
		hi := clampIndex(int(math.Floor(seg.End*float64(sampleRate))), len(samples))
		if hi < lo {
			hi = lo
		}
		slice := samples[lo:hi]
		out[i] = Features{
			Energy: rms(slice),
			Pitch:  EstimatePitch(slice, sampleRate),
			ZCR:    zcr(slice),
		}
	}
	return out
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

func rms(s []float64) float64 {
	if len(s) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(s)))
}

func zcr(s []float64) float64 {
	if len(s) < 2 {
		return 0
	}
	crossings := 0
	for i := 1; i < len(s); i++ {
		if (s[i-1] >= 0) != (s[i] >= 0) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(s)-1)
}

// EstimatePitch runs average-magnitude-difference autocorrelation over
// the first pitchWindow samples of the slice: the lag whose shifted
// copy differs least from the original wins. Returns PitchUndefined
// when no lag beats the initial zero score.
func EstimatePitch(s []float64, sampleRate int) float64 {
	n := len(s)
	if n > pitchWindow {
		n = pitchWindow
	}
	w := s[:n]

	bestLag := 0
	bestScore := 0.0
	for lag := minLag; lag < n/2; lag++ {
		diff := 0.0
		for i := 0; i < n-lag; i++ {
			diff += math.Abs(w[i] - w[i+lag])
		}
		score := 1 - diff/float64(n-lag)
		if score > bestScore {
			bestScore = score
			bestLag = lag
		}
	}
	if bestLag == 0 {
		return PitchUndefined
	}
	return float64(sampleRate) / float64(bestLag)
}
