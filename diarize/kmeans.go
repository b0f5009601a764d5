package diarize

import (
	"math"

	"github.com/maastricht-university/interview-pipeline/dsp"
)

// rounds is fixed; the assigner does not iterate to convergence.
const rounds = 10

// Partition is the two disjoint index sets covering 0..n-1 produced by
// one clustering call. B may be empty for degenerate inputs.
type Partition struct {
	A, B []int
}

type point [3]float64

// Assign partitions the feature vectors into two clusters by iterative
// relocation over normalized (energy, pitch, zcr) space. It is fully
// deterministic: centroids are seeded from the vectors at indices 0 and
// n/2, distance ties go to the first cluster.
func Assign(feats []dsp.Features) Partition {
	n := len(feats)
	if n < 2 {
		p := Partition{}
		for i := 0; i < n; i++ {
			p.A = append(p.A, i)
		}
		return p
	}

	pts := normalize(feats)
	ca, cb := pts[0], pts[n/2]

	var prev Partition
	for round := 0; round < rounds; round++ {
		var cur Partition
		for i, p := range pts {
			if dist(p, ca) <= dist(p, cb) {
				cur.A = append(cur.A, i)
			} else {
				cur.B = append(cur.B, i)
			}
		}
		if len(cur.A) == 0 || len(cur.B) == 0 {
			// Degenerate round: keep the last non-degenerate partition,
			// or fall back to the trivial one when it was the first.
			if prev.A == nil && prev.B == nil {
				return trivial(n)
			}
			return prev
		}
		ca = mean(pts, cur.A)
		cb = mean(pts, cur.B)
		prev = cur
	}
	return prev
}

func trivial(n int) Partition {
	p := Partition{A: make([]int, n)}
	for i := range p.A {
		p.A[i] = i
	}
	return p
}

// normalize min-max scales each dimension independently to [0,1].
// A constant dimension maps to 0 (range clamped to 1). Undefined pitch
// is excluded from the pitch range and mapped to the midpoint 0.5.
func normalize(feats []dsp.Features) []point {
	var eMin, eMax = math.Inf(1), math.Inf(-1)
	var pMin, pMax = math.Inf(1), math.Inf(-1)
	var zMin, zMax = math.Inf(1), math.Inf(-1)
	for _, f := range feats {
		eMin, eMax = math.Min(eMin, f.Energy), math.Max(eMax, f.Energy)
		zMin, zMax = math.Min(zMin, f.ZCR), math.Max(zMax, f.ZCR)
		if f.Pitch != dsp.PitchUndefined {
			pMin, pMax = math.Min(pMin, f.Pitch), math.Max(pMax, f.Pitch)
		}
	}
	eRange := span(eMin, eMax)
	pRange := span(pMin, pMax)
	zRange := span(zMin, zMax)

	pts := make([]point, len(feats))
	for i, f := range feats {
		pts[i][0] = (f.Energy - eMin) / eRange
		if f.Pitch == dsp.PitchUndefined || math.IsInf(pMin, 1) {
			pts[i][1] = 0.5
		} else {
			pts[i][1] = (f.Pitch - pMin) / pRange
		}
		pts[i][2] = (f.ZCR - zMin) / zRange
	}
	return pts
}

func span(lo, hi float64) float64 {
	if r := hi - lo; r > 0 {
		return r
	}
	return 1
}

func dist(a, b point) float64 {
	dx, dy, dz := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

func mean(pts []point, idx []int) point {
	var m point
	for _, i := range idx {
		m[0] += pts[i][0]
		m[1] += pts[i][1]
		m[2] += pts[i][2]
	}
	n := float64(len(idx))
	m[0], m[1], m[2] = m[0]/n, m[1]/n, m[2]/n
	return m
}
