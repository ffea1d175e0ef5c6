package vlbi

import (
	"math"

	"github.com/banshee-data/vlbicore/internal/vlbitime"
)

// SampleInterpolator resolves a real-valued sample at a possibly
// fractional index into a node's stream, letting the correlator trade
// accuracy for cost.
type SampleInterpolator interface {
	Sample(data []float64, position float64) float64
}

// NearestInterpolator rounds to the closest integer index.
type NearestInterpolator struct{}

func (NearestInterpolator) Sample(data []float64, position float64) float64 {
	if len(data) == 0 {
		return 0
	}
	idx := int(math.Round(position))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(data) {
		idx = len(data) - 1
	}
	return data[idx]
}

// LinearInterpolator linearly blends the two nearest samples.
type LinearInterpolator struct{}

func (LinearInterpolator) Sample(data []float64, position float64) float64 {
	if len(data) == 0 {
		return 0
	}
	if position <= 0 {
		return data[0]
	}
	last := float64(len(data) - 1)
	if position >= last {
		return data[len(data)-1]
	}
	lo := int(math.Floor(position))
	hi := lo + 1
	frac := position - float64(lo)
	return data[lo]*(1-frac) + data[hi]*frac
}

// correlate returns s1(t1)*conj(s2(t2)), where each stream is sampled at
// its own J2000 instant via interp, which may use nearest-neighbor or
// linear interpolation between integer sample positions. Both streams
// hold real samples, so the conjugate is a no-op; the result's
// imaginary part is always zero.
func correlate(n1 *Node, t1 float64, n2 *Node, t2 float64, interp SampleInterpolator) complex128 {
	v1 := interp.Sample(n1.Stream.Samples, samplePosition(n1, t1))
	v2 := interp.Sample(n2.Stream.Samples, samplePosition(n2, t2))
	return complex(v1*v2, 0)
}

// samplePosition converts a J2000 instant into a (possibly fractional)
// index into n's sample stream.
func samplePosition(n *Node, tJ2000 float64) float64 {
	if n.Stream.SampleRate <= 0 {
		return 0
	}
	start := vlbitime.UTCToJ2000(n.Stream.StartTimeUTC)
	return (tJ2000 - start) * n.Stream.SampleRate
}

// correlateLocked returns the pre-supplied visibility sample for a locked
// baseline, or 0 if sampleIndex is out of range.
func correlateLocked(buf []complex128, sampleIndex int) complex128 {
	if sampleIndex < 0 || sampleIndex >= len(buf) {
		return 0
	}
	return buf[sampleIndex]
}
