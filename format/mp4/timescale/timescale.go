package timescale

import (
	"math"
	"math/bits"
	"time"
)

// ToScale converts a time.Duration to a specified timescale, rounding to the nearest unit
func ToScale(t time.Duration, scale uint32) uint64 {
	hi, lo := bits.Mul64(uint64(t), uint64(scale))
	units, rem := bits.Div64(hi, lo, uint64(time.Second))
	if rem >= uint64(time.Second/2) {
		// round up
		units++
	}
	return units
}

// FromScale converts units of a timescale to a time.Duration, truncating
// toward zero the way demuxers derive buffer timestamps. Results that do not
// fit a time.Duration, and a zero scale, saturate to the largest duration.
func FromScale(units uint64, scale uint32) time.Duration {
	hi, lo := bits.Mul64(units, uint64(time.Second))
	if hi >= uint64(scale) {
		return math.MaxInt64
	}
	ns, _ := bits.Div64(hi, lo, uint64(scale))
	if ns > math.MaxInt64 {
		return math.MaxInt64
	}
	return time.Duration(ns)
}
