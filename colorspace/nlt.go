package colorspace

import (
	"math"

	"github.com/aous72/OpenJPH-sub001/linebuf"
)

// The non-linear type-3 point transform of ITU-T T.814 folds an
// asymmetric signed representation into a symmetric one:
//
//	v' = v            when v >= 0
//	v' = -v - shift   when v <  0
//
// The operator is an involution, so the same kernel serves both
// directions; in signed mode shift = (1 << (B-1)) + 1.

// NLTShift returns the type-3 shift for a signed component of the given
// bit depth.
func NLTShift(bitDepth int) int64 {
	return (1 << (bitDepth - 1)) + 1
}

// RevConvert copies integer samples adding a constant offset, widening or
// narrowing between the 32- and 64-bit element forms as tagged. It is the
// sample/coefficient conversion of the reversible pipeline: the offset is
// -2^(B-1) on encode and +2^(B-1) on decode for unsigned components.
func RevConvert(src, dst *linebuf.Line, shift int64, width int) {
	switch {
	case src.Tag() == linebuf.Int32 && dst.Tag() == linebuf.Int32:
		sp, dp := src.I32(), dst.I32()
		s := int32(shift)
		for i := 0; i < width; i++ {
			dp[i] = sp[i] + s
		}
	case src.Tag() == linebuf.Int32 && dst.Tag() == linebuf.Int64:
		sp, dp := src.I32(), dst.I64()
		for i := 0; i < width; i++ {
			dp[i] = int64(sp[i]) + shift
		}
	case src.Tag() == linebuf.Int64 && dst.Tag() == linebuf.Int32:
		sp, dp := src.I64(), dst.I32()
		for i := 0; i < width; i++ {
			dp[i] = int32(sp[i] + shift)
		}
	default:
		sp, dp := src.I64(), dst.I64()
		for i := 0; i < width; i++ {
			dp[i] = sp[i] + shift
		}
	}
}

// RevConvertNLTType3 is RevConvert composed with the type-3 transform,
// used for signed components whose negative range is asymmetric.
func RevConvertNLTType3(src, dst *linebuf.Line, shift int64, width int) {
	switch {
	case src.Tag() == linebuf.Int32 && dst.Tag() == linebuf.Int32:
		sp, dp := src.I32(), dst.I32()
		s := int32(shift)
		for i := 0; i < width; i++ {
			v := sp[i]
			if v >= 0 {
				dp[i] = v
			} else {
				dp[i] = -v - s
			}
		}
	case src.Tag() == linebuf.Int32 && dst.Tag() == linebuf.Int64:
		sp, dp := src.I32(), dst.I64()
		for i := 0; i < width; i++ {
			v := int64(sp[i])
			if v >= 0 {
				dp[i] = v
			} else {
				dp[i] = -v - shift
			}
		}
	case src.Tag() == linebuf.Int64 && dst.Tag() == linebuf.Int32:
		sp, dp := src.I64(), dst.I32()
		for i := 0; i < width; i++ {
			v := sp[i]
			if v >= 0 {
				dp[i] = int32(v)
			} else {
				dp[i] = int32(-v - shift)
			}
		}
	default:
		sp, dp := src.I64(), dst.I64()
		for i := 0; i < width; i++ {
			v := sp[i]
			if v >= 0 {
				dp[i] = v
			} else {
				dp[i] = -v - shift
			}
		}
	}
}

// IrvConvertToFloatNLTType3 converts integer samples to the normalized
// float representation of the irreversible pipeline, applying the type-3
// transform for signed components. Samples are scaled into [-0.5, 0.5).
func IrvConvertToFloatNLTType3(src, dst *linebuf.Line, bitDepth int, signed bool, width int) {
	const mul = float32(1.0 / 65536.0 / 65536.0)
	sp, dp := src.I32(), dst.F32()
	shift := uint(32 - bitDepth)
	if signed {
		bias := int32(math.MinInt32 + 1)
		for i := 0; i < width; i++ {
			v := sp[i] << shift
			if v < 0 {
				v = -v - bias
			}
			dp[i] = float32(v) * mul
		}
		return
	}
	for i := 0; i < width; i++ {
		v := uint32(sp[i]) << shift
		dp[i] = float32(v)*mul - 0.5
	}
}

// IrvConvertToIntegerNLTType3 inverts IrvConvertToFloatNLTType3: floats
// are scaled by 2^B, rounded to nearest, and clamped to the B-bit range;
// signed outputs pass back through the type-3 transform, unsigned outputs
// get the half-range offset.
func IrvConvertToIntegerNLTType3(src, dst *linebuf.Line, bitDepth int, signed bool, width int) {
	sp, dp := src.F32(), dst.I32()
	if bitDepth <= 30 {
		mul := float32(int64(1) << bitDepth)
		upper := int32(math.MaxInt32) >> (32 - bitDepth)
		lower := int32(math.MinInt32) >> (32 - bitDepth)
		if signed {
			bias := int32(1<<(bitDepth-1)) + 1
			for i := 0; i < width; i++ {
				v := roundF32(sp[i] * mul)
				v = clamp32(v, lower, upper)
				if v < 0 {
					v = -v - bias
				}
				dp[i] = v
			}
			return
		}
		half := int32(1 << (bitDepth - 1))
		for i := 0; i < width; i++ {
			v := roundF32(sp[i] * mul)
			dp[i] = clamp32(v, lower, upper) + half
		}
		return
	}

	// Deep samples can exceed the 32-bit range after scaling; clamp in 64
	// bits before narrowing.
	mul := float64(int64(1) << bitDepth)
	upper := int64(math.MaxInt64) >> (64 - bitDepth)
	lower := int64(math.MinInt64) >> (64 - bitDepth)
	if signed {
		bias := int32(1<<(bitDepth-1)) + 1
		for i := 0; i < width; i++ {
			t := roundF64(float64(sp[i]) * mul)
			v := int32(clamp64(t, lower, upper))
			if v < 0 {
				v = -v - bias
			}
			dp[i] = v
		}
		return
	}
	half := int32(1 << (bitDepth - 1))
	for i := 0; i < width; i++ {
		t := roundF64(float64(sp[i]) * mul)
		dp[i] = int32(clamp64(t, lower, upper)) + half
	}
}

func roundF32(v float32) int32 {
	if v >= 0 {
		return int32(v + 0.5)
	}
	return int32(v - 0.5)
}

func roundF64(v float64) int64 {
	if v >= 0 {
		return int64(v + 0.5)
	}
	return int64(v - 0.5)
}

func clamp32(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp64(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
