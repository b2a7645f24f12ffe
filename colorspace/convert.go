package colorspace

// Sample/coefficient conversions for the irreversible pipeline without the
// type-3 transform. Unsigned samples carry a half-range offset; the float
// form is normalized by 2^-B.

// I32ToFloatShifted converts unsigned integer samples to floats:
// f = s * mul - 0.5, where mul = 2^-B, placing the signal in [-0.5, 0.5).
func I32ToFloatShifted(sp []int32, dp []float32, mul float32, width int) {
	for i := 0; i < width; i++ {
		dp[i] = float32(sp[i])*mul - 0.5
	}
}

// I32ToFloat converts signed integer samples to floats: f = s * mul.
func I32ToFloat(sp []int32, dp []float32, mul float32, width int) {
	for i := 0; i < width; i++ {
		dp[i] = float32(sp[i]) * mul
	}
}

// FloatToI32Shifted converts floats back to unsigned samples, rounding
// to nearest: s = round((f + 0.5) * mul) with mul = 2^B.
func FloatToI32Shifted(sp []float32, dp []int32, mul float32, width int) {
	for i := 0; i < width; i++ {
		dp[i] = roundF32((sp[i] + 0.5) * mul)
	}
}

// FloatToI32 converts floats back to signed samples, rounding to nearest.
func FloatToI32(sp []float32, dp []int32, mul float32, width int) {
	for i := 0; i < width; i++ {
		dp[i] = roundF32(sp[i] * mul)
	}
}

// ClampToDepth clamps reconstructed samples to the representable range of
// a B-bit component: [0, 2^B-1] unsigned, [-2^(B-1), 2^(B-1)-1] signed.
func ClampToDepth(sp []int32, bitDepth int, signed bool, width int) {
	var lo, hi int32
	if signed {
		lo = -(1 << (bitDepth - 1))
		hi = (1 << (bitDepth - 1)) - 1
	} else {
		lo = 0
		hi = (1 << bitDepth) - 1
	}
	for i := 0; i < width; i++ {
		sp[i] = clamp32(sp[i], lo, hi)
	}
}
