// Package wavelet implements the lifting-based discrete wavelet transforms
// of JPEG 2000: the reversible 5/3 and irreversible 9/7 kernels of
// ISO/IEC 15444-1 Annex F, and the arbitrary transformation kernels (ATK)
// of ISO/IEC 15444-2.
//
// Kernels operate on guarded line buffers. Horizontal transforms write the
// symmetric extension into the guard elements themselves; vertical
// transforms take whole lines as operands, one lifting step at a time, so
// that a caller can stream strips through three rotating rows.
package wavelet

import "github.com/aous72/OpenJPH-sub001/linebuf"

// DWT53 reversible lifting, integer exact.
// Reference: ISO/IEC 15444-1:2019 Annex F, and the high-throughput profile
// of ITU-T T.814.

// RevVertFwdPredict32 applies the 5/3 analysis predict step to one line:
// dst[n] -= (src1[n] + src2[n]) >> 1.
func RevVertFwdPredict32(src1, src2, dst []int32) {
	for i := range dst {
		dst[i] -= (src1[i] + src2[i]) >> 1
	}
}

// RevVertFwdUpdate32 applies the 5/3 analysis update step to one line:
// dst[n] += (src1[n] + src2[n] + 2) >> 2.
func RevVertFwdUpdate32(src1, src2, dst []int32) {
	for i := range dst {
		dst[i] += (src1[i] + src2[i] + 2) >> 2
	}
}

// RevVertBwdPredict32 inverts RevVertFwdPredict32.
func RevVertBwdPredict32(src1, src2, dst []int32) {
	for i := range dst {
		dst[i] += (src1[i] + src2[i]) >> 1
	}
}

// RevVertBwdUpdate32 inverts RevVertFwdUpdate32.
func RevVertBwdUpdate32(src1, src2, dst []int32) {
	for i := range dst {
		dst[i] -= (src1[i] + src2[i] + 2) >> 2
	}
}

// 64-bit element variants, used when the accumulated precision of the
// reversible path exceeds a signed 32-bit value.

// RevVertFwdPredict64 is the Int64 variant of RevVertFwdPredict32.
func RevVertFwdPredict64(src1, src2, dst []int64) {
	for i := range dst {
		dst[i] -= (src1[i] + src2[i]) >> 1
	}
}

// RevVertFwdUpdate64 is the Int64 variant of RevVertFwdUpdate32.
func RevVertFwdUpdate64(src1, src2, dst []int64) {
	for i := range dst {
		dst[i] += (src1[i] + src2[i] + 2) >> 2
	}
}

// RevVertBwdPredict64 is the Int64 variant of RevVertBwdPredict32.
func RevVertBwdPredict64(src1, src2, dst []int64) {
	for i := range dst {
		dst[i] += (src1[i] + src2[i]) >> 1
	}
}

// RevVertBwdUpdate64 is the Int64 variant of RevVertBwdUpdate32.
func RevVertBwdUpdate64(src1, src2, dst []int64) {
	for i := range dst {
		dst[i] -= (src1[i] + src2[i] + 2) >> 2
	}
}

// subbandWidths returns the low-pass and high-pass sample counts of a
// width-sample interval whose origin parity is given by even.
func subbandWidths(width int, even bool) (lw, hw int) {
	if even {
		return (width + 1) >> 1, width >> 1
	}
	return width >> 1, (width + 1) >> 1
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// RevHorzFwd performs the forward 5/3 horizontal transform of one line into
// separate low-pass and high-pass lines. even selects the phase: when true
// the low-pass subsequence starts at sample 0.
//
// The symmetric extension src[-1]=src[1], src[width]=src[width-2] is
// written into the guard elements of src.
func RevHorzFwd(src, ldst, hdst *linebuf.Line, even bool) {
	switch src.Tag() {
	case linebuf.Int64:
		revHorzFwd64(src.ExtI64(), ldst.ExtI64(), hdst.ExtI64(), src.Width(), even)
	default:
		revHorzFwd32(src.ExtI32(), ldst.ExtI32(), hdst.ExtI32(), src.Width(), even)
	}
}

// RevHorzBwd performs the inverse 5/3 horizontal transform, interleaving
// low-pass and high-pass lines back into dst.
func RevHorzBwd(dst, lsrc, hsrc *linebuf.Line, even bool) {
	switch dst.Tag() {
	case linebuf.Int64:
		revHorzBwd64(dst.ExtI64(), lsrc.ExtI64(), hsrc.ExtI64(), dst.Width(), even)
	default:
		revHorzBwd32(dst.ExtI32(), lsrc.ExtI32(), hsrc.ExtI32(), dst.Width(), even)
	}
}

const g = linebuf.Guard

func revHorzFwd32(src, ldst, hdst []int32, width int, even bool) {
	if width <= 1 {
		if even {
			ldst[g] = src[g]
		} else {
			hdst[g] = src[g] << 1
		}
		return
	}
	lw, hw := subbandWidths(width, even)

	src[g-1] = src[g+1]
	src[g+width] = src[g+width-2]
	k := g + b2i(even)
	for i := 0; i < hw; i, k = i+1, k+2 {
		hdst[g+i] = src[k] - ((src[k-1] + src[k+1]) >> 1)
	}

	hdst[g-1] = hdst[g]
	hdst[g+hw] = hdst[g+hw-1]
	k = g + b2i(!even)
	h := g + b2i(!even)
	for i := 0; i < lw; i, k, h = i+1, k+2, h+1 {
		ldst[g+i] = src[k] + ((2 + hdst[h-1] + hdst[h]) >> 2)
	}
}

func revHorzBwd32(dst, lsrc, hsrc []int32, width int, even bool) {
	if width <= 1 {
		if even {
			dst[g] = lsrc[g]
		} else {
			dst[g] = hsrc[g] >> 1
		}
		return
	}
	lw, hw := subbandWidths(width, even)

	hsrc[g-1] = hsrc[g]
	hsrc[g+hw] = hsrc[g+hw-1]
	h := g + b2i(!even)
	for i := 0; i < lw; i, h = i+1, h+1 {
		lsrc[g+i] -= (2 + hsrc[h-1] + hsrc[h]) >> 2
	}

	lsrc[g-1] = lsrc[g]
	lsrc[g+lw] = lsrc[g+lw-1]
	d := g - b2i(!even)
	l := g - b2i(!even)
	h = g
	for i := 0; i < lw+b2i(!even); i, l, h = i+1, l+1, h+1 {
		dst[d] = lsrc[l]
		dst[d+1] = hsrc[h] + ((lsrc[l] + lsrc[l+1]) >> 1)
		d += 2
	}
}

func revHorzFwd64(src, ldst, hdst []int64, width int, even bool) {
	if width <= 1 {
		if even {
			ldst[g] = src[g]
		} else {
			hdst[g] = src[g] << 1
		}
		return
	}
	lw, hw := subbandWidths(width, even)

	src[g-1] = src[g+1]
	src[g+width] = src[g+width-2]
	k := g + b2i(even)
	for i := 0; i < hw; i, k = i+1, k+2 {
		hdst[g+i] = src[k] - ((src[k-1] + src[k+1]) >> 1)
	}

	hdst[g-1] = hdst[g]
	hdst[g+hw] = hdst[g+hw-1]
	k = g + b2i(!even)
	h := g + b2i(!even)
	for i := 0; i < lw; i, k, h = i+1, k+2, h+1 {
		ldst[g+i] = src[k] + ((2 + hdst[h-1] + hdst[h]) >> 2)
	}
}

func revHorzBwd64(dst, lsrc, hsrc []int64, width int, even bool) {
	if width <= 1 {
		if even {
			dst[g] = lsrc[g]
		} else {
			dst[g] = hsrc[g] >> 1
		}
		return
	}
	lw, hw := subbandWidths(width, even)

	hsrc[g-1] = hsrc[g]
	hsrc[g+hw] = hsrc[g+hw-1]
	h := g + b2i(!even)
	for i := 0; i < lw; i, h = i+1, h+1 {
		lsrc[g+i] -= (2 + hsrc[h-1] + hsrc[h]) >> 2
	}

	lsrc[g-1] = lsrc[g]
	lsrc[g+lw] = lsrc[g+lw-1]
	d := g - b2i(!even)
	l := g - b2i(!even)
	h = g
	for i := 0; i < lw+b2i(!even); i, l, h = i+1, l+1, h+1 {
		dst[d] = lsrc[l]
		dst[d+1] = hsrc[h] + ((lsrc[l] + lsrc[l+1]) >> 1)
		d += 2
	}
}
