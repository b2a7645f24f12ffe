package wavelet

import "github.com/aous72/OpenJPH-sub001/linebuf"

// 9/7 lifting factors, ISO/IEC 15444-1 Table F.4. Entries 4..7 are the
// negated analysis factors, used by synthesis.
var liftingSteps97 = [8]float32{
	-1.586134342059924, -0.052980118572961, +0.882911075530934,
	+0.443506852043971,
	+1.586134342059924, +0.052980118572961, -0.882911075530934,
	-0.443506852043971,
}

// K97 is the 9/7 subband scaling constant; low-pass samples are scaled by
// 1/K on analysis, high-pass samples by K.
const K97 = float32(1.230174104914001)

// InvK97 is 1/K97.
const InvK97 = float32(1.0 / 1.230174104914001)

// IrvVertStep applies lifting step stepNum (0..3 analysis, 4..7 synthesis)
// to one line: dst[n] += steps[stepNum] * (src1[n] + src2[n]).
func IrvVertStep(stepNum int, src1, src2, dst []float32) {
	factor := liftingSteps97[stepNum]
	for i := range dst {
		dst[i] += factor * (src1[i] + src2[i])
	}
}

// IrvVertScale multiplies one line by 1/K (low-pass analysis, high-pass
// synthesis) or K (the converse), selected by lowAnalysis.
func IrvVertScale(src, dst []float32, lowAnalysis bool) {
	factor := K97
	if lowAnalysis {
		factor = InvK97
	}
	for i := range dst {
		dst[i] = src[i] * factor
	}
}

// IrvHorzFwd performs the forward 9/7 horizontal transform of one line into
// separate low-pass and high-pass lines, including the K scaling.
func IrvHorzFwd(src, ldst, hdst *linebuf.Line, even bool) {
	irvHorzFwd(src.ExtF32(), ldst.ExtF32(), hdst.ExtF32(), src.Width(), even)
}

// IrvHorzBwd performs the inverse 9/7 horizontal transform, interleaving
// low-pass and high-pass lines back into dst.
func IrvHorzBwd(dst, lsrc, hsrc *linebuf.Line, even bool) {
	irvHorzBwd(dst.ExtF32(), lsrc.ExtF32(), hsrc.ExtF32(), dst.Width(), even)
}

func irvHorzFwd(src, ldst, hdst []float32, width int, even bool) {
	if width <= 1 {
		if even {
			ldst[g] = src[g]
		} else {
			hdst[g] = src[g]
		}
		return
	}
	lw, hw := subbandWidths(width, even)

	src[g-1] = src[g+1]
	src[g+width] = src[g+width-2]
	factor := liftingSteps97[0]
	k := g + b2i(even)
	for i := 0; i < hw; i, k = i+1, k+2 {
		hdst[g+i] = src[k] + factor*(src[k-1]+src[k+1])
	}

	hdst[g-1] = hdst[g]
	hdst[g+hw] = hdst[g+hw-1]
	factor = liftingSteps97[1]
	k = g + b2i(!even)
	h := g + b2i(!even)
	for i := 0; i < lw; i, k, h = i+1, k+2, h+1 {
		ldst[g+i] = src[k] + factor*(hdst[h-1]+hdst[h])
	}

	ldst[g-1] = ldst[g]
	ldst[g+lw] = ldst[g+lw-1]
	factor = liftingSteps97[2]
	l := g + b2i(even)
	for i := 0; i < hw; i, l = i+1, l+1 {
		hdst[g+i] += factor * (ldst[l-1] + ldst[l])
	}

	hdst[g-1] = hdst[g]
	hdst[g+hw] = hdst[g+hw-1]
	factor = liftingSteps97[3]
	h = g + b2i(!even)
	for i := 0; i < lw; i, h = i+1, h+1 {
		ldst[g+i] += factor * (hdst[h-1] + hdst[h])
	}

	for i := 0; i < lw; i++ {
		ldst[g+i] *= InvK97
	}
	for i := 0; i < hw; i++ {
		hdst[g+i] *= K97
	}
}

func irvHorzBwd(dst, lsrc, hsrc []float32, width int, even bool) {
	if width <= 1 {
		if even {
			dst[g] = lsrc[g]
		} else {
			dst[g] = hsrc[g]
		}
		return
	}
	lw, hw := subbandWidths(width, even)

	for i := 0; i < lw; i++ {
		lsrc[g+i] *= K97
	}
	for i := 0; i < hw; i++ {
		hsrc[g+i] *= InvK97
	}

	hsrc[g-1] = hsrc[g]
	hsrc[g+hw] = hsrc[g+hw-1]
	factor := liftingSteps97[7]
	h := g + b2i(!even)
	for i := 0; i < lw; i, h = i+1, h+1 {
		lsrc[g+i] += factor * (hsrc[h-1] + hsrc[h])
	}

	lsrc[g-1] = lsrc[g]
	lsrc[g+lw] = lsrc[g+lw-1]
	factor = liftingSteps97[6]
	l := g - b2i(!even)
	for i := 0; i < hw; i, l = i+1, l+1 {
		hsrc[g+i] += factor * (lsrc[l] + lsrc[l+1])
	}

	hsrc[g-1] = hsrc[g]
	hsrc[g+hw] = hsrc[g+hw-1]
	factor = liftingSteps97[5]
	h = g + b2i(!even)
	for i := 0; i < lw; i, h = i+1, h+1 {
		lsrc[g+i] += factor * (hsrc[h-1] + hsrc[h])
	}

	lsrc[g-1] = lsrc[g]
	lsrc[g+lw] = lsrc[g+lw-1]
	factor = liftingSteps97[4]
	d := g - b2i(!even)
	l = g - b2i(!even)
	h = g
	for i := 0; i < lw+b2i(!even); i, l, h = i+1, l+1, h+1 {
		dst[d] = lsrc[l]
		dst[d+1] = hsrc[h] + factor*(lsrc[l]+lsrc[l+1])
		d += 2
	}
}
