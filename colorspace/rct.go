// Package colorspace implements the multi-component transforms of
// JPEG 2000: the reversible color transform (RCT), the irreversible color
// transform (ICT), the non-linear type-3 point transform, and the
// sample/coefficient representation conversions that bracket them.
//
// Kernels operate on line buffers; all three operands of one call must
// share element width and flags.
package colorspace

import "github.com/aous72/OpenJPH-sub001/linebuf"

// RCTForward applies the forward reversible color transform to one line
// triplet:
//
//	Y  = (R + 2G + B) >> 2
//	Cb = B - G
//	Cr = R - G
//
// Inputs are 32-bit integer lines. Outputs are either 32-bit or 64-bit
// integer lines; the 64-bit form is used when the luma sum of deep samples
// could overflow a signed 32-bit value.
func RCTForward(r, gl, b, y, cb, cr *linebuf.Line, repeat int) {
	if y.Tag() == linebuf.Int64 {
		yp, cbp, crp := y.I64(), cb.I64(), cr.I64()
		if r.Tag() == linebuf.Int64 {
			rp, gp, bp := r.I64(), gl.I64(), b.I64()
			for i := 0; i < repeat; i++ {
				rr, gg, bb := rp[i], gp[i], bp[i]
				yp[i] = (rr + (gg << 1) + bb) >> 2
				cbp[i] = bb - gg
				crp[i] = rr - gg
			}
			return
		}
		rp, gp, bp := r.I32(), gl.I32(), b.I32()
		for i := 0; i < repeat; i++ {
			rr, gg, bb := int64(rp[i]), int64(gp[i]), int64(bp[i])
			yp[i] = (rr + (gg << 1) + bb) >> 2
			cbp[i] = bb - gg
			crp[i] = rr - gg
		}
		return
	}
	rp, gp, bp := r.I32(), gl.I32(), b.I32()
	yp, cbp, crp := y.I32(), cb.I32(), cr.I32()
	for i := 0; i < repeat; i++ {
		rr, gg, bb := rp[i], gp[i], bp[i]
		yp[i] = (rr + (gg << 1) + bb) >> 2
		cbp[i] = bb - gg
		crp[i] = rr - gg
	}
}

// RCTBackward applies the inverse reversible color transform:
//
//	G = Y - ((Cb + Cr) >> 2)
//	R = Cr + G
//	B = Cb + G
//
// The 64-bit input form down-casts the reconstructed samples to 32 bits.
func RCTBackward(y, cb, cr, r, gl, b *linebuf.Line, repeat int) {
	if y.Tag() == linebuf.Int64 {
		yp, cbp, crp := y.I64(), cb.I64(), cr.I64()
		if r.Tag() == linebuf.Int64 {
			rp, gp, bp := r.I64(), gl.I64(), b.I64()
			for i := 0; i < repeat; i++ {
				yy, cbb, crr := yp[i], cbp[i], crp[i]
				gg := yy - ((cbb + crr) >> 2)
				rp[i] = crr + gg
				gp[i] = gg
				bp[i] = cbb + gg
			}
			return
		}
		rp, gp, bp := r.I32(), gl.I32(), b.I32()
		for i := 0; i < repeat; i++ {
			yy, cbb, crr := yp[i], cbp[i], crp[i]
			gg := yy - ((cbb + crr) >> 2)
			rp[i] = int32(crr + gg)
			gp[i] = int32(gg)
			bp[i] = int32(cbb + gg)
		}
		return
	}
	yp, cbp, crp := y.I32(), cb.I32(), cr.I32()
	rp, gp, bp := r.I32(), gl.I32(), b.I32()
	for i := 0; i < repeat; i++ {
		yy, cbb, crr := yp[i], cbp[i], crp[i]
		gg := yy - ((cbb + crr) >> 2)
		rp[i] = crr + gg
		gp[i] = gg
		bp[i] = cbb + gg
	}
}
