package wavelet

import (
	"errors"
	"fmt"

	"github.com/aous72/OpenJPH-sub001/linebuf"
)

// Errors reported by kernel construction.
var (
	// ErrUnsupportedKernel indicates a lifting chain outside the supported
	// length: fewer than 1 or more than 6 steps.
	ErrUnsupportedKernel = errors.New("wavelet: unsupported kernel")
)

// LiftStep is one lifting step of a kernel. Reversible steps use the
// integer triple (A, B, E): dst += (A*(a+b) + B) >> E. Irreversible steps
// use the float coefficient Af: dst += Af*(a+b).
type LiftStep struct {
	A  int16
	B  int16
	E  uint8
	Af float32
}

// Kernel identifiers used by the COD/COC wavelet field.
const (
	// KernelIrv97 selects the irreversible 9/7 transform.
	KernelIrv97 uint8 = 0
	// KernelRev53 selects the reversible 5/3 transform.
	KernelRev53 uint8 = 1
	// Wavelet ids >= 2 name an ATK segment index.
)

// Kernel is a lifting wavelet kernel. The standard 5/3 and 9/7 filters are
// synthetic entries with fixed indices; arbitrary kernels parsed from an
// ATK segment share the same shape, so selection is a table lookup.
//
// Steps are in analysis order. Even-indexed steps modify the high-pass
// subsequence, odd-indexed steps the low-pass one; this is the m_init=0
// configuration, the only one supported.
type Kernel struct {
	Index      uint8
	Reversible bool
	Steps      []LiftStep
	K          float32 // irreversible scaling factor
}

// maxKernelSteps bounds the lifting chain length of accepted kernels.
const maxKernelSteps = 6

// Rev53 is the synthetic kernel for the reversible 5/3 transform.
var Rev53 = &Kernel{
	Index:      KernelRev53,
	Reversible: true,
	Steps: []LiftStep{
		{A: -1, B: 1, E: 1},
		{A: 1, B: 2, E: 2},
	},
}

// Irv97 is the synthetic kernel for the irreversible 9/7 transform.
var Irv97 = &Kernel{
	Index:      KernelIrv97,
	Reversible: false,
	Steps: []LiftStep{
		{Af: liftingSteps97[0]},
		{Af: liftingSteps97[1]},
		{Af: liftingSteps97[2]},
		{Af: liftingSteps97[3]},
	},
	K: K97,
}

// NewKernel validates and builds a kernel from parsed ATK data.
func NewKernel(index uint8, reversible bool, steps []LiftStep, k float32) (*Kernel, error) {
	if len(steps) < 1 || len(steps) > maxKernelSteps {
		return nil, fmt.Errorf("%w: %d lifting steps", ErrUnsupportedKernel, len(steps))
	}
	kr := &Kernel{Index: index, Reversible: reversible, K: k}
	kr.Steps = append(kr.Steps, steps...)
	if !reversible && kr.K == 0 {
		kr.K = 1
	}
	return kr, nil
}

// isRev53Predict reports whether a reversible step is the 5/3 predict,
// for which the specialized kernel applies.
func (s LiftStep) isRev53Predict() bool { return s.A == -1 && s.B == 1 && s.E == 1 }

// isRev53Update reports whether a reversible step is the 5/3 update.
func (s LiftStep) isRev53Update() bool { return s.A == 1 && s.B == 2 && s.E == 2 }

// IsRev53 reports whether the kernel is arithmetically the 5/3 transform.
func (k *Kernel) IsRev53() bool {
	return k.Reversible && len(k.Steps) == 2 &&
		k.Steps[0].isRev53Predict() && k.Steps[1].isRev53Update()
}

// VertStepFwd applies analysis lifting step s to one line with the two
// neighbour lines as sources.
func (k *Kernel) VertStepFwd(s int, src1, src2, dst *linebuf.Line) {
	k.vertStep(k.Steps[s], src1, src2, dst, false)
}

// VertStepBwd applies the synthesis inverse of lifting step s.
func (k *Kernel) VertStepBwd(s int, src1, src2, dst *linebuf.Line) {
	k.vertStep(k.Steps[s], src1, src2, dst, true)
}

func (k *Kernel) vertStep(st LiftStep, src1, src2, dst *linebuf.Line, inverse bool) {
	if k.Reversible {
		switch dst.Tag() {
		case linebuf.Int64:
			revStep64(st, src1.I64(), src2.I64(), dst.I64(), inverse)
		default:
			revStep32(st, src1.I32(), src2.I32(), dst.I32(), inverse)
		}
		return
	}
	f := st.Af
	if inverse {
		f = -f
	}
	s1, s2, d := src1.F32(), src2.F32(), dst.F32()
	for i := range d {
		d[i] += f * (s1[i] + s2[i])
	}
}

func revStep32(st LiftStep, src1, src2, dst []int32, inverse bool) {
	switch {
	case st.isRev53Predict():
		if inverse {
			RevVertBwdPredict32(src1, src2, dst)
		} else {
			RevVertFwdPredict32(src1, src2, dst)
		}
	case st.isRev53Update():
		if inverse {
			RevVertBwdUpdate32(src1, src2, dst)
		} else {
			RevVertFwdUpdate32(src1, src2, dst)
		}
	default:
		a, b, e := int32(st.A), int32(st.B), st.E
		if inverse {
			for i := range dst {
				dst[i] -= (a*(src1[i]+src2[i]) + b) >> e
			}
		} else {
			for i := range dst {
				dst[i] += (a*(src1[i]+src2[i]) + b) >> e
			}
		}
	}
}

func revStep64(st LiftStep, src1, src2, dst []int64, inverse bool) {
	switch {
	case st.isRev53Predict():
		if inverse {
			RevVertBwdPredict64(src1, src2, dst)
		} else {
			RevVertFwdPredict64(src1, src2, dst)
		}
	case st.isRev53Update():
		if inverse {
			RevVertBwdUpdate64(src1, src2, dst)
		} else {
			RevVertFwdUpdate64(src1, src2, dst)
		}
	default:
		a, b, e := int64(st.A), int64(st.B), st.E
		if inverse {
			for i := range dst {
				dst[i] -= (a*(src1[i]+src2[i]) + b) >> e
			}
		} else {
			for i := range dst {
				dst[i] += (a*(src1[i]+src2[i]) + b) >> e
			}
		}
	}
}

// HorzFwd runs the forward horizontal transform of one line through the
// kernel, writing the low-pass and high-pass lines. The 5/3 and 9/7
// kernels take their specialized paths.
func (k *Kernel) HorzFwd(src, ldst, hdst *linebuf.Line, even bool) {
	switch {
	case k.IsRev53():
		RevHorzFwd(src, ldst, hdst, even)
	case !k.Reversible && k.Index == KernelIrv97:
		IrvHorzFwd(src, ldst, hdst, even)
	default:
		k.horzFwdGeneric(src, ldst, hdst, even)
	}
}

// HorzBwd runs the inverse horizontal transform.
func (k *Kernel) HorzBwd(dst, lsrc, hsrc *linebuf.Line, even bool) {
	switch {
	case k.IsRev53():
		RevHorzBwd(dst, lsrc, hsrc, even)
	case !k.Reversible && k.Index == KernelIrv97:
		IrvHorzBwd(dst, lsrc, hsrc, even)
	default:
		k.horzBwdGeneric(dst, lsrc, hsrc, even)
	}
}

// horzFwdGeneric lifts an interleaved line step by step, then splits the
// two subsequences. Extension is whole-sample symmetric, rewritten into
// the guards before every step.
func (k *Kernel) horzFwdGeneric(src, ldst, hdst *linebuf.Line, even bool) {
	width := src.Width()
	if width <= 1 {
		k.horzDegenerateFwd(src, ldst, hdst, even)
		return
	}
	lw, hw := subbandWidths(width, even)

	if k.Reversible && src.Tag() == linebuf.Int64 {
		e := src.ExtI64()
		for s, st := range k.Steps {
			e[g-1] = e[g+1]
			e[g+width] = e[g+width-2]
			a, b, eps := int64(st.A), int64(st.B), st.E
			for p := g + stepPhase(s, even); p < g+width; p += 2 {
				e[p] += (a*(e[p-1]+e[p+1]) + b) >> eps
			}
		}
		l, h := ldst.I64(), hdst.I64()
		lo, ho := b2i(!even), b2i(even)
		for i := 0; i < lw; i++ {
			l[i] = e[g+2*i+lo]
		}
		for i := 0; i < hw; i++ {
			h[i] = e[g+2*i+ho]
		}
		return
	}
	if k.Reversible {
		e := src.ExtI32()
		for s, st := range k.Steps {
			e[g-1] = e[g+1]
			e[g+width] = e[g+width-2]
			a, b, eps := int32(st.A), int32(st.B), st.E
			for p := g + stepPhase(s, even); p < g+width; p += 2 {
				e[p] += (a*(e[p-1]+e[p+1]) + b) >> eps
			}
		}
		l, h := ldst.I32(), hdst.I32()
		lo, ho := b2i(!even), b2i(even)
		for i := 0; i < lw; i++ {
			l[i] = e[g+2*i+lo]
		}
		for i := 0; i < hw; i++ {
			h[i] = e[g+2*i+ho]
		}
		return
	}

	e := src.ExtF32()
	for s, st := range k.Steps {
		e[g-1] = e[g+1]
		e[g+width] = e[g+width-2]
		for p := g + stepPhase(s, even); p < g+width; p += 2 {
			e[p] += st.Af * (e[p-1] + e[p+1])
		}
	}
	l, h := ldst.F32(), hdst.F32()
	invK := 1 / k.K
	lo, ho := b2i(!even), b2i(even)
	for i := 0; i < lw; i++ {
		l[i] = e[g+2*i+lo] * invK
	}
	for i := 0; i < hw; i++ {
		h[i] = e[g+2*i+ho] * k.K
	}
}

func (k *Kernel) horzBwdGeneric(dst, lsrc, hsrc *linebuf.Line, even bool) {
	width := dst.Width()
	if width <= 1 {
		k.horzDegenerateBwd(dst, lsrc, hsrc, even)
		return
	}
	lw, hw := subbandWidths(width, even)
	lo, ho := b2i(!even), b2i(even)

	if k.Reversible && dst.Tag() == linebuf.Int64 {
		e := dst.ExtI64()
		l, h := lsrc.I64(), hsrc.I64()
		for i := 0; i < lw; i++ {
			e[g+2*i+lo] = l[i]
		}
		for i := 0; i < hw; i++ {
			e[g+2*i+ho] = h[i]
		}
		for s := len(k.Steps) - 1; s >= 0; s-- {
			st := k.Steps[s]
			e[g-1] = e[g+1]
			e[g+width] = e[g+width-2]
			a, b, eps := int64(st.A), int64(st.B), st.E
			for p := g + stepPhase(s, even); p < g+width; p += 2 {
				e[p] -= (a*(e[p-1]+e[p+1]) + b) >> eps
			}
		}
		return
	}
	if k.Reversible {
		e := dst.ExtI32()
		l, h := lsrc.I32(), hsrc.I32()
		for i := 0; i < lw; i++ {
			e[g+2*i+lo] = l[i]
		}
		for i := 0; i < hw; i++ {
			e[g+2*i+ho] = h[i]
		}
		for s := len(k.Steps) - 1; s >= 0; s-- {
			st := k.Steps[s]
			e[g-1] = e[g+1]
			e[g+width] = e[g+width-2]
			a, b, eps := int32(st.A), int32(st.B), st.E
			for p := g + stepPhase(s, even); p < g+width; p += 2 {
				e[p] -= (a*(e[p-1]+e[p+1]) + b) >> eps
			}
		}
		return
	}

	e := dst.ExtF32()
	l, h := lsrc.F32(), hsrc.F32()
	invK := 1 / k.K
	for i := 0; i < lw; i++ {
		e[g+2*i+lo] = l[i] * k.K
	}
	for i := 0; i < hw; i++ {
		e[g+2*i+ho] = h[i] * invK
	}
	for s := len(k.Steps) - 1; s >= 0; s-- {
		st := k.Steps[s]
		e[g-1] = e[g+1]
		e[g+width] = e[g+width-2]
		for p := g + stepPhase(s, even); p < g+width; p += 2 {
			e[p] -= st.Af * (e[p-1] + e[p+1])
		}
	}
}

// stepPhase returns the interleaved-line offset of the subsequence that
// lifting step s modifies: even steps lift the high-pass samples.
func stepPhase(s int, even bool) int {
	high := s%2 == 0
	if high {
		return b2i(even)
	}
	return b2i(!even)
}

func (k *Kernel) horzDegenerateFwd(src, ldst, hdst *linebuf.Line, even bool) {
	if k.Reversible {
		if src.Tag() == linebuf.Int64 {
			if even {
				ldst.I64()[0] = src.I64()[0]
			} else {
				hdst.I64()[0] = src.I64()[0] << 1
			}
			return
		}
		if even {
			ldst.I32()[0] = src.I32()[0]
		} else {
			hdst.I32()[0] = src.I32()[0] << 1
		}
		return
	}
	if even {
		ldst.F32()[0] = src.F32()[0]
	} else {
		hdst.F32()[0] = src.F32()[0]
	}
}

func (k *Kernel) horzDegenerateBwd(dst, lsrc, hsrc *linebuf.Line, even bool) {
	if k.Reversible {
		if dst.Tag() == linebuf.Int64 {
			if even {
				dst.I64()[0] = lsrc.I64()[0]
			} else {
				dst.I64()[0] = hsrc.I64()[0] >> 1
			}
			return
		}
		if even {
			dst.I32()[0] = lsrc.I32()[0]
		} else {
			dst.I32()[0] = hsrc.I32()[0] >> 1
		}
		return
	}
	if even {
		dst.F32()[0] = lsrc.F32()[0]
	} else {
		dst.F32()[0] = hsrc.F32()[0]
	}
}
