package params

import (
	"fmt"
	"math"

	"github.com/aous72/OpenJPH-sub001/codestream"
)

// Q is one subband quantization answer: the magnitude bit-plane bound,
// plus the scalar step of the irreversible path.
type Q struct {
	Reversible bool
	Kmax       uint8   // maximum magnitude bit-planes, [0,31]
	Delta      float32 // irreversible: quantization step size
}

// Subband orientations used for quantization gain lookup. LL appears only
// at resolution 0.
const (
	BandLL = 0
	BandHL = 1
	BandLH = 2
	BandHH = 3
)

// bandGain is the standard log2 subband gain table: LL 0, HL/LH 1, HH 2.
func bandGain(band int) int {
	switch band {
	case BandHL, BandLH:
		return 1
	case BandHH:
		return 2
	default:
		return 0
	}
}

// subbandEntry flattens (resolution, band) into the quantization entry
// index of the standard layout: LL, then HL/LH/HH per resolution.
func subbandEntry(r uint8, band int) int {
	if r == 0 {
		return 0
	}
	return 3*(int(r)-1) + band
}

// GetStepSize answers the quantization query for component c, resolution
// r, subband band. Reversible components report Kmax, derived from the
// signalled exponent and the guard bits; irreversible components report
// the scalar delta, expanding the derived style by the subband gain.
func (s *Store) GetStepSize(c uint16, r uint8, band int) (Q, error) {
	s.mustValid()
	v := &s.comps[c]
	q := &v.quant
	guard := int(q.GuardBits)

	if q.Style == codestream.QuantNone {
		idx := subbandEntry(r, band)
		if idx >= len(q.Exponents) {
			return Q{}, fmt.Errorf("%w: no quantization entry for resolution %d band %d",
				ErrInvalidParameter, r, band)
		}
		return Q{Reversible: true, Kmax: clampKmax(guard + int(q.Exponents[idx]) - 1)}, nil
	}

	var step codestream.StepSize
	switch q.Style {
	case codestream.QuantScalarDerived:
		if len(q.Steps) == 0 {
			return Q{}, fmt.Errorf("%w: empty step-size table", ErrInvalidParameter)
		}
		step = q.Steps[0]
		// The derived style scales one base delta by the subband gain:
		// delta_b = delta_base * 2^-gain(b).
		base := DecodeDelta(step)
		delta := base * float32(math.Exp2(float64(-bandGain(band))))
		return Q{Delta: delta, Kmax: clampKmax(guard + int(step.Exponent) - 1)}, nil
	case codestream.QuantScalarExpounded:
		idx := subbandEntry(r, band)
		if idx >= len(q.Steps) {
			return Q{}, fmt.Errorf("%w: no quantization entry for resolution %d band %d",
				ErrInvalidParameter, r, band)
		}
		step = q.Steps[idx]
		return Q{Delta: DecodeDelta(step), Kmax: clampKmax(guard + int(step.Exponent) - 1)}, nil
	default:
		return Q{}, fmt.Errorf("%w: quantization style %d", ErrInvalidParameter, q.Style)
	}
}

func clampKmax(k int) uint8 {
	if k < 0 {
		return 0
	}
	if k > maxKmax {
		return maxKmax
	}
	return uint8(k)
}

// DecodeDelta expands the (exponent, mantissa) pair:
// delta = (1 + mantissa/2^11) * 2^-exponent.
func DecodeDelta(st codestream.StepSize) float32 {
	return float32((1.0 + float64(st.Mantissa)/2048.0) * math.Exp2(-float64(st.Exponent)))
}

// EncodeDelta finds the (exponent, mantissa) pair closest to delta.
// Deltas at or above 2.0 saturate to exponent 0.
func EncodeDelta(delta float32) codestream.StepSize {
	if delta <= 0 {
		return codestream.StepSize{}
	}
	exp := 0
	d := float64(delta)
	for d < 1.0 && exp < 31 {
		d *= 2
		exp++
	}
	for d >= 2.0 && exp > 0 {
		d /= 2
		exp--
	}
	m := int(math.Round((d - 1.0) * 2048.0))
	if m < 0 {
		m = 0
	}
	if m > 0x7FF {
		m = 0x7FF
	}
	return codestream.StepSize{Exponent: uint8(exp), Mantissa: uint16(m)}
}

// MakeRevQuant synthesizes the reversible (no-quantization) QCD payload
// for an encoder: one exponent per subband of the standard layout,
// covering the component precision plus the subband gain, plus one bit of
// color-transform growth.
func MakeRevQuant(numDecomp, bitDepth int, colorTransform bool) *codestream.QCD {
	q := &codestream.QCD{Style: codestream.QuantNone, GuardBits: 2}
	base := bitDepth
	if colorTransform {
		base++
	}
	n := 1 + 3*numDecomp
	q.Exponents = make([]uint8, n)
	for i := 0; i < n; i++ {
		band := 0
		if i > 0 {
			band = (i-1)%3 + 1
		}
		e := base + bandGain(band)
		if e > 0x1F {
			e = 0x1F
		}
		q.Exponents[i] = uint8(e)
	}
	return q
}

// MakeIrvQuant synthesizes the expounded irreversible QCD payload from a
// base step size: delta_b = base * 2^-gain(b). A base of zero selects the
// OpenJPH-style default of 1/2^bitDepth.
func MakeIrvQuant(numDecomp, bitDepth int, base float32) *codestream.QCD {
	if base <= 0 {
		base = float32(math.Exp2(-float64(bitDepth)))
	}
	q := &codestream.QCD{Style: codestream.QuantScalarExpounded, GuardBits: 2}
	n := 1 + 3*numDecomp
	q.Steps = make([]codestream.StepSize, n)
	for i := 0; i < n; i++ {
		band := 0
		if i > 0 {
			band = (i-1)%3 + 1
		}
		delta := base * float32(math.Exp2(-float64(bandGain(band))))
		q.Steps[i] = EncodeDelta(delta)
	}
	return q
}

// MAGBp returns the maximum magnitude bit-plane count across components
// and subbands, the quantity the CAP segment's MAGB code is derived from.
func (s *Store) MAGBp() uint32 {
	s.mustValid()
	var magb uint32
	for c := uint16(0); c < s.NumComponents(); c++ {
		v := &s.comps[c]
		if v.kernel.Reversible {
			for _, e := range v.quant.Exponents {
				k := uint32(v.quant.GuardBits) + uint32(e)
				if k > 0 {
					k--
				}
				if k > magb {
					magb = k
				}
			}
		} else {
			k := uint32(s.BitDepth(c)) + uint32(v.quant.GuardBits)
			if k > magb {
				magb = k
			}
		}
	}
	return magb
}
