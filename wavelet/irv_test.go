package wavelet

import (
	"math"
	"math/rand"
	"testing"

	"github.com/aous72/OpenJPH-sub001/linebuf"
)

func f32Line(v []float32) *linebuf.Line {
	l := linebuf.NewLine(linebuf.Float32, len(v), 0)
	copy(l.F32(), v)
	return l
}

func TestIrvHorzRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for width := 1; width <= 33; width++ {
		for _, even := range []bool{true, false} {
			src := make([]float32, width)
			for i := range src {
				src[i] = rng.Float32() - 0.5
			}
			in := f32Line(src)
			lw, hw := subbandWidths(width, even)
			ldst := linebuf.NewLine(linebuf.Float32, lw, 0)
			hdst := linebuf.NewLine(linebuf.Float32, hw, 0)
			IrvHorzFwd(in, ldst, hdst, even)

			out := linebuf.NewLine(linebuf.Float32, width, 0)
			IrvHorzBwd(out, ldst, hdst, even)
			for i := range src {
				if diff := math.Abs(float64(out.F32()[i] - src[i])); diff > 1e-5 {
					t.Fatalf("width %d even %v: sample %d off by %g", width, even, i, diff)
				}
			}
		}
	}
}

func TestIrvVertStepInverts(t *testing.T) {
	n := 16
	s1 := make([]float32, n)
	s2 := make([]float32, n)
	d := make([]float32, n)
	orig := make([]float32, n)
	rng := rand.New(rand.NewSource(9))
	for i := 0; i < n; i++ {
		s1[i] = rng.Float32()
		s2[i] = rng.Float32()
		d[i] = rng.Float32()
		orig[i] = d[i]
	}
	// Analysis step 0 is inverted by synthesis step 4 (the negated
	// coefficient).
	IrvVertStep(0, s1, s2, d)
	IrvVertStep(4, s1, s2, d)
	for i := range d {
		if diff := math.Abs(float64(d[i] - orig[i])); diff > 1e-6 {
			t.Fatalf("step pair 0/4 not inverse at %d: off by %g", i, diff)
		}
	}
}

func TestIrvScaleConstants(t *testing.T) {
	if math.Abs(float64(K97*InvK97)-1) > 1e-6 {
		t.Errorf("K * 1/K = %g", K97*InvK97)
	}
	src := []float32{2}
	dst := []float32{0}
	IrvVertScale(src, dst, true)
	if math.Abs(float64(dst[0]-2*InvK97)) > 1e-6 {
		t.Errorf("low analysis scale = %g", dst[0])
	}
	IrvVertScale(src, dst, false)
	if math.Abs(float64(dst[0]-2*K97)) > 1e-6 {
		t.Errorf("high analysis scale = %g", dst[0])
	}
}
