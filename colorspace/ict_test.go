package colorspace

import (
	"math"
	"math/rand"
	"testing"
)

// Forward followed by backward ICT must agree to within a few ulp of the
// float32 inputs.
func TestICTRoundTrip(t *testing.T) {
	const n = 1000
	rng := rand.New(rand.NewSource(6))
	r := make([]float32, n)
	g := make([]float32, n)
	b := make([]float32, n)
	for i := 0; i < n; i++ {
		r[i] = rng.Float32() - 0.5
		g[i] = rng.Float32() - 0.5
		b[i] = rng.Float32() - 0.5
	}
	wantR := append([]float32(nil), r...)
	wantG := append([]float32(nil), g...)
	wantB := append([]float32(nil), b...)

	y := make([]float32, n)
	cb := make([]float32, n)
	cr := make([]float32, n)
	ICTForward(r, g, b, y, cb, cr, n)
	ICTBackward(y, cb, cr, r, g, b, n)

	for i := 0; i < n; i++ {
		for _, pair := range [][2]float32{{r[i], wantR[i]}, {g[i], wantG[i]}, {b[i], wantB[i]}} {
			if diff := math.Abs(float64(pair[0] - pair[1])); diff > 1e-6 {
				t.Fatalf("sample %d off by %g", i, diff)
			}
		}
	}
}

func TestICTLumaWeightsSumToOne(t *testing.T) {
	if math.Abs(float64(alphaR+alphaG+alphaB)-1) > 1e-6 {
		t.Errorf("alpha sum = %g", alphaR+alphaG+alphaB)
	}
}

// A pure gray input maps to zero chroma.
func TestICTGrayHasZeroChroma(t *testing.T) {
	r := []float32{0.25}
	g := []float32{0.25}
	b := []float32{0.25}
	y := make([]float32, 1)
	cb := make([]float32, 1)
	cr := make([]float32, 1)
	ICTForward(r, g, b, y, cb, cr, 1)
	if math.Abs(float64(y[0]-0.25)) > 1e-6 {
		t.Errorf("Y = %g, want 0.25", y[0])
	}
	if math.Abs(float64(cb[0])) > 1e-6 || math.Abs(float64(cr[0])) > 1e-6 {
		t.Errorf("chroma = (%g, %g), want zero", cb[0], cr[0])
	}
}

// ICT works on in-place operands, as the pipeline aliases them.
func TestICTInPlace(t *testing.T) {
	r := []float32{0.4}
	g := []float32{-0.1}
	b := []float32{0.2}
	wantR, wantG, wantB := r[0], g[0], b[0]
	ICTForward(r, g, b, r, g, b, 1)
	ICTBackward(r, g, b, r, g, b, 1)
	if math.Abs(float64(r[0]-wantR)) > 1e-6 ||
		math.Abs(float64(g[0]-wantG)) > 1e-6 ||
		math.Abs(float64(b[0]-wantB)) > 1e-6 {
		t.Errorf("in-place round trip drifted: (%g, %g, %g)", r[0], g[0], b[0])
	}
}
