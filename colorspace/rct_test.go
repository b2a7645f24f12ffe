package colorspace

import (
	"math/rand"
	"testing"

	"github.com/aous72/OpenJPH-sub001/linebuf"
)

func intLine(tag linebuf.Tag, n int) *linebuf.Line {
	return linebuf.NewLine(tag, n, linebuf.Reversible|linebuf.Integer)
}

func TestRCTRoundTrip32(t *testing.T) {
	const n = 257
	rng := rand.New(rand.NewSource(1))
	r := intLine(linebuf.Int32, n)
	g := intLine(linebuf.Int32, n)
	b := intLine(linebuf.Int32, n)
	for i := 0; i < n; i++ {
		r.I32()[i] = rng.Int31n(1<<16) - 1<<15
		g.I32()[i] = rng.Int31n(1<<16) - 1<<15
		b.I32()[i] = rng.Int31n(1<<16) - 1<<15
	}
	wantR := append([]int32(nil), r.I32()...)
	wantG := append([]int32(nil), g.I32()...)
	wantB := append([]int32(nil), b.I32()...)

	y := intLine(linebuf.Int32, n)
	cb := intLine(linebuf.Int32, n)
	cr := intLine(linebuf.Int32, n)
	RCTForward(r, g, b, y, cb, cr, n)
	RCTBackward(y, cb, cr, r, g, b, n)

	for i := 0; i < n; i++ {
		if r.I32()[i] != wantR[i] || g.I32()[i] != wantG[i] || b.I32()[i] != wantB[i] {
			t.Fatalf("sample %d not restored", i)
		}
	}
}

func TestRCTKnownValues(t *testing.T) {
	r := intLine(linebuf.Int32, 1)
	g := intLine(linebuf.Int32, 1)
	b := intLine(linebuf.Int32, 1)
	r.I32()[0], g.I32()[0], b.I32()[0] = 100, 60, 20
	y := intLine(linebuf.Int32, 1)
	cb := intLine(linebuf.Int32, 1)
	cr := intLine(linebuf.Int32, 1)
	RCTForward(r, g, b, y, cb, cr, 1)
	if y.I32()[0] != 60 { // (100 + 120 + 20) >> 2
		t.Errorf("Y = %d, want 60", y.I32()[0])
	}
	if cb.I32()[0] != -40 {
		t.Errorf("Cb = %d, want -40", cb.I32()[0])
	}
	if cr.I32()[0] != 40 {
		t.Errorf("Cr = %d, want 40", cr.I32()[0])
	}
}

// Deep samples run through 64-bit intermediates and narrow on the way
// back.
func TestRCTRoundTripWide(t *testing.T) {
	const n = 64
	rng := rand.New(rand.NewSource(4))
	r := intLine(linebuf.Int32, n)
	g := intLine(linebuf.Int32, n)
	b := intLine(linebuf.Int32, n)
	for i := 0; i < n; i++ {
		r.I32()[i] = rng.Int31n(1<<30) - 1<<29
		g.I32()[i] = rng.Int31n(1<<30) - 1<<29
		b.I32()[i] = rng.Int31n(1<<30) - 1<<29
	}
	wantR := append([]int32(nil), r.I32()...)
	wantG := append([]int32(nil), g.I32()...)
	wantB := append([]int32(nil), b.I32()...)

	y := intLine(linebuf.Int64, n)
	cb := intLine(linebuf.Int64, n)
	cr := intLine(linebuf.Int64, n)
	RCTForward(r, g, b, y, cb, cr, n)
	RCTBackward(y, cb, cr, r, g, b, n)
	for i := 0; i < n; i++ {
		if r.I32()[i] != wantR[i] || g.I32()[i] != wantG[i] || b.I32()[i] != wantB[i] {
			t.Fatalf("wide sample %d not restored", i)
		}
	}
}
