package linebuf

import "testing"

func TestLineGuards(t *testing.T) {
	l := NewLine(Int32, 5, Reversible|Integer)
	if l.Width() != 5 {
		t.Fatalf("width %d", l.Width())
	}
	s := l.I32()
	for i := range s {
		s[i] = int32(i + 1)
	}
	ext := l.ExtI32()
	ext[Guard-1] = -7
	ext[Guard+5] = -9
	if l.I32()[0] != 1 || l.I32()[4] != 5 {
		t.Error("guard writes leaked into the payload")
	}
	if len(ext) != 5+2*Guard {
		t.Errorf("extended view length %d", len(ext))
	}
}

func TestLineTags(t *testing.T) {
	tests := []struct {
		tag  Tag
		name string
	}{
		{Int32, "i32"},
		{Int64, "i64"},
		{Float32, "f32"},
	}
	for _, tt := range tests {
		if tt.tag.String() != tt.name {
			t.Errorf("tag %d = %q, want %q", tt.tag, tt.tag.String(), tt.name)
		}
		l := NewLine(tt.tag, 3, 0)
		if l.Tag() != tt.tag {
			t.Errorf("constructed tag mismatch")
		}
	}
}

func TestPoolReusesAndWipes(t *testing.T) {
	p := NewPool()
	a := p.Get(Int32, 8, Integer)
	a.I32()[0] = 42
	p.Put(a)
	b := p.Get(Int32, 8, Integer)
	if b != a {
		t.Error("pool did not reuse the released line")
	}
	if b.I32()[0] != 0 {
		t.Error("reused line not wiped")
	}
	c := p.Get(Int32, 16, Integer)
	if c == a {
		t.Error("pool returned a line of the wrong width")
	}
}

func TestSameShapeAndOperandCheck(t *testing.T) {
	a := NewLine(Int32, 4, Integer)
	b := NewLine(Int32, 4, Integer)
	c := NewLine(Float32, 4, 0)
	if !SameShape(a, b) {
		t.Error("identical shapes reported different")
	}
	if SameShape(a, c) {
		t.Error("different tags reported same")
	}
	if err := CheckOperands("rct", a, b); err != nil {
		t.Errorf("matching operands rejected: %v", err)
	}
	if err := CheckOperands("rct", a, c); err == nil {
		t.Error("mismatched operands accepted")
	}
}

func TestNeedsWide(t *testing.T) {
	tests := []struct {
		bitDepth, levels int
		colorTransform   bool
		want             bool
	}{
		{8, 5, true, false},
		{16, 6, true, false},
		{28, 5, false, true},
		{28, 1, false, false},
		{28, 2, true, true},
		{30, 0, true, true},
		{38, 0, false, true},
	}
	for _, tt := range tests {
		if got := NeedsWide(tt.bitDepth, tt.levels, tt.colorTransform); got != tt.want {
			t.Errorf("NeedsWide(%d, %d, %v) = %v, want %v",
				tt.bitDepth, tt.levels, tt.colorTransform, got, tt.want)
		}
	}
}

func TestPlaneFromLines(t *testing.T) {
	rows := []*Line{NewLine(Int32, 6, Integer), NewLine(Int32, 6, Integer)}
	p := PlaneFromLines(Int32, Integer, 6, rows)
	if p.Width() != 6 || p.Height() != 2 {
		t.Fatalf("plane %dx%d", p.Width(), p.Height())
	}
	if p.Line(1) != rows[1] {
		t.Error("line identity lost")
	}
}
