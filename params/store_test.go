package params

import (
	"errors"
	"testing"

	"github.com/aous72/OpenJPH-sub001/codestream"
	"github.com/aous72/OpenJPH-sub001/wavelet"
)

func baseCodestream() *codestream.Codestream {
	return &codestream.Codestream{
		SIZ: &codestream.SIZ{
			Xsiz: 352, Ysiz: 288,
			XTsiz: 352, YTsiz: 288,
			Csiz: 3,
			Components: []codestream.ComponentSize{
				{Ssiz: codestream.MakeSsiz(8, false), XRsiz: 1, YRsiz: 1},
				{Ssiz: codestream.MakeSsiz(8, false), XRsiz: 2, YRsiz: 2},
				{Ssiz: codestream.MakeSsiz(8, false), XRsiz: 2, YRsiz: 2},
			},
		},
		COD: &codestream.COD{
			ProgressionOrder:           codestream.ProgLRCP,
			NumberOfLayers:             1,
			MultipleComponentTransform: 0,
			NumDecomp:                  5,
			BlockWidthExp:              4,
			BlockHeightExp:             4,
			BlockStyle:                 codestream.BlockStyleHT,
			WaveletID:                  codestream.WaveletRev53,
		},
		QCD:  MakeRevQuant(5, 8, false),
		COCs: map[uint16]*codestream.COC{},
		QCCs: map[uint16]*codestream.QCC{},
	}
}

func validStore(t *testing.T, cs *codestream.Codestream) *Store {
	t.Helper()
	s := NewStore(cs)
	if err := s.CheckValidity(); err != nil {
		t.Fatal(err)
	}
	return s
}

// Component sizes follow ceil(Xsiz/Sx) - ceil(XOsiz/Sx); the 4:2:0 layout
// of a 352x288 frame yields half-size chroma.
func TestComponentSizes420(t *testing.T) {
	s := validStore(t, baseCodestream())
	want := []Size{{352, 288}, {176, 144}, {176, 144}}
	for c, w := range want {
		if got := s.ComponentSize(uint16(c)); got != w {
			t.Errorf("component %d size %+v, want %+v", c, got, w)
		}
	}
}

func TestColorTransformWith420Accepted(t *testing.T) {
	cs := baseCodestream()
	cs.COD.MultipleComponentTransform = 1
	// The first three components must share downsampling.
	if err := NewStore(cs).CheckValidity(); err == nil {
		t.Fatal("mismatched downsampling accepted with color transform")
	}
	for i := range cs.SIZ.Components {
		cs.SIZ.Components[i].XRsiz = 1
		cs.SIZ.Components[i].YRsiz = 1
	}
	if err := NewStore(cs).CheckValidity(); err != nil {
		t.Fatalf("uniform downsampling rejected: %v", err)
	}
}

func TestValidityRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*codestream.Codestream)
	}{
		{"empty extent", func(cs *codestream.Codestream) { cs.SIZ.Xsiz = 0 }},
		{"zero tile size", func(cs *codestream.Codestream) { cs.SIZ.XTsiz = 0 }},
		{"tile origin past image origin", func(cs *codestream.Codestream) {
			cs.SIZ.XTOsiz = 5
		}},
		{"first tile misses image", func(cs *codestream.Codestream) {
			cs.SIZ.XOsiz = 100
			cs.SIZ.XTsiz = 50
		}},
		{"color transform needs 3 components", func(cs *codestream.Codestream) {
			cs.SIZ.Csiz = 1
			cs.SIZ.Components = cs.SIZ.Components[:1]
			cs.COD.MultipleComponentTransform = 1
		}},
		{"RPCL needs pow2 downsampling", func(cs *codestream.Codestream) {
			cs.COD.ProgressionOrder = codestream.ProgRPCL
			cs.SIZ.Components[1].XRsiz = 3
		}},
		{"missing ATK", func(cs *codestream.Codestream) { cs.COD.WaveletID = 9 }},
		{"missing DFS", func(cs *codestream.Codestream) { cs.COD.NumDecomp = 0x82 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := baseCodestream()
			tt.mutate(cs)
			if err := NewStore(cs).CheckValidity(); !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("err = %v", err)
			}
		})
	}
}

func TestResolutionCountAndSplits(t *testing.T) {
	s := validStore(t, baseCodestream())
	if n := s.ResolutionCount(0); n != 6 {
		t.Errorf("resolution count %d", n)
	}
	splits := s.Splits(0)
	if len(splits) != 5 {
		t.Fatalf("%d splits", len(splits))
	}
	for _, sp := range splits {
		if sp != wavelet.SplitBidir {
			t.Error("default splits must be bidirectional")
		}
	}
}

func TestDFSResolvedSplits(t *testing.T) {
	cs := baseCodestream()
	cs.DFSs = []*codestream.DFS{{
		Index: 2,
		Types: []uint8{codestream.DFSHorz, codestream.DFSVert, codestream.DFSBidir},
	}}
	cs.COCs[0] = &codestream.COC{
		Component: 0, NumDecomp: 0x82, BlockWidthExp: 4, BlockHeightExp: 4,
		BlockStyle: codestream.BlockStyleHT, WaveletID: codestream.WaveletRev53,
	}
	s := validStore(t, cs)
	splits := s.Splits(0)
	want := []wavelet.SplitType{wavelet.SplitHorz, wavelet.SplitVert, wavelet.SplitBidir}
	if len(splits) != len(want) {
		t.Fatalf("%d splits", len(splits))
	}
	for i := range want {
		if splits[i] != want[i] {
			t.Errorf("split %d = %d, want %d", i, splits[i], want[i])
		}
	}
	// Other components keep the COD default.
	if n := len(s.Splits(1)); n != 5 {
		t.Errorf("component 1 has %d splits", n)
	}
}

func TestPrecinctDefaults(t *testing.T) {
	s := validStore(t, baseCodestream())
	if got := s.PrecinctSize(0, 3); got.W != 1<<15 || got.H != 1<<15 {
		t.Errorf("default precinct %+v", got)
	}
}

func TestGetStepSizeReversible(t *testing.T) {
	s := validStore(t, baseCodestream())
	q, err := s.GetStepSize(0, 0, BandLL)
	if err != nil {
		t.Fatal(err)
	}
	if !q.Reversible {
		t.Fatal("reversible flag lost")
	}
	// Guard bits 2, exponent B + gain: LL of an 8-bit component -> 8.
	if q.Kmax != 2+8-1 {
		t.Errorf("LL Kmax = %d", q.Kmax)
	}
	qh, err := s.GetStepSize(0, 5, BandHH)
	if err != nil {
		t.Fatal(err)
	}
	if qh.Kmax != 2+10-1 {
		t.Errorf("HH Kmax = %d", qh.Kmax)
	}
	if qh.Kmax > 31 {
		t.Error("Kmax out of range")
	}
}

func TestGetStepSizeIrreversible(t *testing.T) {
	cs := baseCodestream()
	cs.COD.WaveletID = codestream.WaveletIrv97
	cs.QCD = MakeIrvQuant(5, 8, 0)
	s := validStore(t, cs)

	ll, err := s.GetStepSize(0, 0, BandLL)
	if err != nil {
		t.Fatal(err)
	}
	hh, err := s.GetStepSize(0, 5, BandHH)
	if err != nil {
		t.Fatal(err)
	}
	if ll.Reversible || hh.Reversible {
		t.Error("irreversible answers flagged reversible")
	}
	if ll.Delta <= 0 || hh.Delta <= 0 {
		t.Fatal("non-positive deltas")
	}
	// The HH gain halves the step twice relative to LL.
	ratio := ll.Delta / hh.Delta
	if ratio < 3.9 || ratio > 4.1 {
		t.Errorf("LL/HH delta ratio = %g, want ~4", ratio)
	}
}

func TestDeltaCodecRoundTrip(t *testing.T) {
	for _, delta := range []float32{1.0 / 256, 0.1, 0.015625, 0.5, 1.5} {
		enc := EncodeDelta(delta)
		dec := DecodeDelta(enc)
		if diff := dec/delta - 1; diff < -0.001 || diff > 0.001 {
			t.Errorf("delta %g decoded as %g", delta, dec)
		}
	}
}

func TestReconstructionSize(t *testing.T) {
	s := validStore(t, baseCodestream())
	tests := []struct {
		skip int
		want Size
	}{
		{0, Size{352, 288}},
		{1, Size{176, 144}},
		{2, Size{88, 72}},
		{5, Size{11, 9}},
	}
	for _, tt := range tests {
		if got := s.ReconstructionSize(0, tt.skip); got != tt.want {
			t.Errorf("skip %d: %+v, want %+v", tt.skip, got, tt.want)
		}
	}
}

func TestTileGrid(t *testing.T) {
	cs := baseCodestream()
	cs.SIZ.XTsiz = 100
	cs.SIZ.YTsiz = 100
	s := validStore(t, cs)
	tx, ty := s.TileGrid()
	if tx != 4 || ty != 3 {
		t.Errorf("grid %dx%d, want 4x3", tx, ty)
	}
	last := s.TileRect(11)
	if last.X0 != 300 || last.Y0 != 200 || last.X1 != 352 || last.Y1 != 288 {
		t.Errorf("last tile %+v", last)
	}
}

func TestMAGBp(t *testing.T) {
	s := validStore(t, baseCodestream())
	if m := s.MAGBp(); m < 8 || m > 31 {
		t.Errorf("MAGBp = %d", m)
	}
}
