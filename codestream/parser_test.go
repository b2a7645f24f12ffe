package codestream

import (
	"errors"
	"testing"
)

// sampleCodestream builds a syntactically complete codestream covering
// every supported marker segment.
func sampleCodestream() *Codestream {
	return &Codestream{
		SIZ: &SIZ{
			Rsiz: RsizHT,
			Xsiz: 352, Ysiz: 288,
			XTsiz: 352, YTsiz: 288,
			Csiz: 3,
			Components: []ComponentSize{
				{Ssiz: MakeSsiz(8, false), XRsiz: 1, YRsiz: 1},
				{Ssiz: MakeSsiz(8, false), XRsiz: 2, YRsiz: 2},
				{Ssiz: MakeSsiz(8, false), XRsiz: 2, YRsiz: 2},
			},
		},
		CAP: NewHTCAP(true, 10),
		COD: &COD{
			ProgressionOrder: ProgLRCP,
			NumberOfLayers:   1,
			NumDecomp:        5,
			BlockWidthExp:    4,
			BlockHeightExp:   4,
			BlockStyle:       BlockStyleHT,
			WaveletID:        WaveletRev53,
		},
		QCD: &QCD{
			Style:     QuantNone,
			GuardBits: 2,
			Exponents: make([]uint8, 16),
		},
		COCs: map[uint16]*COC{
			1: {Component: 1, NumDecomp: 3, BlockWidthExp: 3, BlockHeightExp: 3,
				BlockStyle: BlockStyleHT, WaveletID: WaveletRev53},
		},
		QCCs: map[uint16]*QCC{
			1: {Component: 1, QCD: QCD{Style: QuantNone, GuardBits: 1,
				Exponents: make([]uint8, 10)}},
		},
		DFSs: []*DFS{
			{Index: 2, Types: []uint8{DFSBidir, DFSHorz, DFSVert, DFSNone, DFSBidir}},
		},
		ATKs: []*ATK{
			{
				Satk: MakeSatk(3, ATKCoeff16, true),
				Steps: []ATKStep{
					{Eatk: 1, Batk: 1, Aatk: -1},
					{Eatk: 2, Batk: 2, Aatk: 1},
				},
			},
		},
		COMs: []*COM{{Rcom: 1, Data: []byte("go codec")}},
		Tiles: []*Tile{
			{Index: 0, Parts: []*TilePart{
				{SOT: SOT{Isot: 0, TNsot: 1}, Data: []byte{1, 2, 3, 4, 5}},
			}},
		},
	}
}

func TestSerializeParseRoundTrip(t *testing.T) {
	data, err := NewSerializer().Serialize(sampleCodestream())
	if err != nil {
		t.Fatal(err)
	}
	cs, err := NewParser(data).Parse()
	if err != nil {
		t.Fatal(err)
	}

	if cs.SIZ.Xsiz != 352 || cs.SIZ.Ysiz != 288 || cs.SIZ.Csiz != 3 {
		t.Errorf("SIZ geometry lost: %+v", cs.SIZ)
	}
	if !cs.SIZ.IsHT() {
		t.Error("Rsiz HT bit lost")
	}
	if cs.SIZ.Components[1].XRsiz != 2 || cs.SIZ.Components[1].YRsiz != 2 {
		t.Error("component downsampling lost")
	}
	if cs.CAP == nil || cs.CAP.Pcap != PcapHT || len(cs.CAP.Ccap) != 1 {
		t.Errorf("CAP lost: %+v", cs.CAP)
	}
	if cs.COD.NumDecomp != 5 || !cs.COD.UsesHT() || cs.COD.WaveletID != WaveletRev53 {
		t.Errorf("COD lost: %+v", cs.COD)
	}
	if w, h := cs.COD.BlockSize(); w != 64 || h != 64 {
		t.Errorf("block size %dx%d", w, h)
	}
	if cs.QCD.Style != QuantNone || cs.QCD.GuardBits != 2 || len(cs.QCD.Exponents) != 16 {
		t.Errorf("QCD lost: %+v", cs.QCD)
	}
	coc, ok := cs.COCs[1]
	if !ok || coc.NumDecomp != 3 {
		t.Errorf("COC lost: %+v", coc)
	}
	qcc, ok := cs.QCCs[1]
	if !ok || qcc.GuardBits != 1 || len(qcc.Exponents) != 10 {
		t.Errorf("QCC lost: %+v", qcc)
	}
	if len(cs.DFSs) != 1 || len(cs.DFSs[0].Types) != 5 {
		t.Fatalf("DFS lost: %+v", cs.DFSs)
	}
	wantTypes := []uint8{DFSBidir, DFSHorz, DFSVert, DFSNone, DFSBidir}
	for i, v := range cs.DFSs[0].Types {
		if v != wantTypes[i] {
			t.Errorf("Ddfs[%d] = %d, want %d", i, v, wantTypes[i])
		}
	}
	if len(cs.ATKs) != 1 {
		t.Fatal("ATK lost")
	}
	atk := cs.ATKs[0]
	if atk.Index() != 3 || !atk.IsReversible() || len(atk.Steps) != 2 {
		t.Errorf("ATK fields lost: %+v", atk)
	}
	if atk.Steps[0].Aatk != -1 || atk.Steps[0].Batk != 1 || atk.Steps[0].Eatk != 1 {
		t.Errorf("ATK step lost: %+v", atk.Steps[0])
	}
	if len(cs.TLMs) != 1 || len(cs.TLMs[0].Pairs) != 1 {
		t.Fatal("serializer must emit a TLM table")
	}
	if cs.TLMs[0].Pairs[0].Ptlm != uint32(14+5) {
		t.Errorf("TLM length %d", cs.TLMs[0].Pairs[0].Ptlm)
	}
	if len(cs.COMs) != 1 || string(cs.COMs[0].Data) != "go codec" {
		t.Error("COM lost")
	}
	if len(cs.Tiles) != 1 || len(cs.Tiles[0].Parts) != 1 {
		t.Fatal("tile-part structure lost")
	}
	if got := cs.Tiles[0].Parts[0].Data; len(got) != 5 || got[0] != 1 || got[4] != 5 {
		t.Errorf("tile data lost: %v", got)
	}
}

// The main header order is fixed: SOC, SIZ, (CAP), COD, QCD, then
// everything else.
func TestMainHeaderMarkerOrder(t *testing.T) {
	data, err := NewSerializer().Serialize(sampleCodestream())
	if err != nil {
		t.Fatal(err)
	}
	pos := func(marker uint16) int {
		for i := 0; i+1 < len(data); i++ {
			if uint16(data[i])<<8|uint16(data[i+1]) == marker {
				return i
			}
		}
		return -1
	}
	soc, siz, cod, qcd := pos(MarkerSOC), pos(MarkerSIZ), pos(MarkerCOD), pos(MarkerQCD)
	if soc != 0 {
		t.Errorf("SOC at %d", soc)
	}
	if !(soc < siz && siz < cod && cod < qcd) {
		t.Errorf("order SOC=%d SIZ=%d COD=%d QCD=%d", soc, siz, cod, qcd)
	}
	for _, m := range []uint16{MarkerCOC, MarkerQCC, MarkerTLM, MarkerATK, MarkerDFS, MarkerSOT} {
		if p := pos(m); p >= 0 && p < qcd {
			t.Errorf("%s at %d precedes QCD at %d", MarkerName(m), p, qcd)
		}
	}
}

func TestParseRejectsMissingSOC(t *testing.T) {
	_, err := NewParser([]byte{0xFF, 0x51, 0x00, 0x02}).Parse()
	if !errors.Is(err, ErrUnexpectedMarker) {
		t.Errorf("err = %v", err)
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatal("error is not a ParseError")
	}
	if pe.Offset != 0 {
		t.Errorf("offset = %d", pe.Offset)
	}
}

func TestParseSkipsUnknownMarkers(t *testing.T) {
	data, err := NewSerializer().Serialize(sampleCodestream())
	if err != nil {
		t.Fatal(err)
	}
	// Splice an unknown-but-lengthed marker (PLM, 0xFF57) into the main
	// header.
	spliced := append([]byte{}, data[:2]...)
	spliced = append(spliced, data[2:]...)
	// Find QCD and insert before it.
	idx := -1
	for i := 0; i+1 < len(spliced); i++ {
		if uint16(spliced[i])<<8|uint16(spliced[i+1]) == MarkerQCD {
			idx = i
			break
		}
	}
	unknown := []byte{0xFF, 0x57, 0x00, 0x05, 0xAA, 0xBB, 0xCC}
	withUnknown := append([]byte{}, spliced[:idx]...)
	withUnknown = append(withUnknown, unknown...)
	withUnknown = append(withUnknown, spliced[idx:]...)

	cs, err := NewParser(withUnknown).Parse()
	if err != nil {
		t.Fatalf("unknown marker not skipped: %v", err)
	}
	if cs.QCD == nil {
		t.Error("QCD lost after skipping unknown marker")
	}
}

func TestParseTruncatedTilePart(t *testing.T) {
	data, err := NewSerializer().Serialize(sampleCodestream())
	if err != nil {
		t.Fatal(err)
	}
	cut := data[:len(data)-5] // into the tile payload

	if _, err := NewParser(cut).Parse(); !errors.Is(err, ErrTruncated) {
		t.Errorf("strict parse err = %v", err)
	}

	p := NewParser(cut)
	p.Resilient = true
	cs, err := p.Parse()
	if err != nil {
		t.Fatalf("resilient parse failed: %v", err)
	}
	if len(cs.Tiles) != 1 || !cs.Tiles[0].Parts[0].Truncated {
		t.Error("truncated tile-part not flagged")
	}
}

func TestParseRejectsOversizedCodeBlocks(t *testing.T) {
	cs := sampleCodestream()
	cs.COD.BlockWidthExp = 8
	cs.COD.BlockHeightExp = 8 // 1024 x 1024 exceeds the 4096-sample bound
	data, err := NewSerializer().Serialize(cs)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewParser(data).Parse(); !errors.Is(err, ErrInvalidField) {
		t.Errorf("err = %v", err)
	}
}

func TestATKUnsupportedFeatures(t *testing.T) {
	cs := sampleCodestream()
	cs.ATKs[0].Satk |= 0x2000 // m_init != 0
	data, err := NewSerializer().Serialize(cs)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewParser(data).Parse(); !errors.Is(err, ErrUnsupported) {
		t.Errorf("err = %v", err)
	}
}

func TestSOTFieldLayout(t *testing.T) {
	data, err := NewSerializer().Serialize(sampleCodestream())
	if err != nil {
		t.Fatal(err)
	}
	idx := -1
	for i := 0; i+1 < len(data); i++ {
		if uint16(data[i])<<8|uint16(data[i+1]) == MarkerSOT {
			idx = i
			break
		}
	}
	if idx < 0 {
		t.Fatal("no SOT")
	}
	if lsot := uint16(data[idx+2])<<8 | uint16(data[idx+3]); lsot != 10 {
		t.Errorf("Lsot = %d", lsot)
	}
	// SOD follows the 12-byte SOT.
	if m := uint16(data[idx+12])<<8 | uint16(data[idx+13]); m != MarkerSOD {
		t.Errorf("marker after SOT = 0x%04X", m)
	}
}
