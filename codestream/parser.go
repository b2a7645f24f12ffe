package codestream

import (
	"encoding/binary"
	"log/slog"
	"math"
)

// Parser parses JPEG 2000 codestreams from a byte slice.
type Parser struct {
	data   []byte
	offset int

	// Resilient enables best-effort recovery: a tile-part whose payload
	// runs past the end of the input keeps the bytes observed and is
	// flagged truncated instead of aborting the parse.
	Resilient bool

	// Log receives resilient-recovery events; nil uses slog.Default.
	Log *slog.Logger
}

// NewParser creates a new codestream parser
func NewParser(data []byte) *Parser {
	return &Parser{data: data}
}

// Parse parses the entire codestream
func (p *Parser) Parse() (*Codestream, error) {
	cs := &Codestream{
		COCs: make(map[uint16]*COC),
		QCCs: make(map[uint16]*QCC),
	}

	marker, err := p.readMarker()
	if err != nil {
		return nil, err
	}
	if marker != MarkerSOC {
		return nil, parseErr(ErrUnexpectedMarker, marker, p.offset-2,
			"expected SOC (0x%04X), got 0x%04X", MarkerSOC, marker)
	}

	if err := p.parseMainHeader(cs); err != nil {
		return nil, err
	}

	tiles := make(map[int]*Tile)
	for {
		marker, err := p.peekMarker()
		if err != nil {
			if p.Resilient {
				p.logger().Warn("codestream ends without EOC", "offset", p.offset)
				break
			}
			return nil, parseErr(ErrTruncated, MarkerEOC, p.offset, "codestream ends without EOC")
		}

		if marker == MarkerEOC {
			_, _ = p.readMarker()
			break
		}
		if marker != MarkerSOT {
			return nil, parseErr(ErrUnexpectedMarker, marker, p.offset,
				"expected SOT or EOC, got %s", MarkerName(marker))
		}

		part, err := p.parseTilePart()
		if err != nil {
			return nil, err
		}
		idx := int(part.SOT.Isot)
		t := tiles[idx]
		if t == nil {
			t = &Tile{Index: idx}
			tiles[idx] = t
			cs.Tiles = append(cs.Tiles, t)
		}
		t.Parts = append(t.Parts, part)
	}

	return cs, nil
}

// parseMainHeader parses the main header segments. SIZ must come first;
// COD and QCD are required before the first tile-part.
func (p *Parser) parseMainHeader(cs *Codestream) error {
	first := true
	for {
		marker, err := p.peekMarker()
		if err != nil {
			return parseErr(ErrTruncated, 0, p.offset, "main header ends without SOT or EOC")
		}
		if marker == MarkerSOT || marker == MarkerEOC {
			break
		}

		marker, _ = p.readMarker()
		if first && marker != MarkerSIZ {
			return parseErr(ErrUnexpectedMarker, marker, p.offset-2,
				"SIZ must immediately follow SOC")
		}
		first = false

		switch marker {
		case MarkerSIZ:
			if cs.SIZ, err = p.parseSIZ(); err != nil {
				return err
			}
		case MarkerCAP:
			if cs.CAP, err = p.parseCAP(); err != nil {
				return err
			}
		case MarkerCOD:
			if cs.COD, err = p.parseCOD(); err != nil {
				return err
			}
		case MarkerCOC:
			coc, err := p.parseCOC(cs.numComps())
			if err != nil {
				return err
			}
			cs.COCs[coc.Component] = coc
		case MarkerQCD:
			if cs.QCD, err = p.parseQCD(); err != nil {
				return err
			}
		case MarkerQCC:
			qcc, err := p.parseQCC(cs.numComps())
			if err != nil {
				return err
			}
			cs.QCCs[qcc.Component] = qcc
		case MarkerDFS:
			dfs, err := p.parseDFS()
			if err != nil {
				return err
			}
			cs.DFSs = append(cs.DFSs, dfs)
		case MarkerATK:
			atk, err := p.parseATK()
			if err != nil {
				return err
			}
			cs.ATKs = append(cs.ATKs, atk)
		case MarkerTLM:
			tlm, err := p.parseTLM()
			if err != nil {
				return err
			}
			cs.TLMs = append(cs.TLMs, tlm)
		case MarkerCOM:
			com, err := p.parseCOM()
			if err != nil {
				return err
			}
			cs.COMs = append(cs.COMs, com)
		default:
			// Unknown markers in the reserved range are skipped by their
			// announced length.
			if err := p.skipSegment(marker); err != nil {
				return err
			}
		}
	}

	if cs.SIZ == nil {
		return parseErr(ErrInvalidField, MarkerSIZ, p.offset, "missing required SIZ segment")
	}
	if cs.COD == nil {
		return parseErr(ErrInvalidField, MarkerCOD, p.offset, "missing required COD segment")
	}
	if cs.QCD == nil {
		return parseErr(ErrInvalidField, MarkerQCD, p.offset, "missing required QCD segment")
	}
	return nil
}

func (cs *Codestream) numComps() uint16 {
	if cs.SIZ == nil {
		return 0
	}
	return cs.SIZ.Csiz
}

// parseTilePart parses one SOT..SOD..data fragment.
func (p *Parser) parseTilePart() (*TilePart, error) {
	tileStart := p.offset
	marker, err := p.readMarker()
	if err != nil || marker != MarkerSOT {
		return nil, parseErr(ErrUnexpectedMarker, marker, tileStart, "expected SOT")
	}

	sot, err := p.parseSOT()
	if err != nil {
		return nil, err
	}
	part := &TilePart{SOT: *sot}

	// Tile-part headers may carry COD/QCD overrides; this profile skips
	// them by length, leaving the main-header defaults in force.
	for {
		marker, err := p.peekMarker()
		if err != nil {
			return nil, parseErr(ErrTruncated, MarkerSOD, p.offset, "tile-part header ends before SOD")
		}
		if marker == MarkerSOD {
			_, _ = p.readMarker()
			break
		}
		marker, _ = p.readMarker()
		if err := p.skipSegment(marker); err != nil {
			return nil, err
		}
	}

	want := int(sot.Psot) - (p.offset - tileStart)
	if sot.Psot == 0 {
		// Last tile-part of the codestream may leave Psot zero; scan for
		// the next marker.
		part.Data = p.scanTileData()
		return part, nil
	}
	if want < 0 {
		return nil, parseErr(ErrInvalidField, MarkerSOT, tileStart,
			"Psot %d smaller than tile-part header", sot.Psot)
	}
	if p.offset+want > len(p.data) {
		if !p.Resilient {
			return nil, parseErr(ErrTruncated, MarkerSOT, tileStart,
				"tile-part runs past end of codestream (Psot=%d)", sot.Psot)
		}
		p.logger().Warn("truncated tile-part, decoding observed data",
			"tile", sot.Isot, "psot", sot.Psot, "available", len(p.data)-p.offset)
		part.Truncated = true
		want = len(p.data) - p.offset
	}
	part.Data = p.data[p.offset : p.offset+want]
	p.offset += want
	return part, nil
}

// scanTileData consumes bytes until the next marker that can follow a
// tile-part body.
func (p *Parser) scanTileData() []byte {
	start := p.offset
	for p.offset+1 < len(p.data) {
		if p.data[p.offset] == 0xFF {
			next := p.data[p.offset+1]
			if next == 0x90 || next == 0xD9 { // SOT or EOC
				break
			}
		}
		p.offset++
	}
	return p.data[start:p.offset]
}

// segment bounds the remaining payload of one marker segment.
type segment struct {
	marker uint16
	start  int // offset of the first byte after the length field
	end    int
}

func (p *Parser) openSegment(marker uint16) (segment, error) {
	start := p.offset - 2
	length, err := p.readUint16()
	if err != nil {
		return segment{}, parseErr(ErrTruncated, marker, start, "missing segment length")
	}
	if length < 2 {
		return segment{}, parseErr(ErrInvalidField, marker, start, "segment length %d", length)
	}
	end := p.offset + int(length) - 2
	if end > len(p.data) {
		return segment{}, parseErr(ErrTruncated, marker, start,
			"segment length %d exceeds input", length)
	}
	return segment{marker: marker, start: p.offset, end: end}, nil
}

// closeSegment verifies the parser consumed exactly the announced bytes;
// trailing bytes are skipped.
func (p *Parser) closeSegment(s segment) error {
	if p.offset > s.end {
		return parseErr(ErrInvalidField, s.marker, s.start, "segment overrun")
	}
	p.offset = s.end
	return nil
}

// parseSIZ parses the SIZ marker segment
func (p *Parser) parseSIZ() (*SIZ, error) {
	seg, err := p.openSegment(MarkerSIZ)
	if err != nil {
		return nil, err
	}

	siz := &SIZ{}
	fields := []*uint32{
		&siz.Xsiz, &siz.Ysiz, &siz.XOsiz, &siz.YOsiz,
		&siz.XTsiz, &siz.YTsiz, &siz.XTOsiz, &siz.YTOsiz,
	}
	if siz.Rsiz, err = p.readUint16(); err != nil {
		return nil, parseErr(ErrTruncated, MarkerSIZ, p.offset, "short SIZ")
	}
	for _, f := range fields {
		if *f, err = p.readUint32(); err != nil {
			return nil, parseErr(ErrTruncated, MarkerSIZ, p.offset, "short SIZ")
		}
	}
	if siz.Csiz, err = p.readUint16(); err != nil {
		return nil, parseErr(ErrTruncated, MarkerSIZ, p.offset, "short SIZ")
	}
	if siz.Csiz < 1 {
		return nil, parseErr(ErrInvalidField, MarkerSIZ, seg.start, "Csiz %d", siz.Csiz)
	}

	siz.Components = make([]ComponentSize, siz.Csiz)
	for i := range siz.Components {
		c := &siz.Components[i]
		if c.Ssiz, err = p.readUint8(); err != nil {
			return nil, parseErr(ErrTruncated, MarkerSIZ, p.offset, "short component list")
		}
		if c.XRsiz, err = p.readUint8(); err != nil {
			return nil, parseErr(ErrTruncated, MarkerSIZ, p.offset, "short component list")
		}
		if c.YRsiz, err = p.readUint8(); err != nil {
			return nil, parseErr(ErrTruncated, MarkerSIZ, p.offset, "short component list")
		}
		if c.XRsiz == 0 || c.YRsiz == 0 {
			return nil, parseErr(ErrInvalidField, MarkerSIZ, seg.start,
				"component %d has zero downsampling", i)
		}
	}

	if seg.end-seg.start != 36+3*int(siz.Csiz) {
		return nil, parseErr(ErrInvalidField, MarkerSIZ, seg.start,
			"Lsiz inconsistent with Csiz=%d", siz.Csiz)
	}
	return siz, p.closeSegment(seg)
}

// parseCAP parses the CAP marker segment.
func (p *Parser) parseCAP() (*CAP, error) {
	seg, err := p.openSegment(MarkerCAP)
	if err != nil {
		return nil, err
	}
	c := &CAP{}
	if c.Pcap, err = p.readUint32(); err != nil {
		return nil, parseErr(ErrTruncated, MarkerCAP, p.offset, "short CAP")
	}
	n := c.NumCcap()
	c.Ccap = make([]uint16, n)
	for i := 0; i < n; i++ {
		if c.Ccap[i], err = p.readUint16(); err != nil {
			return nil, parseErr(ErrTruncated, MarkerCAP, p.offset, "short Ccap list")
		}
	}
	return c, p.closeSegment(seg)
}

// parseSPcod reads the shared SPcod/SPcoc tail of COD and COC, bounded by
// the enclosing segment.
func (p *Parser) parseSPcod(seg segment, usesPrecincts bool) (numDecomp, bw, bh, style, wavelet uint8, ps []PrecinctSize, err error) {
	read := func(dst *uint8) bool {
		if p.offset >= seg.end {
			return false
		}
		*dst, err = p.readUint8()
		return err == nil
	}
	if !read(&numDecomp) || !read(&bw) || !read(&bh) || !read(&style) || !read(&wavelet) {
		err = parseErr(ErrTruncated, seg.marker, p.offset, "short SPcod")
		return
	}
	if bw > 8 || bh > 8 || bw+bh > 8 {
		err = parseErr(ErrInvalidField, seg.marker, p.offset,
			"code-block %dx%d exceeds 4096 samples", 1<<(bw+2), 1<<(bh+2))
		return
	}
	if usesPrecincts {
		n := int(numDecomp&0x7F) + 1
		if numDecomp&0x80 != 0 {
			// A DFS reference hides the count; precinct entries run to the
			// end of the segment.
			n = seg.end - p.offset
		}
		for i := 0; i < n && p.offset < seg.end; i++ {
			v, e := p.readUint8()
			if e != nil {
				break
			}
			ps = append(ps, PrecinctSize{PPx: v & 0x0F, PPy: v >> 4})
		}
	}
	return
}

// parseCOD parses the COD marker segment
func (p *Parser) parseCOD() (*COD, error) {
	seg, err := p.openSegment(MarkerCOD)
	if err != nil {
		return nil, err
	}
	cod := &COD{}
	if cod.Scod, err = p.readUint8(); err != nil {
		return nil, parseErr(ErrTruncated, MarkerCOD, p.offset, "short COD")
	}
	if cod.ProgressionOrder, err = p.readUint8(); err != nil {
		return nil, parseErr(ErrTruncated, MarkerCOD, p.offset, "short COD")
	}
	if cod.ProgressionOrder > ProgCPRL {
		return nil, parseErr(ErrInvalidField, MarkerCOD, seg.start,
			"progression order %d", cod.ProgressionOrder)
	}
	if cod.NumberOfLayers, err = p.readUint16(); err != nil {
		return nil, parseErr(ErrTruncated, MarkerCOD, p.offset, "short COD")
	}
	if cod.MultipleComponentTransform, err = p.readUint8(); err != nil {
		return nil, parseErr(ErrTruncated, MarkerCOD, p.offset, "short COD")
	}
	cod.NumDecomp, cod.BlockWidthExp, cod.BlockHeightExp, cod.BlockStyle,
		cod.WaveletID, cod.PrecinctSizes, err = p.parseSPcod(seg, cod.UsesPrecincts())
	if err != nil {
		return nil, err
	}
	return cod, p.closeSegment(seg)
}

// parseCOC parses the COC marker segment
func (p *Parser) parseCOC(numComps uint16) (*COC, error) {
	seg, err := p.openSegment(MarkerCOC)
	if err != nil {
		return nil, err
	}
	coc := &COC{}
	if coc.Component, err = p.readComponentIndex(numComps); err != nil {
		return nil, parseErr(ErrTruncated, MarkerCOC, p.offset, "short COC")
	}
	if coc.Component >= numComps {
		return nil, parseErr(ErrInvalidField, MarkerCOC, seg.start,
			"component %d out of range (Csiz=%d)", coc.Component, numComps)
	}
	if coc.Scoc, err = p.readUint8(); err != nil {
		return nil, parseErr(ErrTruncated, MarkerCOC, p.offset, "short COC")
	}
	coc.NumDecomp, coc.BlockWidthExp, coc.BlockHeightExp, coc.BlockStyle,
		coc.WaveletID, coc.PrecinctSizes, err = p.parseSPcod(seg, coc.UsesPrecincts())
	if err != nil {
		return nil, err
	}
	return coc, p.closeSegment(seg)
}

// parseQuant reads the shared QCD/QCC quantization payload.
func (p *Parser) parseQuant(marker uint16, seg segment) (QCD, error) {
	var q QCD
	sq, err := p.readUint8()
	if err != nil {
		return q, parseErr(ErrTruncated, marker, p.offset, "short quantization segment")
	}
	q.Style = sq & 0x1F
	q.GuardBits = sq >> 5
	switch q.Style {
	case QuantNone:
		for p.offset < seg.end {
			v, err := p.readUint8()
			if err != nil {
				return q, parseErr(ErrTruncated, marker, p.offset, "short exponent list")
			}
			q.Exponents = append(q.Exponents, v>>3)
		}
	case QuantScalarDerived, QuantScalarExpounded:
		for p.offset < seg.end {
			v, err := p.readUint16()
			if err != nil {
				return q, parseErr(ErrTruncated, marker, p.offset, "short step-size list")
			}
			q.Steps = append(q.Steps, StepSize{Exponent: uint8(v >> 11), Mantissa: v & 0x7FF})
		}
	default:
		return q, parseErr(ErrInvalidField, marker, seg.start, "quantization style %d", q.Style)
	}
	return q, nil
}

// parseQCD parses the QCD marker segment
func (p *Parser) parseQCD() (*QCD, error) {
	seg, err := p.openSegment(MarkerQCD)
	if err != nil {
		return nil, err
	}
	q, err := p.parseQuant(MarkerQCD, seg)
	if err != nil {
		return nil, err
	}
	return &q, p.closeSegment(seg)
}

// parseQCC parses the QCC marker segment
func (p *Parser) parseQCC(numComps uint16) (*QCC, error) {
	seg, err := p.openSegment(MarkerQCC)
	if err != nil {
		return nil, err
	}
	qcc := &QCC{}
	if qcc.Component, err = p.readComponentIndex(numComps); err != nil {
		return nil, parseErr(ErrTruncated, MarkerQCC, p.offset, "short QCC")
	}
	if qcc.Component >= numComps {
		return nil, parseErr(ErrInvalidField, MarkerQCC, seg.start,
			"component %d out of range (Csiz=%d)", qcc.Component, numComps)
	}
	qcc.QCD, err = p.parseQuant(MarkerQCC, seg)
	if err != nil {
		return nil, err
	}
	return qcc, p.closeSegment(seg)
}

// parseDFS parses the DFS marker segment.
func (p *Parser) parseDFS() (*DFS, error) {
	seg, err := p.openSegment(MarkerDFS)
	if err != nil {
		return nil, err
	}
	d := &DFS{}
	if d.Index, err = p.readUint16(); err != nil {
		return nil, parseErr(ErrTruncated, MarkerDFS, p.offset, "short DFS")
	}
	ids, err := p.readUint8()
	if err != nil {
		return nil, parseErr(ErrTruncated, MarkerDFS, p.offset, "short DFS")
	}
	// Two bits per sub-level, packed most significant first.
	var cur uint8
	for i := 0; i < int(ids); i++ {
		if i%4 == 0 {
			if cur, err = p.readUint8(); err != nil {
				return nil, parseErr(ErrTruncated, MarkerDFS, p.offset, "short Ddfs string")
			}
		}
		d.Types = append(d.Types, (cur>>(6-2*(i%4)))&0x3)
	}
	return d, p.closeSegment(seg)
}

// parseATK parses the ATK marker segment, accepting the whole-sample
// symmetric subset: one coefficient per step, one to six steps, m_init 0.
func (p *Parser) parseATK() (*ATK, error) {
	seg, err := p.openSegment(MarkerATK)
	if err != nil {
		return nil, err
	}
	a := &ATK{}
	if a.Satk, err = p.readUint16(); err != nil {
		return nil, parseErr(ErrTruncated, MarkerATK, p.offset, "short ATK")
	}
	if !a.IsWholeSample() {
		return nil, parseErr(ErrUnsupported, MarkerATK, seg.start,
			"arbitrary (non whole-sample) filters are not supported")
	}
	if !a.IsMInit0() {
		return nil, parseErr(ErrUnsupported, MarkerATK, seg.start, "m_init != 0")
	}
	if a.IsReversible() {
		if a.CoeffType() != ATKCoeff16 {
			return nil, parseErr(ErrUnsupported, MarkerATK, seg.start,
				"reversible coefficient type %d", a.CoeffType())
		}
	} else {
		if a.CoeffType() != ATKCoeffF {
			return nil, parseErr(ErrUnsupported, MarkerATK, seg.start,
				"irreversible coefficient type %d", a.CoeffType())
		}
		if a.Katk, err = p.readFloat32(); err != nil {
			return nil, parseErr(ErrTruncated, MarkerATK, p.offset, "missing Katk")
		}
	}
	natk, err := p.readUint8()
	if err != nil {
		return nil, parseErr(ErrTruncated, MarkerATK, p.offset, "missing Natk")
	}
	if natk < 1 || natk > 6 {
		return nil, parseErr(ErrUnsupported, MarkerATK, seg.start, "%d lifting steps", natk)
	}
	for i := 0; i < int(natk); i++ {
		var st ATKStep
		if a.IsReversible() {
			if st.Eatk, err = p.readUint8(); err != nil {
				return nil, parseErr(ErrTruncated, MarkerATK, p.offset, "short lifting step")
			}
			var v uint16
			if v, err = p.readUint16(); err != nil {
				return nil, parseErr(ErrTruncated, MarkerATK, p.offset, "short lifting step")
			}
			st.Batk = int16(v)
			if v, err = p.readUint16(); err != nil {
				return nil, parseErr(ErrTruncated, MarkerATK, p.offset, "short lifting step")
			}
			st.Aatk = int16(v)
		} else {
			if st.AatkF, err = p.readFloat32(); err != nil {
				return nil, parseErr(ErrTruncated, MarkerATK, p.offset, "short lifting step")
			}
		}
		a.Steps = append(a.Steps, st)
	}
	return a, p.closeSegment(seg)
}

// parseTLM parses the TLM marker segment.
func (p *Parser) parseTLM() (*TLM, error) {
	seg, err := p.openSegment(MarkerTLM)
	if err != nil {
		return nil, err
	}
	t := &TLM{}
	if t.Ztlm, err = p.readUint8(); err != nil {
		return nil, parseErr(ErrTruncated, MarkerTLM, p.offset, "short TLM")
	}
	if t.Stlm, err = p.readUint8(); err != nil {
		return nil, parseErr(ErrTruncated, MarkerTLM, p.offset, "short TLM")
	}
	for p.offset < seg.end {
		var pair TLMPair
		switch t.ST() {
		case 0:
			// no tile index; entries are in tile order
		case 1:
			v, err := p.readUint8()
			if err != nil {
				return nil, parseErr(ErrTruncated, MarkerTLM, p.offset, "short Ttlm")
			}
			pair.Ttlm = uint16(v)
		case 2:
			if pair.Ttlm, err = p.readUint16(); err != nil {
				return nil, parseErr(ErrTruncated, MarkerTLM, p.offset, "short Ttlm")
			}
		default:
			return nil, parseErr(ErrInvalidField, MarkerTLM, seg.start, "ST=3")
		}
		if t.SP() {
			if pair.Ptlm, err = p.readUint32(); err != nil {
				return nil, parseErr(ErrTruncated, MarkerTLM, p.offset, "short Ptlm")
			}
		} else {
			v, err := p.readUint16()
			if err != nil {
				return nil, parseErr(ErrTruncated, MarkerTLM, p.offset, "short Ptlm")
			}
			pair.Ptlm = uint32(v)
		}
		t.Pairs = append(t.Pairs, pair)
	}
	return t, p.closeSegment(seg)
}

// parseCOM parses the COM marker segment
func (p *Parser) parseCOM() (*COM, error) {
	seg, err := p.openSegment(MarkerCOM)
	if err != nil {
		return nil, err
	}
	com := &COM{}
	if com.Rcom, err = p.readUint16(); err != nil {
		return nil, parseErr(ErrTruncated, MarkerCOM, p.offset, "short COM")
	}
	com.Data = append([]byte(nil), p.data[p.offset:seg.end]...)
	p.offset = seg.end
	return com, nil
}

// parseSOT parses the SOT marker segment
func (p *Parser) parseSOT() (*SOT, error) {
	seg, err := p.openSegment(MarkerSOT)
	if err != nil {
		return nil, err
	}
	if seg.end-seg.start != 8 {
		return nil, parseErr(ErrInvalidField, MarkerSOT, seg.start,
			"Lsot must be 10")
	}
	sot := &SOT{}
	if sot.Isot, err = p.readUint16(); err != nil {
		return nil, parseErr(ErrTruncated, MarkerSOT, p.offset, "short SOT")
	}
	if sot.Psot, err = p.readUint32(); err != nil {
		return nil, parseErr(ErrTruncated, MarkerSOT, p.offset, "short SOT")
	}
	if sot.TPsot, err = p.readUint8(); err != nil {
		return nil, parseErr(ErrTruncated, MarkerSOT, p.offset, "short SOT")
	}
	if sot.TNsot, err = p.readUint8(); err != nil {
		return nil, parseErr(ErrTruncated, MarkerSOT, p.offset, "short SOT")
	}
	return sot, p.closeSegment(seg)
}

// Helper methods for reading data

func (p *Parser) logger() *slog.Logger {
	if p.Log != nil {
		return p.Log
	}
	return slog.Default()
}

func (p *Parser) readMarker() (uint16, error) {
	return p.readUint16()
}

func (p *Parser) peekMarker() (uint16, error) {
	if p.offset+2 > len(p.data) {
		return 0, parseErr(ErrTruncated, 0, p.offset, "unexpected end of input")
	}
	return binary.BigEndian.Uint16(p.data[p.offset : p.offset+2]), nil
}

// readComponentIndex reads a component reference: one byte when the image
// has fewer than 257 components, two bytes otherwise.
func (p *Parser) readComponentIndex(numComps uint16) (uint16, error) {
	if numComps < 257 {
		v, err := p.readUint8()
		return uint16(v), err
	}
	return p.readUint16()
}

func (p *Parser) readUint8() (uint8, error) {
	if p.offset+1 > len(p.data) {
		return 0, parseErr(ErrTruncated, 0, p.offset, "unexpected end of input")
	}
	v := p.data[p.offset]
	p.offset++
	return v, nil
}

func (p *Parser) readUint16() (uint16, error) {
	if p.offset+2 > len(p.data) {
		return 0, parseErr(ErrTruncated, 0, p.offset, "unexpected end of input")
	}
	v := binary.BigEndian.Uint16(p.data[p.offset : p.offset+2])
	p.offset += 2
	return v, nil
}

func (p *Parser) readUint32() (uint32, error) {
	if p.offset+4 > len(p.data) {
		return 0, parseErr(ErrTruncated, 0, p.offset, "unexpected end of input")
	}
	v := binary.BigEndian.Uint32(p.data[p.offset : p.offset+4])
	p.offset += 4
	return v, nil
}

func (p *Parser) readFloat32() (float32, error) {
	v, err := p.readUint32()
	return math.Float32frombits(v), err
}

func (p *Parser) skipSegment(marker uint16) error {
	seg, err := p.openSegment(marker)
	if err != nil {
		return err
	}
	p.offset = seg.end
	return nil
}
