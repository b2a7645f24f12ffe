package codestream

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
)

// Serializer writes a Codestream back to bytes, emitting the main-header
// segments in the order the standard requires: SIZ first, COD before QCD,
// and every COC/QCC/DFS/ATK/TLM/COM after QCD.
type Serializer struct {
	buf []byte
}

// NewSerializer creates an empty serializer.
func NewSerializer() *Serializer {
	return &Serializer{}
}

// Serialize emits the complete codestream.
func (s *Serializer) Serialize(cs *Codestream) ([]byte, error) {
	if cs.SIZ == nil || cs.COD == nil || cs.QCD == nil {
		return nil, fmt.Errorf("%w: SIZ, COD and QCD are required", ErrInvalidField)
	}
	s.buf = s.buf[:0]

	s.writeMarker(MarkerSOC)
	s.writeSIZ(cs.SIZ)
	if cs.CAP != nil {
		s.writeCAP(cs.CAP)
	}
	s.writeCOD(cs.COD)
	s.writeQCD(cs.QCD)

	for _, c := range sortedCOCs(cs.COCs) {
		s.writeCOC(c, cs.SIZ.Csiz)
	}
	for _, q := range sortedQCCs(cs.QCCs) {
		s.writeQCC(q, cs.SIZ.Csiz)
	}
	for _, d := range cs.DFSs {
		s.writeDFS(d)
	}
	for _, a := range cs.ATKs {
		s.writeATK(a)
	}
	for _, com := range cs.COMs {
		s.writeCOM(com)
	}

	if tlm := buildTLM(cs.Tiles); tlm != nil {
		s.writeTLM(tlm)
	}

	for _, t := range cs.Tiles {
		for _, part := range t.Parts {
			s.writeTilePart(part)
		}
	}
	s.writeMarker(MarkerEOC)

	out := make([]byte, len(s.buf))
	copy(out, s.buf)
	return out, nil
}

// buildTLM derives the tile-part length table from the tile data already
// in hand; the sum of its lengths equals the codestream's tile-part span.
func buildTLM(tiles []*Tile) *TLM {
	var pairs []TLMPair
	for _, t := range tiles {
		for _, part := range t.Parts {
			pairs = append(pairs, TLMPair{
				Ttlm: part.SOT.Isot,
				Ptlm: uint32(14 + len(part.Data)),
			})
		}
	}
	if len(pairs) == 0 {
		return nil
	}
	return NewTLM(pairs)
}

func sortedCOCs(m map[uint16]*COC) []*COC {
	out := make([]*COC, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Component < out[j].Component })
	return out
}

func sortedQCCs(m map[uint16]*QCC) []*QCC {
	out := make([]*QCC, 0, len(m))
	for _, q := range m {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Component < out[j].Component })
	return out
}

func (s *Serializer) writeSIZ(siz *SIZ) {
	s.writeMarker(MarkerSIZ)
	s.writeUint16(uint16(38 + 3*len(siz.Components)))
	s.writeUint16(siz.Rsiz)
	for _, v := range []uint32{
		siz.Xsiz, siz.Ysiz, siz.XOsiz, siz.YOsiz,
		siz.XTsiz, siz.YTsiz, siz.XTOsiz, siz.YTOsiz,
	} {
		s.writeUint32(v)
	}
	s.writeUint16(siz.Csiz)
	for _, c := range siz.Components {
		s.writeUint8(c.Ssiz)
		s.writeUint8(c.XRsiz)
		s.writeUint8(c.YRsiz)
	}
}

func (s *Serializer) writeCAP(c *CAP) {
	s.writeMarker(MarkerCAP)
	s.writeUint16(uint16(6 + 2*len(c.Ccap)))
	s.writeUint32(c.Pcap)
	for _, v := range c.Ccap {
		s.writeUint16(v)
	}
}

func (s *Serializer) writeCOD(c *COD) {
	s.writeMarker(MarkerCOD)
	length := 12
	if c.UsesPrecincts() {
		length += len(c.PrecinctSizes)
	}
	s.writeUint16(uint16(length))
	s.writeUint8(c.Scod)
	s.writeUint8(c.ProgressionOrder)
	s.writeUint16(c.NumberOfLayers)
	s.writeUint8(c.MultipleComponentTransform)
	s.writeSPcod(c.NumDecomp, c.BlockWidthExp, c.BlockHeightExp, c.BlockStyle,
		c.WaveletID, c.UsesPrecincts(), c.PrecinctSizes)
}

func (s *Serializer) writeCOC(c *COC, numComps uint16) {
	s.writeMarker(MarkerCOC)
	compBytes := 1
	if numComps >= 257 {
		compBytes = 2
	}
	length := 2 + compBytes + 1 + 5
	if c.UsesPrecincts() {
		length += len(c.PrecinctSizes)
	}
	s.writeUint16(uint16(length))
	s.writeComponentIndex(c.Component, numComps)
	s.writeUint8(c.Scoc)
	s.writeSPcod(c.NumDecomp, c.BlockWidthExp, c.BlockHeightExp, c.BlockStyle,
		c.WaveletID, c.UsesPrecincts(), c.PrecinctSizes)
}

func (s *Serializer) writeSPcod(numDecomp, bw, bh, style, wavelet uint8, precincts bool, ps []PrecinctSize) {
	s.writeUint8(numDecomp)
	s.writeUint8(bw)
	s.writeUint8(bh)
	s.writeUint8(style)
	s.writeUint8(wavelet)
	if precincts {
		for _, p := range ps {
			s.writeUint8(p.PPx&0x0F | p.PPy<<4)
		}
	}
}

func (s *Serializer) writeQuant(q *QCD) {
	s.writeUint8(q.Sqcd())
	if q.Style == QuantNone {
		for _, e := range q.Exponents {
			s.writeUint8(e << 3)
		}
		return
	}
	for _, st := range q.Steps {
		s.writeUint16(uint16(st.Exponent)<<11 | st.Mantissa&0x7FF)
	}
}

func (s *Serializer) quantLen(q *QCD) int {
	if q.Style == QuantNone {
		return 1 + len(q.Exponents)
	}
	return 1 + 2*len(q.Steps)
}

func (s *Serializer) writeQCD(q *QCD) {
	s.writeMarker(MarkerQCD)
	s.writeUint16(uint16(2 + s.quantLen(q)))
	s.writeQuant(q)
}

func (s *Serializer) writeQCC(q *QCC, numComps uint16) {
	s.writeMarker(MarkerQCC)
	compBytes := 1
	if numComps >= 257 {
		compBytes = 2
	}
	s.writeUint16(uint16(2 + compBytes + s.quantLen(&q.QCD)))
	s.writeComponentIndex(q.Component, numComps)
	s.writeQuant(&q.QCD)
}

func (s *Serializer) writeDFS(d *DFS) {
	s.writeMarker(MarkerDFS)
	nbytes := (len(d.Types) + 3) / 4
	s.writeUint16(uint16(5 + nbytes))
	s.writeUint16(d.Index)
	s.writeUint8(uint8(len(d.Types)))
	var cur uint8
	for i, t := range d.Types {
		cur |= (t & 0x3) << (6 - 2*(i%4))
		if i%4 == 3 {
			s.writeUint8(cur)
			cur = 0
		}
	}
	if len(d.Types)%4 != 0 {
		s.writeUint8(cur)
	}
}

func (s *Serializer) writeATK(a *ATK) {
	s.writeMarker(MarkerATK)
	length := 2 + 2 + 1
	if !a.IsReversible() {
		length += 4 + 4*len(a.Steps)
	} else {
		length += 5 * len(a.Steps)
	}
	s.writeUint16(uint16(length))
	s.writeUint16(a.Satk)
	if !a.IsReversible() {
		s.writeFloat32(a.Katk)
	}
	s.writeUint8(uint8(len(a.Steps)))
	for _, st := range a.Steps {
		if a.IsReversible() {
			s.writeUint8(st.Eatk)
			s.writeUint16(uint16(st.Batk))
			s.writeUint16(uint16(st.Aatk))
		} else {
			s.writeFloat32(st.AatkF)
		}
	}
}

func (s *Serializer) writeTLM(t *TLM) {
	s.writeMarker(MarkerTLM)
	entry := 0
	switch t.ST() {
	case 1:
		entry++
	case 2:
		entry += 2
	}
	if t.SP() {
		entry += 4
	} else {
		entry += 2
	}
	s.writeUint16(uint16(4 + entry*len(t.Pairs)))
	s.writeUint8(t.Ztlm)
	s.writeUint8(t.Stlm)
	for _, pair := range t.Pairs {
		switch t.ST() {
		case 1:
			s.writeUint8(uint8(pair.Ttlm))
		case 2:
			s.writeUint16(pair.Ttlm)
		}
		if t.SP() {
			s.writeUint32(pair.Ptlm)
		} else {
			s.writeUint16(uint16(pair.Ptlm))
		}
	}
}

func (s *Serializer) writeCOM(c *COM) {
	s.writeMarker(MarkerCOM)
	s.writeUint16(uint16(4 + len(c.Data)))
	s.writeUint16(c.Rcom)
	s.buf = append(s.buf, c.Data...)
}

func (s *Serializer) writeTilePart(part *TilePart) {
	s.writeMarker(MarkerSOT)
	s.writeUint16(10)
	s.writeUint16(part.SOT.Isot)
	s.writeUint32(uint32(14 + len(part.Data)))
	s.writeUint8(part.SOT.TPsot)
	s.writeUint8(part.SOT.TNsot)
	s.writeMarker(MarkerSOD)
	s.buf = append(s.buf, part.Data...)
}

func (s *Serializer) writeComponentIndex(c, numComps uint16) {
	if numComps < 257 {
		s.writeUint8(uint8(c))
		return
	}
	s.writeUint16(c)
}

func (s *Serializer) writeMarker(m uint16) { s.writeUint16(m) }

func (s *Serializer) writeUint8(v uint8) { s.buf = append(s.buf, v) }

func (s *Serializer) writeUint16(v uint16) {
	s.buf = binary.BigEndian.AppendUint16(s.buf, v)
}

func (s *Serializer) writeUint32(v uint32) {
	s.buf = binary.BigEndian.AppendUint32(s.buf, v)
}

func (s *Serializer) writeFloat32(v float32) {
	s.writeUint32(math.Float32bits(v))
}
