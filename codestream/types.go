package codestream

import "math/bits"

// Codestream holds the parsed marker segments of one codestream: the main
// header plus the tile-parts in appearance order.
type Codestream struct {
	SIZ *SIZ
	CAP *CAP
	COD *COD
	QCD *QCD

	COCs map[uint16]*COC
	QCCs map[uint16]*QCC

	DFSs []*DFS
	ATKs []*ATK
	TLMs []*TLM
	COMs []*COM

	Tiles []*Tile
}

// Tile groups the tile-parts of one tile index.
type Tile struct {
	Index int
	Parts []*TilePart
}

// TilePart is one SOT..SOD..data fragment.
type TilePart struct {
	SOT  SOT
	Data []byte
	// Truncated is set by resilient parsing when the payload ran short of
	// the announced Psot.
	Truncated bool
}

// SIZ - Image and tile size marker segment
// ISO/IEC 15444-1 A.5.1
type SIZ struct {
	Rsiz   uint16 // Capabilities; bit 14 set for an HTJ2K (JPH) codestream
	Xsiz   uint32 // Width of reference grid
	Ysiz   uint32 // Height of reference grid
	XOsiz  uint32 // Horizontal offset
	YOsiz  uint32 // Vertical offset
	XTsiz  uint32 // Width of one reference tile
	YTsiz  uint32 // Height of one reference tile
	XTOsiz uint32 // Horizontal offset of first tile
	YTOsiz uint32 // Vertical offset of first tile
	Csiz   uint16 // Number of components

	Components []ComponentSize
}

// RsizHT is the Rsiz bit announcing an HTJ2K codestream.
const RsizHT = uint16(1) << 14

// IsHT reports whether the codestream declares the HTJ2K capability.
func (s *SIZ) IsHT() bool { return s.Rsiz&RsizHT != 0 }

// ComponentSize holds per-component sizing information
type ComponentSize struct {
	Ssiz  uint8 // Precision and sign (bit 7 = sign, bits 0-6 = depth-1)
	XRsiz uint8 // Horizontal separation
	YRsiz uint8 // Vertical separation
}

// BitDepth returns the bit depth of the component
func (c *ComponentSize) BitDepth() int {
	return int(c.Ssiz&0x7F) + 1
}

// IsSigned returns true if the component is signed
func (c *ComponentSize) IsSigned() bool {
	return (c.Ssiz & 0x80) != 0
}

// MakeSsiz packs a bit depth and signedness into the Ssiz byte.
func MakeSsiz(bitDepth int, signed bool) uint8 {
	v := uint8(bitDepth-1) & 0x7F
	if signed {
		v |= 0x80
	}
	return v
}

// CAP - Extended capabilities marker segment, ITU-T T.814 A.3.
// One Ccap entry exists per set bit of Pcap.
type CAP struct {
	Pcap uint32
	Ccap []uint16
}

// PcapHT is the Pcap bit (part 15) that announces HT block coding.
const PcapHT = uint32(1) << 17

// NewHTCAP builds the CAP segment of an HTJ2K codestream: Ccap[0]'s bit 5
// flags the irreversible transform, the low five bits carry the MAGB code
// derived from the maximum magnitude bit-plane count.
func NewHTCAP(reversible bool, magbP uint32) *CAP {
	var ccap uint16
	if !reversible {
		ccap |= 0x0020
	}
	var bp uint32
	switch {
	case magbP <= 8:
		bp = 0
	case magbP < 28:
		bp = magbP - 8
	case magbP < 48:
		bp = 13 + (magbP >> 2)
	default:
		bp = 31
	}
	ccap |= uint16(bp)
	return &CAP{Pcap: PcapHT, Ccap: []uint16{ccap}}
}

// NumCcap returns the entry count implied by Pcap.
func (c *CAP) NumCcap() int { return bits.OnesCount32(c.Pcap) }

// Progression orders, ISO/IEC 15444-1 Table A.16.
const (
	ProgLRCP uint8 = 0
	ProgRLCP uint8 = 1
	ProgRPCL uint8 = 2
	ProgPCRL uint8 = 3
	ProgCPRL uint8 = 4
)

// Block coding style bits of the COD/COC SPcod block-style field.
const (
	// BlockStyleVerticalCausal enables vertically causal context formation.
	BlockStyleVerticalCausal uint8 = 0x08
	// BlockStyleHT selects the high-throughput block coder of ITU-T T.814.
	BlockStyleHT uint8 = 0x40
)

// Wavelet transformation ids of the SPcod wavelet field. Values >= 2 name
// an ATK segment index.
const (
	WaveletIrv97 uint8 = 0
	WaveletRev53 uint8 = 1
)

// PrecinctSize holds the log2 precinct dimensions of one resolution.
type PrecinctSize struct {
	PPx uint8
	PPy uint8
}

// COD - Coding style default marker segment
// ISO/IEC 15444-1 A.6.1
type COD struct {
	Scod uint8
	// Scod bit 0: precinct sizes present; bit 1: SOP markers; bit 2: EPH.

	// SGcod
	ProgressionOrder           uint8
	NumberOfLayers             uint16
	MultipleComponentTransform uint8

	// SPcod
	NumDecomp      uint8 // bit 7 flags a DFS reference; low nibble then holds its index
	BlockWidthExp  uint8 // log2(width) - 2
	BlockHeightExp uint8 // log2(height) - 2
	BlockStyle     uint8
	WaveletID      uint8

	PrecinctSizes []PrecinctSize
}

// UsesPrecincts reports whether explicit precinct sizes follow SPcod.
func (c *COD) UsesPrecincts() bool { return c.Scod&0x01 != 0 }

// IsDFSDefined reports whether the decomposition count refers to a DFS
// segment instead.
func (c *COD) IsDFSDefined() bool { return c.NumDecomp&0x80 != 0 }

// DFSIndex returns the referenced DFS segment index.
func (c *COD) DFSIndex() uint16 { return uint16(c.NumDecomp & 0x0F) }

// Decompositions returns the plain decomposition count. Only meaningful
// when no DFS reference is flagged.
func (c *COD) Decompositions() uint8 { return c.NumDecomp & 0x7F }

// BlockSize returns the nominal code-block dimensions.
func (c *COD) BlockSize() (w, h int) {
	return 1 << (c.BlockWidthExp + 2), 1 << (c.BlockHeightExp + 2)
}

// UsesHT reports whether the HT block coder is selected.
func (c *COD) UsesHT() bool { return c.BlockStyle&BlockStyleHT != 0 }

// COC - Coding style component marker segment
// ISO/IEC 15444-1 A.6.2
type COC struct {
	Component uint16
	Scoc      uint8

	// SPcoc mirrors the COD SPcod fields.
	NumDecomp      uint8
	BlockWidthExp  uint8
	BlockHeightExp uint8
	BlockStyle     uint8
	WaveletID      uint8

	PrecinctSizes []PrecinctSize
}

// UsesPrecincts reports whether explicit precinct sizes follow SPcoc.
func (c *COC) UsesPrecincts() bool { return c.Scoc&0x01 != 0 }

// IsDFSDefined reports whether the decomposition count refers to a DFS
// segment.
func (c *COC) IsDFSDefined() bool { return c.NumDecomp&0x80 != 0 }

// DFSIndex returns the referenced DFS segment index.
func (c *COC) DFSIndex() uint16 { return uint16(c.NumDecomp & 0x0F) }

// Quantization styles, low five bits of Sqcd.
const (
	QuantNone            uint8 = 0 // reversible; exponents only
	QuantScalarDerived   uint8 = 1
	QuantScalarExpounded uint8 = 2
)

// StepSize is one irreversible quantization entry: a 5-bit exponent and an
// 11-bit mantissa.
type StepSize struct {
	Exponent uint8
	Mantissa uint16
}

// QCD - Quantization default marker segment
// ISO/IEC 15444-1 A.6.4
type QCD struct {
	Style     uint8
	GuardBits uint8

	// Exponents is populated for the reversible layout (one byte per
	// subband, exponent in the top five bits).
	Exponents []uint8
	// Steps is populated for the irreversible layouts.
	Steps []StepSize
}

// NumEntries returns the subband entry count.
func (q *QCD) NumEntries() int {
	if q.Style == QuantNone {
		return len(q.Exponents)
	}
	return len(q.Steps)
}

// Sqcd packs the style and guard bits into the header byte.
func (q *QCD) Sqcd() uint8 { return q.Style&0x1F | q.GuardBits<<5 }

// QCC - Quantization component marker segment
// ISO/IEC 15444-1 A.6.5
type QCC struct {
	Component uint16
	QCD
}

// DFS - Downsampling factor styles marker segment, ISO/IEC 15444-2 A.3.9.
// Types holds one split type per decomposition sub-level, finest first;
// levels beyond the list reuse the last entry.
type DFS struct {
	Index uint16
	Types []uint8 // SplitNone/SplitBidir/SplitHorz/SplitVert values
}

// DFS split types, two bits each in the Ddfs string.
const (
	DFSNone  uint8 = 0
	DFSBidir uint8 = 1
	DFSHorz  uint8 = 2
	DFSVert  uint8 = 3
)

// SplitType returns the split type of decomposition level l (1-based,
// finest first).
func (d *DFS) SplitType(l int) uint8 {
	if len(d.Types) == 0 {
		return DFSBidir
	}
	if l-1 < len(d.Types) {
		return d.Types[l-1]
	}
	return d.Types[len(d.Types)-1]
}

// ATK coefficient types of the Satk style word.
const (
	ATKCoeff8  uint8 = 0 // 8-bit signed
	ATKCoeff16 uint8 = 1 // 16-bit signed
	ATKCoeff32 uint8 = 2 // 32-bit signed
	ATKCoeffF  uint8 = 3 // 32-bit float
)

// ATKStep is one lifting step of an arbitrary kernel. Reversible kernels
// use the (Eatk, Batk, Aatk) integer triple; irreversible kernels the
// float coefficient.
type ATKStep struct {
	Eatk uint8
	Batk int16
	Aatk int16
	AatkF float32
}

// ATK - Arbitrary transformation kernel marker segment,
// ISO/IEC 15444-2 A.3.7. The supported subset is whole-sample symmetric
// kernels of one coefficient per step, up to six steps, m_init = 0.
type ATK struct {
	Satk  uint16
	Katk  float32 // irreversible scaling factor
	Steps []ATKStep
}

// Index returns the kernel index carried in the low byte of Satk; the
// COD/COC wavelet id refers to it.
func (a *ATK) Index() uint8 { return uint8(a.Satk & 0xFF) }

// CoeffType returns the coefficient representation.
func (a *ATK) CoeffType() uint8 { return uint8((a.Satk >> 8) & 0x7) }

// IsWholeSample reports the whole-sample symmetric filter flag.
func (a *ATK) IsWholeSample() bool { return a.Satk&0x0800 != 0 }

// IsReversible reports the reversible flag.
func (a *ATK) IsReversible() bool { return a.Satk&0x1000 != 0 }

// IsMInit0 reports whether the first reconstruction step addresses the
// even-indexed subsequence.
func (a *ATK) IsMInit0() bool { return a.Satk&0x2000 == 0 }

// UsesWSExtension reports the whole-sample symmetric extension flag.
func (a *ATK) UsesWSExtension() bool { return a.Satk&0x4000 != 0 }

// MakeSatk packs the style word of a supported kernel.
func MakeSatk(index uint8, coeffType uint8, reversible bool) uint16 {
	v := uint16(index) | uint16(coeffType&0x7)<<8 | 0x0800 | 0x4000
	if reversible {
		v |= 0x1000
	}
	return v
}

// TLM - Tile-part lengths marker segment, ISO/IEC 15444-1 A.7.1.
type TLM struct {
	Ztlm  uint8
	Stlm  uint8
	Pairs []TLMPair
}

// TLMPair is one tile-part entry: the tile index and the full tile-part
// byte length (Psot).
type TLMPair struct {
	Ttlm uint16
	Ptlm uint32
}

// ST returns the Ttlm field width code (0, 1, or 2 bytes).
func (t *TLM) ST() int { return int(t.Stlm>>4) & 0x3 }

// SP returns true when Ptlm entries are 32-bit.
func (t *TLM) SP() bool { return t.Stlm&0x40 != 0 }

// NewTLM builds a TLM segment with 16-bit tile indices and 32-bit lengths.
func NewTLM(pairs []TLMPair) *TLM {
	return &TLM{Stlm: 0x20 | 0x40, Pairs: pairs}
}

// SOT - Start of tile-part marker segment
// ISO/IEC 15444-1 A.4.2
type SOT struct {
	Isot  uint16 // Tile index
	Psot  uint32 // Tile-part length from the SOT marker through the data
	TPsot uint8  // Tile-part index
	TNsot uint8  // Number of tile-parts, 0 when not signalled
}

// PayloadLength returns the byte count that follows the SOT segment.
func (s *SOT) PayloadLength() int {
	if s.Psot < 12 {
		return 0
	}
	return int(s.Psot) - 12
}

// COM - Comment marker segment
type COM struct {
	Rcom uint16 // Registration value (0=binary, 1=Latin-1 text)
	Data []byte
}
