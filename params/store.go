package params

import (
	"errors"
	"fmt"

	"github.com/aous72/OpenJPH-sub001/codestream"
	"github.com/aous72/OpenJPH-sub001/wavelet"
)

// Validation errors.
var (
	// ErrInvalidParameter indicates inconsistent SIZ/COD/QCD data.
	ErrInvalidParameter = errors.New("params: invalid parameter")
)

// Limits of ISO/IEC 15444-1 and ITU-T T.814.
const (
	MaxComponents  = 16384
	MaxBitDepth    = 38
	MaxDownsample  = 255
	maxKmax        = 31
	defaultLogPrec = 15
)

// Store is the immutable parameter store. Parent/child relations between
// markers (COC overriding COD, wavelet ids naming ATK segments, DFS
// references) are resolved into per-component views at validation time.
type Store struct {
	cs *codestream.Codestream

	comps     []compView
	validated bool
}

// compView is the effective per-component configuration after COC/QCC
// overrides and DFS/ATK resolution.
type compView struct {
	style  codestream.COD
	quant  codestream.QCD
	dfs    *codestream.DFS
	kernel *wavelet.Kernel
	decomp int
}

// NewStore wraps parsed marker segments. CheckValidity must succeed before
// any geometry or step-size query.
func NewStore(cs *codestream.Codestream) *Store {
	return &Store{cs: cs}
}

// Codestream returns the underlying marker segments.
func (s *Store) Codestream() *codestream.Codestream { return s.cs }

// CheckValidity cross-checks the marker segments and resolves the
// per-component views. It runs once; the store must not be mutated after
// it returns.
func (s *Store) CheckValidity() error {
	if s.validated {
		return nil
	}
	siz := s.cs.SIZ
	if siz == nil || s.cs.COD == nil || s.cs.QCD == nil {
		return fmt.Errorf("%w: missing SIZ, COD or QCD", ErrInvalidParameter)
	}
	if siz.Xsiz <= siz.XOsiz || siz.Ysiz <= siz.YOsiz {
		return fmt.Errorf("%w: image extent is empty", ErrInvalidParameter)
	}
	if siz.XTsiz == 0 || siz.YTsiz == 0 {
		return fmt.Errorf("%w: zero tile size", ErrInvalidParameter)
	}
	if siz.XTOsiz > siz.XOsiz || siz.YTOsiz > siz.YOsiz {
		return fmt.Errorf("%w: tile origin exceeds image origin", ErrInvalidParameter)
	}
	if siz.XTOsiz+siz.XTsiz <= siz.XOsiz || siz.YTOsiz+siz.YTsiz <= siz.YOsiz {
		return fmt.Errorf("%w: first tile does not intersect the image", ErrInvalidParameter)
	}
	if int(siz.Csiz) < 1 || int(siz.Csiz) > MaxComponents {
		return fmt.Errorf("%w: %d components", ErrInvalidParameter, siz.Csiz)
	}
	if len(siz.Components) != int(siz.Csiz) {
		return fmt.Errorf("%w: component list length", ErrInvalidParameter)
	}
	for i, c := range siz.Components {
		if d := c.BitDepth(); d < 1 || d > MaxBitDepth {
			return fmt.Errorf("%w: component %d bit depth %d", ErrInvalidParameter, i, d)
		}
	}

	cod := s.cs.COD
	if cod.MultipleComponentTransform == 1 {
		if siz.Csiz < 3 {
			return fmt.Errorf("%w: color transform needs 3 or more components", ErrInvalidParameter)
		}
		p0 := siz.Components[0]
		for i := 1; i < 3; i++ {
			p := siz.Components[i]
			if p.XRsiz != p0.XRsiz || p.YRsiz != p0.YRsiz {
				return fmt.Errorf("%w: color transform requires matching downsampling on the first 3 components", ErrInvalidParameter)
			}
		}
	}
	if cod.ProgressionOrder == codestream.ProgRPCL || cod.ProgressionOrder == codestream.ProgPCRL {
		for i, c := range siz.Components {
			if !isPow2(uint32(c.XRsiz)) || !isPow2(uint32(c.YRsiz)) {
				return fmt.Errorf("%w: RPCL/PCRL requires power-of-two downsampling (component %d)", ErrInvalidParameter, i)
			}
		}
	}

	s.comps = make([]compView, siz.Csiz)
	for i := range s.comps {
		if err := s.resolveComponent(uint16(i)); err != nil {
			return err
		}
	}
	s.validated = true
	return nil
}

// resolveComponent folds COC/QCC overrides into the component view and
// binds the DFS and ATK references.
func (s *Store) resolveComponent(c uint16) error {
	v := &s.comps[c]
	v.style = *s.cs.COD
	if coc, ok := s.cs.COCs[c]; ok {
		v.style.Scod = coc.Scoc
		v.style.NumDecomp = coc.NumDecomp
		v.style.BlockWidthExp = coc.BlockWidthExp
		v.style.BlockHeightExp = coc.BlockHeightExp
		v.style.BlockStyle = coc.BlockStyle
		v.style.WaveletID = coc.WaveletID
		v.style.PrecinctSizes = append([]codestream.PrecinctSize(nil), coc.PrecinctSizes...)
	}
	v.quant = *s.cs.QCD
	if qcc, ok := s.cs.QCCs[c]; ok {
		v.quant = qcc.QCD
	}

	if v.style.IsDFSDefined() {
		idx := v.style.DFSIndex()
		for _, d := range s.cs.DFSs {
			if d.Index == idx {
				v.dfs = d
				break
			}
		}
		if v.dfs == nil {
			return fmt.Errorf("%w: component %d references missing DFS %d",
				ErrInvalidParameter, c, idx)
		}
		v.decomp = len(v.dfs.Types)
		if v.decomp == 0 {
			v.decomp = int(s.cs.COD.Decompositions())
		}
	} else {
		v.decomp = int(v.style.Decompositions())
	}

	switch v.style.WaveletID {
	case codestream.WaveletIrv97:
		v.kernel = wavelet.Irv97
	case codestream.WaveletRev53:
		v.kernel = wavelet.Rev53
	default:
		var atk *codestream.ATK
		for _, a := range s.cs.ATKs {
			if a.Index() == v.style.WaveletID {
				atk = a
				break
			}
		}
		if atk == nil {
			return fmt.Errorf("%w: component %d wavelet id %d names a missing ATK segment",
				ErrInvalidParameter, c, v.style.WaveletID)
		}
		k, err := kernelFromATK(atk)
		if err != nil {
			return err
		}
		v.kernel = k
	}

	if v.quant.Style == codestream.QuantNone && !v.kernel.Reversible {
		return fmt.Errorf("%w: component %d pairs no-quantization with an irreversible kernel",
			ErrInvalidParameter, c)
	}
	return nil
}

// kernelFromATK converts a parsed ATK segment to a wavelet kernel.
func kernelFromATK(a *codestream.ATK) (*wavelet.Kernel, error) {
	steps := make([]wavelet.LiftStep, len(a.Steps))
	for i, st := range a.Steps {
		steps[i] = wavelet.LiftStep{A: st.Aatk, B: st.Batk, E: st.Eatk, Af: st.AatkF}
	}
	return wavelet.NewKernel(a.Index(), a.IsReversible(), steps, a.Katk)
}

func isPow2(v uint32) bool { return v != 0 && v&(v-1) == 0 }

func (s *Store) mustValid() {
	if !s.validated {
		panic("params: store used before CheckValidity")
	}
}

// NumComponents returns the component count.
func (s *Store) NumComponents() uint16 { return s.cs.SIZ.Csiz }

// IsHT reports whether the codestream declares HT block coding.
func (s *Store) IsHT() bool { return s.cs.SIZ.IsHT() }

// Downsampling returns the component sub-sampling factors.
func (s *Store) Downsampling(c uint16) (sx, sy uint32) {
	cc := s.cs.SIZ.Components[c]
	return uint32(cc.XRsiz), uint32(cc.YRsiz)
}

// BitDepth returns the component precision.
func (s *Store) BitDepth(c uint16) int { return s.cs.SIZ.Components[c].BitDepth() }

// IsSigned reports component signedness.
func (s *Store) IsSigned(c uint16) bool { return s.cs.SIZ.Components[c].IsSigned() }

// ImageRect returns the canonical image rectangle.
func (s *Store) ImageRect() Rect {
	siz := s.cs.SIZ
	return Rect{X0: siz.XOsiz, Y0: siz.YOsiz, X1: siz.Xsiz, Y1: siz.Ysiz}
}

// ComponentRect returns the component sample rectangle in component
// coordinates.
func (s *Store) ComponentRect(c uint16) Rect {
	sx, sy := s.Downsampling(c)
	r := s.ImageRect()
	return Rect{
		X0: CeilDiv(r.X0, sx), Y0: CeilDiv(r.Y0, sy),
		X1: CeilDiv(r.X1, sx), Y1: CeilDiv(r.Y1, sy),
	}
}

// ComponentSize returns the component dimensions.
func (s *Store) ComponentSize(c uint16) Size {
	return s.ComponentRect(c).Size()
}

// ReconstructionSize returns the component dimensions after skipping the
// given number of fine resolutions, honoring the component's DFS branch:
// a skipped level halves only the directions it splits.
func (s *Store) ReconstructionSize(c uint16, skippedResolutions int) Size {
	return s.ReduceRect(c, s.ComponentRect(c), skippedResolutions).Size()
}

// ReduceRect maps a rectangle in component coordinates down the
// component's decomposition tree by the given number of levels.
func (s *Store) ReduceRect(c uint16, r Rect, skip int) Rect {
	s.mustValid()
	splits := s.Splits(c)
	for i := 0; i < skip && i < len(splits); i++ {
		switch splits[i] {
		case wavelet.SplitBidir:
			r = lowRectX(lowRectY(r))
		case wavelet.SplitHorz:
			r = lowRectX(r)
		case wavelet.SplitVert:
			r = lowRectY(r)
		}
	}
	return r
}

func lowRectX(r Rect) Rect {
	return Rect{X0: (r.X0 + 1) >> 1, Y0: r.Y0, X1: (r.X1 + 1) >> 1, Y1: r.Y1}
}

func lowRectY(r Rect) Rect {
	return Rect{X0: r.X0, Y0: (r.Y0 + 1) >> 1, X1: r.X1, Y1: (r.Y1 + 1) >> 1}
}

// ResolutionCount returns the number of resolutions (decompositions + 1).
func (s *Store) ResolutionCount(c uint16) uint8 {
	s.mustValid()
	return uint8(s.comps[c].decomp) + 1
}

// Splits returns the per-level split types of the component, finest level
// first. Without a DFS reference every level is bidirectional.
func (s *Store) Splits(c uint16) []wavelet.SplitType {
	s.mustValid()
	v := &s.comps[c]
	out := make([]wavelet.SplitType, v.decomp)
	for i := range out {
		if v.dfs != nil {
			out[i] = wavelet.SplitType(v.dfs.SplitType(i + 1))
		} else {
			out[i] = wavelet.SplitBidir
		}
	}
	return out
}

// Kernel returns the component's wavelet kernel.
func (s *Store) Kernel(c uint16) *wavelet.Kernel {
	s.mustValid()
	return s.comps[c].kernel
}

// IsReversible reports whether the component uses a reversible kernel.
func (s *Store) IsReversible(c uint16) bool {
	return s.Kernel(c).Reversible
}

// UsesColorTransform reports whether the multiple-component transform is
// enabled.
func (s *Store) UsesColorTransform() bool {
	return s.cs.COD.MultipleComponentTransform == 1
}

// ProgressionOrder returns the codestream progression order.
func (s *Store) ProgressionOrder() uint8 { return s.cs.COD.ProgressionOrder }

// CodeBlockSize returns the nominal code-block size of the component.
func (s *Store) CodeBlockSize(c uint16) Size {
	s.mustValid()
	w, h := s.comps[c].style.BlockSize()
	return Size{W: uint32(w), H: uint32(h)}
}

// BlockStyle returns the block coding style byte of the component.
func (s *Store) BlockStyle(c uint16) uint8 {
	s.mustValid()
	return s.comps[c].style.BlockStyle
}

// PrecinctSize returns the precinct dimensions at resolution r; the
// default is 2^15 x 2^15 when the coding style declares none.
func (s *Store) PrecinctSize(c uint16, r uint8) Size {
	px, py := s.LogPrecinctSize(c, r)
	return Size{W: 1 << px, H: 1 << py}
}

// LogPrecinctSize returns the log2 precinct dimensions at resolution r.
func (s *Store) LogPrecinctSize(c uint16, r uint8) (ppx, ppy uint8) {
	s.mustValid()
	v := &s.comps[c]
	if !v.style.UsesPrecincts() || int(r) >= len(v.style.PrecinctSizes) {
		return defaultLogPrec, defaultLogPrec
	}
	p := v.style.PrecinctSizes[r]
	return p.PPx, p.PPy
}

// TileGrid returns the tile counts across and down the image.
func (s *Store) TileGrid() (tx, ty uint32) {
	siz := s.cs.SIZ
	tx = CeilDiv(siz.Xsiz-siz.XTOsiz, siz.XTsiz)
	ty = CeilDiv(siz.Ysiz-siz.YTOsiz, siz.YTsiz)
	return
}

// TileRect returns tile t's rectangle on the reference grid, clipped to
// the image. Tiles are indexed row-major.
func (s *Store) TileRect(t uint32) Rect {
	siz := s.cs.SIZ
	tx, _ := s.TileGrid()
	i := t % tx
	j := t / tx
	r := Rect{
		X0: siz.XTOsiz + i*siz.XTsiz,
		Y0: siz.YTOsiz + j*siz.YTsiz,
		X1: siz.XTOsiz + (i+1)*siz.XTsiz,
		Y1: siz.YTOsiz + (j+1)*siz.YTsiz,
	}
	return r.Intersect(s.ImageRect())
}

// NumTiles returns the total tile count.
func (s *Store) NumTiles() uint32 {
	tx, ty := s.TileGrid()
	return tx * ty
}
