// Package tile computes the concrete geometry of tiles: per component,
// per resolution, per subband rectangles, plus the code-block and
// precinct partitions the block coder operates on.
// Reference: ISO/IEC 15444-1:2019 Annex B.
package tile

import (
	"fmt"

	"github.com/aous72/OpenJPH-sub001/params"
	"github.com/aous72/OpenJPH-sub001/wavelet"
)

// Builder enumerates tile geometry from a validated parameter store.
type Builder struct {
	store *params.Store
}

// NewBuilder wraps a validated store.
func NewBuilder(s *params.Store) *Builder {
	return &Builder{store: s}
}

// Store returns the underlying parameter store.
func (b *Builder) Store() *params.Store { return b.store }

// Tile is the concrete geometry of one tile.
type Tile struct {
	Index uint32
	Rect  params.Rect // reference-grid coordinates, clipped to the image
	Comps []*Component
}

// Component is one tile-component with its resolution pyramid.
type Component struct {
	Index uint16
	Rect  params.Rect // component coordinates
	// Resolutions[0] is the coarsest (the LL residual).
	Resolutions []*Resolution
}

// Resolution is one level of the pyramid. Resolution 0 carries a single
// LL subband; higher resolutions carry the detail bands their split type
// produces.
type Resolution struct {
	Level    uint8
	Split    wavelet.SplitType // split that produced this resolution's bands
	Rect     params.Rect       // resolution coordinates
	Subbands []*Subband

	// Precinct grid of this resolution.
	LogPrecW, LogPrecH uint8
	NumPrecX, NumPrecY uint32
}

// Subband is one LL/HL/LH/HH rectangle with its code-block partition.
type Subband struct {
	Band   int // params.BandLL..BandHH
	Rect   params.Rect
	Q      params.Q
	Blocks []Block
}

// Block is one code-block rectangle in subband coordinates, tagged with
// the precinct that owns it.
type Block struct {
	Rect     params.Rect
	Precinct uint32
}

// Build computes the full geometry of tile t.
func (b *Builder) Build(t uint32) (*Tile, error) {
	s := b.store
	if t >= s.NumTiles() {
		return nil, fmt.Errorf("%w: tile %d of %d", params.ErrInvalidParameter, t, s.NumTiles())
	}
	tl := &Tile{Index: t, Rect: s.TileRect(t)}
	for c := uint16(0); c < s.NumComponents(); c++ {
		comp, err := b.buildComponent(tl.Rect, c)
		if err != nil {
			return nil, err
		}
		tl.Comps = append(tl.Comps, comp)
	}
	return tl, nil
}

// buildComponent derives the resolution pyramid of one tile-component.
func (b *Builder) buildComponent(tileRect params.Rect, c uint16) (*Component, error) {
	s := b.store
	sx, sy := s.Downsampling(c)
	tc := params.Rect{
		X0: params.CeilDiv(tileRect.X0, sx), Y0: params.CeilDiv(tileRect.Y0, sy),
		X1: params.CeilDiv(tileRect.X1, sx), Y1: params.CeilDiv(tileRect.Y1, sy),
	}
	comp := &Component{Index: c, Rect: tc}

	splits := s.Splits(c)
	n := len(splits)
	comp.Resolutions = make([]*Resolution, n+1)

	// Walk the levels finest first. Level l (1-based) produces the detail
	// bands of resolution n-l+1 and shrinks the working LL rectangle.
	cur := tc
	for l := 1; l <= n; l++ {
		split := splits[l-1]
		r := uint8(n - l + 1)
		res := &Resolution{Level: r, Split: split, Rect: cur}
		var ll params.Rect
		switch split {
		case wavelet.SplitBidir:
			ll = lowX(lowY(cur))
			res.Subbands = []*Subband{
				{Band: params.BandHL, Rect: highX(lowY(cur))},
				{Band: params.BandLH, Rect: lowX(highY(cur))},
				{Band: params.BandHH, Rect: highX(highY(cur))},
			}
		case wavelet.SplitHorz:
			ll = lowX(cur)
			res.Subbands = []*Subband{
				{Band: params.BandHL, Rect: highX(cur)},
			}
		case wavelet.SplitVert:
			ll = lowY(cur)
			res.Subbands = []*Subband{
				{Band: params.BandLH, Rect: highY(cur)},
			}
		default:
			ll = cur
		}
		comp.Resolutions[r] = res
		cur = ll
	}
	comp.Resolutions[0] = &Resolution{
		Level: 0,
		Rect:  cur,
		Subbands: []*Subband{
			{Band: params.BandLL, Rect: cur},
		},
	}

	for _, res := range comp.Resolutions {
		if err := b.fillResolution(c, res); err != nil {
			return nil, err
		}
	}
	return comp, nil
}

// fillResolution attaches quantization, the precinct grid, and the
// code-block partition of every subband.
func (b *Builder) fillResolution(c uint16, res *Resolution) error {
	s := b.store
	res.LogPrecW, res.LogPrecH = s.LogPrecinctSize(c, res.Level)
	if !res.Rect.IsEmpty() {
		res.NumPrecX = gridCount(res.Rect.X0, res.Rect.X1, res.LogPrecW)
		res.NumPrecY = gridCount(res.Rect.Y0, res.Rect.Y1, res.LogPrecH)
	}

	cb := s.CodeBlockSize(c)
	for _, sb := range res.Subbands {
		q, err := s.GetStepSize(c, res.Level, sb.Band)
		if err != nil {
			return err
		}
		sb.Q = q
		sb.Blocks = blockGrid(sb.Rect, cb, res, sb.Band)
	}
	return nil
}

// gridCount returns how many grid cells of log2 size lg the half-open
// interval [a,b) crosses; the grid is anchored at zero.
func gridCount(a, b uint32, lg uint8) uint32 {
	if b <= a {
		return 0
	}
	return (ceilShift(b, lg)) - (a >> lg)
}

func ceilShift(v uint32, lg uint8) uint32 {
	return (v + (1 << lg) - 1) >> lg
}

// blockGrid partitions a subband by the code-block grid, anchored at the
// origin of the subband coordinate system. Partial blocks at the subband
// boundary keep their reduced dimensions. Each block is tagged with the
// row-major index of the precinct that owns it: the precinct partition of
// the parent resolution, halved for detail bands.
func blockGrid(sb params.Rect, nominal params.Size, res *Resolution, band int) []Block {
	if sb.IsEmpty() {
		return nil
	}
	bw, bh := nominal.W, nominal.H

	// Precinct cell size in this subband's coordinates.
	ppx, ppy := res.LogPrecW, res.LogPrecH
	if band != params.BandLL && res.Level > 0 {
		if ppx > 0 {
			ppx--
		}
		if ppy > 0 {
			ppy--
		}
	}
	// Code-blocks never exceed the precinct cell.
	if uint32(1)<<ppx < bw {
		bw = 1 << ppx
	}
	if uint32(1)<<ppy < bh {
		bh = 1 << ppy
	}

	var blocks []Block
	y := sb.Y0 - sb.Y0%bh
	for ; y < sb.Y1; y += bh {
		x := sb.X0 - sb.X0%bw
		for ; x < sb.X1; x += bw {
			r := params.Rect{X0: x, Y0: y, X1: x + bw, Y1: y + bh}.Intersect(sb)
			if r.IsEmpty() {
				continue
			}
			px := (r.X0 >> ppx) - (precBase(sb.X0, ppx))
			py := (r.Y0 >> ppy) - (precBase(sb.Y0, ppy))
			blocks = append(blocks, Block{
				Rect:     r,
				Precinct: py*max1(res.NumPrecX) + px,
			})
		}
	}
	return blocks
}

func precBase(v uint32, lg uint8) uint32 { return v >> lg }

// lowX maps the interval to its horizontal low-pass indices: the low-pass
// subsequence sits at even positions, so [a,b) becomes [ceil(a/2),
// ceil(b/2)).
func lowX(r params.Rect) params.Rect {
	return params.Rect{X0: (r.X0 + 1) >> 1, Y0: r.Y0, X1: (r.X1 + 1) >> 1, Y1: r.Y1}
}

// highX maps the interval to its horizontal high-pass indices.
func highX(r params.Rect) params.Rect {
	return params.Rect{X0: r.X0 >> 1, Y0: r.Y0, X1: r.X1 >> 1, Y1: r.Y1}
}

// lowY is the vertical analogue of lowX.
func lowY(r params.Rect) params.Rect {
	return params.Rect{X0: r.X0, Y0: (r.Y0 + 1) >> 1, X1: r.X1, Y1: (r.Y1 + 1) >> 1}
}

// highY is the vertical analogue of highX.
func highY(r params.Rect) params.Rect {
	return params.Rect{X0: r.X0, Y0: r.Y0 >> 1, X1: r.X1, Y1: r.Y1 >> 1}
}

func max1(v uint32) uint32 {
	if v == 0 {
		return 1
	}
	return v
}
