package jph

import (
	"encoding/binary"
	"fmt"

	"github.com/aous72/OpenJPH-sub001/block"
	"github.com/aous72/OpenJPH-sub001/codestream"
	"github.com/aous72/OpenJPH-sub001/colorspace"
	"github.com/aous72/OpenJPH-sub001/linebuf"
	"github.com/aous72/OpenJPH-sub001/params"
	"github.com/aous72/OpenJPH-sub001/tile"
	"github.com/aous72/OpenJPH-sub001/wavelet"
)

// Encoder compresses planar images into HTJ2K codestreams.
type Encoder struct {
	params *EncodeParams
}

// NewEncoder creates an encoder for the given parameters.
func NewEncoder(p *EncodeParams) *Encoder {
	return &Encoder{params: p}
}

// Encode runs the full pipeline over one image and returns the
// codestream bytes.
func (e *Encoder) Encode(img *Image) ([]byte, error) {
	p := e.params
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := img.Validate(); err != nil {
		return nil, err
	}
	if len(img.Comps) != p.Components {
		return nil, fmt.Errorf("jph: %d components configured, image has %d",
			p.Components, len(img.Comps))
	}

	cs, err := e.buildHeaders()
	if err != nil {
		return nil, err
	}
	store := params.NewStore(cs)
	if err := store.CheckValidity(); err != nil {
		return nil, err
	}
	cs.CAP = codestream.NewHTCAP(p.Reversible, store.MAGBp())

	builder := tile.NewBuilder(store)
	for t := uint32(0); t < store.NumTiles(); t++ {
		data, err := e.encodeTile(builder, t, img)
		if err != nil {
			return nil, err
		}
		cs.Tiles = append(cs.Tiles, &codestream.Tile{
			Index: int(t),
			Parts: []*codestream.TilePart{
				{SOT: codestream.SOT{Isot: uint16(t), TNsot: 1}, Data: data},
			},
		})
	}

	return codestream.NewSerializer().Serialize(cs)
}

// buildHeaders synthesizes the main-header segments from the parameters.
func (e *Encoder) buildHeaders() (*codestream.Codestream, error) {
	p := e.params
	siz := &codestream.SIZ{
		Rsiz:  codestream.RsizHT,
		XOsiz: uint32(p.ImageOffsetX),
		YOsiz: uint32(p.ImageOffsetY),
		Xsiz:  uint32(p.ImageOffsetX + p.Width),
		Ysiz:  uint32(p.ImageOffsetY + p.Height),
		Csiz:  uint16(p.Components),
	}
	if p.TileWidth > 0 && p.TileHeight > 0 {
		siz.XTsiz = uint32(p.TileWidth)
		siz.YTsiz = uint32(p.TileHeight)
	} else {
		siz.XTsiz = siz.Xsiz
		siz.YTsiz = siz.Ysiz
	}
	for c := 0; c < p.Components; c++ {
		cs := codestream.ComponentSize{
			Ssiz:  codestream.MakeSsiz(p.BitDepth, p.Signed),
			XRsiz: 1,
			YRsiz: 1,
		}
		if c < len(p.Downsampling) {
			cs.XRsiz = p.Downsampling[c].XRsiz
			cs.YRsiz = p.Downsampling[c].YRsiz
			if p.Downsampling[c].Ssiz != 0 {
				cs.Ssiz = p.Downsampling[c].Ssiz
			}
		}
		siz.Components = append(siz.Components, cs)
	}

	wavID := codestream.WaveletIrv97
	if p.Reversible {
		wavID = codestream.WaveletRev53
	}
	mct := uint8(0)
	if p.ColorTransform {
		mct = 1
	}
	cod := &codestream.COD{
		ProgressionOrder:           p.ProgressionOrder,
		NumberOfLayers:             1,
		MultipleComponentTransform: mct,
		NumDecomp:                  uint8(p.NumLevels),
		BlockWidthExp:              uint8(blockExp(p.CodeBlockWidth)),
		BlockHeightExp:             uint8(blockExp(p.CodeBlockHeight)),
		BlockStyle:                 codestream.BlockStyleHT,
		WaveletID:                  wavID,
	}

	var qcd *codestream.QCD
	if p.Reversible {
		qcd = params.MakeRevQuant(p.NumLevels, p.BitDepth, p.ColorTransform)
	} else {
		qcd = params.MakeIrvQuant(p.NumLevels, p.BitDepth, p.QStep)
	}

	cs := &codestream.Codestream{
		SIZ:  siz,
		COD:  cod,
		QCD:  qcd,
		COCs: map[uint16]*codestream.COC{},
		QCCs: map[uint16]*codestream.QCC{},
	}
	if p.Comment != "" {
		cs.COMs = append(cs.COMs, &codestream.COM{Rcom: 1, Data: []byte(p.Comment)})
	}
	return cs, nil
}

// encodeTile runs transform and block coding for one tile and returns its
// tile-part body.
func (e *Encoder) encodeTile(builder *tile.Builder, t uint32, img *Image) ([]byte, error) {
	p := e.params
	store := builder.Store()
	geom, err := builder.Build(t)
	if err != nil {
		return nil, err
	}
	pool := linebuf.NewPool()

	planes, err := e.tilePlanes(store, geom, img, pool)
	if err != nil {
		return nil, err
	}

	// Transform each component and index the subband planes by
	// resolution.
	decomps := make([]*wavelet.Decomposition, len(planes))
	for c, plane := range planes {
		k := store.Kernel(uint16(c))
		splits := store.Splits(uint16(c))
		if k.Reversible && plane.Tag() == linebuf.Int32 &&
			linebuf.NeedsWide(store.BitDepth(uint16(c)), len(splits), store.UsesColorTransform()) {
			return nil, ErrBufferOverflow
		}
		tc := geom.Comps[c].Rect
		decomps[c] = wavelet.Analyze(k, plane, int(tc.X0), int(tc.Y0), splits, pool)
	}

	codec := p.codec()
	var body []byte
	for _, ref := range blockSequence(geom, store.ProgressionOrder()) {
		comp := geom.Comps[ref.comp]
		res := comp.Resolutions[ref.res]
		sb := res.Subbands[ref.sb]
		blk := sb.Blocks[ref.blk]

		plane := bandPlane(decomps[ref.comp], len(comp.Resolutions)-1, ref.res, sb.Band)
		coeffs := gatherBlock(plane, sb, blk.Rect, sb.Q)
		w := int(blk.Rect.Size().W)
		h := int(blk.Rect.Size().H)
		data, passes, err := codec.Encode(bandTag(sb.Band), coeffs, w, h, int(sb.Q.Kmax))
		if err != nil {
			return nil, fmt.Errorf("jph: block encode: %w", err)
		}
		body = binary.BigEndian.AppendUint32(body, uint32(len(data)))
		body = append(body, uint8(passes))
		body = append(body, data...)
	}
	return body, nil
}

// tilePlanes extracts, level-shifts, and color-transforms the tile's
// component samples into the planes the wavelet engine consumes.
func (e *Encoder) tilePlanes(store *params.Store, geom *tile.Tile, img *Image, pool *linebuf.Pool) ([]*linebuf.Plane, error) {
	p := e.params
	n := len(geom.Comps)
	planes := make([]*linebuf.Plane, n)

	for c := 0; c < n; c++ {
		tc := geom.Comps[c].Rect
		comp := &img.Comps[c]
		cr := store.ComponentRect(uint16(c))
		w := int(tc.Size().W)
		h := int(tc.Size().H)
		if w == 0 || h == 0 {
			planes[c] = linebuf.PlaneFromLines(linebuf.Int32, 0, 0, nil)
			continue
		}

		bitDepth := store.BitDepth(uint16(c))
		signed := store.IsSigned(uint16(c))
		if p.Reversible {
			wide := linebuf.NeedsWide(bitDepth, p.NumLevels, p.ColorTransform)
			tag := linebuf.Int32
			if wide {
				tag = linebuf.Int64
			}
			flags := linebuf.Reversible | linebuf.Integer
			src := linebuf.NewPlane(pool, linebuf.Int32, w, h, flags)
			dst := linebuf.NewPlane(pool, tag, w, h, flags)
			var shift int64
			if !signed {
				shift = -(int64(1) << (bitDepth - 1))
			}
			for y := 0; y < h; y++ {
				copyImageRow(src.Line(y).I32(), comp, cr, tc, y)
				colorspace.RevConvert(src.Line(y), dst.Line(y), shift, w)
			}
			src.Release(pool)
			planes[c] = dst
		} else {
			src := linebuf.NewPlane(pool, linebuf.Int32, w, h, linebuf.Integer)
			dst := linebuf.NewPlane(pool, linebuf.Float32, w, h, 0)
			mul := float32(1.0) / float32(uint64(1)<<bitDepth)
			for y := 0; y < h; y++ {
				copyImageRow(src.Line(y).I32(), comp, cr, tc, y)
				if signed {
					colorspace.I32ToFloat(src.Line(y).I32(), dst.Line(y).F32(), mul, w)
				} else {
					colorspace.I32ToFloatShifted(src.Line(y).I32(), dst.Line(y).F32(), mul, w)
				}
			}
			src.Release(pool)
			planes[c] = dst
		}
	}

	if p.ColorTransform && n >= 3 {
		applyForwardColor(p.Reversible, planes, pool)
	}
	return planes, nil
}

// applyForwardColor runs the RCT or ICT over the first three planes.
func applyForwardColor(reversible bool, planes []*linebuf.Plane, pool *linebuf.Pool) {
	r, g, b := planes[0], planes[1], planes[2]
	w := r.Width()
	for y := 0; y < r.Height(); y++ {
		if reversible {
			colorspace.RCTForward(r.Line(y), g.Line(y), b.Line(y),
				r.Line(y), g.Line(y), b.Line(y), w)
		} else {
			colorspace.ICTForward(r.Line(y).F32(), g.Line(y).F32(), b.Line(y).F32(),
				r.Line(y).F32(), g.Line(y).F32(), b.Line(y).F32(), w)
		}
	}
}

// copyImageRow copies one tile-component row out of the planar image.
func copyImageRow(dst []int32, comp *ImageComponent, compRect, tcRect params.Rect, y int) {
	iy := int(tcRect.Y0-compRect.Y0) + y
	ix := int(tcRect.X0 - compRect.X0)
	row := comp.Samples[iy*comp.Width+ix:]
	copy(dst, row[:len(dst)])
}

// bandPlane returns the coefficient plane of (resolution, band) inside a
// decomposition of n levels.
func bandPlane(d *wavelet.Decomposition, numRes int, res uint8, band int) *linebuf.Plane {
	if res == 0 {
		return d.LL
	}
	lb := &d.Levels[numRes-int(res)]
	switch band {
	case params.BandHL:
		return lb.HL
	case params.BandLH:
		return lb.LH
	default:
		return lb.HH
	}
}

// bandTag converts the geometry band index to the block-coder tag.
func bandTag(band int) block.Band {
	switch band {
	case params.BandHL:
		return block.BandHL
	case params.BandLH:
		return block.BandLH
	case params.BandHH:
		return block.BandHH
	default:
		return block.BandLL
	}
}

// gatherBlock copies one code-block rectangle out of a subband plane,
// quantizing the irreversible path.
func gatherBlock(plane *linebuf.Plane, sb *tile.Subband, r params.Rect, q params.Q) []int32 {
	w := int(r.Size().W)
	h := int(r.Size().H)
	out := make([]int32, w*h)
	bx := int(r.X0 - sb.Rect.X0)
	by := int(r.Y0 - sb.Rect.Y0)
	for y := 0; y < h; y++ {
		line := plane.Line(by + y)
		dst := out[y*w : (y+1)*w]
		switch plane.Tag() {
		case linebuf.Int32:
			copy(dst, line.I32()[bx:bx+w])
		case linebuf.Int64:
			src := line.I64()[bx : bx+w]
			for i, v := range src {
				dst[i] = sat32(v)
			}
		default:
			src := line.F32()[bx : bx+w]
			inv := 1 / q.Delta
			for i, v := range src {
				dst[i] = int32(v * inv) // truncation toward zero
			}
		}
	}
	return out
}

func sat32(v int64) int32 {
	const hi, lo = int64(1<<31 - 1), int64(-1 << 31)
	if v > hi {
		return int32(hi)
	}
	if v < lo {
		return int32(lo)
	}
	return int32(v)
}
