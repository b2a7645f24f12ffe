package jph

import (
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/aous72/OpenJPH-sub001/block"
	"github.com/aous72/OpenJPH-sub001/codestream"
	"github.com/aous72/OpenJPH-sub001/colorspace"
	"github.com/aous72/OpenJPH-sub001/linebuf"
	"github.com/aous72/OpenJPH-sub001/params"
	"github.com/aous72/OpenJPH-sub001/tile"
	"github.com/aous72/OpenJPH-sub001/wavelet"
)

// Decoder expands HTJ2K codestreams back to planar images.
type Decoder struct {
	// Resilient keeps decoding through truncated tile-parts and corrupt
	// blocks, substituting zero coefficients for what is missing.
	Resilient bool

	// SkipResolutions drops that many of the finest resolutions; the
	// output components shrink accordingly.
	SkipResolutions int

	// BlockCodec decodes code-blocks; nil selects the development store
	// codec.
	BlockCodec block.Decoder

	// Log receives resilient-recovery events; nil uses slog.Default.
	Log *slog.Logger

	store *params.Store
}

// NewDecoder creates a decoder with default options.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Store returns the parameter store of the last decoded codestream.
func (d *Decoder) Store() *params.Store { return d.store }

func (d *Decoder) logger() *slog.Logger {
	if d.Log != nil {
		return d.Log
	}
	return slog.Default()
}

func (d *Decoder) codec() block.Decoder {
	if d.BlockCodec != nil {
		return d.BlockCodec
	}
	return block.StoreCodec{}
}

// Decode parses and decodes a complete codestream, unwrapping a JPH box
// file when one is handed in.
func (d *Decoder) Decode(data []byte) (*Image, error) {
	data, err := codestream.FindCodestream(data)
	if err != nil {
		return nil, err
	}
	parser := codestream.NewParser(data)
	parser.Resilient = d.Resilient
	parser.Log = d.Log
	cs, err := parser.Parse()
	if err != nil {
		return nil, err
	}

	store := params.NewStore(cs)
	if err := store.CheckValidity(); err != nil {
		return nil, err
	}
	d.store = store

	skip := d.SkipResolutions
	img := &Image{}
	for c := uint16(0); c < store.NumComponents(); c++ {
		sz := store.ReconstructionSize(c, skip)
		img.Comps = append(img.Comps, ImageComponent{
			Width:    int(sz.W),
			Height:   int(sz.H),
			BitDepth: store.BitDepth(c),
			Signed:   store.IsSigned(c),
			Samples:  make([]int32, sz.Area()),
		})
	}

	builder := tile.NewBuilder(store)
	for _, t := range cs.Tiles {
		if uint32(t.Index) >= store.NumTiles() {
			return nil, fmt.Errorf("%w: tile index %d", params.ErrInvalidParameter, t.Index)
		}
		var body []byte
		truncated := false
		for _, part := range t.Parts {
			body = append(body, part.Data...)
			truncated = truncated || part.Truncated
		}
		if err := d.decodeTile(builder, uint32(t.Index), body, truncated, img); err != nil {
			return nil, err
		}
	}
	return img, nil
}

// decodeTile expands one tile body into the image.
func (d *Decoder) decodeTile(builder *tile.Builder, t uint32, body []byte, truncated bool, img *Image) error {
	store := builder.Store()
	geom, err := builder.Build(t)
	if err != nil {
		return err
	}
	pool := linebuf.NewPool()
	skip := d.SkipResolutions

	// Allocate the subband planes of every component, then fill them from
	// the block stream in progression order.
	decomps := make([]*wavelet.Decomposition, len(geom.Comps))
	planes := make(map[planeKey]*linebuf.Plane)
	for c, comp := range geom.Comps {
		decomps[c] = d.allocDecomposition(store, comp, pool, planes)
	}

	codec := d.codec()
	offset := 0
	exhausted := false
	for _, ref := range blockSequence(geom, store.ProgressionOrder()) {
		comp := geom.Comps[ref.comp]
		res := comp.Resolutions[ref.res]
		sb := res.Subbands[ref.sb]
		blk := sb.Blocks[ref.blk]
		w := int(blk.Rect.Size().W)
		h := int(blk.Rect.Size().H)

		var coeffs []int32
		data, n, readErr := readBlockRecord(body[offset:])
		switch {
		case readErr != nil:
			if !d.Resilient && !truncated {
				return fmt.Errorf("%w: tile %d block stream ends early", ErrCorrupt, t)
			}
			if !exhausted {
				d.logger().Warn("zero-filling missing code-blocks", "tile", t)
				exhausted = true
			}
			coeffs = block.Zero(w, h)
		default:
			offset += n
			coeffs, err = codec.Decode(bandTag(sb.Band), data, w, h, int(sb.Q.Kmax))
			if err != nil {
				if !d.Resilient {
					return fmt.Errorf("%w: tile %d: %v", ErrCorrupt, t, err)
				}
				d.logger().Warn("corrupt code-block replaced with zeros",
					"tile", t, "component", ref.comp, "resolution", ref.res)
				coeffs = block.Zero(w, h)
			}
		}
		scatterBlock(planes[planeKey{ref.comp, ref.res, sb.Band}], sb, blk.Rect, sb.Q, coeffs)
	}

	// Synthesize each component, run the inverse color transform, and
	// write the samples out.
	synth := make([]*linebuf.Plane, len(geom.Comps))
	for c := range geom.Comps {
		k := store.Kernel(uint16(c))
		synth[c] = wavelet.Synthesize(k, decomps[c], skip, pool)
	}
	if store.UsesColorTransform() && len(synth) >= 3 {
		applyBackwardColor(store.IsReversible(0), synth)
	}
	for c, comp := range geom.Comps {
		d.writePlane(store, uint16(c), comp, synth[c], img)
	}
	return nil
}

// applyBackwardColor runs the inverse RCT or ICT over the first three
// planes.
func applyBackwardColor(reversible bool, planes []*linebuf.Plane) {
	y, cb, cr := planes[0], planes[1], planes[2]
	w := y.Width()
	for r := 0; r < y.Height(); r++ {
		if reversible {
			colorspace.RCTBackward(y.Line(r), cb.Line(r), cr.Line(r),
				y.Line(r), cb.Line(r), cr.Line(r), w)
		} else {
			colorspace.ICTBackward(y.Line(r).F32(), cb.Line(r).F32(), cr.Line(r).F32(),
				y.Line(r).F32(), cb.Line(r).F32(), cr.Line(r).F32(), w)
		}
	}
}

type planeKey struct {
	comp uint16
	res  uint8
	band int
}

// allocDecomposition builds the Decomposition shape the synthesis needs,
// with freshly allocated planes matching the tile geometry.
func (d *Decoder) allocDecomposition(store *params.Store, comp *tile.Component, pool *linebuf.Pool, planes map[planeKey]*linebuf.Plane) *wavelet.Decomposition {
	c := comp.Index
	k := store.Kernel(c)
	tag := coefTag(store, c)
	flags := linebuf.Flags(0)
	if k.Reversible {
		flags = linebuf.Reversible | linebuf.Integer
	}

	numRes := len(comp.Resolutions)
	dec := &wavelet.Decomposition{}

	// A band that is empty in one direction still carries its extent in
	// the other (Rect.Size would report 0x0), matching the analysis planes.
	alloc := func(r params.Rect) *linebuf.Plane {
		w, h := 0, 0
		if r.X1 > r.X0 {
			w = int(r.X1 - r.X0)
		}
		if r.Y1 > r.Y0 {
			h = int(r.Y1 - r.Y0)
		}
		return linebuf.NewPlane(pool, tag, w, h, flags)
	}

	// Levels are finest-first; resolution r corresponds to level numRes-r.
	for l := 1; l < numRes; l++ {
		res := comp.Resolutions[numRes-l]
		lb := wavelet.LevelBands{
			Split: res.Split,
			W:     int(res.Rect.Size().W),
			H:     int(res.Rect.Size().H),
			X0:    int(res.Rect.X0),
			Y0:    int(res.Rect.Y0),
		}
		for _, sb := range res.Subbands {
			p := alloc(sb.Rect)
			planes[planeKey{c, res.Level, sb.Band}] = p
			switch sb.Band {
			case params.BandHL:
				lb.HL = p
			case params.BandLH:
				lb.LH = p
			case params.BandHH:
				lb.HH = p
			}
		}
		dec.Levels = append(dec.Levels, lb)
	}

	ll := comp.Resolutions[0].Subbands[0]
	dec.LL = alloc(ll.Rect)
	planes[planeKey{c, 0, params.BandLL}] = dec.LL
	return dec
}

// coefTag selects the element width of the coefficient planes.
func coefTag(store *params.Store, c uint16) linebuf.Tag {
	k := store.Kernel(c)
	if !k.Reversible {
		return linebuf.Float32
	}
	n := int(store.ResolutionCount(c)) - 1
	if linebuf.NeedsWide(store.BitDepth(c), n, store.UsesColorTransform()) {
		return linebuf.Int64
	}
	return linebuf.Int32
}

// readBlockRecord splits one length-prefixed block record off the tile
// body.
func readBlockRecord(body []byte) (data []byte, n int, err error) {
	if len(body) < 5 {
		return nil, 0, fmt.Errorf("short block record")
	}
	length := int(binary.BigEndian.Uint32(body))
	// body[4] is the pass count; the store codec always codes one pass.
	if len(body) < 5+length {
		return nil, 0, fmt.Errorf("short block record")
	}
	return body[5 : 5+length], 5 + length, nil
}

// scatterBlock writes decoded coefficients into a subband plane,
// dequantizing the irreversible path.
func scatterBlock(plane *linebuf.Plane, sb *tile.Subband, r params.Rect, q params.Q, coeffs []int32) {
	if plane == nil {
		return
	}
	w := int(r.Size().W)
	h := int(r.Size().H)
	bx := int(r.X0 - sb.Rect.X0)
	by := int(r.Y0 - sb.Rect.Y0)
	for y := 0; y < h; y++ {
		line := plane.Line(by + y)
		src := coeffs[y*w : (y+1)*w]
		switch plane.Tag() {
		case linebuf.Int32:
			copy(line.I32()[bx:bx+w], src)
		case linebuf.Int64:
			dst := line.I64()[bx : bx+w]
			for i, v := range src {
				dst[i] = int64(v)
			}
		default:
			dst := line.F32()[bx : bx+w]
			for i, v := range src {
				dst[i] = dequant(v, q.Delta)
			}
		}
	}
}

// dequant reconstructs a quantized coefficient at the midpoint of its
// quantization interval.
func dequant(v int32, delta float32) float32 {
	switch {
	case v > 0:
		return (float32(v) + 0.5) * delta
	case v < 0:
		return (float32(v) - 0.5) * delta
	default:
		return 0
	}
}

// writePlane converts a synthesized plane back to integer samples in the
// output image.
func (d *Decoder) writePlane(store *params.Store, c uint16, geomComp *tile.Component, plane *linebuf.Plane, img *Image) {
	skip := d.SkipResolutions
	bitDepth := store.BitDepth(c)
	signed := store.IsSigned(c)
	out := &img.Comps[c]

	// Tile placement at the reduced resolution.
	tcRect := store.ReduceRect(c, geomComp.Rect, skip)
	compRect := store.ReduceRect(c, store.ComponentRect(c), skip)
	offX := int(tcRect.X0 - compRect.X0)
	offY := int(tcRect.Y0 - compRect.Y0)

	w := plane.Width()
	row := make([]int32, w)
	var half int32
	if !signed {
		half = 1 << (bitDepth - 1)
	}
	mul := float32(uint64(1) << bitDepth)
	for y := 0; y < plane.Height(); y++ {
		line := plane.Line(y)
		switch plane.Tag() {
		case linebuf.Int32:
			copy(row, line.I32())
			for i := range row[:w] {
				row[i] += half
			}
		case linebuf.Int64:
			src := line.I64()
			for i := 0; i < w; i++ {
				row[i] = sat32(src[i] + int64(half))
			}
		default:
			if signed {
				colorspace.FloatToI32(line.F32(), row, mul, w)
			} else {
				colorspace.FloatToI32Shifted(line.F32(), row, mul, w)
			}
		}
		colorspace.ClampToDepth(row, bitDepth, signed, w)
		copy(out.Samples[(offY+y)*out.Width+offX:], row[:w])
	}
}
