package dicom

import (
	"fmt"

	jphcodec "github.com/aous72/OpenJPH-sub001/codec"
	"github.com/aous72/OpenJPH-sub001/codestream"
	"github.com/aous72/OpenJPH-sub001/jph"
)

// HTJ2K transfer syntax UIDs.
const (
	UIDHTJ2KLossless     = "1.2.840.10008.1.2.4.201"
	UIDHTJ2KLosslessRPCL = "1.2.840.10008.1.2.4.202"
	UIDHTJ2K             = "1.2.840.10008.1.2.4.203"
)

var _ jphcodec.Codec = (*StreamCodec)(nil)

// StreamCodec is the byte-level HTJ2K codec registered with this module's
// codec registry: interleaved pixel bytes in, codestream out.
type StreamCodec struct {
	name     string
	uid      string
	lossless bool
	rpcl     bool
	quality  int
}

// NewLosslessStreamCodec creates the lossless byte-level codec.
func NewLosslessStreamCodec() *StreamCodec {
	return &StreamCodec{name: "htj2k-lossless", uid: UIDHTJ2KLossless, lossless: true}
}

// NewLosslessRPCLStreamCodec creates the lossless RPCL byte-level codec.
func NewLosslessRPCLStreamCodec() *StreamCodec {
	return &StreamCodec{name: "htj2k-lossless-rpcl", uid: UIDHTJ2KLosslessRPCL, lossless: true, rpcl: true}
}

// NewStreamCodec creates the lossy byte-level codec.
func NewStreamCodec(quality int) *StreamCodec {
	if quality < 1 || quality > 100 {
		quality = 80
	}
	return &StreamCodec{name: "htj2k", uid: UIDHTJ2K, quality: quality}
}

// Name returns the registry name.
func (c *StreamCodec) Name() string { return c.name }

// UID returns the transfer syntax UID.
func (c *StreamCodec) UID() string { return c.uid }

// Encode compresses one interleaved frame.
func (c *StreamCodec) Encode(params jphcodec.EncodeParams) ([]byte, error) {
	img, err := framesToImage(params.PixelData, params.Width, params.Height,
		params.Components, params.BitDepth, params.Signed)
	if err != nil {
		return nil, err
	}
	p := jph.DefaultEncodeParams(params.Width, params.Height,
		params.Components, params.BitDepth, params.Signed)
	p.Reversible = c.lossless
	p.NumLevels = maxLevelsFor(params.Width, params.Height, p.NumLevels)
	if c.rpcl {
		p.ProgressionOrder = codestream.ProgRPCL
	}
	if !c.lossless {
		quality := c.quality
		if opts, ok := params.Options.(*jphcodec.BaseOptions); ok && opts != nil {
			if err := opts.Validate(); err != nil {
				return nil, err
			}
			if opts.Quality > 0 {
				quality = opts.Quality
			}
			if opts.NumLevels > 0 {
				p.NumLevels = maxLevelsFor(params.Width, params.Height, opts.NumLevels)
			}
		}
		p.QStep = qualityToStep(quality, params.BitDepth)
	}
	return jph.NewEncoder(p).Encode(img)
}

// Decode expands a codestream to one interleaved frame.
func (c *StreamCodec) Decode(data []byte) (*jphcodec.DecodeResult, error) {
	dec := jph.NewDecoder()
	img, err := dec.Decode(data)
	if err != nil {
		return nil, err
	}
	raw, err := imageToFrame(img)
	if err != nil {
		return nil, err
	}
	if len(img.Comps) == 0 {
		return nil, fmt.Errorf("dicom: decoded image has no components")
	}
	c0 := img.Comps[0]
	return &jphcodec.DecodeResult{
		PixelData:  raw,
		Width:      c0.Width,
		Height:     c0.Height,
		Components: len(img.Comps),
		BitDepth:   c0.BitDepth,
		Signed:     c0.Signed,
	}, nil
}

func init() {
	jphcodec.Register(NewLosslessStreamCodec())
	jphcodec.Register(NewLosslessRPCLStreamCodec())
	jphcodec.Register(NewStreamCodec(80))
}
