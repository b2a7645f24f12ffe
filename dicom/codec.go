package dicom

import (
	"fmt"
	"math"

	"github.com/cocosip/go-dicom/pkg/dicom/transfer"
	"github.com/cocosip/go-dicom/pkg/imaging/codec"
	"github.com/cocosip/go-dicom/pkg/imaging/imagetypes"

	"github.com/aous72/OpenJPH-sub001/codestream"
	"github.com/aous72/OpenJPH-sub001/jph"
)

var _ codec.Codec = (*Codec)(nil)

// Codec implements the HTJ2K (High-Throughput JPEG 2000) codec for DICOM
// pixel data.
// Reference: ITU-T T.814 | ISO/IEC 15444-15:2019
//
// Supported Transfer Syntaxes:
// - 1.2.840.10008.1.2.4.201: HTJ2K Lossless
// - 1.2.840.10008.1.2.4.202: HTJ2K Lossless RPCL
// - 1.2.840.10008.1.2.4.203: HTJ2K (Lossy)
type Codec struct {
	transferSyntax *transfer.Syntax
	lossless       bool
	quality        int
}

// NewLosslessCodec creates a new HTJ2K lossless codec
func NewLosslessCodec() *Codec {
	return &Codec{
		transferSyntax: transfer.HTJ2KLossless,
		lossless:       true,
	}
}

// NewLosslessRPCLCodec creates a new HTJ2K lossless RPCL codec
func NewLosslessRPCLCodec() *Codec {
	return &Codec{
		transferSyntax: transfer.HTJ2KLosslessRPCL,
		lossless:       true,
	}
}

// NewCodec creates a new HTJ2K lossy codec with the given quality.
func NewCodec(quality int) *Codec {
	if quality < 1 || quality > 100 {
		quality = 80
	}
	return &Codec{
		transferSyntax: transfer.HTJ2K,
		lossless:       false,
		quality:        quality,
	}
}

// Name returns the codec name
func (c *Codec) Name() string {
	if c.lossless {
		if c.transferSyntax == transfer.HTJ2KLosslessRPCL {
			return "HTJ2K Lossless RPCL"
		}
		return "HTJ2K Lossless"
	}
	return fmt.Sprintf("HTJ2K (Quality %d)", c.quality)
}

// TransferSyntax returns the transfer syntax this codec handles
func (c *Codec) TransferSyntax() *transfer.Syntax {
	return c.transferSyntax
}

// GetDefaultParameters returns the default codec parameters
func (c *Codec) GetDefaultParameters() codec.Parameters {
	if c.lossless {
		return NewLosslessParameters()
	}
	p := NewParameters()
	p.Quality = c.quality
	return p
}

// Encode encodes pixel data to HTJ2K format
func (c *Codec) Encode(oldPixelData imagetypes.PixelData, newPixelData imagetypes.PixelData, parameters codec.Parameters) error {
	if oldPixelData == nil || newPixelData == nil {
		return fmt.Errorf("source and destination PixelData cannot be nil")
	}
	frameInfo := oldPixelData.GetFrameInfo()
	if frameInfo == nil {
		return fmt.Errorf("failed to get frame info from source pixel data")
	}

	p := c.resolveParameters(parameters)
	if err := p.Validate(); err != nil {
		return err
	}

	width := int(frameInfo.Width)
	height := int(frameInfo.Height)
	comps := int(frameInfo.SamplesPerPixel)
	bitDepth := int(frameInfo.BitsStored)
	signed := frameInfo.PixelRepresentation != 0

	encParams := jph.DefaultEncodeParams(width, height, comps, bitDepth, signed)
	encParams.NumLevels = maxLevelsFor(width, height, p.NumLevels)
	encParams.CodeBlockWidth = p.BlockWidth
	encParams.CodeBlockHeight = p.BlockHeight
	encParams.Reversible = c.lossless
	if !c.lossless {
		encParams.QStep = qualityToStep(p.Quality, bitDepth)
	}
	if c.transferSyntax == transfer.HTJ2KLosslessRPCL {
		encParams.ProgressionOrder = codestream.ProgRPCL
	}

	encoder := jph.NewEncoder(encParams)
	frameCount := oldPixelData.FrameCount()
	for frameIndex := 0; frameIndex < frameCount; frameIndex++ {
		frameData, err := oldPixelData.GetFrame(frameIndex)
		if err != nil {
			return fmt.Errorf("failed to get frame %d: %w", frameIndex, err)
		}
		if len(frameData) == 0 {
			return fmt.Errorf("frame %d pixel data is empty", frameIndex)
		}
		img, err := framesToImage(frameData, width, height, comps, bitDepth, signed)
		if err != nil {
			return fmt.Errorf("frame %d: %w", frameIndex, err)
		}
		encoded, err := encoder.Encode(img)
		if err != nil {
			return fmt.Errorf("HTJ2K encode failed for frame %d: %w", frameIndex, err)
		}
		if err := newPixelData.AddFrame(encoded); err != nil {
			return fmt.Errorf("failed to add encoded frame %d: %w", frameIndex, err)
		}
	}
	return nil
}

// Decode decodes HTJ2K data to uncompressed pixel data
func (c *Codec) Decode(oldPixelData imagetypes.PixelData, newPixelData imagetypes.PixelData, parameters codec.Parameters) error {
	if oldPixelData == nil || newPixelData == nil {
		return fmt.Errorf("source and destination PixelData cannot be nil")
	}

	frameCount := oldPixelData.FrameCount()
	for frameIndex := 0; frameIndex < frameCount; frameIndex++ {
		frameData, err := oldPixelData.GetFrame(frameIndex)
		if err != nil {
			return fmt.Errorf("failed to get frame %d: %w", frameIndex, err)
		}
		if len(frameData) == 0 {
			return fmt.Errorf("frame %d pixel data is empty", frameIndex)
		}

		decoder := jph.NewDecoder()
		img, err := decoder.Decode(frameData)
		if err != nil {
			return fmt.Errorf("HTJ2K decode failed for frame %d: %w", frameIndex, err)
		}
		raw, err := imageToFrame(img)
		if err != nil {
			return fmt.Errorf("frame %d: %w", frameIndex, err)
		}
		if err := newPixelData.AddFrame(raw); err != nil {
			return fmt.Errorf("failed to add decoded frame %d: %w", frameIndex, err)
		}
	}
	return nil
}

func (c *Codec) resolveParameters(parameters codec.Parameters) *Parameters {
	if hp, ok := parameters.(*Parameters); ok && hp != nil {
		return hp
	}
	p := NewParameters()
	if c.lossless {
		p = NewLosslessParameters()
	} else {
		p.Quality = c.quality
	}
	if parameters == nil {
		return p
	}
	for _, name := range []string{"quality", "blockWidth", "blockHeight", "numLevels"} {
		if v := parameters.GetParameter(name); v != nil {
			p.SetParameter(name, v)
		}
	}
	return p
}

// qualityToStep maps the 1-100 quality scale to a base quantization step.
func qualityToStep(quality, bitDepth int) float32 {
	if quality >= 100 {
		return float32(math.Exp2(-float64(bitDepth)))
	}
	scale := math.Pow(2.0, (100.0-float64(quality))/12.5)
	return float32(scale * math.Exp2(-float64(bitDepth)))
}

// maxLevelsFor bounds the decomposition depth so the coarsest resolution
// keeps at least one sample per dimension.
func maxLevelsFor(width, height, requested int) int {
	minDim := width
	if height < minDim {
		minDim = height
	}
	maxLevels := 0
	for (1 << maxLevels) < minDim {
		maxLevels++
	}
	if maxLevels > 6 {
		maxLevels = 6
	}
	if requested < maxLevels {
		return requested
	}
	return maxLevels
}

// RegisterCodecs registers all HTJ2K codecs with the global registry
func RegisterCodecs() {
	registry := codec.GetGlobalRegistry()
	registry.RegisterCodec(transfer.HTJ2KLossless, NewLosslessCodec())
	registry.RegisterCodec(transfer.HTJ2KLosslessRPCL, NewLosslessRPCLCodec())
	registry.RegisterCodec(transfer.HTJ2K, NewCodec(80))
}

func init() {
	RegisterCodecs()
}
