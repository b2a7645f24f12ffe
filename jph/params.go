package jph

import (
	"errors"
	"fmt"

	"github.com/aous72/OpenJPH-sub001/block"
	"github.com/aous72/OpenJPH-sub001/codestream"
)

// Pipeline errors.
var (
	// ErrBufferOverflow indicates the reversible transform was configured
	// with 32-bit line buffers where the sample growth requires 64-bit
	// operands; this is a programmer error, not an input error.
	ErrBufferOverflow = errors.New("jph: reversible pipeline needs 64-bit operands")

	// ErrCorrupt indicates inconsistent block-coder data inside a tile.
	ErrCorrupt = errors.New("jph: codestream corruption")
)

// EncodeParams configures the encoder.
type EncodeParams struct {
	Width      int
	Height     int
	Components int
	BitDepth   int
	Signed     bool

	// Reversible selects the 5/3 transform and lossless coding; false
	// selects the 9/7 transform with scalar quantization.
	Reversible bool

	// QStep is the irreversible base quantization step; zero selects the
	// default of 2^-BitDepth.
	QStep float32

	NumLevels int

	// CodeBlockWidth/Height are the nominal code-block dimensions;
	// both must be powers of two in [4, 1024] with area <= 4096.
	CodeBlockWidth  int
	CodeBlockHeight int

	// TileWidth/Height of zero select a single tile covering the image.
	TileWidth  int
	TileHeight int

	// ImageOffsetX/Y place the image origin on the reference grid.
	ImageOffsetX int
	ImageOffsetY int

	// ColorTransform enables the RCT (reversible) or ICT (irreversible)
	// on the first three components.
	ColorTransform bool

	ProgressionOrder uint8

	// Downsampling per component; empty means 1x1 for all.
	Downsampling []codestream.ComponentSize

	// BlockCodec encodes code-blocks; nil selects the development store
	// codec.
	BlockCodec block.Codec

	// Comment, when non-empty, is written as a COM segment.
	Comment string
}

// DefaultEncodeParams returns encoder parameters in their default
// configuration: reversible, five decomposition levels, 64x64
// code-blocks, single tile, color transform on three-component images.
func DefaultEncodeParams(width, height, components, bitDepth int, signed bool) *EncodeParams {
	return &EncodeParams{
		Width:            width,
		Height:           height,
		Components:       components,
		BitDepth:         bitDepth,
		Signed:           signed,
		Reversible:       true,
		NumLevels:        5,
		CodeBlockWidth:   64,
		CodeBlockHeight:  64,
		ColorTransform:   components >= 3,
		ProgressionOrder: codestream.ProgRPCL,
	}
}

// Validate reports the first violated constraint.
func (p *EncodeParams) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("jph: empty image extent")
	}
	if p.Components < 1 || p.Components > 16384 {
		return fmt.Errorf("jph: %d components", p.Components)
	}
	if p.BitDepth < 1 || p.BitDepth > 38 {
		return fmt.Errorf("jph: bit depth %d", p.BitDepth)
	}
	if p.NumLevels < 0 || p.NumLevels > 32 {
		return fmt.Errorf("jph: %d decomposition levels", p.NumLevels)
	}
	if e := blockExp(p.CodeBlockWidth); e < 0 {
		return fmt.Errorf("jph: code-block width %d", p.CodeBlockWidth)
	}
	if e := blockExp(p.CodeBlockHeight); e < 0 {
		return fmt.Errorf("jph: code-block height %d", p.CodeBlockHeight)
	}
	if p.CodeBlockWidth*p.CodeBlockHeight > 4096 {
		return fmt.Errorf("jph: code-block area %d exceeds 4096",
			p.CodeBlockWidth*p.CodeBlockHeight)
	}
	if p.ColorTransform && p.Components < 3 {
		return fmt.Errorf("jph: color transform needs 3 or more components")
	}
	if p.ProgressionOrder > codestream.ProgCPRL {
		return fmt.Errorf("jph: progression order %d", p.ProgressionOrder)
	}
	return nil
}

// blockExp returns the SPcod exponent of a code-block dimension, or -1
// when the dimension is not a power of two in [4, 1024].
func blockExp(v int) int {
	for e := 2; e <= 10; e++ {
		if 1<<e == v {
			return e - 2
		}
	}
	return -1
}

// codec returns the configured block codec.
func (p *EncodeParams) codec() block.Codec {
	if p.BlockCodec != nil {
		return p.BlockCodec
	}
	return block.StoreCodec{}
}
