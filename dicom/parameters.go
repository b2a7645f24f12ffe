// Package dicom exposes the codec through DICOM transfer syntaxes: it
// registers HTJ2K lossless (1.2.840.10008.1.2.4.201), HTJ2K lossless
// RPCL (.202), and HTJ2K lossy (.203) codecs with the go-dicom codec
// registry, backed by the jph pipeline.
package dicom

import "github.com/cocosip/go-dicom/pkg/imaging/codec"

// Ensure Parameters implements codec.Parameters
var _ codec.Parameters = (*Parameters)(nil)

// Parameters contains the tunable settings of the HTJ2K codecs.
type Parameters struct {
	// Quality controls lossy compression quality (1-100). Only applies
	// to lossy encoding; lossless ignores it.
	Quality int

	// BlockWidth and BlockHeight are the code-block dimensions.
	// Valid range: 4-1024, powers of two, area at most 4096.
	BlockWidth  int
	BlockHeight int

	// NumLevels is the wavelet decomposition depth (0-6).
	NumLevels int

	// internal storage for the generic parameter interface
	params map[string]interface{}
}

// NewParameters creates parameters with lossy defaults.
func NewParameters() *Parameters {
	return &Parameters{
		Quality:     80,
		BlockWidth:  64,
		BlockHeight: 64,
		NumLevels:   5,
		params:      make(map[string]interface{}),
	}
}

// NewLosslessParameters creates parameters for lossless encoding.
func NewLosslessParameters() *Parameters {
	p := NewParameters()
	p.Quality = 100
	return p
}

// GetParameter retrieves a parameter by name (implements codec.Parameters)
func (p *Parameters) GetParameter(name string) interface{} {
	switch name {
	case "quality":
		return p.Quality
	case "blockWidth":
		return p.BlockWidth
	case "blockHeight":
		return p.BlockHeight
	case "numLevels":
		return p.NumLevels
	default:
		return p.params[name]
	}
}

// SetParameter sets a parameter value (implements codec.Parameters)
func (p *Parameters) SetParameter(name string, value interface{}) {
	switch name {
	case "quality":
		if v, ok := value.(int); ok {
			p.Quality = v
		}
	case "blockWidth":
		if v, ok := value.(int); ok {
			p.BlockWidth = v
		}
	case "blockHeight":
		if v, ok := value.(int); ok {
			p.BlockHeight = v
		}
	case "numLevels":
		if v, ok := value.(int); ok {
			p.NumLevels = v
		}
	default:
		if p.params == nil {
			p.params = make(map[string]interface{})
		}
		p.params[name] = value
	}
}

// Validate clamps the parameters into their legal ranges.
func (p *Parameters) Validate() error {
	if p.Quality < 1 {
		p.Quality = 1
	} else if p.Quality > 100 {
		p.Quality = 100
	}
	p.BlockWidth = clampBlockDim(p.BlockWidth)
	p.BlockHeight = clampBlockDim(p.BlockHeight)
	for p.BlockWidth*p.BlockHeight > 4096 {
		if p.BlockWidth >= p.BlockHeight {
			p.BlockWidth >>= 1
		} else {
			p.BlockHeight >>= 1
		}
	}
	if p.NumLevels < 0 {
		p.NumLevels = 0
	} else if p.NumLevels > 6 {
		p.NumLevels = 6
	}
	return nil
}

func clampBlockDim(v int) int {
	if v < 4 {
		v = 4
	}
	if v > 1024 {
		v = 1024
	}
	return nearestPowerOf2(v)
}

// nearestPowerOf2 returns the nearest power of 2 to the given value
func nearestPowerOf2(n int) int {
	if n <= 0 {
		return 1
	}
	power := 1
	for power < n {
		power <<= 1
	}
	prevPower := power >> 1
	if n-prevPower < power-n {
		return prevPower
	}
	return power
}
