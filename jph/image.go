// Package jph is the codec pipeline: it connects the marker parser, the
// parameter store, the tile builder, the wavelet engine, the color
// transforms and the block coder into a complete encoder and decoder for
// HTJ2K / JPEG 2000 codestreams.
package jph

import "fmt"

// ImageComponent is one planar sample array handed to or produced by the
// codec, with its announced precision and signedness.
type ImageComponent struct {
	Width    int
	Height   int
	BitDepth int
	Signed   bool
	Samples  []int32
}

// Image is a planar image: one component per color channel, possibly
// sub-sampled relative to each other.
type Image struct {
	Comps []ImageComponent
}

// Validate checks the component arrays against their announced geometry.
func (img *Image) Validate() error {
	if len(img.Comps) == 0 {
		return fmt.Errorf("jph: image has no components")
	}
	for i, c := range img.Comps {
		if c.Width <= 0 || c.Height <= 0 {
			return fmt.Errorf("jph: component %d has empty extent", i)
		}
		if len(c.Samples) != c.Width*c.Height {
			return fmt.Errorf("jph: component %d has %d samples for %dx%d",
				i, len(c.Samples), c.Width, c.Height)
		}
		if c.BitDepth < 1 || c.BitDepth > 38 {
			return fmt.Errorf("jph: component %d bit depth %d", i, c.BitDepth)
		}
	}
	return nil
}

// At returns sample (x, y) of component c.
func (img *Image) At(c, x, y int) int32 {
	comp := &img.Comps[c]
	return comp.Samples[y*comp.Width+x]
}
