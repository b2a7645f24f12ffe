package imageio

import (
	"fmt"
	"io"
	"os"

	"github.com/aous72/OpenJPH-sub001/jph"
)

// ReadYUV420 reads one frame of planar 8-bit YUV 4:2:0 samples: a full
// resolution luma plane followed by two half-resolution chroma planes.
// The frame geometry is external to the format and must be supplied.
func ReadYUV420(path string, width, height int) (*jph.Image, error) {
	if width <= 0 || height <= 0 || width%2 != 0 || height%2 != 0 {
		return nil, fmt.Errorf("imageio: 4:2:0 frame %dx%d must have even dimensions", width, height)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cw, ch := width/2, height/2
	buf := make([]byte, width*height+2*cw*ch)
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, fmt.Errorf("imageio: short 4:2:0 frame: %w", err)
	}

	img := &jph.Image{Comps: []jph.ImageComponent{
		{Width: width, Height: height, BitDepth: 8, Samples: make([]int32, width*height)},
		{Width: cw, Height: ch, BitDepth: 8, Samples: make([]int32, cw*ch)},
		{Width: cw, Height: ch, BitDepth: 8, Samples: make([]int32, cw*ch)},
	}}
	for i := 0; i < width*height; i++ {
		img.Comps[0].Samples[i] = int32(buf[i])
	}
	off := width * height
	for i := 0; i < cw*ch; i++ {
		img.Comps[1].Samples[i] = int32(buf[off+i])
		img.Comps[2].Samples[i] = int32(buf[off+cw*ch+i])
	}
	return img, nil
}

// WriteYUV420 writes one planar 8-bit 4:2:0 frame.
func WriteYUV420(path string, img *jph.Image) error {
	if len(img.Comps) != 3 {
		return fmt.Errorf("imageio: 4:2:0 output needs 3 components, have %d", len(img.Comps))
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	for _, comp := range img.Comps {
		buf := make([]byte, len(comp.Samples))
		for i, v := range comp.Samples {
			if v < 0 {
				v = 0
			}
			if v > 255 {
				v = 255
			}
			buf[i] = byte(v)
		}
		if _, err := f.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

// YUV420Downsampling returns the SIZ component downsampling of a 4:2:0
// frame: full-resolution luma, half-resolution chroma.
func YUV420Downsampling() [3][2]uint8 {
	return [3][2]uint8{{1, 1}, {2, 2}, {2, 2}}
}
