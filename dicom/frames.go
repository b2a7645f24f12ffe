package dicom

import (
	"fmt"

	"github.com/aous72/OpenJPH-sub001/jph"
)

// framesToImage converts one interleaved DICOM frame to a planar image.
// Samples above 8 bits are little-endian; signed values are stored in
// two's complement folded into the bit depth.
func framesToImage(data []byte, width, height, comps, bitDepth int, signed bool) (*jph.Image, error) {
	numPixels := width * height
	bytesPer := (bitDepth + 7) / 8
	if bytesPer > 2 {
		return nil, fmt.Errorf("dicom: bit depth %d not representable in pixel data", bitDepth)
	}
	expected := numPixels * comps * bytesPer
	if len(data) < expected {
		return nil, fmt.Errorf("dicom: insufficient pixel data: got %d bytes, need %d", len(data), expected)
	}

	img := &jph.Image{}
	for c := 0; c < comps; c++ {
		img.Comps = append(img.Comps, jph.ImageComponent{
			Width: width, Height: height, BitDepth: bitDepth, Signed: signed,
			Samples: make([]int32, numPixels),
		})
	}

	if bytesPer == 1 {
		for i := 0; i < numPixels; i++ {
			for c := 0; c < comps; c++ {
				val := int32(data[i*comps+c])
				if signed && val >= 1<<(bitDepth-1) {
					val -= 1 << bitDepth
				}
				img.Comps[c].Samples[i] = val
			}
		}
		return img, nil
	}
	for i := 0; i < numPixels; i++ {
		for c := 0; c < comps; c++ {
			idx := (i*comps + c) * 2
			val := int32(data[idx]) | int32(data[idx+1])<<8
			if signed && val >= 1<<(bitDepth-1) {
				val -= 1 << bitDepth
			}
			img.Comps[c].Samples[i] = val
		}
	}
	return img, nil
}

// imageToFrame converts a planar image back to one interleaved
// little-endian frame.
func imageToFrame(img *jph.Image) ([]byte, error) {
	if len(img.Comps) == 0 {
		return nil, fmt.Errorf("dicom: empty image")
	}
	c0 := img.Comps[0]
	for _, c := range img.Comps {
		if c.Width != c0.Width || c.Height != c0.Height {
			return nil, fmt.Errorf("dicom: sub-sampled components cannot form one frame")
		}
	}
	comps := len(img.Comps)
	numPixels := c0.Width * c0.Height
	bytesPer := (c0.BitDepth + 7) / 8
	if bytesPer > 2 {
		return nil, fmt.Errorf("dicom: bit depth %d not representable in pixel data", c0.BitDepth)
	}

	out := make([]byte, numPixels*comps*bytesPer)
	mask := int32(1)<<c0.BitDepth - 1
	for i := 0; i < numPixels; i++ {
		for c := 0; c < comps; c++ {
			v := img.Comps[c].Samples[i] & mask
			if bytesPer == 1 {
				out[i*comps+c] = byte(v)
			} else {
				idx := (i*comps + c) * 2
				out[idx] = byte(v)
				out[idx+1] = byte(v >> 8)
			}
		}
	}
	return out, nil
}
