// Package imageio reads and writes the raw sample formats the CLI speaks:
// PPM/PGM for 8-16 bit integer samples and planar YUV 4:2:0. Each file
// becomes a planar jph.Image with announced precision per component.
package imageio

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/aous72/OpenJPH-sub001/jph"
)

// ReadPNM reads a binary PGM (P5) or PPM (P6) file. Sample values above
// 255 are stored big-endian per the netpbm convention.
func ReadPNM(path string) (*jph.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodePNM(bufio.NewReader(f))
}

// DecodePNM decodes a binary PGM or PPM stream.
func DecodePNM(r *bufio.Reader) (*jph.Image, error) {
	magic, err := pnmToken(r)
	if err != nil {
		return nil, err
	}
	var comps int
	switch magic {
	case "P5":
		comps = 1
	case "P6":
		comps = 3
	default:
		return nil, fmt.Errorf("imageio: unsupported magic %q", magic)
	}

	width, err := pnmInt(r)
	if err != nil {
		return nil, err
	}
	height, err := pnmInt(r)
	if err != nil {
		return nil, err
	}
	maxval, err := pnmInt(r)
	if err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 || maxval <= 0 || maxval >= 1<<16 {
		return nil, fmt.Errorf("imageio: bad header %dx%d maxval %d", width, height, maxval)
	}
	bitDepth := 1
	for 1<<bitDepth-1 < maxval {
		bitDepth++
	}
	wide := maxval > 255

	n := width * height
	img := &jph.Image{}
	for c := 0; c < comps; c++ {
		img.Comps = append(img.Comps, jph.ImageComponent{
			Width: width, Height: height, BitDepth: bitDepth,
			Samples: make([]int32, n),
		})
	}

	bytesPer := 1
	if wide {
		bytesPer = 2
	}
	buf := make([]byte, n*comps*bytesPer)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("imageio: short pixel data: %w", err)
	}
	for i := 0; i < n; i++ {
		for c := 0; c < comps; c++ {
			k := (i*comps + c) * bytesPer
			var v int32
			if wide {
				v = int32(buf[k])<<8 | int32(buf[k+1])
			} else {
				v = int32(buf[k])
			}
			img.Comps[c].Samples[i] = v
		}
	}
	return img, nil
}

// WritePNM writes a gray image as PGM or a three-component image as PPM.
func WritePNM(path string, img *jph.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	if err := EncodePNM(w, img); err != nil {
		return err
	}
	return w.Flush()
}

// EncodePNM encodes a gray or RGB image in binary netpbm form.
func EncodePNM(w *bufio.Writer, img *jph.Image) error {
	var magic string
	switch len(img.Comps) {
	case 1:
		magic = "P5"
	case 3:
		magic = "P6"
	default:
		return fmt.Errorf("imageio: %d components cannot be written as PNM", len(img.Comps))
	}
	c0 := img.Comps[0]
	for _, c := range img.Comps {
		if c.Width != c0.Width || c.Height != c0.Height {
			return fmt.Errorf("imageio: sub-sampled components cannot be written as PNM")
		}
	}
	maxval := 1<<c0.BitDepth - 1
	if maxval >= 1<<16 {
		return fmt.Errorf("imageio: bit depth %d exceeds PNM range", c0.BitDepth)
	}
	fmt.Fprintf(w, "%s\n%d %d\n%d\n", magic, c0.Width, c0.Height, maxval)

	wide := maxval > 255
	n := c0.Width * c0.Height
	for i := 0; i < n; i++ {
		for c := range img.Comps {
			v := img.Comps[c].Samples[i]
			if v < 0 {
				v = 0
			}
			if int(v) > maxval {
				v = int32(maxval)
			}
			if wide {
				w.WriteByte(byte(v >> 8))
			}
			w.WriteByte(byte(v))
		}
	}
	return nil
}

// pnmToken returns the next whitespace-delimited token, skipping
// '#' comments.
func pnmToken(r *bufio.Reader) (string, error) {
	var tok []byte
	inComment := false
	for {
		b, err := r.ReadByte()
		if err != nil {
			if len(tok) > 0 && err == io.EOF {
				return string(tok), nil
			}
			return "", err
		}
		switch {
		case inComment:
			if b == '\n' {
				inComment = false
			}
		case b == '#':
			inComment = true
		case b == ' ' || b == '\t' || b == '\r' || b == '\n':
			if len(tok) > 0 {
				return string(tok), nil
			}
		default:
			tok = append(tok, b)
		}
	}
}

func pnmInt(r *bufio.Reader) (int, error) {
	tok, err := pnmToken(r)
	if err != nil {
		return 0, err
	}
	v := 0
	for _, c := range tok {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("imageio: bad integer %q", tok)
		}
		v = v*10 + int(c-'0')
		if v > 1<<30 {
			return 0, fmt.Errorf("imageio: integer overflow in header")
		}
	}
	return v, nil
}
