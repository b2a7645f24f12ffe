package imageio

import (
	"bufio"
	"bytes"
	"path/filepath"
	"testing"

	"github.com/aous72/OpenJPH-sub001/jph"
)

func TestPNMGrayRoundTrip(t *testing.T) {
	img := &jph.Image{Comps: []jph.ImageComponent{{
		Width: 4, Height: 3, BitDepth: 8,
		Samples: []int32{
			0, 10, 20, 30,
			40, 50, 60, 70,
			80, 90, 250, 255,
		},
	}}}
	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	if err := EncodePNM(w, img); err != nil {
		t.Fatal(err)
	}
	w.Flush()

	out, err := DecodePNM(bufio.NewReader(&buf))
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Comps) != 1 || out.Comps[0].Width != 4 || out.Comps[0].Height != 3 {
		t.Fatalf("geometry lost: %+v", out.Comps[0])
	}
	if out.Comps[0].BitDepth != 8 {
		t.Errorf("bit depth %d", out.Comps[0].BitDepth)
	}
	for i, v := range out.Comps[0].Samples {
		if v != img.Comps[0].Samples[i] {
			t.Fatalf("sample %d = %d", i, v)
		}
	}
}

func TestPNM16BitRGBRoundTrip(t *testing.T) {
	w, h := 5, 2
	img := &jph.Image{}
	for c := 0; c < 3; c++ {
		samples := make([]int32, w*h)
		for i := range samples {
			samples[i] = int32(i*2500 + c*777)
		}
		img.Comps = append(img.Comps, jph.ImageComponent{
			Width: w, Height: h, BitDepth: 16, Samples: samples,
		})
	}
	path := filepath.Join(t.TempDir(), "x.ppm")
	if err := WritePNM(path, img); err != nil {
		t.Fatal(err)
	}
	out, err := ReadPNM(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Comps) != 3 || out.Comps[0].BitDepth != 16 {
		t.Fatalf("header lost: %d comps depth %d", len(out.Comps), out.Comps[0].BitDepth)
	}
	for c := range img.Comps {
		for i := range img.Comps[c].Samples {
			if out.Comps[c].Samples[i] != img.Comps[c].Samples[i] {
				t.Fatalf("comp %d sample %d mismatch", c, i)
			}
		}
	}
}

func TestPNMComments(t *testing.T) {
	data := []byte("P5\n# a comment\n2 2\n255\n\x01\x02\x03\x04")
	out, err := DecodePNM(bufio.NewReader(bytes.NewReader(data)))
	if err != nil {
		t.Fatal(err)
	}
	if out.Comps[0].Samples[3] != 4 {
		t.Errorf("sample = %d", out.Comps[0].Samples[3])
	}
}

func TestYUV420RoundTrip(t *testing.T) {
	w, h := 8, 6
	img := &jph.Image{Comps: []jph.ImageComponent{
		{Width: w, Height: h, BitDepth: 8, Samples: make([]int32, w*h)},
		{Width: w / 2, Height: h / 2, BitDepth: 8, Samples: make([]int32, w*h/4)},
		{Width: w / 2, Height: h / 2, BitDepth: 8, Samples: make([]int32, w*h/4)},
	}}
	for c := range img.Comps {
		for i := range img.Comps[c].Samples {
			img.Comps[c].Samples[i] = int32((i*11 + c*3) % 256)
		}
	}
	path := filepath.Join(t.TempDir(), "f.yuv")
	if err := WriteYUV420(path, img); err != nil {
		t.Fatal(err)
	}
	out, err := ReadYUV420(path, w, h)
	if err != nil {
		t.Fatal(err)
	}
	for c := range img.Comps {
		for i := range img.Comps[c].Samples {
			if out.Comps[c].Samples[i] != img.Comps[c].Samples[i] {
				t.Fatalf("comp %d sample %d mismatch", c, i)
			}
		}
	}
}

func TestYUV420RejectsOddDimensions(t *testing.T) {
	if _, err := ReadYUV420("nope.yuv", 7, 6); err == nil {
		t.Error("odd width accepted")
	}
}
