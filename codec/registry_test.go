package codec_test

import (
	"testing"

	"github.com/aous72/OpenJPH-sub001/codec"
	_ "github.com/aous72/OpenJPH-sub001/dicom"
)

func TestCodecRegistry(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		wantFound bool
		wantUID   string
		wantName  string
	}{
		{
			name:      "Get lossless by UID",
			key:       "1.2.840.10008.1.2.4.201",
			wantFound: true,
			wantUID:   "1.2.840.10008.1.2.4.201",
			wantName:  "htj2k-lossless",
		},
		{
			name:      "Get lossless by name",
			key:       "htj2k-lossless",
			wantFound: true,
			wantUID:   "1.2.840.10008.1.2.4.201",
			wantName:  "htj2k-lossless",
		},
		{
			name:      "Get lossy by UID",
			key:       "1.2.840.10008.1.2.4.203",
			wantFound: true,
			wantUID:   "1.2.840.10008.1.2.4.203",
			wantName:  "htj2k",
		},
		{
			name:      "Get RPCL by name",
			key:       "htj2k-lossless-rpcl",
			wantFound: true,
			wantUID:   "1.2.840.10008.1.2.4.202",
			wantName:  "htj2k-lossless-rpcl",
		},
		{
			name:      "Get non-existent codec",
			key:       "non-existent",
			wantFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := codec.Get(tt.key)
			if tt.wantFound {
				if err != nil {
					t.Fatalf("Get(%q) = %v", tt.key, err)
				}
				if c.UID() != tt.wantUID {
					t.Errorf("UID = %s, want %s", c.UID(), tt.wantUID)
				}
				if c.Name() != tt.wantName {
					t.Errorf("Name = %s, want %s", c.Name(), tt.wantName)
				}
				return
			}
			if err == nil {
				t.Errorf("Get(%q) unexpectedly found a codec", tt.key)
			}
		})
	}
}

func TestRegistryList(t *testing.T) {
	codecs := codec.List()
	if len(codecs) < 3 {
		t.Fatalf("%d codecs registered", len(codecs))
	}
	seen := map[string]bool{}
	for _, c := range codecs {
		if seen[c.UID()] {
			t.Errorf("duplicate UID %s", c.UID())
		}
		seen[c.UID()] = true
	}
}

// The registered codecs drive the full pipeline at the byte level.
func TestStreamCodecRoundTrip(t *testing.T) {
	c, err := codec.Get("htj2k-lossless")
	if err != nil {
		t.Fatal(err)
	}
	w, h := 23, 17
	pixels := make([]byte, w*h)
	for i := range pixels {
		pixels[i] = byte(i * 31)
	}
	data, err := c.Encode(codec.EncodeParams{
		PixelData: pixels, Width: w, Height: h, Components: 1, BitDepth: 8,
	})
	if err != nil {
		t.Fatal(err)
	}
	res, err := c.Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if res.Width != w || res.Height != h || res.Components != 1 {
		t.Fatalf("geometry lost: %+v", res)
	}
	for i := range pixels {
		if res.PixelData[i] != pixels[i] {
			t.Fatalf("pixel %d = %d, want %d", i, res.PixelData[i], pixels[i])
		}
	}
}

func TestBaseOptionsValidate(t *testing.T) {
	good := &codec.BaseOptions{Quality: 80, NumLevels: 5}
	if err := good.Validate(); err != nil {
		t.Errorf("valid options rejected: %v", err)
	}
	bad := &codec.BaseOptions{Quality: 150}
	if err := bad.Validate(); err == nil {
		t.Error("quality 150 accepted")
	}
}
