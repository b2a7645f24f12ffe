package dicom

import (
	"testing"

	"github.com/cocosip/go-dicom/pkg/imaging/codec"
	"github.com/cocosip/go-dicom/pkg/imaging/imagetypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCodecInterface verifies the codec implements the interface
func TestCodecInterface(t *testing.T) {
	var _ codec.Codec = (*Codec)(nil)
}

func TestCodecNames(t *testing.T) {
	assert.Equal(t, "HTJ2K Lossless", NewLosslessCodec().Name())
	assert.Equal(t, "HTJ2K Lossless RPCL", NewLosslessRPCLCodec().Name())
	assert.Equal(t, "HTJ2K (Quality 70)", NewCodec(70).Name())
}

func TestCodecTransferSyntaxes(t *testing.T) {
	require.NotNil(t, NewLosslessCodec().TransferSyntax())
	require.NotNil(t, NewLosslessRPCLCodec().TransferSyntax())
	require.NotNil(t, NewCodec(80).TransferSyntax())
}

func TestEncodeNilInputs(t *testing.T) {
	c := NewLosslessCodec()
	if err := c.Encode(nil, nil, nil); err == nil {
		t.Error("nil pixel data accepted")
	}
}

func TestDefaultParameters(t *testing.T) {
	p := NewLosslessCodec().GetDefaultParameters()
	require.NotNil(t, p)
	assert.Equal(t, 100, p.GetParameter("quality"))

	p = NewCodec(42).GetDefaultParameters()
	assert.Equal(t, 42, p.GetParameter("quality"))
}

func TestParametersValidateClamps(t *testing.T) {
	p := NewParameters()
	p.Quality = 400
	p.BlockWidth = 48
	p.BlockHeight = 4000
	p.NumLevels = 9
	require.NoError(t, p.Validate())
	assert.Equal(t, 100, p.Quality)
	assert.Equal(t, 64, p.BlockWidth)   // nearest power of two
	assert.Equal(t, 64, p.BlockHeight) // 1024, then halved to fit 4096 samples
	assert.LessOrEqual(t, p.BlockWidth*p.BlockHeight, 4096)
	assert.Equal(t, 6, p.NumLevels)
}

func TestFrameConversionRoundTrip(t *testing.T) {
	w, h := 9, 4
	raw := make([]byte, w*h*2*3)
	for i := range raw {
		raw[i] = byte(i * 7)
	}
	img, err := framesToImage(raw, w, h, 3, 12, false)
	require.NoError(t, err)
	require.Len(t, img.Comps, 3)

	// Mask the stored bytes down to the 12-bit depth for comparison.
	back, err := imageToFrame(img)
	require.NoError(t, err)
	for i := 0; i < len(raw); i += 2 {
		wantLo := raw[i]
		wantHi := raw[i+1] & 0x0F
		assert.Equal(t, wantLo, back[i], "byte %d", i)
		assert.Equal(t, wantHi, back[i+1]&0x0F, "byte %d", i+1)
	}
}

func TestFrameConversionSigned(t *testing.T) {
	raw := []byte{0xFF, 0x00, 0x7F} // -1, 0, 127 at 8 bits signed
	img, err := framesToImage(raw, 3, 1, 1, 8, true)
	require.NoError(t, err)
	assert.Equal(t, []int32{-1, 0, 127}, img.Comps[0].Samples)
	back, err := imageToFrame(img)
	require.NoError(t, err)
	assert.Equal(t, raw, back)
}

// testPixelData is a minimal imagetypes.PixelData used by the codec tests.
type testPixelData struct {
	frames    [][]byte
	frameInfo *imagetypes.FrameInfo
}

func (p *testPixelData) GetFrame(frameIndex int) ([]byte, error) {
	if frameIndex < 0 || frameIndex >= len(p.frames) {
		return nil, nil
	}
	return p.frames[frameIndex], nil
}

func (p *testPixelData) AddFrame(frameData []byte) error {
	p.frames = append(p.frames, frameData)
	return nil
}

func (p *testPixelData) FrameCount() int { return len(p.frames) }

func (p *testPixelData) GetFrameInfo() *imagetypes.FrameInfo { return p.frameInfo }

func (p *testPixelData) IsEncapsulated() bool { return false }

func TestCodecEncodeDecodeFrames(t *testing.T) {
	const w, h = 32, 24
	info := &imagetypes.FrameInfo{
		Width:           w,
		Height:          h,
		BitsAllocated:   8,
		BitsStored:      8,
		HighBit:         7,
		SamplesPerPixel: 1,
	}
	src := &testPixelData{frameInfo: info}
	frame := make([]byte, w*h)
	for i := range frame {
		frame[i] = byte(i % 251)
	}
	require.NoError(t, src.AddFrame(frame))

	encoded := &testPixelData{frameInfo: info}
	c := NewLosslessCodec()
	require.NoError(t, c.Encode(src, encoded, nil))
	require.Equal(t, 1, encoded.FrameCount())

	decoded := &testPixelData{frameInfo: info}
	require.NoError(t, c.Decode(encoded, decoded, nil))
	require.Equal(t, 1, decoded.FrameCount())
	got, err := decoded.GetFrame(0)
	require.NoError(t, err)
	assert.Equal(t, frame, got)
}
