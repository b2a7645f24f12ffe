package codestream

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func wrapJPH(codestream []byte) []byte {
	var buf bytes.Buffer
	buf.Write(jp2Signature)
	buf.Write([]byte{0x0D, 0x0A, 0x87, 0x0A}) // signature box payload

	// ftyp box
	ftyp := []byte("jph ")
	binary.Write(&buf, binary.BigEndian, uint32(8+len(ftyp)))
	buf.WriteString("ftyp")
	buf.Write(ftyp)

	// jp2c box
	binary.Write(&buf, binary.BigEndian, uint32(8+len(codestream)))
	buf.WriteString("jp2c")
	buf.Write(codestream)
	return buf.Bytes()
}

func TestFindCodestreamBare(t *testing.T) {
	raw := []byte{0xFF, 0x4F, 0xFF, 0x51}
	got, err := FindCodestream(raw)
	if err != nil {
		t.Fatal(err)
	}
	if &got[0] != &raw[0] {
		t.Error("bare codestream must pass through")
	}
}

func TestFindCodestreamWrapped(t *testing.T) {
	inner := []byte{0xFF, 0x4F, 0x01, 0x02, 0x03, 0xFF, 0xD9}
	got, err := FindCodestream(wrapJPH(inner))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(inner) {
		t.Fatalf("payload length %d, want %d", len(got), len(inner))
	}
	for i := range inner {
		if got[i] != inner[i] {
			t.Fatalf("byte %d = %02X", i, got[i])
		}
	}
}

func TestFindCodestreamMissingJP2C(t *testing.T) {
	data := wrapJPH(nil)
	data = data[:len(data)-8] // drop the jp2c box
	if _, err := FindCodestream(data); !errors.Is(err, ErrInvalidField) {
		t.Errorf("err = %v", err)
	}
}
