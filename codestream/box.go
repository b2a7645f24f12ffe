package codestream

import "encoding/binary"

// JP2/JPH box handling, limited to locating the contiguous codestream.
// A JPH file is a sequence of boxes: [LBox:u32][TBox:4cc][payload]; the
// codestream lives in the jp2c box.

var jp2Signature = []byte{0x00, 0x00, 0x00, 0x0C, 0x6A, 0x50, 0x20, 0x20}

const boxJP2C = 0x6A703263 // "jp2c"

// IsJPHFile reports whether the bytes start with the JP2 signature box.
func IsJPHFile(data []byte) bool {
	if len(data) < len(jp2Signature) {
		return false
	}
	for i, b := range jp2Signature {
		if data[i] != b {
			return false
		}
	}
	return true
}

// FindCodestream returns the raw codestream: for a bare J2C/JPH
// codestream the input itself, for a box-wrapped file the payload of the
// first jp2c box. A wrapped file without a jp2c box yields a ParseError.
func FindCodestream(data []byte) ([]byte, error) {
	if !IsJPHFile(data) {
		return data, nil
	}
	offset := 0
	for offset+8 <= len(data) {
		lbox := int(binary.BigEndian.Uint32(data[offset:]))
		tbox := binary.BigEndian.Uint32(data[offset+4:])
		header := 8
		size := lbox
		switch lbox {
		case 0:
			// box extends to the end of the file
			size = len(data) - offset
		case 1:
			// 64-bit XLBox follows
			if offset+16 > len(data) {
				return nil, parseErr(ErrTruncated, 0, offset, "short XLBox")
			}
			size = int(binary.BigEndian.Uint64(data[offset+8:]))
			header = 16
		}
		if size < header || offset+size > len(data) {
			return nil, parseErr(ErrInvalidField, 0, offset, "box size %d", size)
		}
		if tbox == boxJP2C {
			return data[offset+header : offset+size], nil
		}
		offset += size
	}
	return nil, parseErr(ErrInvalidField, 0, offset, "no jp2c box found")
}
