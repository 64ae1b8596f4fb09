// Package wire implements the little-endian byte codec shared by every
// frame on the wire: fixed-width integer packing, NUL-padded string
// fields, chunk splitting for the upload stage, and hex encoding for the
// client identifier persisted to disk.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrShortBuffer is returned when an unpack would read past the end of
// the supplied buffer.
var ErrShortBuffer = errors.New("wire: short buffer")

// ErrBadHex is returned by HexToBytes when the input has odd length or
// contains a non-hex character.
var ErrBadHex = errors.New("wire: invalid hex string")

// PackU8 returns n as a single byte.
func PackU8(n uint8) []byte {
	return []byte{n}
}

// PackU16 returns n as 2 little-endian bytes.
func PackU16(n uint16) []byte {
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, n)
	return buf
}

// PackU32 returns n as 4 little-endian bytes.
func PackU32(n uint32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, n)
	return buf
}

// UnpackU8 reads a single byte at offset.
func UnpackU8(buf []byte, offset int) (uint8, error) {
	if offset < 0 || offset+1 > len(buf) {
		return 0, fmt.Errorf("%w: offset %d width 1 len %d", ErrShortBuffer, offset, len(buf))
	}
	return buf[offset], nil
}

// UnpackU16 reads a little-endian uint16 at offset.
func UnpackU16(buf []byte, offset int) (uint16, error) {
	if offset < 0 || offset+2 > len(buf) {
		return 0, fmt.Errorf("%w: offset %d width 2 len %d", ErrShortBuffer, offset, len(buf))
	}
	return binary.LittleEndian.Uint16(buf[offset : offset+2]), nil
}

// UnpackU32 reads a little-endian uint32 at offset.
func UnpackU32(buf []byte, offset int) (uint32, error) {
	if offset < 0 || offset+4 > len(buf) {
		return 0, fmt.Errorf("%w: offset %d width 4 len %d", ErrShortBuffer, offset, len(buf))
	}
	return binary.LittleEndian.Uint32(buf[offset : offset+4]), nil
}

// PackString returns the raw bytes of s: no length prefix, no terminator.
func PackString(s string) []byte {
	return []byte(s)
}

// PadOrTruncate returns exactly n bytes: s copied and NUL-filled if
// shorter than n, or the first n bytes of s if longer.
func PadOrTruncate(s []byte, n int) []byte {
	out := make([]byte, n)
	copy(out, s)
	return out
}

// SplitChunks returns buf split into chunkSize-byte slices, the last
// possibly shorter. Returns an empty (non-nil) slice for empty input.
func SplitChunks(buf []byte, chunkSize int) [][]byte {
	chunks := make([][]byte, 0, (len(buf)+chunkSize-1)/max(chunkSize, 1))
	for offset := 0; offset < len(buf); offset += chunkSize {
		end := offset + chunkSize
		if end > len(buf) {
			end = len(buf)
		}
		chunks = append(chunks, buf[offset:end])
	}
	return chunks
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

const hexDigits = "0123456789abcdef"

// BytesToHex returns b as lowercase hex.
func BytesToHex(b []byte) string {
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = hexDigits[v>>4]
		out[i*2+1] = hexDigits[v&0x0f]
	}
	return string(out)
}

// HexToBytes decodes a case-insensitive hex string. Fails with ErrBadHex
// on odd length or any non-hex character.
func HexToBytes(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("%w: odd length %d", ErrBadHex, len(s))
	}
	out := make([]byte, len(s)/2)
	for i := 0; i < len(out); i++ {
		hi, err := hexNibble(s[i*2])
		if err != nil {
			return nil, err
		}
		lo, err := hexNibble(s[i*2+1])
		if err != nil {
			return nil, err
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func hexNibble(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	default:
		return 0, fmt.Errorf("%w: byte %q", ErrBadHex, c)
	}
}

// TrimWS strips ASCII space, tab, CR, and LF from both ends of s.
func TrimWS(s string) string {
	isSpace := func(c byte) bool {
		return c == ' ' || c == '\t' || c == '\r' || c == '\n'
	}
	start := 0
	for start < len(s) && isSpace(s[start]) {
		start++
	}
	end := len(s)
	for end > start && isSpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

// StripTrailingNUL truncates b at the first NUL byte, or returns it
// unchanged if none is present.
func StripTrailingNUL(b []byte) []byte {
	for i, c := range b {
		if c == 0 {
			return b[:i]
		}
	}
	return b
}
