package frame

import (
	"errors"
	"fmt"

	"github.com/marmos91/filewire/internal/wire"
)

// ErrMalformedFrame is returned when a header or payload fails a
// structural check: wrong length, or a payload_size mismatching the
// expected fixed length for its code. The version byte is not checked.
var ErrMalformedFrame = errors.New("frame: malformed frame")

// ErrUnexpectedResponse is returned when a response code is not legal
// for the protocol state the driver is currently in.
var ErrUnexpectedResponse = errors.New("frame: unexpected response code")

// RequestHeaderSize is the wire size of a request header.
const RequestHeaderSize = 16 + 1 + 2 + 4 // client_id + version + code + payload_size

// ResponseHeaderSize is the wire size of a response header.
const ResponseHeaderSize = 1 + 2 + 4 // version + code + payload_size

// RequestHeader is the 23-byte header prefixed to every outgoing frame.
//
//	offset 0..16   client_id
//	offset 16      version
//	offset 17..19  code      (u16 LE)
//	offset 19..23  payload_size (u32 LE)
type RequestHeader struct {
	ClientID    [ClientIDSize]byte
	Version     uint8
	Code        uint16
	PayloadSize uint32
}

// Encode serializes h to exactly RequestHeaderSize bytes.
func (h RequestHeader) Encode() []byte {
	buf := make([]byte, 0, RequestHeaderSize)
	buf = append(buf, h.ClientID[:]...)
	buf = append(buf, wire.PackU8(h.Version)...)
	buf = append(buf, wire.PackU16(h.Code)...)
	buf = append(buf, wire.PackU32(h.PayloadSize)...)
	return buf
}

// ParseRequestHeader decodes a RequestHeader from exactly
// RequestHeaderSize bytes. Used by calibration tests against a fake
// server; the client itself only encodes request headers.
func ParseRequestHeader(buf []byte) (RequestHeader, error) {
	if len(buf) != RequestHeaderSize {
		return RequestHeader{}, fmt.Errorf("%w: request header length %d, want %d", ErrMalformedFrame, len(buf), RequestHeaderSize)
	}
	var h RequestHeader
	copy(h.ClientID[:], buf[0:16])
	version, err := wire.UnpackU8(buf, 16)
	if err != nil {
		return RequestHeader{}, err
	}
	h.Version = version
	code, err := wire.UnpackU16(buf, 17)
	if err != nil {
		return RequestHeader{}, err
	}
	h.Code = code
	size, err := wire.UnpackU32(buf, 19)
	if err != nil {
		return RequestHeader{}, err
	}
	h.PayloadSize = size
	return h, nil
}

// ResponseHeader is the 7-byte header prefixed to every incoming frame.
//
//	offset 0      version
//	offset 1..3   code      (u16 LE)
//	offset 3..7   payload_size (u32 LE)
type ResponseHeader struct {
	Version     uint8
	Code        uint16
	PayloadSize uint32
}

// Encode serializes h to exactly ResponseHeaderSize bytes. Used by the
// in-process fake server driving the protocol driver's tests.
func (h ResponseHeader) Encode() []byte {
	buf := make([]byte, 0, ResponseHeaderSize)
	buf = append(buf, wire.PackU8(h.Version)...)
	buf = append(buf, wire.PackU16(h.Code)...)
	buf = append(buf, wire.PackU32(h.PayloadSize)...)
	return buf
}

// ParseResponseHeader decodes a ResponseHeader from exactly
// ResponseHeaderSize bytes.
func ParseResponseHeader(buf []byte) (ResponseHeader, error) {
	if len(buf) != ResponseHeaderSize {
		return ResponseHeader{}, fmt.Errorf("%w: response header length %d, want %d", ErrMalformedFrame, len(buf), ResponseHeaderSize)
	}
	version, err := wire.UnpackU8(buf, 0)
	if err != nil {
		return ResponseHeader{}, err
	}
	code, err := wire.UnpackU16(buf, 1)
	if err != nil {
		return ResponseHeader{}, err
	}
	size, err := wire.UnpackU32(buf, 3)
	if err != nil {
		return ResponseHeader{}, err
	}
	return ResponseHeader{Version: version, Code: code, PayloadSize: size}, nil
}
