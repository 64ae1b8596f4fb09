package logger

import (
	"fmt"
	"log/slog"
)

// Structured field keys used across the transfer client. Grouped by the
// stage of the protocol they tend to appear alongside.
const (
	// Run / correlation
	KeyRunID   = "run_id"
	KeyStage   = "stage"
	KeyAttempt = "attempt"

	// Session identity
	KeyClientID = "client_id"
	KeyHost     = "host"
	KeyFile     = "file"

	// Wire / protocol
	KeyRequestCode  = "request_code"
	KeyResponseCode = "response_code"
	KeyChunkIndex   = "chunk_index"
	KeyChunkCount   = "chunk_count"
	KeyBytesSent    = "bytes_sent"
	KeyCRC          = "crc"
	KeyExpectedCRC  = "expected_crc"

	KeyError = "error"
)

// RunID attaches the log-correlation identifier for one client invocation.
func RunID(id string) slog.Attr {
	return slog.String(KeyRunID, id)
}

// Stage names the protocol stage (register, login, keyExchange, upload,
// reconcile) a log line belongs to.
func Stage(name string) slog.Attr {
	return slog.String(KeyStage, name)
}

// Attempt records the 1-based retry attempt number for a stage.
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// ClientID formats a 16-byte client identifier as lowercase hex.
func ClientID(id [16]byte) slog.Attr {
	const hexDigits = "0123456789abcdef"
	buf := make([]byte, 32)
	for i, b := range id {
		buf[i*2] = hexDigits[b>>4]
		buf[i*2+1] = hexDigits[b&0x0f]
	}
	return slog.String(KeyClientID, string(buf))
}

// Host records the server address a connection targets.
func Host(addr string) slog.Attr {
	return slog.String(KeyHost, addr)
}

// File records the local path of the file being transferred.
func File(path string) slog.Attr {
	return slog.String(KeyFile, path)
}

// RequestCode records an outgoing request's numeric op code.
func RequestCode(code uint16) slog.Attr {
	return slog.Int(KeyRequestCode, int(code))
}

// ResponseCode records an incoming response's numeric status code.
func ResponseCode(code uint16) slog.Attr {
	return slog.Int(KeyResponseCode, int(code))
}

// BytesSent records cumulative ciphertext bytes written to the wire.
func BytesSent(n int) slog.Attr {
	return slog.Int(KeyBytesSent, n)
}

// ChunkIndex records progress through the chunked upload.
func ChunkIndex(index, total int) slog.Attr {
	return slog.String(KeyChunkIndex, fmt.Sprintf("%d/%d", index, total))
}

// CRC records a computed CRC-32 checksum value.
func CRC(v uint32) slog.Attr {
	return slog.Uint64(KeyCRC, uint64(v))
}

// ExpectedCRC records the checksum the server reported back.
func ExpectedCRC(v uint32) slog.Attr {
	return slog.Uint64(KeyExpectedCRC, uint64(v))
}

// Err wraps a Go error as a log attribute, using slog's standard "error"
// key. Returns a zero Attr when err is nil so callers can pass it
// unconditionally.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
