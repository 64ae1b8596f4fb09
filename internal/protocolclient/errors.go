package protocolclient

import (
	"errors"
	"strconv"
)

// ErrRetriesExhausted is returned when a bounded-retry stage (register,
// login, key exchange, upload) fails its 3rd attempt.
var ErrRetriesExhausted = errors.New("protocolclient: retries exhausted")

// ErrChecksumFailed is returned when the terminal CRC mismatch occurs
// after the 3rd upload attempt. Distinct from ErrRetriesExhausted so
// the CLI can report the two failure modes separately.
var ErrChecksumFailed = errors.New("protocolclient: checksum verification failed")

// StageError wraps an underlying error with the stage and attempt
// number it occurred on.
type StageError struct {
	Stage   string
	Attempt int
	Err     error
}

func (e *StageError) Error() string {
	return e.Stage + ": attempt " + strconv.Itoa(e.Attempt) + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}
