package metrics

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderAccumulatesAndDumps(t *testing.T) {
	r := New()
	r.AddBytesSent(1024)
	r.AddBytesSent(16)
	r.ObserveRetry("register")
	r.ObserveRetry("register")
	r.ObserveStageDuration("upload", 0.125)
	r.ObserveCRCMismatch()

	var buf bytes.Buffer
	require.NoError(t, r.Dump(&buf))

	out := buf.String()
	assert.Contains(t, out, "filewire_bytes_sent_total 1040")
	assert.Contains(t, out, `filewire_stage_retries_total{stage="register"} 2`)
	assert.Contains(t, out, "filewire_crc_mismatches_total 1")
	assert.Contains(t, out, "filewire_stage_duration_seconds_sum")
}

func TestNilRecorderIsSafe(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.AddBytesSent(10)
		r.ObserveRetry("login")
		r.ObserveStageDuration("login", 1.0)
		r.ObserveCRCMismatch()
		_ = r.Dump(&bytes.Buffer{})
	})
}
