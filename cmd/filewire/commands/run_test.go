package commands

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/marmos91/filewire/internal/cryptoenvelope"
	"github.com/marmos91/filewire/internal/frame"
	"github.com/marmos91/filewire/internal/protocolclient"
	"github.com/marmos91/filewire/internal/session"
	"github.com/marmos91/filewire/internal/transport"
)

func TestExitCodeForSentinelFamilies(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitOK},
		{"config", fmt.Errorf("wrap: %w", session.ErrConfig), exitConfigError},
		{"checksum", fmt.Errorf("wrap: %w", protocolclient.ErrChecksumFailed), exitChecksumFailed},
		{"retries", fmt.Errorf("wrap: %w", protocolclient.ErrRetriesExhausted), exitRetriesExhausted},
		{"crypto", fmt.Errorf("wrap: %w", cryptoenvelope.ErrCrypto), exitCryptoError},
		{"malformed", fmt.Errorf("wrap: %w", frame.ErrMalformedFrame), exitMalformedFrame},
		{"unexpected", fmt.Errorf("wrap: %w", frame.ErrUnexpectedResponse), exitUnexpectedResponse},
		{"io", fmt.Errorf("wrap: %w", transport.ErrIO), exitIOError},
		{"unknown", errors.New("something else"), exitUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExitCodeFor(tc.err))
		})
	}
}

func TestLoadOrPromptTransferInfoNonInteractiveMissingFile(t *testing.T) {
	nonInteractive = true
	defer func() { nonInteractive = false }()

	_, err := loadOrPromptTransferInfo(t.TempDir())
	assert.ErrorIs(t, err, session.ErrConfig)
}
