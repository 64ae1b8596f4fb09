package settings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/filewire/internal/bytesize"
)

func TestDefaultsPreserveSourceParity(t *testing.T) {
	d := Defaults()
	assert.Equal(t, time.Duration(0), d.ConnectTimeout)
	assert.Equal(t, time.Duration(0), d.ReadTimeout)
	assert.Equal(t, "INFO", d.LogLevel)
	assert.Equal(t, "text", d.LogFormat)
	assert.Equal(t, bytesize.ByteSize(0), d.MaxFileSize)
}

func TestLoadWithMaxFileSizeOverride(t *testing.T) {
	t.Setenv("FILEWIRE_MAX_FILE_SIZE", "10Mi")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10*bytesize.MiB, s.MaxFileSize)
}

func TestLoadWithEnvOverride(t *testing.T) {
	t.Setenv("FILEWIRE_CONNECT_TIMEOUT", "5s")
	t.Setenv("FILEWIRE_LOG_LEVEL", "DEBUG")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, s.ConnectTimeout)
	assert.Equal(t, "DEBUG", s.LogLevel)
}

func TestLoadRejectsInvalidLevel(t *testing.T) {
	t.Setenv("FILEWIRE_LOG_LEVEL", "TRACE")
	_, err := Load()
	assert.Error(t, err)
}
