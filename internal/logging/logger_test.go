package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAppendsToLogFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	l, err := New(dir, Options{Level: "debug"})
	require.NoError(t, err)
	named := l.Named("bridge")
	named.Debug().Str("fingerprint", "abc").Msg("broadcast finished")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(filepath.Join(dir, "healing.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"bridge"`)
	assert.Contains(t, string(data), `"fingerprint":"abc"`)
	assert.Contains(t, string(data), `"message":"broadcast finished"`)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l, err := New("", Options{Level: "warn", Writer: &buf})
	require.NoError(t, err)
	zl := l.Zerolog()
	zl.Info().Msg("hidden")
	zl.Warn().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestLevelNames(t *testing.T) {
	assert.Equal(t, zerolog.TraceLevel, level("TRACE"))
	assert.Equal(t, zerolog.WarnLevel, level(" warn "))
	assert.Equal(t, zerolog.InfoLevel, level("loud"))
	assert.Equal(t, zerolog.InfoLevel, level(""))
}

func TestNilAndNopAreSafe(t *testing.T) {
	var l *Logger
	zl := l.Zerolog()
	zl.Info().Msg("ignored")
	assert.NoError(t, l.Close())
	nop := Nop()
	named := nop.Named("bus")
	named.Info().Msg("ignored")
	assert.NoError(t, nop.Close())
}
