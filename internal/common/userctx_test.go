package common

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrelationID_RoundTrip(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "abc123")
	assert.Equal(t, "abc123", CorrelationIDFromContext(ctx))
	assert.Equal(t, "", CorrelationIDFromContext(context.Background()))
}

func TestLoggerWithOutput_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput("info", &buf)

	logger.Debug().Msg("hidden")
	logger.Info().Str("dish", "noodles").Msg("analysed")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"dish":"noodles"`)
	assert.Contains(t, out, `"message":"analysed"`)
}

func TestNewLoggerFromConfig_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "pagoda.log")
	logger := NewLoggerFromConfig(LoggingConfig{
		Level:     "debug",
		Format:    "json",
		Outputs:   []string{"file"},
		FilePath:  path,
		MaxSizeMB: 1,
	})
	logger.Info().Msg("to file")

	if fw, ok := logger.Writer.(interface{ Close() error }); ok {
		fw.Close()
	}

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), "pagoda*.log"))
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}

func TestVersionFile(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })
	Version = "dev"

	path := filepath.Join(t.TempDir(), ".version")
	require.NoError(t, os.WriteFile(path, []byte("# build info\nversion: 1.2.3\nbogus line\n"), 0644))
	loadVersionFile(path)

	assert.Equal(t, "1.2.3", GetVersion())
	assert.Contains(t, GetVersionInfo().String(), "1.2.3")
}
