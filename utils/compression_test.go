package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressShortTextStoredRaw(t *testing.T) {
	data, algorithm, err := CompressText("short text")
	require.NoError(t, err)
	assert.Equal(t, CompressionNone, algorithm)
	assert.Equal(t, "short text", string(data))
}

func TestCompressRoundTrip(t *testing.T) {
	text := strings.Repeat("The quarterly report covers revenue and growth. ", 50)

	data, algorithm, err := CompressText(text)
	require.NoError(t, err)
	assert.Equal(t, CompressionGzip, algorithm)
	assert.Less(t, len(data), len(text))

	restored, err := DecompressText(data, algorithm)
	require.NoError(t, err)
	assert.Equal(t, text, restored)
}

func TestDecompressUnknownAlgorithm(t *testing.T) {
	_, err := DecompressText([]byte("data"), CompressionAlgorithm("zstd"))
	require.Error(t, err)
}
