package compression

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTripAllAlgorithms(t *testing.T) {
	payload := bytes.Repeat([]byte("viral dance challenge #fyp "), 500)

	algorithms := []Algorithm{None, Gzip, Snappy, LZ4, Zstd, S2, Deflate}
	for _, alg := range algorithms {
		t.Run(string(alg), func(t *testing.T) {
			comp, err := NewCompressor(&Config{Algorithm: alg, Level: Default})
			require.NoError(t, err)

			compressed, err := comp.Compress(payload)
			require.NoError(t, err)

			decompressed, err := comp.Decompress(compressed)
			require.NoError(t, err)
			assert.Equal(t, payload, decompressed)

			if alg != None {
				assert.Less(t, len(compressed), len(payload))
			}
		})
	}
}

func TestUnsupportedAlgorithm(t *testing.T) {
	_, err := NewCompressor(&Config{Algorithm: "brotli"})
	assert.Error(t, err)
}

func TestNilConfigUsesDefault(t *testing.T) {
	comp, err := NewCompressor(nil)
	require.NoError(t, err)
	assert.Equal(t, Snappy, comp.Algorithm())
}

func TestCompressorPool(t *testing.T) {
	pool := NewCompressorPool(&Config{Algorithm: Zstd, Level: Fastest})

	data := []byte("short clip metadata payload")
	compressed, err := pool.Compress(data)
	require.NoError(t, err)

	decompressed, err := pool.Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, data, decompressed)
}

func TestEmptyInput(t *testing.T) {
	for _, alg := range []Algorithm{Gzip, Snappy, LZ4, Zstd} {
		comp, err := NewCompressor(&Config{Algorithm: alg, Level: Default})
		require.NoError(t, err)

		compressed, err := comp.Compress(nil)
		require.NoError(t, err)

		decompressed, err := comp.Decompress(compressed)
		require.NoError(t, err)
		assert.Empty(t, decompressed)
	}
}
