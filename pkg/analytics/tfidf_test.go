package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tokens := tokenize("The quick BROWN fox, jumping over the lazy dog!")
	assert.Equal(t, []string{"quick", "brown", "fox", "jumping", "lazy", "dog"}, tokens)
}

func TestTermsIncludeBigrams(t *testing.T) {
	ts := terms([]string{"dance", "tutorial", "video"})
	assert.Contains(t, ts, "dance")
	assert.Contains(t, ts, "dance tutorial")
	assert.Contains(t, ts, "tutorial video")
	assert.NotContains(t, ts, "dance video")
}

func TestVectorize(t *testing.T) {
	docs := []string{
		"dance choreography tutorial",
		"dance choreography video",
		"pasta recipe video",
		"",
	}
	vecs, vocab := vectorize(docs, 50)
	require.Len(t, vecs, 4)
	require.NotEmpty(t, vocab)

	// Non-empty documents produce unit vectors.
	for i := 0; i < 3; i++ {
		assert.InDelta(t, 1.0, vecs[i].norm(), 1e-9, "doc %d", i)
	}
	assert.Empty(t, vecs[3], "empty document has an empty vector")

	// Shared terms make the dance documents more alike than the recipe one.
	dense := make([]float64, len(vocab))
	for idx, x := range vecs[1] {
		dense[idx] = x
	}
	assert.Greater(t, vecs[0].dot(dense), vecs[2].dot(dense))
}

func TestVectorizeRespectsMaxFeatures(t *testing.T) {
	docs := []string{
		"alpha beta gamma delta epsilon",
		"alpha beta gamma",
		"alpha beta",
	}
	_, vocab := vectorize(docs, 3)
	require.Len(t, vocab, 3)
	assert.Contains(t, vocab, "alpha")
	assert.Contains(t, vocab, "beta")
}

func TestKMeansSeparatesObviousGroups(t *testing.T) {
	docs := []string{
		"dance dance dance", "dance dance moves", "dance moves",
		"pasta pasta pasta", "pasta pasta sauce", "pasta sauce",
	}
	vecs, vocab := vectorize(docs, 50)
	labels := kmeans(vecs, 2, len(vocab))
	require.Len(t, labels, 6)

	assert.Equal(t, labels[0], labels[1])
	assert.Equal(t, labels[1], labels[2])
	assert.Equal(t, labels[3], labels[4])
	assert.Equal(t, labels[4], labels[5])
	assert.NotEqual(t, labels[0], labels[3])
}
