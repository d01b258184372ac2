package analytics

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// englishStopWords is the filter applied before term extraction.
var englishStopWords = map[string]struct{}{
	"a": {}, "about": {}, "after": {}, "all": {}, "also": {}, "an": {},
	"and": {}, "any": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"because": {}, "been": {}, "before": {}, "but": {}, "by": {},
	"can": {}, "could": {}, "did": {}, "do": {}, "does": {}, "for": {},
	"from": {}, "get": {}, "had": {}, "has": {}, "have": {}, "he": {},
	"her": {}, "him": {}, "his": {}, "how": {}, "i": {}, "if": {},
	"in": {}, "into": {}, "is": {}, "it": {}, "its": {}, "just": {},
	"me": {}, "more": {}, "most": {}, "my": {}, "no": {}, "not": {},
	"now": {}, "of": {}, "on": {}, "only": {}, "or": {}, "other": {},
	"our": {}, "out": {}, "over": {}, "she": {}, "so": {}, "some": {},
	"than": {}, "that": {}, "the": {}, "their": {}, "them": {},
	"then": {}, "there": {}, "these": {}, "they": {}, "this": {},
	"to": {}, "up": {}, "us": {}, "was": {}, "we": {}, "were": {},
	"what": {}, "when": {}, "which": {}, "who": {}, "will": {},
	"with": {}, "would": {}, "you": {}, "your": {},
}

// defaultMaxFeatures caps the vocabulary by document frequency.
const defaultMaxFeatures = 100

// tokenize lowercases text and splits it into word tokens, dropping
// stop words and single-character fragments.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 2 {
			continue
		}
		if _, stop := englishStopWords[f]; stop {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// terms expands tokens into unigrams plus adjacent bigrams.
func terms(tokens []string) []string {
	out := make([]string, 0, len(tokens)*2)
	out = append(out, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		out = append(out, tokens[i]+" "+tokens[i+1])
	}
	return out
}

// sparseVec is a document vector keyed by vocabulary index.
type sparseVec map[int]float64

func (v sparseVec) norm() float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

func (v sparseVec) normalize() {
	n := v.norm()
	if n == 0 {
		return
	}
	for i := range v {
		v[i] /= n
	}
}

// dot is the inner product against a dense centroid.
func (v sparseVec) dot(dense []float64) float64 {
	var sum float64
	for i, x := range v {
		sum += x * dense[i]
	}
	return sum
}

// vectorize builds l2-normalized TF-IDF vectors over the documents.
// The vocabulary keeps the maxFeatures terms with highest document
// frequency; ties resolve alphabetically so vectorization is
// deterministic. Documents yielding no known terms produce empty
// vectors.
func vectorize(docs []string, maxFeatures int) ([]sparseVec, []string) {
	if maxFeatures <= 0 {
		maxFeatures = defaultMaxFeatures
	}

	docTerms := make([][]string, len(docs))
	df := make(map[string]int)
	for i, doc := range docs {
		docTerms[i] = terms(tokenize(doc))
		seen := make(map[string]struct{})
		for _, t := range docTerms[i] {
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				df[t]++
			}
		}
	}

	vocabTerms := make([]string, 0, len(df))
	for t := range df {
		vocabTerms = append(vocabTerms, t)
	}
	sort.Slice(vocabTerms, func(i, j int) bool {
		if df[vocabTerms[i]] != df[vocabTerms[j]] {
			return df[vocabTerms[i]] > df[vocabTerms[j]]
		}
		return vocabTerms[i] < vocabTerms[j]
	})
	if len(vocabTerms) > maxFeatures {
		vocabTerms = vocabTerms[:maxFeatures]
	}
	vocab := make(map[string]int, len(vocabTerms))
	for i, t := range vocabTerms {
		vocab[t] = i
	}

	// Smoothed idf so a term present in every document still carries
	// a small positive weight.
	n := float64(len(docs))
	idf := make([]float64, len(vocabTerms))
	for i, t := range vocabTerms {
		idf[i] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}

	vecs := make([]sparseVec, len(docs))
	for i, ts := range docTerms {
		vec := make(sparseVec)
		for _, t := range ts {
			if idx, ok := vocab[t]; ok {
				vec[idx] += idf[idx]
			}
		}
		vec.normalize()
		vecs[i] = vec
	}
	return vecs, vocabTerms
}
