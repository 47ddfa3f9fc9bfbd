package embeddings

import (
	"context"
	"math"
	"strings"
	"unicode"
)

// Lexical is an offline similarity provider: cosine over word-count
// vectors, already in [0,1]. It backs mock mode and never fails.
type Lexical struct{}

// Similarity implements dedupe.SimilarityProvider.
func (Lexical) Similarity(_ context.Context, a, b string) (float64, error) {
	ca, cb := wordCounts(a), wordCounts(b)
	if len(ca) == 0 || len(cb) == 0 {
		return 0, nil
	}
	var dot, na, nb float64
	for w, n := range ca {
		na += float64(n * n)
		dot += float64(n * cb[w])
	}
	for _, n := range cb {
		nb += float64(n * n)
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), nil
}

func wordCounts(s string) map[string]int {
	out := make(map[string]int)
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	for _, w := range words {
		out[w]++
	}
	return out
}
