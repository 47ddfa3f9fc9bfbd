// Package embeddings provides the text similarity backends used by the
// duplicate detector.
package embeddings

import (
	"context"
	"fmt"
	"math"
	"sync"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/packages/param"
)

// DefaultModel is the default OpenAI embeddings model.
const DefaultModel = string(oai.EmbeddingModelTextEmbedding3Small)

const defaultCacheSize = 64

// OpenAI computes cosine similarity over OpenAI embeddings. Vectors are
// cached by text since the same few insight texts are compared repeatedly.
type OpenAI struct {
	client oai.Client
	model  string

	mu    sync.Mutex
	cache map[string][]float32
	order []string
	limit int
}

// NewOpenAI wraps client. If model is empty, DefaultModel is used.
func NewOpenAI(client oai.Client, model string) *OpenAI {
	if model == "" {
		model = DefaultModel
	}
	return &OpenAI{
		client: client,
		model:  model,
		cache:  make(map[string][]float32),
		limit:  defaultCacheSize,
	}
}

// Similarity implements dedupe.SimilarityProvider. The cosine in [-1,1]
// is mapped linearly onto [0,1].
func (p *OpenAI) Similarity(ctx context.Context, a, b string) (float64, error) {
	va, err := p.embed(ctx, a)
	if err != nil {
		return 0, err
	}
	vb, err := p.embed(ctx, b)
	if err != nil {
		return 0, err
	}
	return (Cosine(va, vb) + 1) / 2, nil
}

func (p *OpenAI) embed(ctx context.Context, text string) ([]float32, error) {
	p.mu.Lock()
	if v, ok := p.cache[text]; ok {
		p.mu.Unlock()
		return v, nil
	}
	p.mu.Unlock()

	resp, err := p.client.Embeddings.New(ctx, oai.EmbeddingNewParams{
		Model: p.model,
		Input: oai.EmbeddingNewParamsInputUnion{
			OfString: param.NewOpt(text),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: embed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai embeddings: empty response")
	}
	v := float64ToFloat32(resp.Data[0].Embedding)
	p.remember(text, v)
	return v, nil
}

func (p *OpenAI) remember(text string, v []float32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.cache[text]; ok {
		return
	}
	p.cache[text] = v
	p.order = append(p.order, text)
	if len(p.order) > p.limit {
		delete(p.cache, p.order[0])
		p.order = p.order[1:]
	}
}

// Cosine returns the cosine similarity of two vectors, or 0 when either is
// empty, zero or the lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func float64ToFloat32(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}
