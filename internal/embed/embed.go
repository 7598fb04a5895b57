// Package embed turns text into fixed-dimension unit vectors. There is no
// fallback embedding provider: if the model is unreachable at startup the
// process cannot index or search and must not run.
package embed

import "context"

// Dimension is the embedding size of the MiniLM sentence-embedding family.
const Dimension = 384

// Embedder produces an L2-normalized vector for a text. The same text always
// yields the same vector for a fixed model.
type Embedder interface {
	Encode(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}
