package core

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/require"

	"sitechat.io/sitechat/internal/index"
	"sitechat.io/sitechat/internal/store"
)

// hashEmbedder is a deterministic bag-of-words embedder for tests: each token
// is hashed into a bucket and the vector is L2-normalized, so texts sharing
// words score higher than unrelated ones.
type hashEmbedder struct {
	dim int
}

func (e hashEmbedder) Dimension() int { return e.dim }

func (e hashEmbedder) Encode(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dim)
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, text)
	for _, tok := range strings.Fields(cleaned) {
		h := fnv.New32a()
		h.Write([]byte(tok))
		vec[h.Sum32()%uint32(e.dim)]++
	}

	var sumOfSquares float64
	for _, v := range vec {
		sumOfSquares += float64(v) * float64(v)
	}
	if norm := math.Sqrt(sumOfSquares); norm > 0 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec, nil
}

// failingEmbedder simulates an unreachable embedding model.
type failingEmbedder struct{}

func (failingEmbedder) Dimension() int { return 8 }

func (failingEmbedder) Encode(context.Context, string) ([]float32, error) {
	return nil, errors.New("embedding model unavailable")
}

func setupCoreTest(t *testing.T) (*store.SQLiteStore, *index.Manager, *Library, *Retriever) {
	t.Helper()

	dbStore, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { dbStore.Close() })

	embedder := hashEmbedder{dim: 64}
	idx := index.NewManager()
	library := NewLibrary(dbStore, embedder, idx)
	require.NoError(t, library.ReloadIndex())
	retriever := NewRetriever(dbStore, embedder, idx)
	return dbStore, idx, library, retriever
}
