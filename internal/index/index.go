// Package index holds the derived nearest-neighbor structure over all stored
// document embeddings. It is a cache of the document table, never a source of
// truth: every store mutation triggers a full rebuild.
package index

import (
	"sort"
	"sync"
	"sync/atomic"
)

// Entry is one (document id, embedding) pair contributed to a rebuild.
type Entry struct {
	ID     int64
	Vector []float32
}

// Result is one query hit. Similarity is the cosine similarity in [-1, 1];
// with unit-normalized vectors it is the plain dot product.
type Result struct {
	ID         int64
	Similarity float32
}

// snapshot is an immutable view of the corpus embeddings. Rebuilds construct a
// fresh snapshot off to the side and publish it with a single pointer swap, so
// readers always see either the fully-old or fully-new index.
type snapshot struct {
	ids  []int64
	vecs [][]float32
}

// Manager owns the vector index. Rebuilds are mutually exclusive; queries run
// concurrently against whatever snapshot is currently published.
type Manager struct {
	mu   sync.Mutex // serializes rebuilds
	snap atomic.Pointer[snapshot]
}

func NewManager() *Manager {
	m := &Manager{}
	m.snap.Store(&snapshot{})
	return m
}

// RebuildFrom replaces the index with one built from the given entries. The
// entries must carry unit-normalized vectors of a single dimension.
func (m *Manager) RebuildFrom(entries []Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := &snapshot{
		ids:  make([]int64, len(entries)),
		vecs: make([][]float32, len(entries)),
	}
	for i, e := range entries {
		next.ids[i] = e.ID
		next.vecs[i] = e.Vector
	}
	m.snap.Store(next)
}

// Size reports the number of indexed documents.
func (m *Manager) Size() int {
	return len(m.snap.Load().ids)
}

// Query returns the min(k, corpus size) nearest documents to the vector,
// ordered by descending similarity. Equal similarities are broken by ascending
// document id so the ordering is reproducible across runs. An empty index
// yields an empty result.
func (m *Manager) Query(vector []float32, k int) []Result {
	snap := m.snap.Load()
	if k <= 0 || len(snap.ids) == 0 {
		return nil
	}

	results := make([]Result, len(snap.ids))
	for i, vec := range snap.vecs {
		results[i] = Result{ID: snap.ids[i], Similarity: dot(vec, vector)}
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].ID < results[j].ID
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k]
}

func dot(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
