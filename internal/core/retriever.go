package core

import (
	"context"
	"fmt"
	"log"

	"sitechat.io/sitechat/internal/embed"
	"sitechat.io/sitechat/internal/index"
	"sitechat.io/sitechat/internal/store"
)

// Hit is one retrieved document with its cosine similarity to the query.
type Hit struct {
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float32 `json:"score"`
}

// Retriever answers a query with the most similar stored documents.
type Retriever struct {
	dbStore  *store.SQLiteStore
	embedder embed.Embedder
	idx      *index.Manager
}

func NewRetriever(db *store.SQLiteStore, embedder embed.Embedder, idx *index.Manager) *Retriever {
	return &Retriever{
		dbStore:  db,
		embedder: embedder,
		idx:      idx,
	}
}

// Retrieve embeds the query and returns up to topK documents ranked by
// descending similarity. An empty corpus yields an empty result.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]Hit, error) {
	queryEmbedding, err := r.embedder.Encode(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	if r.idx.Size() == 0 {
		return nil, nil
	}

	results := r.idx.Query(queryEmbedding, topK)
	hits := make([]Hit, 0, len(results))
	for _, res := range results {
		doc, err := r.dbStore.GetDocumentByID(res.ID)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			// Indexed id no longer stored. Cannot happen while mutations
			// rebuild synchronously; skip rather than fail.
			log.Printf("Indexed document %d missing from store, skipping", res.ID)
			continue
		}
		hits = append(hits, Hit{URL: doc.URL, Content: doc.Content, Score: res.Similarity})
	}
	return hits, nil
}
