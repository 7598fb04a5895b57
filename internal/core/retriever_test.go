package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrieveRanksRelevantDocumentFirst(t *testing.T) {
	_, _, library, retriever := setupCoreTest(t)
	ctx := context.Background()

	_, err := library.Ingest(ctx, "https://sky", "The sky is blue")
	require.NoError(t, err)
	_, err = library.Ingest(ctx, "https://cats", "Cats are mammals")
	require.NoError(t, err)

	hits, err := retriever.Retrieve(ctx, "What color is the sky?", 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "https://sky", hits[0].URL)
	assert.Greater(t, hits[0].Score, hits[1].Score)

	top, err := retriever.Retrieve(ctx, "What color is the sky?", 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "https://sky", top[0].URL)
	assert.Equal(t, "The sky is blue", top[0].Content)
}

func TestRetrieveCapsAtCorpusSize(t *testing.T) {
	_, _, library, retriever := setupCoreTest(t)
	ctx := context.Background()

	_, err := library.Ingest(ctx, "https://a", "only document")
	require.NoError(t, err)

	hits, err := retriever.Retrieve(ctx, "document", 10)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestRetrieveEmptyCorpus(t *testing.T) {
	_, _, _, retriever := setupCoreTest(t)

	hits, err := retriever.Retrieve(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestRetrieveIdenticalContentScoresEqual(t *testing.T) {
	_, _, library, retriever := setupCoreTest(t)
	ctx := context.Background()

	_, err := library.Ingest(ctx, "https://a", "identical words here")
	require.NoError(t, err)
	_, err = library.Ingest(ctx, "https://b", "identical words here")
	require.NoError(t, err)

	hits, err := retriever.Retrieve(ctx, "identical words here", 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.InDelta(t, float64(hits[0].Score), float64(hits[1].Score), 1e-5)
	// Tie broken by ascending doc id: first ingested wins.
	assert.Equal(t, "https://a", hits[0].URL)
	assert.InDelta(t, 1.0, float64(hits[0].Score), 1e-5)
}

func TestRetrievePropagatesEmbeddingFailure(t *testing.T) {
	dbStore, idx, library, _ := setupCoreTest(t)
	_, err := library.Ingest(context.Background(), "https://a", "content")
	require.NoError(t, err)

	broken := NewRetriever(dbStore, failingEmbedder{}, idx)
	_, err = broken.Retrieve(context.Background(), "query", 3)
	assert.Error(t, err)
}
