package core

import (
	"context"
	"fmt"
	"log"

	"sitechat.io/sitechat/internal/embed"
	"sitechat.io/sitechat/internal/index"
	"sitechat.io/sitechat/internal/store"
)

// Library owns the document side of the engine: it embeds incoming content,
// persists it, and keeps the vector index in step with the document table.
// Every mutation rebuilds the index before returning, so callers never observe
// a stale index.
type Library struct {
	dbStore  *store.SQLiteStore
	embedder embed.Embedder
	idx      *index.Manager
}

func NewLibrary(db *store.SQLiteStore, embedder embed.Embedder, idx *index.Manager) *Library {
	return &Library{
		dbStore:  db,
		embedder: embedder,
		idx:      idx,
	}
}

// ReloadIndex rebuilds the index from every persisted document. Called once at
// startup to warm the index; the corpus may legitimately be empty.
func (l *Library) ReloadIndex() error {
	entries, err := l.dbStore.AllEmbeddings()
	if err != nil {
		return fmt.Errorf("failed to load embeddings for index rebuild: %w", err)
	}
	idxEntries := make([]index.Entry, len(entries))
	for i, e := range entries {
		idxEntries[i] = index.Entry{ID: e.ID, Vector: e.Vector}
	}
	l.idx.RebuildFrom(idxEntries)
	log.Printf("Vector index rebuilt with %d documents", len(idxEntries))
	return nil
}

// Ingest embeds the content and upserts it under the URL. Re-ingesting a URL
// replaces its content and embedding; the document count does not grow.
func (l *Library) Ingest(ctx context.Context, url, content string) (int64, error) {
	if url == "" {
		return 0, fmt.Errorf("url is required")
	}

	embedding, err := l.embedder.Encode(ctx, content)
	if err != nil {
		return 0, fmt.Errorf("failed to embed document %s: %w", url, err)
	}

	id, err := l.dbStore.UpsertDocument(url, content, embedding)
	if err != nil {
		return 0, err
	}
	if err := l.ReloadIndex(); err != nil {
		return 0, err
	}
	return id, nil
}

// Delete removes the document stored for the URL and reports whether one
// existed.
func (l *Library) Delete(url string) (bool, error) {
	existed, err := l.dbStore.DeleteDocument(url)
	if err != nil {
		return false, err
	}
	if err := l.ReloadIndex(); err != nil {
		return existed, err
	}
	return existed, nil
}

// DeleteAll removes every document and empties the index.
func (l *Library) DeleteAll() (int64, error) {
	count, err := l.dbStore.DeleteAllDocuments()
	if err != nil {
		return 0, err
	}
	if err := l.ReloadIndex(); err != nil {
		return count, err
	}
	return count, nil
}

func (l *Library) GetContent(url string) (string, bool, error) {
	return l.dbStore.GetDocumentContent(url)
}

func (l *Library) ListDocuments() ([]store.Document, error) {
	return l.dbStore.ListDocuments()
}

func (l *Library) ListURLs() ([]string, error) {
	return l.dbStore.ListURLs(100)
}

// Stats aggregates corpus and chat counters. Conversations and queries both
// count user messages.
func (l *Library) Stats() (store.Stats, error) {
	var stats store.Stats
	var err error

	if stats.Docs, err = l.dbStore.CountDocuments(); err != nil {
		return stats, err
	}
	if stats.Chats, err = l.dbStore.CountChats(); err != nil {
		return stats, err
	}
	if stats.ChatSessions, err = l.dbStore.CountSessions(); err != nil {
		return stats, err
	}
	if stats.Queries, err = l.dbStore.CountUserMessages(); err != nil {
		return stats, err
	}
	stats.Conversations = stats.Queries
	return stats, nil
}
