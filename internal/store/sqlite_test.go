package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, s.Close())
	})
	return s
}

func testVec(seed float32) []float32 {
	return []float32{seed, 1 - seed, 0.5}
}

func TestUpsertDocumentReplacesByURL(t *testing.T) {
	s := setupTestStore(t)

	id1, err := s.UpsertDocument("https://x", "hello", testVec(0.1))
	require.NoError(t, err)

	id2, err := s.UpsertDocument("https://x", "world", testVec(0.2))
	require.NoError(t, err)
	assert.Equal(t, id1, id2, "surrogate id is stable across replace")

	count, err := s.CountDocuments()
	require.NoError(t, err)
	assert.Equal(t, 1, count, "upsert replaces, never duplicates")

	content, found, err := s.GetDocumentContent("https://x")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "world", content)
}

func TestUpsertDocumentSurvivesConcurrentDelete(t *testing.T) {
	s := setupTestStore(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			if _, err := s.DeleteDocument("https://contested"); err != nil {
				t.Errorf("delete failed: %v", err)
				return
			}
		}
	}()

	// The upsert returns the written row's id in one statement, so an
	// interleaved delete can never make the id read fail.
	for i := 0; i < 50; i++ {
		id, err := s.UpsertDocument("https://contested", "content", testVec(0.3))
		require.NoError(t, err)
		assert.Greater(t, id, int64(0))
	}
	<-done
}

func TestGetDocumentContentAbsent(t *testing.T) {
	s := setupTestStore(t)

	_, found, err := s.GetDocumentContent("https://nowhere")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDeleteDocument(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.UpsertDocument("https://a", "content", testVec(0.1))
	require.NoError(t, err)

	existed, err := s.DeleteDocument("https://a")
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = s.DeleteDocument("https://a")
	require.NoError(t, err)
	assert.False(t, existed, "second delete finds no row")

	count, err := s.CountDocuments()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestDeleteAllDocuments(t *testing.T) {
	s := setupTestStore(t)

	for _, url := range []string{"https://a", "https://b", "https://c"} {
		_, err := s.UpsertDocument(url, "content", testVec(0.3))
		require.NoError(t, err)
	}

	count, err := s.DeleteAllDocuments()
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	remaining, err := s.CountDocuments()
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
}

func TestListURLsNewestFirst(t *testing.T) {
	s := setupTestStore(t)

	for _, url := range []string{"https://old", "https://mid", "https://new"} {
		_, err := s.UpsertDocument(url, "content", testVec(0.4))
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond) // distinct created_at
	}

	urls, err := s.ListURLs(100)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://new", "https://mid", "https://old"}, urls)

	limited, err := s.ListURLs(2)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://new", "https://mid"}, limited)
}

func TestListDocumentsNewestFirst(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.UpsertDocument("https://first", "one", testVec(0.1))
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = s.UpsertDocument("https://second", "two", testVec(0.2))
	require.NoError(t, err)

	docs, err := s.ListDocuments()
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "https://second", docs[0].URL)
	assert.Equal(t, "https://first", docs[1].URL)
	assert.Equal(t, "one", docs[1].Content)
}

func TestAllEmbeddingsRoundTrip(t *testing.T) {
	s := setupTestStore(t)

	vec := testVec(0.7)
	id, err := s.UpsertDocument("https://a", "content", vec)
	require.NoError(t, err)

	entries, err := s.AllEmbeddings()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0].ID)
	assert.Equal(t, vec, entries[0].Vector)
}

func TestGetDocumentByID(t *testing.T) {
	s := setupTestStore(t)

	id, err := s.UpsertDocument("https://a", "content", testVec(0.2))
	require.NoError(t, err)

	doc, err := s.GetDocumentByID(id)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "https://a", doc.URL)
	assert.Equal(t, "content", doc.Content)

	missing, err := s.GetDocumentByID(id + 100)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAppendAndListSessions(t *testing.T) {
	s := setupTestStore(t)

	require.NoError(t, s.AppendMessage("s1", "user", "hello"))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, s.AppendMessage("s1", "assistant", "hi there"))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, s.AppendMessage("s2", "user", "other session"))

	sessions, err := s.ListSessions()
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	s1 := sessions["s1"]
	require.Len(t, s1.Messages, 2)
	assert.Equal(t, "user", s1.Messages[0].Role)
	assert.Equal(t, "hello", s1.Messages[0].Content)
	assert.Equal(t, "assistant", s1.Messages[1].Role)
	assert.False(t, s1.Messages[1].Timestamp.Before(s1.Messages[0].Timestamp))

	require.Len(t, sessions["s2"].Messages, 1)
}

func TestDeleteSessionLeavesOthersUntouched(t *testing.T) {
	s := setupTestStore(t)

	require.NoError(t, s.AppendMessage("s1", "user", "q1"))
	require.NoError(t, s.AppendMessage("s1", "assistant", "a1"))
	require.NoError(t, s.AppendMessage("s2", "user", "q2"))

	before, err := s.CountSessions()
	require.NoError(t, err)
	assert.Equal(t, 2, before)

	deleted, err := s.DeleteSession("s1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	after, err := s.CountSessions()
	require.NoError(t, err)
	assert.Equal(t, 1, after)

	sessions, err := s.ListSessions()
	require.NoError(t, err)
	require.Contains(t, sessions, "s2")
	assert.NotContains(t, sessions, "s1")
}

func TestDeleteAllSessions(t *testing.T) {
	s := setupTestStore(t)

	require.NoError(t, s.AppendMessage("s1", "user", "q"))
	require.NoError(t, s.AppendMessage("s2", "user", "q"))

	deleted, err := s.DeleteAllSessions()
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	count, err := s.CountSessions()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestMessageCounts(t *testing.T) {
	s := setupTestStore(t)

	require.NoError(t, s.AppendMessage("s1", "user", "q1"))
	require.NoError(t, s.AppendMessage("s1", "assistant", "a1"))
	require.NoError(t, s.AppendMessage("s1", "user", "q2"))

	chats, err := s.CountChats()
	require.NoError(t, err)
	assert.Equal(t, 3, chats)

	users, err := s.CountUserMessages()
	require.NoError(t, err)
	assert.Equal(t, 2, users)
}
