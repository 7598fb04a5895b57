package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS docs (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        url TEXT UNIQUE NOT NULL,
        content TEXT NOT NULL,
        embedding BLOB NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS chats (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        session_id TEXT NOT NULL,
        role TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
        message TEXT NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE INDEX IF NOT EXISTS idx_chats_session ON chats (session_id);
    `
	_, err := s.db.Exec(schema)
	return err
}

// Document methods

// UpsertDocument inserts a document or replaces the one already stored for the
// URL. The surrogate id is stable across a replace: content, embedding and
// created_at are updated in place.
func (s *SQLiteStore) UpsertDocument(url, content string, embedding []float32) (int64, error) {
	blob, err := EncodeEmbedding(embedding)
	if err != nil {
		return 0, fmt.Errorf("failed to encode embedding for %s: %w", url, err)
	}

	now := time.Now()
	var id int64
	err = s.db.QueryRow(`
        INSERT INTO docs (url, content, embedding, created_at) VALUES (?, ?, ?, ?)
        ON CONFLICT(url) DO UPDATE SET
            content = excluded.content,
            embedding = excluded.embedding,
            created_at = excluded.created_at
        RETURNING id`,
		url, content, blob, now).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert document: %w", err)
	}
	return id, nil
}

// DeleteDocument removes the document stored for the URL. It reports whether a
// row existed.
func (s *SQLiteStore) DeleteDocument(url string) (bool, error) {
	res, err := s.db.Exec("DELETE FROM docs WHERE url = ?", url)
	if err != nil {
		return false, fmt.Errorf("failed to delete document: %w", err)
	}
	affected, _ := res.RowsAffected()
	return affected > 0, nil
}

func (s *SQLiteStore) DeleteAllDocuments() (int64, error) {
	res, err := s.db.Exec("DELETE FROM docs")
	if err != nil {
		return 0, fmt.Errorf("failed to delete documents: %w", err)
	}
	count, _ := res.RowsAffected()
	return count, nil
}

// GetDocumentContent returns the content stored for the URL, or false when no
// document exists.
func (s *SQLiteStore) GetDocumentContent(url string) (string, bool, error) {
	var content string
	err := s.db.QueryRow("SELECT content FROM docs WHERE url = ?", url).Scan(&content)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to query document content: %w", err)
	}
	return content, true, nil
}

func (s *SQLiteStore) GetDocumentByID(id int64) (*Document, error) {
	var doc Document
	err := s.db.QueryRow("SELECT id, url, content, created_at FROM docs WHERE id = ?", id).
		Scan(&doc.ID, &doc.URL, &doc.Content, &doc.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to query document by id: %w", err)
	}
	return &doc, nil
}

func (s *SQLiteStore) ListDocuments() ([]Document, error) {
	rows, err := s.db.Query("SELECT url, content, created_at FROM docs ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.URL, &doc.Content, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *SQLiteStore) ListURLs(limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query("SELECT url FROM docs ORDER BY created_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query urls: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("failed to scan url row: %w", err)
		}
		urls = append(urls, url)
	}
	return urls, rows.Err()
}

func (s *SQLiteStore) CountDocuments() (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM docs").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

// DocEmbedding pairs a document id with its decoded vector for index rebuilds.
type DocEmbedding struct {
	ID     int64
	Vector []float32
}

// AllEmbeddings returns every stored (id, embedding) pair. A row that fails to
// decode is a storage error, not a skippable condition: the index must reflect
// exactly the stored document set.
func (s *SQLiteStore) AllEmbeddings() ([]DocEmbedding, error) {
	rows, err := s.db.Query("SELECT id, embedding FROM docs")
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %w", err)
	}
	defer rows.Close()

	var entries []DocEmbedding
	for rows.Next() {
		var id int64
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan embedding row: %w", err)
		}
		vec, err := DecodeEmbedding(blob)
		if err != nil {
			return nil, fmt.Errorf("failed to decode embedding for doc %d: %w", id, err)
		}
		entries = append(entries, DocEmbedding{ID: id, Vector: vec})
	}
	return entries, rows.Err()
}

// Chat message methods

func (s *SQLiteStore) AppendMessage(sessionID, role, message string) error {
	_, err := s.db.Exec(
		"INSERT INTO chats (session_id, role, message, created_at) VALUES (?, ?, ?, ?)",
		sessionID, role, message, time.Now())
	if err != nil {
		return fmt.Errorf("failed to append chat message: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteSession(sessionID string) (int64, error) {
	res, err := s.db.Exec("DELETE FROM chats WHERE session_id = ?", sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete session: %w", err)
	}
	count, _ := res.RowsAffected()
	return count, nil
}

func (s *SQLiteStore) DeleteAllSessions() (int64, error) {
	res, err := s.db.Exec("DELETE FROM chats")
	if err != nil {
		return 0, fmt.Errorf("failed to delete sessions: %w", err)
	}
	count, _ := res.RowsAffected()
	return count, nil
}

func (s *SQLiteStore) CountSessions() (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(DISTINCT session_id) FROM chats").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}

func (s *SQLiteStore) CountChats() (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM chats").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count chat messages: %w", err)
	}
	return count, nil
}

func (s *SQLiteStore) CountUserMessages() (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM chats WHERE role = 'user'").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count user messages: %w", err)
	}
	return count, nil
}

// ListSessions groups all chat messages by session, ordered oldest first
// within each session.
func (s *SQLiteStore) ListSessions() (map[string]Session, error) {
	rows, err := s.db.Query(
		"SELECT session_id, role, message, created_at FROM chats ORDER BY created_at ASC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	sessions := make(map[string]Session)
	for rows.Next() {
		var sessionID, role, message string
		var createdAt time.Time
		if err := rows.Scan(&sessionID, &role, &message, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat row: %w", err)
		}
		sess, ok := sessions[sessionID]
		if !ok {
			sess = Session{Name: sessionID, CreatedAt: createdAt}
		}
		sess.Messages = append(sess.Messages, SessionMessage{
			Role:      role,
			Content:   message,
			Timestamp: createdAt,
		})
		sessions[sessionID] = sess
	}
	return sessions, rows.Err()
}
