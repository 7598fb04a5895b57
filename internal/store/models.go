package store

import "time"

type Document struct {
	ID        int64     `json:"id"`
	URL       string    `json:"url"`
	Content   string    `json:"content"`
	Embedding []float32 `json:"-"` // Internal, never exposed in responses
	CreatedAt time.Time `json:"created_at"`
}

type ChatMessage struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"` // "user" or "assistant"
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Session groups the messages of one chat session, ordered oldest first.
type Session struct {
	Name      string           `json:"name"`
	Messages  []SessionMessage `json:"messages"`
	CreatedAt time.Time        `json:"created_at"`
}

type SessionMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type Stats struct {
	Docs          int `json:"docs"`
	Chats         int `json:"chats"`
	ChatSessions  int `json:"chat_sessions"`
	Conversations int `json:"conversations"`
	Queries       int `json:"queries"`
}
