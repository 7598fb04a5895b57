package core

import (
	"context"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"sitechat.io/sitechat/internal/llm"
	"sitechat.io/sitechat/internal/store"
)

const (
	// DefaultTopK is the number of documents retrieved when the caller does
	// not specify one.
	DefaultTopK = 4

	// contextCharCap bounds how much of each document goes into the prompt,
	// regardless of how long the crawled page was.
	contextCharCap = 2000

	chatSystemInstruction = "You are a helpful AI assistant that answers questions based on the provided context.\n" +
		"- Base your answer ONLY on the provided context\n" +
		"- If the answer isn't in the context, say \"I don't have enough information in the ingested data to answer this question.\"\n" +
		"- Provide well-formatted responses with clear headings, bullet points, and proper spacing\n" +
		"- Always cite the source URLs at the end\n" +
		"- Be concise but comprehensive"
)

// ChatAnswer is the result of one chat turn. Sources lists the URLs of the
// documents actually used to build the prompt context.
type ChatAnswer struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

// ChatService composes retrieval, prompt construction, completion and history
// persistence into one request/response unit.
type ChatService struct {
	dbStore   *store.SQLiteStore
	retriever *Retriever
	gateway   *llm.Gateway
}

func NewChatService(db *store.SQLiteStore, retriever *Retriever, gateway *llm.Gateway) *ChatService {
	return &ChatService{
		dbStore:   db,
		retriever: retriever,
		gateway:   gateway,
	}
}

// Chat runs one turn for the session. The user message is persisted before
// anything else, so the audit trail survives any later failure; the assistant
// reply is persisted even when it is the canned fallback. Every successful
// call appends exactly two messages: user, then assistant.
func (s *ChatService) Chat(ctx context.Context, sessionID, message string, topK int) (*ChatAnswer, error) {
	if sessionID == "" {
		sessionID = "default"
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	if err := s.dbStore.AppendMessage(sessionID, "user", message); err != nil {
		return nil, fmt.Errorf("failed to store user message: %w", err)
	}

	hits, err := s.retriever.Retrieve(ctx, message, topK)
	if err != nil {
		// The turn degrades to an answer without grounding context rather
		// than aborting; the user message is already persisted.
		log.Printf("Retrieval failed for session %s, proceeding without context: %v", sessionID, err)
		hits = nil
	}

	answer := s.gateway.Complete(ctx, chatSystemInstruction, buildUserPrompt(hits, message))

	if err := s.dbStore.AppendMessage(sessionID, "assistant", answer); err != nil {
		return nil, fmt.Errorf("failed to store assistant message: %w", err)
	}

	sources := make([]string, 0, len(hits))
	for _, h := range hits {
		sources = append(sources, h.URL)
	}
	return &ChatAnswer{Answer: answer, Sources: sources}, nil
}

func buildUserPrompt(hits []Hit, question string) string {
	var contextBuilder strings.Builder
	for i, h := range hits {
		if i > 0 {
			contextBuilder.WriteString("\n\n")
		}
		content := truncateRunes(h.Content, contextCharCap)
		contextBuilder.WriteString("URL: ")
		contextBuilder.WriteString(h.URL)
		contextBuilder.WriteString("\n")
		contextBuilder.WriteString(content)
	}

	return fmt.Sprintf("Context:\n%s\n\nQuestion: %s\n\nPlease provide a well-structured answer based on the context above.",
		contextBuilder.String(), question)
}

// truncateRunes caps s at max characters, never splitting a multi-byte rune.
func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	count := 0
	for i := range s {
		if count == max {
			return s[:i]
		}
		count++
	}
	return s
}

// Session history methods

func (s *ChatService) DeleteSession(sessionID string) (int64, error) {
	return s.dbStore.DeleteSession(sessionID)
}

func (s *ChatService) DeleteAllSessions() (int64, error) {
	return s.dbStore.DeleteAllSessions()
}

func (s *ChatService) ListSessions() (map[string]store.Session, error) {
	return s.dbStore.ListSessions()
}
