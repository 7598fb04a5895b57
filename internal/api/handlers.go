package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"sitechat.io/sitechat/internal/core"
	"sitechat.io/sitechat/internal/crawler"
)

// PageCrawler produces {url, text} pages from a seed URL. Satisfied by
// crawler.Crawler; faked in tests.
type PageCrawler interface {
	Crawl(ctx context.Context, seedURL string, maxPages, maxDepth int) ([]crawler.Page, error)
}

type APIHandler struct {
	library     *core.Library
	chatService *core.ChatService
	crawler     PageCrawler
}

func NewAPIHandler(library *core.Library, cs *core.ChatService, cr PageCrawler) *APIHandler {
	return &APIHandler{
		library:     library,
		chatService: cs,
		crawler:     cr,
	}
}

type IngestRequest struct {
	URL      string `json:"url"`
	MaxPages int    `json:"max_pages"`
	Depth    int    `json:"depth"`
}

type IngestResponse struct {
	Ingested int    `json:"ingested"`
	Failed   int    `json:"failed"`
	BaseURL  string `json:"base_url"`
}

func (h *APIHandler) IngestHandler(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.URL == "" {
		http.Error(w, "url required", http.StatusBadRequest)
		return
	}
	if req.MaxPages <= 0 {
		req.MaxPages = 50
	}
	if req.Depth <= 0 {
		req.Depth = 2
	}

	pages, err := h.crawler.Crawl(r.Context(), req.URL, req.MaxPages, req.Depth)
	if err != nil {
		log.Printf("Crawl of %s failed: %v", req.URL, err)
		http.Error(w, "Failed to crawl "+req.URL, http.StatusInternalServerError)
		return
	}

	resp := IngestResponse{BaseURL: req.URL}
	for _, page := range pages {
		if _, err := h.library.Ingest(r.Context(), page.URL, page.Text); err != nil {
			log.Printf("Failed to ingest %s: %v", page.URL, err)
			resp.Failed++
			continue
		}
		resp.Ingested++
	}
	json.NewEncoder(w).Encode(resp)
}

type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	TopK      int    `json:"top_k"`
}

func (h *APIHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Message == "" {
		http.Error(w, "message required", http.StatusBadRequest)
		return
	}

	answer, err := h.chatService.Chat(r.Context(), req.SessionID, req.Message, req.TopK)
	if err != nil {
		log.Printf("Chat turn failed for session %q: %v", req.SessionID, err)
		http.Error(w, "Failed to process chat message", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(answer)
}

func (h *APIHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := h.library.Stats()
	if err != nil {
		log.Printf("Error collecting stats: %v", err)
		http.Error(w, "Failed to collect stats", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(stats)
}

func (h *APIHandler) URLsHandler(w http.ResponseWriter, r *http.Request) {
	urls, err := h.library.ListURLs()
	if err != nil {
		log.Printf("Error listing urls: %v", err)
		http.Error(w, "Failed to list urls", http.StatusInternalServerError)
		return
	}
	if urls == nil {
		urls = []string{}
	}
	json.NewEncoder(w).Encode(urls)
}

func (h *APIHandler) DocumentsHandler(w http.ResponseWriter, r *http.Request) {
	docs, err := h.library.ListDocuments()
	if err != nil {
		log.Printf("Error listing documents: %v", err)
		http.Error(w, "Failed to list documents", http.StatusInternalServerError)
		return
	}

	type docResponse struct {
		URL       string `json:"url"`
		Content   string `json:"content"`
		CreatedAt string `json:"created_at"`
	}
	resp := make([]docResponse, 0, len(docs))
	for _, d := range docs {
		resp = append(resp, docResponse{
			URL:       d.URL,
			Content:   d.Content,
			CreatedAt: d.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	json.NewEncoder(w).Encode(resp)
}

func (h *APIHandler) ContentHandler(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		http.Error(w, "url required", http.StatusBadRequest)
		return
	}

	content, found, err := h.library.GetContent(url)
	if err != nil {
		log.Printf("Error getting content for %s: %v", url, err)
		http.Error(w, "Failed to get document content", http.StatusInternalServerError)
		return
	}
	if !found {
		http.Error(w, "Document not found", http.StatusNotFound)
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"url": url, "content": content})
}

type DeleteRequest struct {
	URL string `json:"url"`
}

func (h *APIHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	var req DeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.URL == "" {
		http.Error(w, "url required", http.StatusBadRequest)
		return
	}

	existed, err := h.library.Delete(req.URL)
	if err != nil {
		log.Printf("Error deleting %s: %v", req.URL, err)
		http.Error(w, "Failed to delete document", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]bool{"success": existed})
}

func (h *APIHandler) DeleteAllHandler(w http.ResponseWriter, r *http.Request) {
	count, err := h.library.DeleteAll()
	if err != nil {
		log.Printf("Error deleting all documents: %v", err)
		http.Error(w, "Failed to delete documents", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]any{"success": true, "deleted_count": count})
}

func (h *APIHandler) SessionsHandler(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.chatService.ListSessions()
	if err != nil {
		log.Printf("Error listing sessions: %v", err)
		http.Error(w, "Failed to list sessions", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(sessions)
}

type DeleteSessionRequest struct {
	SessionID string `json:"session_id"`
}

func (h *APIHandler) DeleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req DeleteSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.SessionID == "" {
		http.Error(w, "session_id required", http.StatusBadRequest)
		return
	}

	count, err := h.chatService.DeleteSession(req.SessionID)
	if err != nil {
		log.Printf("Error deleting session %s: %v", req.SessionID, err)
		http.Error(w, "Failed to delete session", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]any{"success": true, "deleted_count": count})
}

func (h *APIHandler) DeleteAllSessionsHandler(w http.ResponseWriter, r *http.Request) {
	count, err := h.chatService.DeleteAllSessions()
	if err != nil {
		log.Printf("Error deleting all sessions: %v", err)
		http.Error(w, "Failed to delete sessions", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]any{"success": true, "deleted_count": count})
}
