package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sitechat.io/sitechat/internal/api"
	"sitechat.io/sitechat/internal/config"
	"sitechat.io/sitechat/internal/core"
	"sitechat.io/sitechat/internal/crawler"
	"sitechat.io/sitechat/internal/embed"
	"sitechat.io/sitechat/internal/index"
	"sitechat.io/sitechat/internal/llm"
	"sitechat.io/sitechat/internal/store"
)

func main() {
	// Load configuration
	config.LoadConfig()

	// Setup logging
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if config.AppConfig.LogLevel == "DEBUG" {
		log.Println("Service starting in DEBUG mode")
	}

	// Command line flags for one-shot crawl ingestion
	crawlFlag := flag.String("crawl", "", "Crawl the given seed URL, ingest the pages and exit")
	maxPagesFlag := flag.Int("max-pages", 50, "Maximum pages to crawl with -crawl")
	depthFlag := flag.Int("depth", 2, "Maximum link depth to crawl with -crawl")
	flag.Parse()

	// Initialize database store
	dbStore, err := store.NewSQLiteStore(config.AppConfig.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer dbStore.Close()

	// Initialize the embedding engine. Embeddings are the only path to
	// indexing and search, so an unreachable model is fatal at startup.
	embedder := embed.NewOllamaEmbedder(config.AppConfig.OllamaBaseURL, config.AppConfig.OllamaEmbedModel)
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 10*time.Second)
	if err := embedder.Ping(pingCtx); err != nil {
		cancelPing()
		log.Fatalf("Embedding model unavailable: %v", err)
	}
	cancelPing()

	// Initialize the vector index and warm it from persisted documents
	idx := index.NewManager()
	library := core.NewLibrary(dbStore, embedder, idx)
	if err := library.ReloadIndex(); err != nil {
		log.Fatalf("Failed to build vector index: %v", err)
	}

	// Handle one-shot crawl ingestion if the flag is set
	if *crawlFlag != "" {
		log.Printf("Starting crawl of %s (max %d pages, depth %d)...", *crawlFlag, *maxPagesFlag, *depthFlag)
		pages, err := crawler.New().Crawl(context.Background(), *crawlFlag, *maxPagesFlag, *depthFlag)
		if err != nil {
			log.Fatalf("Crawl failed: %v", err)
		}
		ingested := 0
		for _, page := range pages {
			if _, err := library.Ingest(context.Background(), page.URL, page.Text); err != nil {
				log.Printf("Failed to ingest %s: %v. Skipping.", page.URL, err)
				continue
			}
			ingested++
		}
		log.Printf("Crawl complete. Ingested %d/%d pages. Exiting.", ingested, len(pages))
		os.Exit(0)
	}

	// Assemble the completion fallback ladder: hosted providers first when
	// configured, the local model last, the canned answer behind all of them.
	var providers []llm.Provider
	if config.AppConfig.GroqAPIKey != "" {
		providers = append(providers, llm.NewGroqProvider(config.AppConfig.GroqAPIKey))
	}
	if config.AppConfig.GeminiAPIKey != "" {
		gemini, err := llm.NewGeminiProvider(config.AppConfig.GeminiAPIKey)
		if err != nil {
			log.Fatalf("Failed to initialize Gemini provider: %v", err)
		}
		defer gemini.Close()
		providers = append(providers, gemini)
	}
	providers = append(providers,
		llm.NewOllamaProvider(config.AppConfig.OllamaBaseURL, config.AppConfig.OllamaChatModel))
	gateway := llm.NewGateway(providers...)

	// Initialize core services
	retriever := core.NewRetriever(dbStore, embedder, idx)
	chatService := core.NewChatService(dbStore, retriever, gateway)

	// Initialize API Handler and Router
	apiHandler := api.NewAPIHandler(library, chatService, crawler.New())
	router := api.NewRouter(apiHandler)

	// Start HTTP server
	serverAddr := fmt.Sprintf(":%s", config.AppConfig.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // Crawls and LLM calls can take time
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		log.Printf("Starting server on %s. Press Ctrl+C to quit.", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", serverAddr, err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give active connections time to finish.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting gracefully")
}
