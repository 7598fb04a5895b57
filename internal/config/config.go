package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL      string
	HTTPPort         string
	LogLevel         string
	GroqAPIKey       string
	GeminiAPIKey     string
	OllamaBaseURL    string
	OllamaEmbedModel string
	OllamaChatModel  string
}

var AppConfig Config

func LoadConfig() {
	err := godotenv.Load() // Load .env file if it exists
	if err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = Config{
		DatabaseURL:      getEnv("DATABASE_URL", "sitechat.db"),
		HTTPPort:         getEnv("HTTP_PORT", "8080"),
		LogLevel:         getEnv("LOG_LEVEL", "INFO"),
		GroqAPIKey:       getEnv("GROQ_API_KEY", ""),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		OllamaBaseURL:    getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaEmbedModel: getEnv("OLLAMA_EMBED_MODEL", "all-minilm"),
		OllamaChatModel:  getEnv("OLLAMA_CHAT_MODEL", "llama3.2"),
	}

	// Hosted completion providers are optional; without keys the gateway starts
	// at the local rung. Ollama itself is pinged at startup because embeddings
	// have no fallback provider.
	if AppConfig.GroqAPIKey == "" {
		log.Println("GROQ_API_KEY not set, primary completion provider disabled")
	}
	if AppConfig.GeminiAPIKey == "" {
		log.Println("GEMINI_API_KEY not set, secondary completion provider disabled")
	}
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
