package main

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// Configuration constants
var (
	// OpenRouterAPIKey is the API key for OpenRouter
	OpenRouterAPIKey string

	// OpenRouterAPIURL is the endpoint for OpenRouter API
	OpenRouterAPIURL = "https://openrouter.ai/api/v1/chat/completions"

	// OllamaAPIURL is the optional local Ollama endpoint. Empty disables
	// "ollama/<name>" model routing.
	OllamaAPIURL = ""

	// CouncilModels is the default list of models queried in parallel
	CouncilModels = []string{
		"openai/gpt-5.1",
		"google/gemini-3-pro-preview",
		"anthropic/claude-sonnet-4.5",
		"x-ai/grok-4",
	}

	// ChairmanModel is the default model used for final synthesis
	ChairmanModel = "google/gemini-3-pro-preview"

	// TitleModel is the fast model used for conversation title generation
	TitleModel = "google/gemini-2.5-flash"

	// DataDir is the directory for conversation storage
	DataDir = "data/conversations"

	// Timeout constants
	ModelQueryTimeout = 120 * time.Second
	TitleGenTimeout   = 30 * time.Second

	// CORS allowed origins (configurable via environment)
	// In development (empty/default), allows any localhost port
	// In production, set CORS_ALLOWED_ORIGINS environment variable
	CORSAllowedOrigins = []string{}

	// MaxRequestBodySize is the maximum allowed request body size (1MB)
	MaxRequestBodySize int64 = 1 << 20

	// FetchCacheTTL is the time-to-live for fetched URL content (default 5 minutes)
	FetchCacheTTL = 5 * time.Minute
)

// CouncilFile is the optional YAML file describing the model roster.
// Environment variables still win over values loaded from it.
type CouncilFile struct {
	CouncilModels []string `yaml:"council_models"`
	ChairmanModel string   `yaml:"chairman_model"`
	TitleModel    string   `yaml:"title_model"`
}

// LoadConfig loads configuration from council.yaml (if present) and
// environment variables.
func LoadConfig() {
	// Load .env file - try multiple locations
	envLocations := []string{
		".env",    // Current directory
		"../.env", // Parent directory
	}

	// Try to find and load .env file
	envLoaded := false
	for _, envPath := range envLocations {
		absPath, err := filepath.Abs(envPath)
		if err != nil {
			continue
		}

		if _, err := os.Stat(absPath); err == nil {
			if err := godotenv.Load(absPath); err == nil {
				log.Printf("Loaded .env from: %s", absPath)
				envLoaded = true
				break
			}
		}
	}

	if !envLoaded {
		log.Printf("Warning: .env file not found in any expected location")
	}

	// Optional YAML roster, overridden below by environment variables
	if path := councilFilePath(); path != "" {
		if err := loadCouncilFile(path); err != nil {
			log.Fatalf("Failed to load council file %s: %v", path, err)
		}
		log.Printf("Loaded council roster from: %s", path)
	}

	// Get OpenRouter API key
	OpenRouterAPIKey = os.Getenv("OPENROUTER_API_KEY")
	if OpenRouterAPIKey == "" {
		log.Fatal("OPENROUTER_API_KEY environment variable is required")
	}

	if url := os.Getenv("OPENROUTER_API_URL"); url != "" {
		OpenRouterAPIURL = url
	}

	// Optional local Ollama endpoint
	OllamaAPIURL = os.Getenv("OLLAMA_API_URL")

	// Model roster overrides
	if models := envList("COUNCIL_MODELS"); len(models) > 0 {
		CouncilModels = models
	}
	if chairman := os.Getenv("CHAIRMAN_MODEL"); chairman != "" {
		ChairmanModel = chairman
	}
	if title := os.Getenv("TITLE_MODEL"); title != "" {
		TitleModel = title
	}

	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		DataDir = dataDir
	}

	// Load CORS origins from environment if provided
	if origins := envList("CORS_ALLOWED_ORIGINS"); len(origins) > 0 {
		CORSAllowedOrigins = origins
	}

	log.Println("Configuration loaded successfully")
}

// councilFilePath returns the council roster file to load, or empty if none.
// COUNCIL_CONFIG_FILE wins; otherwise council.yaml in the current directory
// is picked up when it exists.
func councilFilePath() string {
	if path := os.Getenv("COUNCIL_CONFIG_FILE"); path != "" {
		return path
	}
	if _, err := os.Stat("council.yaml"); err == nil {
		return "council.yaml"
	}
	return ""
}

// loadCouncilFile reads and applies a YAML model roster.
func loadCouncilFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var file CouncilFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return err
	}

	if len(file.CouncilModels) > 0 {
		CouncilModels = file.CouncilModels
	}
	if file.ChairmanModel != "" {
		ChairmanModel = file.ChairmanModel
	}
	if file.TitleModel != "" {
		TitleModel = file.TitleModel
	}

	return nil
}

// envList parses a comma-separated environment variable into a slice,
// dropping empty items. Returns nil if the variable is unset or blank.
func envList(name string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return nil
	}

	var items []string
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
