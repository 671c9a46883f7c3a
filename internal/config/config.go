package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Port string

	// Session tokens minted by the external identity provider
	SessionSecret string

	// Extraction
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OpenAIModel       string
	ExtractionTimeout time.Duration

	// When true, filing an invoice into an explicitly supplied pocket
	// requires the caller to own or be a member of that pocket.
	PocketOwnershipOnCreate bool
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		Port: getEnv("PORT", "8080"),

		SessionSecret: getEnv("SESSION_SECRET", "fallback-secret-key-for-dev-only"),

		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o"),

		PocketOwnershipOnCreate: getEnv("POCKET_OWNERSHIP_ON_CREATE", "false") == "true",
	}

	if config.OpenAIAPIKey == "" {
		log.Println("Warning: OPENAI_API_KEY is not set, invoice extraction will fail")
	}

	timeoutStr := getEnv("EXTRACTION_TIMEOUT", "60s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		log.Printf("Warning: invalid EXTRACTION_TIMEOUT value '%s', falling back to 60s\n", timeoutStr)
		timeout = 60 * time.Second
	}
	config.ExtractionTimeout = timeout

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
