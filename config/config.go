// Package config collects all environment configuration in one place so
// components receive explicit values instead of reading the environment at
// call time.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds the full service configuration.
type Config struct {
	ListenAddr string

	MongoURI        string
	MongoDatabase   string
	MongoCollection string

	UploadDir string

	// NominatimBaseURL overrides the reverse geocoding endpoint; empty
	// selects the public Nominatim instance.
	NominatimBaseURL string

	// AnthropicAPIKey may be empty: the AI guess endpoint then fails with
	// a retryable error and the rest of the service works normally.
	AnthropicAPIKey string
	AnthropicModel  string

	JWTSecret    string
	PasswordHash string
}

// Load reads .env (if present) and the environment.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		ListenAddr:       getenv("LISTEN_ADDR", ":8080"),
		MongoURI:         getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:    getenv("MONGO_DATABASE", "geosnap"),
		MongoCollection:  getenv("MONGO_COLLECTION", "records"),
		UploadDir:        getenv("UPLOAD_DIR", "./.uploads"),
		NominatimBaseURL: os.Getenv("NOMINATIM_BASE_URL"),
		AnthropicAPIKey:  os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:   os.Getenv("ANTHROPIC_MODEL"),
		JWTSecret:        getenv("JWT_SECRET", "dev-secret-change-me"),
		PasswordHash:     os.Getenv("PW"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
