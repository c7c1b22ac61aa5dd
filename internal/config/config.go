package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL   string
	Port          string
	SessionSecret string
}

// Load reads configuration from the environment, optionally seeded from a
// .env file.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading env vars from system")
	}

	cfg := &Config{
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		Port:          os.Getenv("PORT"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
	}

	if cfg.DatabaseURL == "" {
		// Fallback for local dev if not set
		cfg.DatabaseURL = "host=localhost user=postgres password=postgres dbname=inkwell port=5432 sslmode=disable"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = "secret_key_change_me"
	}

	return cfg
}
