package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds server configuration.
type Config struct {
	// Addr is the listen address for the HTTP server.
	Addr string
	// DocPath is the path of the persisted document file.
	DocPath string
	// SaveInterval is the period of the background save tick.
	SaveInterval time.Duration
	// MaxDocBytes is the hard cap on document size after any mutation.
	MaxDocBytes int
	// MaxImageBytes is the hard cap on inbound image payloads after decode.
	MaxImageBytes int
	// ImageMaxDimension is the bounding box for image downscaling.
	ImageMaxDimension int
	// ImageJPEGQuality is the re-encode quality (1-100).
	ImageJPEGQuality int
	// CursorTimeout is relayed to clients for their cursor fade; the server
	// does not enforce it.
	CursorTimeout  time.Duration
	Debug          bool
	LogLevel       string
	AllowedOrigins []string
}

// Overrides optionally overrides values from environment variables.
//
// A nil pointer means "use the environment/default value".
type Overrides struct {
	Addr    *string
	DocPath *string
	Debug   *bool
}

// Load loads server configuration from environment variables (plus an
// optional .env file) and applies any explicit overrides.
func Load(overrides Overrides) (*Config, error) {
	// Missing .env is the common case; real env vars still apply.
	_ = godotenv.Load()

	port := envInt("PORT", 3000)
	addr := fmt.Sprintf(":%d", port)
	if overrides.Addr != nil {
		addr = *overrides.Addr
	}

	docPath := os.Getenv("DOC_PATH")
	if docPath == "" {
		docPath = "./doc.txt"
	}
	if overrides.DocPath != nil {
		docPath = *overrides.DocPath
	}

	maxDocMB := envInt("MAX_DOC_MB", 50)
	if maxDocMB <= 0 {
		return nil, fmt.Errorf("MAX_DOC_MB must be positive, got %d", maxDocMB)
	}
	maxImageKB := envInt("MAX_IMAGE_KB", 250)
	if maxImageKB <= 0 {
		return nil, fmt.Errorf("MAX_IMAGE_KB must be positive, got %d", maxImageKB)
	}

	quality := envInt("IMAGE_JPEG_QUALITY", 40)
	if quality < 1 || quality > 100 {
		return nil, fmt.Errorf("IMAGE_JPEG_QUALITY must be in 1..100, got %d", quality)
	}

	debug := false
	if debugStr := os.Getenv("DEBUG"); debugStr == "true" || debugStr == "1" {
		debug = true
	}
	if overrides.Debug != nil {
		debug = *overrides.Debug
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" && debug {
		logLevel = "debug"
	}

	return &Config{
		Addr:              addr,
		DocPath:           docPath,
		SaveInterval:      time.Duration(envInt("SAVE_INTERVAL", 15000)) * time.Millisecond,
		MaxDocBytes:       maxDocMB << 20,
		MaxImageBytes:     maxImageKB << 10,
		ImageMaxDimension: envInt("IMAGE_MAX_DIMENSION", 400),
		ImageJPEGQuality:  quality,
		CursorTimeout:     time.Duration(envInt("CURSOR_TIMEOUT", 3000)) * time.Millisecond,
		Debug:             debug,
		LogLevel:          logLevel,
		AllowedOrigins:    []string{"*"}, // Trusted-peer deployment, allow all origins
	}, nil
}

func envInt(key string, fallback int) int {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return fallback
}
