package config

import (
	"os"
	"strconv"
)

// Config carries runtime settings for the CLI and batch runners, loaded from
// the environment. Allocation and validation rule sets live in Rules and are
// passed explicitly to the components that use them.
type Config struct {
	// Worker pool
	Workers int

	// Batch defaults
	OutputDir  string
	LayoutHint string
	RulesPath  string

	// PDF text layer
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Workers:              envInt("WORKERS", 4),
		OutputDir:            envOr("OUTPUT_DIR", ""),
		LayoutHint:           os.Getenv("LAYOUT_HINT"),
		RulesPath:            os.Getenv("RULES_FILE"),
		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
