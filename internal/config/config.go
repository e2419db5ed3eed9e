package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Source kinds.
const (
	SourceDrive = "drive"
	SourceLocal = "local"
)

// Backends.
const (
	BackendOpenAI    = "openai"
	BackendHash      = "hash"
	BackendAnthropic = "anthropic"
)

// DefaultAnthropicModel replaces the Gemini default model id when the
// anthropic completion backend is selected.
const DefaultAnthropicModel = "claude-sonnet-4-5-20250929"

type Config struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`

	// Document source
	SourceKind         string `yaml:"source"`
	DriveFolder        string `yaml:"drive_folder"`
	ServiceAccountFile string `yaml:"service_account_file"`
	LocalDir           string `yaml:"local_dir"`

	// Shared key for the Gemini OpenAI-compatible endpoint
	APIKey string `yaml:"api_key"`

	// Embeddings
	EmbedBackend     string `yaml:"embed_backend"`
	EmbedBaseURL     string `yaml:"embed_base_url"`
	EmbedModel       string `yaml:"embed_model"`
	EmbedBatchSize   int    `yaml:"embed_batch_size"`
	EmbedConcurrency int    `yaml:"embed_concurrency"`
	HashDimensions   int    `yaml:"hash_dimensions"`

	// Completion
	LLMBackend      string `yaml:"llm_backend"`
	LLMBaseURL      string `yaml:"llm_base_url"`
	LLMModel        string `yaml:"llm_model"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	LLMMaxTokens    int    `yaml:"llm_max_tokens"`

	// Retrieval and chunking
	TopK         int `yaml:"top_k"`
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`

	// Loading
	TextEncodings        []string `yaml:"text_encodings"`
	PDFFallbackPdftotext bool     `yaml:"pdf_fallback_pdftotext"`
	MaxFileBytes         int64    `yaml:"max_file_bytes"`

	DriveRequestsPerSecond float64       `yaml:"drive_requests_per_second"`
	StatsWindow            time.Duration `yaml:"stats_window"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Port:     "8000",
		LogLevel: "info",

		SourceKind: SourceDrive,

		EmbedBackend:     BackendOpenAI,
		EmbedModel:       "text-embedding-004",
		EmbedBatchSize:   64,
		EmbedConcurrency: 4,
		HashDimensions:   512,

		LLMBackend:   BackendOpenAI,
		LLMModel:     "gemini-2.5-pro",
		LLMMaxTokens: 4096,

		TopK:         5,
		ChunkSize:    1000,
		ChunkOverlap: 200,

		TextEncodings:        []string{"utf-8", "latin-1", "cp1252"},
		PDFFallbackPdftotext: true,
		MaxFileBytes:         52428800, // 50MB

		DriveRequestsPerSecond: 8,
		StatsWindow:            1 * time.Hour,
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (if path is non-empty), then the environment. A .env file in the working
// directory is read into the environment first; it never overrides
// variables that are already set.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Port = envOr("PORT", c.Port)
	c.LogLevel = envOr("LOG_LEVEL", c.LogLevel)

	c.SourceKind = strings.ToLower(envOr("SOURCE", c.SourceKind))
	c.DriveFolder = envOr("DRIVE_FOLDER_LINK", c.DriveFolder)
	c.ServiceAccountFile = envOr("SERVICE_ACCOUNT_FILE", c.ServiceAccountFile)
	c.LocalDir = envOr("DOCS_DIR", c.LocalDir)

	c.APIKey = envOr("GOOGLE_API_KEY", c.APIKey)

	c.EmbedBackend = strings.ToLower(envOr("EMBED_BACKEND", c.EmbedBackend))
	c.EmbedBaseURL = envOr("EMBED_BASE_URL", c.EmbedBaseURL)
	c.EmbedModel = envOr("EMBED_MODEL", c.EmbedModel)
	c.EmbedBatchSize = envInt("EMBED_BATCH_SIZE", c.EmbedBatchSize)
	c.EmbedConcurrency = envInt("EMBED_CONCURRENCY", c.EmbedConcurrency)
	c.HashDimensions = envInt("HASH_DIMENSIONS", c.HashDimensions)

	c.LLMBackend = strings.ToLower(envOr("LLM_BACKEND", c.LLMBackend))
	c.LLMBaseURL = envOr("LLM_BASE_URL", c.LLMBaseURL)
	c.LLMModel = envOr("LLM_MODEL", c.LLMModel)
	c.AnthropicAPIKey = envOr("ANTHROPIC_API_KEY", c.AnthropicAPIKey)
	c.LLMMaxTokens = envInt("LLM_MAX_TOKENS", c.LLMMaxTokens)

	c.TopK = envInt("TOP_K", c.TopK)
	c.ChunkSize = envInt("CHUNK_SIZE", c.ChunkSize)
	c.ChunkOverlap = envInt("CHUNK_OVERLAP", c.ChunkOverlap)

	c.TextEncodings = envList("TEXT_ENCODINGS", c.TextEncodings)
	c.PDFFallbackPdftotext = envBool("PDF_FALLBACK_PDFTOTEXT", c.PDFFallbackPdftotext)
	c.MaxFileBytes = envInt64("MAX_FILE_BYTES", c.MaxFileBytes)

	c.DriveRequestsPerSecond = envFloat("DRIVE_REQUESTS_PER_SECOND", c.DriveRequestsPerSecond)
	c.StatsWindow = envDuration("LLM_STATS_WINDOW", c.StatsWindow)
}

// applyDefaults repairs tuning knobs that were set to nonsense. Values that
// decide correctness (top k, chunk sizes) are left for Validate to reject.
func (c *Config) applyDefaults() {
	d := Defaults()
	if c.Port == "" {
		c.Port = d.Port
	}
	if c.EmbedBatchSize <= 0 {
		c.EmbedBatchSize = d.EmbedBatchSize
	}
	if c.EmbedConcurrency <= 0 {
		c.EmbedConcurrency = d.EmbedConcurrency
	}
	if c.HashDimensions <= 0 {
		c.HashDimensions = d.HashDimensions
	}
	if c.LLMBackend == BackendAnthropic && c.LLMModel == d.LLMModel {
		c.LLMModel = DefaultAnthropicModel
	}
	if c.LLMMaxTokens <= 0 {
		c.LLMMaxTokens = d.LLMMaxTokens
	}
	if len(c.TextEncodings) == 0 {
		c.TextEncodings = d.TextEncodings
	}
	if c.StatsWindow <= 0 {
		c.StatsWindow = d.StatsWindow
	}
}

// Validate checks the startup preconditions. Any error is fatal.
func (c Config) Validate() error {
	switch c.SourceKind {
	case SourceDrive:
		if c.DriveFolder == "" {
			return fmt.Errorf("DRIVE_FOLDER_LINK is required for the drive source")
		}
		if c.ServiceAccountFile == "" {
			return fmt.Errorf("SERVICE_ACCOUNT_FILE is required for the drive source")
		}
	case SourceLocal:
		if c.LocalDir == "" {
			return fmt.Errorf("DOCS_DIR is required for the local source")
		}
	default:
		return fmt.Errorf("unknown SOURCE %q (want %s or %s)", c.SourceKind, SourceDrive, SourceLocal)
	}

	switch c.EmbedBackend {
	case BackendOpenAI:
		if c.APIKey == "" {
			return fmt.Errorf("GOOGLE_API_KEY is required for the %s embedder", BackendOpenAI)
		}
	case BackendHash:
	default:
		return fmt.Errorf("unknown EMBED_BACKEND %q", c.EmbedBackend)
	}

	switch c.LLMBackend {
	case BackendOpenAI:
		if c.APIKey == "" {
			return fmt.Errorf("GOOGLE_API_KEY is required for the %s completion backend", BackendOpenAI)
		}
	case BackendAnthropic:
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required for the %s completion backend", BackendAnthropic)
		}
	default:
		return fmt.Errorf("unknown LLM_BACKEND %q", c.LLMBackend)
	}

	if c.TopK <= 0 {
		return fmt.Errorf("TOP_K must be positive, got %d", c.TopK)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE), got %d", c.ChunkOverlap)
	}
	return nil
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

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
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

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// envList reads a comma-separated list, dropping empty items.
func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
