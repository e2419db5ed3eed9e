package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/dgallion1/docqa/internal/chunker"
	"github.com/dgallion1/docqa/internal/config"
	"github.com/dgallion1/docqa/internal/embed"
	"github.com/dgallion1/docqa/internal/index"
	"github.com/dgallion1/docqa/internal/llm"
	"github.com/dgallion1/docqa/internal/parser"
	"github.com/dgallion1/docqa/internal/pipeline"
	"github.com/dgallion1/docqa/internal/source"
)

// loadConfig reads the configuration and applies command line overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if sourceOverride != "" {
		cfg.SourceKind = strings.ToLower(sourceOverride)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func newSource(ctx context.Context, cfg config.Config, log *slog.Logger) (source.Source, error) {
	switch cfg.SourceKind {
	case config.SourceLocal:
		return source.NewLocal(cfg.LocalDir, log), nil
	case config.SourceDrive:
		return source.NewDrive(ctx, cfg.ServiceAccountFile, cfg.DriveFolder, source.DriveOptions{
			RequestsPerSecond: cfg.DriveRequestsPerSecond,
			MaxFileBytes:      cfg.MaxFileBytes,
		}, log)
	}
	return nil, fmt.Errorf("unknown source %q", cfg.SourceKind)
}

func newEmbedder(cfg config.Config) (embed.Embedder, error) {
	switch cfg.EmbedBackend {
	case config.BackendHash:
		return embed.NewHash(cfg.HashDimensions), nil
	case config.BackendOpenAI:
		return embed.NewOpenAI(embed.OpenAIConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.EmbedBaseURL,
			Model:   cfg.EmbedModel,
		}), nil
	}
	return nil, fmt.Errorf("unknown embed backend %q", cfg.EmbedBackend)
}

// newCompleter returns the completion client and a cleanup func.
func newCompleter(cfg config.Config) (llm.Completer, func(), error) {
	switch cfg.LLMBackend {
	case config.BackendOpenAI:
		return llm.NewOpenAI(llm.OpenAIConfig{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.LLMBaseURL,
			Model:     cfg.LLMModel,
			MaxTokens: cfg.LLMMaxTokens,
		}), func() {}, nil
	case config.BackendAnthropic:
		c := llm.NewAnthropic(cfg.AnthropicAPIKey, cfg.LLMModel, cfg.LLMMaxTokens)
		if cfg.LLMBaseURL != "" {
			c.WithURL(cfg.LLMBaseURL)
		}
		return c, c.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown llm backend %q", cfg.LLMBackend)
}

func pipelineOptions(cfg config.Config) pipeline.Options {
	return pipeline.Options{
		Parser: parser.Options{
			TextEncodings:        cfg.TextEncodings,
			PDFFallbackPdftotext: cfg.PDFFallbackPdftotext,
		},
		MaxFileBytes: cfg.MaxFileBytes,
		Chunking: chunker.Config{
			ChunkSize:    cfg.ChunkSize,
			ChunkOverlap: cfg.ChunkOverlap,
		},
		Index: index.Options{
			BatchSize:   cfg.EmbedBatchSize,
			Concurrency: cfg.EmbedConcurrency,
		},
	}
}

// buildIndex runs ingestion once. Every error it returns is fatal.
func buildIndex(ctx context.Context, cfg config.Config, log *slog.Logger) (*index.Index, pipeline.Report, error) {
	src, err := newSource(ctx, cfg, log)
	if err != nil {
		return nil, pipeline.Report{}, fmt.Errorf("open source: %w", err)
	}
	emb, err := newEmbedder(cfg)
	if err != nil {
		return nil, pipeline.Report{}, err
	}
	return pipeline.Build(ctx, src, emb, pipelineOptions(cfg), log)
}
