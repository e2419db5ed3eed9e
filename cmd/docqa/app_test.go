package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgallion1/docqa/internal/config"
	"github.com/dgallion1/docqa/internal/embed"
	"github.com/dgallion1/docqa/internal/llm"
	"github.com/dgallion1/docqa/internal/pipeline"
	"github.com/dgallion1/docqa/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func localConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sky.txt"), []byte("The sky is blue."), 0o644))

	cfg := config.Defaults()
	cfg.SourceKind = config.SourceLocal
	cfg.LocalDir = dir
	cfg.EmbedBackend = config.BackendHash
	cfg.HashDimensions = 32
	return cfg
}

func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "warn")
	log.Info("hidden")
	log.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	buf.Reset()
	newLogger(&buf, "nonsense").Info("fallback")
	assert.Contains(t, buf.String(), "fallback")
}

func TestNewEmbedder(t *testing.T) {
	cfg := config.Defaults()
	cfg.EmbedBackend = config.BackendHash
	cfg.HashDimensions = 16
	emb, err := newEmbedder(cfg)
	require.NoError(t, err)
	assert.IsType(t, &embed.Hash{}, emb)
	assert.Equal(t, "hash-16", emb.Model())

	cfg.EmbedBackend = config.BackendOpenAI
	emb, err = newEmbedder(cfg)
	require.NoError(t, err)
	assert.Equal(t, "text-embedding-004", emb.Model())

	cfg.EmbedBackend = "bogus"
	_, err = newEmbedder(cfg)
	assert.Error(t, err)
}

func TestNewCompleter(t *testing.T) {
	cfg := config.Defaults()
	c, closeFn, err := newCompleter(cfg)
	require.NoError(t, err)
	closeFn()
	assert.IsType(t, &llm.OpenAI{}, c)
	assert.Equal(t, "gemini-2.5-pro", c.Model())

	cfg.LLMBackend = config.BackendAnthropic
	cfg.LLMModel = config.DefaultAnthropicModel
	c, closeFn, err = newCompleter(cfg)
	require.NoError(t, err)
	closeFn()
	assert.IsType(t, &llm.Anthropic{}, c)
}

func TestNewSource_Local(t *testing.T) {
	cfg := localConfig(t)
	src, err := newSource(context.Background(), cfg, newLogger(&bytes.Buffer{}, "error"))
	require.NoError(t, err)
	assert.IsType(t, &source.Local{}, src)
}

func TestPipelineOptions(t *testing.T) {
	cfg := config.Defaults()
	cfg.ChunkSize = 300
	cfg.ChunkOverlap = 30
	cfg.EmbedBatchSize = 8
	opts := pipelineOptions(cfg)
	assert.Equal(t, 300, opts.Chunking.ChunkSize)
	assert.Equal(t, 30, opts.Chunking.ChunkOverlap)
	assert.Equal(t, 8, opts.Index.BatchSize)
	assert.Equal(t, cfg.TextEncodings, opts.Parser.TextEncodings)
	assert.Equal(t, cfg.MaxFileBytes, opts.MaxFileBytes)
}

func TestBuildIndex_Local(t *testing.T) {
	cfg := localConfig(t)
	ix, rep, err := buildIndex(context.Background(), cfg, newLogger(&bytes.Buffer{}, "error"))
	require.NoError(t, err)
	assert.Equal(t, 1, ix.Len())
	assert.Equal(t, pipeline.StatusCompleted, rep.Status)
}

func TestBuildIndex_EmptyDirectory(t *testing.T) {
	cfg := localConfig(t)
	cfg.LocalDir = t.TempDir()
	_, rep, err := buildIndex(context.Background(), cfg, newLogger(&bytes.Buffer{}, "error"))
	assert.ErrorIs(t, err, pipeline.ErrNoDocuments)
	assert.Equal(t, pipeline.StatusFailed, rep.Status)
}

func TestIndexCommand(t *testing.T) {
	cfg := localConfig(t)
	t.Setenv("SOURCE", "")
	t.Setenv("DOCS_DIR", cfg.LocalDir)
	t.Setenv("EMBED_BACKEND", "hash")
	t.Setenv("HASH_DIMENSIONS", "32")
	t.Setenv("LLM_BACKEND", "openai")
	t.Setenv("GOOGLE_API_KEY", "test-key")
	t.Chdir(t.TempDir())

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs([]string{"index", "--source", "local"})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		sourceOverride = ""
	})
	require.NoError(t, rootCmd.Execute(), stderr.String())

	var out struct {
		Index struct {
			Chunks int    `json:"chunks"`
			Model  string `json:"model"`
		} `json:"index"`
		Ingest pipeline.Report `json:"ingest"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out), stdout.String())
	assert.Equal(t, 1, out.Index.Chunks)
	assert.Equal(t, "hash-32", out.Index.Model)
	assert.Equal(t, pipeline.StatusCompleted, out.Ingest.Status)
}
