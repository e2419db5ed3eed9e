// Package pipeline runs ingestion end to end: fetch, load, chunk, embed.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgallion1/docqa/internal/chunker"
	"github.com/dgallion1/docqa/internal/embed"
	"github.com/dgallion1/docqa/internal/index"
	"github.com/dgallion1/docqa/internal/loader"
	"github.com/dgallion1/docqa/internal/parser"
	"github.com/dgallion1/docqa/internal/source"
)

// ErrNoDocuments is returned when no file yields any text.
var ErrNoDocuments = errors.New("no supported documents could be loaded")

// Options configure every ingestion phase.
type Options struct {
	Parser       parser.Options
	MaxFileBytes int64
	Chunking     chunker.Config
	Index        index.Options
}

// Build ingests src and returns the finished index. Any error is fatal to
// startup. The source's scratch directory is always removed.
func Build(ctx context.Context, src source.Source, emb embed.Embedder, opts Options, log *slog.Logger) (*index.Index, Report, error) {
	run := newRun(src.Name())
	log = log.With("run_id", run.id, "source", src.Name())

	fail := func(err error) (*index.Index, Report, error) {
		log.Error("ingestion failed", "error", err)
		run.addError(err.Error())
		run.setStatus(StatusFailed)
		return nil, run.Report(), err
	}

	// Phase 1: Fetch
	log.Info("fetching documents")
	batch, err := src.Fetch(ctx)
	if err != nil {
		return fail(fmt.Errorf("fetch: %w", err))
	}
	defer func() {
		if err := batch.Cleanup(); err != nil {
			log.Warn("scratch cleanup failed", "error", err)
		}
	}()
	for _, name := range batch.Skipped {
		run.skip(loader.SkippedFile{Name: name, Reason: "not fetched"})
	}
	run.update(func(p *Progress) { p.FilesFetched = len(batch.Paths) })

	// Phase 2: Load
	run.setStatus(StatusLoading)
	l := loader.New(opts.Parser, opts.MaxFileBytes, log)
	segments, lr := l.LoadAll(ctx, batch.Paths)
	run.skip(lr.Skipped...)
	run.update(func(p *Progress) {
		p.FilesLoaded = lr.Loaded
		p.Segments = lr.Segments
	})
	log.Info("loaded documents", "files", lr.Files, "loaded", lr.Loaded, "segments", lr.Segments)
	if err := ctx.Err(); err != nil {
		return fail(err)
	}
	if len(segments) == 0 {
		return fail(ErrNoDocuments)
	}

	// Phase 3: Chunk
	run.setStatus(StatusChunking)
	chunks := chunker.Split(segments, opts.Chunking)
	run.update(func(p *Progress) { p.Chunks = len(chunks) })
	log.Info("chunked documents", "chunks", len(chunks))

	// Phase 4: Embed
	run.setStatus(StatusEmbedding)
	ix, err := index.Build(ctx, emb, chunks, opts.Index)
	if err != nil {
		return fail(fmt.Errorf("build index: %w", err))
	}

	run.setStatus(StatusCompleted)
	st := ix.Stats()
	log.Info("index ready", "chunks", st.Chunks, "dimension", st.Dimension, "model", st.Model, "build_time", st.BuildTime)
	return ix, run.Report(), nil
}
