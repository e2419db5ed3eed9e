// Package loader turns files on disk into provenance-tagged text segments.
// It never fails: anything that cannot be read is logged and skipped.
package loader

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docqa/internal/doctree"
	"github.com/dgallion1/docqa/internal/parser"
)

// Skip reasons reported per file.
const (
	ReasonUnsupported = "unsupported"
	ReasonOpen        = "open"
	ReasonTooLarge    = "too_large"
	ReasonUndecodable = "undecodable"
	ReasonParse       = "parse"
	ReasonPanic       = "panic"
	ReasonEmpty       = "empty"
	ReasonDuplicate   = "duplicate"
	ReasonCancelled   = "cancelled"
)

// Loader parses files with the parser package.
type Loader struct {
	opts         parser.Options
	maxFileBytes int64
	log          *slog.Logger
}

// New creates a Loader. maxFileBytes <= 0 disables the size cap.
func New(opts parser.Options, maxFileBytes int64, log *slog.Logger) *Loader {
	return &Loader{opts: opts, maxFileBytes: maxFileBytes, log: log}
}

// Report summarises a LoadAll run.
type Report struct {
	Files    int           `json:"files"`
	Loaded   int           `json:"loaded"`
	Segments int           `json:"segments"`
	Skipped  []SkippedFile `json:"skipped,omitempty"`
}

// SkippedFile names a file that contributed no segments and why.
type SkippedFile struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Load extracts the segments of a single file. Failures yield no segments.
func (l *Loader) Load(ctx context.Context, path string) []doctree.Segment {
	segs, _, _ := l.load(ctx, path)
	return segs
}

// LoadAll loads every path in order. Files whose extracted text is identical
// to an earlier file are skipped as duplicates.
func (l *Loader) LoadAll(ctx context.Context, paths []string) ([]doctree.Segment, Report) {
	var (
		all    []doctree.Segment
		report = Report{Files: len(paths)}
		seen   = make(map[string]string)
	)
	for _, path := range paths {
		name := filepath.Base(path)
		segs, hash, reason := l.load(ctx, path)
		if reason != "" {
			report.Skipped = append(report.Skipped, SkippedFile{Name: name, Reason: reason})
			continue
		}
		if first, dup := seen[hash]; dup {
			l.log.Info("duplicate content, skipping", "file", name, "duplicate_of", first)
			report.Skipped = append(report.Skipped, SkippedFile{Name: name, Reason: ReasonDuplicate})
			continue
		}
		seen[hash] = name
		all = append(all, segs...)
		report.Loaded++
	}
	report.Segments = len(all)
	return all, report
}

// load returns the segments, the content hash of their text, and a skip
// reason when the file produced nothing.
func (l *Loader) load(ctx context.Context, path string) (segs []doctree.Segment, hash, reason string) {
	name := filepath.Base(path)
	log := l.log.With("file", name)

	defer func() {
		if r := recover(); r != nil {
			log.Error("parser panicked", "panic", fmt.Sprint(r))
			segs, hash, reason = nil, "", ReasonPanic
		}
	}()

	if err := ctx.Err(); err != nil {
		log.Debug("ingestion cancelled, skipping", "error", err)
		return nil, "", ReasonCancelled
	}

	p, err := parser.ForFile(name, l.opts)
	if err != nil {
		log.Warn("skipping file", "error", err)
		return nil, "", ReasonUnsupported
	}

	f, err := os.Open(path)
	if err != nil {
		log.Error("open failed", "error", err)
		return nil, "", ReasonOpen
	}
	defer f.Close()

	var r io.Reader = f
	if l.maxFileBytes > 0 {
		if info, err := f.Stat(); err == nil && info.Size() > l.maxFileBytes {
			log.Warn("file too large, skipping", "size", info.Size(), "max", l.maxFileBytes)
			return nil, "", ReasonTooLarge
		}
		r = io.LimitReader(f, l.maxFileBytes)
	}

	tree, err := p.Parse(r, name)
	if err != nil {
		if errors.Is(err, parser.ErrUndecodable) {
			log.Warn("could not decode text, skipping", "error", err)
			return nil, "", ReasonUndecodable
		}
		log.Error("parse failed", "error", err)
		return nil, "", ReasonParse
	}

	segs = tree.Segments(name)
	if len(segs) == 0 {
		log.Warn("no extractable text")
		return nil, "", ReasonEmpty
	}
	log.Info("loaded file", "segments", len(segs))
	return segs, ContentHashHex([]byte(flattenText(segs))), ""
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h)
}

func flattenText(segs []doctree.Segment) string {
	var sb strings.Builder
	for i, s := range segs {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(s.Text)
	}
	return sb.String()
}
