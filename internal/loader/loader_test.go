package loader

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgallion1/docqa/internal/parser"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_TextFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "sky.txt", "The sky is blue.")

	l := New(parser.DefaultOptions(), 0, testLogger())
	segs := l.Load(context.Background(), path)
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}
	if segs[0].Text != "The sky is blue." || segs[0].Source != "sky.txt" {
		t.Errorf("unexpected segment: %+v", segs[0])
	}
}

func TestLoad_NeverFails(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		path string
	}{
		{"unsupported", writeFile(t, dir, "photo.png", "\x89PNG")},
		{"missing", filepath.Join(dir, "gone.txt")},
		{"empty", writeFile(t, dir, "empty.txt", "   \n\n ")},
		{"corrupt pdf", writeFile(t, dir, "broken.pdf", "not a pdf")},
		{"corrupt xlsx", writeFile(t, dir, "broken.xlsx", "not a zip")},
	}
	opts := parser.DefaultOptions()
	opts.PDFFallbackPdftotext = false
	l := New(opts, 0, testLogger())
	for _, tt := range tests {
		if segs := l.Load(context.Background(), tt.path); len(segs) != 0 {
			t.Errorf("%s: expected no segments, got %d", tt.name, len(segs))
		}
	}
}

func TestLoadAll_ReportAndDuplicates(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "a.txt", "alpha"),
		writeFile(t, dir, "b.md", "# Beta\n\nbeta body"),
		writeFile(t, dir, "c.txt", "alpha"),
		writeFile(t, dir, "d.bin", "????"),
	}

	l := New(parser.DefaultOptions(), 0, testLogger())
	segs, report := l.LoadAll(context.Background(), paths)

	if report.Files != 4 || report.Loaded != 2 {
		t.Errorf("unexpected counts: %+v", report)
	}
	if report.Segments != len(segs) || len(segs) != 2 {
		t.Errorf("expected 2 segments, got %d (report %d)", len(segs), report.Segments)
	}
	if segs[0].Source != "a.txt" || segs[1].Source != "b.md" {
		t.Errorf("order not preserved: %q, %q", segs[0].Source, segs[1].Source)
	}
	if segs[1].Section != "Beta" {
		t.Errorf("expected section %q, got %q", "Beta", segs[1].Section)
	}

	reasons := map[string]string{}
	for _, s := range report.Skipped {
		reasons[s.Name] = s.Reason
	}
	if reasons["c.txt"] != ReasonDuplicate {
		t.Errorf("expected c.txt skipped as duplicate, got %q", reasons["c.txt"])
	}
	if reasons["d.bin"] != ReasonUnsupported {
		t.Errorf("expected d.bin skipped as unsupported, got %q", reasons["d.bin"])
	}
}

func TestLoadAll_SizeCapAndUndecodable(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "big.txt", "0123456789abcdef"),
		writeFile(t, dir, "bad.txt", "\xff\xfe"),
		writeFile(t, dir, "ok.txt", "fine"),
	}

	opts := parser.Options{TextEncodings: []string{"utf-8"}}
	l := New(opts, 8, testLogger())
	_, report := l.LoadAll(context.Background(), paths)

	if report.Loaded != 1 {
		t.Fatalf("expected only ok.txt to load, got %+v", report)
	}
	want := map[string]string{"big.txt": ReasonTooLarge, "bad.txt": ReasonUndecodable}
	for _, s := range report.Skipped {
		if want[s.Name] != s.Reason {
			t.Errorf("%s: expected reason %q, got %q", s.Name, want[s.Name], s.Reason)
		}
	}
}

func TestLoadAll_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", "alpha")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := New(parser.DefaultOptions(), 0, testLogger())
	segs, report := l.LoadAll(ctx, []string{path})
	if len(segs) != 0 || report.Loaded != 0 || len(report.Skipped) != 1 {
		t.Fatalf("expected file skipped on cancelled context, got %+v", report)
	}
	if report.Skipped[0].Reason != ReasonCancelled {
		t.Errorf("expected reason %q, got %q", ReasonCancelled, report.Skipped[0].Reason)
	}
}

func TestLoad_CancelledContextSkipsFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "sky.txt", "The sky is blue.")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := New(parser.DefaultOptions(), 0, testLogger())
	if segs := l.Load(ctx, path); len(segs) != 0 {
		t.Errorf("expected no segments once cancelled, got %+v", segs)
	}
	if segs := l.Load(context.Background(), path); len(segs) != 1 {
		t.Errorf("expected 1 segment with a live context, got %d", len(segs))
	}
}

func TestContentHashHex_Consistency(t *testing.T) {
	data := []byte("hello world")
	h1 := ContentHashHex(data)
	h2 := ContentHashHex(data)
	if h1 != h2 {
		t.Errorf("expected identical hashes, got %q and %q", h1, h2)
	}
	// SHA-256 of "hello world" is well-known.
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if h1 != want {
		t.Errorf("expected hash %q, got %q", want, h1)
	}
}

func TestContentHashHex_EmptyInput(t *testing.T) {
	h := ContentHashHex([]byte{})
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if h != want {
		t.Errorf("expected hash %q, got %q", want, h)
	}
}
