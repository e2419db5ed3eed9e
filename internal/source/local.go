package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Local reads the regular files directly inside Dir. Subdirectories are not
// descended into.
type Local struct {
	Dir string
	log *slog.Logger
}

func NewLocal(dir string, log *slog.Logger) *Local {
	return &Local{Dir: dir, log: log}
}

func (l *Local) Name() string { return "local:" + l.Dir }

// Fetch lists Dir in name order. A missing or unreadable directory is an error.
func (l *Local) Fetch(ctx context.Context) (*Batch, error) {
	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		return nil, fmt.Errorf("read source dir: %w", err)
	}

	b := &Batch{}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsDir() {
			l.log.Debug("skipping subdirectory", "name", e.Name())
			b.Skipped = append(b.Skipped, e.Name())
			continue
		}
		if !e.Type().IsRegular() {
			// Symlinks and the like are followed only if they point at a file.
			info, err := os.Stat(filepath.Join(l.Dir, e.Name()))
			if err != nil || !info.Mode().IsRegular() {
				b.Skipped = append(b.Skipped, e.Name())
				continue
			}
		}
		b.Paths = append(b.Paths, filepath.Join(l.Dir, e.Name()))
	}
	l.log.Info("listed local directory", "dir", l.Dir, "files", len(b.Paths), "skipped", len(b.Skipped))
	return b, nil
}
