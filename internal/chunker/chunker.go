package chunker

import (
	"fmt"
	"strings"

	"github.com/dgallion1/docqa/internal/doctree"
	"github.com/google/uuid"
)

// Config controls chunking behavior. Sizes are in runes.
type Config struct {
	ChunkSize    int // Maximum window length.
	ChunkOverlap int // Runes shared by consecutive windows of a segment.
}

// DefaultConfig returns the 1000/200 split used for retrieval.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    1000,
		ChunkOverlap: 200,
	}
}

func (c Config) normalize() Config {
	if c.ChunkSize <= 0 {
		c.ChunkSize = 1000
	}
	if c.ChunkOverlap < 0 {
		c.ChunkOverlap = 0
	}
	if c.ChunkOverlap >= c.ChunkSize {
		c.ChunkOverlap = c.ChunkSize / 5
	}
	return c
}

// separators in order of preference when picking a window end.
var separators = [][]rune{[]rune("\n\n"), []rune("\n"), []rune(" ")}

// chunkNamespace seeds the deterministic chunk ids.
var chunkNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("docqa/chunk"))

// Split cuts every segment into overlapping windows. Chunk indices run
// sequentially across all segments in the order given.
func Split(segments []doctree.Segment, cfg Config) []doctree.Chunk {
	cfg = cfg.normalize()

	var chunks []doctree.Chunk
	for _, seg := range segments {
		runes := []rune(seg.Text)
		for _, w := range windows(runes, cfg) {
			text := string(runes[w.start:w.end])
			if strings.TrimSpace(text) == "" {
				continue
			}
			index := len(chunks)
			chunks = append(chunks, doctree.Chunk{
				ID:      chunkID(seg.Source, index, text),
				Index:   index,
				Text:    text,
				Source:  seg.Source,
				Page:    seg.Page,
				Section: seg.Section,
				Start:   w.start,
				End:     w.end,
			})
		}
	}
	return chunks
}

type window struct{ start, end int }

// windows returns [start,end) rune ranges covering text. Each range is at
// most cfg.ChunkSize long and the next one starts cfg.ChunkOverlap runes
// before the previous end.
func windows(text []rune, cfg Config) []window {
	n := len(text)
	if n == 0 {
		return nil
	}

	var out []window
	start := 0
	for {
		end := min(start+cfg.ChunkSize, n)
		if end < n {
			end = snapEnd(text, start, end, cfg)
		}
		out = append(out, window{start, end})
		if end == n {
			return out
		}
		start = end - cfg.ChunkOverlap
	}
}

// snapEnd moves a hard cut back to just after the last separator, provided
// the result stays in the second half of the window and past the overlap.
func snapEnd(text []rune, start, end int, cfg Config) int {
	lo := start + max(cfg.ChunkSize/2, cfg.ChunkOverlap+1)
	for _, sep := range separators {
		for p := end; p >= lo && p >= len(sep); p-- {
			if hasSuffixAt(text, p, sep) {
				return p
			}
		}
	}
	return end
}

func hasSuffixAt(text []rune, p int, sep []rune) bool {
	if p-len(sep) < 0 {
		return false
	}
	for i, r := range sep {
		if text[p-len(sep)+i] != r {
			return false
		}
	}
	return true
}

func chunkID(source string, index int, text string) string {
	return uuid.NewSHA1(chunkNamespace, []byte(fmt.Sprintf("%s\x00%d\x00%s", source, index, text))).String()
}
