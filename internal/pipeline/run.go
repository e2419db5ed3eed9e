package pipeline

import (
	"sync"
	"time"

	"github.com/dgallion1/docqa/internal/loader"
	"github.com/google/uuid"
)

// Status is the phase an ingestion run is in.
type Status string

const (
	StatusFetching  Status = "fetching"
	StatusLoading   Status = "loading"
	StatusChunking  Status = "chunking"
	StatusEmbedding Status = "embedding"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run tracks one ingestion from source listing to finished index.
type Run struct {
	mu sync.Mutex

	id        string
	source    string
	status    Status
	progress  Progress
	skipped   []loader.SkippedFile
	errors    []string
	startedAt time.Time
	updatedAt time.Time
	elapsed   time.Duration
}

// Progress counts what each phase produced.
type Progress struct {
	FilesFetched int `json:"files_fetched"`
	FilesLoaded  int `json:"files_loaded"`
	Segments     int `json:"segments"`
	Chunks       int `json:"chunks"`
}

func newRun(source string) *Run {
	now := time.Now()
	return &Run{
		id:        uuid.NewString(),
		source:    source,
		status:    StatusFetching,
		startedAt: now,
		updatedAt: now,
	}
}

func (r *Run) setStatus(s Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = s
	r.updatedAt = time.Now()
	if s == StatusCompleted || s == StatusFailed {
		r.elapsed = r.updatedAt.Sub(r.startedAt)
	}
}

func (r *Run) addError(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, msg)
	r.updatedAt = time.Now()
}

func (r *Run) update(fn func(p *Progress)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(&r.progress)
	r.updatedAt = time.Now()
}

func (r *Run) skip(files ...loader.SkippedFile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skipped = append(r.skipped, files...)
	r.updatedAt = time.Now()
}

// Report is a read-only, JSON-safe copy of a Run.
type Report struct {
	ID        string               `json:"run_id"`
	Source    string               `json:"source"`
	Status    Status               `json:"status"`
	Progress  Progress             `json:"progress"`
	Skipped   []loader.SkippedFile `json:"skipped"`
	Errors    []string             `json:"errors"`
	StartedAt time.Time            `json:"started_at"`
	Elapsed   string               `json:"elapsed,omitempty"`
}

// Report returns a snapshot of the run.
func (r *Run) Report() Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	rep := Report{
		ID:        r.id,
		Source:    r.source,
		Status:    r.status,
		Progress:  r.progress,
		Skipped:   append([]loader.SkippedFile{}, r.skipped...),
		Errors:    append([]string{}, r.errors...),
		StartedAt: r.startedAt,
	}
	if r.elapsed > 0 {
		rep.Elapsed = r.elapsed.Round(time.Millisecond).String()
	}
	return rep
}
