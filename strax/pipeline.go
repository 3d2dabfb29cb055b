package strax

import "time"

// Pipeline is the processing engine. Implementations own plugin dependency
// resolution, mailbox buffering and worker scheduling; the returned iterator
// is the only channel back to the caller. GetIter may block until the first
// chunk is being produced and may return errors from deep inside the engine
// unwrapped.
type Pipeline interface {
	GetIter(c *Context, runID, target string, maxWorkers int) (ChunkIterator, error)
}

// RunSource resolves run metadata by run ID.
type RunSource interface {
	Get(runID string) (*RunMetadata, error)
}

// RunMetadata is one run document. Start and End are timezone-aware
// instants; a run document is immutable once fetched.
type RunMetadata struct {
	RunID string    `json:"name"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Mode  string    `json:"mode,omitempty"`
	Tags  []string  `json:"tags,omitempty"`
}

// Duration is the length of the run.
func (m *RunMetadata) Duration() time.Duration {
	return m.End.Sub(m.Start)
}
