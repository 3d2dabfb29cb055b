// Package report publishes processing-progress events so operators can watch
// long jobs on the monitoring bus instead of tailing driver logs. The driver
// emits one event per chunk and a final summary event; reporting is
// best-effort and never fails the run.
package report

import (
	"encoding/json"
	"time"
)

// Event is one progress update for a processing job. JobID ties together all
// events from one driver invocation.
type Event struct {
	JobID  string `json:"job_id"`
	RunID  string `json:"run_id"`
	Target string `json:"target"`

	Chunk   int     `json:"chunk"`
	Items   int     `json:"items"`
	PctDone float64 `json:"pct_done"`
	RSSMB   float64 `json:"rss_mb"`

	// ETASeconds is zero until a wall-clock baseline exists.
	ETASeconds float64 `json:"eta_seconds,omitempty"`

	// Done marks the final summary event.
	Done           bool    `json:"done,omitempty"`
	ElapsedSeconds float64 `json:"elapsed_seconds,omitempty"`
	PeakRSSMB      float64 `json:"peak_rss_mb,omitempty"`

	Time time.Time `json:"time"`
}

// Encode implements the sarama.Encoder interface for Event using json.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// Length returns the length of the marshalled json.
func (e Event) Length() int {
	bytes, _ := e.Encode()
	return len(bytes)
}

// Reporter is where progress events go.
type Reporter interface {
	Report(e Event) error
	Close() error
}

// Nop discards all events.
type Nop struct{}

// Report does nothing.
func (Nop) Report(e Event) error { return nil }

// Close does nothing.
func (Nop) Close() error { return nil }
