package process

import (
	"fmt"
	"time"

	"github.com/tunnell/straxen/strax"
)

// tracker turns per-chunk observations into run progress and memory
// telemetry. It is fed from a single goroutine; the chunk arrival rate is
// its sampling resolution.
type tracker struct {
	startSec    float64
	durationSec float64

	now        func() time.Time
	startedAt  time.Time
	clockStart time.Time

	peak float64
}

func newTracker(md *strax.RunMetadata, now func() time.Time) *tracker {
	if now == nil {
		now = time.Now
	}
	t := &tracker{
		startSec:    float64(md.Start.UnixNano()) / 1e9,
		durationSec: md.Duration().Seconds(),
		now:         now,
	}
	t.startedAt = now()
	return t
}

// sample records one resident-memory reading. Every chunk, empty or not, is
// sampled and may raise the peak.
func (t *tracker) sample(mb float64) {
	if mb > t.peak {
		t.peak = mb
	}
}

// progress is the telemetry derived from one non-empty chunk.
type progress struct {
	// RunSeconds is how far into the run the chunk's end marker is.
	RunSeconds float64
	// Fraction of the run covered so far, in [0, 1] for well-formed runs.
	Fraction float64
	// TimeLeft is the remaining run time in run-seconds.
	TimeLeft float64
	// ETA extrapolates the wall-clock time remaining. Only valid from the
	// second non-empty chunk; the first one establishes the baseline.
	ETA    time.Duration
	HasETA bool
}

// observe is called once per non-empty chunk. Empty chunks never reach it,
// so they can neither establish nor skew the wall-clock baseline.
//
// The ETA is time_left / (dt / d_clock): a straight line through the average
// throughput since the run started. That is the documented estimator, not a
// moving average; do not "fix" it.
func (t *tracker) observe(c strax.Chunk) progress {
	dt := float64(c.End)/1e9 - t.startSec
	p := progress{RunSeconds: dt}
	if t.durationSec > 0 {
		p.Fraction = dt / t.durationSec
	}
	p.TimeLeft = t.durationSec - dt

	if t.clockStart.IsZero() {
		t.clockStart = t.now()
		return p
	}
	dClock := t.now().Sub(t.clockStart).Seconds()
	if dt > 0 {
		p.ETA = time.Duration(p.TimeLeft / (dt / dClock) * float64(time.Second))
		p.HasETA = true
	}
	return p
}

func (t *tracker) wallElapsed() time.Duration {
	return t.now().Sub(t.startedAt)
}

func (t *tracker) peakMB() float64 {
	return t.peak
}

// formatETA renders a duration as HH:MM:SS.
func formatETA(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
