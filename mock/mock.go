// Package mock has scripted stand-ins for the processing engine and its
// collaborators, for tests.
package mock

import (
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/tunnell/straxen/report"
	"github.com/tunnell/straxen/strax"
)

// Pipeline replays a scripted chunk sequence and records how it was invoked.
type Pipeline struct {
	Chunks []strax.Chunk

	// Err, when set, ends the iterator with this error instead of io.EOF.
	Err error

	GetIterCalls int
	LastRunID    string
	LastTarget   string
	LastWorkers  int
}

// GetIter implements strax.Pipeline.
func (p *Pipeline) GetIter(c *strax.Context, runID, target string, maxWorkers int) (strax.ChunkIterator, error) {
	p.GetIterCalls++
	p.LastRunID = runID
	p.LastTarget = target
	p.LastWorkers = maxWorkers
	return &iter{chunks: p.Chunks, err: p.Err}, nil
}

type iter struct {
	chunks []strax.Chunk
	i      int
	err    error
}

func (it *iter) Next() (strax.Chunk, error) {
	if it.i >= len(it.chunks) {
		if it.err != nil {
			return strax.Chunk{}, it.err
		}
		return strax.Chunk{}, io.EOF
	}
	c := it.chunks[it.i]
	it.i++
	return c, nil
}

// Runs is a map-backed run-metadata source which counts lookups.
type Runs struct {
	Docs map[string]*strax.RunMetadata
	Gets int
}

// Get implements strax.RunSource.
func (r *Runs) Get(runID string) (*strax.RunMetadata, error) {
	r.Gets++
	md, ok := r.Docs[runID]
	if !ok {
		return nil, errors.Errorf("run %q not found", runID)
	}
	return md, nil
}

// Frontend is an in-memory storage frontend. Stored is keyed by
// "<run>-<target>".
type Frontend struct {
	FrontendName string
	Stored       map[string]bool
	Restricted   []string

	HasErr   error
	HasCalls int
}

// Name implements strax.StorageFrontend.
func (f *Frontend) Name() string {
	if f.FrontendName == "" {
		return "mock"
	}
	return f.FrontendName
}

// Has implements strax.StorageFrontend.
func (f *Frontend) Has(runID, target string) (bool, error) {
	f.HasCalls++
	if f.HasErr != nil {
		return false, f.HasErr
	}
	if len(f.Restricted) > 0 {
		ok := false
		for _, t := range f.Restricted {
			if t == target {
				ok = true
			}
		}
		if !ok {
			return false, nil
		}
	}
	return f.Stored[runID+"-"+target], nil
}

// RestrictTo implements strax.StorageFrontend.
func (f *Frontend) RestrictTo(types ...string) {
	f.Restricted = types
}

// RecordingReporter keeps every event it is given.
type RecordingReporter struct {
	Events []report.Event
	Closed bool
}

// Report implements report.Reporter.
func (r *RecordingReporter) Report(e report.Event) error {
	r.Events = append(r.Events, e)
	return nil
}

// Close implements report.Reporter.
func (r *RecordingReporter) Close() error {
	r.Closed = true
	return nil
}

// RecordingStatter keeps counts and the latest gauge values.
type RecordingStatter struct {
	Counts map[string]int64
	Gauges map[string]float64
}

// Count implements straxen.Statter.
func (r *RecordingStatter) Count(name string, value int64, rate float64, tags ...string) {
	if r.Counts == nil {
		r.Counts = make(map[string]int64)
	}
	r.Counts[name] += value
}

// Gauge implements straxen.Statter.
func (r *RecordingStatter) Gauge(name string, value float64, rate float64, tags ...string) {
	if r.Gauges == nil {
		r.Gauges = make(map[string]float64)
	}
	r.Gauges[name] = value
}

// Timing implements straxen.Statter.
func (r *RecordingStatter) Timing(name string, value time.Duration, rate float64, tags ...string) {}
