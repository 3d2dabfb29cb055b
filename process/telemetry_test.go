package process

import (
	"math"
	"testing"
	"time"

	"github.com/tunnell/straxen/strax"
)

// fakeClock hands out a scriptable time.
type fakeClock struct {
	t time.Time
}

func (f *fakeClock) now() time.Time { return f.t }

func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func testRun(durationSec int) *strax.RunMetadata {
	start := time.Unix(1000, 0).UTC()
	return &strax.RunMetadata{
		RunID: "run0",
		Start: start,
		End:   start.Add(time.Duration(durationSec) * time.Second),
	}
}

func chunkAt(runSec float64, items int) strax.Chunk {
	return strax.Chunk{Items: items, End: int64((1000 + runSec) * 1e9)}
}

func TestTrackerFractions(t *testing.T) {
	clock := &fakeClock{t: time.Unix(5000, 0)}
	trk := newTracker(testRun(100), clock.now)

	tests := []struct {
		runSec      float64
		expFraction float64
	}{
		{10, 0.10},
		{20, 0.20},
		{35, 0.35},
	}
	for _, tst := range tests {
		clock.advance(time.Second)
		p := trk.observe(chunkAt(tst.runSec, 1))
		if math.Abs(p.Fraction-tst.expFraction) > 1e-9 {
			t.Fatalf("chunk at %vs: fraction %v, expected %v", tst.runSec, p.Fraction, tst.expFraction)
		}
		if math.Abs(p.RunSeconds-tst.runSec) > 1e-9 {
			t.Fatalf("chunk at %vs: run seconds %v", tst.runSec, p.RunSeconds)
		}
	}
}

func TestTrackerETABaseline(t *testing.T) {
	clock := &fakeClock{t: time.Unix(5000, 0)}
	trk := newTracker(testRun(100), clock.now)

	// The first non-empty chunk establishes the baseline and carries no ETA.
	p := trk.observe(chunkAt(10, 1))
	if p.HasETA {
		t.Fatal("first non-empty chunk must not report an ETA")
	}

	// Second chunk: dt = 20 run-seconds, d_clock = 5 wall-seconds,
	// time_left = 80. ETA = 80 / (20 / 5) = 20s.
	clock.advance(5 * time.Second)
	p = trk.observe(chunkAt(20, 1))
	if !p.HasETA {
		t.Fatal("second non-empty chunk must report an ETA")
	}
	if got := p.ETA.Seconds(); math.Abs(got-20) > 1e-9 {
		t.Fatalf("ETA %.3fs, expected 20s", got)
	}
}

func TestTrackerPeak(t *testing.T) {
	clock := &fakeClock{t: time.Unix(5000, 0)}
	trk := newTracker(testRun(100), clock.now)

	for _, mb := range []float64{100, 250, 150} {
		trk.sample(mb)
	}
	if trk.peakMB() != 250 {
		t.Fatalf("peak %v, expected 250", trk.peakMB())
	}
}

func TestTrackerWallElapsed(t *testing.T) {
	clock := &fakeClock{t: time.Unix(5000, 0)}
	trk := newTracker(testRun(100), clock.now)
	clock.advance(42 * time.Second)
	if got := trk.wallElapsed(); got != 42*time.Second {
		t.Fatalf("wall elapsed %v, expected 42s", got)
	}
}

func TestFormatETA(t *testing.T) {
	tests := []struct {
		d   time.Duration
		exp string
	}{
		{0, "00:00:00"},
		{61 * time.Second, "00:01:01"},
		{3661 * time.Second, "01:01:01"},
		{-5 * time.Second, "00:00:00"},
		{25 * time.Hour, "25:00:00"},
	}
	for _, tst := range tests {
		if got := formatETA(tst.d); got != tst.exp {
			t.Fatalf("formatETA(%v): got %q, expected %q", tst.d, got, tst.exp)
		}
	}
}
