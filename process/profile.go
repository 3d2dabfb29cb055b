package process

import (
	"os"
	"runtime/pprof"
	"time"

	"github.com/pkg/errors"
)

// ramSampleInterval is the cadence of the whole-run memory profiler. It
// samples from its own goroutine, unlike the per-chunk sampling whose
// resolution is the chunk arrival rate.
const ramSampleInterval = 100 * time.Millisecond

type runFunc func() error

// runner picks the execution wrapper once at startup: plain, CPU profile to
// a file, or whole-run RAM sampling. validate() already rejected asking for
// both profiles.
func (m *Main) runner() func(runFunc) error {
	switch {
	case m.ProfileTo != "":
		return m.cpuProfiled
	case m.ProfileRAM:
		return m.ramProfiled
	default:
		return func(f runFunc) error { return f() }
	}
}

func (m *Main) cpuProfiled(f runFunc) error {
	out, err := os.Create(m.ProfileTo)
	if err != nil {
		return errors.Wrap(err, "creating profile file")
	}
	if err := pprof.StartCPUProfile(out); err != nil {
		out.Close()
		return errors.Wrap(err, "starting cpu profile")
	}
	runErr := f()
	pprof.StopCPUProfile()
	if err := out.Close(); err != nil && runErr == nil {
		return errors.Wrap(err, "closing profile file")
	}
	m.log.Printf("Wrote CPU profile to %s.", m.ProfileTo)
	return runErr
}

func (m *Main) ramProfiled(f runFunc) error {
	stop := make(chan struct{})
	done := make(chan float64, 1)
	go func() {
		var peak float64
		tick := time.NewTicker(ramSampleInterval)
		defer tick.Stop()
		for {
			select {
			case <-tick.C:
				mb, err := m.SampleRSS()
				if err == nil && mb > peak {
					peak = mb
				}
			case <-stop:
				done <- peak
				return
			}
		}
	}()
	runErr := f()
	close(stop)
	peak := <-done
	m.log.Printf("RAM profile: peak resident memory %.1f MB.", peak)
	return runErr
}
