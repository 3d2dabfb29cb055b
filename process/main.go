// Package process is the run processing driver: it builds a processing
// context, asks the engine for one run's target data type, and watches the
// chunk stream while reporting progress, ETA and memory usage. It does no
// processing itself and recovers from nothing; engine failures surface
// unwrapped so the operator can re-invoke.
package process

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	psprocess "github.com/shirou/gopsutil/v3/process"

	"github.com/tunnell/straxen"
	"github.com/tunnell/straxen/report"
	"github.com/tunnell/straxen/strax"
	"github.com/tunnell/straxen/termstat"
)

// ErrAlreadyStored is returned when the target is already fully computed for
// the requested run. It is not a failure of the driver, but the caller
// should exit non-zero so scripts can tell "did work" from "nothing to do".
var ErrAlreadyStored = errors.New("already stored, nothing to do")

// Main holds all config for the run processing driver.
type Main struct {
	RunID   string `help:"Run to process."`
	Context string `help:"Name of the processing context to use."`
	Target  string `help:"Final data type to produce."`

	FromScratch   bool `help:"Restrict existing storage to raw data and reprocess everything else into a fresh local directory."`
	OnlyStraxData bool `help:"Replace all configured storage with a single local data directory."`

	MaxMessages  int  `help:"Maximum number of chunks the engine may buffer per mailbox."`
	Timeout      int  `help:"Seconds the engine may block on a stuck mailbox before giving up."`
	Workers      int  `help:"Number of workers to request from the engine."`
	NotLazy      bool `help:"Forbid single-core lazy scheduling."`
	Multiprocess bool `help:"Allow process-based (rather than thread-based) parallelism."`
	Shm          bool `help:"Allow shared-memory transport between worker processes."`

	ProfileTo  string `help:"If set, write a CPU profile of the processing loop to this path."`
	ProfileRAM bool   `help:"Sample resident memory over the whole invocation and report the peak."`

	DiagnoseSorting bool   `help:"Enable the engine's ordering diagnostics."`
	BuildLowLevel   bool   `help:"Allow (re)creation of low-level data types."`
	Debug           bool   `help:"Enable verbose logging."`
	LogPath         string `help:"Log file to write to. Empty means stderr."`
	Stats           bool   `help:"Periodically print chunk/memory counters."`

	DataDir  string `help:"Root directory for local strax data."`
	RunDB    string `help:"Path to the local run database."`
	S3Bucket string `help:"Bucket holding processed data, for contexts with an S3 frontend."`
	S3Region string `help:"Region for the S3 frontend."`

	ReportKafka []string `help:"Kafka brokers to send progress events to. Empty disables reporting."`
	ReportTopic string   `help:"Kafka topic for progress events."`

	// Pipeline and Runs override what the context builder would attach.
	Pipeline strax.Pipeline  `flag:"-"`
	Runs     strax.RunSource `flag:"-"`

	// Reporter overrides the flag-derived progress reporter.
	Reporter report.Reporter `flag:"-"`

	// SampleRSS returns this process's resident memory in MB. The default
	// asks the OS via gopsutil.
	SampleRSS func() (float64, error) `flag:"-"`

	// Now is the clock; tests script it.
	Now func() time.Time `flag:"-"`

	// LogWriter overrides LogPath/stderr.
	LogWriter io.Writer `flag:"-"`

	log      straxen.Logger
	stats    straxen.Statter
	reporter report.Reporter
	collect  *termstat.Collector
}

// NewMain returns a new Main with the usual defaults.
func NewMain() *Main {
	return &Main{
		Context:     "xenonnt_online",
		Target:      "event_info",
		MaxMessages: 4,
		Timeout:     300,
		Workers:     1,
		DataDir:     "./strax_data",
		ReportTopic: "straxen-progress",
	}
}

// Run executes one driver invocation end to end.
func (m *Main) Run() error {
	if err := m.setup(); err != nil {
		return errors.Wrap(err, "setting up")
	}
	defer m.teardown()

	c, err := m.buildContext()
	if err != nil {
		return errors.Wrap(err, "building context")
	}
	defer c.Close()

	stored, err := c.IsStored(m.RunID, m.Target)
	if err != nil {
		return errors.Wrap(err, "checking for stored data")
	}
	if stored {
		m.log.Printf("%s is already stored for run %s", m.Target, m.RunID)
		return ErrAlreadyStored
	}

	// Fetched exactly once; all run-duration telemetry derives from this
	// one document.
	md, err := c.RunMetadata(m.RunID)
	if err != nil {
		return errors.Wrap(err, "fetching run metadata")
	}
	m.log.Debugf("run %s: %s to %s (%.1f sec)",
		m.RunID, md.Start, md.End, md.Duration().Seconds())

	c.SetConfig("run_start_time", float64(md.Start.UnixNano())/1e9)
	c.RegisterFreeOptions("run_start_time")

	return m.runner()(func() error {
		return m.consume(c, md)
	})
}

func (m *Main) setup() error {
	if err := m.validate(); err != nil {
		return err
	}

	var logOut io.Writer = os.Stderr
	if m.LogWriter != nil {
		logOut = m.LogWriter
	}
	if m.LogPath != "" {
		f, err := os.OpenFile(m.LogPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			return errors.Wrap(err, "opening log file")
		}
		logOut = f
	}
	if m.Debug {
		m.log = straxen.NewVerboseLogger(logOut)
	} else {
		m.log = straxen.NewStdLogger(logOut)
	}

	m.stats = straxen.NopStatter{}
	if m.Stats {
		m.collect = termstat.NewCollector(logOut)
		m.stats = m.collect
	}

	m.reporter = m.Reporter
	if m.reporter == nil {
		if len(m.ReportKafka) > 0 {
			k, err := report.NewKafka(m.ReportKafka, m.ReportTopic)
			if err != nil {
				return errors.Wrap(err, "getting kafka reporter")
			}
			m.reporter = k
		} else {
			m.reporter = report.Nop{}
		}
	}

	if m.SampleRSS == nil {
		proc, err := psprocess.NewProcess(int32(os.Getpid()))
		if err != nil {
			return errors.Wrap(err, "getting process handle")
		}
		m.SampleRSS = func() (float64, error) {
			mi, err := proc.MemoryInfo()
			if err != nil {
				return 0, err
			}
			return float64(mi.RSS) / 1e6, nil
		}
	}
	if m.Now == nil {
		m.Now = time.Now
	}
	return nil
}

func (m *Main) teardown() {
	if err := m.reporter.Close(); err != nil {
		m.log.Printf("closing reporter: %v", err)
	}
	if m.collect != nil {
		m.collect.Stop()
	}
}

func (m *Main) validate() error {
	if m.RunID == "" {
		return errors.New("no run id given")
	}
	if m.ProfileTo != "" && m.ProfileRAM {
		return errors.New("profile_to and profile_ram are mutually exclusive")
	}
	if m.Workers < 1 {
		return errors.New("workers must be at least 1")
	}
	if m.MaxMessages < 1 {
		return errors.New("max_messages must be at least 1")
	}
	return nil
}

func (m *Main) buildContext() (*strax.Context, error) {
	c, err := strax.New(m.Context, strax.Options{
		DataDir:  m.DataDir,
		RunDB:    m.RunDB,
		S3Bucket: m.S3Bucket,
		S3Region: m.S3Region,
		Runs:     m.Runs,
		Pipeline: m.Pipeline,
	})
	if err != nil {
		return nil, err
	}

	c.MaxMessages = m.MaxMessages
	c.Timeout = time.Duration(m.Timeout) * time.Second
	c.AllowMultiprocess = m.Multiprocess
	c.AllowShm = m.Shm
	c.AllowLazy = !m.NotLazy
	if m.DiagnoseSorting {
		c.SetConfig("diagnose_sorting", true)
	}
	if m.BuildLowLevel {
		c.ForbidNothing()
	}
	if m.FromScratch {
		c.FromScratch(m.DataDir)
	}
	if m.OnlyStraxData {
		c.OnlyLocalStorage(m.DataDir)
	}
	return c, nil
}

// consume drives the engine by pulling chunks until EOF, reporting telemetry
// per chunk.
func (m *Main) consume(c *strax.Context, md *strax.RunMetadata) error {
	it, err := c.GetIter(m.RunID, m.Target, m.Workers)
	if err != nil {
		return errors.Wrap(err, "getting chunk iterator")
	}

	trk := newTracker(md, m.Now)
	jobID := uuid.New().String()

	for i := 0; ; i++ {
		chunk, err := it.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrapf(err, "reading chunk %d", i)
		}

		mb, merr := m.SampleRSS()
		if merr != nil {
			m.log.Debugf("sampling memory: %v", merr)
		} else {
			trk.sample(mb)
		}
		m.stats.Count("chunks", 1, 1)
		m.stats.Gauge("rss_mb", mb, 1)

		if chunk.Items == 0 {
			m.log.Printf("Got chunk %d, but it is empty! Using %.1f MB RAM.", i, mb)
			continue
		}

		m.stats.Count("items", int64(chunk.Items), 1)
		p := trk.observe(chunk)
		msg := fmt.Sprintf("Got %d items. Now %.1f sec / %.1f%% into the run. Using %.1f MB RAM.",
			chunk.Items, p.RunSeconds, 100*p.Fraction, mb)
		if p.HasETA {
			msg += fmt.Sprintf(" ETA %s.", formatETA(p.ETA))
		}
		m.log.Printf("%s", msg)

		ev := report.Event{
			JobID:   jobID,
			RunID:   m.RunID,
			Target:  m.Target,
			Chunk:   i,
			Items:   chunk.Items,
			PctDone: 100 * p.Fraction,
			RSSMB:   mb,
			Time:    m.Now(),
		}
		if p.HasETA {
			ev.ETASeconds = p.ETA.Seconds()
		}
		m.report(ev)
	}

	elapsed := trk.wallElapsed()
	m.log.Printf("Done! Took %.1f sec, peak RAM usage %.1f MB.",
		elapsed.Seconds(), trk.peakMB())
	m.report(report.Event{
		JobID:          jobID,
		RunID:          m.RunID,
		Target:         m.Target,
		Done:           true,
		ElapsedSeconds: elapsed.Seconds(),
		PeakRSSMB:      trk.peakMB(),
		Time:           m.Now(),
	})
	return nil
}

// report is best-effort: a down monitoring bus must not kill a processing
// job.
func (m *Main) report(e report.Event) {
	if err := m.reporter.Report(e); err != nil {
		m.log.Printf("reporting progress: %v", err)
	}
}
