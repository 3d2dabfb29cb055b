package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/tunnell/straxen/process"
)

// ProcessMain is the configuration for the process subcommand.
var ProcessMain *process.Main

// NewProcessCommand returns the subcommand which processes one run to one
// target data type. Exits 1 when the target is already stored (nothing to
// do) and on any engine failure.
func NewProcessCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	ProcessMain = process.NewMain()
	ProcessMain.LogWriter = stderr
	processCommand := &cobra.Command{
		Use:   "process RUN_ID",
		Short: "process - produce a data type for one detector run",
		Long: `Build the named processing context, point the strax engine at one
run, and consume its chunk stream while printing progress, ETA and memory
usage. If the target is already fully stored the command reports so and
exits 1 without touching the engine.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ProcessMain.RunID = args[0]
			return ProcessMain.Run()
		},
	}
	flags := processCommand.Flags()
	flags.StringVar(&ProcessMain.Context, "context", ProcessMain.Context, "Name of the processing context to use.")
	flags.StringVar(&ProcessMain.Target, "target", ProcessMain.Target, "Final data type to produce.")
	flags.BoolVar(&ProcessMain.FromScratch, "from_scratch", ProcessMain.FromScratch, "Restrict existing storage to raw data and reprocess everything else into a fresh local directory.")
	flags.BoolVar(&ProcessMain.OnlyStraxData, "only_strax_data", ProcessMain.OnlyStraxData, "Replace all configured storage with a single local data directory.")
	flags.IntVar(&ProcessMain.MaxMessages, "max_messages", ProcessMain.MaxMessages, "Maximum number of chunks the engine may buffer per mailbox.")
	flags.IntVar(&ProcessMain.Timeout, "timeout", ProcessMain.Timeout, "Seconds the engine may block on a stuck mailbox before giving up.")
	flags.IntVar(&ProcessMain.Workers, "workers", ProcessMain.Workers, "Number of workers to request from the engine.")
	flags.BoolVar(&ProcessMain.NotLazy, "notlazy", ProcessMain.NotLazy, "Forbid single-core lazy scheduling.")
	flags.BoolVar(&ProcessMain.Multiprocess, "multiprocess", ProcessMain.Multiprocess, "Allow process-based (rather than thread-based) parallelism.")
	flags.BoolVar(&ProcessMain.Shm, "shm", ProcessMain.Shm, "Allow shared-memory transport between worker processes.")
	flags.StringVar(&ProcessMain.ProfileTo, "profile_to", ProcessMain.ProfileTo, "If set, write a CPU profile of the processing loop to this path.")
	flags.BoolVar(&ProcessMain.ProfileRAM, "profile_ram", ProcessMain.ProfileRAM, "Sample resident memory over the whole invocation and report the peak.")
	flags.BoolVar(&ProcessMain.DiagnoseSorting, "diagnose_sorting", ProcessMain.DiagnoseSorting, "Enable the engine's ordering diagnostics.")
	flags.BoolVar(&ProcessMain.Debug, "debug", ProcessMain.Debug, "Enable verbose logging.")
	flags.BoolVar(&ProcessMain.BuildLowLevel, "build_lowlevel", ProcessMain.BuildLowLevel, "Allow (re)creation of low-level data types.")
	flags.StringVar(&ProcessMain.LogPath, "log_path", ProcessMain.LogPath, "Log file to write to. Empty means stderr.")
	flags.BoolVar(&ProcessMain.Stats, "stats", ProcessMain.Stats, "Periodically print chunk/memory counters.")
	flags.StringVar(&ProcessMain.DataDir, "data_dir", ProcessMain.DataDir, "Root directory for local strax data.")
	flags.StringVar(&ProcessMain.RunDB, "rundb", ProcessMain.RunDB, "Path to the local run database.")
	flags.StringVar(&ProcessMain.S3Bucket, "s3_bucket", ProcessMain.S3Bucket, "Bucket holding processed data, for contexts with an S3 frontend.")
	flags.StringVar(&ProcessMain.S3Region, "s3_region", ProcessMain.S3Region, "Region for the S3 frontend.")
	flags.StringSliceVar(&ProcessMain.ReportKafka, "report_kafka", ProcessMain.ReportKafka, "Kafka brokers to send progress events to. Empty disables reporting.")
	flags.StringVar(&ProcessMain.ReportTopic, "report_topic", ProcessMain.ReportTopic, "Kafka topic for progress events.")
	return processCommand
}

func init() {
	subcommandFns["process"] = NewProcessCommand
}
