// Package contexts registers the named processing-context presets. Each
// preset decides which storage frontends are consulted, where run metadata
// comes from, and what the engine is forbidden to (re)create; everything
// else is flag territory.
package contexts

import (
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/tunnell/straxen/rundb"
	"github.com/tunnell/straxen/strax"
)

func init() {
	strax.Register("xenonnt_online", XENONnTOnline)
	strax.Register("xenonnt_offline", XENONnTOffline)
	strax.Register("demo", Demo)
}

func dataDir(opts strax.Options) string {
	if opts.DataDir != "" {
		return opts.DataDir
	}
	return "./strax_data"
}

// base wires the pieces every preset shares: the engine and the run
// database. Injected Runs/Pipeline (tests) win over the defaults.
func base(name string, opts strax.Options) (*strax.Context, error) {
	c := strax.NewContext(name)
	c.Pipeline = opts.Pipeline
	c.Runs = opts.Runs
	if c.Runs == nil {
		path := opts.RunDB
		if path == "" {
			path = filepath.Join(dataDir(opts), "runs.db")
		}
		db, err := rundb.Open(path)
		if err != nil {
			return nil, errors.Wrap(err, "opening run database")
		}
		c.Runs = db
	}
	return c, nil
}

// XENONnTOnline is the preset for processing fresh data at the detector
// site: results land in object storage first, with a local directory as the
// working copy.
func XENONnTOnline(opts strax.Options) (*strax.Context, error) {
	c, err := base("xenonnt_online", opts)
	if err != nil {
		return nil, err
	}
	if opts.S3Bucket != "" {
		s3f, err := strax.NewS3Frontend(
			strax.OptS3Bucket(opts.S3Bucket),
			strax.OptS3Region(opts.S3Region),
		)
		if err != nil {
			return nil, err
		}
		c.Storage = append(c.Storage, s3f)
	}
	c.Storage = append(c.Storage, strax.NewDataDirectory(dataDir(opts)))
	return c, nil
}

// XENONnTOffline is the reprocessing preset: local storage first, object
// storage only serving raw data to reprocess from.
func XENONnTOffline(opts strax.Options) (*strax.Context, error) {
	c, err := base("xenonnt_offline", opts)
	if err != nil {
		return nil, err
	}
	c.Storage = append(c.Storage, strax.NewDataDirectory(dataDir(opts)))
	if opts.S3Bucket != "" {
		s3f, err := strax.NewS3Frontend(
			strax.OptS3Bucket(opts.S3Bucket),
			strax.OptS3Region(opts.S3Region),
		)
		if err != nil {
			return nil, err
		}
		s3f.RestrictTo(strax.RawType)
		c.Storage = append(c.Storage, s3f)
	}
	return c, nil
}

// Demo is the kitchen-table preset: one local directory, nothing forbidden.
func Demo(opts strax.Options) (*strax.Context, error) {
	c, err := base("demo", opts)
	if err != nil {
		return nil, err
	}
	c.ForbidNothing()
	c.Storage = append(c.Storage, strax.NewDataDirectory(dataDir(opts)))
	return c, nil
}
