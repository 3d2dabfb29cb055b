package strax

import (
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Options carries the knobs a context builder may need. Zero values mean
// "use the builder's default". Runs and Pipeline, when non-nil, override
// whatever the builder would attach; tests use this to script the engine.
type Options struct {
	// DataDir is the root of the local strax data directory.
	DataDir string

	// RunDB is the path of the local run database file.
	RunDB string

	// S3Bucket and S3Region configure the object-storage frontend for
	// contexts that have one. An empty bucket disables it.
	S3Bucket string
	S3Region string

	Runs     RunSource
	Pipeline Pipeline
}

// Builder constructs a named, pre-wired Context.
type Builder func(opts Options) (*Context, error)

var (
	registryMu sync.Mutex
	registry   = make(map[string]Builder)
)

// Register makes a context builder available under name. It panics if name
// is already taken; context names are package-level constants registered at
// init time, so a duplicate is a programming error.
func Register(name string, b Builder) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[name]; dup {
		panic("strax: Register called twice for context " + name)
	}
	registry[name] = b
}

// Known returns the registered context names, sorted.
func Known() []string {
	registryMu.Lock()
	defer registryMu.Unlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the context registered under name.
func New(name string, opts Options) (*Context, error) {
	registryMu.Lock()
	b, ok := registry[name]
	registryMu.Unlock()
	if !ok {
		return nil, errors.Errorf("unknown context %q, known contexts: %s",
			name, strings.Join(Known(), ", "))
	}
	c, err := b(opts)
	return c, errors.Wrapf(err, "building context %q", name)
}
