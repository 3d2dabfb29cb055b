// Copyright 2024 The straxen developers
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright
// notice, this list of conditions and the following disclaimer in the
// documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its
// contributors may be used to endorse or promote products derived
// from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND
// CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES,
// INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF
// MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR
// CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING,
// BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY,
// WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING
// NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH
// DAMAGE.

package strax

import (
	"io"
	"time"

	"github.com/pkg/errors"
)

// RawType is the base data type read back from the DAQ. Frontends restricted
// by a from-scratch reprocessing serve only this type, and contexts forbid
// its (re)creation unless low-level building is explicitly allowed.
const RawType = "raw_records"

// ErrNoPipeline is returned by GetIter when no engine has been attached to
// the context.
var ErrNoPipeline = errors.New("no pipeline attached to context")

// Context is one invocation's bundle of processing configuration: where data
// lives, how much the engine may buffer and parallelize, and a free-form
// config map passed through to the engine's plugins. A Context is built once
// by name from the registry, mutated in place by flag-derived settings, and
// discarded when the invocation ends. It is not safe for concurrent use.
type Context struct {
	Name string

	// Storage is the ordered frontend list. Lookups consult frontends in
	// order; the first hit wins.
	Storage []StorageFrontend

	// Engine tunables.
	AllowMultiprocess bool
	AllowShm          bool
	AllowLazy         bool
	MaxMessages       int
	Timeout           time.Duration

	// ForbidCreationOf lists data types the engine must never (re)create,
	// only load. Cleared by ForbidNothing.
	ForbidCreationOf []string

	// Pipeline is the black-box engine. Runs is where run documents come
	// from. Both are attached by the context builder.
	Pipeline Pipeline
	Runs     RunSource

	config      map[string]interface{}
	freeOptions map[string]struct{}
}

// NewContext returns a Context with the engine defaults: lazy single-core
// scheduling allowed, four messages per mailbox, a 300 second mailbox
// timeout, and raw data creation forbidden.
func NewContext(name string) *Context {
	return &Context{
		Name:             name,
		AllowLazy:        true,
		MaxMessages:      4,
		Timeout:          300 * time.Second,
		ForbidCreationOf: []string{RawType},
		config:           make(map[string]interface{}),
		freeOptions:      make(map[string]struct{}),
	}
}

// SetConfig sets a plugin-level config option.
func (c *Context) SetConfig(key string, value interface{}) {
	c.config[key] = value
}

// Config returns a plugin-level config option.
func (c *Context) Config(key string) (interface{}, bool) {
	v, ok := c.config[key]
	return v, ok
}

// RegisterFreeOptions marks config keys whose value does not participate in
// the lineage of computed data. Changing a free option never invalidates
// stored results.
func (c *Context) RegisterFreeOptions(keys ...string) {
	for _, k := range keys {
		c.freeOptions[k] = struct{}{}
	}
}

// IsFreeOption reports whether key has been registered as a free option.
func (c *Context) IsFreeOption(key string) bool {
	_, ok := c.freeOptions[key]
	return ok
}

// ForbidNothing allows the engine to (re)create every data type, including
// the low-level ones forbidden by default.
func (c *Context) ForbidNothing() {
	c.ForbidCreationOf = nil
}

// FromScratch reconfigures storage for a full reprocessing: every existing
// frontend is restricted to serving only raw data, and a fresh
// overwrite-always data directory at path is appended to take the new
// results.
func (c *Context) FromScratch(path string) {
	for _, f := range c.Storage {
		f.RestrictTo(RawType)
	}
	c.Storage = append(c.Storage, NewDataDirectory(path, OptDataDirOverwrite(true)))
}

// OnlyLocalStorage throws away the configured frontend list and replaces it
// with a single read/write data directory at path.
func (c *Context) OnlyLocalStorage(path string) {
	c.Storage = []StorageFrontend{NewDataDirectory(path)}
}

// IsStored reports whether target is already fully computed for runID in any
// configured frontend.
func (c *Context) IsStored(runID, target string) (bool, error) {
	for _, f := range c.Storage {
		ok, err := f.Has(runID, target)
		if err != nil {
			return false, errors.Wrapf(err, "checking %s", f.Name())
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// RunMetadata fetches the run document for runID. Callers fetch it once per
// invocation; the same document drives all run-duration telemetry.
func (c *Context) RunMetadata(runID string) (*RunMetadata, error) {
	if c.Runs == nil {
		return nil, errors.Errorf("context %q has no run metadata source", c.Name)
	}
	md, err := c.Runs.Get(runID)
	return md, errors.Wrapf(err, "fetching metadata for run %s", runID)
}

// GetIter asks the engine to start producing target for runID and returns
// the chunk iterator. The engine owns all buffering and parallelism behind
// the iterator; maxWorkers is a request, not a guarantee.
func (c *Context) GetIter(runID, target string, maxWorkers int) (ChunkIterator, error) {
	if c.Pipeline == nil {
		return nil, errors.Wrapf(ErrNoPipeline, "context %q", c.Name)
	}
	return c.Pipeline.GetIter(c, runID, target, maxWorkers)
}

// Close releases every frontend and run source that holds resources.
func (c *Context) Close() error {
	var firstErr error
	for _, f := range c.Storage {
		if cl, ok := f.(io.Closer); ok {
			if err := cl.Close(); err != nil && firstErr == nil {
				firstErr = errors.Wrapf(err, "closing %s", f.Name())
			}
		}
	}
	if cl, ok := c.Runs.(io.Closer); ok {
		if err := cl.Close(); err != nil && firstErr == nil {
			firstErr = errors.Wrap(err, "closing run source")
		}
	}
	return firstErr
}
