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
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// metadataFile marks a run/target directory as fully written. Data without
// it is a partial write and does not count as stored.
const metadataFile = "metadata.json"

// StorageFrontend describes one place processed data is read from or
// written to. Frontends are descriptors handed to the engine; the only
// lookup the driver performs itself is Has.
type StorageFrontend interface {
	// Name identifies the frontend in logs and errors.
	Name() string

	// Has reports whether target is fully stored for runID here.
	Has(runID, target string) (bool, error)

	// RestrictTo narrows the data types this frontend will serve or
	// persist. An empty call leaves the frontend unrestricted.
	RestrictTo(types ...string)
}

// DataDirOption is a functional option for DataDirectory.
type DataDirOption func(d *DataDirectory)

// OptDataDirOverwrite sets the overwrite policy: when true the engine
// rewrites existing data instead of refusing.
func OptDataDirOverwrite(overwrite bool) DataDirOption {
	return func(d *DataDirectory) {
		d.Overwrite = overwrite
	}
}

// OptDataDirTakeOnly restricts the directory to the given data types.
func OptDataDirTakeOnly(types ...string) DataDirOption {
	return func(d *DataDirectory) {
		d.takeOnly = types
	}
}

// DataDirectory is the local filesystem frontend. Each run/target pair lives
// in a directory named <run>-<target>-<lineage hash> under Path, with a
// metadata.json written last.
type DataDirectory struct {
	Path      string
	Overwrite bool

	takeOnly []string
}

// NewDataDirectory returns a DataDirectory rooted at path with the options
// applied.
func NewDataDirectory(path string, opts ...DataDirOption) *DataDirectory {
	d := &DataDirectory{Path: path}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name implements StorageFrontend.
func (d *DataDirectory) Name() string {
	return "DataDirectory(" + d.Path + ")"
}

// RestrictTo implements StorageFrontend.
func (d *DataDirectory) RestrictTo(types ...string) {
	d.takeOnly = types
}

// TakeOnly returns the data types this directory is restricted to. Empty
// means unrestricted.
func (d *DataDirectory) TakeOnly() []string {
	return d.takeOnly
}

func (d *DataDirectory) serves(target string) bool {
	if len(d.takeOnly) == 0 {
		return true
	}
	for _, t := range d.takeOnly {
		if t == target {
			return true
		}
	}
	return false
}

// Has implements StorageFrontend. The lineage hash in the directory name is
// the engine's business, so any <run>-<target>* directory holding a
// metadata.json counts.
func (d *DataDirectory) Has(runID, target string) (bool, error) {
	if !d.serves(target) {
		return false, nil
	}
	matches, err := filepath.Glob(filepath.Join(d.Path, runID+"-"+target+"*"))
	if err != nil {
		return false, errors.Wrapf(err, "globbing under %s", d.Path)
	}
	for _, m := range matches {
		if _, err := os.Stat(filepath.Join(m, metadataFile)); err == nil {
			return true, nil
		}
	}
	return false, nil
}
