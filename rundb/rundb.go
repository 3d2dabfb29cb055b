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

// Package rundb is the local run database: one bolt file holding a JSON run
// document per run ID. It satisfies strax.RunSource so contexts can resolve
// run metadata without a network round trip.
package rundb

import (
	"encoding/json"
	"time"

	"github.com/boltdb/bolt"
	"github.com/pkg/errors"

	"github.com/tunnell/straxen/strax"
)

var runsBucket = []byte("runs")

// DB is a handle on the run database. Safe for concurrent use; bolt does the
// locking.
type DB struct {
	db *bolt.DB
}

// Open opens (creating if needed) the run database at filename.
func Open(filename string) (*DB, error) {
	db, err := bolt.Open(filename, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "opening run db '%v'", filename)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(runsBucket)
		return errors.Wrap(err, "creating runs bucket")
	})
	if err != nil {
		return nil, errors.Wrap(err, "ensuring bucket existence")
	}
	return &DB{db: db}, nil
}

// Get implements strax.RunSource.
func (d *DB) Get(runID string) (*strax.RunMetadata, error) {
	var md *strax.RunMetadata
	err := d.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(runsBucket).Get([]byte(runID))
		if raw == nil {
			return errors.Errorf("run %q not in run database", runID)
		}
		md = &strax.RunMetadata{}
		return errors.Wrapf(json.Unmarshal(raw, md), "decoding run doc for %q", runID)
	})
	if err != nil {
		return nil, err
	}
	return md, nil
}

// Put stores (or replaces) a run document.
func (d *DB) Put(md *strax.RunMetadata) error {
	if md.RunID == "" {
		return errors.New("run doc has no run id")
	}
	raw, err := json.Marshal(md)
	if err != nil {
		return errors.Wrapf(err, "encoding run doc for %q", md.RunID)
	}
	return d.db.Update(func(tx *bolt.Tx) error {
		return errors.Wrap(tx.Bucket(runsBucket).Put([]byte(md.RunID), raw), "storing run doc")
	})
}

// List returns all run IDs in the database, in key order.
func (d *DB) List() ([]string, error) {
	var ids []string
	err := d.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(runsBucket).ForEach(func(k, v []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	})
	return ids, errors.Wrap(err, "listing runs")
}

// Close releases the bolt file.
func (d *DB) Close() error {
	return d.db.Close()
}
