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

// Package termstat provides a stats implementation which periodically logs
// the statistics to the given writer. It is meant for watching a processing
// job at the terminal in lieu of an actual collector writing to an external
// tool like graphite or datadog.
package termstat

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Collector collects stats and prints them to the terminal. Counters
// accumulate, gauges keep their latest value; both print in the order they
// were first seen.
type Collector struct {
	lock    sync.Mutex
	indexes map[string]int
	names   []string
	counts  []int64
	gauges  []float64
	isGauge []bool
	changed bool
	out     io.Writer
	done    chan struct{}
}

// NewCollector initializes and returns a new Collector which rewrites its
// stats line every two seconds until Stop is called.
func NewCollector(out io.Writer) *Collector {
	ts := &Collector{
		indexes: make(map[string]int),
		out:     out,
		done:    make(chan struct{}),
	}
	go func() {
		tick := time.NewTicker(time.Second * 2)
		defer tick.Stop()
		for {
			select {
			case <-tick.C:
				ts.write()
			case <-ts.done:
				ts.write()
				return
			}
		}
	}()
	return ts
}

// Stop flushes once and ends the background printing.
func (t *Collector) Stop() {
	close(t.done)
}

func (t *Collector) index(name string, gauge bool) int {
	idx, ok := t.indexes[name]
	if !ok {
		idx = len(t.counts)
		t.counts = append(t.counts, 0)
		t.gauges = append(t.gauges, 0)
		t.isGauge = append(t.isGauge, gauge)
		t.names = append(t.names, name)
		t.indexes[name] = idx
	}
	return idx
}

// Count adds value to the named stat. The rate argument exists to satisfy
// the Statter interface; the terminal collector never samples.
func (t *Collector) Count(name string, value int64, rate float64, tags ...string) {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.changed = true
	t.counts[t.index(name, false)] += value
}

// Gauge records the latest value of the named stat.
func (t *Collector) Gauge(name string, value float64, rate float64, tags ...string) {
	t.lock.Lock()
	defer t.lock.Unlock()
	t.changed = true
	t.gauges[t.index(name, true)] = value
}

// Timing records the latest duration of the named stat as a gauge in
// milliseconds.
func (t *Collector) Timing(name string, value time.Duration, rate float64, tags ...string) {
	t.Gauge(name, float64(value)/float64(time.Millisecond), rate, tags...)
}

func (t *Collector) write() {
	sb := strings.Builder{}
	t.lock.Lock()
	defer t.lock.Unlock()
	if !t.changed {
		return
	}
	for i := 0; i < len(t.names); i++ {
		if t.isGauge[i] {
			sb.WriteString(fmt.Sprintf("%s: %.1f ", t.names[i], t.gauges[i]))
		} else {
			sb.WriteString(fmt.Sprintf("%s: %d ", t.names[i], t.counts[i]))
		}
	}
	t.changed = false
	fmt.Fprintf(t.out, "\r"+sb.String())
}
