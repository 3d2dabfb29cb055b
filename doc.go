// straxen is a driver for processing detector runs with the strax pipeline
// engine. It owns everything that happens outside the engine: building a
// processing context from a named preset, describing where processed data
// lives (storage frontends), resolving run metadata, and watching the
// engine's chunk stream while reporting progress, ETA and memory usage.
//
// The engine itself - plugin graphs, mailboxes, worker scheduling - is a
// black box behind the strax.Pipeline interface. This repository never
// reimplements it; it configures it and consumes its output.
//
// The important pieces:
//
// 1. strax
//
//    Client bindings for the engine. A strax.Context is the mutable bundle
//    of configuration handed to the engine for one invocation: the storage
//    frontend list, concurrency and mailbox tunables, and a free-form
//    config map. Contexts are built by name from an explicit registry, so
//    "which configuration am I running with" is always one string in the
//    invocation.
//
// 2. rundb
//
//    The local run database. Run documents (start/end instants and friends)
//    are kept in a bolt file so that run metadata is resolved exactly once
//    per invocation and never refetched mid-run.
//
// 3. process
//
//    The driver loop. Checks whether the target is already stored, fetches
//    run metadata, then consumes the engine's chunk iterator one chunk at a
//    time, sampling resident memory and printing a one-line progress report
//    per chunk. Optional wrappers profile CPU to a file or sample RAM over
//    the whole invocation.
//
// 4. report
//
//    Optional progress events on the monitoring bus (Kafka), so operators
//    can watch long reprocessing jobs without tailing logs.

package straxen
