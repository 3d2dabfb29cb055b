// Package strax holds the client bindings for the strax processing engine:
// the Context configuration bundle, the storage frontend descriptors, and
// the chunk iterator contract. The engine itself lives behind the Pipeline
// interface and is attached to a Context by the application (or by a mock in
// tests); nothing in this package schedules work.
package strax
