package strax

// Chunk is one unit of engine output: a contiguous slice of the run's time
// range. The driver only ever looks at the item count and the end marker;
// the payload stays inside the engine and its storage.
type Chunk struct {
	// Items is the number of rows in the chunk. Zero-item chunks are legal
	// and show up when a plugin flushes an empty time range.
	Items int

	// End marks the end of the chunk's time range in nanoseconds since the
	// unix epoch.
	End int64
}

// ChunkIterator produces chunks in time order. Next blocks until the engine
// has a chunk ready, returns io.EOF after the final chunk, and returns any
// engine failure as-is.
type ChunkIterator interface {
	Next() (Chunk, error)
}
