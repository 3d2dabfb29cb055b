package termstat

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestCollector(t *testing.T) {
	buf := &bytes.Buffer{}
	c := NewCollector(buf)
	defer c.Stop()

	c.Count("chunks", 1, 1)
	c.Count("chunks", 2, 1)
	c.Gauge("rss_mb", 123.4, 1)
	c.Gauge("rss_mb", 125.0, 1)
	c.Timing("chunk_wait", 1500*time.Millisecond, 1)
	c.write()

	out := buf.String()
	if !strings.Contains(out, "chunks: 3") {
		t.Fatalf("counters should accumulate: %q", out)
	}
	if !strings.Contains(out, "rss_mb: 125.0") {
		t.Fatalf("gauges should keep the latest value: %q", out)
	}
	if !strings.Contains(out, "chunk_wait: 1500.0") {
		t.Fatalf("timings should print as milliseconds: %q", out)
	}
	if strings.Index(out, "chunks") > strings.Index(out, "rss_mb") {
		t.Fatalf("stats should print in first-seen order: %q", out)
	}
}

func TestCollectorWriteOnlyOnChange(t *testing.T) {
	buf := &bytes.Buffer{}
	c := NewCollector(buf)
	defer c.Stop()

	c.write()
	if buf.Len() != 0 {
		t.Fatalf("nothing recorded, nothing should print: %q", buf.String())
	}

	c.Count("chunks", 1, 1)
	c.write()
	n := buf.Len()
	if n == 0 {
		t.Fatal("recorded stats should print")
	}
	c.write()
	if buf.Len() != n {
		t.Fatalf("unchanged stats should not reprint: %q", buf.String())
	}
}
