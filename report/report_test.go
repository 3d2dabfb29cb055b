package report

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Shopify/sarama"
	"github.com/Shopify/sarama/mocks"
)

var _ sarama.Encoder = Event{}

func TestEventEncode(t *testing.T) {
	ev := Event{
		JobID:   "job-1",
		RunID:   "181028_1253",
		Target:  "event_info",
		Chunk:   3,
		Items:   42,
		PctDone: 10.5,
		RSSMB:   812.3,
		Time:    time.Unix(5000, 0).UTC(),
	}

	data, err := ev.Encode()
	if err != nil {
		t.Fatalf("encoding event: %v", err)
	}
	if ev.Length() != len(data) {
		t.Fatalf("Length() %d != encoded length %d", ev.Length(), len(data))
	}

	fields := map[string]interface{}{}
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("unmarshaling event: %v", err)
	}
	for _, name := range []string{"job_id", "run_id", "target", "chunk", "items", "pct_done", "rss_mb", "time"} {
		if _, ok := fields[name]; !ok {
			t.Fatalf("encoded event is missing %q: %s", name, data)
		}
	}
	// Zero-valued trailer fields stay off the wire until the summary event.
	for _, name := range []string{"eta_seconds", "done", "elapsed_seconds", "peak_rss_mb"} {
		if _, ok := fields[name]; ok {
			t.Fatalf("%q should be omitted while zero: %s", name, data)
		}
	}

	ev.ETASeconds = 20
	data, err = ev.Encode()
	if err != nil {
		t.Fatalf("encoding event: %v", err)
	}
	fields = map[string]interface{}{}
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("unmarshaling event: %v", err)
	}
	if fields["eta_seconds"] != 20.0 {
		t.Fatalf("eta_seconds: got %v, expected 20", fields["eta_seconds"])
	}
}

func TestKafkaReport(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var ev Event
		if err := json.Unmarshal(val, &ev); err != nil {
			return err
		}
		if ev.RunID != "181028_1253" {
			t.Fatalf("run id %q on the wire", ev.RunID)
		}
		return nil
	})

	k := &Kafka{topic: "straxen-progress", producer: producer}
	if err := k.Report(Event{JobID: "job-1", RunID: "181028_1253", Target: "event_info"}); err != nil {
		t.Fatalf("reporting: %v", err)
	}
	if err := k.Close(); err != nil {
		t.Fatalf("closing: %v", err)
	}
}

func TestKafkaReportError(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	k := &Kafka{topic: "straxen-progress", producer: producer}
	if err := k.Report(Event{RunID: "181028_1253"}); err == nil {
		t.Fatal("expected the broker error to surface")
	}
	if err := k.Close(); err != nil {
		t.Fatalf("closing: %v", err)
	}
}
