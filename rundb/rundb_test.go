package rundb_test

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tunnell/straxen/rundb"
	"github.com/tunnell/straxen/strax"
	"github.com/tunnell/straxen/test"
)

func openTestDB(t *testing.T) *rundb.DB {
	t.Helper()
	db, err := rundb.Open(filepath.Join(t.TempDir(), "runs.db"))
	test.ErrNil(t, err, "opening run db")
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPutGet(t *testing.T) {
	db := openTestDB(t)

	start := time.Date(2018, 10, 28, 12, 53, 0, 0, time.UTC)
	md := &strax.RunMetadata{
		RunID: "181028_1253",
		Start: start,
		End:   start.Add(100 * time.Second),
		Mode:  "background",
		Tags:  []string{"_sciencerun2"},
	}
	test.ErrNil(t, db.Put(md), "putting run doc")

	got, err := db.Get("181028_1253")
	test.ErrNil(t, err, "getting run doc")
	test.MustBe(t, md.RunID, got.RunID, "run id")
	if !got.Start.Equal(md.Start) || !got.End.Equal(md.End) {
		t.Fatalf("timestamps changed in round trip: %v-%v != %v-%v",
			got.Start, got.End, md.Start, md.End)
	}
	test.MustBe(t, 100*time.Second, got.Duration(), "duration")
	test.MustBe(t, md.Mode, got.Mode, "mode")
	test.MustBe(t, md.Tags, got.Tags, "tags")
}

func TestGetMissing(t *testing.T) {
	db := openTestDB(t)
	_, err := db.Get("190101_0000")
	if err == nil || !strings.Contains(err.Error(), "not in run database") {
		t.Fatalf("expected a not-found error, got %v", err)
	}
}

func TestPutNeedsRunID(t *testing.T) {
	db := openTestDB(t)
	if err := db.Put(&strax.RunMetadata{}); err == nil {
		t.Fatal("expected an error for a run doc without an id")
	}
}

func TestList(t *testing.T) {
	db := openTestDB(t)
	start := time.Date(2018, 10, 28, 0, 0, 0, 0, time.UTC)
	for _, id := range []string{"181028_0100", "181028_0000", "181028_0200"} {
		test.ErrNil(t, db.Put(&strax.RunMetadata{
			RunID: id,
			Start: start,
			End:   start.Add(time.Hour),
		}), "putting "+id)
	}
	ids, err := db.List()
	test.ErrNil(t, err, "listing runs")
	// bolt iterates in key order
	test.MustBe(t, []string{"181028_0000", "181028_0100", "181028_0200"}, ids, "run ids")
}
