package strax_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/tunnell/straxen/strax"
	"github.com/tunnell/straxen/test"
)

func writeStored(t *testing.T, root, dir string) {
	t.Helper()
	full := filepath.Join(root, dir)
	test.ErrNil(t, os.MkdirAll(full, 0755), "making data dir")
	test.ErrNil(t, os.WriteFile(filepath.Join(full, "metadata.json"), []byte("{}"), 0644), "writing metadata")
}

func TestDataDirectoryHas(t *testing.T) {
	root := t.TempDir()
	writeStored(t, root, "181028_1253-event_info-3ld1aslf")
	// partial write: no metadata.json
	test.ErrNil(t, os.MkdirAll(filepath.Join(root, "181028_1253-peaks-9fhh2bba"), 0755), "making partial dir")

	d := strax.NewDataDirectory(root)

	tests := []struct {
		runID  string
		target string
		exp    bool
	}{
		{"181028_1253", "event_info", true},
		{"181028_1253", "peaks", false},     // no metadata.json yet
		{"181028_1253", "records", false},   // never written
		{"181028_9999", "event_info", false}, // other run
	}
	for _, tst := range tests {
		got, err := d.Has(tst.runID, tst.target)
		test.ErrNil(t, err, "Has")
		if got != tst.exp {
			t.Fatalf("Has(%s, %s): got %v, expected %v", tst.runID, tst.target, got, tst.exp)
		}
	}
}

func TestDataDirectoryTakeOnly(t *testing.T) {
	root := t.TempDir()
	writeStored(t, root, "run0-event_info-aaaa")
	writeStored(t, root, "run0-raw_records-bbbb")

	d := strax.NewDataDirectory(root, strax.OptDataDirTakeOnly(strax.RawType))

	got, err := d.Has("run0", "event_info")
	test.ErrNil(t, err, "Has")
	if got {
		t.Fatal("restricted directory should not serve event_info")
	}
	got, err = d.Has("run0", strax.RawType)
	test.ErrNil(t, err, "Has")
	if !got {
		t.Fatal("restricted directory should still serve raw_records")
	}

	d.RestrictTo() // lift the restriction
	got, err = d.Has("run0", "event_info")
	test.ErrNil(t, err, "Has")
	if !got {
		t.Fatal("unrestricted directory should serve event_info again")
	}
}

// fakeS3 serves a fixed key list for ListObjectsV2Pages.
type fakeS3 struct {
	s3iface.S3API
	keys []string
}

func (f *fakeS3) ListObjectsV2Pages(in *s3.ListObjectsV2Input, fn func(*s3.ListObjectsV2Output, bool) bool) error {
	var contents []*s3.Object
	for _, k := range f.keys {
		if strings.HasPrefix(k, aws.StringValue(in.Prefix)) {
			contents = append(contents, &s3.Object{Key: aws.String(k)})
		}
	}
	fn(&s3.ListObjectsV2Output{Contents: contents}, true)
	return nil
}

func TestS3FrontendHas(t *testing.T) {
	svc := &fakeS3{keys: []string{
		"xenon/run0-event_info-aaaa/metadata.json",
		"xenon/run0-event_info-aaaa/chunk-000000",
		"xenon/run1-peaks-bbbb/chunk-000000", // no metadata.json
	}}
	f, err := strax.NewS3Frontend(
		strax.OptS3Bucket("processed"),
		strax.OptS3Prefix("xenon"),
		strax.OptS3Client(svc),
	)
	test.ErrNil(t, err, "getting s3 frontend")

	got, err := f.Has("run0", "event_info")
	test.ErrNil(t, err, "Has")
	if !got {
		t.Fatal("run0-event_info should be stored")
	}
	got, err = f.Has("run1", "peaks")
	test.ErrNil(t, err, "Has")
	if got {
		t.Fatal("run1-peaks has no metadata.json and should not count as stored")
	}

	f.RestrictTo(strax.RawType)
	got, err = f.Has("run0", "event_info")
	test.ErrNil(t, err, "Has")
	if got {
		t.Fatal("restricted frontend should not serve event_info")
	}
}

func TestS3FrontendNeedsBucket(t *testing.T) {
	_, err := strax.NewS3Frontend()
	if err == nil {
		t.Fatal("expected an error without a bucket")
	}
}
