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
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pkg/errors"
)

// S3Option is a functional option type for S3Frontend.
type S3Option func(f *S3Frontend)

// OptS3Bucket sets the bucket holding processed data.
func OptS3Bucket(bucket string) S3Option {
	return func(f *S3Frontend) {
		f.bucket = bucket
	}
}

// OptS3Region sets the AWS region.
func OptS3Region(region string) S3Option {
	return func(f *S3Frontend) {
		f.region = region
	}
}

// OptS3Prefix sets a key prefix under which all run data lives.
func OptS3Prefix(prefix string) S3Option {
	return func(f *S3Frontend) {
		f.prefix = prefix
	}
}

// OptS3Client injects a pre-built S3 client, mainly for tests.
func OptS3Client(svc s3iface.S3API) S3Option {
	return func(f *S3Frontend) {
		f.svc = svc
	}
}

// S3Frontend is the object-storage frontend. Keys mirror the DataDirectory
// layout: <prefix><run>-<target>-<lineage hash>/<chunk files>, with a
// metadata.json written last.
type S3Frontend struct {
	bucket string
	prefix string
	region string

	takeOnly []string

	svc s3iface.S3API
}

// NewS3Frontend returns an S3Frontend with the options applied, dialing a
// session unless a client was injected.
func NewS3Frontend(opts ...S3Option) (*S3Frontend, error) {
	f := &S3Frontend{region: "us-east-1"}
	for _, opt := range opts {
		opt(f)
	}
	if f.bucket == "" {
		return nil, errors.New("s3 frontend needs a bucket")
	}
	if f.prefix != "" && !strings.HasSuffix(f.prefix, "/") {
		f.prefix += "/"
	}
	if f.svc == nil {
		sess, err := session.NewSession(&aws.Config{Region: aws.String(f.region)})
		if err != nil {
			return nil, errors.Wrap(err, "getting aws session")
		}
		f.svc = s3.New(sess)
	}
	return f, nil
}

// Name implements StorageFrontend.
func (f *S3Frontend) Name() string {
	return "S3Frontend(" + f.bucket + ")"
}

// RestrictTo implements StorageFrontend.
func (f *S3Frontend) RestrictTo(types ...string) {
	f.takeOnly = types
}

func (f *S3Frontend) serves(target string) bool {
	if len(f.takeOnly) == 0 {
		return true
	}
	for _, t := range f.takeOnly {
		if t == target {
			return true
		}
	}
	return false
}

// Has implements StorageFrontend by listing keys under the run/target prefix
// and looking for a metadata.json.
func (f *S3Frontend) Has(runID, target string) (bool, error) {
	if !f.serves(target) {
		return false, nil
	}
	prefix := f.prefix + runID + "-" + target
	var found bool
	err := f.svc.ListObjectsV2Pages(&s3.ListObjectsV2Input{
		Bucket: aws.String(f.bucket),
		Prefix: aws.String(prefix),
	}, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, obj := range page.Contents {
			if strings.HasSuffix(aws.StringValue(obj.Key), "/"+metadataFile) {
				found = true
				return false
			}
		}
		return true
	})
	if err != nil {
		return false, errors.Wrapf(err, "listing s3://%s/%s", f.bucket, prefix)
	}
	return found, nil
}
