// SPDX-License-Identifier: MPL-2.0

package logupload

import (
	"context"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/testcontainers/testcontainers-go/modules/minio"

	"github.com/meerpipe/meerlaunch/internal/testutil"
)

func TestS3Uploader_MinIO(t *testing.T) {
	testutil.RequireContainers(t)

	sem := testutil.ContainerSemaphore()
	sem <- struct{}{}
	defer func() { <-sem }()

	ctx := context.Background()
	container, err := minio.Run(ctx, "minio/minio:latest",
		minio.WithUsername("minioadmin"),
		minio.WithPassword("minioadmin"),
	)
	if err != nil {
		t.Fatalf("failed to start minio: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate minio container: %v", err)
		}
	})

	endpoint, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatal(err)
	}

	up, err := NewS3Uploader(ctx, S3Options{
		Region:          "us-east-1",
		Endpoint:        "http://" + endpoint,
		AccessKeyID:     container.Username,
		SecretAccessKey: container.Password,
	})
	if err != nil {
		t.Fatalf("NewS3Uploader() error = %v", err)
	}

	const bucket = "pipeline-logs"
	if _, err := up.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)}); err != nil {
		t.Fatalf("CreateBucket() error = %v", err)
	}

	p := &Publisher{
		Names:    &fakeNames{name: "exec-11", ok: true},
		Uploader: up,
		Base:     "s3://" + bucket + "/your_log_dir",
		SubPath:  "nf_nf_core_meerpipe",
		FileName: "nextflow.log",
	}
	report, err := p.Publish(ctx, "tok", writeLog(t, "Nextflow 24.10\n"))
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	out, err := up.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(report.Location.Key),
	})
	if err != nil {
		t.Fatalf("GetObject() error = %v", err)
	}
	defer func() { _ = out.Body.Close() }()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "Nextflow 24.10\n" {
		t.Errorf("object body = %q", body)
	}
	if report.Location.Key != "your_log_dir/nf_nf_core_meerpipe/exec-11/nextflow.log" {
		t.Errorf("object key = %q", report.Location.Key)
	}
}
