// SPDX-License-Identifier: MPL-2.0

package logupload

import (
	"errors"
	"testing"
)

func TestCompose(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		base    string
		subPath string
		runName string
		file    string
		want    string
		wantErr error
	}{
		{
			name:    "s3 with prefix",
			base:    "s3://bucket/your_log_dir/",
			subPath: "nf_nf_core_meerpipe",
			runName: "exec-42",
			file:    "nextflow.log",
			want:    "s3://bucket/your_log_dir/nf_nf_core_meerpipe/exec-42/nextflow.log",
		},
		{
			name:    "s3 bucket root",
			base:    "s3://bucket",
			subPath: "",
			runName: "exec-42",
			file:    "nextflow.log",
			want:    "s3://bucket/exec-42/nextflow.log",
		},
		{
			name:    "file base with nested sub path",
			base:    "file:///srv/logs",
			subPath: "a/b",
			runName: "exec-1",
			file:    "nextflow.log",
			want:    "file:///srv/logs/a/b/exec-1/nextflow.log",
		},
		{name: "empty run name", base: "s3://b", runName: "", file: "x", wantErr: ErrInvalidSegment},
		{name: "run name escapes", base: "s3://b", runName: "..", file: "x", wantErr: ErrInvalidSegment},
		{name: "run name with slash", base: "s3://b", runName: "a/b", file: "x", wantErr: ErrInvalidSegment},
		{name: "sub path escapes", base: "s3://b", subPath: "a/../..", runName: "r", file: "x", wantErr: ErrInvalidSegment},
		{name: "unsupported scheme", base: "latch:///logs", runName: "r", file: "x", wantErr: ErrInvalidLocation},
		{name: "s3 without bucket", base: "s3:///logs", runName: "r", file: "x", wantErr: ErrInvalidLocation},
		{name: "relative file path", base: "file://logs", runName: "r", file: "x", wantErr: ErrInvalidLocation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			loc, err := Compose(tt.base, tt.subPath, tt.runName, tt.file)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Compose() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Compose() error = %v", err)
			}
			if got := loc.String(); got != tt.want {
				t.Errorf("Compose() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseBase(t *testing.T) {
	t.Parallel()

	loc, err := ParseBase("s3://logs-bucket/a/b")
	if err != nil {
		t.Fatalf("ParseBase() error = %v", err)
	}
	if loc.Bucket != "logs-bucket" || loc.Key != "a/b" {
		t.Errorf("ParseBase() = %+v", loc)
	}

	loc, err = ParseBase("file:///tmp/../srv/logs/")
	if err != nil {
		t.Fatalf("ParseBase() error = %v", err)
	}
	if loc.Key != "/srv/logs" {
		t.Errorf("ParseBase() key = %q, want /srv/logs", loc.Key)
	}
}
