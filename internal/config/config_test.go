// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/meerpipe/meerlaunch/internal/issue"
)

// isolated returns options that cannot pick up a real user config.
func isolated(t *testing.T) LoadOptions {
	t.Helper()
	dir := t.TempDir()
	return LoadOptions{ConfigDirPath: filepath.Join(dir, "cfg"), BaseDir: dir}
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	cfg, path, err := NewProvider().LoadWithSource(context.Background(), isolated(t))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if path != "" {
		t.Errorf("source = %q, want none", path)
	}

	d := DefaultConfig()
	if cfg.Dispatcher.URL != d.Dispatcher.URL || cfg.Dispatcher.Timeout != 5*time.Minute {
		t.Errorf("dispatcher = %+v", cfg.Dispatcher)
	}
	if cfg.Storage.GiB != 100 {
		t.Errorf("storage.gib = %d, want 100", cfg.Storage.GiB)
	}
	if cfg.Nextflow.Runner != "/root/nextflow" || cfg.Nextflow.Profile != "docker" {
		t.Errorf("nextflow = %+v", cfg.Nextflow)
	}
	if !slices.Equal(cfg.Paths.Excludes, d.Paths.Excludes) {
		t.Errorf("paths.excludes = %v", cfg.Paths.Excludes)
	}
	if cfg.Logs.SubPath != "nf_nf_core_meerpipe" || cfg.Logs.FileName != "nextflow.log" {
		t.Errorf("logs = %+v", cfg.Logs)
	}
}

func TestLoad_ConfigDirFile(t *testing.T) {
	t.Parallel()

	opts := isolated(t)
	want := writeConfig(t, opts.ConfigDirPath, `
storage: gib: 250
dispatcher: timeout: "90s"
logs: {
	base: "s3://pulsar-logs/runs"
	s3: endpoint: "http://minio:9000"
}
paths: excludes: ["work", "results"]
`)

	cfg, path, err := NewProvider().LoadWithSource(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if path != want {
		t.Errorf("source = %q, want %q", path, want)
	}
	if cfg.Storage.GiB != 250 {
		t.Errorf("storage.gib = %d, want 250", cfg.Storage.GiB)
	}
	if cfg.Dispatcher.Timeout != 90*time.Second {
		t.Errorf("dispatcher.timeout = %v, want 90s", cfg.Dispatcher.Timeout)
	}
	if cfg.Logs.Base != "s3://pulsar-logs/runs" || cfg.Logs.S3.Endpoint != "http://minio:9000" {
		t.Errorf("logs = %+v", cfg.Logs)
	}
	if !slices.Equal(cfg.Paths.Excludes, []string{"work", "results"}) {
		t.Errorf("paths.excludes = %v", cfg.Paths.Excludes)
	}
	// Untouched keys keep their defaults.
	if cfg.Nextflow.Script != "main.nf" {
		t.Errorf("nextflow.script = %q, want default", cfg.Nextflow.Script)
	}
}

func TestLoad_LocalFileFallback(t *testing.T) {
	t.Parallel()

	opts := isolated(t)
	want := writeConfig(t, opts.BaseDir, `nextflow: profile: "singularity"`)

	cfg, path, err := NewProvider().LoadWithSource(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if path != want || cfg.Nextflow.Profile != "singularity" {
		t.Errorf("Load() = (%q, %q), want (%q, singularity)", path, cfg.Nextflow.Profile, want)
	}
}

func TestLoad_ExplicitPath(t *testing.T) {
	t.Parallel()

	opts := isolated(t)
	writeConfig(t, opts.ConfigDirPath, `storage: gib: 1`)
	explicit := writeConfig(t, filepath.Join(opts.BaseDir, "other"), `storage: gib: 2`)
	opts.ConfigFilePath = explicit

	cfg, err := NewProvider().Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Storage.GiB != 2 {
		t.Errorf("storage.gib = %d, want 2 from the explicit file", cfg.Storage.GiB)
	}

	opts.ConfigFilePath = filepath.Join(opts.BaseDir, "missing.cue")
	_, err = NewProvider().Load(context.Background(), opts)
	var ae *issue.ActionableError
	if !errors.As(err, &ae) || !strings.Contains(err.Error(), "config file not found") {
		t.Errorf("Load() error = %v, want actionable not-found error", err)
	}
}

func TestLoad_SchemaViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{"unknown field", `nextflow: shell: "bash"`},
		{"zero storage", `storage: gib: 0`},
		{"bad url", `dispatcher: url: "nf-dispatcher"`},
		{"bad timeout", `dispatcher: timeout: "soon"`},
		{"bad log base", `logs: base: "latch:///logs"`},
		{"exclude with slash", `paths: excludes: ["a/b"]`},
		{"bad color scheme", `ui: color_scheme: "neon"`},
		{"syntax error", `storage: {`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			opts := isolated(t)
			writeConfig(t, opts.ConfigDirPath, tt.content)

			_, err := NewProvider().Load(context.Background(), opts)
			var ae *issue.ActionableError
			if !errors.As(err, &ae) {
				t.Fatalf("Load() error = %v, want ActionableError", err)
			}
			if ae.Issue != issue.ConfigLoadFailedId {
				t.Errorf("Issue = %d, want ConfigLoadFailedId", ae.Issue)
			}
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	opts := isolated(t)
	writeConfig(t, opts.ConfigDirPath, `storage: gib: 250`)
	t.Setenv("MEERLAUNCH_STORAGE_GIB", "500")
	t.Setenv("MEERLAUNCH_LOGS_BASE", "file:///srv/logs")

	cfg, err := NewProvider().Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Storage.GiB != 500 {
		t.Errorf("storage.gib = %d, want 500 from the environment", cfg.Storage.GiB)
	}
	if cfg.Logs.Base != "file:///srv/logs" {
		t.Errorf("logs.base = %q", cfg.Logs.Base)
	}
}

func TestLoad_EnvOverrideValidated(t *testing.T) {
	opts := isolated(t)
	t.Setenv("MEERLAUNCH_UI_LOG_FORMAT", "xml")

	_, err := NewProvider().Load(context.Background(), opts)
	if !errors.Is(err, ErrInvalidLogFormat) {
		t.Errorf("Load() error = %v, want ErrInvalidLogFormat", err)
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewProvider().Load(ctx, isolated(t)); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestGenerateCUE_EmptyLogBase(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	out := GenerateCUE(cfg)
	if !strings.Contains(out, "// Empty base disables .nextflow.log upload") {
		t.Errorf("GenerateCUE() lacks the upload note for an empty logs.base:\n%s", out)
	}

	opts := isolated(t)
	writeConfig(t, opts.ConfigDirPath, out)
	got, err := NewProvider().Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() of generated config error = %v\n%s", err, out)
	}
	if got.Logs.Base != "" {
		t.Errorf("logs.base = %q, want empty", got.Logs.Base)
	}

	cfg.Logs.Base = "s3://bucket/logs"
	if strings.Contains(GenerateCUE(cfg), "// Empty base") {
		t.Error("GenerateCUE() keeps the upload note when logs.base is set")
	}
}

func TestGenerateCUE_RoundTrip(t *testing.T) {
	t.Parallel()

	want := DefaultConfig()
	want.Storage.GiB = 42
	want.Logs.Base = "s3://bucket/prefix"
	want.Nextflow.EnvFiles = []string{"psrdb.env"}
	want.UI.LogFormat = LogFormatJSON

	opts := isolated(t)
	writeConfig(t, opts.ConfigDirPath, GenerateCUE(want))

	got, err := NewProvider().Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() of generated config error = %v\n%s", err, GenerateCUE(want))
	}
	if got.Storage.GiB != 42 || got.Logs.Base != want.Logs.Base || got.UI.LogFormat != LogFormatJSON {
		t.Errorf("Load() = %+v", got)
	}
	if !slices.Equal(got.Nextflow.EnvFiles, want.Nextflow.EnvFiles) {
		t.Errorf("nextflow.env_files = %v", got.Nextflow.EnvFiles)
	}
	if got.Dispatcher.Timeout != want.Dispatcher.Timeout {
		t.Errorf("dispatcher.timeout = %v", got.Dispatcher.Timeout)
	}
}
