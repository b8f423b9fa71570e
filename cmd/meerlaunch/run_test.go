// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"github.com/meerpipe/meerlaunch/internal/config"
	"github.com/meerpipe/meerlaunch/internal/dispatcher"
	"github.com/meerpipe/meerlaunch/internal/fscopy"
	"github.com/meerpipe/meerlaunch/internal/issue"
	"github.com/meerpipe/meerlaunch/internal/launch"
	"github.com/meerpipe/meerlaunch/internal/logupload"
	"github.com/meerpipe/meerlaunch/internal/runtime"
	"github.com/meerpipe/meerlaunch/pkg/params"
)

type recordingProvisioner struct {
	token string
	gib   int
	err   error
}

func (p *recordingProvisioner) ProvisionStorage(_ context.Context, token string, gib int) (dispatcher.VolumeName, error) {
	p.token, p.gib = token, gib
	if p.err != nil {
		return "", p.err
	}
	return "pvc-test", nil
}

type recordingRunner struct {
	code runtime.ExitCode
	spec runtime.Spec
}

func (r *recordingRunner) Run(_ context.Context, spec runtime.Spec) *runtime.Result {
	r.spec = spec
	return runtime.NewExitCodeResult(r.code)
}

type nopPublisher struct{ calls int }

func (p *nopPublisher) Publish(context.Context, string, string) (logupload.Report, error) {
	p.calls++
	return logupload.Report{}, nil
}

// fakeLaunch builds launchers around recording fakes.
type fakeLaunch struct {
	builds    int
	prov      *recordingProvisioner
	runner    *recordingRunner
	publisher *nopPublisher
}

func newFakeLaunch() *fakeLaunch {
	return &fakeLaunch{
		prov:      &recordingProvisioner{},
		runner:    &recordingRunner{},
		publisher: &nopPublisher{},
	}
}

func (f *fakeLaunch) build(_ context.Context, cfg *config.Config) (*launch.Launcher, error) {
	f.builds++
	return &launch.Launcher{
		Settings:    settingsFromConfig(cfg),
		Catalog:     params.Meerpipe(),
		Provisioner: f.prov,
		Copy: func(string, string, fscopy.Excluder) (fscopy.Stats, error) {
			return fscopy.Stats{Files: 1}, nil
		},
		Runner:    f.runner,
		Publisher: f.publisher,
		Environ:   func() []string { return []string{"PATH=/usr/bin"} },
	}, nil
}

func envLookup(env map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
}

func TestCollectValues_Precedence(t *testing.T) {
	t.Parallel()

	paramsFile := filepath.Join(t.TempDir(), "params.toml")
	content := "pulsar = \"J1909-3744\"\npsrdb_url = \"https://file.example\"\nemail = \"a@b.c\"\n"
	if err := os.WriteFile(paramsFile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cat := params.Meerpipe()
	fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
	in := &valueInputs{}
	registerParamFlags(fs, cat, in)
	err := fs.Parse([]string{
		"--params-file", paramsFile,
		"--pulsar", "J0437-4715",
		"--chop_edge=false",
		"--tos_sn", "20",
		"--unset", "email",
	})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	app := NewApp(Dependencies{LookupEnv: envLookup(map[string]string{
		"PSRDB_URL":   "https://env.example",
		"PSRDB_TOKEN": "env-token",
	})})
	got, err := app.collectValues(fs, cat, *in)
	if err != nil {
		t.Fatalf("collectValues() error = %v", err)
	}

	want := params.Values{
		"pulsar":      params.String("J0437-4715"),
		"psrdb_url":   params.String("https://file.example"),
		"psrdb_token": params.String("env-token"),
		"chop_edge":   params.Bool(false),
		"tos_sn":      params.Int(20),
		"email":       params.Absent(),
	}
	if len(got) != len(want) {
		t.Errorf("collectValues() = %v, want %v", got, want)
	}
	for name, w := range want {
		if got[name] != w {
			t.Errorf("value %q = %v, want %v", name, got[name], w)
		}
	}
}

func TestCollectValues_Errors(t *testing.T) {
	t.Parallel()

	badFile := filepath.Join(t.TempDir(), "params.json")
	if err := os.WriteFile(badFile, []byte(`{"tos_sn": "many"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		in    valueInputs
		check func(error) bool
	}{
		{
			name:  "unknown unset",
			in:    valueInputs{unset: []string{"nope"}},
			check: func(err error) bool { return errors.Is(err, params.ErrUnknownParam) },
		},
		{
			name: "invalid params file",
			in:   valueInputs{paramsFile: badFile},
			check: func(err error) bool {
				var ae *issue.ActionableError
				return errors.As(err, &ae) && ae.Issue == issue.ParamsFileInvalidId
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cat := params.Meerpipe()
			fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
			registerParamFlags(fs, cat, &valueInputs{})
			app := NewApp(Dependencies{LookupEnv: envLookup(nil)})
			if _, err := app.collectValues(fs, cat, tt.in); !tt.check(err) {
				t.Errorf("collectValues() error = %v", err)
			}
		})
	}
}

func TestRun_Success(t *testing.T) {
	// Not parallel: command execution installs the default slog logger.

	fake := newFakeLaunch()
	cli := newTestCLI(Dependencies{
		BuildLauncher: fake.build,
		LookupEnv:     envLookup(map[string]string{"FLYTE_INTERNAL_EXECUTION_ID": "exec-1"}),
	})

	if err := cli.execute("run", "--pulsar", "J0437-4715", "--upload=false"); err != nil {
		t.Fatalf("execute() error = %v\nstderr: %s", err, cli.stderr.String())
	}
	if fake.prov.token != "exec-1" || fake.prov.gib != 100 {
		t.Errorf("provisioned with token %q and %d GiB", fake.prov.token, fake.prov.gib)
	}
	args := fake.runner.spec.Args
	if !slices.Contains(args, "J0437-4715") {
		t.Errorf("runner args = %v, want the pulsar value", args)
	}
	if i := slices.Index(args, "--upload"); i < 0 || i+1 >= len(args) || args[i+1] != "false" {
		t.Errorf("runner args = %v, want --upload false", args)
	}
	if fake.runner.spec.Env[launch.EnvStorageClaimName] != "pvc-test" {
		t.Errorf("claim env = %q", fake.runner.spec.Env[launch.EnvStorageClaimName])
	}
	if fake.publisher.calls != 1 {
		t.Errorf("publisher calls = %d, want 1", fake.publisher.calls)
	}
}

func TestRun_PipelineStatusBecomesExitCode(t *testing.T) {
	// Not parallel: command execution installs the default slog logger.

	fake := newFakeLaunch()
	fake.runner.code = 3
	cli := newTestCLI(Dependencies{
		BuildLauncher: fake.build,
		LookupEnv:     envLookup(map[string]string{"FLYTE_INTERNAL_EXECUTION_ID": "exec-1"}),
	})

	err := cli.execute("run")
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 3 {
		t.Fatalf("execute() error = %v, want ExitError 3", err)
	}
	if !errors.Is(err, launch.ErrPipelineFailed) {
		t.Errorf("error %v does not match ErrPipelineFailed", err)
	}
	if fake.publisher.calls != 1 {
		t.Errorf("log not published after failed run")
	}
	if !strings.Contains(cli.stderr.String(), "failed to run the pipeline") {
		t.Errorf("stderr = %q", cli.stderr.String())
	}
}

func TestRun_MissingToken(t *testing.T) {
	// Not parallel: command execution installs the default slog logger.

	fake := newFakeLaunch()
	fake.prov.err = dispatcher.ErrMissingToken
	cli := newTestCLI(Dependencies{BuildLauncher: fake.build})

	err := cli.execute("run", "--verbose")
	var ae *issue.ActionableError
	if !errors.As(err, &ae) || ae.Issue != issue.MissingTokenId {
		t.Fatalf("execute() error = %v, want MissingTokenId guidance", err)
	}
	if fake.runner.spec.Path != "" || fake.publisher.calls != 0 {
		t.Error("ran or published without storage")
	}
	if !strings.Contains(cli.stderr.String(), "No execution token") {
		t.Errorf("verbose stderr lacks issue guidance:\n%s", cli.stderr.String())
	}
}

func TestRun_DryRun(t *testing.T) {
	// Not parallel: command execution installs the default slog logger.

	fake := newFakeLaunch()
	cli := newTestCLI(Dependencies{BuildLauncher: fake.build})

	if err := cli.execute("run", "--dry-run", "--pulsar", "J0437 4715", "--env-file", "extra.env"); err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	if fake.builds != 0 {
		t.Error("dry run built a launcher")
	}
	out := cli.stdout.String()
	for _, want := range []string{"Dry Run", "100 GiB", "'J0437 4715'", "K8S_STORAGE_CLAIM_NAME", "extra.env", "logs.base is empty"} {
		if !strings.Contains(out, want) {
			t.Errorf("dry run output missing %q:\n%s", want, out)
		}
	}
}

func TestCmdline(t *testing.T) {
	// Not parallel: command execution installs the default slog logger.

	cli := newTestCLI(Dependencies{})
	if err := cli.execute("cmdline", "--outdir", "s3://bucket/out dir", "--use_prev_ar"); err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	got := strings.TrimSpace(cli.stdout.String())
	for _, want := range []string{
		"/root/nextflow run /nf-workdir/main.nf -work-dir /nf-workdir -profile docker -c latch.config",
		"--outdir 's3://bucket/out dir'",
		"--use_prev_ar",
		"--tos_sn 12",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("cmdline = %q, want it to contain %q", got, want)
		}
	}
}

func TestCmdline_UnknownUnset(t *testing.T) {
	// Not parallel: command execution installs the default slog logger.

	cli := newTestCLI(Dependencies{})
	err := cli.execute("cmdline", "--unset", "bogus")
	if !errors.Is(err, params.ErrUnknownParam) {
		t.Fatalf("execute() error = %v, want ErrUnknownParam", err)
	}
}

func TestProvision(t *testing.T) {
	// Not parallel: command execution installs the default slog logger.

	t.Run("prints volume", func(t *testing.T) {
		fake := newFakeLaunch()
		cli := newTestCLI(Dependencies{
			BuildLauncher: fake.build,
			LookupEnv:     envLookup(map[string]string{"FLYTE_INTERNAL_EXECUTION_ID": "exec-9"}),
		})
		if err := cli.execute("provision", "--gib", "250"); err != nil {
			t.Fatalf("execute() error = %v", err)
		}
		if got := strings.TrimSpace(cli.stdout.String()); got != "pvc-test" {
			t.Errorf("stdout = %q, want pvc-test", got)
		}
		if fake.prov.gib != 250 || fake.prov.token != "exec-9" {
			t.Errorf("provisioned %d GiB with token %q", fake.prov.gib, fake.prov.token)
		}
	})

	t.Run("invalid size", func(t *testing.T) {
		fake := newFakeLaunch()
		cli := newTestCLI(Dependencies{BuildLauncher: fake.build})
		err := cli.execute("provision", "--gib", "0")
		if !errors.Is(err, config.ErrInvalidStorageSize) {
			t.Fatalf("execute() error = %v, want ErrInvalidStorageSize", err)
		}
		if fake.builds != 0 {
			t.Error("launcher built for an invalid size")
		}
	})

	t.Run("dispatcher error", func(t *testing.T) {
		fake := newFakeLaunch()
		fake.prov.err = &dispatcher.StatusError{StatusCode: 500, Body: "boom"}
		cli := newTestCLI(Dependencies{
			BuildLauncher: fake.build,
			LookupEnv:     envLookup(map[string]string{"FLYTE_INTERNAL_EXECUTION_ID": "exec-9"}),
		})
		err := cli.execute("provision")
		var ae *issue.ActionableError
		if !errors.As(err, &ae) || ae.Issue != issue.ProvisioningFailedId {
			t.Fatalf("execute() error = %v, want ProvisioningFailedId", err)
		}
	})
}

func TestClassifyLaunchError(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	tests := []struct {
		name string
		err  error
		want issue.Id
	}{
		{"missing token", errors.Join(launch.ErrProvisioning, dispatcher.ErrMissingToken), issue.MissingTokenId},
		{"provisioning", errors.Join(launch.ErrProvisioning, errors.New("503")), issue.ProvisioningFailedId},
		{"type mismatch", &params.TypeMismatchError{Name: "tos_sn", Want: params.TypeInt, Got: params.TypeString}, issue.ParamsFileInvalidId},
		{"staging", errors.Join(launch.ErrStaging, os.ErrPermission), issue.StagingFailedId},
		{"runner missing", errors.Join(errors.New("failed to run /root/nextflow"), os.ErrNotExist), issue.RunnerNotFoundId},
		{"pipeline and upload", errors.Join(&launch.PipelineError{ExitCode: 1}, launch.ErrLogUpload), issue.PipelineFailedId},
		{"upload only", errors.Join(launch.ErrLogUpload, errors.New("denied")), issue.LogUploadFailedId},
		{"other", errors.New("surprise"), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := classifyLaunchError(tt.err, cfg)
			var ae *issue.ActionableError
			if !errors.As(got, &ae) {
				t.Fatalf("classifyLaunchError() = %v, want ActionableError", got)
			}
			if ae.Issue != tt.want {
				t.Errorf("issue = %d, want %d", ae.Issue, tt.want)
			}
			if !errors.Is(got, tt.err) {
				t.Error("classified error lost its cause")
			}
		})
	}
}

func TestLaunchExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		out  *launch.Outcome
		want runtime.ExitCode
	}{
		{"no outcome", nil, 1},
		{"not started", &launch.Outcome{}, 1},
		{"nextflow status", &launch.Outcome{Result: runtime.NewExitCodeResult(4)}, 4},
		{"signal", &launch.Outcome{Result: runtime.NewExitCodeResult(143)}, 143},
		{"ran fine, upload failed", &launch.Outcome{Result: runtime.NewExitCodeResult(0)}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := launchExitCode(tt.out); got != tt.want {
				t.Errorf("launchExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSettingsFromConfig(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	if got, want := settingsFromConfig(cfg), launch.DefaultSettings(); !slices.Equal(got.Excludes, want.Excludes) ||
		got.Runner != want.Runner || got.SharedDir != want.SharedDir || got.StorageGiB != want.StorageGiB ||
		got.NXFOpts != want.NXFOpts || got.LogFile != want.LogFile {
		t.Errorf("default config maps to %+v, want %+v", got, want)
	}

	cfg.Storage.GiB = 500
	cfg.Paths.SharedDir = "/mnt/shared"
	cfg.Metrics.Textfile = "/var/lib/node_exporter/meerlaunch.prom"
	s := settingsFromConfig(cfg)
	if s.StorageGiB != 500 || s.LogPath() != "/mnt/shared/.nextflow.log" || s.MetricsTextfile != cfg.Metrics.Textfile {
		t.Errorf("settingsFromConfig() = %+v", s)
	}
}

func TestQuoteArgv(t *testing.T) {
	t.Parallel()

	got, err := quoteArgv([]string{"nextflow", "--pulsar", "J0437 4715"})
	if err != nil {
		t.Fatalf("quoteArgv() error = %v", err)
	}
	if got != "nextflow --pulsar 'J0437 4715'" {
		t.Errorf("quoteArgv() = %q", got)
	}

	if _, err := quoteArgv([]string{"bad\x00arg"}); err == nil {
		t.Error("quoteArgv() accepted a NUL byte")
	}
}
