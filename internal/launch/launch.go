// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/meerpipe/meerlaunch/internal/dispatcher"
	"github.com/meerpipe/meerlaunch/internal/fscopy"
	"github.com/meerpipe/meerlaunch/internal/logupload"
	"github.com/meerpipe/meerlaunch/internal/metrics"
	"github.com/meerpipe/meerlaunch/internal/runtime"
	"github.com/meerpipe/meerlaunch/pkg/params"
)

// Environment variables set for every Nextflow run.
const (
	EnvNXFHome          = "NXF_HOME"
	EnvNXFOpts          = "NXF_OPTS"
	EnvStorageClaimName = "K8S_STORAGE_CLAIM_NAME"
	EnvDisableCheck     = "NXF_DISABLE_CHECK_LATEST"
)

var (
	// ErrPipelineFailed is the sentinel error wrapped by PipelineError.
	ErrPipelineFailed = errors.New("pipeline failed")
	// ErrProvisioning marks failures to obtain the shared volume.
	ErrProvisioning = errors.New("failed to provision storage")
	// ErrStaging marks failures to copy the pipeline onto the shared volume.
	ErrStaging = errors.New("failed to stage")
	// ErrLogUpload marks failures to publish the Nextflow log.
	ErrLogUpload = errors.New("failed to upload log")
)

type (
	// Provisioner allocates the shared volume.
	Provisioner interface {
		ProvisionStorage(ctx context.Context, token string, gib int) (dispatcher.VolumeName, error)
	}

	// LogPublisher uploads the Nextflow log of a finished run.
	LogPublisher interface {
		Publish(ctx context.Context, token, logPath string) (logupload.Report, error)
	}

	// CopyFunc stages src into dst. fscopy.CopyTree is the production copier.
	CopyFunc func(src, dst string, exclude fscopy.Excluder) (fscopy.Stats, error)

	// Request carries the per-run inputs.
	Request struct {
		// Token is the platform execution token.
		Token string
		// Values are the supplied parameter values, before defaults.
		Values params.Values
		// EnvFiles are dotenv files layered over the host environment.
		EnvFiles []string
	}

	// Outcome records what each step produced. Fields of steps that did not
	// run keep their zero values.
	Outcome struct {
		Volume dispatcher.VolumeName
		Copy   fscopy.Stats
		Argv   []string
		Result *runtime.Result
		Log    logupload.Report
	}

	// PipelineError reports a Nextflow run that exited non-zero.
	PipelineError struct {
		ExitCode runtime.ExitCode
	}

	// Launcher wires the launch steps together.
	Launcher struct {
		Settings    Settings
		Catalog     *params.Catalog
		Provisioner Provisioner
		Copy        CopyFunc
		Runner      runtime.Runner
		Publisher   LogPublisher
		// Metrics is optional.
		Metrics *metrics.Run

		Stdout io.Writer
		Stderr io.Writer
		// Environ supplies the host environment; nil means os.Environ.
		Environ func() []string
		// Now supplies the clock; nil means time.Now.
		Now func() time.Time
	}
)

// Error implements the error interface for PipelineError.
func (e *PipelineError) Error() string {
	return fmt.Sprintf("nextflow exited with status %d", e.ExitCode)
}

// Unwrap returns ErrPipelineFailed for errors.Is() compatibility.
func (e *PipelineError) Unwrap() error { return ErrPipelineFailed }

// CommandLine resolves supplied against the catalog defaults and returns the
// full Nextflow argv.
func (l *Launcher) CommandLine(supplied params.Values) ([]string, error) {
	resolved, err := l.Catalog.Resolve(supplied)
	if err != nil {
		return nil, err
	}
	flags, err := l.Catalog.Flags(resolved)
	if err != nil {
		return nil, err
	}

	s := l.Settings
	argv := []string{
		s.Runner, "run", s.ScriptPath(),
		"-work-dir", s.SharedDir,
		"-profile", s.Profile,
		"-c", s.ConfigFile,
	}
	return append(argv, flags...), nil
}

// Environment returns the Nextflow environment for a run on volume.
func (l *Launcher) Environment(volume dispatcher.VolumeName, envFiles []string) (map[string]string, error) {
	environ := os.Environ
	if l.Environ != nil {
		environ = l.Environ
	}
	return runtime.NewEnvBuilder().
		WithHost(environ()).
		AddFiles(envFiles...).
		Set(EnvNXFHome, l.Settings.NXFHome).
		Set(EnvNXFOpts, l.Settings.NXFOpts).
		Set(EnvStorageClaimName, volume.String()).
		Set(EnvDisableCheck, "true").
		Build()
}

// Launch runs the workflow. Provisioning failures stop the launch before
// anything else happens. Once the volume exists the log is published no
// matter how the run ended, and its error is joined with the run's.
func (l *Launcher) Launch(ctx context.Context, req Request) (*Outcome, error) {
	argv, err := l.CommandLine(req.Values)
	if err != nil {
		return nil, err
	}

	out := &Outcome{Argv: argv}

	volume, err := l.Provisioner.ProvisionStorage(ctx, req.Token, l.Settings.StorageGiB)
	if err != nil {
		return out, fmt.Errorf("%w: %w", ErrProvisioning, err)
	}
	out.Volume = volume
	slog.Info("provisioned shared storage", "volume", volume.String(), "gib", l.Settings.StorageGiB)
	if l.Metrics != nil {
		l.Metrics.StorageGiB.Set(float64(l.Settings.StorageGiB))
	}

	runErr := l.run(ctx, req, out)

	// Publish even when ctx was cancelled mid-run.
	report, pubErr := l.Publisher.Publish(context.WithoutCancel(ctx), req.Token, l.Settings.LogPath())
	out.Log = report
	if pubErr != nil {
		pubErr = fmt.Errorf("%w: %w", ErrLogUpload, pubErr)
	}
	l.recordUpload(report, pubErr)
	l.writeMetrics()

	return out, errors.Join(runErr, pubErr)
}

func (l *Launcher) run(ctx context.Context, req Request, out *Outcome) error {
	s := l.Settings

	stats, err := l.Copy(s.SourceDir, s.SharedDir, fscopy.ExcludeNames(s.Excludes...))
	out.Copy = stats
	if err != nil {
		return fmt.Errorf("%w %s into %s: %w", ErrStaging, s.SourceDir, s.SharedDir, err)
	}
	slog.Info("staged pipeline", "files", stats.Files, "bytes", stats.Bytes, "dangling_links", stats.Dangling)
	if l.Metrics != nil {
		l.Metrics.FilesCopied.Set(float64(stats.Files))
		l.Metrics.BytesCopied.Set(float64(stats.Bytes))
		l.Metrics.DanglingLinks.Set(float64(stats.Dangling))
	}

	env, err := l.Environment(out.Volume, req.EnvFiles)
	if err != nil {
		return err
	}

	slog.Info("launching nextflow", "argv", out.Argv)
	result := l.Runner.Run(ctx, runtime.Spec{
		Path:   out.Argv[0],
		Args:   out.Argv[1:],
		Dir:    s.SharedDir,
		Env:    env,
		Stdout: l.Stdout,
		Stderr: l.Stderr,
	})
	out.Result = result
	if l.Metrics != nil {
		l.Metrics.ObservePipeline(int(result.ExitCode), result.Duration, l.now())
	}

	if result.Error != nil {
		return result.Error
	}
	if !result.ExitCode.IsSuccess() {
		return &PipelineError{ExitCode: result.ExitCode}
	}
	return nil
}

func (l *Launcher) recordUpload(report logupload.Report, err error) {
	if l.Metrics == nil {
		return
	}
	switch {
	case err != nil:
		l.Metrics.ObserveUpload(metrics.UploadFailed)
	case report.Uploaded:
		l.Metrics.ObserveUpload(metrics.UploadUploaded)
	case report.Skipped:
		l.Metrics.ObserveUpload(metrics.UploadSkipped)
	default:
		l.Metrics.ObserveUpload(metrics.UploadMissing)
	}
}

func (l *Launcher) writeMetrics() {
	if l.Metrics == nil || l.Settings.MetricsTextfile == "" {
		return
	}
	if err := l.Metrics.WriteTextfile(l.Settings.MetricsTextfile); err != nil {
		slog.Warn("could not write run metrics", "error", err)
	}
}

func (l *Launcher) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}
