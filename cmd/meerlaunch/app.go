// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"

	"github.com/meerpipe/meerlaunch/internal/config"
	"github.com/meerpipe/meerlaunch/internal/dispatcher"
	"github.com/meerpipe/meerlaunch/internal/fscopy"
	"github.com/meerpipe/meerlaunch/internal/issue"
	"github.com/meerpipe/meerlaunch/internal/launch"
	"github.com/meerpipe/meerlaunch/internal/logupload"
	"github.com/meerpipe/meerlaunch/internal/metrics"
	"github.com/meerpipe/meerlaunch/internal/runtime"
	"github.com/meerpipe/meerlaunch/pkg/params"
)

type (
	// BuildLauncherFunc assembles a Launcher for a loaded configuration.
	BuildLauncherFunc func(ctx context.Context, cfg *config.Config) (*launch.Launcher, error)

	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer: every command handler receives an App and
	// reaches configuration and the launcher through it.
	App struct {
		Config        config.Provider
		BuildLauncher BuildLauncherFunc
		LookupEnv     func(string) (string, bool)
		stdout        io.Writer
		stderr        io.Writer

		// Persistent flag values.
		verbose    bool
		configPath string
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config        config.Provider
		BuildLauncher BuildLauncherFunc
		LookupEnv     func(string) (string, bool)
		Stdout        io.Writer
		Stderr        io.Writer
	}
)

// NewApp creates an App, filling unset dependencies with production defaults.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config:        deps.Config,
		BuildLauncher: deps.BuildLauncher,
		LookupEnv:     deps.LookupEnv,
		stdout:        deps.Stdout,
		stderr:        deps.Stderr,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.BuildLauncher == nil {
		app.BuildLauncher = buildLauncher
	}
	if app.LookupEnv == nil {
		app.LookupEnv = os.LookupEnv
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

// loadConfig loads the configuration named by --config (or the default
// lookup) and configures logging from it. It returns the file used, or ""
// when only defaults and environment overrides applied.
func (a *App) loadConfig(ctx context.Context) (*config.Config, string, error) {
	cfg, source, err := a.Config.LoadWithSource(ctx, config.LoadOptions{ConfigFilePath: a.configPath})
	if err != nil {
		return nil, "", err
	}
	if cfg.UI.Verbose {
		a.verbose = true
	}
	configureLogging(a.stderr, cfg.UI.LogFormat, a.verbose)
	return cfg, source, nil
}

// newLauncher builds a Launcher for cfg writing to the App's streams.
func (a *App) newLauncher(ctx context.Context, cfg *config.Config) (*launch.Launcher, error) {
	l, err := a.BuildLauncher(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if l.Stdout == nil {
		l.Stdout = a.stdout
	}
	if l.Stderr == nil {
		l.Stderr = a.stderr
	}
	return l, nil
}

// previewLauncher is a Launcher that can only compute command lines and
// environments. It never talks to the dispatcher.
func previewLauncher(cfg *config.Config) *launch.Launcher {
	return &launch.Launcher{
		Settings: settingsFromConfig(cfg),
		Catalog:  params.Meerpipe(),
	}
}

// settingsFromConfig maps the configuration onto launch settings.
func settingsFromConfig(cfg *config.Config) launch.Settings {
	s := launch.DefaultSettings()
	s.StorageGiB = int(cfg.Storage.GiB)
	s.Runner = cfg.Nextflow.Runner
	s.Script = cfg.Nextflow.Script
	s.Profile = cfg.Nextflow.Profile
	s.ConfigFile = cfg.Nextflow.ConfigFile
	s.NXFHome = cfg.Nextflow.Home
	s.NXFOpts = cfg.Nextflow.Opts
	s.SourceDir = cfg.Paths.SourceDir
	s.SharedDir = cfg.Paths.SharedDir
	s.Excludes = append([]string(nil), cfg.Paths.Excludes...)
	s.LogFile = cfg.Paths.LogFile
	s.MetricsTextfile = cfg.Metrics.Textfile
	return s
}

// buildLauncher is the production BuildLauncherFunc.
func buildLauncher(ctx context.Context, cfg *config.Config) (*launch.Launcher, error) {
	client := dispatcher.NewClient(
		dispatcher.WithBaseURL(cfg.Dispatcher.URL),
		dispatcher.WithTimeout(cfg.Dispatcher.Timeout),
	)

	publisher := &logupload.Publisher{
		Names:    client,
		Base:     cfg.Logs.Base,
		SubPath:  cfg.Logs.SubPath,
		FileName: cfg.Logs.FileName,
	}
	if cfg.Logs.Base != "" {
		uploader, err := logupload.NewUploader(ctx, cfg.Logs.Base, logupload.S3Options{
			Region:   cfg.Logs.S3.Region,
			Endpoint: cfg.Logs.S3.Endpoint,
		})
		if err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("set up log upload").
				WithResource(cfg.Logs.Base).
				WithSuggestion("Use s3://bucket/prefix or file:///absolute/path for logs.base").
				WithIssue(issue.LogUploadFailedId).
				Wrap(err).
				BuildError()
		}
		publisher.Uploader = uploader
	}

	l := &launch.Launcher{
		Settings:    settingsFromConfig(cfg),
		Catalog:     params.Meerpipe(),
		Provisioner: client,
		Copy:        fscopy.CopyTree,
		Runner:      runtime.NewNativeRunner(),
		Publisher:   publisher,
	}
	if cfg.Metrics.Textfile != "" {
		l.Metrics = metrics.NewRun()
	}
	return l, nil
}
