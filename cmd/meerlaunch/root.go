// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/meerpipe/meerlaunch/internal/config"
	"github.com/meerpipe/meerlaunch/internal/issue"
	"github.com/meerpipe/meerlaunch/internal/runtime"
)

// issueWidth is the wrap width for rendered issue guidance.
const issueWidth = 80

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// newRootCommand builds the full command tree around app.
func newRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "meerlaunch",
		Short: "Launch the nf-core/meerpipe workflow on shared storage",
		Long: TitleStyle.Render("meerlaunch") + SubtitleStyle.Render(" - launch nf-core/meerpipe on shared storage") + `

meerlaunch provisions a shared volume through the platform dispatcher,
stages the pipeline into it, runs Nextflow with the parameters you give
and uploads the Nextflow log when the run ends.

` + SubtitleStyle.Render("Examples:") + `
  meerlaunch run --pulsar J0437-4715 --outdir s3://bucket/results
  meerlaunch run --params-file params.toml --dry-run
  meerlaunch params                 List pipeline parameters
  meerlaunch config show            Show the effective configuration`,
	}

	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&app.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/meerlaunch/config.cue)")

	rootCmd.AddCommand(
		newRunCommand(app),
		newCmdlineCommand(app),
		newProvisionCommand(app),
		newParamsCommand(app),
		newConfigCommand(app),
	)
	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits the process with the command's status.
// It is called once by main.main().
func Execute() {
	rootCmd := newRootCommand(NewApp(Dependencies{}))
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(1)
	}
}

// configureLogging installs a charmbracelet/log handler as the slog default.
func configureLogging(w io.Writer, format config.LogFormat, verbose bool) {
	opts := log.Options{
		Prefix:          "meerlaunch",
		ReportTimestamp: true,
		Level:           log.InfoLevel,
	}
	if verbose {
		opts.Level = log.DebugLevel
	}
	if format == config.LogFormatJSON {
		opts.Formatter = log.JSONFormatter
	}
	slog.SetDefault(slog.New(log.NewWithOptions(w, opts)))
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// renderFailure prints err, followed in verbose mode by the guidance of the
// linked issue, and returns the ExitError that ends the command.
func renderFailure(cmd *cobra.Command, w io.Writer, err error, code runtime.ExitCode, verboseMode bool) error {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	fmt.Fprintln(w, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verboseMode))

	var ae *issue.ActionableError
	if verboseMode && errors.As(err, &ae) && ae.Issue != 0 {
		if entry := issue.Get(ae.Issue); entry != nil {
			rendered, renderErr := entry.Render(issueWidth)
			if renderErr != nil {
				slog.Warn("failed to render issue guidance", "issueID", ae.Issue, "error", renderErr)
			} else {
				fmt.Fprint(w, rendered)
			}
		}
	}
	return &ExitError{Code: code, Err: err}
}
