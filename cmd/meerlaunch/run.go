// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/meerpipe/meerlaunch/internal/config"
	"github.com/meerpipe/meerlaunch/internal/launch"
	"github.com/meerpipe/meerlaunch/pkg/params"
)

// runOptions holds the flags of `meerlaunch run`.
type runOptions struct {
	values   valueInputs
	envFiles []string
	dryRun   bool
}

func newRunCommand(app *App) *cobra.Command {
	opts := &runOptions{}
	runCmd := &cobra.Command{
		Use:   "run [flags]",
		Short: "Provision storage and run the pipeline",
		Long: `Provision a shared volume, stage the pipeline into it and run Nextflow.

Every pipeline parameter is a flag of the same name. Values are layered
in this order, later sources winning:

  1. pipeline defaults
  2. PSRDB_URL and PSRDB_TOKEN from the environment
  3. --params-file
  4. parameter flags
  5. --unset, which clears a parameter entirely

The Nextflow log is uploaded after the run whether or not it succeeded.
The command exits with the Nextflow status.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, app, opts)
		},
	}

	registerParamFlags(runCmd.Flags(), params.Meerpipe(), &opts.values)
	runCmd.Flags().StringArrayVar(&opts.envFiles, "env-file", nil, "dotenv file layered over the environment Nextflow sees (repeatable, suffix ? for optional)")
	runCmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "print what would run without provisioning anything")
	return runCmd
}

func runPipeline(cmd *cobra.Command, app *App, opts *runOptions) error {
	ctx := cmd.Context()

	cfg, _, err := app.loadConfig(ctx)
	if err != nil {
		return renderFailure(cmd, app.stderr, err, 1, app.verbose)
	}

	supplied, err := app.collectValues(cmd.Flags(), params.Meerpipe(), opts.values)
	if err != nil {
		return renderFailure(cmd, app.stderr, classifyLaunchError(err, cfg), 1, app.verbose)
	}
	envFiles := append(slices.Clone(cfg.Nextflow.EnvFiles), opts.envFiles...)

	if opts.dryRun {
		if err := renderDryRun(app.stdout, previewLauncher(cfg), cfg, supplied, envFiles); err != nil {
			return renderFailure(cmd, app.stderr, classifyLaunchError(err, cfg), 1, app.verbose)
		}
		return nil
	}

	l, err := app.newLauncher(ctx, cfg)
	if err != nil {
		return renderFailure(cmd, app.stderr, err, 1, app.verbose)
	}

	token, _ := app.LookupEnv(cfg.Dispatcher.TokenEnv)
	out, err := l.Launch(ctx, launch.Request{
		Token:    token,
		Values:   supplied,
		EnvFiles: envFiles,
	})
	if err != nil {
		return renderFailure(cmd, app.stderr, classifyLaunchError(err, cfg), launchExitCode(out), app.verbose)
	}

	slog.Info("pipeline finished",
		"volume", out.Volume.String(),
		"duration", out.Result.Duration,
		"log", out.Log.Location.String(),
	)
	return nil
}

// renderDryRun prints the command line and environment a run would use.
func renderDryRun(w io.Writer, l *launch.Launcher, cfg *config.Config, supplied params.Values, envFiles []string) error {
	argv, err := l.CommandLine(supplied)
	if err != nil {
		return err
	}
	line, err := quoteArgv(argv)
	if err != nil {
		return err
	}

	s := l.Settings
	fmt.Fprintln(w, TitleStyle.Render("Dry Run"))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s %d GiB from %s\n", VerboseHighlightStyle.Render("Storage:"), s.StorageGiB, cfg.Dispatcher.URL)
	fmt.Fprintf(w, "  %s %s -> %s\n", VerboseHighlightStyle.Render("Stage:"), s.SourceDir, s.SharedDir)
	fmt.Fprintf(w, "  %s %v\n", VerboseHighlightStyle.Render("Excluded:"), s.Excludes)
	fmt.Fprintf(w, "  %s %s\n", VerboseHighlightStyle.Render("Log:"), s.LogPath())
	if cfg.Logs.Base == "" {
		fmt.Fprintf(w, "  %s %s\n", VerboseHighlightStyle.Render("Upload:"), SubtitleStyle.Render("(disabled, logs.base is empty)"))
	} else {
		fmt.Fprintf(w, "  %s %s/%s/<execution>/%s\n", VerboseHighlightStyle.Render("Upload:"), cfg.Logs.Base, cfg.Logs.SubPath, cfg.Logs.FileName)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, VerboseHighlightStyle.Render("  Environment:"))
	fixed := map[string]string{
		launch.EnvNXFHome:          s.NXFHome,
		launch.EnvNXFOpts:          s.NXFOpts,
		launch.EnvStorageClaimName: "<provisioned volume>",
		launch.EnvDisableCheck:     "true",
	}
	for _, k := range slices.Sorted(maps.Keys(fixed)) {
		fmt.Fprintf(w, "    %s=%s\n", k, fixed[k])
	}
	for _, f := range envFiles {
		fmt.Fprintf(w, "    %s %s\n", SubtitleStyle.Render("from"), f)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, VerboseHighlightStyle.Render("  Command:"))
	fmt.Fprintf(w, "    %s\n", CmdStyle.Render(line))
	return nil
}
