// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/meerpipe/meerlaunch/internal/config"
	"github.com/meerpipe/meerlaunch/internal/issue"
)

// newConfigCommand creates the `meerlaunch config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect meerlaunch configuration",
		Long: `Inspect meerlaunch configuration.

Configuration is read from, in order of precedence:
  - MEERLAUNCH_* environment variables (e.g. MEERLAUNCH_STORAGE_GIB)
  - the file given with --config
  - $XDG_CONFIG_HOME/meerlaunch/config.cue
  - ./config.cue`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, source, err := app.loadConfig(cmd.Context())
			if err != nil {
				return renderFailure(cmd, app.stderr, err, 1, app.verbose)
			}
			showConfig(app.stdout, cfg, source)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := app.loadConfig(cmd.Context())
			if err != nil {
				return renderFailure(cmd, app.stderr, err, 1, app.verbose)
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.configPath != "" {
				fmt.Fprintln(app.stdout, app.configPath)
				return nil
			}
			dir, err := config.ConfigDir()
			if err != nil {
				return renderFailure(cmd, app.stderr,
					issue.WrapWithContext(err, "locate the configuration directory", ""), 1, app.verbose)
			}
			fmt.Fprintln(app.stdout, filepath.Join(dir, "config.cue"))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(w io.Writer, cfg *config.Config, source string) {
	keyStyle := CmdStyle
	valueStyle := SuccessStyle
	value := func(s string) string {
		if s == "" {
			return SubtitleStyle.Render("(unset)")
		}
		return valueStyle.Render(s)
	}
	list := func(items []string) string {
		if len(items) == 0 {
			return SubtitleStyle.Render("(none)")
		}
		return valueStyle.Render(strings.Join(items, ", "))
	}

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)
	if source == "" {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	} else {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), source)
	}

	section := func(name string, rows ...[2]string) {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s:\n", keyStyle.Render(name))
		for _, r := range rows {
			fmt.Fprintf(w, "  %s: %s\n", r[0], r[1])
		}
	}

	section("dispatcher",
		[2]string{"url", value(cfg.Dispatcher.URL)},
		[2]string{"timeout", value(cfg.Dispatcher.Timeout.String())},
		[2]string{"token_env", value(cfg.Dispatcher.TokenEnv)},
	)
	section("storage",
		[2]string{"gib", value(fmt.Sprint(cfg.Storage.GiB))},
	)
	section("nextflow",
		[2]string{"runner", value(cfg.Nextflow.Runner)},
		[2]string{"script", value(cfg.Nextflow.Script)},
		[2]string{"profile", value(cfg.Nextflow.Profile)},
		[2]string{"config_file", value(cfg.Nextflow.ConfigFile)},
		[2]string{"home", value(cfg.Nextflow.Home)},
		[2]string{"opts", value(cfg.Nextflow.Opts)},
		[2]string{"env_files", list(cfg.Nextflow.EnvFiles)},
	)
	section("paths",
		[2]string{"source_dir", value(cfg.Paths.SourceDir)},
		[2]string{"shared_dir", value(cfg.Paths.SharedDir)},
		[2]string{"excludes", list(cfg.Paths.Excludes)},
		[2]string{"log_file", value(cfg.Paths.LogFile)},
	)
	section("logs",
		[2]string{"base", value(cfg.Logs.Base)},
		[2]string{"sub_path", value(cfg.Logs.SubPath)},
		[2]string{"file_name", value(cfg.Logs.FileName)},
		[2]string{"s3.region", value(cfg.Logs.S3.Region)},
		[2]string{"s3.endpoint", value(cfg.Logs.S3.Endpoint)},
	)
	section("metrics",
		[2]string{"textfile", value(cfg.Metrics.Textfile)},
	)
	section("ui",
		[2]string{"color_scheme", value(string(cfg.UI.ColorScheme))},
		[2]string{"verbose", value(fmt.Sprint(cfg.UI.Verbose))},
		[2]string{"log_format", value(string(cfg.UI.LogFormat))},
	)
}
