// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"mvdan.cc/sh/v3/syntax"

	"github.com/meerpipe/meerlaunch/pkg/params"
)

func newCmdlineCommand(app *App) *cobra.Command {
	in := &valueInputs{}
	cmdlineCmd := &cobra.Command{
		Use:   "cmdline [flags]",
		Short: "Print the Nextflow command line for the given parameters",
		Long: `Print the Nextflow command line a run would execute, quoted for a POSIX
shell. Nothing is provisioned or started. Takes the same parameter flags
as 'meerlaunch run'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := app.loadConfig(cmd.Context())
			if err != nil {
				return renderFailure(cmd, app.stderr, err, 1, app.verbose)
			}
			supplied, err := app.collectValues(cmd.Flags(), params.Meerpipe(), *in)
			if err != nil {
				return renderFailure(cmd, app.stderr, classifyLaunchError(err, cfg), 1, app.verbose)
			}
			argv, err := previewLauncher(cfg).CommandLine(supplied)
			if err != nil {
				return renderFailure(cmd, app.stderr, classifyLaunchError(err, cfg), 1, app.verbose)
			}
			line, err := quoteArgv(argv)
			if err != nil {
				return renderFailure(cmd, app.stderr, err, 1, app.verbose)
			}
			fmt.Fprintln(app.stdout, line)
			return nil
		},
	}
	registerParamFlags(cmdlineCmd.Flags(), params.Meerpipe(), in)
	return cmdlineCmd
}

// quoteArgv joins argv into a single shell-safe line.
func quoteArgv(argv []string) (string, error) {
	quoted := make([]string, len(argv))
	for i, arg := range argv {
		q, err := syntax.Quote(arg, syntax.LangPOSIX)
		if err != nil {
			return "", fmt.Errorf("cannot quote argument %d: %w", i, err)
		}
		quoted[i] = q
	}
	return strings.Join(quoted, " "), nil
}
