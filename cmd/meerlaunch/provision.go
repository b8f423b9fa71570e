// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meerpipe/meerlaunch/internal/config"
	"github.com/meerpipe/meerlaunch/internal/launch"
)

func newProvisionCommand(app *App) *cobra.Command {
	var gib int
	provisionCmd := &cobra.Command{
		Use:   "provision",
		Short: "Provision a shared volume and print its name",
		Long: `Ask the dispatcher for a shared volume and print the claim name.

This is the first step of 'meerlaunch run' on its own. The execution token
is read from the variable named by dispatcher.token_env.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, _, err := app.loadConfig(ctx)
			if err != nil {
				return renderFailure(cmd, app.stderr, err, 1, app.verbose)
			}
			if cmd.Flags().Changed("gib") {
				size := config.StorageSize(gib)
				if ok, errs := size.IsValid(); !ok {
					return renderFailure(cmd, app.stderr, errs[0], 1, app.verbose)
				}
				cfg.Storage.GiB = size
			}

			l, err := app.newLauncher(ctx, cfg)
			if err != nil {
				return renderFailure(cmd, app.stderr, err, 1, app.verbose)
			}
			token, _ := app.LookupEnv(cfg.Dispatcher.TokenEnv)
			volume, err := l.Provisioner.ProvisionStorage(ctx, token, l.Settings.StorageGiB)
			if err != nil {
				return renderFailure(cmd, app.stderr, classifyLaunchError(fmt.Errorf("%w: %w", launch.ErrProvisioning, err), cfg), 1, app.verbose)
			}
			fmt.Fprintln(app.stdout, volume.String())
			return nil
		},
	}
	provisionCmd.Flags().IntVar(&gib, "gib", 0, "volume size in GiB (default from storage.gib)")
	return provisionCmd
}
