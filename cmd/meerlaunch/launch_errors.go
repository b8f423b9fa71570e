// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"io/fs"
	"os/exec"

	"github.com/meerpipe/meerlaunch/internal/config"
	"github.com/meerpipe/meerlaunch/internal/dispatcher"
	"github.com/meerpipe/meerlaunch/internal/issue"
	"github.com/meerpipe/meerlaunch/internal/launch"
	"github.com/meerpipe/meerlaunch/internal/runtime"
	"github.com/meerpipe/meerlaunch/pkg/params"
)

// classifyLaunchError attaches user guidance to a Launch error. When a run
// and the log upload both failed, the run failure decides the guidance and
// the message still carries both.
func classifyLaunchError(err error, cfg *config.Config) error {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return err
	}

	ec := issue.NewErrorContext().Wrap(err)
	switch {
	case errors.Is(err, dispatcher.ErrMissingToken):
		ec.WithOperation("authenticate to the dispatcher").
			WithResource("$" + cfg.Dispatcher.TokenEnv).
			WithSuggestion("Run inside a platform task, or export " + cfg.Dispatcher.TokenEnv).
			WithIssue(issue.MissingTokenId)
	case errors.Is(err, launch.ErrProvisioning):
		ec.WithOperation("provision shared storage").
			WithResource(cfg.Dispatcher.URL).
			WithSuggestion("Check dispatcher.url and storage.gib in the configuration").
			WithIssue(issue.ProvisioningFailedId)
	case errors.Is(err, params.ErrUnknownParam), errors.Is(err, params.ErrTypeMismatch):
		ec.WithOperation("resolve pipeline parameters").
			WithSuggestion("List the accepted parameters with 'meerlaunch params'").
			WithIssue(issue.ParamsFileInvalidId)
	case errors.Is(err, launch.ErrStaging):
		ec.WithOperation("stage the pipeline").
			WithResource(cfg.Paths.SharedDir).
			WithIssue(issue.StagingFailedId)
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		ec.WithOperation("start nextflow").
			WithResource(cfg.Nextflow.Runner).
			WithSuggestion("Set nextflow.runner to the Nextflow launcher inside the image").
			WithIssue(issue.RunnerNotFoundId)
	case errors.Is(err, launch.ErrPipelineFailed):
		ec.WithOperation("run the pipeline").
			WithResource(cfg.Paths.SharedDir).
			WithIssue(issue.PipelineFailedId)
	case errors.Is(err, launch.ErrLogUpload):
		ec.WithOperation("upload the nextflow log").
			WithResource(cfg.Logs.Base).
			WithIssue(issue.LogUploadFailedId)
	default:
		ec.WithOperation("launch the pipeline")
	}
	return ec.BuildError()
}

// launchExitCode is the process status for a failed launch: the Nextflow
// status when Nextflow ran and failed, 1 otherwise.
func launchExitCode(out *launch.Outcome) runtime.ExitCode {
	if out != nil && out.Result != nil && !out.Result.ExitCode.IsSuccess() {
		return out.Result.ExitCode
	}
	return 1
}
