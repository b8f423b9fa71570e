// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"maps"
	"slices"

	"github.com/charmbracelet/glamour"
)

// Id identifies an Issue. The zero Id means no issue.
type Id int

const (
	MissingTokenId Id = iota + 1
	ProvisioningFailedId
	StagingFailedId
	RunnerNotFoundId
	PipelineFailedId
	LogUploadFailedId
	ConfigLoadFailedId
	ParamsFileInvalidId
)

type (
	// MarkdownMsg is guidance text in Markdown.
	MarkdownMsg string

	// Issue is extended guidance for a class of failure.
	Issue struct {
		id    Id
		mdMsg MarkdownMsg
	}
)

// Id returns the issue identifier.
func (i *Issue) Id() Id { return i.id }

// MarkdownMsg returns the raw guidance.
func (i *Issue) MarkdownMsg() MarkdownMsg { return i.mdMsg }

// Render renders the guidance for a terminal of the given width.
func (i *Issue) Render(width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return r.Render(string(i.mdMsg))
}

var (
	missingTokenIssue = &Issue{
		id: MissingTokenId,
		mdMsg: `
# No execution token

The launcher authenticates to the platform dispatcher with the execution
token the platform injects as ` + "`FLYTE_INTERNAL_EXECUTION_ID`" + `.

## Things you can try:
- Run the launcher inside a platform task rather than on your workstation
- Use ` + "`meerlaunch cmdline`" + ` or ` + "`meerlaunch run --dry-run`" + ` to inspect the command locally`,
	}

	provisioningFailedIssue = &Issue{
		id: ProvisioningFailedId,
		mdMsg: `
# Storage provisioning failed

The dispatcher refused or could not create the shared volume. Nothing was
copied and Nextflow was not started.

## Things you can try:
- Check the dispatcher URL in your configuration (` + "`dispatcher.url`" + `)
- Lower ` + "`storage.gib`" + ` if the cluster is short of capacity
- Retry the task; provisioning is not retried automatically`,
	}

	stagingFailedIssue = &Issue{
		id: StagingFailedId,
		mdMsg: `
# Could not stage the pipeline

Copying the pipeline tree into the shared work directory failed.

## Things you can try:
- Make sure the shared volume is mounted at ` + "`paths.shared_dir`" + `
- Add large or unreadable directories to ` + "`paths.excludes`",
	}

	runnerNotFoundIssue = &Issue{
		id: RunnerNotFoundId,
		mdMsg: `
# Nextflow could not be started

The configured runner executable is missing or not executable.

## Things you can try:
- Check ` + "`nextflow.runner`" + ` in your configuration
- Verify the image ships Nextflow at that path`,
	}

	pipelineFailedIssue = &Issue{
		id: PipelineFailedId,
		mdMsg: `
# The pipeline failed

Nextflow exited with a non-zero status. The Nextflow log was still uploaded
when a run name was available.

## Things you can try:
- Read the uploaded ` + "`nextflow.log`" + ` for the failing process
- Re-run with ` + "`--use_prev_ar`" + ` to reuse archives already produced`,
	}

	logUploadFailedIssue = &Issue{
		id: LogUploadFailedId,
		mdMsg: `
# The Nextflow log was not uploaded

The run finished but its log could not be written to the log location.

## Things you can try:
- Check ` + "`logs.base`" + ` and the credentials for that bucket
- The log is still on the shared volume next to the work directory`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Invalid configuration

The configuration file could not be parsed or does not match the schema.

## Things you can try:
- Print the effective configuration with ` + "`meerlaunch config show`" + `
- Write a fresh file with ` + "`meerlaunch config dump`",
	}

	paramsFileInvalidIssue = &Issue{
		id: ParamsFileInvalidId,
		mdMsg: `
# Invalid parameters file

A value in the parameters file is unknown or has the wrong type.

## Things you can try:
- List parameters and their types with ` + "`meerlaunch params`" + `
- Use ` + "`null`" + ` to clear a parameter that has a default`,
	}

	issues = map[Id]*Issue{
		missingTokenIssue.Id():       missingTokenIssue,
		provisioningFailedIssue.Id(): provisioningFailedIssue,
		stagingFailedIssue.Id():      stagingFailedIssue,
		runnerNotFoundIssue.Id():     runnerNotFoundIssue,
		pipelineFailedIssue.Id():     pipelineFailedIssue,
		logUploadFailedIssue.Id():    logUploadFailedIssue,
		configLoadFailedIssue.Id():   configLoadFailedIssue,
		paramsFileInvalidIssue.Id():  paramsFileInvalidIssue,
	}
)

// Values returns every issue ordered by Id.
func Values() []*Issue {
	out := slices.Collect(maps.Values(issues))
	slices.SortFunc(out, func(a, b *Issue) int { return int(a.id - b.id) })
	return out
}

// Get returns the issue for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
