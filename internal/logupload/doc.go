// SPDX-License-Identifier: MPL-2.0

// Package logupload publishes the Nextflow log of a finished run to remote
// storage under a per-run directory named after the platform execution.
package logupload
