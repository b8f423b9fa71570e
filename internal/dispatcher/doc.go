// SPDX-License-Identifier: MPL-2.0

// Package dispatcher talks to the platform's Nextflow dispatcher service.
//
// The dispatcher provisions the shared storage volume a run mounts and
// reports the human-readable execution name used to file run logs. Every
// request is authenticated with the execution token the platform issues to
// the running task.
package dispatcher
