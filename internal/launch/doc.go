// SPDX-License-Identifier: MPL-2.0

// Package launch runs the meerpipe workflow on the platform: it provisions a
// shared volume, stages the pipeline tree into the shared work directory,
// runs Nextflow with flags built from the parameter catalog and publishes
// the Nextflow log afterwards, whether or not the run succeeded.
package launch
