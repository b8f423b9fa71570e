// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers shared by meerlaunch tests: fixture
// trees and scripts on disk (MustWriteFile, MustSymlink, WriteScript), a
// manually advanced clock and gating for container-backed integration tests.
package testutil
