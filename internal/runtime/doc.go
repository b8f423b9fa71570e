// SPDX-License-Identifier: MPL-2.0

// Package runtime runs an external program synchronously and reports how it
// exited. It also assembles the child environment from the host, dotenv files
// and fixed overrides, in that order of increasing precedence.
package runtime
