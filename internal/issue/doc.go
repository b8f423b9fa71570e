// SPDX-License-Identifier: MPL-2.0

// Package issue provides user-facing errors for the launcher.
//
// ActionableError carries the failed operation, the resource involved and
// suggestions for fixing it. Issue holds longer Markdown guidance for the
// failure classes users hit most, rendered in the terminal with glamour.
package issue
