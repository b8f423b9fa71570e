// SPDX-License-Identifier: MPL-2.0

package runtime

import "time"

// Result is the outcome of a Run.
//
// Error is reserved for failures to start or wait on the process; a program
// that ran and exited non-zero has a nil Error and a non-zero ExitCode.
type Result struct {
	ExitCode ExitCode
	Error    error
	Duration time.Duration
}

// NewErrorResult creates a Result for a process that could not be run.
func NewErrorResult(code ExitCode, err error) *Result {
	return &Result{ExitCode: code, Error: err}
}

// NewExitCodeResult creates a Result for a process that terminated normally.
func NewExitCodeResult(code ExitCode) *Result {
	return &Result{ExitCode: code}
}

// Success reports whether the process ran and exited zero.
func (r *Result) Success() bool {
	return r.Error == nil && r.ExitCode.IsSuccess()
}
