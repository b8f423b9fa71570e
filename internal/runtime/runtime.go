// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"io"
	"sort"
)

type (
	// Spec describes one program invocation.
	Spec struct {
		// Path is the executable, absolute or looked up in PATH.
		Path string
		// Args are the arguments after the program name.
		Args []string
		// Dir is the working directory; empty means the current one.
		Dir string
		// Env is the complete child environment. A nil map inherits the host's.
		Env map[string]string
		// Stdout and Stderr receive the child's output; nil discards it.
		Stdout io.Writer
		Stderr io.Writer
	}

	// Runner executes a Spec and blocks until the program exits.
	Runner interface {
		Run(ctx context.Context, spec Spec) *Result
	}
)

// Argv returns the program path followed by its arguments.
func (s Spec) Argv() []string {
	return append([]string{s.Path}, s.Args...)
}

// EnvToSlice converts an environment map to KEY=VALUE entries sorted by key.
func EnvToSlice(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]string, 0, len(env))
	for _, k := range keys {
		result = append(result, k+"="+env[k])
	}
	return result
}
