// SPDX-License-Identifier: MPL-2.0

package fscopy

import (
	"path"
	"strings"
)

// DefaultExcludes are the directory names never copied into the shared work
// directory: platform and runtime artifacts, previous results, and package
// manager installs.
var DefaultExcludes = []string{
	"latch",
	".latch",
	"nextflow",
	".nextflow",
	"work",
	"results",
	"miniconda",
	"anaconda3",
	"mambaforge",
}

type (
	// Excluder reports whether an entry with the given base name is pruned.
	Excluder func(name string) bool

	// Entry is a tree entry addressed by its slash-separated path relative to
	// the copy root.
	Entry struct {
		Path  string
		IsDir bool
	}
)

// ExcludeNames returns an Excluder matching any of names exactly.
func ExcludeNames(names ...string) Excluder {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return func(name string) bool {
		_, ok := set[name]
		return ok
	}
}

// Keep reports whether rel survives exclude. An entry is dropped when any of
// its path components is excluded, which also drops everything below an
// excluded directory.
func Keep(rel string, exclude Excluder) bool {
	if exclude == nil {
		return true
	}
	for _, part := range strings.Split(path.Clean(rel), "/") {
		if part == "." || part == "" {
			continue
		}
		if exclude(part) {
			return false
		}
	}
	return true
}

// Plan returns the entries that CopyTree would copy, in input order.
func Plan(entries []Entry, exclude Excluder) []Entry {
	kept := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if Keep(e.Path, exclude) {
			kept = append(kept, e)
		}
	}
	return kept
}
