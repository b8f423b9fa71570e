// SPDX-License-Identifier: MPL-2.0

// Package fscopy copies a directory tree while pruning entries by name.
//
// Plan is the pure selection rule: an entry is kept unless one of its path
// components is excluded, so exclusions apply at every depth. CopyTree is the
// filesystem adapter that applies the same rule during a walk, follows
// symbolic links and skips the ones that dangle.
package fscopy
