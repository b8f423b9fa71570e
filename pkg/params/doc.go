// SPDX-License-Identifier: MPL-2.0

// Package params declares the meerpipe parameter catalog and turns supplied
// parameter values into Nextflow command-line flags.
//
// A Catalog is an insertion-ordered, name-unique list of Param declarations.
// Values are typed and optional: the zero Value is absent and never reaches
// the command line. Flag rendering is an explicit function per parameter type
// (RenderString, RenderBool, RenderInt, RenderDir), and ParseFlags is its
// inverse so every rendering rule can be checked by round trip.
//
// Parameter files (.cue, .json, .toml) are validated against a CUE schema
// generated from the catalog before their values are accepted.
package params
