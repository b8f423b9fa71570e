// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the meerlaunch command tree.
//
// The root command wires configuration, logging and the launch services
// through an App; each subcommand is created by a newXxxCommand(app)
// constructor so tests can build the tree against fakes.
package cmd
