// SPDX-License-Identifier: MPL-2.0

// Package config loads launcher settings.
//
// Defaults are registered with viper, a CUE configuration file validated
// against the embedded #Config schema is merged over them, and MEERLAUNCH_*
// environment variables override both. The config file is looked up as
// --config, then $XDG_CONFIG_HOME/meerlaunch/config.cue, then ./config.cue.
package config
