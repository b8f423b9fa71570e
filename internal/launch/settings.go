// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"path/filepath"

	"github.com/meerpipe/meerlaunch/internal/fscopy"
)

// Settings are the fixed values of a launch. DefaultSettings matches the
// platform image layout.
type Settings struct {
	// StorageGiB is the shared volume size requested from the dispatcher.
	StorageGiB int

	// Runner is the Nextflow executable.
	Runner string
	// Script is the pipeline entry point, relative to SharedDir.
	Script string
	// Profile is passed as -profile.
	Profile string
	// ConfigFile is passed as -c and resolved by Nextflow against SharedDir.
	ConfigFile string

	// SourceDir is the tree staged into SharedDir.
	SourceDir string
	// SharedDir is the work directory on the shared volume. Nextflow runs
	// from here and uses it as -work-dir.
	SharedDir string
	// Excludes are base names never staged, at any depth.
	Excludes []string

	// LogFile is the Nextflow log name inside SharedDir.
	LogFile string

	// NXFHome and NXFOpts are exported to Nextflow as NXF_HOME and NXF_OPTS.
	NXFHome string
	NXFOpts string

	// MetricsTextfile, when set, receives the run metrics.
	MetricsTextfile string
}

// DefaultSettings returns the settings of the stock platform image.
func DefaultSettings() Settings {
	return Settings{
		StorageGiB: 100,
		Runner:     "/root/nextflow",
		Script:     "main.nf",
		Profile:    "docker",
		ConfigFile: "latch.config",
		SourceDir:  "/root",
		SharedDir:  "/nf-workdir",
		Excludes:   append([]string(nil), fscopy.DefaultExcludes...),
		LogFile:    ".nextflow.log",
		NXFHome:    "/root/.nextflow",
		NXFOpts:    "-Xms2048M -Xmx8G -XX:ActiveProcessorCount=4",
	}
}

// ScriptPath is the absolute path of the pipeline entry point.
func (s Settings) ScriptPath() string {
	return filepath.Join(s.SharedDir, s.Script)
}

// LogPath is the absolute path of the Nextflow log.
func (s Settings) LogPath() string {
	return filepath.Join(s.SharedDir, s.LogFile)
}
