// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces the dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces the light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// LogFormatText writes human-readable log lines.
	LogFormatText LogFormat = "text"
	// LogFormatJSON writes one JSON object per log line.
	LogFormatJSON LogFormat = "json"

	// maxStorageGiB caps the shared volume request.
	maxStorageGiB = 64 * 1024
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidLogFormat is returned when a LogFormat value is not recognized.
	ErrInvalidLogFormat = errors.New("invalid log format")
	// ErrInvalidStorageSize is the sentinel error wrapped by InvalidStorageSizeError.
	ErrInvalidStorageSize = errors.New("invalid storage size")
	// ErrInvalidSetting is returned for empty or malformed required settings.
	ErrInvalidSetting = errors.New("invalid setting")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// LogFormat selects the log handler output.
	LogFormat string

	// InvalidLogFormatError is returned when a LogFormat value is not recognized.
	InvalidLogFormatError struct {
		Value LogFormat
	}

	// StorageSize is a volume size in GiB.
	StorageSize int

	// InvalidStorageSizeError is returned for sizes outside 1..65536 GiB.
	InvalidStorageSizeError struct {
		Value StorageSize
	}

	// InvalidSettingError names a setting whose value is unusable.
	InvalidSettingError struct {
		Key    string
		Reason string
	}

	// InvalidConfigError collects every field error found by Config.IsValid.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the launcher configuration.
	Config struct {
		Dispatcher DispatcherConfig `json:"dispatcher" mapstructure:"dispatcher"`
		Storage    StorageConfig    `json:"storage" mapstructure:"storage"`
		Nextflow   NextflowConfig   `json:"nextflow" mapstructure:"nextflow"`
		Paths      PathsConfig      `json:"paths" mapstructure:"paths"`
		Logs       LogsConfig       `json:"logs" mapstructure:"logs"`
		Metrics    MetricsConfig    `json:"metrics" mapstructure:"metrics"`
		UI         UIConfig         `json:"ui" mapstructure:"ui"`
	}

	// DispatcherConfig locates the platform dispatcher.
	DispatcherConfig struct {
		URL     string        `json:"url" mapstructure:"url"`
		Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
		// TokenEnv names the variable holding the execution token.
		TokenEnv string `json:"token_env" mapstructure:"token_env"`
	}

	// StorageConfig sizes the shared volume.
	StorageConfig struct {
		GiB StorageSize `json:"gib" mapstructure:"gib"`
	}

	// NextflowConfig describes the runner invocation.
	NextflowConfig struct {
		Runner     string   `json:"runner" mapstructure:"runner"`
		Script     string   `json:"script" mapstructure:"script"`
		Profile    string   `json:"profile" mapstructure:"profile"`
		ConfigFile string   `json:"config_file" mapstructure:"config_file"`
		Home       string   `json:"home" mapstructure:"home"`
		Opts       string   `json:"opts" mapstructure:"opts"`
		EnvFiles   []string `json:"env_files" mapstructure:"env_files"`
	}

	// PathsConfig describes the staging layout.
	PathsConfig struct {
		SourceDir string   `json:"source_dir" mapstructure:"source_dir"`
		SharedDir string   `json:"shared_dir" mapstructure:"shared_dir"`
		Excludes  []string `json:"excludes" mapstructure:"excludes"`
		LogFile   string   `json:"log_file" mapstructure:"log_file"`
	}

	// LogsConfig describes where the Nextflow log is published. An empty
	// Base disables publishing.
	LogsConfig struct {
		Base     string   `json:"base" mapstructure:"base"`
		SubPath  string   `json:"sub_path" mapstructure:"sub_path"`
		FileName string   `json:"file_name" mapstructure:"file_name"`
		S3       S3Config `json:"s3" mapstructure:"s3"`
	}

	// S3Config addresses an S3 or S3-compatible store. Credentials come
	// from the standard AWS environment and profile chain.
	S3Config struct {
		Region   string `json:"region" mapstructure:"region"`
		Endpoint string `json:"endpoint" mapstructure:"endpoint"`
	}

	// MetricsConfig enables the run metrics textfile.
	MetricsConfig struct {
		Textfile string `json:"textfile" mapstructure:"textfile"`
	}

	// UIConfig configures terminal output.
	UIConfig struct {
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		Verbose     bool        `json:"verbose" mapstructure:"verbose"`
		LogFormat   LogFormat   `json:"log_format" mapstructure:"log_format"`
	}
)

// Error implements the error interface.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns ErrInvalidColorScheme for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// IsValid returns whether the ColorScheme is one of the defined schemes.
func (c ColorScheme) IsValid() (bool, []error) {
	switch c {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: c}}
	}
}

// Error implements the error interface.
func (e *InvalidLogFormatError) Error() string {
	return fmt.Sprintf("invalid log format %q (valid: text, json)", e.Value)
}

// Unwrap returns ErrInvalidLogFormat for errors.Is() compatibility.
func (e *InvalidLogFormatError) Unwrap() error { return ErrInvalidLogFormat }

// IsValid returns whether the LogFormat is one of the defined formats.
func (f LogFormat) IsValid() (bool, []error) {
	switch f {
	case LogFormatText, LogFormatJSON:
		return true, nil
	default:
		return false, []error{&InvalidLogFormatError{Value: f}}
	}
}

// Error implements the error interface.
func (e *InvalidStorageSizeError) Error() string {
	return fmt.Sprintf("invalid storage size %d GiB (must be 1-%d)", e.Value, maxStorageGiB)
}

// Unwrap returns ErrInvalidStorageSize for errors.Is() compatibility.
func (e *InvalidStorageSizeError) Unwrap() error { return ErrInvalidStorageSize }

// IsValid returns whether the size is a usable volume request.
func (s StorageSize) IsValid() (bool, []error) {
	if s < 1 || s > maxStorageGiB {
		return false, []error{&InvalidStorageSizeError{Value: s}}
	}
	return true, nil
}

// Error implements the error interface.
func (e *InvalidSettingError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Key, e.Reason)
}

// Unwrap returns ErrInvalidSetting for errors.Is() compatibility.
func (e *InvalidSettingError) Unwrap() error { return ErrInvalidSetting }

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig followed by the field errors, so errors.Is
// matches both the config sentinel and each field's sentinel.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// IsValid checks the constraints the CUE schema cannot see: values that
// arrive through environment overrides and cross-field rules.
func (c *Config) IsValid() (bool, []error) {
	var errs []error
	add := func(valid bool, fieldErrs []error) {
		if !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	required := func(key, value string) {
		if strings.TrimSpace(value) == "" {
			errs = append(errs, &InvalidSettingError{Key: key, Reason: "must not be empty"})
		}
	}

	add(c.Storage.GiB.IsValid())
	add(c.UI.ColorScheme.IsValid())
	add(c.UI.LogFormat.IsValid())

	required("dispatcher.url", c.Dispatcher.URL)
	required("dispatcher.token_env", c.Dispatcher.TokenEnv)
	required("nextflow.runner", c.Nextflow.Runner)
	required("nextflow.script", c.Nextflow.Script)
	required("paths.source_dir", c.Paths.SourceDir)
	required("paths.shared_dir", c.Paths.SharedDir)
	required("paths.log_file", c.Paths.LogFile)
	required("logs.file_name", c.Logs.FileName)

	if c.Dispatcher.Timeout < 0 {
		errs = append(errs, &InvalidSettingError{Key: "dispatcher.timeout", Reason: "must not be negative"})
	}
	if c.Paths.SourceDir != "" && c.Paths.SourceDir == c.Paths.SharedDir {
		errs = append(errs, &InvalidSettingError{Key: "paths.shared_dir", Reason: "must differ from paths.source_dir"})
	}

	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// DefaultConfig returns the configuration of the stock platform image.
func DefaultConfig() *Config {
	return &Config{
		Dispatcher: DispatcherConfig{
			URL:      "http://nf-dispatcher-service.flyte.svc.cluster.local",
			Timeout:  5 * time.Minute,
			TokenEnv: "FLYTE_INTERNAL_EXECUTION_ID",
		},
		Storage: StorageConfig{GiB: 100},
		Nextflow: NextflowConfig{
			Runner:     "/root/nextflow",
			Script:     "main.nf",
			Profile:    "docker",
			ConfigFile: "latch.config",
			Home:       "/root/.nextflow",
			Opts:       "-Xms2048M -Xmx8G -XX:ActiveProcessorCount=4",
			EnvFiles:   []string{},
		},
		Paths: PathsConfig{
			SourceDir: "/root",
			SharedDir: "/nf-workdir",
			Excludes: []string{
				"latch", ".latch", "nextflow", ".nextflow", "work",
				"results", "miniconda", "anaconda3", "mambaforge",
			},
			LogFile: ".nextflow.log",
		},
		Logs: LogsConfig{
			SubPath:  "nf_nf_core_meerpipe",
			FileName: "nextflow.log",
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
			LogFormat:   LogFormatText,
		},
	}
}
