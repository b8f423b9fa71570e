// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/spf13/viper"

	"github.com/meerpipe/meerlaunch/internal/issue"
)

const (
	// AppName is the application name.
	AppName = "meerlaunch"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment overrides, e.g. MEERLAUNCH_STORAGE_GIB.
	EnvPrefix = "MEERLAUNCH"

	// maxConfigFileSize bounds config files read from disk (1 MiB).
	maxConfigFileSize = 1 << 20
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the meerlaunch configuration directory: %APPDATA% on
// Windows, ~/Library/Application Support on macOS and $XDG_CONFIG_HOME
// (defaulting to ~/.config) elsewhere.
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// setDefaults registers every key so that environment overrides apply to
// keys absent from the config file.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("dispatcher.url", d.Dispatcher.URL)
	v.SetDefault("dispatcher.timeout", d.Dispatcher.Timeout)
	v.SetDefault("dispatcher.token_env", d.Dispatcher.TokenEnv)
	v.SetDefault("storage.gib", int(d.Storage.GiB))
	v.SetDefault("nextflow.runner", d.Nextflow.Runner)
	v.SetDefault("nextflow.script", d.Nextflow.Script)
	v.SetDefault("nextflow.profile", d.Nextflow.Profile)
	v.SetDefault("nextflow.config_file", d.Nextflow.ConfigFile)
	v.SetDefault("nextflow.home", d.Nextflow.Home)
	v.SetDefault("nextflow.opts", d.Nextflow.Opts)
	v.SetDefault("nextflow.env_files", d.Nextflow.EnvFiles)
	v.SetDefault("paths.source_dir", d.Paths.SourceDir)
	v.SetDefault("paths.shared_dir", d.Paths.SharedDir)
	v.SetDefault("paths.excludes", d.Paths.Excludes)
	v.SetDefault("paths.log_file", d.Paths.LogFile)
	v.SetDefault("logs.base", d.Logs.Base)
	v.SetDefault("logs.sub_path", d.Logs.SubPath)
	v.SetDefault("logs.file_name", d.Logs.FileName)
	v.SetDefault("logs.s3.region", d.Logs.S3.Region)
	v.SetDefault("logs.s3.endpoint", d.Logs.S3.Endpoint)
	v.SetDefault("metrics.textfile", d.Metrics.Textfile)
	v.SetDefault("ui.color_scheme", string(d.UI.ColorScheme))
	v.SetDefault("ui.verbose", d.UI.Verbose)
	v.SetDefault("ui.log_format", string(d.UI.LogFormat))
}

// loadWithOptions loads defaults, the resolved config file and environment
// overrides. It returns the path of the file used, or "" for none.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v)

	resolvedPath, err := resolveConfigPath(opts)
	if err != nil {
		return nil, "", err
	}
	if resolvedPath != "" {
		if err := loadCUEIntoViper(v, resolvedPath); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(resolvedPath).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("Run 'meerlaunch config dump' to see a complete valid file").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(err).
				BuildError()
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	if valid, errs := cfg.IsValid(); !valid {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Check " + EnvPrefix + "_* environment overrides").
			WithSuggestion("Run 'meerlaunch config show' to inspect the effective values").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(errs[0]).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

// resolveConfigPath applies the lookup order. An explicit path must exist.
func resolveConfigPath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'meerlaunch config show' to see the default configuration").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	cfgDir := opts.ConfigDirPath
	if cfgDir == "" {
		var err error
		if cfgDir, err = ConfigDir(); err != nil {
			return "", err
		}
	}

	fileName := ConfigFileName + "." + ConfigFileExt
	if p := filepath.Join(cfgDir, fileName); fileExists(p) {
		return p, nil
	}
	local := fileName
	if opts.BaseDir != "" {
		local = filepath.Join(opts.BaseDir, fileName)
	}
	if fileExists(local) {
		return local, nil
	}
	return "", nil
}

// loadCUEIntoViper parses a CUE file, validates it against #Config and
// merges it into v over the defaults.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if len(data) > maxConfigFileSize {
		return fmt.Errorf("config file %s exceeds %d bytes", path, maxConfigFileSize)
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return formatCUEError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return formatCUEError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return formatCUEError(err, path)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

func formatCUEError(err error, path string) error {
	details := strings.TrimSpace(cueerrors.Details(err, nil))
	if details == "" {
		details = err.Error()
	}
	return fmt.Errorf("%s:\n%s", path, details)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// GenerateCUE renders cfg as a config file accepted by #Config.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// meerlaunch configuration\n\n")

	fmt.Fprintf(&sb, "dispatcher: {\n\turl: %q\n\ttimeout: %q\n\ttoken_env: %q\n}\n",
		cfg.Dispatcher.URL, cfg.Dispatcher.Timeout.String(), cfg.Dispatcher.TokenEnv)

	fmt.Fprintf(&sb, "\nstorage: gib: %d\n", cfg.Storage.GiB)

	sb.WriteString("\nnextflow: {\n")
	fmt.Fprintf(&sb, "\trunner: %q\n", cfg.Nextflow.Runner)
	fmt.Fprintf(&sb, "\tscript: %q\n", cfg.Nextflow.Script)
	fmt.Fprintf(&sb, "\tprofile: %q\n", cfg.Nextflow.Profile)
	fmt.Fprintf(&sb, "\tconfig_file: %q\n", cfg.Nextflow.ConfigFile)
	fmt.Fprintf(&sb, "\thome: %q\n", cfg.Nextflow.Home)
	fmt.Fprintf(&sb, "\topts: %q\n", cfg.Nextflow.Opts)
	fmt.Fprintf(&sb, "\tenv_files: %s\n", cueList(cfg.Nextflow.EnvFiles))
	sb.WriteString("}\n")

	sb.WriteString("\npaths: {\n")
	fmt.Fprintf(&sb, "\tsource_dir: %q\n", cfg.Paths.SourceDir)
	fmt.Fprintf(&sb, "\tshared_dir: %q\n", cfg.Paths.SharedDir)
	fmt.Fprintf(&sb, "\texcludes: %s\n", cueList(cfg.Paths.Excludes))
	fmt.Fprintf(&sb, "\tlog_file: %q\n", cfg.Paths.LogFile)
	sb.WriteString("}\n")

	sb.WriteString("\nlogs: {\n")
	if cfg.Logs.Base == "" {
		sb.WriteString("\t// Empty base disables .nextflow.log upload. Set an s3:// or file:// URI,\n")
		sb.WriteString("\t// for example: base: \"s3://my-bucket/nextflow-logs\"\n")
	}
	fmt.Fprintf(&sb, "\tbase: %q\n", cfg.Logs.Base)
	fmt.Fprintf(&sb, "\tsub_path: %q\n", cfg.Logs.SubPath)
	fmt.Fprintf(&sb, "\tfile_name: %q\n", cfg.Logs.FileName)
	fmt.Fprintf(&sb, "\ts3: {\n\t\tregion: %q\n\t\tendpoint: %q\n\t}\n", cfg.Logs.S3.Region, cfg.Logs.S3.Endpoint)
	sb.WriteString("}\n")

	fmt.Fprintf(&sb, "\nmetrics: textfile: %q\n", cfg.Metrics.Textfile)

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tcolor_scheme: %q\n", cfg.UI.ColorScheme)
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	fmt.Fprintf(&sb, "\tlog_format: %q\n", cfg.UI.LogFormat)
	sb.WriteString("}\n")

	return sb.String()
}

func cueList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
