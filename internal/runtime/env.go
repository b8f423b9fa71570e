// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// EnvBuilder assembles a child environment. Sources are applied in order of
// increasing precedence:
//  1. the host environment
//  2. dotenv files, in the order added
//  3. fixed overrides set with Set
type EnvBuilder struct {
	host      []string
	files     []string
	baseDir   string
	overrides map[string]string
}

// NewEnvBuilder starts from the current process environment.
func NewEnvBuilder() *EnvBuilder {
	return &EnvBuilder{host: os.Environ(), overrides: make(map[string]string)}
}

// WithHost replaces the host environment with KEY=VALUE entries.
func (b *EnvBuilder) WithHost(environ []string) *EnvBuilder {
	b.host = environ
	return b
}

// WithBaseDir sets the directory relative env file paths resolve against.
// Empty means the working directory.
func (b *EnvBuilder) WithBaseDir(dir string) *EnvBuilder {
	b.baseDir = dir
	return b
}

// AddFiles appends dotenv files. A path ending in '?' is optional and
// ignored when missing.
func (b *EnvBuilder) AddFiles(paths ...string) *EnvBuilder {
	b.files = append(b.files, paths...)
	return b
}

// Set adds a fixed override.
func (b *EnvBuilder) Set(key, value string) *EnvBuilder {
	b.overrides[key] = value
	return b
}

// Build returns the merged environment.
func (b *EnvBuilder) Build() (map[string]string, error) {
	env := make(map[string]string, len(b.host)+len(b.overrides))
	for _, entry := range b.host {
		name, value, ok := strings.Cut(entry, "=")
		if !ok || name == "" {
			continue
		}
		env[name] = value
	}

	for _, path := range b.files {
		if err := LoadEnvFile(env, path, b.baseDir); err != nil {
			return nil, err
		}
	}

	maps.Copy(env, b.overrides)
	return env, nil
}

// LoadEnvFile merges a dotenv file into env, overriding existing keys.
// Relative paths resolve against baseDir. A trailing '?' marks the file optional.
func LoadEnvFile(env map[string]string, path, baseDir string) error {
	path, optional := strings.CutSuffix(path, "?")

	fullPath := filepath.FromSlash(path)
	if !filepath.IsAbs(fullPath) && baseDir != "" {
		fullPath = filepath.Join(baseDir, fullPath)
	}

	values, err := godotenv.Read(fullPath)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read env file '%s': %w", path, err)
	}

	maps.Copy(env, values)
	return nil
}
