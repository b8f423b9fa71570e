// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"testing"
)

func TestConfig_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "storage too large", mutate: func(c *Config) { c.Storage.GiB = 1 << 20 }, wantErr: ErrInvalidStorageSize},
		{name: "negative storage", mutate: func(c *Config) { c.Storage.GiB = -1 }, wantErr: ErrInvalidStorageSize},
		{name: "color scheme", mutate: func(c *Config) { c.UI.ColorScheme = "neon" }, wantErr: ErrInvalidColorScheme},
		{name: "log format", mutate: func(c *Config) { c.UI.LogFormat = "" }, wantErr: ErrInvalidLogFormat},
		{name: "empty runner", mutate: func(c *Config) { c.Nextflow.Runner = "  " }, wantErr: ErrInvalidSetting},
		{name: "same dirs", mutate: func(c *Config) { c.Paths.SharedDir = c.Paths.SourceDir }, wantErr: ErrInvalidSetting},
		{name: "negative timeout", mutate: func(c *Config) { c.Dispatcher.Timeout = -1 }, wantErr: ErrInvalidSetting},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.mutate(cfg)

			valid, errs := cfg.IsValid()
			if tt.wantErr == nil {
				if !valid {
					t.Fatalf("IsValid() = false, errors: %v", errs)
				}
				return
			}
			if valid {
				t.Fatal("IsValid() = true, want false")
			}
			if !errors.Is(errs[0], ErrInvalidConfig) {
				t.Errorf("error %v does not wrap ErrInvalidConfig", errs[0])
			}
			var cfgErr *InvalidConfigError
			if !errors.As(errs[0], &cfgErr) {
				t.Fatalf("error is %T, want *InvalidConfigError", errs[0])
			}
			found := false
			for _, fe := range cfgErr.FieldErrors {
				if errors.Is(fe, tt.wantErr) {
					found = true
				}
			}
			if !found {
				t.Errorf("field errors %v do not include %v", cfgErr.FieldErrors, tt.wantErr)
			}
		})
	}
}

func TestEnums_IsValid(t *testing.T) {
	t.Parallel()

	for _, cs := range []ColorScheme{ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight} {
		if ok, _ := cs.IsValid(); !ok {
			t.Errorf("ColorScheme(%q).IsValid() = false", cs)
		}
	}
	for _, lf := range []LogFormat{LogFormatText, LogFormatJSON} {
		if ok, _ := lf.IsValid(); !ok {
			t.Errorf("LogFormat(%q).IsValid() = false", lf)
		}
	}
	if ok, errs := LogFormat("yaml").IsValid(); ok || !errors.Is(errs[0], ErrInvalidLogFormat) {
		t.Errorf("LogFormat(yaml).IsValid() = %v, %v", ok, errs)
	}
}
