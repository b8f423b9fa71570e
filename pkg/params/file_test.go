// SPDX-License-Identifier: MPL-2.0

package params

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeParamsFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

func TestSchema_ListsEveryParam(t *testing.T) {
	t.Parallel()

	schema := Meerpipe().Schema()
	for _, name := range Meerpipe().Names() {
		if !strings.Contains(schema, "\t"+name+"?: ") {
			t.Errorf("schema is missing %s:\n%s", name, schema)
		}
	}
	if !strings.Contains(schema, "tos_sn?: int | null") {
		t.Errorf("tos_sn should be an int field:\n%s", schema)
	}
}

func TestLoadFile_CUE(t *testing.T) {
	t.Parallel()

	path := writeParamsFile(t, "params.cue", `
pulsar: "J0437-4715"
tos_sn: 15
upload: false
outdir: "latch:///meerpipe/out"
nchans: null
`)
	got, err := Meerpipe().LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}

	want := Values{
		"pulsar": String("J0437-4715"),
		"tos_sn": Int(15),
		"upload": Bool(false),
		"outdir": Dir("latch:///meerpipe/out"),
		"nchans": Absent(),
	}
	if len(got) != len(want) {
		t.Fatalf("got %d values, want %d: %v", len(got), len(want), got)
	}
	for name, w := range want {
		v, ok := got[name]
		if !ok || v != w {
			t.Errorf("%s = %v (present=%v), want %v", name, v, ok, w)
		}
	}
}

func TestLoadFile_JSON(t *testing.T) {
	t.Parallel()

	path := writeParamsFile(t, "params.json", `{"project": "PTA", "email": null, "chop_edge": false}`)
	got, err := Meerpipe().LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if got["project"] != String("PTA") || got["chop_edge"] != Bool(false) {
		t.Errorf("unexpected values: %v", got)
	}
	if v, ok := got["email"]; !ok || v.IsSet() {
		t.Errorf("email should be an explicit absent value, got %v (present=%v)", v, ok)
	}
}

func TestLoadFile_TOML(t *testing.T) {
	t.Parallel()

	path := writeParamsFile(t, "params.toml", `
utcs = "2020-01-01-00:00:00"
max_nchan_upload = 64
use_prev_ar = true
`)
	got, err := Meerpipe().LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if got["utcs"] != String("2020-01-01-00:00:00") {
		t.Errorf("utcs = %v", got["utcs"])
	}
	if got["max_nchan_upload"] != Int(64) {
		t.Errorf("max_nchan_upload = %v", got["max_nchan_upload"])
	}
	if got["use_prev_ar"] != Bool(true) {
		t.Errorf("use_prev_ar = %v", got["use_prev_ar"])
	}
}

func TestLoadFile_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"unknown field", "p.cue", `pulsars: "J0437"`},
		{"wrong type", "p.cue", `tos_sn: "twelve"`},
		{"float for int", "p.json", `{"tos_sn": 12.5}`},
		{"toml wrong type", "p.toml", `upload = "yes"`},
		{"syntax error", "p.cue", `pulsar: `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := writeParamsFile(t, tt.file, tt.content)
			if _, err := Meerpipe().LoadFile(path); err == nil {
				t.Errorf("expected error for %s", tt.content)
			}
		})
	}
}

func TestLoadFile_UnsupportedFormat(t *testing.T) {
	t.Parallel()

	path := writeParamsFile(t, "params.yaml", "pulsar: J0437\n")
	if _, err := Meerpipe().LoadFile(path); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}
