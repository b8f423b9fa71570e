// SPDX-License-Identifier: MPL-2.0

package params

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/pelletier/go-toml/v2"
)

// maxParamsFileSize bounds parameter files read from disk (1 MiB).
const maxParamsFileSize = 1 << 20

// schemaDefinition is the name of the generated CUE definition.
const schemaDefinition = "#Params"

// ErrUnsupportedFormat is returned for parameter files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported parameter file format")

// Schema returns a CUE source declaring #Params: a closed struct with one
// optional field per parameter that accepts the declared type or null.
func (c *Catalog) Schema() string {
	var sb strings.Builder
	sb.WriteString(schemaDefinition + ": {\n")
	for _, p := range c.params {
		fmt.Fprintf(&sb, "\t%s?: %s | null\n", p.Name, cueType(p.Type))
	}
	sb.WriteString("}\n")
	return sb.String()
}

func cueType(t Type) string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	default:
		return "string"
	}
}

// LoadFile reads a .cue, .json or .toml parameter file, validates it against
// Schema and returns its values. A null field yields an explicit absent value.
func (c *Catalog) LoadFile(path string) (Values, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read params file: %w", err)
	}
	if info.Size() > maxParamsFileSize {
		return nil, fmt.Errorf("params file %s exceeds %d bytes", path, maxParamsFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read params file: %w", err)
	}
	return c.ParseFile(filepath.Ext(path), data, path)
}

// ParseFile validates parameter file content of the given extension.
// The name is only used in error messages.
func (c *Catalog) ParseFile(ext string, data []byte, name string) (Values, error) {
	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(c.Schema(), cue.Filename("params_schema.cue"))
	if schemaValue.Err() != nil {
		return nil, fmt.Errorf("internal error: failed to compile params schema: %w", schemaValue.Err())
	}
	schema := schemaValue.LookupPath(cue.ParsePath(schemaDefinition))

	var userValue cue.Value
	switch strings.ToLower(ext) {
	case ".cue", ".json":
		userValue = ctx.CompileBytes(data, cue.Filename(name))
	case ".toml":
		var raw map[string]any
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		userValue = ctx.Encode(raw)
	default:
		return nil, fmt.Errorf("%w: %q (use .cue, .json or .toml)", ErrUnsupportedFormat, ext)
	}
	if userValue.Err() != nil {
		return nil, formatCUEError(userValue.Err(), name)
	}

	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err, name)
	}

	return c.decode(unified, name)
}

func (c *Catalog) decode(v cue.Value, name string) (Values, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err, name)
	}

	out := make(Values)
	for iter.Next() {
		field := iter.Selector().String()
		p, ok := c.Lookup(field)
		if !ok {
			return nil, &UnknownParamError{Name: field}
		}
		fv := iter.Value()
		if fv.IsNull() {
			out[field] = Absent()
			continue
		}

		switch p.Type {
		case TypeString, TypeDir:
			s, err := fv.String()
			if err != nil {
				return nil, formatCUEError(err, name)
			}
			if p.Type == TypeDir {
				out[field] = Dir(s)
			} else {
				out[field] = String(s)
			}
		case TypeBool:
			b, err := fv.Bool()
			if err != nil {
				return nil, formatCUEError(err, name)
			}
			out[field] = Bool(b)
		case TypeInt:
			n, err := fv.Int64()
			if err != nil {
				return nil, formatCUEError(err, name)
			}
			out[field] = Int(n)
		}
	}
	return out, nil
}

// formatCUEError flattens CUE's multi-error into one message with positions.
func formatCUEError(err error, name string) error {
	details := strings.TrimSpace(cueerrors.Details(err, nil))
	if details == "" {
		details = err.Error()
	}
	return fmt.Errorf("invalid params file %s:\n%s", name, details)
}
