// SPDX-License-Identifier: MPL-2.0

package params

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const flagPrefix = "--"

// ErrMalformedFlags is the sentinel error wrapped by MalformedFlagsError.
var ErrMalformedFlags = errors.New("malformed parameter flags")

// MalformedFlagsError is returned by ParseFlags for token sequences Flags
// could not have produced.
type MalformedFlagsError struct {
	Index  int
	Token  string
	Reason string
}

// Error implements the error interface for MalformedFlagsError.
func (e *MalformedFlagsError) Error() string {
	return fmt.Sprintf("malformed flags at token %d (%q): %s", e.Index, e.Token, e.Reason)
}

// Unwrap returns ErrMalformedFlags for errors.Is() compatibility.
func (e *MalformedFlagsError) Unwrap() error { return ErrMalformedFlags }

// RenderString renders a string parameter as "--name value".
func RenderString(name, s string) []string {
	return []string{flagPrefix + name, s}
}

// RenderInt renders an integer parameter as "--name <decimal>".
func RenderInt(name string, i int64) []string {
	return []string{flagPrefix + name, strconv.FormatInt(i, 10)}
}

// RenderDir renders an output directory parameter as "--name <uri>".
func RenderDir(name, uri string) []string {
	return []string{flagPrefix + name, uri}
}

// RenderBool renders a boolean parameter. True is the bare "--name" that
// Nextflow reads as true; false is forwarded as "--name false" so a false
// value can override a true pipeline default.
func RenderBool(name string, b bool) []string {
	if b {
		return []string{flagPrefix + name}
	}
	return []string{flagPrefix + name, "false"}
}

// Flags renders values as Nextflow parameter flags in catalog order.
// Absent values and names not present in values produce no tokens.
func (c *Catalog) Flags(values Values) ([]string, error) {
	if err := c.checkNames(values); err != nil {
		return nil, err
	}

	var args []string
	for _, p := range c.params {
		v, ok := values[p.Name]
		if !ok || !v.IsSet() {
			continue
		}
		if v.Type() != p.Type {
			return nil, &TypeMismatchError{Name: p.Name, Want: p.Type, Got: v.Type()}
		}

		switch p.Type {
		case TypeString:
			args = append(args, RenderString(p.Name, v.AsString())...)
		case TypeBool:
			args = append(args, RenderBool(p.Name, v.AsBool())...)
		case TypeInt:
			args = append(args, RenderInt(p.Name, v.AsInt())...)
		case TypeDir:
			args = append(args, RenderDir(p.Name, v.AsString())...)
		}
	}
	return args, nil
}

// ParseFlags reads back a token sequence produced by Flags.
func (c *Catalog) ParseFlags(args []string) (Values, error) {
	out := make(Values)
	for i := 0; i < len(args); i++ {
		tok := args[i]
		name, ok := strings.CutPrefix(tok, flagPrefix)
		if !ok || name == "" {
			return nil, &MalformedFlagsError{Index: i, Token: tok, Reason: "expected --<name>"}
		}
		p, ok := c.Lookup(name)
		if !ok {
			return nil, &UnknownParamError{Name: name}
		}
		if _, dup := out[name]; dup {
			return nil, &MalformedFlagsError{Index: i, Token: tok, Reason: "parameter given twice"}
		}

		if p.Type == TypeBool {
			b := true
			if i+1 < len(args) && isBoolLiteral(args[i+1]) {
				b = args[i+1] == "true"
				i++
			}
			out[name] = Bool(b)
			continue
		}

		if i+1 >= len(args) {
			return nil, &MalformedFlagsError{Index: i, Token: tok, Reason: "missing value"}
		}
		raw := args[i+1]
		i++

		switch p.Type {
		case TypeString:
			out[name] = String(raw)
		case TypeDir:
			out[name] = Dir(raw)
		case TypeInt:
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, &MalformedFlagsError{Index: i, Token: raw, Reason: "not an integer"}
			}
			out[name] = Int(n)
		}
	}
	return out, nil
}

// isBoolLiteral reports whether s is a literal RenderBool can emit after a flag.
func isBoolLiteral(s string) bool {
	return s == "true" || s == "false"
}
