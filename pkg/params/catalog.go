// SPDX-License-Identifier: MPL-2.0

package params

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"sort"
)

var (
	// ErrInvalidParam is the sentinel error wrapped by InvalidParamError.
	ErrInvalidParam = errors.New("invalid parameter declaration")
	// ErrDuplicateParam is returned when two declarations share a name.
	ErrDuplicateParam = errors.New("duplicate parameter")
	// ErrUnknownParam is the sentinel error wrapped by UnknownParamError.
	ErrUnknownParam = errors.New("unknown parameter")
	// ErrTypeMismatch is the sentinel error wrapped by TypeMismatchError.
	ErrTypeMismatch = errors.New("parameter type mismatch")

	// paramNamePattern matches Nextflow parameter names as used on the command line.
	paramNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
)

type (
	// Param declares one pipeline parameter.
	Param struct {
		// Name is the parameter name, forwarded as --<Name>.
		Name string
		// Type is the declared value type.
		Type Type
		// Default is the value used when nothing is supplied. Absent means None.
		Default Value
		// Section opens a new display group when non-empty. Parameters with an
		// empty Section belong to the group of the nearest preceding labelled one.
		Section string
		// Description is the human-readable help text (may be empty).
		Description string
	}

	// Section is a display group of consecutive parameters.
	Section struct {
		Title  string
		Params []Param
	}

	// Values maps parameter names to supplied values. A name mapped to the
	// absent Value explicitly clears that parameter's default.
	Values map[string]Value

	// Catalog is an insertion-ordered, name-unique set of parameter declarations.
	Catalog struct {
		params []Param
		index  map[string]int
	}

	// InvalidParamError is returned when a declaration is malformed.
	// It wraps ErrInvalidParam for errors.Is() compatibility.
	InvalidParamError struct {
		Name   string
		Reason string
	}

	// UnknownParamError is returned when a value names no declared parameter.
	UnknownParamError struct {
		Name string
	}

	// TypeMismatchError is returned when a value's type differs from the declaration.
	TypeMismatchError struct {
		Name string
		Want Type
		Got  Type
	}
)

// Error implements the error interface for InvalidParamError.
func (e *InvalidParamError) Error() string {
	return fmt.Sprintf("invalid parameter %q: %s", e.Name, e.Reason)
}

// Unwrap returns ErrInvalidParam for errors.Is() compatibility.
func (e *InvalidParamError) Unwrap() error { return ErrInvalidParam }

// Error implements the error interface for UnknownParamError.
func (e *UnknownParamError) Error() string {
	return fmt.Sprintf("unknown parameter %q", e.Name)
}

// Unwrap returns ErrUnknownParam for errors.Is() compatibility.
func (e *UnknownParamError) Unwrap() error { return ErrUnknownParam }

// Error implements the error interface for TypeMismatchError.
func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("parameter %q expects %s, got %s", e.Name, e.Want, e.Got)
}

// Unwrap returns ErrTypeMismatch for errors.Is() compatibility.
func (e *TypeMismatchError) Unwrap() error { return ErrTypeMismatch }

// NewCatalog builds a catalog from declarations in display order.
func NewCatalog(decls ...Param) (*Catalog, error) {
	c := &Catalog{
		params: make([]Param, 0, len(decls)),
		index:  make(map[string]int, len(decls)),
	}
	for _, p := range decls {
		if !paramNamePattern.MatchString(p.Name) {
			return nil, &InvalidParamError{Name: p.Name, Reason: "name must match " + paramNamePattern.String()}
		}
		if valid, errs := p.Type.IsValid(); !valid {
			return nil, &InvalidParamError{Name: p.Name, Reason: errs[0].Error()}
		}
		if p.Default.IsSet() && p.Default.Type() != p.Type {
			return nil, &InvalidParamError{
				Name:   p.Name,
				Reason: fmt.Sprintf("default is %s but declared type is %s", p.Default.Type(), p.Type),
			}
		}
		if _, exists := c.index[p.Name]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateParam, p.Name)
		}
		c.index[p.Name] = len(c.params)
		c.params = append(c.params, p)
	}
	return c, nil
}

// MustCatalog is NewCatalog for static declarations; it panics on error.
func MustCatalog(decls ...Param) *Catalog {
	c, err := NewCatalog(decls...)
	if err != nil {
		panic(err)
	}
	return c
}

// Params returns a copy of the declarations in insertion order.
func (c *Catalog) Params() []Param {
	return slices.Clone(c.params)
}

// Len returns the number of declared parameters.
func (c *Catalog) Len() int { return len(c.params) }

// Names returns the parameter names in insertion order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.params))
	for i, p := range c.params {
		names[i] = p.Name
	}
	return names
}

// Lookup returns the declaration for name.
func (c *Catalog) Lookup(name string) (Param, bool) {
	i, ok := c.index[name]
	if !ok {
		return Param{}, false
	}
	return c.params[i], true
}

// Sections groups parameters for display. Parameters declared before the
// first labelled one land in a group with an empty title.
func (c *Catalog) Sections() []Section {
	var sections []Section
	for _, p := range c.params {
		if p.Section != "" || len(sections) == 0 {
			sections = append(sections, Section{Title: p.Section})
		}
		last := &sections[len(sections)-1]
		last.Params = append(last.Params, p)
	}
	return sections
}

// Defaults returns every declared default that is not None.
func (c *Catalog) Defaults() Values {
	out := make(Values, len(c.params))
	for _, p := range c.params {
		if p.Default.IsSet() {
			out[p.Name] = p.Default
		}
	}
	return out
}

// Resolve overlays supplied values on the catalog defaults. An absent value
// in supplied clears the default; empty strings and empty directory URIs are
// treated as absent. The result only holds present values.
func (c *Catalog) Resolve(supplied Values) (Values, error) {
	out := c.Defaults()
	for _, name := range sortedNames(supplied) {
		v := supplied[name]
		p, ok := c.Lookup(name)
		if !ok {
			return nil, &UnknownParamError{Name: name}
		}
		if !v.IsSet() || v.isEmpty() {
			delete(out, name)
			continue
		}
		if v.Type() != p.Type {
			return nil, &TypeMismatchError{Name: name, Want: p.Type, Got: v.Type()}
		}
		out[name] = v
	}
	return out, nil
}

// checkNames returns an UnknownParamError for the first (sorted) name in
// values that the catalog does not declare.
func (c *Catalog) checkNames(values Values) error {
	for _, name := range sortedNames(values) {
		if _, ok := c.index[name]; !ok {
			return &UnknownParamError{Name: name}
		}
	}
	return nil
}

func sortedNames(values Values) []string {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
