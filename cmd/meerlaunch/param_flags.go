// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"maps"

	"github.com/spf13/pflag"

	"github.com/meerpipe/meerlaunch/internal/issue"
	"github.com/meerpipe/meerlaunch/internal/launch"
	"github.com/meerpipe/meerlaunch/pkg/params"
)

// valueInputs are the non-parameter flags that feed parameter values.
type valueInputs struct {
	paramsFile string
	unset      []string
}

// registerParamFlags adds one flag per catalog parameter, named exactly as
// the parameter, plus the --params-file and --unset inputs.
func registerParamFlags(fs *pflag.FlagSet, cat *params.Catalog, in *valueInputs) {
	for _, p := range cat.Params() {
		switch p.Type {
		case params.TypeBool:
			fs.Bool(p.Name, p.Default.AsBool(), p.Description)
		case params.TypeInt:
			fs.Int64(p.Name, p.Default.AsInt(), p.Description)
		default:
			fs.String(p.Name, p.Default.AsString(), p.Description)
		}
	}
	fs.StringVar(&in.paramsFile, "params-file", "", "read parameter values from a .cue, .json or .toml file")
	fs.StringSliceVar(&in.unset, "unset", nil, "clear a parameter so that it is not passed to Nextflow (repeatable)")
}

// changedParamValues returns the values of the parameter flags set on the
// command line.
func changedParamValues(fs *pflag.FlagSet, cat *params.Catalog) (params.Values, error) {
	out := make(params.Values)
	for _, p := range cat.Params() {
		f := fs.Lookup(p.Name)
		if f == nil || !f.Changed {
			continue
		}
		switch p.Type {
		case params.TypeBool:
			b, err := fs.GetBool(p.Name)
			if err != nil {
				return nil, err
			}
			out[p.Name] = params.Bool(b)
		case params.TypeInt:
			n, err := fs.GetInt64(p.Name)
			if err != nil {
				return nil, err
			}
			out[p.Name] = params.Int(n)
		case params.TypeDir:
			out[p.Name] = params.Dir(f.Value.String())
		default:
			out[p.Name] = params.String(f.Value.String())
		}
	}
	return out, nil
}

// collectValues layers the parameter sources. Later sources win: PSRDB_*
// environment, then the params file, then command-line flags. --unset is
// applied last.
func (a *App) collectValues(fs *pflag.FlagSet, cat *params.Catalog, in valueInputs) (params.Values, error) {
	supplied := launch.ValuesFromEnv(a.LookupEnv)

	if in.paramsFile != "" {
		fileValues, err := cat.LoadFile(in.paramsFile)
		if err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("load parameters").
				WithResource(in.paramsFile).
				WithSuggestion("List the accepted parameters with 'meerlaunch params'").
				WithIssue(issue.ParamsFileInvalidId).
				Wrap(err).
				BuildError()
		}
		maps.Copy(supplied, fileValues)
	}

	flagValues, err := changedParamValues(fs, cat)
	if err != nil {
		return nil, err
	}
	maps.Copy(supplied, flagValues)

	for _, name := range in.unset {
		if _, ok := cat.Lookup(name); !ok {
			return nil, &params.UnknownParamError{Name: name}
		}
		supplied[name] = params.Absent()
	}
	return supplied, nil
}
