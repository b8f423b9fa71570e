// SPDX-License-Identifier: MPL-2.0

package launch

import "github.com/meerpipe/meerlaunch/pkg/params"

// EnvParams maps host environment variables onto the catalog parameters they
// may supply.
var EnvParams = map[string]string{
	"PSRDB_URL":   params.ParamPsrdbURL,
	"PSRDB_TOKEN": params.ParamPsrdbToken,
}

// ValuesFromEnv returns the parameter values found in the environment.
// Unset and empty variables are ignored.
func ValuesFromEnv(lookup func(string) (string, bool)) params.Values {
	out := make(params.Values)
	for env, name := range EnvParams {
		if v, ok := lookup(env); ok && v != "" {
			out[name] = params.String(v)
		}
	}
	return out
}
