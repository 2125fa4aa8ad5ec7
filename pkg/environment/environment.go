// Package environment parses the BROWSEY_* environment variables described
// in spec section 6, and optionally loads a .env file to populate them,
// grounded on the teacher's pkg/environment variable-handling conventions.
package environment

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotEnvIfPresent loads the .env-format file at path into the process
// environment, if one exists. Missing files are not an error; any
// other read failure is returned.
func LoadDotEnvIfPresent(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

// TriState is the result of parsing one of the BROWSEY_* tri-state toggles:
// explicitly enabled, explicitly disabled, or left to the platform default.
type TriState int

const (
	// Unset means the variable was not present in the environment.
	Unset TriState = iota
	// Enabled means the variable was present and parsed as a truthy value.
	Enabled
	// Disabled means the variable was present and parsed as a falsy value.
	Disabled
)

var truthy = map[string]bool{"1": true, "true": true, "yes": true, "on": true}
var falsy = map[string]bool{"0": true, "false": true, "no": true, "off": true}

// ParseTriState reads the named environment variable and classifies it.
// Unrecognized non-empty values are treated as Unset, matching the
// conservative-fallback spirit of the rest of the spec: an ambiguous toggle
// should not silently enable or disable a transport.
func ParseTriState(name string) TriState {
	raw, ok := os.LookupEnv(name)
	if !ok {
		return Unset
	}
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if truthy[normalized] {
		return Enabled
	}
	if falsy[normalized] {
		return Disabled
	}
	return Unset
}

// Resolve returns the effective boolean value of a tri-state toggle given a
// platform default, applied when the variable is Unset.
func (t TriState) Resolve(defaultValue bool) bool {
	switch t {
	case Enabled:
		return true
	case Disabled:
		return false
	default:
		return defaultValue
	}
}
