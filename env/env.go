// Package env loads supplemental environment variables from the user's
// ~/.magen/env_vars file: newline-delimited KEY=value pairs, with blank
// lines and #-comments ignored. Lookups for known keys are case-insensitive,
// preferring the uppercase spelling when both are present, and a value is
// only applied when the path it names exists on disk.
package env

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultPath returns the standard env_vars location under the user's home
// directory.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".magen", "env_vars")
	}
	return filepath.Join(home, ".magen", "env_vars")
}

// Vars holds the parsed contents of an env_vars file.
type Vars struct {
	values map[string]string
}

// Load reads and parses the file at path. A missing file yields an empty
// Vars, not an error; a malformed file is an error.
func Load(path string) (*Vars, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Vars{values: map[string]string{}}, nil
		}
		return nil, fmt.Errorf("read env vars: %w", err)
	}
	values, err := godotenv.Parse(strings.NewReader(string(data)))
	if err != nil {
		return nil, fmt.Errorf("parse env vars: %w", err)
	}
	trimmed := make(map[string]string, len(values))
	for k, v := range values {
		trimmed[strings.TrimSpace(k)] = v
	}
	return &Vars{values: trimmed}, nil
}

// Lookup returns the value for key, matching case-insensitively. When both
// the uppercase spelling and another casing are present, uppercase wins.
// Values naming a filesystem path are only returned when the path exists.
func (v *Vars) Lookup(key string) string {
	if v == nil {
		return ""
	}
	upper := strings.ToUpper(key)
	if val, ok := v.values[upper]; ok {
		return applyIfPathExists(val)
	}
	for k, val := range v.values {
		if strings.EqualFold(k, key) {
			return applyIfPathExists(val)
		}
	}
	return ""
}

// Apply exports the known toolchain keys into the process environment when
// they are set in the file but absent from the process. Returns the keys it
// exported.
func (v *Vars) Apply(keys ...string) []string {
	var applied []string
	for _, key := range keys {
		if os.Getenv(key) != "" {
			continue
		}
		if val := v.Lookup(key); val != "" {
			os.Setenv(key, val)
			applied = append(applied, key)
		}
	}
	return applied
}

// FromProcess reads a variable from the process environment.
func FromProcess(key string) string {
	return os.Getenv(key)
}

// applyIfPathExists gates path-like values on their existence on disk.
// Non-path values (no separator) pass through untouched.
func applyIfPathExists(val string) string {
	if !strings.ContainsRune(val, os.PathSeparator) {
		return val
	}
	if _, err := os.Stat(val); err != nil {
		return ""
	}
	return val
}
