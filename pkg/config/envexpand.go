package config

import "os"

// ExpandEnv expands environment variables in raw YAML bytes before parsing,
// using Go's standard shell-style ${VAR}/$VAR syntax. Missing variables
// expand to the empty string; validation is expected to catch any resulting
// empty required field.
func ExpandEnv(data []byte) []byte {
	return []byte(os.ExpandEnv(string(data)))
}
