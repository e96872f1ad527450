// Package config loads sigbench.yaml files.
package config

import (
	"os"
	"regexp"
	"strings"
)

// envRef matches $${...} (escaped), ${VAR} and ${VAR:-default}.
var envRef = regexp.MustCompile(`\$?\$\{([A-Za-z_][A-Za-z0-9_]*)(:-[^}]*)?\}`)

// ExpandEnv substitutes ${VAR} and ${VAR:-default} in input. The default
// applies when VAR is unset or empty; without one the reference becomes "".
// Missing required values surface later as validation errors.
// $${VAR} is left in place as the literal ${VAR}.
func ExpandEnv(input string) string {
	var b strings.Builder
	last := 0
	for _, m := range envRef.FindAllStringSubmatchIndex(input, -1) {
		b.WriteString(input[last:m[0]])
		last = m[1]

		ref := input[m[0]:m[1]]
		if strings.HasPrefix(ref, "$$") {
			b.WriteString(ref[1:])
			continue
		}
		if v := os.Getenv(input[m[2]:m[3]]); v != "" {
			b.WriteString(v)
		} else if m[4] >= 0 {
			b.WriteString(input[m[4]+2 : m[5]])
		}
	}
	b.WriteString(input[last:])
	return b.String()
}
